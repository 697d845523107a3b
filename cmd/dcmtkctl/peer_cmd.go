package main

import (
	"fmt"

	"github.com/dcmtkgo/dcmtkgo/internal/peerbook"
)

// PeerCmd groups the peer address book's add/list/remove operations under
// "dcmtkctl peer ...", the way cmd/sand groups sandbox lifecycle operations
// under one top-level noun.
type PeerCmd struct {
	Add    PeerAddCmd    `cmd:"" help:"add or update a peer"`
	List   PeerListCmd   `cmd:"" help:"list configured peers"`
	Remove PeerRemoveCmd `cmd:"" help:"remove a peer"`
}

type PeerAddCmd struct {
	Name     string `arg:"" help:"friendly name for this peer"`
	Hostname string `required:"" help:"peer hostname or IP"`
	Port     int    `required:"" help:"peer DICOM port"`
	AETitle  string `required:"" help:"peer AE title"`
}

func (c *PeerAddCmd) Run(ctx *Context) error {
	peers, err := ctx.loadPeers()
	if err != nil {
		return err
	}
	updated := false
	for i, p := range peers {
		if p.Name == c.Name {
			peers[i] = peerbook.Peer{Name: c.Name, Hostname: c.Hostname, Port: c.Port, AETitle: c.AETitle}
			updated = true
			break
		}
	}
	if !updated {
		peers = append(peers, peerbook.Peer{Name: c.Name, Hostname: c.Hostname, Port: c.Port, AETitle: c.AETitle})
	}
	if err := peerbook.Save(ctx.PeerBookPath, peers); err != nil {
		return err
	}
	if updated {
		fmt.Printf("updated peer %q\n", c.Name)
	} else {
		fmt.Printf("added peer %q\n", c.Name)
	}
	return nil
}

type PeerListCmd struct{}

func (c *PeerListCmd) Run(ctx *Context) error {
	peers, err := ctx.loadPeers()
	if err != nil {
		return err
	}
	if len(peers) == 0 {
		fmt.Println("no peers configured")
		return nil
	}
	for _, p := range peers {
		fmt.Printf("%-20s %s:%d  aet=%s\n", p.Name, p.Hostname, p.Port, p.AETitle)
	}
	return nil
}

type PeerRemoveCmd struct {
	Name string `arg:"" predictor:"peer-name" help:"peer to remove"`
}

func (c *PeerRemoveCmd) Run(ctx *Context) error {
	peers, err := ctx.loadPeers()
	if err != nil {
		return err
	}
	kept := peers[:0]
	found := false
	for _, p := range peers {
		if p.Name == c.Name {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return fmt.Errorf("no such peer %q", c.Name)
	}
	if err := peerbook.Save(ctx.PeerBookPath, kept); err != nil {
		return err
	}
	fmt.Printf("removed peer %q\n", c.Name)
	return nil
}
