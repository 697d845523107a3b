// Package peerbook is a DICOM remote-AE address book, keyed by a friendly
// name instead of host:port:aetitle repeated at every invocation.
//
// Repurposes kevinburke/ssh_config's Host-block parser/printer — the exact
// library sshimmer.go uses to manage ~/.ssh/config's Include line — from
// SSH host config onto a peer-AE config file of the same shape: a "Host"
// block per remote AE, with Hostname/Port/AETitle as its KV nodes. Only the
// config-block *parsing and printing* is reused; peerbook carries none of
// sshimmer.go's certificate-authority or key-generation machinery, since
// there is no SSH transport anywhere in this domain.
package peerbook

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kevinburke/ssh_config"
)

// Peer is one remote AE entry: a friendly Name, its network address, and
// the AE title to present as CalledAETitle when a toolwrap SCU call
// targets it.
type Peer struct {
	Name     string
	Hostname string
	Port     int
	AETitle  string
}

// Load reads the peer book at path. A missing file is reported as an empty
// book, not an error — a fresh dcmtkctl install has no peers configured
// yet.
func Load(path string) ([]Peer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading peer book %s: %w", path, err)
	}

	cfg, err := ssh_config.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding peer book %s: %w", path, err)
	}

	var peers []Peer
	for _, host := range cfg.Hosts {
		name := hostName(host)
		if name == "" {
			continue
		}
		peer := Peer{Name: name}
		for _, node := range host.Nodes {
			kv, ok := node.(*ssh_config.KV)
			if !ok {
				continue
			}
			switch strings.ToLower(kv.Key) {
			case "hostname":
				peer.Hostname = kv.Value
			case "port":
				if n, err := strconv.Atoi(kv.Value); err == nil {
					peer.Port = n
				}
			case "aetitle":
				peer.AETitle = kv.Value
			}
		}
		peers = append(peers, peer)
	}
	return peers, nil
}

func hostName(host *ssh_config.Host) string {
	for _, p := range host.Patterns {
		s := p.String()
		if s != "*" {
			return s
		}
	}
	return ""
}

// Save overwrites path with peers, rendered as one Host block per peer.
func Save(path string, peers []Peer) error {
	cfg := &ssh_config.Config{}
	for _, p := range peers {
		pattern, err := ssh_config.NewPattern(p.Name)
		if err != nil {
			return fmt.Errorf("peer name %q: %w", p.Name, err)
		}
		cfg.Hosts = append(cfg.Hosts, &ssh_config.Host{
			Patterns: []*ssh_config.Pattern{pattern},
			Nodes: []ssh_config.Node{
				&ssh_config.KV{Key: "Hostname", Value: p.Hostname},
				&ssh_config.KV{Key: "Port", Value: strconv.Itoa(p.Port)},
				&ssh_config.KV{Key: "AETitle", Value: p.AETitle},
			},
		})
	}

	data, err := cfg.MarshalText()
	if err != nil {
		return fmt.Errorf("marshalling peer book: %w", err)
	}
	return atomicWriteFile(path, data, 0o644)
}

// Lookup finds a peer by name.
func Lookup(peers []Peer, name string) (Peer, bool) {
	for _, p := range peers {
		if p.Name == name {
			return p, true
		}
	}
	return Peer{}, false
}

// atomicWriteFile writes data via a temp-file-then-rename, the same
// durability shape as sshimmer.go's SafeWriteFile, simplified: a peer book
// is re-derived from the same Add/Remove calls that wrote it, so the
// before-overwrite ".bak" copy that file carries isn't needed here.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating peer book directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming temp file into place: %w", err)
	}
	return os.Chmod(path, perm)
}
