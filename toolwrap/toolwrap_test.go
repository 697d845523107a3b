package toolwrap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dcmtkgo/dcmtkgo/resolver"
	"github.com/dcmtkgo/dcmtkgo/tool"
)

// newFakeRoot writes a tiny /bin/sh stub for every required DCMTK binary
// (so resolver.Resolve's manifest check succeeds) into a temp dir, then
// overrides the named tool's script with scriptBody, and returns a Resolver
// pinned at that directory via DCMTK_ROOT.
func newFakeRoot(t *testing.T, binary, scriptBody string) *resolver.Resolver {
	t.Helper()
	dir := t.TempDir()
	for _, name := range resolver.RequiredBinaries {
		body := "#!/bin/sh\nexit 0\n"
		if name == binary {
			body = scriptBody
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
			t.Fatalf("writing stub %s: %v", name, err)
		}
	}
	t.Setenv(resolver.EnvRoot, dir)
	return resolver.New()
}

func TestEchoSCUSuccess(t *testing.T) {
	res := newFakeRoot(t, "echoscu", "#!/bin/sh\necho 'I: Association Accepted'\nexit 0\n")
	r := EchoSCU(res, EchoSCUOptions{PeerOptions: PeerOptions{CallingAETitle: "ME", CalledAETitle: "THEM"}}, "127.0.0.1", 11112, tool.Options{})
	if r.IsErr() {
		t.Fatalf("EchoSCU failed: %v", r.Error())
	}
	out, _ := r.Value()
	if out.Output == "" {
		t.Error("expected non-empty output")
	}
}

func TestEchoSCUNonZeroExitIsError(t *testing.T) {
	res := newFakeRoot(t, "echoscu", "#!/bin/sh\necho 'E: Association Rejected' 1>&2\nexit 1\n")
	r := EchoSCU(res, EchoSCUOptions{PeerOptions: PeerOptions{CallingAETitle: "ME", CalledAETitle: "THEM"}}, "127.0.0.1", 11112, tool.Options{})
	if r.IsOk() {
		t.Fatal("expected error on non-zero exit")
	}
}

func TestEchoSCUValidatesAETitle(t *testing.T) {
	res := newFakeRoot(t, "echoscu", "#!/bin/sh\nexit 0\n")
	r := EchoSCU(res, EchoSCUOptions{PeerOptions: PeerOptions{CallingAETitle: "", CalledAETitle: "THEM"}}, "127.0.0.1", 11112, tool.Options{})
	if r.IsOk() {
		t.Fatal("expected validation error for missing CallingAETitle")
	}
}

func TestStoreSCUSendsFileArgs(t *testing.T) {
	res := newFakeRoot(t, "storescu", "#!/bin/sh\necho \"$@\"\nexit 0\n")
	r := StoreSCU(res, StoreSCUOptions{PeerOptions: PeerOptions{CallingAETitle: "ME", CalledAETitle: "THEM"}},
		"127.0.0.1", 104, []string{"/tmp/a.dcm", "/tmp/b.dcm"}, tool.Options{})
	if r.IsErr() {
		t.Fatalf("StoreSCU failed: %v", r.Error())
	}
	out, _ := r.Value()
	if out.Output == "" {
		t.Error("expected echoed args in output")
	}
}

func TestDcmFTestReportsNonDICOMWithoutError(t *testing.T) {
	res := newFakeRoot(t, "dcmftest", "#!/bin/sh\nexit 1\n")
	r := DcmFTest(res, "/tmp/not-a-dicom.txt", tool.Options{})
	if r.IsErr() {
		t.Fatalf("DcmFTest should not error on a non-DICOM file: %v", r.Error())
	}
	out, _ := r.Value()
	if out.IsDICOM {
		t.Error("expected IsDICOM=false")
	}
}

func TestDcmFTestReportsDICOM(t *testing.T) {
	res := newFakeRoot(t, "dcmftest", "#!/bin/sh\nexit 0\n")
	r := DcmFTest(res, "/tmp/real.dcm", tool.Options{})
	if r.IsErr() {
		t.Fatalf("DcmFTest failed: %v", r.Error())
	}
	out, _ := r.Value()
	if !out.IsDICOM {
		t.Error("expected IsDICOM=true")
	}
}

func TestDcmConvReturnsOutputPath(t *testing.T) {
	res := newFakeRoot(t, "dcmconv", "#!/bin/sh\nexit 0\n")
	r := DcmConv(res, DcmConvOptions{}, "/tmp/in.dcm", "/tmp/out.dcm", tool.Options{})
	if r.IsErr() {
		t.Fatalf("DcmConv failed: %v", r.Error())
	}
	out, _ := r.Value()
	if out.OutputPath != "/tmp/out.dcm" {
		t.Errorf("OutputPath = %q", out.OutputPath)
	}
}

func TestResolutionFailurePropagates(t *testing.T) {
	t.Setenv(resolver.EnvRoot, t.TempDir())
	res := resolver.New()
	r := EchoSCU(res, EchoSCUOptions{PeerOptions: PeerOptions{CallingAETitle: "ME", CalledAETitle: "THEM"}}, "127.0.0.1", 11112, tool.Options{})
	if r.IsOk() {
		t.Fatal("expected resolution failure with no binaries present")
	}
}
