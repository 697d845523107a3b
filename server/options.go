package server

// CommonOptions are flags every DCMTK SCP binary accepts, composed by
// embedding per spec.md §4.2's schema-composition style (generalizing the
// teacher's shared ProcessOptions/ManagementOptions embeds in
// options/options.go).
type CommonOptions struct {
	AETitle  string `flag:"--aetitle" validate:"required,aetitle"`
	Verbose  bool   `flag:"--verbose"`
	LogLevel string `flag:"--log-level" validate:"enum=debug,info,warning,error,fatal"`
}

// StoreSCPOptions configures a storescp instance. Port is rendered as a
// positional argument, not a flag — storescp's own CLI takes it bare.
type StoreSCPOptions struct {
	CommonOptions
	Port            int    `validate:"required,port"`
	OutputDirectory string `flag:"--output-directory" validate:"required,path"`
	MaxPDU          int    `flag:"--max-pdu"`
}

// DcmRecvOptions configures a dcmrecv instance.
type DcmRecvOptions struct {
	CommonOptions
	Port   int    `validate:"required,port"`
	Output string `flag:"--output-directory" validate:"required,path"`
}

// DcmQRSCPOptions configures a dcmqrscp query/retrieve instance. DCMTK's
// dcmqrscp reads most of its configuration from a config file rather than
// flags; ConfigFile is the one required option beyond the common set.
type DcmQRSCPOptions struct {
	CommonOptions
	Port       int    `validate:"required,port"`
	ConfigFile string `flag:"--config-file" validate:"required,path"`
}

// DcmPSRcvOptions configures a dcmpsrcv presentation-state receiver.
type DcmPSRcvOptions struct {
	CommonOptions
	Port            int    `validate:"required,port"`
	OutputDirectory string `flag:"--output-directory" validate:"required,path"`
}

// DcmPRScpOptions configures a dcmprscp print SCP instance.
type DcmPRScpOptions struct {
	CommonOptions
	Port            int    `validate:"required,port"`
	OutputDirectory string `flag:"--output-directory" validate:"required,path"`
}

// WlmscpfsOptions configures a wlmscpfs worklist SCP instance. DataDir
// points at the filesystem worklist database, per DCMTK's filesystem-based
// Modality Worklist implementation.
type WlmscpfsOptions struct {
	CommonOptions
	Port    int    `validate:"required,port"`
	DataDir string `flag:"--data-files-path" validate:"required,path"`
}
