package server

import (
	"strconv"
	"time"

	"github.com/dcmtkgo/dcmtkgo/command"
	"github.com/dcmtkgo/dcmtkgo/event"
	"github.com/dcmtkgo/dcmtkgo/ioline"
	"github.com/dcmtkgo/dcmtkgo/process"
	"github.com/dcmtkgo/dcmtkgo/resolver"
	"github.com/dcmtkgo/dcmtkgo/result"
)

// Shell is one named, long-lived DCMTK SCP instance: a CommandBuilder
// schema, an EventParser pattern set, and a ProcessSupervisor composed
// together, per spec.md §4.7. Shell itself adds nothing to the
// supervisor's state machine — it is a typed registration surface over
// process.Supervisor, the way SandBoxer is a typed surface over
// ContainerSvc.
type Shell struct {
	Name string
	sup  *process.Supervisor
}

// On registers a raw Listener, exactly as process.Supervisor.On does.
func (s *Shell) On(l process.Listener) { s.sup.On(l) }

// State, PID, Start, Stop, and Dispose delegate to the underlying
// supervisor; Shell adds no lifecycle semantics of its own.
func (s *Shell) State() process.State           { return s.sup.State() }
func (s *Shell) PID() int                       { return s.sup.PID() }
func (s *Shell) Start() result.Result[struct{}] { return s.sup.Start() }
func (s *Shell) Stop() result.Result[struct{}]  { return s.sup.Stop() }
func (s *Shell) Dispose()                       { s.sup.Dispose() }

// OnEvent registers fn for every EmissionMatch whose Event equals name —
// the generic form every typed convenience method below is built from.
func (s *Shell) OnEvent(name string, fn func(process.Emission)) {
	s.sup.On(func(e process.Emission) {
		if e.Kind == process.EmissionMatch && e.Event == name {
			fn(e)
		}
	})
}

// OnFatalError registers fn for every error emission observed with
// Fatal == true (spec.md §4.7's fatal-event wiring).
func (s *Shell) OnFatalError(fn func(*result.Error)) {
	s.sup.On(func(e process.Emission) {
		if e.Kind == process.EmissionError && e.Fatal {
			fn(e.Err)
		}
	})
}

func (s *Shell) onAssociation(name string, fn func(AssociationData)) {
	s.OnEvent(name, func(e process.Emission) {
		if d, ok := e.Data.(AssociationData); ok {
			fn(d)
		}
	})
}

func (s *Shell) onRequest(name string, fn func(RequestData)) {
	s.OnEvent(name, func(e process.Emission) {
		if d, ok := e.Data.(RequestData); ok {
			fn(d)
		}
	})
}

func (s *Shell) onStoring(name string, fn func(StoringFileData)) {
	s.OnEvent(name, func(e process.Emission) {
		if d, ok := e.Data.(StoringFileData); ok {
			fn(d)
		}
	})
}

// OnAssociationReceived, OnAssociationAcknowledged, OnAssociationRelease,
// OnAssociationAborted, and OnRefusingAssociation are the typed
// association-lifecycle convenience registrations spec.md §4.7 calls for.
func (s *Shell) OnAssociationReceived(fn func(AssociationData)) {
	s.onAssociation(EventAssociationReceived, fn)
}
func (s *Shell) OnAssociationAcknowledged(fn func()) {
	s.OnEvent(EventAssociationAcknowledged, func(process.Emission) { fn() })
}
func (s *Shell) OnAssociationRelease(fn func()) {
	s.OnEvent(EventAssociationRelease, func(process.Emission) { fn() })
}
func (s *Shell) OnAssociationAborted(fn func()) {
	s.OnEvent(EventAssociationAborted, func(process.Emission) { fn() })
}
func (s *Shell) OnRefusingAssociation(fn func()) {
	s.OnEvent(EventRefusingAssociation, func(process.Emission) { fn() })
}

// OnCStoreRequest, OnCFindRequest, OnCMoveRequest, OnCGetRequest, and
// OnEchoRequest are the typed DIMSE-request convenience registrations.
func (s *Shell) OnCStoreRequest(fn func(RequestData)) { s.onRequest(EventCStoreRequest, fn) }
func (s *Shell) OnCFindRequest(fn func(RequestData))  { s.onRequest(EventCFindRequest, fn) }
func (s *Shell) OnCMoveRequest(fn func(RequestData))  { s.onRequest(EventCMoveRequest, fn) }
func (s *Shell) OnCGetRequest(fn func(RequestData))   { s.onRequest(EventCGetRequest, fn) }
func (s *Shell) OnEchoRequest(fn func(RequestData))   { s.onRequest(EventEchoRequest, fn) }

// OnStoringFile, OnStoredFile, OnSubdirectoryCreated, and OnFileDeleted
// are the typed filesystem-side-effect convenience registrations.
func (s *Shell) OnStoringFile(fn func(StoringFileData)) { s.onStoring(EventStoringFile, fn) }
func (s *Shell) OnStoredFile(fn func(StoringFileData))  { s.onStoring(EventStoredFile, fn) }
func (s *Shell) OnSubdirectoryCreated(fn func(StoringFileData)) {
	s.onStoring(EventSubdirectoryCreated, fn)
}
func (s *Shell) OnFileDeleted(fn func(StoringFileData)) { s.onStoring(EventFileDeleted, fn) }

// OnListening, OnDatabaseReady, and OnTerminating are the remaining
// server-lifecycle convenience registrations.
func (s *Shell) OnListening(fn func(ListeningData)) {
	s.OnEvent(EventListening, func(e process.Emission) {
		if d, ok := e.Data.(ListeningData); ok {
			fn(d)
		}
	})
}
func (s *Shell) OnDatabaseReady(fn func()) {
	s.OnEvent(EventDatabaseReady, func(process.Emission) { fn() })
}
func (s *Shell) OnTerminating(fn func()) {
	s.OnEvent(EventTerminating, func(process.Emission) { fn() })
}

// Option customizes the process.Config a factory builds before
// instantiating its Supervisor — cancellation token, timeouts, and an
// optional readiness predicate overriding the default settle-delay
// (spec.md §9's readiness open question).
type Option func(*process.Config)

// WithCancel wires an external cancel signal into Start/Stop, per
// spec.md §5's cancellation surface.
func WithCancel(c <-chan struct{}) Option {
	return func(cfg *process.Config) { cfg.Cancel = c }
}

// WithReadiness overrides the default settle-delay readiness with a
// predicate matched against each LineRecord (e.g. a regex on "Ready to
// start listening").
func WithReadiness(pred func(ioline.LineRecord) bool) Option {
	return func(cfg *process.Config) { cfg.IsStarted = pred }
}

// WithStartTimeout overrides process.DefaultStartTimeout.
func WithStartTimeout(d time.Duration) Option {
	return func(cfg *process.Config) { cfg.StartTimeout = d }
}

// WithDrainTimeout overrides process.DefaultDrainTimeout.
func WithDrainTimeout(d time.Duration) Option {
	return func(cfg *process.Config) { cfg.DrainTimeout = d }
}

func validatePort(port int) *result.Error {
	if port < 1 || port > 65535 {
		return result.New(result.KindValidation, "port out of range [1,65535]")
	}
	return nil
}

func buildShell(name string, argv command.Argv, patterns []event.Pattern, fatal map[string]bool, opts []Option) *Shell {
	parser := event.New()
	for _, p := range patterns {
		parser.AddPattern(p)
	}
	cfg := process.Config{Argv: argv, Parser: parser, FatalEvents: fatal}
	for _, o := range opts {
		o(&cfg)
	}
	return &Shell{Name: name, sup: process.New(cfg)}
}

// CreateStoreSCP validates opts (strict schema), resolves the storescp
// binary, builds its argv, and returns a Shell wired with storescp's
// association/store event grammar. Per spec.md §9's readiness resolution,
// no predicate is installed by default — readiness resolves on the
// settle-delay unless the caller supplies WithReadiness.
func CreateStoreSCP(res *resolver.Resolver, opts StoreSCPOptions, shellOpts ...Option) result.Result[*Shell] {
	if err := validatePort(opts.Port); err != nil {
		return result.Err[*Shell](err)
	}
	rootResult := res.Resolve()
	root, ok := rootResult.Value()
	if !ok {
		return result.Err[*Shell](rootResult.Error())
	}
	argvResult := command.Build(root.Path("storescp"), nil, opts, strconv.Itoa(opts.Port))
	if argvResult.IsErr() {
		return result.Err[*Shell](argvResult.Error())
	}
	argv, _ := argvResult.Value()
	return result.Ok(buildShell("storescp", argv, storeSCPPatterns(), fatalEvents(), shellOpts))
}

// CreateDcmRecv mirrors CreateStoreSCP for dcmrecv, using its distinct
// event grammar (dcmrecvPatterns).
func CreateDcmRecv(res *resolver.Resolver, opts DcmRecvOptions, shellOpts ...Option) result.Result[*Shell] {
	if err := validatePort(opts.Port); err != nil {
		return result.Err[*Shell](err)
	}
	rootResult := res.Resolve()
	root, ok := rootResult.Value()
	if !ok {
		return result.Err[*Shell](rootResult.Error())
	}
	argvResult := command.Build(root.Path("dcmrecv"), nil, opts, strconv.Itoa(opts.Port))
	if argvResult.IsErr() {
		return result.Err[*Shell](argvResult.Error())
	}
	argv, _ := argvResult.Value()
	return result.Ok(buildShell("dcmrecv", argv, dcmrecvPatterns(), fatalEvents(), shellOpts))
}

// CreateDcmQRSCP, CreateDcmPSRcv, CreateDcmPRScp, and CreateWlmscpfs share
// storescp's pattern set per SPEC_FULL.md §4: DCMTK's remaining SCP tools
// log the same ACSE/DIMSE association grammar, differing mainly in which
// composite commands (C-FIND/C-MOVE vs C-STORE) they actually emit.

func CreateDcmQRSCP(res *resolver.Resolver, opts DcmQRSCPOptions, shellOpts ...Option) result.Result[*Shell] {
	if err := validatePort(opts.Port); err != nil {
		return result.Err[*Shell](err)
	}
	rootResult := res.Resolve()
	root, ok := rootResult.Value()
	if !ok {
		return result.Err[*Shell](rootResult.Error())
	}
	argvResult := command.Build(root.Path("dcmqrscp"), nil, opts, strconv.Itoa(opts.Port))
	if argvResult.IsErr() {
		return result.Err[*Shell](argvResult.Error())
	}
	argv, _ := argvResult.Value()
	return result.Ok(buildShell("dcmqrscp", argv, storeSCPPatterns(), fatalEvents(), shellOpts))
}

func CreateDcmPSRcv(res *resolver.Resolver, opts DcmPSRcvOptions, shellOpts ...Option) result.Result[*Shell] {
	if err := validatePort(opts.Port); err != nil {
		return result.Err[*Shell](err)
	}
	rootResult := res.Resolve()
	root, ok := rootResult.Value()
	if !ok {
		return result.Err[*Shell](rootResult.Error())
	}
	argvResult := command.Build(root.Path("dcmpsrcv"), nil, opts, strconv.Itoa(opts.Port))
	if argvResult.IsErr() {
		return result.Err[*Shell](argvResult.Error())
	}
	argv, _ := argvResult.Value()
	return result.Ok(buildShell("dcmpsrcv", argv, storeSCPPatterns(), fatalEvents(), shellOpts))
}

func CreateDcmPRScp(res *resolver.Resolver, opts DcmPRScpOptions, shellOpts ...Option) result.Result[*Shell] {
	if err := validatePort(opts.Port); err != nil {
		return result.Err[*Shell](err)
	}
	rootResult := res.Resolve()
	root, ok := rootResult.Value()
	if !ok {
		return result.Err[*Shell](rootResult.Error())
	}
	argvResult := command.Build(root.Path("dcmprscp"), nil, opts, strconv.Itoa(opts.Port))
	if argvResult.IsErr() {
		return result.Err[*Shell](argvResult.Error())
	}
	argv, _ := argvResult.Value()
	return result.Ok(buildShell("dcmprscp", argv, storeSCPPatterns(), fatalEvents(), shellOpts))
}

func CreateWlmscpfs(res *resolver.Resolver, opts WlmscpfsOptions, shellOpts ...Option) result.Result[*Shell] {
	if err := validatePort(opts.Port); err != nil {
		return result.Err[*Shell](err)
	}
	rootResult := res.Resolve()
	root, ok := rootResult.Value()
	if !ok {
		return result.Err[*Shell](rootResult.Error())
	}
	argvResult := command.Build(root.Path("wlmscpfs"), nil, opts, strconv.Itoa(opts.Port))
	if argvResult.IsErr() {
		return result.Err[*Shell](argvResult.Error())
	}
	argv, _ := argvResult.Value()
	return result.Ok(buildShell("wlmscpfs", argv, storeSCPPatterns(), fatalEvents(), shellOpts))
}
