package server

import (
	"regexp"

	"github.com/dcmtkgo/dcmtkgo/event"
)

// storeSCPPatterns is storescp's DIMSE/ACSE association log grammar. DCMTK
// prints one line per lifecycle event at "-v" (INFO) or above, so no
// multi-line block accumulation is needed here — every pattern is
// single-line, first-match-wins per spec.md §4.4(a).
func storeSCPPatterns() []event.Pattern {
	return []event.Pattern{
		{
			Event: EventListening,
			Regex: regexp.MustCompile(`^I: Listening on port (\d+)$`),
			Process: func(m []string) any {
				return ListeningData{Port: m[1]}
			},
		},
		{
			Event: EventAssociationReceived,
			Regex: regexp.MustCompile(`^I: Association Received from AE: (\S+) \(peer (\S+)\)$`),
			Process: func(m []string) any {
				return AssociationData{CallingAE: m[1], PeerAddr: m[2]}
			},
		},
		{
			Event:   EventAssociationAcknowledged,
			Regex:   regexp.MustCompile(`^I: Association Acknowledged`),
			Process: func(m []string) any { return nil },
		},
		{
			Event: EventCStoreRequest,
			Regex: regexp.MustCompile(`^I: Received Store SCP RQ: MsgID (\d+)`),
			Process: func(m []string) any {
				return RequestData{MessageID: m[1]}
			},
		},
		{
			Event: EventCFindRequest,
			Regex: regexp.MustCompile(`^I: Received Find SCP RQ: MsgID (\d+)`),
			Process: func(m []string) any {
				return RequestData{MessageID: m[1]}
			},
		},
		{
			Event: EventCMoveRequest,
			Regex: regexp.MustCompile(`^I: Received Move SCP RQ: MsgID (\d+)`),
			Process: func(m []string) any {
				return RequestData{MessageID: m[1]}
			},
		},
		{
			Event: EventCGetRequest,
			Regex: regexp.MustCompile(`^I: Received Get SCP RQ: MsgID (\d+)`),
			Process: func(m []string) any {
				return RequestData{MessageID: m[1]}
			},
		},
		{
			Event: EventEchoRequest,
			Regex: regexp.MustCompile(`^I: Received Echo SCP RQ: MsgID (\d+)`),
			Process: func(m []string) any {
				return RequestData{MessageID: m[1]}
			},
		},
		{
			Event: EventStoringFile,
			Regex: regexp.MustCompile(`^I: storing DICOM file: (.+)$`),
			Process: func(m []string) any {
				return StoringFileData{FilePath: m[1]}
			},
		},
		{
			Event: EventStoredFile,
			Regex: regexp.MustCompile(`^I: store SCP: file stored: (.+)$`),
			Process: func(m []string) any {
				return StoringFileData{FilePath: m[1]}
			},
		},
		{
			Event: EventSubdirectoryCreated,
			Regex: regexp.MustCompile(`^I: Creating subdirectory: (.+)$`),
			Process: func(m []string) any {
				return StoringFileData{FilePath: m[1]}
			},
		},
		{
			Event:   EventAssociationRelease,
			Regex:   regexp.MustCompile(`^I: Association Release`),
			Process: func(m []string) any { return nil },
		},
		{
			Event:   EventAssociationAborted,
			Regex:   regexp.MustCompile(`^W: Association Aborted`),
			Process: func(m []string) any { return nil },
		},
		{
			Event:   EventRefusingAssociation,
			Regex:   regexp.MustCompile(`^W: Refusing Association`),
			Process: func(m []string) any { return nil },
		},
		{
			Event:   EventDatabaseReady,
			Regex:   regexp.MustCompile(`^I: Database ready`),
			Process: func(m []string) any { return nil },
		},
		{
			Event: EventFileDeleted,
			Regex: regexp.MustCompile(`^I: Deleting file: (.+)$`),
			Process: func(m []string) any {
				return StoringFileData{FilePath: m[1]}
			},
		},
		{
			Event:   EventConfigError,
			Regex:   regexp.MustCompile(`^E: Configuration error`),
			Process: func(m []string) any { return nil },
		},
		{
			Event:   EventCannotStartListener,
			Regex:   regexp.MustCompile(`^E: cannot listen on port`),
			Process: func(m []string) any { return nil },
		},
		{
			Event:   EventTerminating,
			Regex:   regexp.MustCompile(`^I: Terminating`),
			Process: func(m []string) any { return nil },
		},
	}
}

// dcmrecvPatterns is dcmrecv's association/store grammar — DCMTK's newer
// storage receiver wraps the same ACSE/DIMSE machinery as storescp but
// phrases its log lines distinctly ("Accepted Association" rather than
// "Association Received", "Received C-STORE RQ" rather than "Store SCP
// RQ"), per SPEC_FULL.md §4's note that the two SCP patterns are
// implemented separately rather than sharing one grammar.
func dcmrecvPatterns() []event.Pattern {
	return []event.Pattern{
		{
			Event: EventListening,
			Regex: regexp.MustCompile(`^I: dcmrecv: listening on port (\d+)$`),
			Process: func(m []string) any {
				return ListeningData{Port: m[1]}
			},
		},
		{
			Event: EventAssociationReceived,
			Regex: regexp.MustCompile(`^I: Accepted Association from (\S+) \((\S+)\)$`),
			Process: func(m []string) any {
				return AssociationData{CallingAE: m[1], PeerAddr: m[2]}
			},
		},
		{
			Event:   EventAssociationAcknowledged,
			Regex:   regexp.MustCompile(`^I: Association Negotiation Complete`),
			Process: func(m []string) any { return nil },
		},
		{
			Event: EventCStoreRequest,
			Regex: regexp.MustCompile(`^I: Received C-STORE RQ: MsgID (\d+)`),
			Process: func(m []string) any {
				return RequestData{MessageID: m[1]}
			},
		},
		{
			Event: EventEchoRequest,
			Regex: regexp.MustCompile(`^I: Received C-ECHO RQ: MsgID (\d+)`),
			Process: func(m []string) any {
				return RequestData{MessageID: m[1]}
			},
		},
		{
			Event: EventStoringFile,
			Regex: regexp.MustCompile(`^I: dcmrecv: writing file: (.+)$`),
			Process: func(m []string) any {
				return StoringFileData{FilePath: m[1]}
			},
		},
		{
			Event: EventStoredFile,
			Regex: regexp.MustCompile(`^I: dcmrecv: file complete: (.+)$`),
			Process: func(m []string) any {
				return StoringFileData{FilePath: m[1]}
			},
		},
		{
			Event: EventSubdirectoryCreated,
			Regex: regexp.MustCompile(`^I: dcmrecv: created subdirectory: (.+)$`),
			Process: func(m []string) any {
				return StoringFileData{FilePath: m[1]}
			},
		},
		{
			Event:   EventAssociationRelease,
			Regex:   regexp.MustCompile(`^I: Releasing Association`),
			Process: func(m []string) any { return nil },
		},
		{
			Event:   EventAssociationAborted,
			Regex:   regexp.MustCompile(`^W: Aborting Association`),
			Process: func(m []string) any { return nil },
		},
		{
			Event:   EventRefusingAssociation,
			Regex:   regexp.MustCompile(`^W: Rejecting Association`),
			Process: func(m []string) any { return nil },
		},
		{
			Event: EventFileDeleted,
			Regex: regexp.MustCompile(`^I: dcmrecv: removed file: (.+)$`),
			Process: func(m []string) any {
				return StoringFileData{FilePath: m[1]}
			},
		},
		{
			Event:   EventConfigError,
			Regex:   regexp.MustCompile(`^E: dcmrecv: bad configuration`),
			Process: func(m []string) any { return nil },
		},
		{
			Event:   EventCannotStartListener,
			Regex:   regexp.MustCompile(`^E: dcmrecv: cannot bind port`),
			Process: func(m []string) any { return nil },
		},
		{
			Event:   EventTerminating,
			Regex:   regexp.MustCompile(`^I: dcmrecv: shutting down`),
			Process: func(m []string) any { return nil },
		},
	}
}

// fatalEvents is the set of pattern names that, on match, additionally
// fire error(fatal:true) per spec.md §4.7's fatal-event wiring. Shared by
// every factory: a listener failing to bind or rejecting its own
// configuration can't usefully keep running regardless of which binary it
// is.
func fatalEvents() map[string]bool {
	return map[string]bool{
		EventCannotStartListener: true,
		EventConfigError:         true,
	}
}
