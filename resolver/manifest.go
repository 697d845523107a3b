package resolver

// RequiredBinaries is the fixed required-binary manifest: a directory must
// contain every one of these, executable, to be accepted as a DCMTK root.
// This is the full set named in spec.md §6 plus the remaining DCMTK tools a
// production supervisor needs to discover even though their per-tool option
// schemas aren't transcribed here (spec.md §4.2 Non-goal).
var RequiredBinaries = []string{
	// one-shot SCUs
	"storescu", "echoscu", "findscu", "movescu", "getscu", "dcmsend",
	// long-lived SCPs
	"storescp", "dcmrecv", "dcmqrscp", "dcmpsrcv", "dcmprscp", "wlmscpfs",
	// conversion / inspection tools
	"dcm2xml", "xml2dcm", "dcm2json", "dcmdump", "dcmodify", "dcmconv",
	"img2dcm", "dcmftest",
}
