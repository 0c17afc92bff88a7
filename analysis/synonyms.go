// Package analysis implements the Query Analyzer and Temporal
// Reasoner, ported in meaning from the original query_analysis_service
// and temporal_reasoning modules into Go.
package analysis

// LegalSynonyms is the curated synonym table used for both query
// expansion and lexical tsquery building (§6's "synonym table").
// Entries are case-folded; multi-word entries are phrases.
var LegalSynonyms = map[string][]string{
	"bail": {
		"anticipatory bail", "pre-arrest bail", "s 438", "sec 438", "section 438", "crpc 438",
		"regular bail", "interim bail", "default bail", "surety", "custody", "custodial interrogation",
	},
	"arrest":      {"custody", "detention", "apprehend"},
	"remand":      {"custody", "judicial remand"},
	"fir":         {"first information report", "crime report"},
	"habeas":      {"habeas corpus", "illegal detention"},
	"writ":        {"mandamus", "certiorari", "prohibition", "quo warranto"},
	"appeal":      {"appellate", "challenge", "review"},
	"revision":    {"criminal revision", "review petition"},
	"robbery":     {"dacoity", "armed theft", "extortion", "snatching"},
	"murder":      {"homicide", "culpable homicide"},
	"sexual":      {"rape", "sexual assault", "outraging modesty"},
	"negligence":  {"rash act", "breach of duty"},
	"cheating":    {"fraud", "dishonestly"},
	"evidence":    {"testimony", "proof", "material evidence"},
	"contract":    {"agreement", "covenant"},
	"jurisdiction": {"competence", "authority"},
	"mens":        {"intention", "mens rea"},
	"actus":       {"act", "actus reus"},
	"sentence":    {"punishment", "imprisonment", "fine"},
	"482":         {"section 482", "482 crpc", "quash", "quash fir", "inherent powers"},
	"quash":       {"482", "quash fir", "inherent powers"},
	"electronic":  {"section 65b", "65-b certificate", "electronic record", "secondary evidence"},
	"article":     {"article 14", "article 21", "fundamental rights", "arbitrary", "fair procedure"},
	"procedure":   {"remand", "investigation", "cognizable", "non-cognizable", "compounding"},
	"precedent":   {"binding precedent", "ratio decidendi", "article 141"},
}

// OffenseGuess pairs an offense keyword with the canonical BNS section
// most likely to govern it.
type OffenseGuess struct {
	CanonicalID string
	SectionNo   string
}

// OffenseSectionGuesses is the curated offense→canonical-section
// table (§6's "offense→section guess table").
var OffenseSectionGuesses = map[string]OffenseGuess{
	"robbery":              {CanonicalID: "BNS:2023:Sec:147", SectionNo: "147"},
	"dacoity":              {CanonicalID: "BNS:2023:Sec:149", SectionNo: "149"},
	"murder":               {CanonicalID: "BNS:2023:Sec:101", SectionNo: "101"},
	"homicide":             {CanonicalID: "BNS:2023:Sec:103", SectionNo: "103"},
	"culpable":             {CanonicalID: "BNS:2023:Sec:103", SectionNo: "103"},
	"theft":                {CanonicalID: "BNS:2023:Sec:303", SectionNo: "303"},
	"cheating":             {CanonicalID: "BNS:2023:Sec:356", SectionNo: "356"},
	"breach of trust":      {CanonicalID: "BNS:2023:Sec:357", SectionNo: "357"},
	"rape":                 {CanonicalID: "BNS:2023:Sec:63", SectionNo: "63"},
	"sexual assault":       {CanonicalID: "BNS:2023:Sec:63", SectionNo: "63"},
	"wrongful restraint":   {CanonicalID: "BNS:2023:Sec:351", SectionNo: "351"},
	"criminal intimidation": {CanonicalID: "BNS:2023:Sec:351", SectionNo: "351"},
	"kidnapping":           {CanonicalID: "BNS:2023:Sec:133", SectionNo: "133"},
	"dowry death":          {CanonicalID: "BNS:2023:Sec:111", SectionNo: "111"},
}

// LegalTerminology is the fixed legal-terminology set matched against
// raw query text (first word of each phrase is recorded as the term).
var LegalTerminology = []string{
	"fir", "charge sheet", "bail", "anticipatory", "non-bailable", "cognizable",
	"remand", "writ", "appeal", "revision", "jurisdiction", "mens rea",
	"actus reus", "per incuriam", "ratio", "obiter", "res judicata", "estoppel",
}

var comparativeMarkers = map[string]bool{
	"difference": true, "distinguish": true, "compare": true, "versus": true, "vs": true, "distinction": true,
}

var proceduralMarkers = map[string]bool{
	"procedure": true, "process": true, "steps": true, "file": true, "lodge": true, "bail": true, "arrest": true, "fir": true,
}
