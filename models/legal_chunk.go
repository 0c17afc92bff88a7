// Package models holds the request-scoped and store-backed entities
// of the retrieval pipeline: statute and judgment chunks, the tagged
// SearchResult variant, query analysis, temporal context, and the
// AnswerContract response object.
package models

// UnitType enumerates the legal unit a StatuteChunk carries.
type UnitType string

const (
	UnitSection      UnitType = "Section"
	UnitSubSection   UnitType = "Sub-section"
	UnitIllustration UnitType = "Illustration"
	UnitExplanation  UnitType = "Explanation"
	UnitProviso      UnitType = "Proviso"
)

// StatuteChunk is one indexed unit of a statute (e.g. BNS:2023).
// Invariant: 80 <= Tokens <= 800; (DocID, SectionNo, UnitType, Part)
// is unique; ID follows "{act}:{year}:chunk:{NNNN}" optionally
// ":part:{N}".
type StatuteChunk struct {
	ID            string
	DocID         string
	Act           string
	Year          int
	SectionNo     string
	UnitType      UnitType
	Title         string
	Text          string
	Tokens        int
	SHA256        string
	EffectiveFrom string // YYYY-MM-DD
	EffectiveTo   string // YYYY-MM-DD, empty means open-ended
	Embedding     []float32
	Part          int
}

// JudgmentChunk is one indexed window of a Supreme Court judgment.
// Invariant: 80 <= Tokens <= 800; 0 <= OverlapTokens <= 80 against the
// prior chunk in the same doc; IDs monotonic by Order within DocID.
type JudgmentChunk struct {
	ID              string
	DocID           string
	Order           int
	CaseTitle       string
	DecisionDate    string // YYYY-MM-DD, empty if unknown
	Bench           []string
	CitationStrings []string
	ParaRange       string
	Text            string
	Tokens          int
	OverlapTokens   int
	SHA256          string
	Embedding       []float32
	Part            int
}

// CrossReference is a read-only edge between chunks; the retrieval
// core neither writes nor reads it, and fusion applies no boost from it.
type CrossReference struct {
	SrcID   string
	DstID   string
	RelType string // statute-statute | judgment-statute | judgment-judgment
	Weight  float64
	Context string
}

// LegacyMapping maps a new-statute section to its legacy act/section.
type LegacyMapping struct {
	BNSSection    string `json:"bns_section"`
	LegacyAct     string `json:"legacy_act"`
	LegacySection string `json:"legacy_section"`
	MappingType   string `json:"mapping_type"` // equivalent | partial | related
	Notes         string `json:"notes,omitempty"`
}
