package models

// CitedStatute is one statute citation in an AnswerContract.
type CitedStatute struct {
	ID      string  `json:"id"`
	Section *string `json:"section,omitempty"`
	Quote   *string `json:"quote,omitempty"`
	AsOn    *string `json:"as_on,omitempty"`
}

// CitedCase is one case citation in an AnswerContract.
type CitedCase struct {
	ID        string  `json:"id"`
	Citation  *string `json:"citation,omitempty"`
	Paragraph *string `json:"para,omitempty"`
	Quote     *string `json:"quote,omitempty"`
}

// AnalysisEntry applies one issue to the facts at hand.
type AnalysisEntry struct {
	Issue       string `json:"issue"`
	Application string `json:"application"`
}

// DraftType enumerates the supported drafting templates.
type DraftType string

const (
	DraftAnticipatoryBail     DraftType = "anticipatory_bail"
	DraftQuash                DraftType = "quash"
	DraftWrittenSubmissions   DraftType = "written_submissions"
)

// DraftFields are the structured fields of a generated draft.
type DraftFields struct {
	Parties string   `json:"parties"`
	Court   string   `json:"court"`
	Facts   string   `json:"facts"`
	Grounds []string `json:"grounds"`
	Reliefs []string `json:"reliefs"`
	Prayer  string   `json:"prayer"`
}

// Draft is an optional drafted document attached to an answer.
type Draft struct {
	Type   DraftType   `json:"type"`
	Fields DraftFields `json:"fields"`
}

// Confidence is the Verifier's scored output with human-readable
// reason tags, replacing a single opaque scalar.
type Confidence struct {
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
}

// AnswerContract is the externalized, verified response object.
type AnswerContract struct {
	ShortAnswer string          `json:"short_answer"`
	Statutes    []CitedStatute  `json:"statutes"`
	Cases       []CitedCase     `json:"cases"`
	Analysis    []AnalysisEntry `json:"analysis"`
	Draft       *Draft          `json:"draft,omitempty"`
	Confidence  Confidence      `json:"confidence"`
	Warnings    []string        `json:"warnings"`
}
