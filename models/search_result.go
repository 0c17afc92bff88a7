package models

// SourceType tags which half of a SearchResult's variant fields apply.
type SourceType string

const (
	SourceStatute SourceType = "statute"
	SourceCase    SourceType = "case"
)

// StatuteFields holds the fields only meaningful when SourceType is
// SourceStatute.
type StatuteFields struct {
	SectionNo      string
	UnitType       UnitType
	CanonicalID    string
	EffectiveFrom  string
	EffectiveTo    string
	LegacyMappings []LegacyMapping
}

// CaseFields holds the fields only meaningful when SourceType is
// SourceCase.
type CaseFields struct {
	CaseTitle       string
	DecisionDate    string
	Bench           []string
	CitationStrings []string
	ParaRange       string
}

// ScoreBreakdown is the set of stable, typed metadata keys every
// SearchResult carries, replacing a free-form map<string,any> with a
// strong schema per the spec's design guidance; only truly
// unanticipated fields belong in Extensions.
type ScoreBreakdown struct {
	FinalScore    float64
	VectorScore   float64
	KeywordScore  float64
	RecencyScore  float64
	CEScore       *float64
	FallbackMatch bool
	FallbackDoc   bool
	KeywordHits   int
	PartyResolver   bool
	PartyResolverOr bool
	CitationResolver bool
}

// SearchResult is the tagged variant described in the spec's design
// notes: shared scalar fields plus exactly one of StatuteFields or
// CaseFields populated depending on SourceType.
type SearchResult struct {
	ID              string
	SimilarityScore float64
	Content         string
	SourceType      SourceType
	AuthorityWeight float64

	DocID string

	Statute *StatuteFields
	Case    *CaseFields

	Scores ScoreBreakdown

	// Extensions holds anything not in the stable schema above; kept
	// deliberately small and almost always empty.
	Extensions map[string]any
}

// Clone returns a deep-enough copy for fusion/MMR stages that need to
// mutate scores without aliasing the original slice entries.
func (r SearchResult) Clone() SearchResult {
	out := r
	if r.Statute != nil {
		s := *r.Statute
		s.LegacyMappings = append([]LegacyMapping(nil), r.Statute.LegacyMappings...)
		out.Statute = &s
	}
	if r.Case != nil {
		c := *r.Case
		c.Bench = append([]string(nil), r.Case.Bench...)
		c.CitationStrings = append([]string(nil), r.Case.CitationStrings...)
		out.Case = &c
	}
	return out
}
