package models

// QueryType classifies a user query for downstream routing and
// clarification rules.
type QueryType string

const (
	QueryFactual     QueryType = "factual"
	QueryProcedural  QueryType = "procedural"
	QueryComparative QueryType = "comparative"
	QueryAmbiguous   QueryType = "ambiguous"
)

// DateSource records how TemporalContext.AsOnDate was derived.
type DateSource string

const (
	DateExplicit      DateSource = "explicit"
	DateActsInference DateSource = "acts_inference"
	DateInferredYear  DateSource = "inferred_year"
	DateDefault       DateSource = "default"
)

// TemporalContext is the as-on date derived from a query, with its
// provenance and a confidence score.
type TemporalContext struct {
	AsOnDate   string // YYYY-MM-DD
	DateSource DateSource
	Confidence float64
}

// QueryAnalysis is the request-scoped output of the Query Analyzer.
type QueryAnalysis struct {
	OriginalQuery    string
	TemporalContext  TemporalContext
	ExpandedTerms    map[string][]string // term -> synonyms
	SectionGuesses   []string            // canonical statute IDs
	ExplicitSections []string
	CaseMentions     [][2]string // normalized "X v. Y" pairs
	ExplicitCaseIDs  []string
	LegalTerms       []string
	OffenseKeywords  []string
	QueryType        QueryType
}

// HasLegalSignal reports whether the analysis found any legal-domain
// signal at all (used by the refusal rule).
func (a QueryAnalysis) HasLegalSignal() bool {
	return len(a.LegalTerms) > 0 ||
		len(a.OffenseKeywords) > 0 ||
		len(a.SectionGuesses) > 0 ||
		len(a.ExplicitSections) > 0 ||
		len(a.CaseMentions) > 0 ||
		len(a.ExplicitCaseIDs) > 0
}
