package analysis

import (
	"regexp"
	"sort"
	"strings"

	"legalrag/models"
)

// Regexes are precompiled once at package init, Unicode-aware and
// applied case-folded, per the spec's design notes.
var (
	sectionPattern = regexp.MustCompile(`(?i)\b(?:section|sec\.?|§)\s*(\d+[a-zA-Z\-]*)`)
	caseDocPattern = regexp.MustCompile(`SC:\d{4}:[A-Z0-9_]+`)
	caseMentionPattern = regexp.MustCompile(`([A-Z][A-Z\s&.'-]+?)\s+V\.?\s+([A-Z][A-Z\s&.'-]+)`)
)

var connectiveStops = []string{" IN ", " ON ", " ABOUT ", " REGARDING ", " FOR ", " UNDER "}

// QueryAnalyzer extracts temporal context, legal terms, section/case
// guesses, and classifies a raw query, per §4.6.
type QueryAnalyzer struct {
	temporal *TemporalReasoner
}

// NewQueryAnalyzer constructs an analyzer over a shared temporal
// reasoner (so legacy mappings load once).
func NewQueryAnalyzer(temporal *TemporalReasoner) *QueryAnalyzer {
	return &QueryAnalyzer{temporal: temporal}
}

// Analyze runs the full rule set against a raw query string.
func (a *QueryAnalyzer) Analyze(query string) models.QueryAnalysis {
	temporalContext := a.temporal.ExtractContext(query)
	normalized := strings.ToLower(query)

	legalTerms := extractTerms(normalized)
	offenseKeywords := extractOffenseTerms(normalized)
	expanded := expandedTerms(unionSets(legalTerms, offenseKeywords))
	sectionGuesses := guessSections(offenseKeywords)
	explicitSections := extractSections(query)
	caseMentions := extractCaseMentions(query)
	explicitCaseIDs := extractCaseIDs(query)
	queryType := classifyQuery(normalized, legalTerms, offenseKeywords)

	return models.QueryAnalysis{
		OriginalQuery:    query,
		TemporalContext:  temporalContext,
		ExpandedTerms:    expanded,
		SectionGuesses:   sectionGuesses,
		ExplicitSections: explicitSections,
		CaseMentions:     caseMentions,
		ExplicitCaseIDs:  explicitCaseIDs,
		LegalTerms:       sortedKeys(legalTerms),
		OffenseKeywords:  sortedKeys(offenseKeywords),
		QueryType:        queryType,
	}
}

func extractTerms(normalized string) map[string]bool {
	terms := map[string]bool{}
	for _, phrase := range LegalTerminology {
		if strings.Contains(normalized, phrase) {
			terms[strings.Fields(phrase)[0]] = true
		}
	}
	for term := range LegalSynonyms {
		if strings.Contains(normalized, term) {
			terms[term] = true
		}
	}
	return terms
}

func extractOffenseTerms(normalized string) map[string]bool {
	matches := map[string]bool{}
	for offense := range OffenseSectionGuesses {
		if strings.Contains(normalized, offense) {
			matches[offense] = true
		}
	}
	return matches
}

func expandedTerms(terms map[string]bool) map[string][]string {
	out := map[string][]string{}
	for term := range terms {
		if syns, ok := LegalSynonyms[term]; ok {
			out[term] = syns
		}
	}
	return out
}

func guessSections(offenses map[string]bool) []string {
	var guesses []string
	seen := map[string]bool{}
	for offense := range offenses {
		g, ok := OffenseSectionGuesses[offense]
		if ok && !seen[g.CanonicalID] {
			seen[g.CanonicalID] = true
			guesses = append(guesses, g.CanonicalID)
		}
	}
	sort.Strings(guesses)
	return guesses
}

func extractSections(original string) []string {
	matches := sectionPattern.FindAllStringSubmatch(original, -1)
	var out []string
	seen := map[string]bool{}
	for _, m := range matches {
		v := strings.ToUpper(strings.TrimSpace(m[1]))
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func extractCaseMentions(original string) [][2]string {
	upper := strings.ToUpper(original)
	var mentions [][2]string
	seen := map[string]bool{}
	for _, m := range caseMentionPattern.FindAllStringSubmatch(upper, -1) {
		left := strings.Trim(m[1], " ?.,;:")
		right := strings.Trim(m[2], " ?.,;:")
		for _, stop := range connectiveStops {
			if idx := strings.LastIndex(left, stop); idx >= 0 {
				left = strings.TrimSpace(left[idx+len(stop):])
			}
		}
		left = lastWords(left, 8)
		right = firstWords(right, 8)
		if left == "" || right == "" {
			continue
		}
		key := left + " v. " + right
		if seen[key] {
			continue
		}
		seen[key] = true
		mentions = append(mentions, [2]string{left, right})
	}
	return mentions
}

func lastWords(s string, n int) string {
	fields := strings.Fields(s)
	if len(fields) > n {
		fields = fields[len(fields)-n:]
	}
	return strings.Join(fields, " ")
}

func firstWords(s string, n int) string {
	fields := strings.Fields(s)
	if len(fields) > n {
		fields = fields[:n]
	}
	return strings.Join(fields, " ")
}

func extractCaseIDs(original string) []string {
	matches := caseDocPattern.FindAllString(strings.ToUpper(original), -1)
	seen := map[string]bool{}
	var out []string
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

func classifyQuery(normalized string, legalTerms, offenseKeywords map[string]bool) models.QueryType {
	tokens := strings.Fields(normalized)
	for marker := range comparativeMarkers {
		if strings.Contains(normalized, marker) {
			return models.QueryComparative
		}
	}
	hasProceduralMarker := false
	for marker := range proceduralMarkers {
		if strings.Contains(normalized, marker) {
			hasProceduralMarker = true
			break
		}
	}
	if hasProceduralMarker && len(offenseKeywords) == 0 {
		return models.QueryProcedural
	}
	if strings.Contains(normalized, "difference") || strings.HasPrefix(normalized, "how") {
		return models.QueryProcedural
	}
	if len(offenseKeywords) > 0 || strings.Contains(normalized, "punishment") || strings.Contains(normalized, "sentence") {
		return models.QueryFactual
	}
	if len(tokens) < 4 && len(legalTerms) == 0 {
		return models.QueryAmbiguous
	}
	return models.QueryFactual
}

// BuildExpandedQuery appends every expanded synonym to the original
// query, used to build the lexical search string.
func (a *QueryAnalyzer) BuildExpandedQuery(analysis models.QueryAnalysis) string {
	parts := []string{analysis.OriginalQuery}
	for _, syns := range analysis.ExpandedTerms {
		parts = append(parts, syns...)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// GenerateClarification returns a clarifying question when the query
// is procedural/ambiguous with no offense signal, or comparative with
// fewer than two offense keywords; empty string otherwise.
func (a *QueryAnalyzer) GenerateClarification(analysis models.QueryAnalysis) string {
	if analysis.QueryType == models.QueryProcedural || analysis.QueryType == models.QueryAmbiguous {
		if len(analysis.OffenseKeywords) == 0 && len(analysis.SectionGuesses) == 0 {
			return "Could you specify the relevant offense or section so I can narrow down the legal provisions?"
		}
	}
	if analysis.QueryType == models.QueryComparative && len(analysis.OffenseKeywords) < 2 {
		return "Which two provisions or judgments should I compare?"
	}
	return ""
}

// ShouldRefuse reports a refusal reason when the query is under 3
// tokens with no legal signal at all; empty string otherwise.
func (a *QueryAnalyzer) ShouldRefuse(analysis models.QueryAnalysis) string {
	tokens := strings.Fields(strings.TrimSpace(analysis.OriginalQuery))
	if len(tokens) < 3 && !analysis.HasLegalSignal() {
		return "I'm not sure which legal issue to address. Please provide more context."
	}
	return ""
}

func unionSets(a, b map[string]bool) map[string]bool {
	out := make(map[string]bool, len(a)+len(b))
	for k := range a {
		out[k] = true
	}
	for k := range b {
		out[k] = true
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
