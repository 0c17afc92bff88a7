package analysis

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"legalrag/models"
)

var (
	datePatternNumeric = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})\b`)
	datePatternMonth   = regexp.MustCompile(`(?i)\b(\d{1,2})\s+(Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|Jul(?:y)?|Aug(?:ust)?|Sep(?:tember)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)\s+(\d{4})\b`)
	datePatternYear    = regexp.MustCompile(`\b(\d{4})\b`)
)

var monthLookup = map[string]int{
	"jan": 1, "january": 1, "feb": 2, "february": 2, "mar": 3, "march": 3,
	"apr": 4, "april": 4, "may": 5, "jun": 6, "june": 6, "jul": 7, "july": 7,
	"aug": 8, "august": 8, "sep": 9, "sept": 9, "september": 9, "oct": 10,
	"october": 10, "nov": 11, "november": 11, "dec": 12, "december": 12,
}

// TemporalReasoner derives an as-on date from a query and enforces
// statute/judgment validity gates, per §4.7.
type TemporalReasoner struct {
	legacyIndex map[string][]models.LegacyMapping
}

// NewTemporalReasoner loads the legacy-mapping table from
// mappingPath (the spec's "legacy mapping file"); a missing file
// yields an empty index rather than an error, matching the original
// reasoner's tolerant startup.
func NewTemporalReasoner(mappingPath string) *TemporalReasoner {
	r := &TemporalReasoner{legacyIndex: map[string][]models.LegacyMapping{}}
	r.loadLegacyMappings(mappingPath)
	return r
}

func (r *TemporalReasoner) loadLegacyMappings(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var entries []models.LegacyMapping
	if err := json.Unmarshal(data, &entries); err != nil {
		return
	}
	for _, e := range entries {
		r.legacyIndex[e.BNSSection] = append(r.legacyIndex[e.BNSSection], e)
	}
}

// ExtractContext derives an as-on date from the natural-language
// query following the DATE_PATTERNS precedence: explicit dd/mm/yyyy,
// then dd Month yyyy, then bare year, then default-to-today.
func (r *TemporalReasoner) ExtractContext(query string) models.TemporalContext {
	normalized := strings.TrimSpace(query)

	if m := datePatternNumeric.FindStringSubmatch(normalized); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		return models.TemporalContext{
			AsOnDate:   buildDate(day, month, year),
			DateSource: models.DateExplicit,
			Confidence: 0.9,
		}
	}

	if m := datePatternMonth.FindStringSubmatch(normalized); m != nil {
		day, _ := strconv.Atoi(m[1])
		month := monthLookup[strings.ToLower(m[2])]
		year, _ := strconv.Atoi(m[3])
		return models.TemporalContext{
			AsOnDate:   buildDate(day, month, year),
			DateSource: models.DateExplicit,
			Confidence: 0.9,
		}
	}

	if m := datePatternYear.FindStringSubmatch(normalized); m != nil {
		year, _ := strconv.Atoi(m[1])
		if year >= 1800 && year <= 2500 {
			lowered := strings.ToLower(normalized)
			if year == 2023 && (strings.Contains(lowered, "bharatiya nyaya sanhita") || strings.Contains(lowered, "bns")) {
				return models.TemporalContext{
					AsOnDate:   "2024-07-01",
					DateSource: models.DateActsInference,
					Confidence: 0.7,
				}
			}
			return models.TemporalContext{
				AsOnDate:   fmt.Sprintf("%04d-12-31", year),
				DateSource: models.DateInferredYear,
				Confidence: 0.5,
			}
		}
	}

	return models.TemporalContext{
		AsOnDate:   time.Now().UTC().Format("2006-01-02"),
		DateSource: models.DateDefault,
		Confidence: 0.2,
	}
}

func buildDate(day, month, year int) string {
	if year < 100 {
		if year < 70 {
			year += 2000
		} else {
			year += 1900
		}
	}
	t := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	lastDay := t.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	if day < 1 {
		day = 1
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
}

// EnforceTemporalValidity filters results by validity gates: statutes
// keep iff effective_from <= as_on < effective_to; judgments keep iff
// decision_date <= as_on (or unknown). Passing statutes get their
// legacy_mappings attached.
func (r *TemporalReasoner) EnforceTemporalValidity(results []models.SearchResult, asOn string) []models.SearchResult {
	out := make([]models.SearchResult, 0, len(results))
	for _, res := range results {
		if res.SourceType == models.SourceStatute && res.Statute != nil {
			if !isStatuteActive(asOn, res.Statute.EffectiveFrom, res.Statute.EffectiveTo) {
				continue
			}
			if mappings := r.legacyIndex[res.Statute.SectionNo]; len(mappings) > 0 {
				clone := res.Clone()
				clone.Statute.LegacyMappings = mappings
				res = clone
			}
		}
		if res.SourceType == models.SourceCase && res.Case != nil && res.Case.DecisionDate != "" {
			if !isCaseApplicable(asOn, res.Case.DecisionDate) {
				continue
			}
		}
		out = append(out, res)
	}
	return out
}

func isStatuteActive(asOn, effectiveFrom, effectiveTo string) bool {
	if effectiveFrom != "" {
		start, err := time.Parse("2006-01-02", effectiveFrom)
		if err == nil {
			as, _ := time.Parse("2006-01-02", asOn)
			if start.After(as) {
				return false
			}
		}
	}
	if effectiveTo != "" {
		end, err := time.Parse("2006-01-02", effectiveTo)
		if err == nil {
			as, _ := time.Parse("2006-01-02", asOn)
			if !end.After(as) {
				return false
			}
		}
	}
	return true
}

func isCaseApplicable(asOn, decisionDate string) bool {
	decided, err := time.Parse("2006-01-02", decisionDate)
	if err != nil {
		return true
	}
	as, err := time.Parse("2006-01-02", asOn)
	if err != nil {
		return true
	}
	return !decided.After(as)
}

// MapToLegacy returns the legacy mappings for a statute section
// number, or nil if none exist.
func (r *TemporalReasoner) MapToLegacy(sectionNo string) []models.LegacyMapping {
	return r.legacyIndex[sectionNo]
}
