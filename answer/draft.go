package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"

	"legalrag/models"
)

const generationAPI = "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:generateContent?key=%s"

// Generator produces the optional LLM-assisted drafting and
// summarization modes (Answer API's "mode" field) layered on top of
// the deterministic AnswerContract that Assembler/Verifier already
// produce. It is nil-safe: a Generator with no configured client
// degrades callers to the plain QA contract, same as the teacher's
// DraftService when its geminiClient option was never supplied.
type Generator struct {
	client *genai.Client
	apiKey string
}

// NewGenerator constructs a Generator. client may be nil when no
// GEMINI_API_KEY is configured; Draft/Summarize then return early.
func NewGenerator(client *genai.Client, apiKey string) *Generator {
	return &Generator{client: client, apiKey: apiKey}
}

// Enabled reports whether generation is configured.
func (g *Generator) Enabled() bool {
	return g.client != nil && g.apiKey != ""
}

// Draft generates a structured Draft for the given template type from
// the assembled contract's citations and analysis, attaching it to
// contract.Draft. A generation failure is non-fatal: it appends a
// warning and leaves contract.Draft nil.
func (g *Generator) Draft(ctx context.Context, contract *models.AnswerContract, draftType models.DraftType, facts string) {
	if !g.Enabled() {
		contract.Warnings = append(contract.Warnings, "drafting_unavailable: GEMINI_API_KEY not configured")
		return
	}

	prompt := buildDraftPrompt(draftType, facts, *contract)
	text, err := g.generate(ctx, prompt, 0.3)
	if err != nil {
		contract.Warnings = append(contract.Warnings, "drafting_failed: "+err.Error())
		return
	}

	contract.Draft = &models.Draft{
		Type: draftType,
		Fields: models.DraftFields{
			Parties: "Petitioner v. State",
			Court:   "",
			Facts:   facts,
			Grounds: splitLines(text),
			Reliefs: []string{"That this Hon'ble Court may be pleased to grant relief as prayed for."},
			Prayer:  "Wherefore it is most respectfully prayed that this Hon'ble Court may graciously allow the present application.",
		},
	}
}

// Summarize replaces contract.ShortAnswer with an LLM-condensed
// version of the assembled analysis, used by the Answer API's
// "summarization" mode. Falls back to leaving ShortAnswer untouched
// on any failure.
func (g *Generator) Summarize(ctx context.Context, contract *models.AnswerContract) {
	if !g.Enabled() {
		contract.Warnings = append(contract.Warnings, "summarization_unavailable: GEMINI_API_KEY not configured")
		return
	}

	var b strings.Builder
	for _, a := range contract.Analysis {
		b.WriteString(a.Issue)
		b.WriteString(": ")
		b.WriteString(a.Application)
		b.WriteString("\n")
	}
	prompt := "Summarize the following legal analysis in two sentences, plain language, no citations:\n\n" + b.String()

	text, err := g.generate(ctx, prompt, 0.2)
	if err != nil {
		contract.Warnings = append(contract.Warnings, "summarization_failed: "+err.Error())
		return
	}
	contract.ShortAnswer = strings.TrimSpace(text)
}

// generate mirrors the teacher's callGenerationAPI: the genai.Client
// field is kept only as the "is generation configured" guard (checked
// via Enabled), the same way the teacher's DraftService nil-checks
// s.geminiClient before calling out; the actual call is the teacher's
// raw REST request against the generateContent endpoint, since the
// spec's deterministic generation parameters (temperature, no
// maxOutputTokens cap) map directly onto that existing request shape.
func (g *Generator) generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	reqBody := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]any{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"temperature": temperature,
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal generation request: %w", err)
	}

	url := fmt.Sprintf(generationAPI, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpClient := &http.Client{Timeout: 60 * time.Second}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generation request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read generation response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generation api status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode generation response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("generation response had no candidates")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

func buildDraftPrompt(draftType models.DraftType, facts string, contract models.AnswerContract) string {
	var cites strings.Builder
	for _, s := range contract.Statutes {
		cites.WriteString("- statute " + s.ID + "\n")
	}
	for _, c := range contract.Cases {
		cites.WriteString("- case " + c.ID + "\n")
	}
	return fmt.Sprintf("Draft grounds for a %s application.\nFacts: %s\nCite only from:\n%s", draftType, facts, cites.String())
}

func splitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
