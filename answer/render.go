package answer

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"strings"

	"legalrag/models"
)

// RenderMarkdown renders an AnswerContract to Markdown, matching the
// original RenderService.to_markdown section-for-section: short
// answer, statutes, cases, application analysis, an optional draft,
// confidence, and warnings.
func RenderMarkdown(c models.AnswerContract) string {
	var b strings.Builder

	b.WriteString("# Short Answer\n\n")
	b.WriteString(c.ShortAnswer)
	b.WriteString("\n\n")

	b.WriteString("## Statutes\n\n")
	for _, s := range c.Statutes {
		asOn := "today"
		if s.AsOn != nil && *s.AsOn != "" {
			asOn = *s.AsOn
		}
		b.WriteString(fmt.Sprintf("- %s (as-on: %s)\n", s.ID, asOn))
		if s.Quote != nil {
			b.WriteString("  > " + *s.Quote + "\n")
		}
	}
	b.WriteString("\n")

	b.WriteString("## Cases\n\n")
	for _, cs := range c.Cases {
		citation := ""
		if cs.Citation != nil {
			citation = *cs.Citation
		}
		para := ""
		if cs.Paragraph != nil {
			para = *cs.Paragraph
		}
		b.WriteString(fmt.Sprintf("- %s (%s) at %s\n", cs.ID, citation, para))
		if cs.Quote != nil {
			b.WriteString("  > " + *cs.Quote + "\n")
		}
	}
	b.WriteString("\n")

	b.WriteString("## Application to Facts\n\n")
	for _, a := range c.Analysis {
		b.WriteString(fmt.Sprintf("- **%s**: %s\n", a.Issue, a.Application))
	}
	b.WriteString("\n")

	if c.Draft != nil {
		b.WriteString(fmt.Sprintf("## Draft (%s)\n\n", c.Draft.Type))
		b.WriteString("### Parties\n\n" + c.Draft.Fields.Parties + "\n\n")
		b.WriteString("### Court\n\n" + c.Draft.Fields.Court + "\n\n")
		b.WriteString("### Facts\n\n" + c.Draft.Fields.Facts + "\n\n")
		b.WriteString("### Grounds\n\n")
		for _, g := range c.Draft.Fields.Grounds {
			b.WriteString("- " + g + "\n")
		}
		b.WriteString("\n### Reliefs\n\n")
		for _, r := range c.Draft.Fields.Reliefs {
			b.WriteString("- " + r + "\n")
		}
		b.WriteString("\n### Prayer\n\n" + c.Draft.Fields.Prayer + "\n\n")
	}

	b.WriteString("## Confidence\n\n")
	b.WriteString(fmt.Sprintf("Score: %.2f\n\n", c.Confidence.Score))
	if len(c.Confidence.Reasons) > 0 {
		for _, r := range c.Confidence.Reasons {
			b.WriteString("- " + r + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("## Warnings\n\n")
	for _, w := range c.Warnings {
		b.WriteString("- " + w + "\n")
	}

	return b.String()
}

// RenderDOCX packages the same Markdown-rendered content into a
// minimal OOXML (.docx) document: one body paragraph per line, plain
// runs only. No pack example ships a DOCX-writing library (the one
// example that touches DOCX, techjusticelab-Motion-Index's extractor,
// builds the archive/zip reader by hand rather than importing a
// writer), so this follows that same hand-rolled-zip approach rather
// than depending on a library untested for writing.
func RenderDOCX(c models.AnswerContract) ([]byte, error) {
	body := RenderMarkdown(c)
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	files := map[string]string{
		"[Content_Types].xml": contentTypesXML,
		"_rels/.rels":          relsXML,
		"word/document.xml":    documentXML(body),
	}
	for _, name := range []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml"} {
		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("render docx: create %s: %w", name, err)
		}
		if _, err := w.Write([]byte(files[name])); err != nil {
			return nil, fmt.Errorf("render docx: write %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("render docx: close archive: %w", err)
	}
	return buf.Bytes(), nil
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

func documentXML(body string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, line := range strings.Split(body, "\n") {
		b.WriteString("<w:p><w:r><w:t xml:space=\"preserve\">")
		b.WriteString(html.EscapeString(line))
		b.WriteString("</w:t></w:r></w:p>")
	}
	b.WriteString(`</w:body></w:document>`)
	return b.String()
}
