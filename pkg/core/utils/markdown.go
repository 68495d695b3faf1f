package utils

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))

// CleanMarkdown strips an outer code fence (```markdown ... ```) and
// surrounding whitespace.
func CleanMarkdown(input string) string {
	cleaned := strings.TrimSpace(input)
	if !strings.HasPrefix(cleaned, "```") || !strings.HasSuffix(cleaned, "```") || len(cleaned) < 6 {
		return cleaned
	}
	cleaned = strings.TrimSuffix(cleaned, "```")
	if i := strings.Index(cleaned, "\n"); i >= 0 {
		cleaned = cleaned[i+1:]
	} else {
		cleaned = strings.TrimPrefix(cleaned, "```")
	}
	return strings.TrimSpace(cleaned)
}

// RenderHTML converts Markdown to HTML. Raw HTML in the input is not passed
// through.
func RenderHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
