package views

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// The parser configuration never changes and goldmark.Markdown is safe to
// share. Raw HTML in the source is not rendered.
var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
	),
)

// Markdown renders an employee's commentary.
func Markdown(source string) (template.HTML, error) {
	if source == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("views: rendering commentary: %w", err)
	}
	return template.HTML(buf.String()), nil
}
