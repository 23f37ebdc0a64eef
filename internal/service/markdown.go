package service

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
)

// renderMarkdown converts model-produced markdown to HTML. Rendering is
// deterministic: the same input always yields the same HTML.
func renderMarkdown(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}
