// Package markdown converts Markdown bodies to HTML.
//
// It is a collaborator of the build core: the preparation pipeline only
// records page metadata, and the builder calls Convert at the render
// boundary.
package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Converter wraps a configured goldmark instance. Safe for concurrent use.
type Converter struct {
	md goldmark.Markdown
}

// NewConverter returns a GFM converter. Raw HTML passes through unchanged
// so link markers embedded in content survive until link resolution.
func NewConverter() *Converter {
	return &Converter{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// Convert renders body to HTML.
func (c *Converter) Convert(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.md.Convert(body, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
