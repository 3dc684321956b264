package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTMLEscapesRawHTML(t *testing.T) {
	p := NewParser()

	out := p.HTML("<script>alert(1)</script>\n\nok")

	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "<p>ok</p>")
}

func TestHTMLHardWraps(t *testing.T) {
	p := NewParser()

	out := p.HTML("linha um\nlinha dois")

	assert.Contains(t, out, "<br />")
}

func TestHTMLEmphasisAndLinks(t *testing.T) {
	p := NewParser()

	out := p.HTML("**urgente** ver https://example.com")

	assert.Contains(t, out, "<strong>urgente</strong>")
	assert.Contains(t, out, `<a href="https://example.com">`)
}
