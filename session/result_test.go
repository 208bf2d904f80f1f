package session_test

import (
	"strings"
	"testing"

	"github.com/effective-security/eztoolbox/session"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
)

func Test_ResultText(t *testing.T) {
	var r *session.Result
	assert.Empty(t, r.Text())

	r = &session.Result{
		Tool: "echo",
		Content: []mcp.Content{
			&mcp.TextContent{Text: "one"},
			&mcp.TextContent{Text: "two"},
		},
	}
	assert.Equal(t, "one\ntwo", r.Text())

	r = &session.Result{
		Tool:    "shot",
		Content: []mcp.Content{&mcp.TextContent{Text: `{"type":"image_result","image_base64":"iVBORw0"}`}},
	}
	assert.Equal(t, "Image result from shot (base64 data)", r.Text())

	r = &session.Result{
		Tool:    "json",
		Content: []mcp.Content{&mcp.TextContent{Text: `{"type":"other"}`}},
	}
	assert.Equal(t, `{"type":"other"}`, r.Text())

	r = &session.Result{
		Tool:       "stats",
		Structured: map[string]any{"words": 2},
	}
	assert.Equal(t, `{"words":2}`, r.Text())

	r = &session.Result{
		Tool:    "big",
		Content: []mcp.Content{&mcp.TextContent{Text: strings.Repeat("x", session.MaxResultSize+1)}},
	}
	text := r.Text()
	assert.True(t, strings.HasPrefix(text, "Large result from big: 10485761 bytes"))

	r = &session.Result{
		Tool:    "img",
		Content: []mcp.Content{&mcp.ImageContent{Data: []byte("abc"), MIMEType: "image/png"}},
	}
	assert.Contains(t, r.Text(), `"type":"image"`)
}
