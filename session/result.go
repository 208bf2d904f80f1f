package session

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MaxResultSize is the size of result text above which
// the text is replaced by a summary
const MaxResultSize = 10 * 1024 * 1024

// Result is the outcome of a remote tool call
type Result struct {
	Tool       string
	Content    []mcp.Content
	Structured any
	IsError    bool
}

// Text renders the result as text for the model
func (r *Result) Text() string {
	if r == nil {
		return ""
	}

	var parts []string
	for i, c := range r.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			if i == 0 && isImageResult(tc.Text) {
				return fmt.Sprintf("Image result from %s (base64 data)", r.Tool)
			}
			parts = append(parts, tc.Text)
			continue
		}
		js, err := json.Marshal(c)
		if err != nil {
			parts = append(parts, fmt.Sprintf("%v", c))
			continue
		}
		parts = append(parts, string(js))
	}

	if len(parts) == 0 && r.Structured != nil {
		js, err := json.Marshal(r.Structured)
		if err == nil {
			parts = append(parts, string(js))
		}
	}

	text := strings.Join(parts, "\n")
	if len(text) > MaxResultSize {
		return fmt.Sprintf("Large result from %s: %d bytes, too large to display inline. Consider a more specific request or a different tool.",
			r.Tool, len(text))
	}
	return text
}

func isImageResult(text string) bool {
	if !strings.HasPrefix(strings.TrimSpace(text), "{") {
		return false
	}
	var img map[string]any
	if err := json.Unmarshal([]byte(text), &img); err != nil {
		return false
	}
	_, hasData := img["image_base64"]
	return img["type"] == "image_result" && hasData
}
