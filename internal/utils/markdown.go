package utils

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	mdParser = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	policy = bluemonday.UGCPolicy()
)

func init() {
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.RequireNoReferrerOnLinks(true)
}

// RenderMarkdown converts post content to sanitized HTML for clients that
// want to display it directly. Results are cached by content.
func RenderMarkdown(source string) string {
	if source == "" {
		return ""
	}
	key := cacheKey(source)
	if out, ok := htmlCache().Get(key); ok {
		return out
	}

	var out string
	var buf bytes.Buffer
	if err := mdParser.Convert([]byte(source), &buf); err != nil {
		out = policy.Sanitize(source)
	} else {
		out = enhanceHTML(string(policy.SanitizeBytes(buf.Bytes())))
	}
	htmlCache().Add(key, out)
	return out
}
