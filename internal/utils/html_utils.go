package utils

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// enhanceHTML adds loading and privacy attributes to images in already
// sanitized HTML. Input that goquery cannot parse is returned unchanged.
func enhanceHTML(htmlStr string) string {
	if htmlStr == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return htmlStr
	}

	images := doc.Find("img")
	if images.Length() == 0 {
		return htmlStr
	}
	images.Each(func(i int, s *goquery.Selection) {
		s.SetAttr("loading", "lazy")
		s.SetAttr("referrerpolicy", "no-referrer")
	})

	// goquery wraps fragments in a full document, keep the body only
	out, err := doc.Find("body").Html()
	if err != nil || out == "" {
		return htmlStr
	}
	return out
}
