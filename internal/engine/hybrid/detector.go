// internal/engine/hybrid/detector.go
package hybrid

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DetectFramework reports the client-side framework that appears to build the
// page, or "Unknown".
func DetectFramework(doc *goquery.Document) string {
	switch {
	case doc.Find("app-root, [ng-version], [ng-app]").Length() > 0:
		return "Angular"
	case doc.Find("[data-reactroot], #root, #__next").Length() > 0:
		return "React"
	case doc.Find("[data-v-app], #app").Length() > 0:
		return "Vue"
	}

	framework := "Unknown"
	doc.Find("script[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src := strings.ToLower(s.AttrOr("src", ""))
		switch {
		case strings.Contains(src, "angular"), strings.Contains(src, "polyfills"):
			framework = "Angular"
		case strings.Contains(src, "react"):
			framework = "React"
		case strings.Contains(src, "vue"):
			framework = "Vue"
		default:
			return true
		}
		return false
	})
	return framework
}

// NeedsJavaScript determines if a page likely builds its content with scripts
func NeedsJavaScript(doc *goquery.Document) bool {
	if DetectFramework(doc) != "Unknown" {
		return true
	}

	// Minimal markup with scripts is typical of SPAs
	scripts := doc.Find("script").Length()
	return scripts > 0 && doc.Find("div").Length() < 3 && doc.Find("table").Length() == 0
}
