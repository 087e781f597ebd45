// Package htmltext extracts plain text from the HTML-bearing question and
// option payloads the backend returns, so every downstream comparison
// operates on already-clean text.
package htmltext

import (
	"html"
	"regexp"
	"strings"
)

var (
	imgRe = regexp.MustCompile(`(?i)<img[^>]*>`)
	tagRe = regexp.MustCompile(`</?[^>]+>`)
)

// Strip removes image tags and all other markup, unescapes HTML entities
// and trims surrounding whitespace.
func Strip(raw string) string {
	if raw == "" {
		return ""
	}
	out := imgRe.ReplaceAllString(raw, "")
	out = tagRe.ReplaceAllString(out, "")
	out = html.UnescapeString(out)
	return strings.TrimSpace(out)
}

// StripOptions strips every option and drops those left empty by stripping
// (image-only or markup-only options).
func StripOptions(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, opt := range raw {
		if clean := Strip(opt); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}

// ImageSources returns the src attributes of any embedded images, in
// document order. The core is text-only; callers that can display images
// fetch them separately.
func ImageSources(raw string) []string {
	var srcs []string
	for _, img := range imgRe.FindAllString(raw, -1) {
		if m := srcRe.FindStringSubmatch(img); m != nil {
			srcs = append(srcs, m[2])
		}
	}
	return srcs
}

var srcRe = regexp.MustCompile(`(?i)src\s*=\s*("|')([^"']*)("|')`)
