// Package section parses the backend's compact section descriptor into
// named question-number ranges.
package section

import (
	"strconv"
	"strings"

	"github.com/gradeplus/gradeplus-client/internal/model"
)

const (
	sectionSep = "@@@"
	fieldSep   = "#@#"
)

// Parse splits a descriptor of the form "name#@#start#@#end" repeated and
// joined by "@@@" into sections. Malformed or empty input degrades to a
// single "All Questions" section spanning the full paper; Parse never
// fails.
func Parse(descriptor string, totalQuestions int) []model.Section {
	fallback := []model.Section{{Name: "All Questions", Start: 1, End: totalQuestions}}

	descriptor = strings.TrimSpace(descriptor)
	if descriptor == "" {
		return fallback
	}

	var sections []model.Section
	for _, part := range strings.Split(descriptor, sectionSep) {
		fields := strings.Split(part, fieldSep)
		if len(fields) != 3 {
			return fallback
		}
		start, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			return fallback
		}
		end, err := strconv.Atoi(strings.TrimSpace(fields[2]))
		if err != nil {
			return fallback
		}
		name := strings.TrimSpace(fields[0])
		if name == "" || start < 1 || end < start {
			return fallback
		}
		sections = append(sections, model.Section{Name: name, Start: start, End: end})
	}

	if len(sections) == 0 {
		return fallback
	}
	return sections
}

// FindByNumber returns the first section containing the 1-based question
// number n, or false if none does.
func FindByNumber(sections []model.Section, n int) (model.Section, bool) {
	for _, s := range sections {
		if s.Contains(n) {
			return s, true
		}
	}
	return model.Section{}, false
}
