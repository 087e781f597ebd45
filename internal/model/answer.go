package model

import (
	"sort"
	"strings"
)

// Answer is the typed value of one question's response. The meaningful
// field depends on Kind: Index for single, Indices for multiple, Text for
// free text. Absence of an answer is represented by the question having no
// entry at all, never by a zero Answer.
type Answer struct {
	Kind    QuestionKind `json:"kind"`
	Index   int          `json:"index,omitempty"`
	Indices []int        `json:"indices,omitempty"`
	Text    string       `json:"text,omitempty"`
}

// SingleAnswer builds an answer selecting one option index.
func SingleAnswer(index int) Answer {
	return Answer{Kind: KindSingle, Index: index}
}

// MultiAnswer builds an answer from a set of option indices. The indices
// are deduplicated and kept sorted.
func MultiAnswer(indices ...int) Answer {
	return Answer{Kind: KindMultiple, Indices: normalizeIndices(indices)}
}

// TextAnswer builds a free-text answer.
func TextAnswer(text string) Answer {
	return Answer{Kind: KindText, Text: text}
}

// HasValue reports whether the answer actually carries a response: a
// selected index, a non-empty index set, or non-blank text.
func (a Answer) HasValue() bool {
	switch a.Kind {
	case KindSingle:
		return a.Index >= 0
	case KindMultiple:
		return len(a.Indices) > 0
	case KindText:
		return strings.TrimSpace(a.Text) != ""
	}
	return false
}

// Contains reports whether the option index is part of the selection.
func (a Answer) Contains(index int) bool {
	switch a.Kind {
	case KindSingle:
		return a.Index == index
	case KindMultiple:
		for _, i := range a.Indices {
			if i == index {
				return true
			}
		}
	}
	return false
}

// WithToggled returns a copy of a multiple answer with the given option
// index flipped in or out of the set.
func (a Answer) WithToggled(index int) Answer {
	out := make([]int, 0, len(a.Indices)+1)
	found := false
	for _, i := range a.Indices {
		if i == index {
			found = true
			continue
		}
		out = append(out, i)
	}
	if !found {
		out = append(out, index)
	}
	return Answer{Kind: KindMultiple, Indices: normalizeIndices(out)}
}

func normalizeIndices(in []int) []int {
	seen := make(map[int]bool, len(in))
	out := make([]int, 0, len(in))
	for _, i := range in {
		if i < 0 || seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
