// Package answers holds the in-memory answer values and per-question
// status tags for one exam session, and the pure transition rules that
// keep the two consistent.
package answers

import "github.com/gradeplus/gradeplus-client/internal/model"

// Store maps question ids to answer values and statuses. It is not
// safe for concurrent use; the session controller serializes access.
type Store struct {
	answers  map[string]model.Answer
	statuses map[string]model.QuestionStatus
}

// NewStore seeds a store for the given question list: every question
// starts not-visited except the first, which is on screen from the start
// and therefore not-answered.
func NewStore(questions []model.Question) *Store {
	s := &Store{
		answers:  make(map[string]model.Answer, len(questions)),
		statuses: make(map[string]model.QuestionStatus, len(questions)),
	}
	for i, q := range questions {
		if i == 0 {
			s.statuses[q.ID] = model.StatusNotAnswered
		} else {
			s.statuses[q.ID] = model.StatusNotVisited
		}
	}
	return s
}

// Set overwrites the answer for a question and applies the select
// transition. A valueless answer (blank text, no selection) is treated as
// a clear so status and answer presence never diverge.
func (s *Store) Set(questionID string, value model.Answer) {
	if !value.HasValue() {
		delete(s.answers, questionID)
		s.Apply(questionID, ActionClear)
		return
	}
	s.answers[questionID] = value
	s.Apply(questionID, ActionSelect)
}

// Toggle flips one option index in a multiple-select answer, creating the
// set if absent. A toggle that empties the set removes the entry.
func (s *Store) Toggle(questionID string, optionIndex int) {
	cur, ok := s.answers[questionID]
	if !ok {
		cur = model.MultiAnswer()
	}
	next := cur.WithToggled(optionIndex)
	if next.HasValue() {
		s.answers[questionID] = next
		s.Apply(questionID, ActionSelect)
		return
	}
	delete(s.answers, questionID)
	s.Apply(questionID, ActionClear)
}

// Clear removes the answer entry entirely and applies the clear
// transition.
func (s *Store) Clear(questionID string) {
	delete(s.answers, questionID)
	s.Apply(questionID, ActionClear)
}

// Has reports whether the question carries a real answer. A missing key
// and an empty value are treated identically.
func (s *Store) Has(questionID string) bool {
	a, ok := s.answers[questionID]
	return ok && a.HasValue()
}

// Get returns the answer value and whether one is present.
func (s *Store) Get(questionID string) (model.Answer, bool) {
	a, ok := s.answers[questionID]
	if !ok || !a.HasValue() {
		return model.Answer{}, false
	}
	return a, true
}

// Status returns the question's current status tag. Unknown ids report
// not-visited.
func (s *Store) Status(questionID string) model.QuestionStatus {
	if st, ok := s.statuses[questionID]; ok {
		return st
	}
	return model.StatusNotVisited
}

// Apply runs the transition function for the given action against the
// question's current status and answer presence.
func (s *Store) Apply(questionID string, action Action) {
	s.statuses[questionID] = NextStatus(s.Status(questionID), s.Has(questionID), action)
}

// Answers returns a copy of the answer map for persistence or
// reconciliation.
func (s *Store) Answers() map[string]model.Answer {
	out := make(map[string]model.Answer, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// Statuses returns a copy of the status map.
func (s *Store) Statuses() map[string]model.QuestionStatus {
	out := make(map[string]model.QuestionStatus, len(s.statuses))
	for k, v := range s.statuses {
		out[k] = v
	}
	return out
}

// Restore merges previously mirrored answers into the store, typically on
// session resume. Statuses are re-derived from answer presence rather than
// trusted from the stale blob: restored answers read as answered, the rest
// keep their seeded status.
func (s *Store) Restore(saved map[string]model.Answer) {
	for id, a := range saved {
		if _, known := s.statuses[id]; !known {
			continue // question no longer in the paper
		}
		if !a.HasValue() {
			continue
		}
		s.answers[id] = a
		s.statuses[id] = model.StatusAnswered
	}
}

// Counts tallies questions per status for the palette summary.
func (s *Store) Counts() map[model.QuestionStatus]int {
	out := make(map[model.QuestionStatus]int, 5)
	for _, st := range s.statuses {
		out[st]++
	}
	return out
}
