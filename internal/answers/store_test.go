package answers

import (
	"testing"

	"github.com/gradeplus/gradeplus-client/internal/model"
)

func testQuestions(n int) []model.Question {
	qs := make([]model.Question, n)
	for i := range qs {
		qs[i] = model.Question{
			ID:      string(rune('a' + i)),
			Kind:    model.KindSingle,
			Options: []string{"A", "B", "C", "D"},
		}
	}
	return qs
}

func TestNewStoreSeeding(t *testing.T) {
	s := NewStore(testQuestions(3))

	if got := s.Status("a"); got != model.StatusNotAnswered {
		t.Fatalf("first question status = %s, want not-answered", got)
	}
	for _, id := range []string{"b", "c"} {
		if got := s.Status(id); got != model.StatusNotVisited {
			t.Fatalf("question %s status = %s, want not-visited", id, got)
		}
	}
}

func TestNextStatusTable(t *testing.T) {
	tests := []struct {
		name      string
		current   model.QuestionStatus
		hasAnswer bool
		action    Action
		want      model.QuestionStatus
	}{
		{"away answered plain", model.StatusNotAnswered, true, ActionNavigateAway, model.StatusAnswered},
		{"away answered marked", model.StatusMarked, true, ActionNavigateAway, model.StatusAnsweredMarked},
		{"away answered answered-marked", model.StatusAnsweredMarked, true, ActionNavigateAway, model.StatusAnsweredMarked},
		{"away unanswered plain", model.StatusAnswered, false, ActionNavigateAway, model.StatusNotAnswered},
		{"away unanswered marked", model.StatusMarked, false, ActionNavigateAway, model.StatusMarked},
		{"away unanswered answered-marked", model.StatusAnsweredMarked, false, ActionNavigateAway, model.StatusMarked},
		{"into not-visited", model.StatusNotVisited, false, ActionNavigateInto, model.StatusNotAnswered},
		{"into already visited", model.StatusAnswered, true, ActionNavigateInto, model.StatusAnswered},
		{"select plain", model.StatusNotAnswered, true, ActionSelect, model.StatusAnswered},
		{"select marked", model.StatusMarked, true, ActionSelect, model.StatusAnsweredMarked},
		{"select answered-marked", model.StatusAnsweredMarked, true, ActionSelect, model.StatusAnsweredMarked},
		{"clear answered", model.StatusAnswered, false, ActionClear, model.StatusNotAnswered},
		{"clear answered-marked", model.StatusAnsweredMarked, false, ActionClear, model.StatusMarked},
		{"mark with answer", model.StatusAnswered, true, ActionMark, model.StatusAnsweredMarked},
		{"mark without answer", model.StatusNotAnswered, false, ActionMark, model.StatusMarked},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NextStatus(tc.current, tc.hasAnswer, tc.action)
			if got != tc.want {
				t.Fatalf("NextStatus(%s, %v, %s) = %s, want %s",
					tc.current, tc.hasAnswer, tc.action, got, tc.want)
			}
			if !got.Valid() {
				t.Fatalf("reducer produced unknown status %q", got)
			}
		})
	}
}

func TestSetAndHas(t *testing.T) {
	s := NewStore(testQuestions(2))

	if s.Has("a") {
		t.Fatalf("fresh store should have no answer")
	}

	s.Set("a", model.SingleAnswer(2))
	if !s.Has("a") {
		t.Fatalf("Has = false after Set")
	}
	if got := s.Status("a"); got != model.StatusAnswered {
		t.Fatalf("status after select = %s, want answered", got)
	}

	a, ok := s.Get("a")
	if !ok || a.Index != 2 {
		t.Fatalf("Get = %+v, %v; want index 2", a, ok)
	}
}

func TestBlankTextAnswerIsNoAnswer(t *testing.T) {
	s := NewStore([]model.Question{{ID: "a", Kind: model.KindText}})
	s.answers["a"] = model.TextAnswer("   ")
	if s.Has("a") {
		t.Fatalf("whitespace-only text must not count as an answer")
	}
}

func TestSetValuelessAnswerClears(t *testing.T) {
	s := NewStore([]model.Question{{ID: "a", Kind: model.KindText}})

	// Blank text never becomes an answered entry.
	s.Set("a", model.TextAnswer(""))
	if s.Has("a") {
		t.Fatalf("blank text stored as an answer")
	}
	if got := s.Status("a"); got != model.StatusNotAnswered {
		t.Fatalf("status = %s, want not-answered", got)
	}

	// Overwriting a real answer with a valueless one behaves as a clear.
	s.Set("a", model.TextAnswer("ok"))
	s.Set("a", model.TextAnswer("  "))
	if s.Has("a") {
		t.Fatalf("whitespace text left a stored answer behind")
	}
	if got := s.Status("a"); got != model.StatusNotAnswered {
		t.Fatalf("status after valueless overwrite = %s, want not-answered", got)
	}

	// The implied clear follows the same transition as an explicit one.
	s.Apply("a", ActionMark)
	s.Set("a", model.TextAnswer(""))
	if got := s.Status("a"); got != model.StatusNotAnswered {
		t.Fatalf("status = %s, want not-answered", got)
	}
	if s.Has("a") {
		t.Fatalf("question still carries a valueless answer")
	}
}

func TestToggleMultiSelect(t *testing.T) {
	qs := testQuestions(1)
	qs[0].Kind = model.KindMultiple
	s := NewStore(qs)

	s.Toggle("a", 2)
	s.Toggle("a", 0)
	a, _ := s.Get("a")
	if len(a.Indices) != 2 || a.Indices[0] != 0 || a.Indices[1] != 2 {
		t.Fatalf("indices = %v, want [0 2]", a.Indices)
	}

	// toggling an existing index removes it
	s.Toggle("a", 2)
	a, _ = s.Get("a")
	if len(a.Indices) != 1 || a.Indices[0] != 0 {
		t.Fatalf("indices = %v, want [0]", a.Indices)
	}

	// emptying the set clears the answer entirely
	s.Toggle("a", 0)
	if s.Has("a") {
		t.Fatalf("empty set should mean no answer")
	}
	if got := s.Status("a"); got != model.StatusNotAnswered {
		t.Fatalf("status after emptying = %s, want not-answered", got)
	}
}

func TestMarkAnswerClearSequence(t *testing.T) {
	// Scenario: mark while unanswered, then answer, then clear.
	s := NewStore(testQuestions(3))

	s.Apply("c", ActionMark)
	if got := s.Status("c"); got != model.StatusMarked {
		t.Fatalf("after mark: %s, want marked", got)
	}

	s.Set("c", model.SingleAnswer(1))
	if got := s.Status("c"); got != model.StatusAnsweredMarked {
		t.Fatalf("after answer: %s, want answered-marked", got)
	}

	s.Clear("c")
	if got := s.Status("c"); got != model.StatusMarked {
		t.Fatalf("after clear: %s, want marked (review flag survives)", got)
	}
	if s.Has("c") {
		t.Fatalf("answer should be gone after clear")
	}
}

func TestClearThenNavigateAwayNeverAnswered(t *testing.T) {
	s := NewStore(testQuestions(2))
	s.Set("a", model.SingleAnswer(0))
	s.Clear("a")
	s.Apply("a", ActionNavigateAway)

	got := s.Status("a")
	if got != model.StatusNotAnswered && got != model.StatusMarked {
		t.Fatalf("cleared question left navigation as %s", got)
	}
}

func TestStatusAnswerConsistency(t *testing.T) {
	// Invariant: Has(q) iff the status says so, across a random-ish walk.
	s := NewStore(testQuestions(4))
	steps := []func(){
		func() { s.Set("a", model.SingleAnswer(1)) },
		func() { s.Apply("a", ActionNavigateAway) },
		func() { s.Apply("b", ActionNavigateInto) },
		func() { s.Apply("b", ActionMark) },
		func() { s.Set("b", model.SingleAnswer(3)) },
		func() { s.Clear("a") },
		func() { s.Apply("a", ActionNavigateAway) },
		func() { s.Apply("c", ActionNavigateInto) },
	}
	for i, step := range steps {
		step()
		for _, id := range []string{"a", "b", "c", "d"} {
			st := s.Status(id)
			if !st.Valid() {
				t.Fatalf("step %d: question %s has unknown status %q", i, id, st)
			}
			answered := st == model.StatusAnswered || st == model.StatusAnsweredMarked
			if answered && !s.Has(id) {
				t.Fatalf("step %d: question %s status %s without an answer", i, id, st)
			}
			if s.Has(id) && (st == model.StatusNotAnswered || st == model.StatusNotVisited) {
				t.Fatalf("step %d: question %s has answer but status %s", i, id, st)
			}
		}
	}
}

func TestRestore(t *testing.T) {
	s := NewStore(testQuestions(3))
	saved := map[string]model.Answer{
		"b": model.SingleAnswer(1),
		"z": model.SingleAnswer(0), // question no longer in the paper
		"c": model.TextAnswer(" "), // blank, must not restore
	}
	s.Restore(saved)

	if !s.Has("b") || s.Status("b") != model.StatusAnswered {
		t.Fatalf("restored answer not applied: has=%v status=%s", s.Has("b"), s.Status("b"))
	}
	if s.Has("z") {
		t.Fatalf("unknown question restored")
	}
	if s.Has("c") || s.Status("c") != model.StatusNotVisited {
		t.Fatalf("blank answer should not restore; status=%s", s.Status("c"))
	}
}

func TestCounts(t *testing.T) {
	s := NewStore(testQuestions(4))
	s.Set("a", model.SingleAnswer(0))
	s.Apply("b", ActionMark)

	counts := s.Counts()
	if counts[model.StatusAnswered] != 1 || counts[model.StatusMarked] != 1 ||
		counts[model.StatusNotVisited] != 2 {
		t.Fatalf("counts = %v", counts)
	}
}
