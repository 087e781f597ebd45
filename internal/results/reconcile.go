// Package results recomputes a best-effort score and correctness
// breakdown for a completed attempt, tolerant of the backend's
// heterogeneous answer encodings.
package results

import (
	"sort"
	"strconv"
	"strings"

	"github.com/gradeplus/gradeplus-client/internal/api"
	"github.com/gradeplus/gradeplus-client/internal/model"
)

// Input is one question to reconcile: the clean question plus the raw
// selected/correct encodings. An empty Correct means the key is unknown
// (offline fallback) — the question still counts as attempted/unattempted
// but contributes no marks either way.
type Input struct {
	Question    model.Question
	Selected    string
	Correct     string
	Explanation string
}

// QuestionResult is the per-question verdict.
type QuestionResult struct {
	Question    model.Question
	Attempted   bool
	Scored      bool
	Correct     bool
	MarksDelta  float64
	Selected    []string
	CorrectKey  []string
	Explanation string
}

// SectionSummary aggregates one section of the paper.
type SectionSummary struct {
	Name          string
	Total         int
	Attempted     int
	CorrectCount  int
	ObtainedMarks float64
	MaxMarks      float64
	Accuracy      float64
	Percentage    float64
}

// Summary is the reconciled attempt: totals, ratios and the per-question
// breakdown. Accuracy is in [0,1], Percentage in [0,100]; both are guarded
// against zero denominators.
type Summary struct {
	TotalQuestions int
	Attempted      int
	CorrectCount   int
	IncorrectCount int
	Unattempted    int
	ObtainedMarks  float64
	MaxMarks       float64
	Accuracy       float64
	Percentage     float64
	Sections       []SectionSummary
	PerQuestion    []QuestionResult
}

// FromRecords builds reconciler inputs from a results-mode fetch. When the
// live session still holds answers, they override the server's view of the
// selection so an unflushed last answer is not lost.
func FromRecords(records []api.ResultRecord, local map[string]model.Answer) []Input {
	inputs := make([]Input, 0, len(records))
	for _, rec := range records {
		in := Input{
			Question:    rec.Question,
			Selected:    rec.Selected,
			Correct:     rec.Correct,
			Explanation: rec.Explanation,
		}
		if a, ok := local[rec.Question.ID]; ok && a.HasValue() {
			in.Selected = api.EncodeAnswer(a, true)
		}
		inputs = append(inputs, in)
	}
	return inputs
}

// FromSnapshot builds inputs from the local persistence fallback, used
// when the results fetch fails. Correct keys are unknown, so the summary
// degrades to attempt counts.
func FromSnapshot(questions []model.Question, answers map[string]model.Answer) []Input {
	inputs := make([]Input, 0, len(questions))
	for _, q := range questions {
		in := Input{Question: q}
		if a, ok := answers[q.ID]; ok && a.HasValue() {
			in.Selected = api.EncodeAnswer(a, true)
		}
		inputs = append(inputs, in)
	}
	return inputs
}

// Reconcile computes the summary. Negative marking applies only to
// attempted-and-incorrect questions; unattempted ones contribute zero net
// marks and only count against the question total.
func Reconcile(inputs []Input) Summary {
	sum := Summary{PerQuestion: make([]QuestionResult, 0, len(inputs))}
	bySection := make(map[string]*SectionSummary)
	var sectionOrder []string

	for _, in := range inputs {
		qr := reconcileOne(in)
		sum.PerQuestion = append(sum.PerQuestion, qr)

		sum.TotalQuestions++
		sum.MaxMarks += in.Question.Marks.Positive
		if qr.Attempted {
			sum.Attempted++
		}
		if qr.Scored {
			if qr.Correct {
				sum.CorrectCount++
			} else if qr.Attempted {
				sum.IncorrectCount++
			}
		}
		sum.ObtainedMarks += qr.MarksDelta

		name := in.Question.Section
		if name == "" {
			name = "All Questions"
		}
		sec, ok := bySection[name]
		if !ok {
			sec = &SectionSummary{Name: name}
			bySection[name] = sec
			sectionOrder = append(sectionOrder, name)
		}
		sec.Total++
		sec.MaxMarks += in.Question.Marks.Positive
		if qr.Attempted {
			sec.Attempted++
		}
		if qr.Scored && qr.Correct {
			sec.CorrectCount++
		}
		sec.ObtainedMarks += qr.MarksDelta
	}

	sum.Unattempted = sum.TotalQuestions - sum.Attempted
	sum.Accuracy = ratio(float64(sum.CorrectCount), float64(sum.Attempted))
	sum.Percentage = clampPercent(ratio(sum.ObtainedMarks, sum.MaxMarks) * 100)

	for _, name := range sectionOrder {
		sec := bySection[name]
		sec.Accuracy = ratio(float64(sec.CorrectCount), float64(sec.Attempted))
		sec.Percentage = clampPercent(ratio(sec.ObtainedMarks, sec.MaxMarks) * 100)
		sum.Sections = append(sum.Sections, *sec)
	}

	return sum
}

func reconcileOne(in Input) QuestionResult {
	qr := QuestionResult{
		Question:    in.Question,
		Selected:    Canonicalize(in.Question, in.Selected),
		CorrectKey:  Canonicalize(in.Question, in.Correct),
		Explanation: in.Explanation,
	}
	qr.Attempted = len(qr.Selected) > 0
	qr.Scored = len(qr.CorrectKey) > 0

	if !qr.Scored || !qr.Attempted {
		return qr
	}

	qr.Correct = setsEqual(qr.Selected, qr.CorrectKey)
	if qr.Correct {
		qr.MarksDelta = in.Question.Marks.Positive
	} else {
		qr.MarksDelta = -in.Question.Marks.Negative
	}
	return qr
}

// Canonicalize normalizes a raw answer encoding into a sorted, deduplicated
// token set comparable against another canonicalized value. For questions
// with options, every token is resolved to option-index form — option text
// and indices both map to the index, so an index is never compared against
// raw text. Free-text answers normalize to a single case/whitespace-folded
// token.
func Canonicalize(q model.Question, raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if q.Kind == model.KindText || len(q.Options) == 0 {
		return []string{normalizeText(raw)}
	}

	seen := make(map[string]bool)
	var out []string
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		canon, ok := resolveToIndex(q.Options, token)
		if !ok {
			// Unresolvable token: keep its normalized text so a wrong
			// encoding reads as incorrect rather than vanishing.
			canon = normalizeText(token)
		}
		if !seen[canon] {
			seen[canon] = true
			out = append(out, canon)
		}
	}
	sort.Strings(out)
	return out
}

func resolveToIndex(options []string, token string) (string, bool) {
	if n, err := strconv.Atoi(token); err == nil && n >= 0 && n < len(options) {
		return strconv.Itoa(n), true
	}
	want := normalizeText(token)
	for i, opt := range options {
		if normalizeText(opt) == want {
			return strconv.Itoa(i), true
		}
	}
	return "", false
}

func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func setsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func clampPercent(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
