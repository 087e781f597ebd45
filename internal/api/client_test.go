package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gradeplus/gradeplus-client/internal/auth"
	"github.com/gradeplus/gradeplus-client/internal/model"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Header:     make(http.Header),
	}
}

func newTestClient(state *auth.State, rt http.RoundTripper) *Client {
	return NewClient("http://backend/api", &http.Client{Transport: rt}, state, zerolog.Nop())
}

func TestGetTestPaperAttachesAuth(t *testing.T) {
	var gotAuth, gotPath string
	client := newTestClient(auth.NewState("tok-123"), roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		return jsonResponse(http.StatusOK,
			`{"name":"Mock Paper","duration":30,"questions":2,"sections":"A#@#1#@#2"}`), nil
	}))

	paper, err := client.GetTestPaper(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetTestPaper: %v", err)
	}
	if gotAuth != "tok-123" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotPath != "/api/testpaper/p1" {
		t.Fatalf("path = %q", gotPath)
	}
	if paper.DurationMinutes != 30 || paper.Sections != "A#@#1#@#2" {
		t.Fatalf("paper = %+v", paper)
	}
}

func TestGetTestPaperRejectsInvalidPayload(t *testing.T) {
	client := newTestClient(auth.NewState("tok"), roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"duration":30}`), nil // no name
	}))

	_, err := client.GetTestPaper(context.Background(), "p1")
	if CodeOf(err) != ErrBadPayload {
		t.Fatalf("err = %v, want BAD_PAYLOAD", err)
	}
}

func TestGetQuestionsIngestsHTML(t *testing.T) {
	body := `[
		{"id":"q1","qid":"x1","question":"<p>Pick <b>one</b></p>",
		 "options":["<p>A</p>","<img src='o.png'>","B"],"marks":{"positive":2,"negative":0.5}},
		{"id":"q2","qid":"x2","question":"Explain.","options":[]}
	]`
	client := newTestClient(auth.NewState("tok"), roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, body), nil
	}))

	qs, err := client.GetQuestions(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetQuestions: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("got %d questions", len(qs))
	}
	if qs[0].Text != "Pick one" {
		t.Fatalf("text = %q", qs[0].Text)
	}
	if len(qs[0].Options) != 2 {
		t.Fatalf("image-only option not dropped: %v", qs[0].Options)
	}
	if qs[0].Kind != model.KindSingle || qs[1].Kind != model.KindText {
		t.Fatalf("kinds = %s, %s", qs[0].Kind, qs[1].Kind)
	}
	if qs[0].Marks.Positive != 2 || qs[0].Marks.Negative != 0.5 {
		t.Fatalf("marks = %+v", qs[0].Marks)
	}
}

func TestUnauthorizedInvalidatesAuthState(t *testing.T) {
	state := auth.NewState("tok")
	invalidated := false
	state.OnInvalidate(func() { invalidated = true })

	client := newTestClient(state, roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusUnauthorized, `{}`), nil
	}))

	_, err := client.GetQuestions(context.Background(), "p1")
	if !IsAuthExpired(err) {
		t.Fatalf("err = %v, want auth expired", err)
	}
	if !invalidated {
		t.Fatalf("auth state not invalidated on 401")
	}
	if IsRetryable(err) {
		t.Fatalf("auth expiry must not be retryable")
	}
}

func TestServerErrorIsRetryable(t *testing.T) {
	client := newTestClient(auth.NewState("tok"), roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusInternalServerError, ``), nil
	}))

	err := client.SaveAnswer(context.Background(), "p1",
		&model.Question{ID: "q1", ExternalID: "x1", Kind: model.KindSingle},
		model.SingleAnswer(1), true)
	if err == nil {
		t.Fatalf("expected error for 500")
	}
	if !IsRetryable(err) {
		t.Fatalf("5xx should be retryable: %v", err)
	}
}

func TestSaveAnswerPayloadEncoding(t *testing.T) {
	var got savePayload
	client := newTestClient(auth.NewState("tok"), roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		return jsonResponse(http.StatusOK, `{}`), nil
	}))

	q := &model.Question{ID: "q1", ExternalID: "ext-9", Kind: model.KindMultiple}
	err := client.SaveAnswer(context.Background(), "p1", q, model.MultiAnswer(3, 0), true)
	if err != nil {
		t.Fatalf("SaveAnswer: %v", err)
	}
	if got.Data != "ext-9" {
		t.Fatalf("payload data = %q, want external id", got.Data)
	}
	if got.Response != "0,3" {
		t.Fatalf("payload response = %q, want sorted comma-joined", got.Response)
	}
}

func TestSubmitWithoutFocusedQuestion(t *testing.T) {
	var got savePayload
	var query string
	client := newTestClient(auth.NewState("tok"), roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		query = r.URL.RawQuery
		_ = json.NewDecoder(r.Body).Decode(&got)
		return jsonResponse(http.StatusOK, `{}`), nil
	}))

	if err := client.Submit(context.Background(), "p1", nil, model.Answer{}, false); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if query != "isSubmit=1" {
		t.Fatalf("query = %q", query)
	}
	if got.Data != "" || got.Response != "" {
		t.Fatalf("fallback payload not empty: %+v", got)
	}
}

func TestEncodeAnswer(t *testing.T) {
	tests := []struct {
		name    string
		a       model.Answer
		present bool
		want    string
	}{
		{"absent", model.Answer{}, false, ""},
		{"single", model.SingleAnswer(2), true, "2"},
		{"multi sorted deduped", model.MultiAnswer(3, 1, 3), true, "1,3"},
		{"text trimmed", model.TextAnswer("  forty two "), true, "forty two"},
		{"blank text", model.TextAnswer("   "), true, ""},
		{"empty multi", model.MultiAnswer(), true, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := EncodeAnswer(tc.a, tc.present); got != tc.want {
				t.Fatalf("EncodeAnswer = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestWireValueHeterogeneousEncodings(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"string", `"2"`, "2"},
		{"number", `2`, "2"},
		{"string array", `["0","2"]`, "0,2"},
		{"number array", `[2,0]`, "2,0"},
		{"null", `null`, ""},
		{"padded string", `" B "`, "B"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var w WireValue
			if err := json.Unmarshal([]byte(tc.in), &w); err != nil {
				t.Fatalf("unmarshal %s: %v", tc.in, err)
			}
			if string(w) != tc.want {
				t.Fatalf("WireValue(%s) = %q, want %q", tc.in, w, tc.want)
			}
		})
	}
}

func TestGetResultsKeepsRawEncodings(t *testing.T) {
	body := `[
		{"id":"q1","question":"Q?","options":["A","B","C"],
		 "selectedAnswers":["0","2"],"answers":[0,2],"explanation":"<p>because</p>"}
	]`
	client := newTestClient(auth.NewState("tok"), roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		if r.URL.RawQuery != "isCompleted=1" {
			t.Fatalf("query = %q", r.URL.RawQuery)
		}
		return jsonResponse(http.StatusOK, body), nil
	}))

	results, err := client.GetResults(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetResults: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results", len(results))
	}
	r := results[0]
	if r.Selected != "0,2" || r.Correct != "0,2" {
		t.Fatalf("selected=%q correct=%q", r.Selected, r.Correct)
	}
	if r.Explanation != "because" {
		t.Fatalf("explanation = %q", r.Explanation)
	}
	if r.Question.Kind != model.KindMultiple {
		t.Fatalf("kind = %s, want multiple (multi-valued correct set)", r.Question.Kind)
	}
}
