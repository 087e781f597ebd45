// Package api is the client for the GradePlus exam backend: paper
// metadata, question fetch, per-question answer save, final submission and
// results.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gradeplus/gradeplus-client/internal/auth"
	"github.com/gradeplus/gradeplus-client/internal/htmltext"
	"github.com/gradeplus/gradeplus-client/internal/model"
	"github.com/gradeplus/gradeplus-client/internal/validator"
)

// Client wraps the backend REST surface. A 401 from any endpoint
// invalidates the shared auth state; every other failure propagates to the
// caller so the navigation flow can abort instead of silently advancing.
type Client struct {
	base string
	http *http.Client
	auth *auth.State
	log  zerolog.Logger
}

// NewClient creates a backend client. httpClient may carry a custom
// transport (tests inject one); nil uses a default client.
func NewClient(baseURL string, httpClient *http.Client, authState *auth.State, log zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: httpClient,
		auth: authState,
		log:  log.With().Str("component", "api").Logger(),
	}
}

// ListTestPapers fetches the paper catalog.
func (c *Client) ListTestPapers(ctx context.Context) ([]model.TestPaper, error) {
	var papers []model.TestPaper
	if err := c.do(ctx, http.MethodGet, "/testpapers", nil, &papers); err != nil {
		return nil, fmt.Errorf("list testpapers: %w", err)
	}
	return papers, nil
}

// GetTestPaper fetches one paper's metadata.
func (c *Client) GetTestPaper(ctx context.Context, paperID string) (*model.TestPaper, error) {
	var paper model.TestPaper
	if err := c.do(ctx, http.MethodGet, "/testpaper/"+paperID, nil, &paper); err != nil {
		return nil, fmt.Errorf("get testpaper %s: %w", paperID, err)
	}
	paper.ID = paperID
	if err := validator.Struct(&paper); err != nil {
		return nil, &Error{Code: ErrBadPayload, Err: err}
	}
	return &paper, nil
}

// GetQuestions fetches and ingests the paper's question list: markup
// stripped, kinds derived.
func (c *Client) GetQuestions(ctx context.Context, paperID string) ([]model.Question, error) {
	var records []questionRecord
	if err := c.do(ctx, http.MethodGet, "/questions/"+paperID, nil, &records); err != nil {
		return nil, fmt.Errorf("get questions %s: %w", paperID, err)
	}

	questions := make([]model.Question, 0, len(records))
	for _, rec := range records {
		if err := validator.Struct(&rec); err != nil {
			return nil, &Error{Code: ErrBadPayload, Err: err}
		}
		questions = append(questions, rec.toQuestion())
	}
	return questions, nil
}

// GetResults fetches the completed attempt in results mode, keeping the
// raw selected/correct encodings for the reconciler.
func (c *Client) GetResults(ctx context.Context, paperID string) ([]ResultRecord, error) {
	var records []questionRecord
	if err := c.do(ctx, http.MethodGet, "/questions/"+paperID+"?isCompleted=1", nil, &records); err != nil {
		return nil, fmt.Errorf("get results %s: %w", paperID, err)
	}

	results := make([]ResultRecord, 0, len(records))
	for _, rec := range records {
		results = append(results, ResultRecord{
			Question:    rec.toQuestion(),
			Selected:    string(rec.Selected),
			Correct:     string(rec.Correct),
			Explanation: htmltext.Strip(rec.Explanation),
		})
	}
	return results, nil
}

// SaveAnswer posts the current answer value for one question. An absent
// answer posts an empty response string, which the backend treats as a
// clear.
func (c *Client) SaveAnswer(ctx context.Context, paperID string, q *model.Question, a model.Answer, present bool) error {
	payload := savePayload{Data: q.ExternalID, Response: EncodeAnswer(a, present)}
	if err := c.do(ctx, http.MethodPost, "/testpaper/questions/"+paperID, &payload, nil); err != nil {
		return fmt.Errorf("save answer %s: %w", q.ID, err)
	}
	return nil
}

// Submit finalizes the attempt. The backend requires a payload even when
// no question is focused, so a nil question sends an empty one.
func (c *Client) Submit(ctx context.Context, paperID string, q *model.Question, a model.Answer, present bool) error {
	payload := savePayload{}
	if q != nil {
		payload.Data = q.ExternalID
		payload.Response = EncodeAnswer(a, present)
	}
	if err := c.do(ctx, http.MethodPost, "/testpaper/questions/"+paperID+"?isSubmit=1", &payload, nil); err != nil {
		return fmt.Errorf("submit %s: %w", paperID, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Code: ErrBadPayload, Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return &Error{Code: ErrNetwork, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok := c.auth.Token(); ok {
		req.Header.Set("Authorization", token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("Request failed")
		return &Error{Code: ErrNetwork, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.log.Warn().Str("path", path).Msg("Authentication expired")
		c.auth.Invalidate()
		return &Error{Code: ErrAuthExpired, Status: resp.StatusCode}
	case resp.StatusCode >= 500:
		return &Error{Code: ErrNetwork, Status: resp.StatusCode}
	case resp.StatusCode >= 400:
		return &Error{Code: ErrRejected, Status: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Code: ErrBadPayload, Err: err}
	}
	return nil
}
