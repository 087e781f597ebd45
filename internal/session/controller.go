// Package session orchestrates one exam attempt: the select → save →
// advance/mark/clear → submit flow, the countdown, the local mirror and
// the remote sync, with the status state machine kept consistent
// throughout.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gradeplus/gradeplus-client/internal/answers"
	"github.com/gradeplus/gradeplus-client/internal/api"
	"github.com/gradeplus/gradeplus-client/internal/model"
	"github.com/gradeplus/gradeplus-client/internal/results"
	"github.com/gradeplus/gradeplus-client/internal/section"
	"github.com/gradeplus/gradeplus-client/internal/storage"
	"github.com/gradeplus/gradeplus-client/internal/timer"
)

// Phase is the controller's lifecycle state.
type Phase string

const (
	PhaseLoading    Phase = "loading"
	PhaseReady      Phase = "ready"
	PhaseSubmitting Phase = "submitting"
	PhaseCompleted  Phase = "completed"
	// PhaseError is reached on a failed initial fetch. Not terminal: Start
	// may be retried.
	PhaseError Phase = "error"
)

var (
	// ErrBusy is returned when a navigation is attempted while a save for
	// another navigation is still in flight. The attempt is dropped, not
	// queued.
	ErrBusy = errors.New("a save is already in flight")
	// ErrNotReady is returned for exam operations outside the Ready phase.
	ErrNotReady = errors.New("session is not ready")
)

// Backend is the remote surface the controller depends on. *api.Client
// implements it; tests substitute fakes.
type Backend interface {
	GetTestPaper(ctx context.Context, paperID string) (*model.TestPaper, error)
	GetQuestions(ctx context.Context, paperID string) ([]model.Question, error)
	GetResults(ctx context.Context, paperID string) ([]api.ResultRecord, error)
	SaveAnswer(ctx context.Context, paperID string, q *model.Question, a model.Answer, present bool) error
	Submit(ctx context.Context, paperID string, q *model.Question, a model.Answer, present bool) error
}

// Controller drives one exam attempt. All exported methods are safe for
// concurrent use; the timer's expiry callback and user actions share the
// same guards.
type Controller struct {
	paperID   string
	attemptID uuid.UUID
	backend   Backend
	mirror    *storage.Mirror
	log       zerolog.Logger

	mu         sync.Mutex
	phase      Phase
	paper      *model.TestPaper
	questions  []model.Question
	sections   []model.Section
	store      *answers.Store
	countdown  *timer.Countdown
	current    int
	saving     bool
	submitting bool
	completed  bool
}

// New creates a controller for one paper. Dependencies are injected so the
// core is testable without a UI or a live backend.
func New(paperID string, backend Backend, mirror *storage.Mirror, log zerolog.Logger) *Controller {
	return &Controller{
		paperID:   paperID,
		attemptID: uuid.New(),
		backend:   backend,
		mirror:    mirror,
		phase:     PhaseLoading,
		log: log.With().
			Str("component", "session").
			Str("paper_id", paperID).
			Logger(),
	}
}

// Start fetches the paper metadata and question list, seeds the answer
// store and the countdown, and restores any mirrored answers for this
// paper. A fetch failure leaves the controller in PhaseError; Start may be
// called again to retry.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != PhaseLoading && c.phase != PhaseError {
		c.mu.Unlock()
		return fmt.Errorf("start: session already started")
	}
	c.phase = PhaseLoading
	c.mu.Unlock()

	paper, err := c.backend.GetTestPaper(ctx, c.paperID)
	if err != nil {
		c.fail()
		return fmt.Errorf("fetch paper: %w", err)
	}

	questions, err := c.backend.GetQuestions(ctx, c.paperID)
	if err != nil {
		c.fail()
		return fmt.Errorf("fetch questions: %w", err)
	}
	if len(questions) == 0 {
		c.fail()
		return fmt.Errorf("fetch questions: paper has no questions")
	}

	sections := section.Parse(paper.Sections, len(questions))
	for i := range questions {
		if sec, ok := section.FindByNumber(sections, i+1); ok {
			questions[i].Section = sec.Name
		}
	}

	store := answers.NewStore(questions)
	if saved, ok := c.mirror.RestoreAnswers(ctx, c.paperID); ok {
		store.Restore(saved)
		c.log.Info().Int("answers", len(saved)).Msg("Resumed mirrored session")
	}

	countdown := timer.New(time.Duration(paper.DurationMinutes)*time.Minute, c.log)
	countdown.OnExpire(c.autoSubmit)

	c.mu.Lock()
	c.paper = paper
	c.questions = questions
	c.sections = sections
	c.store = store
	c.countdown = countdown
	c.current = 0
	c.phase = PhaseReady
	c.mu.Unlock()

	c.log.Info().
		Str("attempt_id", c.attemptID.String()).
		Int("questions", len(questions)).
		Int("duration_min", paper.DurationMinutes).
		Msg("Session ready")

	c.queueMirror()
	return nil
}

func (c *Controller) fail() {
	c.mu.Lock()
	c.phase = PhaseError
	c.mu.Unlock()
}

// Phase returns the controller's lifecycle state.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Paper returns the fetched paper metadata, nil before Start succeeds.
func (c *Controller) Paper() *model.TestPaper {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paper
}

// Questions returns the ingested question list.
func (c *Controller) Questions() []model.Question {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.questions
}

// Sections returns the parsed section map.
func (c *Controller) Sections() []model.Section {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sections
}

// Countdown exposes the session timer for display and pause/resume.
func (c *Controller) Countdown() *timer.Countdown {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.countdown
}

// Current returns the current question index and the question itself.
func (c *Controller) Current() (int, *model.Question) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil || c.current >= len(c.questions) {
		return 0, nil
	}
	q := c.questions[c.current]
	return c.current, &q
}

// CurrentSection returns the section name of the question on screen.
func (c *Controller) CurrentSection() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sec, ok := section.FindByNumber(c.sections, c.current+1); ok {
		return sec.Name
	}
	return ""
}

// Status returns a question's status tag.
func (c *Controller) Status(questionID string) model.QuestionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		return model.StatusNotVisited
	}
	return c.store.Status(questionID)
}

// StatusCounts tallies questions per status for the palette.
func (c *Controller) StatusCounts() map[model.QuestionStatus]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		return nil
	}
	return c.store.Counts()
}

// Answer returns the current question's answer, if any.
func (c *Controller) Answer(questionID string) (model.Answer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		return model.Answer{}, false
	}
	return c.store.Get(questionID)
}

// Completed reports whether the attempt has been finalized.
func (c *Controller) Completed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed
}

// SelectAnswer records an answer for the question on screen. Local only —
// the network save happens on navigate/mark/clear/submit, not on every
// selection. Never fails.
func (c *Controller) SelectAnswer(value model.Answer) {
	c.mu.Lock()
	if c.phase != PhaseReady {
		c.mu.Unlock()
		return
	}
	q := c.questions[c.current]
	c.store.Set(q.ID, value)
	c.mu.Unlock()

	c.queueMirror()
}

// ToggleOption flips one option of a multiple-select question on screen.
func (c *Controller) ToggleOption(optionIndex int) {
	c.mu.Lock()
	if c.phase != PhaseReady {
		c.mu.Unlock()
		return
	}
	q := c.questions[c.current]
	c.store.Toggle(q.ID, optionIndex)
	c.mu.Unlock()

	c.queueMirror()
}

// NavigateTo saves the outgoing question's answer, and only on success
// applies the status transitions and moves the index. Out-of-bounds or
// same-index targets are no-ops. A second navigation while a save is in
// flight is dropped with ErrBusy. On save failure the index does not
// change and the local answer is intact.
func (c *Controller) NavigateTo(ctx context.Context, target int) error {
	c.mu.Lock()
	if c.phase != PhaseReady {
		c.mu.Unlock()
		return ErrNotReady
	}
	if target == c.current || target < 0 || target >= len(c.questions) {
		c.mu.Unlock()
		return nil
	}
	if c.saving {
		c.mu.Unlock()
		return ErrBusy
	}
	c.saving = true
	outgoing := c.questions[c.current]
	value, present := c.store.Get(outgoing.ID)
	c.mu.Unlock()

	err := c.backend.SaveAnswer(ctx, c.paperID, &outgoing, value, present)

	c.mu.Lock()
	c.saving = false
	if err != nil {
		c.mu.Unlock()
		c.log.Warn().Err(err).Str("question_id", outgoing.ID).Msg("Save failed, navigation aborted")
		return fmt.Errorf("save answer: %w", err)
	}
	if c.phase != PhaseReady {
		// Submit won the race while the save was in flight.
		c.mu.Unlock()
		return nil
	}
	c.store.Apply(outgoing.ID, answers.ActionNavigateAway)
	c.current = target
	incoming := c.questions[target]
	c.store.Apply(incoming.ID, answers.ActionNavigateInto)
	c.mu.Unlock()

	c.queueMirror()
	return nil
}

// SaveAndNext advances to the next question through the save gate. On the
// last question it saves and applies the outgoing transition without
// moving.
func (c *Controller) SaveAndNext(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != PhaseReady {
		c.mu.Unlock()
		return ErrNotReady
	}
	last := c.current == len(c.questions)-1
	target := c.current + 1
	c.mu.Unlock()

	if !last {
		return c.NavigateTo(ctx, target)
	}

	c.mu.Lock()
	if c.saving {
		c.mu.Unlock()
		return ErrBusy
	}
	c.saving = true
	q := c.questions[c.current]
	value, present := c.store.Get(q.ID)
	c.mu.Unlock()

	err := c.backend.SaveAnswer(ctx, c.paperID, &q, value, present)

	c.mu.Lock()
	c.saving = false
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("save answer: %w", err)
	}
	if c.phase == PhaseReady {
		c.store.Apply(q.ID, answers.ActionNavigateAway)
	}
	c.mu.Unlock()

	c.queueMirror()
	return nil
}

// ClearResponse removes the answer locally and applies the clear
// transition, then fires a best-effort network clear. A network failure is
// reported but never rolls back the local clear.
func (c *Controller) ClearResponse(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != PhaseReady {
		c.mu.Unlock()
		return ErrNotReady
	}
	q := c.questions[c.current]
	c.store.Clear(q.ID)
	c.mu.Unlock()

	c.queueMirror()

	if err := c.backend.SaveAnswer(ctx, c.paperID, &q, model.Answer{}, false); err != nil {
		c.log.Warn().Err(err).Str("question_id", q.ID).Msg("Network clear failed, local clear kept")
		return fmt.Errorf("clear response: %w", err)
	}
	return nil
}

// MarkForReview flags the question on screen for review — the answer, if
// any, is untouched — and saves the current value to the backend. The
// status half never fails; a save failure is reported to the caller.
func (c *Controller) MarkForReview(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != PhaseReady {
		c.mu.Unlock()
		return ErrNotReady
	}
	q := c.questions[c.current]
	c.store.Apply(q.ID, answers.ActionMark)
	value, present := c.store.Get(q.ID)
	c.mu.Unlock()

	c.queueMirror()

	if err := c.backend.SaveAnswer(ctx, c.paperID, &q, value, present); err != nil {
		c.log.Warn().Err(err).Str("question_id", q.ID).Msg("Save on mark failed")
		return fmt.Errorf("mark for review: %w", err)
	}
	return nil
}

// MarkAndNext marks the question and advances locally. The mark itself
// already persisted the answer, so the advance is not save-gated.
func (c *Controller) MarkAndNext(ctx context.Context) error {
	err := c.MarkForReview(ctx)

	c.mu.Lock()
	if c.phase == PhaseReady && c.current < len(c.questions)-1 {
		c.current++
		incoming := c.questions[c.current]
		c.store.Apply(incoming.ID, answers.ActionNavigateInto)
	}
	c.mu.Unlock()

	c.queueMirror()
	return err
}

// ConfirmSubmit finalizes the attempt: snapshots the session to the local
// mirror, sends the submit call with the on-screen question's answer (or
// an empty payload), and transitions to Completed. Safe against double
// invocation — the second caller, user or timer, is a no-op.
func (c *Controller) ConfirmSubmit(ctx context.Context) error {
	c.mu.Lock()
	if c.completed || c.submitting {
		c.mu.Unlock()
		return nil
	}
	if c.phase != PhaseReady {
		c.mu.Unlock()
		return ErrNotReady
	}
	c.submitting = true
	c.phase = PhaseSubmitting

	var focused *model.Question
	var value model.Answer
	var present bool
	if c.current < len(c.questions) {
		q := c.questions[c.current]
		focused = &q
		value, present = c.store.Get(q.ID)
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	// Final state on disk before the network call.
	c.mirror.Write(snap)

	err := c.backend.Submit(ctx, c.paperID, focused, value, present)

	c.mu.Lock()
	c.submitting = false
	if err != nil {
		c.phase = PhaseReady
		c.mu.Unlock()
		c.log.Warn().Err(err).Msg("Submit failed")
		return fmt.Errorf("submit: %w", err)
	}
	c.completed = true
	c.phase = PhaseCompleted
	countdown := c.countdown
	c.mu.Unlock()

	if countdown != nil {
		countdown.Stop()
	}
	c.log.Info().Str("attempt_id", c.attemptID.String()).Msg("Attempt submitted")
	return nil
}

// autoSubmit is the countdown's zero-crossing callback. Identical to a
// user submit; the shared guard makes the loser of the race a no-op.
func (c *Controller) autoSubmit() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := c.ConfirmSubmit(ctx); err != nil {
		c.log.Error().Err(err).Msg("Auto-submit failed")
	}
}

// Results reconciles the completed attempt. The results fetch falls back
// to the local mirror snapshot, so a dead network after submit still
// yields a (degraded) summary. The bool reports whether the offline
// fallback was used.
func (c *Controller) Results(ctx context.Context) (results.Summary, bool, error) {
	c.mu.Lock()
	completed := c.completed
	var local map[string]model.Answer
	if c.store != nil {
		local = c.store.Answers()
	}
	c.mu.Unlock()

	if !completed {
		return results.Summary{}, false, fmt.Errorf("results: attempt not submitted")
	}

	records, err := c.backend.GetResults(ctx, c.paperID)
	if err == nil {
		c.mirror.MarkResultsViewed(ctx, c.paperID)
		c.mirror.ClearActivePaper(ctx, c.paperID)
		return results.Reconcile(results.FromRecords(records, local)), false, nil
	}
	c.log.Warn().Err(err).Msg("Results fetch failed, trying local mirror")

	snap, ok := c.mirror.RestoreSnapshot(ctx, c.paperID)
	if !ok {
		return results.Summary{}, false, fmt.Errorf("fetch results: %w", err)
	}
	return results.Reconcile(results.FromSnapshot(snap.Questions, snap.Answers)), true, nil
}

// Close tears the session down: the pending debounced mirror write is
// cancelled. An in-flight network save is left to finish on its own.
func (c *Controller) Close() {
	c.mirror.Close()
}

func (c *Controller) snapshotLocked() storage.Snapshot {
	return storage.Snapshot{
		PaperID:   c.paperID,
		Answers:   c.store.Answers(),
		Statuses:  c.store.Statuses(),
		Questions: c.questions,
	}
}

func (c *Controller) queueMirror() {
	c.mu.Lock()
	if c.store == nil {
		c.mu.Unlock()
		return
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.mirror.Queue(snap)
}
