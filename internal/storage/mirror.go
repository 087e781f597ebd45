package storage

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gradeplus/gradeplus-client/internal/config"
	"github.com/gradeplus/gradeplus-client/internal/model"
)

// Snapshot is the session state the mirror persists: answers, statuses and
// the question snapshot, namespaced by paper id.
type Snapshot struct {
	PaperID   string
	Answers   map[string]model.Answer
	Statuses  map[string]model.QuestionStatus
	Questions []model.Question
}

// Mirror is the debounced write-through of session state to a Store.
// Rapid navigation produces bursts of snapshots; only the latest within
// the debounce window is written. Every failure is logged and swallowed —
// a broken store degrades the exam to memory-only, it never blocks it.
type Mirror struct {
	store    Store
	debounce time.Duration
	log      zerolog.Logger

	mu      sync.Mutex
	pending *Snapshot
	timer   *time.Timer
	closed  bool
}

// NewMirror wraps a Store with debounced snapshot writes.
func NewMirror(store Store, debounce time.Duration, log zerolog.Logger) *Mirror {
	return &Mirror{
		store:    store,
		debounce: debounce,
		log:      log.With().Str("component", "mirror").Logger(),
	}
}

// Queue schedules a snapshot write after the debounce window. A snapshot
// queued before the window fires supersedes the previous one.
func (m *Mirror) Queue(snap Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}

	m.pending = &snap
	if m.timer != nil {
		m.timer.Reset(m.debounce)
		return
	}
	m.timer = time.AfterFunc(m.debounce, m.flushPending)
}

// Flush writes any pending snapshot immediately. Used on submit so the
// final state is on disk before the network call.
func (m *Mirror) Flush() {
	m.flushPending()
}

// Close cancels the pending debounce timer without writing. Called on
// teardown when the exam view goes away.
func (m *Mirror) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.pending = nil
}

func (m *Mirror) flushPending() {
	m.mu.Lock()
	snap := m.pending
	m.pending = nil
	m.mu.Unlock()

	if snap == nil {
		return
	}
	m.Write(*snap)
}

// Write persists a snapshot right away, bypassing the debounce.
func (m *Mirror) Write(snap Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	m.set(ctx, config.StorageKey.AnswersKey(snap.PaperID), snap.Answers)
	m.set(ctx, config.StorageKey.StatusesKey(snap.PaperID), snap.Statuses)
	m.set(ctx, config.StorageKey.QuestionsKey(snap.PaperID), snap.Questions)

	if err := m.store.Set(ctx, config.StorageKey.ActivePaperKey(), snap.PaperID); err != nil {
		m.log.Warn().Err(err).Msg("Persist active paper id failed")
	}
}

func (m *Mirror) set(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		m.log.Warn().Err(err).Str("key", key).Msg("Marshal snapshot blob failed")
		return
	}
	if err := m.store.Set(ctx, key, string(data)); err != nil {
		m.log.Warn().Err(err).Str("key", key).Msg("Persist snapshot blob failed")
	}
}

// RestoreAnswers returns the mirrored answers for the paper, but only if
// the paper is the one recorded as active — a stale blob from a different
// exam is ignored. Statuses and questions are always re-derived from the
// fresh fetch instead.
func (m *Mirror) RestoreAnswers(ctx context.Context, paperID string) (map[string]model.Answer, bool) {
	active, ok, err := m.store.Get(ctx, config.StorageKey.ActivePaperKey())
	if err != nil {
		m.log.Warn().Err(err).Msg("Read active paper id failed")
		return nil, false
	}
	if !ok || active != paperID {
		return nil, false
	}

	raw, ok, err := m.store.Get(ctx, config.StorageKey.AnswersKey(paperID))
	if err != nil || !ok {
		if err != nil {
			m.log.Warn().Err(err).Msg("Read mirrored answers failed")
		}
		return nil, false
	}

	var answers map[string]model.Answer
	if err := json.Unmarshal([]byte(raw), &answers); err != nil {
		m.log.Warn().Err(err).Msg("Corrupt mirrored answers blob, ignoring")
		return nil, false
	}
	return answers, true
}

// RestoreSnapshot returns the full mirrored snapshot for offline results
// reconciliation when the results fetch fails.
func (m *Mirror) RestoreSnapshot(ctx context.Context, paperID string) (*Snapshot, bool) {
	answers, ok := m.RestoreAnswers(ctx, paperID)
	if !ok {
		return nil, false
	}

	snap := &Snapshot{PaperID: paperID, Answers: answers}

	if raw, ok, err := m.store.Get(ctx, config.StorageKey.StatusesKey(paperID)); err == nil && ok {
		_ = json.Unmarshal([]byte(raw), &snap.Statuses)
	}
	if raw, ok, err := m.store.Get(ctx, config.StorageKey.QuestionsKey(paperID)); err == nil && ok {
		_ = json.Unmarshal([]byte(raw), &snap.Questions)
	}
	return snap, true
}

// ClearActivePaper drops the active paper marker once the attempt is fully
// finalized, so a finished exam no longer offers itself for resume. The
// per-paper blobs stay behind for the offline results fallback.
func (m *Mirror) ClearActivePaper(ctx context.Context, paperID string) {
	active, ok, err := m.store.Get(ctx, config.StorageKey.ActivePaperKey())
	if err != nil || !ok || active != paperID {
		return
	}
	if err := m.store.Delete(ctx, config.StorageKey.ActivePaperKey()); err != nil {
		m.log.Warn().Err(err).Msg("Clear active paper id failed")
	}
}

// MarkResultsViewed sets the per-paper "has viewed detailed results" flag.
func (m *Mirror) MarkResultsViewed(ctx context.Context, paperID string) {
	if err := m.store.Set(ctx, config.StorageKey.ViewedResultsKey(paperID), "1"); err != nil {
		m.log.Warn().Err(err).Msg("Persist viewed-results flag failed")
	}
}

// ResultsViewed reports whether detailed results were already shown for
// the paper.
func (m *Mirror) ResultsViewed(ctx context.Context, paperID string) bool {
	v, ok, err := m.store.Get(ctx, config.StorageKey.ViewedResultsKey(paperID))
	if err != nil {
		m.log.Warn().Err(err).Msg("Read viewed-results flag failed")
		return false
	}
	return ok && v == "1"
}
