package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vncsmyrnk/fieldsurvey/internal/core/domain"
	"github.com/vncsmyrnk/fieldsurvey/internal/core/ports"
	"github.com/vncsmyrnk/fieldsurvey/internal/metrics"
)

const (
	PendingAnswersKey  = "offlineAnswers"
	RejectedAnswersKey = "rejectedAnswers"
	LastSyncKey        = "lastSyncTime"
)

var _ ports.AnswerQueue = (*AnswerQueue)(nil)

// AnswerQueue delivers answers to the durable store and buffers them on the
// device while it is offline. Appends and the post-sync removal share one lock so
// an answer queued during a sync is never dropped by that sync.
type AnswerQueue struct {
	store ports.AnswerStore
	conn  ports.Connectivity
	local ports.LocalStore
	log   *zap.Logger
	now   func() time.Time

	mu       sync.Mutex
	pending  []domain.Answer
	rejected []domain.Answer
	lastSync time.Time

	syncMu sync.Mutex
}

func NewAnswerQueue(store ports.AnswerStore, conn ports.Connectivity, local ports.LocalStore, log *zap.Logger) *AnswerQueue {
	if log == nil {
		log = zap.NewNop()
	}
	return &AnswerQueue{
		store: store,
		conn:  conn,
		local: local,
		log:   log,
		now:   time.Now,
	}
}

// Load replaces the in-memory queue with what was persisted on the device.
func (q *AnswerQueue) Load(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	raw, ok, err := q.local.Get(PendingAnswersKey)
	if err != nil {
		return fmt.Errorf("failed to read pending answers: %w", err)
	}
	var pending []domain.Answer
	if ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &pending); err != nil {
			return fmt.Errorf("failed to decode pending answers: %w", err)
		}
	}
	q.pending = pending

	raw, ok, err = q.local.Get(RejectedAnswersKey)
	if err != nil {
		return fmt.Errorf("failed to read rejected answers: %w", err)
	}
	var rejected []domain.Answer
	if ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &rejected); err != nil {
			return fmt.Errorf("failed to decode rejected answers: %w", err)
		}
	}
	q.rejected = rejected

	raw, ok, err = q.local.Get(LastSyncKey)
	if err != nil {
		return fmt.Errorf("failed to read last sync time: %w", err)
	}
	q.lastSync = time.Time{}
	if ok && raw != "" {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			q.lastSync = t
		}
	}

	metrics.PendingAnswers.Set(float64(len(q.pending)))
	q.log.Debug("pending answers loaded", zap.Int("count", len(q.pending)))
	return nil
}

// SubmitAnswer never fails the caller: when the answer cannot be delivered it is
// queued on the device and the result says so. An answer the store refuses as
// invalid is not queued, since resending it can never succeed.
func (q *AnswerQueue) SubmitAnswer(ctx context.Context, input ports.AnswerInput) domain.SubmitResult {
	answer := domain.Answer{
		ID:           uuid.New(),
		SurveyID:     input.SurveyID,
		QuestionID:   input.QuestionID,
		ResearcherID: input.ResearcherID,
		Answer:       input.Answer,
		CreatedAt:    q.now().UTC(),
	}

	if !q.conn.Online() {
		return q.enqueue(answer, nil)
	}

	if err := q.store.Insert(ctx, &answer); err != nil {
		if permanentRejection(err) {
			q.log.Warn("answer rejected by the store",
				zap.String("answer_id", answer.ID.String()),
				zap.Error(err),
			)
			metrics.AnswerSubmissions.WithLabelValues(string(domain.SubmitFailed)).Inc()
			return domain.SubmitResult{Status: domain.SubmitFailed, Answer: answer, Reason: err}
		}
		q.log.Warn("answer delivery failed, queueing locally",
			zap.String("answer_id", answer.ID.String()),
			zap.Error(err),
		)
		return q.enqueue(answer, domain.NewPersistenceError("insert answer", err))
	}

	metrics.AnswerSubmissions.WithLabelValues(string(domain.SubmitDelivered)).Inc()
	return domain.SubmitResult{Status: domain.SubmitDelivered, Answer: answer}
}

func (q *AnswerQueue) enqueue(answer domain.Answer, reason error) domain.SubmitResult {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending = append(q.pending, answer)
	metrics.PendingAnswers.Set(float64(len(q.pending)))

	if err := q.persistLocked(); err != nil {
		q.log.Error("failed to persist pending answers",
			zap.String("answer_id", answer.ID.String()),
			zap.Error(err),
		)
		metrics.AnswerSubmissions.WithLabelValues(string(domain.SubmitFailed)).Inc()
		return domain.SubmitResult{
			Status: domain.SubmitFailed,
			Answer: answer,
			Reason: fmt.Errorf("failed to persist pending answers: %w", err),
		}
	}

	metrics.AnswerSubmissions.WithLabelValues(string(domain.SubmitQueuedOffline)).Inc()
	return domain.SubmitResult{Status: domain.SubmitQueuedOffline, Answer: answer, Reason: reason}
}

// SyncPendingAnswers sends every queued answer in one batch. The queue is only
// drained when the batch succeeds; a failed or offline attempt changes nothing.
// When the store refuses the batch as invalid, the answers are sent one by one
// and those refused individually move to the rejected list.
func (q *AnswerQueue) SyncPendingAnswers(ctx context.Context) (domain.SyncResult, error) {
	q.syncMu.Lock()
	defer q.syncMu.Unlock()

	batch := q.Pending()

	if !q.conn.Online() {
		metrics.AnswerSyncs.WithLabelValues("no_connection").Inc()
		return domain.SyncResult{Remaining: len(batch)}, domain.ErrNoConnection
	}
	if len(batch) == 0 {
		return domain.SyncResult{}, nil
	}

	err := q.store.InsertBatch(ctx, batch)
	if err == nil {
		return q.settle(batch, nil), nil
	}
	if !permanentRejection(err) {
		metrics.AnswerSyncs.WithLabelValues("failed").Inc()
		q.log.Warn("pending answer sync failed", zap.Int("count", len(batch)), zap.Error(err))
		return domain.SyncResult{Remaining: len(batch)}, domain.NewPersistenceError("insert answer batch", err)
	}

	q.log.Warn("answer batch refused, delivering one by one", zap.Int("count", len(batch)), zap.Error(err))
	delivered, rejected, err := q.deliverEach(ctx, batch)
	if len(delivered) == 0 && len(rejected) == 0 {
		metrics.AnswerSyncs.WithLabelValues("failed").Inc()
		return domain.SyncResult{Remaining: len(batch)}, domain.NewPersistenceError("insert answer", err)
	}

	res := q.settle(delivered, rejected)
	if err != nil {
		return res, domain.NewPersistenceError("insert answer", err)
	}
	return res, nil
}

// deliverEach stops at the first failure that is not a permanent rejection.
func (q *AnswerQueue) deliverEach(ctx context.Context, batch []domain.Answer) (delivered, rejected []domain.Answer, err error) {
	for i := range batch {
		a := batch[i]
		if err := q.store.Insert(ctx, &a); err != nil {
			if permanentRejection(err) {
				q.log.Warn("answer rejected by the store",
					zap.String("answer_id", a.ID.String()),
					zap.Error(err),
				)
				rejected = append(rejected, a)
				continue
			}
			return delivered, rejected, err
		}
		delivered = append(delivered, a)
	}
	return delivered, rejected, nil
}

// settle removes delivered and rejected answers from the queue and records the sync.
func (q *AnswerQueue) settle(delivered, rejected []domain.Answer) domain.SyncResult {
	done := make(map[uuid.UUID]struct{}, len(delivered)+len(rejected))
	for _, a := range delivered {
		done[a.ID] = struct{}{}
	}
	for _, a := range rejected {
		done[a.ID] = struct{}{}
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	remaining := q.pending[:0:0]
	for _, a := range q.pending {
		if _, ok := done[a.ID]; !ok {
			remaining = append(remaining, a)
		}
	}
	q.pending = remaining
	q.rejected = append(q.rejected, rejected...)
	q.lastSync = q.now().UTC()
	metrics.PendingAnswers.Set(float64(len(q.pending)))

	// Delivered answers are already durable; a retry after a failed write here is
	// absorbed by the store ignoring known answer IDs.
	if err := q.persistLocked(); err != nil {
		q.log.Error("failed to persist pending answers after sync", zap.Error(err))
	}
	if len(rejected) > 0 {
		if err := q.persistRejectedLocked(); err != nil {
			q.log.Error("failed to persist rejected answers", zap.Error(err))
		}
	}
	if err := q.local.Set(LastSyncKey, q.lastSync.Format(time.RFC3339Nano)); err != nil {
		q.log.Error("failed to persist last sync time", zap.Error(err))
	}

	result := "ok"
	if len(rejected) > 0 {
		result = "partial"
	}
	metrics.AnswerSyncs.WithLabelValues(result).Inc()
	metrics.AnswersRejected.Add(float64(len(rejected)))
	q.log.Info("pending answers synced",
		zap.Int("synced", len(delivered)),
		zap.Int("rejected", len(rejected)),
		zap.Int("remaining", len(q.pending)),
	)

	return domain.SyncResult{
		Synced:    len(delivered),
		Rejected:  len(rejected),
		Remaining: len(q.pending),
		SyncedAt:  q.lastSync,
	}
}

// WatchAndSync syncs on every offline to online transition until ctx is done.
func (q *AnswerQueue) WatchAndSync(ctx context.Context) {
	changes, unsubscribe := q.conn.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case online, ok := <-changes:
			if !ok {
				return
			}
			if !online {
				continue
			}
			if _, err := q.SyncPendingAnswers(ctx); err != nil {
				q.log.Warn("automatic sync failed", zap.Error(err))
			}
		}
	}
}

func (q *AnswerQueue) Pending() []domain.Answer {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]domain.Answer, len(q.pending))
	copy(out, q.pending)
	return out
}

// Rejected lists answers the store refused as invalid during a sync. They are
// kept on the device for the researcher to review and are never resent.
func (q *AnswerQueue) Rejected() []domain.Answer {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]domain.Answer, len(q.rejected))
	copy(out, q.rejected)
	return out
}

func (q *AnswerQueue) LastSync() (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lastSync, !q.lastSync.IsZero()
}

func (q *AnswerQueue) persistLocked() error {
	if len(q.pending) == 0 {
		return q.local.Remove(PendingAnswersKey)
	}
	raw, err := json.Marshal(q.pending)
	if err != nil {
		return err
	}
	return q.local.Set(PendingAnswersKey, string(raw))
}

func (q *AnswerQueue) persistRejectedLocked() error {
	raw, err := json.Marshal(q.rejected)
	if err != nil {
		return err
	}
	return q.local.Set(RejectedAnswersKey, string(raw))
}

// permanentRejection reports whether resending the same answer cannot succeed.
func permanentRejection(err error) bool {
	return errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrSurveyNotFound)
}
