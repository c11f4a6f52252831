package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/fieldsurvey/internal/core/domain"
	"github.com/vncsmyrnk/fieldsurvey/internal/core/ports"
)

func newTestQueue(online bool) (*AnswerQueue, *fakeAnswerStore, *fakeConnectivity, *memLocalStore) {
	store := &fakeAnswerStore{}
	conn := &fakeConnectivity{online: online}
	local := newMemLocalStore()
	return NewAnswerQueue(store, conn, local, nil), store, conn, local
}

func sampleInput() ports.AnswerInput {
	return ports.AnswerInput{
		SurveyID:     uuid.New(),
		QuestionID:   uuid.New(),
		ResearcherID: uuid.New(),
		Answer:       "Yes",
	}
}

func TestAnswerQueue_SubmitOnlineDelivers(t *testing.T) {
	q, store, _, local := newTestQueue(true)

	res := q.SubmitAnswer(context.Background(), sampleInput())

	assert.Equal(t, domain.SubmitDelivered, res.Status)
	assert.NoError(t, res.Reason)
	assert.NotEqual(t, uuid.Nil, res.Answer.ID)
	assert.False(t, res.Answer.CreatedAt.IsZero())
	assert.Len(t, store.stored(), 1)
	assert.Empty(t, q.Pending())
	_, ok, _ := local.Get(PendingAnswersKey)
	assert.False(t, ok)
}

func TestAnswerQueue_SubmitOfflineQueuesAndPersists(t *testing.T) {
	q, store, _, local := newTestQueue(false)

	res := q.SubmitAnswer(context.Background(), sampleInput())

	assert.Equal(t, domain.SubmitQueuedOffline, res.Status)
	assert.NoError(t, res.Reason)
	assert.Empty(t, store.stored())

	pending := q.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, res.Answer.ID, pending[0].ID)

	raw, ok, err := local.Get(PendingAnswersKey)
	require.NoError(t, err)
	require.True(t, ok)
	var persisted []domain.Answer
	require.NoError(t, json.Unmarshal([]byte(raw), &persisted))
	require.Len(t, persisted, 1)
	assert.Equal(t, res.Answer.ID, persisted[0].ID)
}

func TestAnswerQueue_SubmitWriteFailureQueuesWithReason(t *testing.T) {
	q, store, _, _ := newTestQueue(true)
	store.insertErr = errors.New("connection reset")

	res := q.SubmitAnswer(context.Background(), sampleInput())

	assert.Equal(t, domain.SubmitQueuedOffline, res.Status)
	require.Error(t, res.Reason)
	assert.ErrorIs(t, res.Reason, domain.ErrPersistence)
	assert.Len(t, q.Pending(), 1)
}

func TestAnswerQueue_SubmitLocalFailureReportsFailed(t *testing.T) {
	q, _, _, local := newTestQueue(false)
	local.setErr = errors.New("disk full")

	res := q.SubmitAnswer(context.Background(), sampleInput())

	assert.Equal(t, domain.SubmitFailed, res.Status)
	assert.Error(t, res.Reason)
	assert.Len(t, q.Pending(), 1, "answer stays in memory")
}

func TestAnswerQueue_SyncOffline(t *testing.T) {
	q, store, _, local := newTestQueue(false)
	q.SubmitAnswer(context.Background(), sampleInput())
	before, _, _ := local.Get(PendingAnswersKey)

	res, err := q.SyncPendingAnswers(context.Background())

	assert.ErrorIs(t, err, domain.ErrNoConnection)
	assert.Equal(t, 1, res.Remaining)
	assert.Len(t, q.Pending(), 1)
	assert.Zero(t, store.batches)
	after, _, _ := local.Get(PendingAnswersKey)
	assert.Equal(t, before, after)
	_, synced := q.LastSync()
	assert.False(t, synced)
}

func TestAnswerQueue_SyncEmptyIsNoop(t *testing.T) {
	q, store, _, _ := newTestQueue(true)

	res, err := q.SyncPendingAnswers(context.Background())

	require.NoError(t, err)
	assert.Zero(t, res.Synced)
	assert.Zero(t, store.batches)
}

func TestAnswerQueue_OfflineRoundTrip(t *testing.T) {
	q, store, conn, local := newTestQueue(false)
	ctx := context.Background()

	first := q.SubmitAnswer(ctx, sampleInput())
	second := q.SubmitAnswer(ctx, sampleInput())
	require.Len(t, q.Pending(), 2)

	conn.online = true
	res, err := q.SyncPendingAnswers(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Synced)
	assert.Zero(t, res.Remaining)
	assert.Empty(t, q.Pending())

	stored := store.stored()
	require.Len(t, stored, 2)
	assert.Equal(t, first.Answer.ID, stored[0].ID)
	assert.Equal(t, second.Answer.ID, stored[1].ID)

	_, ok, _ := local.Get(PendingAnswersKey)
	assert.False(t, ok)
	last, ok := q.LastSync()
	assert.True(t, ok)
	assert.Equal(t, res.SyncedAt, last)
	raw, ok, _ := local.Get(LastSyncKey)
	require.True(t, ok)
	assert.Equal(t, last.Format(time.RFC3339Nano), raw)

	again, err := q.SyncPendingAnswers(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Synced)
	assert.Len(t, store.stored(), 2)
}

func TestAnswerQueue_BatchFailureLeavesQueue(t *testing.T) {
	q, store, conn, _ := newTestQueue(false)
	ctx := context.Background()
	q.SubmitAnswer(ctx, sampleInput())
	q.SubmitAnswer(ctx, sampleInput())
	before := q.Pending()

	conn.online = true
	store.batchErr = errors.New("constraint violation")
	_, err := q.SyncPendingAnswers(ctx)

	var perr *domain.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, before, q.Pending())
	assert.Empty(t, store.stored())

	store.batchErr = nil
	res, err := q.SyncPendingAnswers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Synced)
	assert.Len(t, store.stored(), 2)
}

func TestAnswerQueue_AnswerQueuedDuringSyncSurvives(t *testing.T) {
	q, store, conn, _ := newTestQueue(false)
	ctx := context.Background()
	q.SubmitAnswer(ctx, sampleInput())

	conn.online = true
	var late domain.SubmitResult
	store.onBatch = func() {
		store.onBatch = nil
		conn.online = false
		late = q.SubmitAnswer(ctx, sampleInput())
		conn.online = true
	}

	res, err := q.SyncPendingAnswers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Synced)
	assert.Equal(t, 1, res.Remaining)

	pending := q.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, late.Answer.ID, pending[0].ID)
}

func TestAnswerQueue_LoadRestoresQueue(t *testing.T) {
	q, store, conn, local := newTestQueue(false)
	ctx := context.Background()
	queued := q.SubmitAnswer(ctx, sampleInput())

	restarted := NewAnswerQueue(store, conn, local, nil)
	require.NoError(t, restarted.Load(ctx))

	pending := restarted.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, queued.Answer.ID, pending[0].ID)
	assert.Equal(t, queued.Answer.Answer, pending[0].Answer)
	assert.True(t, queued.Answer.CreatedAt.Equal(pending[0].CreatedAt))
}

func TestAnswerQueue_LoadRejectsCorruptState(t *testing.T) {
	q, _, _, local := newTestQueue(false)
	require.NoError(t, local.Set(PendingAnswersKey, "{not json"))

	assert.Error(t, q.Load(context.Background()))
}

func TestAnswerQueue_WatchAndSyncOnReconnect(t *testing.T) {
	q, store, conn, _ := newTestQueue(false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q.SubmitAnswer(ctx, sampleInput())

	done := make(chan struct{})
	go func() {
		q.WatchAndSync(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		conn.mu.Lock()
		defer conn.mu.Unlock()
		return len(conn.subs) == 1
	}, time.Second, 5*time.Millisecond)

	conn.set(true)

	assert.Eventually(t, func() bool {
		return len(store.stored()) == 1 && len(q.Pending()) == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

// serviceStore delivers queued answers through the server-side answer service,
// the way the API client does over /api/answers/batch.
type serviceStore struct {
	svc ports.AnswerService
}

func (s serviceStore) Insert(ctx context.Context, answer *domain.Answer) error {
	return s.svc.SubmitBatch(ctx, []domain.Answer{*answer})
}

func (s serviceStore) InsertBatch(ctx context.Context, answers []domain.Answer) error {
	return s.svc.SubmitBatch(ctx, append([]domain.Answer(nil), answers...))
}

func newValidatingQueue(online bool) (*AnswerQueue, *domain.Survey, *fakeAnswerStore, *fakeConnectivity, *memLocalStore) {
	survey := surveyWithQuestions()
	durable := &fakeAnswerStore{}
	conn := &fakeConnectivity{online: online}
	local := newMemLocalStore()
	store := serviceStore{svc: NewAnswerService(newFakeSurveyRepo(survey), durable)}
	return NewAnswerQueue(store, conn, local, nil), survey, durable, conn, local
}

func choiceInput(survey *domain.Survey, researcher uuid.UUID, value string) ports.AnswerInput {
	return ports.AnswerInput{
		SurveyID:     survey.ID,
		QuestionID:   survey.Questions[0].ID,
		ResearcherID: researcher,
		Answer:       value,
	}
}

func TestAnswerQueue_SubmitInvalidOnlineFailsWithoutQueueing(t *testing.T) {
	q, survey, durable, _, _ := newValidatingQueue(true)

	res := q.SubmitAnswer(context.Background(), choiceInput(survey, uuid.New(), " "))

	assert.Equal(t, domain.SubmitFailed, res.Status)
	var vErr *domain.ValidationError
	require.ErrorAs(t, res.Reason, &vErr)
	assert.Equal(t, "answer", vErr.Field)
	assert.NotErrorIs(t, res.Reason, domain.ErrPersistence)
	assert.Empty(t, q.Pending())
	assert.Empty(t, durable.stored())
}

func TestAnswerQueue_InvalidAnswerDoesNotBlockTheQueue(t *testing.T) {
	q, survey, durable, conn, local := newValidatingQueue(false)
	ctx := context.Background()
	researcher := uuid.New()

	bad := q.SubmitAnswer(ctx, choiceInput(survey, researcher, "Talvez"))
	good := q.SubmitAnswer(ctx, choiceInput(survey, researcher, "Sim"))
	other := q.SubmitAnswer(ctx, choiceInput(survey, researcher, "Não"))
	require.Len(t, q.Pending(), 3)

	conn.online = true
	res, err := q.SyncPendingAnswers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Synced)
	assert.Equal(t, 1, res.Rejected)
	assert.Zero(t, res.Remaining)
	assert.Empty(t, q.Pending())

	stored := durable.stored()
	require.Len(t, stored, 2)
	assert.Equal(t, good.Answer.ID, stored[0].ID)
	assert.Equal(t, other.Answer.ID, stored[1].ID)

	rejected := q.Rejected()
	require.Len(t, rejected, 1)
	assert.Equal(t, bad.Answer.ID, rejected[0].ID)

	again, err := q.SyncPendingAnswers(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Synced)
	assert.Len(t, durable.stored(), 2)

	restarted := NewAnswerQueue(serviceStore{}, conn, local, nil)
	require.NoError(t, restarted.Load(ctx))
	assert.Empty(t, restarted.Pending())
	require.Len(t, restarted.Rejected(), 1)
	assert.Equal(t, bad.Answer.ID, restarted.Rejected()[0].ID)
}

// flakyStore refuses every batch as invalid and fails single inserts for the
// listed answers with a transient error.
type flakyStore struct {
	fakeAnswerStore
	transient map[uuid.UUID]bool
}

func (s *flakyStore) Insert(ctx context.Context, answer *domain.Answer) error {
	if s.transient[answer.ID] {
		return errors.New("connection reset")
	}
	return s.fakeAnswerStore.Insert(ctx, answer)
}

func (s *flakyStore) InsertBatch(ctx context.Context, answers []domain.Answer) error {
	return domain.NewValidationError("answer", "must not be empty")
}

func TestAnswerQueue_TransientFailureWhileSplittingKeepsTheRest(t *testing.T) {
	store := &flakyStore{transient: make(map[uuid.UUID]bool)}
	conn := &fakeConnectivity{}
	q := NewAnswerQueue(store, conn, newMemLocalStore(), nil)
	ctx := context.Background()

	first := q.SubmitAnswer(ctx, sampleInput())
	second := q.SubmitAnswer(ctx, sampleInput())
	third := q.SubmitAnswer(ctx, sampleInput())
	store.transient[second.Answer.ID] = true

	conn.online = true
	res, err := q.SyncPendingAnswers(ctx)

	var perr *domain.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, res.Synced)
	assert.Equal(t, 2, res.Remaining)

	pending := q.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, second.Answer.ID, pending[0].ID)
	assert.Equal(t, third.Answer.ID, pending[1].ID)
	require.Len(t, store.stored(), 1)
	assert.Equal(t, first.Answer.ID, store.stored()[0].ID)
	assert.Empty(t, q.Rejected())
}

func TestAnswerQueue_DeletedSurveyIsRejected(t *testing.T) {
	q, _, durable, conn, _ := newValidatingQueue(false)
	ctx := context.Background()

	orphan := q.SubmitAnswer(ctx, sampleInput())

	conn.online = true
	res, err := q.SyncPendingAnswers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rejected)
	assert.Empty(t, q.Pending())
	assert.Empty(t, durable.stored())
	require.Len(t, q.Rejected(), 1)
	assert.Equal(t, orphan.Answer.ID, q.Rejected()[0].ID)
}
