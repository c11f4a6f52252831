package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/surveys/{id}", func(w http.ResponseWriter, r *http.Request) {})
	return r
}

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	h := newRouter()
	matched := RequestCounter.WithLabelValues(http.MethodGet, "/surveys/{id}", "200")
	before := testutil.ToFloat64(matched)

	for _, id := range []string{"a", "b", "c"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/surveys/"+id, nil))
	}

	assert.Equal(t, before+3, testutil.ToFloat64(matched))
}

func TestMiddlewareBoundsUnmatchedPaths(t *testing.T) {
	h := newRouter()
	unmatched := RequestCounter.WithLabelValues(http.MethodGet, UnmatchedRoute, "404")
	before := testutil.ToFloat64(unmatched)
	series := testutil.CollectAndCount(RequestCounter)

	for _, p := range []string{"/wp-login.php", "/.env", "/admin/123", "/random/x/y"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	assert.Equal(t, before+4, testutil.ToFloat64(unmatched))
	assert.Equal(t, series, testutil.CollectAndCount(RequestCounter), "unknown paths add no series")
}

func TestRegisterSplitsServerAndAgentSeries(t *testing.T) {
	server := prometheus.NewRegistry()
	agent := prometheus.NewRegistry()

	require.NotPanics(t, func() { Register(server) })
	require.NotPanics(t, func() { RegisterAgent(agent) })

	AnswersStored.WithLabelValues("batch", "ok").Add(0)
	PendingAnswers.Set(2)

	stored, err := testutil.GatherAndCount(server, "fieldsurvey_answers_stored_total")
	require.NoError(t, err)
	assert.Equal(t, 1, stored)

	pendingOnServer, err := testutil.GatherAndCount(server, "fieldsurvey_pending_answers")
	require.NoError(t, err)
	assert.Zero(t, pendingOnServer)

	pendingOnAgent, err := testutil.GatherAndCount(agent, "fieldsurvey_pending_answers")
	require.NoError(t, err)
	assert.Equal(t, 1, pendingOnAgent)
}
