package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tastymetrics/internal/cache"
	"tastymetrics/internal/catalog"
	"tastymetrics/internal/report"
	"tastymetrics/pkg/errors"
)

type fakeService struct {
	lastName   string
	lastParams catalog.Params
	result     *report.Result
	err        error
}

func (f *fakeService) Definitions() []catalog.Definition {
	return catalog.NewRegistry().List()
}

func (f *fakeService) Run(_ context.Context, name string, p catalog.Params) (*report.Result, error) {
	f.lastName = name
	f.lastParams = p
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (m *memStore) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	return b, ok
}

func (m *memStore) Set(_ context.Context, key string, value []byte, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

func doRequest(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func okResult() *report.Result {
	return &report.Result{
		Query:   catalog.QueryDailyTrend,
		Columns: []string{"DATE", "TOTAL_ORDERS"},
		Rows:    [][]interface{}{{"2021-01-01", 2}},
	}
}

func TestHealth(t *testing.T) {
	s := New(&fakeService{}, nil, 0, nil)
	rec := doRequest(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListQueries(t *testing.T) {
	s := New(&fakeService{}, nil, 0, nil)
	rec := doRequest(t, s, "/api/v1/queries")
	require.Equal(t, http.StatusOK, rec.Code)

	var infos []queryInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))
	assert.Len(t, infos, 5)
	names := make(map[string]bool)
	for _, i := range infos {
		names[i.Name] = true
		assert.True(t, i.Builtin)
	}
	assert.True(t, names[catalog.QueryDailyTrend])
	assert.True(t, names[catalog.QueryBrandReviews])
}

func TestRunQueryParsesParams(t *testing.T) {
	svc := &fakeService{result: okResult()}
	s := New(svc, nil, 0, nil)

	rec := doRequest(t, s, "/api/v1/queries/daily-trend?start=2021-01-01&end=2021-01-31&country=US&country=FR&limit=5")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, catalog.QueryDailyTrend, svc.lastName)
	require.NotNil(t, svc.lastParams.Dates)
	assert.Equal(t, "2021-01-01", svc.lastParams.Dates.Start.Format("2006-01-02"))
	assert.Equal(t, []string{"US", "FR"}, svc.lastParams.Country.Values())
	assert.Equal(t, 5, svc.lastParams.Limit)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestRunQueryDefaultsToAllCountries(t *testing.T) {
	svc := &fakeService{result: okResult()}
	s := New(svc, nil, 0, nil)

	rec := doRequest(t, s, "/api/v1/queries/daily-trend")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.lastParams.Country.IsAll())
	assert.Nil(t, svc.lastParams.Dates)
}

func TestRunQueryAllSentinel(t *testing.T) {
	svc := &fakeService{result: okResult()}
	s := New(svc, nil, 0, nil)

	doRequest(t, s, "/api/v1/queries/daily-trend?country=all&country=US")
	assert.True(t, svc.lastParams.Country.IsAll())
}

func TestRunQueryBadRequests(t *testing.T) {
	svc := &fakeService{result: okResult()}
	s := New(svc, nil, 0, nil)

	tests := []struct {
		name   string
		target string
	}{
		{"start without end", "/api/v1/queries/daily-trend?start=2021-01-01"},
		{"bad date", "/api/v1/queries/daily-trend?start=x&end=2021-01-31"},
		{"end before start", "/api/v1/queries/daily-trend?start=2021-02-01&end=2021-01-01"},
		{"bad limit", "/api/v1/queries/menu-items?limit=abc"},
		{"zero limit", "/api/v1/queries/menu-items?limit=0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, s, tt.target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRunQueryNotFound(t *testing.T) {
	svc := &fakeService{err: errors.New(errors.ErrCodeQueryNotFound, "no query")}
	s := New(svc, nil, 0, nil)

	rec := doRequest(t, s, "/api/v1/queries/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunQueryMissingViewMapsToBadGateway(t *testing.T) {
	svc := &fakeService{err: errors.New(errors.ErrCodeObjectNotFound, "missing view")}
	s := New(svc, nil, 0, nil)

	rec := doRequest(t, s, "/api/v1/queries/daily-trend")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestRunQueryCache(t *testing.T) {
	svc := &fakeService{result: okResult()}
	store := newMemStore()
	s := New(svc, store, time.Minute, nil)

	rec := doRequest(t, s, "/api/v1/queries/daily-trend?country=US")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	rec = doRequest(t, s, "/api/v1/queries/daily-trend?country=US")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))

	// Different parameters miss again.
	rec = doRequest(t, s, "/api/v1/queries/daily-trend?country=FR")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	key := cache.Key(catalog.QueryDailyTrend, catalog.Params{Country: catalog.Countries("US")})
	_, ok := store.Get(context.Background(), key)
	assert.True(t, ok)
}
