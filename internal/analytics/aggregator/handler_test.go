package aggregator

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/analytics"
)

type fakeLister struct {
	gotLimit int
	snaps    []analytics.AggregatedStats
	err      error
}

func (f *fakeLister) ListSnapshots(_ context.Context, limit int) ([]analytics.AggregatedStats, error) {
	f.gotLimit = limit
	return f.snaps, f.err
}

func TestSnapshotHandler(t *testing.T) {
	src := &fakeLister{snaps: []analytics.AggregatedStats{{TotalAttempts: 4}}}
	h := SnapshotHandler(src)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/snapshots?limit=3", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, src.gotLimit)
	assert.Contains(t, rec.Body.String(), `"total_attempts":4`)
	assert.Contains(t, rec.Body.String(), `"count":1`)

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/snapshots?limit=0", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	src.snaps, src.err = nil, errors.New("db down")
	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/snapshots", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 10, src.gotLimit)

	src.err = nil
	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/snapshots", nil))
	assert.JSONEq(t, `{"snapshots":[],"count":0}`, rec.Body.String())
}
