package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/outreach-engine/internal/domain"
	"github.com/ignite/outreach-engine/internal/store"
)

type stubEngine struct {
	lastOpts domain.TickOptions
	summary  domain.TickSummary
	schedule []domain.ScheduledStep
	err      error
}

func (s *stubEngine) RunTick(_ context.Context, opts domain.TickOptions) (domain.TickSummary, error) {
	s.lastOpts = opts
	return s.summary, s.err
}

func (s *stubEngine) ContactSchedule(_ context.Context, _ string) ([]domain.ScheduledStep, error) {
	return s.schedule, s.err
}

func TestRunAutomationDecodesOptions(t *testing.T) {
	eng := &stubEngine{summary: domain.TickSummary{RunID: "run-1", Sent: 3}}
	router := SetupRoutes(NewHandlers(eng))

	body := strings.NewReader(`{"testMode": true, "campaignId": "camp-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/automation/run", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, eng.lastOpts.TestMode)
	assert.Equal(t, "camp-1", eng.lastOpts.CampaignID)

	var got domain.TickSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, 3, got.Sent)
}

func TestRunAutomationEmptyBody(t *testing.T) {
	eng := &stubEngine{}
	router := SetupRoutes(NewHandlers(eng))

	req := httptest.NewRequest(http.MethodPost, "/api/automation/run", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, eng.lastOpts.TestMode)
}

func TestRunAutomationBadJSON(t *testing.T) {
	router := SetupRoutes(NewHandlers(&stubEngine{}))

	req := httptest.NewRequest(http.MethodPost, "/api/automation/run", strings.NewReader("{nope"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunAutomationUnknownCampaign(t *testing.T) {
	eng := &stubEngine{err: store.ErrNotFound}
	router := SetupRoutes(NewHandlers(eng))

	req := httptest.NewRequest(http.MethodPost, "/api/automation/run", strings.NewReader(`{"campaignId":"nope"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetContactSchedule(t *testing.T) {
	when := time.Date(2025, 6, 26, 10, 23, 0, 0, time.UTC)
	eng := &stubEngine{schedule: []domain.ScheduledStep{
		{StepNumber: 1, ScheduledAt: when.Add(-72 * time.Hour), Status: "sent"},
		{StepNumber: 2, ScheduledAt: when, Status: "scheduled"},
	}}
	router := SetupRoutes(NewHandlers(eng))

	req := httptest.NewRequest(http.MethodGet, "/api/contacts/c-1/schedule", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		ContactID string                 `json:"contact_id"`
		Steps     []domain.ScheduledStep `json:"steps"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "c-1", got.ContactID)
	require.Len(t, got.Steps, 2)
	assert.Equal(t, "sent", got.Steps[0].Status)
}

func TestHealthCheck(t *testing.T) {
	router := SetupRoutes(NewHandlers(&stubEngine{}))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
