package handlers

import (
	"context"

	"sensor_events/internal/live"
	"sensor_events/internal/models"
	"sensor_events/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockIngestion struct {
	out    models.EventOut
	err    error
	lastIn service.IngestInput
	calls  int
}

func (m *mockIngestion) Ingest(_ context.Context, in service.IngestInput) (models.EventOut, error) {
	m.calls++
	m.lastIn = in
	return m.out, m.err
}

type mockQuery struct {
	list      []models.EventOut
	listErr   error
	lastQuery service.ListQuery
	listCalls int

	one    models.EventOut
	getErr error
	lastID string
}

func (m *mockQuery) ListEvents(_ context.Context, q service.ListQuery) ([]models.EventOut, error) {
	m.listCalls++
	m.lastQuery = q
	return m.list, m.listErr
}

func (m *mockQuery) GetEvent(_ context.Context, id, _ string) (models.EventOut, error) {
	m.lastID = id
	return m.one, m.getErr
}

type mockLabeling struct {
	out     models.EventOut
	addErr  error
	lastIn  service.LabelInput
	labels  []models.Label
	listErr error
}

func (m *mockLabeling) AddLabel(_ context.Context, _ string, in service.LabelInput) (models.EventOut, error) {
	m.lastIn = in
	return m.out, m.addErr
}

func (m *mockLabeling) ListLabels(_ context.Context, _ string) ([]models.Label, error) {
	return m.labels, m.listErr
}

type mockHealth struct{ err error }

func (m mockHealth) Check(context.Context) error { return m.err }

// ---- Shared Test Helpers ----

func newMockService() (*service.Service, *mockIngestion, *mockQuery, *mockLabeling) {
	ing, q, lab := &mockIngestion{}, &mockQuery{}, &mockLabeling{}
	return &service.Service{Ingestion: ing, Query: q, Labeling: lab, Health: mockHealth{}}, ing, q, lab
}

func newTestRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, live.NewRegistry(nil, nil), nil, Options{PublicBaseURL: "http://test"})
	return h.InitRoutes()
}
