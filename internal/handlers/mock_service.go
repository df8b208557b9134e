package handlers

import (
	"context"
	"net/http"

	"ud18_logger/internal/models"
	"ud18_logger/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(_ context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(_ context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockCapture struct {
	status   service.CaptureStatus
	startErr error
	stopErr  error
	waitErr  error

	startCalled int
	stopCalled  int
}

func (m *mockCapture) Start(ctx context.Context) (service.CaptureStatus, error) {
	m.startCalled++
	return m.status, m.startErr
}
func (m *mockCapture) Stop(ctx context.Context) (service.CaptureStatus, error) {
	m.stopCalled++
	return m.status, m.stopErr
}
func (m *mockCapture) Status() service.CaptureStatus  { return m.status }
func (m *mockCapture) Wait(ctx context.Context) error { return m.waitErr }

type mockMonitoring struct {
	records    []models.Measurement
	latest     models.Measurement
	hasLatest  bool
	err        error
	lastFilter service.RecordFilter
}

func (m *mockMonitoring) List(ctx context.Context, f service.RecordFilter) ([]models.Measurement, error) {
	m.lastFilter = f
	return m.records, m.err
}

func (m *mockMonitoring) Latest(ctx context.Context) (models.Measurement, bool, error) {
	return m.latest, m.hasLatest, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
