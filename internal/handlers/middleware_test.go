package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ud18_logger/internal/logger"
	"ud18_logger/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// minimal router wiring only the middleware + a protected endpoint
func newMiddlewareOnlyRouter(s *service.Service, log *logger.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(s, log, nil)
	r.GET("/secure", h.operatorAuth, func(c *gin.Context) {
		_, tagged := c.Get(requestLogKey)
		c.JSON(http.StatusOK, gin.H{"ok": true, "operatorId": c.GetInt(operatorIDKey), "tagged": tagged})
	})
	return r
}

func observedLogger() (*logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &logger.Logger{SugaredLogger: zap.New(core).Sugar()}, logs
}

func TestOperatorAuth_Errors(t *testing.T) {
	cases := []struct {
		name     string
		header   string
		parseErr error
		errMsg   string
	}{
		{name: "missing header", errMsg: errMissingAuth},
		{name: "invalid scheme", header: "Token abc", errMsg: errAuthFormat},
		{name: "bearer without token", header: "Bearer", errMsg: errAuthFormat},
		{name: "bearer with blank token", header: "Bearer   ", errMsg: errAuthFormat},
		{name: "rejected token", header: "Bearer expired", parseErr: errors.New("expired"), errMsg: errAuthToken},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &service.Service{Authorization: &mockAuth{parseErr: tc.parseErr}}
			r := newMiddlewareOnlyRouter(s, nil)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/secure", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status: got %d, want 401 (body=%s)", w.Code, w.Body.String())
			}
			var out struct {
				Error string `json:"error"`
			}
			_ = json.Unmarshal(w.Body.Bytes(), &out)
			if out.Error != tc.errMsg {
				t.Fatalf("error message: got %q, want %q", out.Error, tc.errMsg)
			}
		})
	}
}

func TestOperatorAuth_SetsOperatorAndRequestLog(t *testing.T) {
	auth := &mockAuth{parseID: 123}
	log, _ := observedLogger()
	r := newMiddlewareOnlyRouter(&service.Service{Authorization: auth}, log)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "bearer good-token")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d; body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		OK         bool `json:"ok"`
		OperatorID int  `json:"operatorId"`
		Tagged     bool `json:"tagged"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.OK || resp.OperatorID != 123 || !resp.Tagged {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if auth.lastParseToken != "good-token" {
		t.Fatalf("ParseToken got %q, want %q", auth.lastParseToken, "good-token")
	}
}

func TestCaptureStart_LogsOperator(t *testing.T) {
	log, logs := observedLogger()
	s := &service.Service{
		Authorization: &mockAuth{parseID: 42},
		Capture:       &mockCapture{status: service.CaptureStatus{SessionID: "s-9", Running: true}},
	}
	gin.SetMode(gin.TestMode)
	r := NewHandler(s, log, nil).InitRoutes()

	w := doAuthed(t, r, http.MethodPost, "/api/v1/capture/start")
	if w.Code != http.StatusOK {
		t.Fatalf("start status=%d, body=%s", w.Code, w.Body.String())
	}

	entries := logs.FilterMessage("capture_start_requested").All()
	if len(entries) != 1 {
		t.Fatalf("expected one capture_start_requested entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["operator_id"] != int64(42) || fields["session_id"] != "s-9" {
		t.Fatalf("unexpected fields: %v", fields)
	}
	if fields["path"] != "/api/v1/capture/start" {
		t.Fatalf("path = %v", fields["path"])
	}
}
