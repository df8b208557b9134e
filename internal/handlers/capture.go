package handlers

import (
	"errors"
	"net/http"

	"ud18_logger/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK      = "ok"
	statusStarted = "started"
	statusStopped = "stopped"

	errStartCapture = "failed to start capture"
	errStopCapture  = "failed to stop capture"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if log := h.requestLog(c); log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// logCaptureRequest records who drove a capture control endpoint.
func (h *Handler) logCaptureRequest(c *gin.Context, event string, st service.CaptureStatus) {
	if log := h.requestLog(c); log != nil {
		log.Infow(event, "session_id", st.SessionID, "state", st.State)
	}
}

// captureResponse is the body of the capture control endpoints.
type captureResponse struct {
	Status  string                `json:"status"`
	Capture service.CaptureStatus `json:"capture"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Start capture
// @Description  Resets the record store and starts a new device session. Only one session runs at a time.
// @Tags         capture
// @Produce      json
// @Success      200  {object}  captureResponse
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/capture/start [post]
// @Security     BearerAuth
func (h *Handler) startCapture(c *gin.Context) {
	st, err := h.services.Capture.Start(c.Request.Context())
	if errors.Is(err, service.ErrCaptureRunning) {
		h.logCaptureRequest(c, "capture_start_rejected", st)
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "capture": st})
		return
	}
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errStartCapture, "capture_start_failed", err)
		return
	}
	h.logCaptureRequest(c, "capture_start_requested", st)
	c.JSON(http.StatusOK, captureResponse{Status: statusStarted, Capture: st})
}

// @Summary      Stop capture
// @Description  Stops the running session and waits for it to release the device.
// @Tags         capture
// @Produce      json
// @Success      200  {object}  captureResponse
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/capture/stop [post]
// @Security     BearerAuth
func (h *Handler) stopCapture(c *gin.Context) {
	st, err := h.services.Capture.Stop(c.Request.Context())
	if errors.Is(err, service.ErrCaptureNotRunning) {
		h.logCaptureRequest(c, "capture_stop_rejected", st)
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "capture": st})
		return
	}
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errStopCapture, "capture_stop_failed", err)
		return
	}
	h.logCaptureRequest(c, "capture_stop_requested", st)
	c.JSON(http.StatusOK, captureResponse{Status: statusStopped, Capture: st})
}

// @Summary      Capture status
// @Description  Session state, chosen device and pipeline counters of the current or last session.
// @Tags         capture
// @Produce      json
// @Success      200  {object}  service.CaptureStatus
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/capture/status [get]
// @Security     BearerAuth
func (h *Handler) captureStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Capture.Status())
}
