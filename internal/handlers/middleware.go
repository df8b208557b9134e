package handlers

import (
	"net/http"
	"strings"

	"ud18_logger/internal/logger"

	"github.com/gin-gonic/gin"
)

const (
	operatorIDKey  = "operatorId"
	requestLogKey  = "requestLog"
	bearerScheme   = "bearer"
	errMissingAuth = "missing Authorization header"
	errAuthFormat  = "invalid Authorization header format"
	errAuthToken   = "invalid or expired token"
)

// operatorAuth accepts a bearer JWT, stores the operator id on the context
// and attaches a request logger tagged with it.
func (h *Handler) operatorAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errMissingAuth})
		return
	}

	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, bearerScheme) || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errAuthFormat})
		return
	}

	operatorID, err := h.services.ParseToken(token)
	if err != nil {
		if h.log != nil {
			h.log.Debugw("auth_rejected", "path", c.FullPath(), "err", err)
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errAuthToken})
		return
	}

	c.Set(operatorIDKey, operatorID)
	if h.log != nil {
		c.Set(requestLogKey, h.log.With("operator_id", operatorID, "path", c.FullPath()))
	}
	c.Next()
}

// requestLog returns the logger attached by operatorAuth, falling back to the
// handler logger. It may return nil when the handler has no logger.
func (h *Handler) requestLog(c *gin.Context) *logger.Logger {
	if v, ok := c.Get(requestLogKey); ok {
		if l, ok := v.(*logger.Logger); ok {
			return l
		}
	}
	return h.log
}
