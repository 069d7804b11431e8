package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"curvecontrol/internal/engine"
)

// tradeEngine is wired once at startup, like the package-level DB handle.
var tradeEngine *engine.Engine

// InitEngine sets the engine used by all handlers.
func InitEngine(e *engine.Engine) {
	tradeEngine = e
}

// respondEngineError maps engine errors to HTTP responses. Admission errors
// come back verbatim with their structured detail; anything else is a server
// error.
func respondEngineError(c *gin.Context, err error) {
	var tradeErr *engine.TradeError
	if !errors.As(err, &tradeErr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	status := http.StatusBadRequest
	switch tradeErr.Code {
	case engine.CodeAssetNotFound:
		status = http.StatusNotFound
	case engine.CodeMigrationState, engine.CodeMigrationRetryCap:
		status = http.StatusConflict
	case engine.CodeLockWaitTimeout:
		status = http.StatusServiceUnavailable
	}

	body := gin.H{
		"error": tradeErr.Message,
		"code":  tradeErr.Code,
	}
	if tradeErr.Reason != "" {
		body["reason"] = tradeErr.Reason
	}
	if !tradeErr.Limit.IsZero() {
		body["limit"] = tradeErr.Limit
	}
	if tradeErr.LockRemaining > 0 {
		body["lock_remaining_seconds"] = int64(tradeErr.LockRemaining.Seconds())
	}
	if tradeErr.Phase != "" {
		body["phase"] = tradeErr.Phase
	}
	c.JSON(status, body)
}
