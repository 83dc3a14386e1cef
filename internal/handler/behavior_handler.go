package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sensekit/behavior-engine-go/internal/engine"
	"github.com/sensekit/behavior-engine-go/pkg/response"
)

// BehaviorHandler exposes the engine's external control and query surface
// over HTTP for local consumers (conversational layer, dashboards).
type BehaviorHandler struct {
	engine *engine.Engine
}

// NewBehaviorHandler creates a new behavior handler.
func NewBehaviorHandler(eng *engine.Engine) *BehaviorHandler {
	return &BehaviorHandler{engine: eng}
}

// GetContext handles GET /api/v1/behavior/context
func (h *BehaviorHandler) GetContext(c *gin.Context) {
	ctx := h.engine.CurrentContext()
	if ctx == nil {
		response.NotFound(c, "No behavior context available yet")
		return
	}
	response.Success(c, ctx)
}

// GetPrivacy handles GET /api/v1/behavior/privacy
func (h *BehaviorHandler) GetPrivacy(c *gin.Context) {
	response.Success(c, h.engine.PrivacySummary())
}

// Enable handles POST /api/v1/behavior/enable
func (h *BehaviorHandler) Enable(c *gin.Context) {
	enabled := h.engine.Enable()
	response.Success(c, gin.H{"enabled": enabled})
}

// Disable handles POST /api/v1/behavior/disable
func (h *BehaviorHandler) Disable(c *gin.Context) {
	h.engine.Disable()
	response.Success(c, gin.H{"enabled": false})
}

// ClearData handles DELETE /api/v1/behavior/data
func (h *BehaviorHandler) ClearData(c *gin.Context) {
	if err := h.engine.ClearAllData(); err != nil {
		response.InternalError(c, "Failed to clear behavioral data")
		return
	}
	response.Success(c, gin.H{"cleared": true})
}
