// Package config exposes the active LLM provider and lets it be switched at
// runtime.
package config

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"financial_report/pkg/core/agent"
)

type Response struct {
	ActiveProvider string   `json:"active_provider"`
	Available      []string `json:"available"`
}

type SwitchRequest struct {
	Provider string `json:"provider" binding:"required"`
}

// Handler holds dependencies for config endpoints
type Handler struct {
	AgentMgr *agent.Manager
}

// NewHandler creates a new config handler
func NewHandler(agentMgr *agent.Manager) *Handler {
	return &Handler{AgentMgr: agentMgr}
}

// RegisterRoutes mounts GET /config and POST /config/switch.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/config", h.HandleConfig)
	r.POST("/config/switch", h.HandleSwitch)
}

func (h *Handler) HandleConfig(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		ActiveProvider: h.AgentMgr.GetActiveProvider(),
		Available:      h.AgentMgr.Available(),
	})
}

func (h *Handler) HandleSwitch(c *gin.Context) {
	var req SwitchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body"})
		return
	}
	if err := h.AgentMgr.SetGlobalProvider(req.Provider); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{
		ActiveProvider: h.AgentMgr.GetActiveProvider(),
		Available:      h.AgentMgr.Available(),
	})
}
