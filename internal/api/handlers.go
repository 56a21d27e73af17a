package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"gridfx-config-bot/internal/planner"
	"gridfx-config-bot/internal/review"
)

type commandRequest struct {
	Command string `json:"command" binding:"required"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type approveRequest struct {
	Selection string `json:"selection"` // "", "all", "1-3,7", "remaining"
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"clients": s.hub.ClientCount(),
	})
}

func (s *Server) handleLogin(c *gin.Context) {
	if s.authService == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "authentication is disabled"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}
	resp, err := s.authService.Login(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// handleCommand runs one text command through the engine and broadcasts
// the outcome to WebSocket clients when the tree changed or a plan was
// staged.
func (s *Server) handleCommand(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "command field is required"})
		return
	}

	result := s.engine.Execute(c.Request.Context(), req.Command)

	if result.Success && len(result.Changes) > 0 && result.PendingPlan == nil {
		s.hub.Broadcast("config_changed", gin.H{"changes": len(result.Changes)})
	} else if result.Success && result.PendingPlan != nil && result.PendingPlan.Status == planner.StatusPending {
		s.hub.Broadcast("plan_staged", gin.H{
			"plan_id": result.PendingPlan.ID,
			"changes": len(result.PendingPlan.Preview),
			"risk":    result.PendingPlan.Risk.Level,
		})
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, result)
}

func (s *Server) handleTree(c *gin.Context) {
	t := s.engine.Tree()
	if t == nil {
		c.JSON(http.StatusOK, gin.H{"tree": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tree": t, "leaves": t.LeafCount()})
}

func (s *Server) handlePendingPlan(c *gin.Context) {
	plan := s.engine.PendingPlan()
	if plan == nil {
		c.JSON(http.StatusOK, gin.H{"pending": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": plan})
}

// handleAggregate renders the pending plan grouped by a review dimension,
// optionally filtered by a search query and a minimum risk level.
func (s *Server) handleAggregate(c *gin.Context) {
	plan := s.engine.PendingPlan()
	if plan == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no pending plan"})
		return
	}

	dim := review.Dimension(strings.ToLower(c.DefaultQuery("dimension", string(review.ByGroup))))
	switch dim {
	case review.ByGroup, review.ByLogic, review.ByField, review.ByEngine:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "dimension must be one of group, logic, field, engine"})
		return
	}

	groups := review.Aggregate(plan.Preview, dim)
	if q := c.Query("search"); q != "" {
		groups = review.Search(groups, q)
	}
	if r := c.Query("risk"); r != "" {
		groups = review.FilterByRisk(groups, planner.RiskLevel(strings.ToLower(r)))
	}

	c.JSON(http.StatusOK, gin.H{
		"plan_id":   plan.ID,
		"dimension": dim,
		"total":     len(plan.Preview),
		"groups":    groups,
	})
}

func (s *Server) handleApprove(c *gin.Context) {
	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid approval payload"})
		return
	}

	text := "apply"
	if strings.TrimSpace(req.Selection) != "" {
		text = "apply " + req.Selection
	}
	result := s.engine.Execute(c.Request.Context(), text)
	if result.Success && len(result.Changes) > 0 {
		s.hub.Broadcast("config_changed", gin.H{"changes": len(result.Changes)})
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, result)
}

func (s *Server) handleReject(c *gin.Context) {
	result := s.engine.Execute(c.Request.Context(), "cancel")
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, result)
}

func (s *Server) handleHistory(c *gin.Context) {
	limit := 10
	if n, err := strconv.Atoi(c.DefaultQuery("limit", "10")); err == nil && n > 0 {
		limit = n
	}
	plans := s.engine.History()
	if len(plans) > limit {
		plans = plans[:limit]
	}
	c.JSON(http.StatusOK, gin.H{"history": plans})
}
