package handlers

import (
	"codearena/internal/logger"
	"codearena/internal/repositories"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ContestHandler struct {
	contests repositories.ContestRepository
	problems repositories.ProblemRepository
}

func NewContestHandler(contests repositories.ContestRepository, problems repositories.ProblemRepository) *ContestHandler {
	return &ContestHandler{contests: contests, problems: problems}
}

func (h *ContestHandler) GetContest(c *gin.Context) {
	contestID := c.Param("id")

	contest, err := h.contests.GetContest(c.Request.Context(), contestID)
	if err != nil {
		respondDomainError(c, err, "Contest not found")
		return
	}

	problems, err := h.problems.GetContestProblems(c.Request.Context(), contestID)
	if err != nil {
		logger.Log.Error("Failed to get contest problems", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve contest"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"contest": contest, "problems": problems})
}

func (h *ContestHandler) GetParticipants(c *gin.Context) {
	contestID := c.Param("id")

	participants, err := h.contests.GetParticipants(c.Request.Context(), contestID)
	if err != nil {
		logger.Log.Error("Failed to get participants", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve participants"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"participants": participants, "count": len(participants)})
}

type banRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Reason string `json:"reason"`
}

// BanUser flips the participant's ban flag. In-flight grading is not aborted;
// only new intakes are blocked.
func (h *ContestHandler) BanUser(c *gin.Context) {
	contestID := c.Param("id")

	var req banRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reason := req.Reason
	if reason == "" {
		reason = "No reason provided"
	}

	if err := h.contests.BanUser(c.Request.Context(), contestID, req.UserID, reason); err != nil {
		respondDomainError(c, err, "Participant not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User banned successfully"})
}

type codingStartRequest struct {
	ContestID string    `json:"contest_id" binding:"required"`
	UserID    string    `json:"user_id" binding:"required"`
	ProblemID string    `json:"problem_id" binding:"required"`
	StartTime time.Time `json:"start_time" binding:"required"`
}

// LogCodingStart records when a user began working on a problem. The grading
// pipeline reads it back to derive solve time on acceptance.
func (h *ContestHandler) LogCodingStart(c *gin.Context) {
	var req codingStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.contests.LogCodingStart(c.Request.Context(), req.ContestID, req.UserID, req.ProblemID, req.StartTime); err != nil {
		logger.Log.Error("Failed to log coding start", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log coding start"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *ContestHandler) RegisterRoutes(router *gin.Engine, adminOnly gin.HandlerFunc) {
	router.GET("/contests/:id", h.GetContest)
	router.GET("/contests/:id/participants", h.GetParticipants)
	router.POST("/contests/:id/ban", adminOnly, h.BanUser)
	router.POST("/coding-start", h.LogCodingStart)
}
