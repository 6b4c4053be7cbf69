package handlers

import (
	"codearena/internal/leaderboard"
	"net/http"

	"github.com/gin-gonic/gin"
)

type LeaderboardHandler struct {
	aggregator *leaderboard.Aggregator
}

func NewLeaderboardHandler(aggregator *leaderboard.Aggregator) *LeaderboardHandler {
	return &LeaderboardHandler{aggregator: aggregator}
}

func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	contestID := c.Param("id")

	entries, err := h.aggregator.Leaderboard(c.Request.Context(), contestID)
	if err != nil {
		respondDomainError(c, err, "Contest not found")
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (h *LeaderboardHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/contests/:id/leaderboard", h.GetLeaderboard)
}
