package handlers

import (
	"codearena/internal/common"
	"codearena/internal/judge"
	"codearena/internal/logger"
	"codearena/internal/middlewares"
	"codearena/internal/models"
	"codearena/internal/repositories"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type SubmissionHandler struct {
	submissions repositories.SubmissionRepository
	problems    repositories.ProblemRepository
	contests    repositories.ContestRepository
	redis       *redis.Client
	stream      string
}

func NewSubmissionHandler(
	submissions repositories.SubmissionRepository,
	problems repositories.ProblemRepository,
	contests repositories.ContestRepository,
	redis *redis.Client,
	stream string,
) *SubmissionHandler {
	return &SubmissionHandler{
		submissions: submissions,
		problems:    problems,
		contests:    contests,
		redis:       redis,
		stream:      stream,
	}
}

// CreateSubmission gates and records a submission, then hands it to the
// grading queue. The response returns before grading starts; clients poll.
func (h *SubmissionHandler) CreateSubmission(c *gin.Context) {
	var req models.SubmissionRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if id, ok := middlewares.AuthenticatedUserID(c); ok {
		req.UserID = id
	}
	if req.UserID == "" {
		respondDomainError(c,
			fmt.Errorf("%w: user ID cannot be empty", common.ErrValidation),
			"user ID cannot be empty")
		return
	}

	if err := req.ValidateRequest(); err != nil {
		respondDomainError(c, err, err.Error())
		return
	}

	if _, err := judge.ParseLanguage(req.Language); err != nil {
		respondDomainError(c, err, err.Error())
		return
	}

	ctx := c.Request.Context()

	if _, err := h.contests.GetContest(ctx, req.ContestID); err != nil {
		respondDomainError(c, err, "Contest not found")
		return
	}

	banned, err := h.contests.IsBanned(ctx, req.ContestID, req.UserID)
	if err != nil {
		respondDomainError(c, err, "")
		return
	}
	if banned {
		respondDomainError(c,
			fmt.Errorf("%w: user %s in contest %s", common.ErrForbidden, req.UserID, req.ContestID),
			"Admin has banned you from this contest for violating rules.")
		return
	}

	problem, err := h.problems.GetProblem(ctx, req.ContestID, req.ProblemID)
	if err != nil {
		respondDomainError(c, err, "Problem not found")
		return
	}

	if len(problem.TestCases) == 0 {
		respondDomainError(c,
			fmt.Errorf("%w: problem %s has no test cases", common.ErrValidation, problem.ID),
			"Problem has no test cases")
		return
	}

	submission := models.Submission{
		ID:              uuid.NewString(),
		ContestID:       req.ContestID,
		ProblemID:       req.ProblemID,
		UserID:          req.UserID,
		Code:            req.Code,
		Language:        req.Language,
		Status:          models.StatusRunning,
		PassedTestCases: 0,
		TotalTestCases:  len(problem.TestCases),
		Points:          0,
		SubmittedAt:     time.Now(),
	}

	if err := h.submissions.Create(ctx, &submission); err != nil {
		logger.Log.Error("Failed to create submission", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process submission"})
		return
	}

	err = h.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: h.stream,
		ID:     "*", // Auto-generate ID
		Values: map[string]interface{}{
			"submission_id": submission.ID,
		},
	}).Err()

	if err != nil {
		logger.Log.Error("Failed to add submission to grading stream",
			zap.String("submission_id", submission.ID),
			zap.Error(err))

		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue submission"})
		return
	}

	c.JSON(http.StatusCreated, submission)
}

func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	id := c.Param("id")

	submission, err := h.submissions.GetByID(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err, "Submission not found")
		return
	}

	c.JSON(http.StatusOK, submission)
}

func (h *SubmissionHandler) GetSubmissions(c *gin.Context) {
	contestID := c.Query("contestId")
	userID := c.Query("userId")

	submissions, err := h.submissions.List(c.Request.Context(), contestID, userID)
	if err != nil {
		logger.Log.Error("Failed to list submissions",
			zap.String("contest_id", contestID),
			zap.String("user_id", userID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve submission history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"submissions": submissions,
		"count":       len(submissions),
	})
}

func (h *SubmissionHandler) RegisterRoutes(router *gin.Engine) {
	submissionGroup := router.Group("/submissions")
	{
		submissionGroup.POST("", h.CreateSubmission)
		submissionGroup.GET("/:id", h.GetSubmission)
		submissionGroup.GET("", h.GetSubmissions)
	}
}
