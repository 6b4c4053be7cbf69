package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"codearena/internal/common"
	"codearena/internal/handlers"
	"codearena/internal/leaderboard"
	"codearena/internal/logger"
	"codearena/internal/models"
	"codearena/internal/repositories"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.InitLogger()
}

type memorySubmissionRepo struct {
	submissions map[string]*models.Submission
	createErr   error
}

func newMemorySubmissionRepo() *memorySubmissionRepo {
	return &memorySubmissionRepo{submissions: make(map[string]*models.Submission)}
}

func (m *memorySubmissionRepo) Create(ctx context.Context, s *models.Submission) error {
	if m.createErr != nil {
		return m.createErr
	}
	copied := *s
	m.submissions[s.ID] = &copied
	return nil
}

func (m *memorySubmissionRepo) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	s, ok := m.submissions[id]
	if !ok {
		return nil, fmt.Errorf("%w: submission %s", common.ErrNotFound, id)
	}
	return s, nil
}

func (m *memorySubmissionRepo) List(ctx context.Context, contestID, userID string) ([]models.Submission, error) {
	out := []models.Submission{}
	for _, s := range m.submissions {
		if contestID != "" && s.ContestID != contestID {
			continue
		}
		if userID != "" && s.UserID != userID {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (m *memorySubmissionRepo) UpdateResult(ctx context.Context, id string, result repositories.SubmissionResult) error {
	s, ok := m.submissions[id]
	if !ok {
		return fmt.Errorf("%w: submission %s", common.ErrNotFound, id)
	}
	s.Status = result.Status
	s.Points = result.Points
	s.PassedTestCases = result.PassedTestCases
	return nil
}

func (m *memorySubmissionRepo) AcceptedByContest(ctx context.Context, contestID string) ([]models.Submission, error) {
	out := []models.Submission{}
	for _, s := range m.submissions {
		if s.ContestID == contestID && s.Status == models.StatusAccepted {
			out = append(out, *s)
		}
	}
	return out, nil
}

type memoryProblemRepo struct {
	problems map[string]*models.Problem
}

func (m *memoryProblemRepo) GetProblem(ctx context.Context, contestID, problemID string) (*models.Problem, error) {
	p, ok := m.problems[problemID]
	if !ok || p.ContestID != contestID {
		return nil, fmt.Errorf("%w: problem %s", common.ErrNotFound, problemID)
	}
	return p, nil
}

func (m *memoryProblemRepo) GetContestProblems(ctx context.Context, contestID string) ([]models.Problem, error) {
	out := []models.Problem{}
	for _, p := range m.problems {
		if p.ContestID == contestID {
			out = append(out, *p)
		}
	}
	return out, nil
}

type memoryContestRepo struct {
	contests     map[string]*models.Contest
	participants map[string][]models.Participant
	banned       map[string]bool
}

func newMemoryContestRepo() *memoryContestRepo {
	return &memoryContestRepo{
		contests:     make(map[string]*models.Contest),
		participants: make(map[string][]models.Participant),
		banned:       make(map[string]bool),
	}
}

func (m *memoryContestRepo) GetContest(ctx context.Context, contestID string) (*models.Contest, error) {
	c, ok := m.contests[contestID]
	if !ok {
		return nil, fmt.Errorf("%w: contest %s", common.ErrNotFound, contestID)
	}
	return c, nil
}

func (m *memoryContestRepo) GetParticipants(ctx context.Context, contestID string) ([]models.Participant, error) {
	return m.participants[contestID], nil
}

func (m *memoryContestRepo) IsBanned(ctx context.Context, contestID, userID string) (bool, error) {
	return m.banned[contestID+"/"+userID], nil
}

func (m *memoryContestRepo) BanUser(ctx context.Context, contestID, userID, reason string) error {
	found := false
	for _, p := range m.participants[contestID] {
		if p.UserID == userID {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("%w: participant %s", common.ErrNotFound, userID)
	}
	m.banned[contestID+"/"+userID] = true
	return nil
}

func (m *memoryContestRepo) LogCodingStart(ctx context.Context, contestID, userID, problemID string, start time.Time) error {
	return nil
}

func (m *memoryContestRepo) GetCodingStartTime(ctx context.Context, contestID, userID, problemID string) (*time.Time, error) {
	return nil, nil
}

type fixture struct {
	router   *gin.Engine
	subs     *memorySubmissionRepo
	contests *memoryContestRepo
	rdb      *redis.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	subs := newMemorySubmissionRepo()
	problems := &memoryProblemRepo{problems: map[string]*models.Problem{
		"p1": {
			ID: "p1", ContestID: "c1", Title: "Sum", Points: 100, TimeLimitMs: 1000,
			TestCases: []models.TestCase{{Input: "1 2", ExpectedOutput: "3"}},
		},
		"empty": {ID: "empty", ContestID: "c1", Title: "Broken", Points: 50},
	}}
	contests := newMemoryContestRepo()
	contests.contests["c1"] = &models.Contest{ID: "c1", Title: "Spring Round"}
	contests.participants["c1"] = []models.Participant{{UserID: "u1", Name: "User One"}}

	router := gin.New()
	handlers.NewSubmissionHandler(subs, problems, contests, rdb, "grading_test").RegisterRoutes(router)
	handlers.NewContestHandler(contests, problems).RegisterRoutes(router, func(c *gin.Context) {})
	handlers.NewLeaderboardHandler(leaderboard.NewAggregator(subs, contests)).RegisterRoutes(router)

	return &fixture{router: router, subs: subs, contests: contests, rdb: rdb}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func validRequest() map[string]interface{} {
	return map[string]interface{}{
		"contest_id": "c1",
		"problem_id": "p1",
		"user_id":    "u1",
		"code":       `print("hi")`,
		"language":   "lua",
	}
}

func TestCreateSubmissionQueuesJob(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/submissions", validRequest())

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created models.Submission
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected a generated submission ID")
	}
	if created.Status != models.StatusRunning {
		t.Fatalf("new submission must start running, got %s", created.Status)
	}
	if created.TotalTestCases != 1 {
		t.Fatalf("expected total test cases snapshot 1, got %d", created.TotalTestCases)
	}

	length, err := f.rdb.XLen(context.Background(), "grading_test").Result()
	if err != nil {
		t.Fatalf("failed to inspect stream: %v", err)
	}
	if length != 1 {
		t.Fatalf("expected 1 queued job, got %d", length)
	}

	if _, err := f.subs.GetByID(context.Background(), created.ID); err != nil {
		t.Fatalf("submission not persisted before queueing: %v", err)
	}
}

func TestCreateSubmissionValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		mutate func(map[string]interface{})
	}{
		{name: "missing code", mutate: func(r map[string]interface{}) { delete(r, "code") }},
		{name: "missing contest", mutate: func(r map[string]interface{}) { delete(r, "contest_id") }},
		{name: "missing problem", mutate: func(r map[string]interface{}) { delete(r, "problem_id") }},
		{name: "blank code", mutate: func(r map[string]interface{}) { r["code"] = "   " }},
		{name: "unknown language", mutate: func(r map[string]interface{}) { r["language"] = "cobol" }},
		{name: "missing user", mutate: func(r map[string]interface{}) { delete(r, "user_id") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			w := f.do(t, http.MethodPost, "/submissions", req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestCreateSubmissionUnknownContest(t *testing.T) {
	f := newFixture(t)

	req := validRequest()
	req["contest_id"] = "nope"

	if w := f.do(t, http.MethodPost, "/submissions", req); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestCreateSubmissionUnknownProblem(t *testing.T) {
	f := newFixture(t)

	req := validRequest()
	req["problem_id"] = "nope"

	if w := f.do(t, http.MethodPost, "/submissions", req); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestCreateSubmissionBannedUser(t *testing.T) {
	f := newFixture(t)
	f.contests.banned["c1/u1"] = true

	w := f.do(t, http.MethodPost, "/submissions", validRequest())
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "banned") {
		t.Fatalf("expected ban message in response, got %s", w.Body.String())
	}

	length, _ := f.rdb.XLen(context.Background(), "grading_test").Result()
	if length != 0 {
		t.Fatal("banned submission must not be queued")
	}
}

func TestCreateSubmissionProblemWithoutTestCases(t *testing.T) {
	f := newFixture(t)

	req := validRequest()
	req["problem_id"] = "empty"

	w := f.do(t, http.MethodPost, "/submissions", req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a problem with no test cases, got %d", w.Code)
	}
}

func TestCreateSubmissionStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.subs.createErr = errors.New("db down")

	w := f.do(t, http.MethodPost, "/submissions", validRequest())
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestGetSubmission(t *testing.T) {
	f := newFixture(t)
	f.subs.submissions["s1"] = &models.Submission{
		ID: "s1", ContestID: "c1", ProblemID: "p1", UserID: "u1",
		Status: models.StatusAccepted, Points: 100,
	}

	w := f.do(t, http.MethodGet, "/submissions/s1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var got models.Submission
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if got.Status != models.StatusAccepted || got.Points != 100 {
		t.Fatalf("unexpected payload: %+v", got)
	}

	if w := f.do(t, http.MethodGet, "/submissions/missing", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown submission, got %d", w.Code)
	}
}

func TestGetLeaderboard(t *testing.T) {
	f := newFixture(t)
	f.subs.submissions["s1"] = &models.Submission{
		ID: "s1", ContestID: "c1", ProblemID: "p1", UserID: "u1",
		Status: models.StatusAccepted, Points: 100, SubmittedAt: time.Now(),
	}

	w := f.do(t, http.MethodGet, "/contests/c1/leaderboard", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var entries []models.LeaderboardEntry
	if err := json.Unmarshal(w.Body.Bytes(), &entries); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(entries) != 1 || entries[0].UserID != "u1" || entries[0].TotalPoints != 100 {
		t.Fatalf("unexpected leaderboard: %+v", entries)
	}

	if w := f.do(t, http.MethodGet, "/contests/missing/leaderboard", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown contest, got %d", w.Code)
	}
}

func TestBanUser(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/contests/c1/ban", map[string]interface{}{"user_id": "u1", "reason": "cheating"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !f.contests.banned["c1/u1"] {
		t.Fatal("ban not recorded")
	}

	w = f.do(t, http.MethodPost, "/contests/c1/ban", map[string]interface{}{"user_id": "ghost"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown participant, got %d", w.Code)
	}
}

func TestGetContestWithProblems(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/contests/c1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Contest  models.Contest   `json:"contest"`
		Problems []models.Problem `json:"problems"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.Contest.ID != "c1" || len(body.Problems) != 2 {
		t.Fatalf("unexpected contest payload: %+v", body)
	}
}
