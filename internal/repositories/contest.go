package repositories

import (
	"codearena/internal/common"
	"codearena/internal/models"
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type ContestRepository interface {
	GetContest(ctx context.Context, contestID string) (*models.Contest, error)
	GetParticipants(ctx context.Context, contestID string) ([]models.Participant, error)
	IsBanned(ctx context.Context, contestID, userID string) (bool, error)
	BanUser(ctx context.Context, contestID, userID, reason string) error
	LogCodingStart(ctx context.Context, contestID, userID, problemID string, start time.Time) error
	GetCodingStartTime(ctx context.Context, contestID, userID, problemID string) (*time.Time, error)
}

type contestRepository struct {
	db *sqlx.DB
}

func NewContestRepository(db *sqlx.DB) ContestRepository {
	return &contestRepository{db: db}
}

func (r *contestRepository) GetContest(ctx context.Context, contestID string) (*models.Contest, error) {
	query := `SELECT id, title, description, start_time, end_time FROM contests WHERE id = ?`

	var contest models.Contest
	if err := r.db.GetContext(ctx, &contest, query, contestID); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: contest %s", common.ErrNotFound, contestID)
		}
		return nil, fmt.Errorf("failed to get contest: %w", err)
	}

	return &contest, nil
}

func (r *contestRepository) GetParticipants(ctx context.Context, contestID string) ([]models.Participant, error) {
	query := `SELECT cp.user_id, u.name, u.email, cp.is_banned, cp.ban_reason
              FROM contest_participants cp
              JOIN users u ON u.id = cp.user_id
              WHERE cp.contest_id = ?`

	var participants []models.Participant
	if err := r.db.SelectContext(ctx, &participants, query, contestID); err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}

	return participants, nil
}

func (r *contestRepository) IsBanned(ctx context.Context, contestID, userID string) (bool, error) {
	query := `SELECT is_banned FROM contest_participants WHERE contest_id = ? AND user_id = ?`

	var banned bool
	if err := r.db.GetContext(ctx, &banned, query, contestID, userID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to check ban status: %w", err)
	}

	return banned, nil
}

func (r *contestRepository) BanUser(ctx context.Context, contestID, userID, reason string) error {
	query := `UPDATE contest_participants
              SET is_banned = 1, ban_reason = ?, banned_at = NOW()
              WHERE contest_id = ? AND user_id = ?`

	res, err := r.db.ExecContext(ctx, query, reason, contestID, userID)
	if err != nil {
		return fmt.Errorf("failed to ban user: %w", err)
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("%w: participant %s in contest %s", common.ErrNotFound, userID, contestID)
	}

	return nil
}

func (r *contestRepository) LogCodingStart(ctx context.Context, contestID, userID, problemID string, start time.Time) error {
	query := `INSERT INTO coding_times (contest_id, user_id, problem_id, start_time)
              VALUES (?, ?, ?, ?)
              ON DUPLICATE KEY UPDATE start_time = VALUES(start_time)`

	if _, err := r.db.ExecContext(ctx, query, contestID, userID, problemID, start); err != nil {
		return fmt.Errorf("failed to log coding start: %w", err)
	}

	return nil
}

func (r *contestRepository) GetCodingStartTime(ctx context.Context, contestID, userID, problemID string) (*time.Time, error) {
	query := `SELECT start_time FROM coding_times
              WHERE contest_id = ? AND user_id = ? AND problem_id = ?`

	var start time.Time
	if err := r.db.GetContext(ctx, &start, query, contestID, userID, problemID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get coding start time: %w", err)
	}

	return &start, nil
}
