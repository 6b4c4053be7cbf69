package models

import "time"

type Contest struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	StartTime   time.Time `db:"start_time" json:"start_time"`
	EndTime     time.Time `db:"end_time" json:"end_time"`
}

type Participant struct {
	UserID    string  `db:"user_id" json:"user_id"`
	Name      string  `db:"name" json:"name"`
	Email     string  `db:"email" json:"email"`
	IsBanned  bool    `db:"is_banned" json:"is_banned"`
	BanReason *string `db:"ban_reason" json:"ban_reason,omitempty"`
}
