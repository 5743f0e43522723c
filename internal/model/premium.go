package model

import "time"

// PremiumCode is one entry of the premium code list.
type PremiumCode struct {
	Code         string     `db:"code" json:"code"`
	Used         bool       `db:"used" json:"used"`
	UsedAt       *time.Time `db:"used_at" json:"usedAt,omitempty"`
	DurationDays int        `db:"duration_days" json:"duration"`
	CreatedAt    time.Time  `db:"created_at" json:"-"`
}
