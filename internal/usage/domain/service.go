package domain

import (
	"context"
	"errors"
)

const (
	// DiceFeatureID is the customer feature that gates rolling.
	DiceFeatureID = "dice-rolls"

	DefaultDiceCount   = 2
	MaxDiceCount       = 6
	DefaultRecentLimit = 5
	MaxRecentLimit     = 50
)

type RollRequest struct {
	UserID string `json:"-"`
	Count  int    `json:"count"`
}

// Usage is the current month's dice consumption against the plan limit. A nil
// Limit means unlimited.
type Usage struct {
	UserID      string     `json:"user_id"`
	MonthKey    string     `json:"month_key"`
	Included    bool       `json:"included"`
	UsageCount  int64      `json:"usage_count"`
	Limit       *int64     `json:"limit"`
	Unlimited   bool       `json:"unlimited"`
	Remaining   *int64     `json:"remaining"`
	RecentRolls []DiceRoll `json:"recent_rolls"`
}

// Allowed reports whether another roll fits within the plan.
func (u Usage) Allowed() bool {
	if !u.Included {
		return false
	}
	return u.Limit == nil || u.UsageCount < *u.Limit
}

type Service interface {
	// Roll checks the dice-rolls entitlement, rolls and records the dice.
	Roll(ctx context.Context, req RollRequest) (*DiceRoll, *Usage, error)
	Usage(ctx context.Context, userID string) (*Usage, error)

	AddRoll(ctx context.Context, userID string, result []int) (*DiceRoll, error)
	RollCount(ctx context.Context, userID string) (int64, error)
	RecentRolls(ctx context.Context, userID string, limit int) ([]DiceRoll, error)
	// ClearUserRolls resets the current month; earlier months are kept.
	ClearUserRolls(ctx context.Context, userID string) (int64, error)
}

type Repository interface {
	Insert(ctx context.Context, roll *DiceRoll) error
	// InsertWithinLimit inserts roll only while the month holds fewer than
	// limit rolls, and returns the month's count including it. A nil limit
	// never rejects.
	InsertWithinLimit(ctx context.Context, roll *DiceRoll, limit *int64) (int64, error)
	CountByMonth(ctx context.Context, userID, monthKey string) (int64, error)
	ListRecent(ctx context.Context, userID, monthKey string, limit int) ([]DiceRoll, error)
	DeleteByMonth(ctx context.Context, userID, monthKey string) (int64, error)
}

var (
	ErrInvalidUser        = errors.New("invalid_user")
	ErrInvalidDiceCount   = errors.New("invalid_dice_count")
	ErrInvalidDiceResult  = errors.New("invalid_dice_result")
	ErrFeatureNotIncluded = errors.New("feature_not_included")
	ErrLimitReached       = errors.New("dice_limit_reached")
	ErrDuplicateRoll      = errors.New("duplicate_roll")
)
