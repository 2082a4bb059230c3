// Package domain contains the persistence model for per-user dice rolls.
package domain

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// DiceRoll is a single recorded roll. MonthKey buckets rolls into the
// calendar month they count against.
type DiceRoll struct {
	ID       snowflake.ID             `gorm:"primaryKey" json:"id,string"`
	UserID   string                   `gorm:"type:text;not null;index:idx_dice_rolls_user_month,priority:1" json:"user_id"`
	MonthKey string                   `gorm:"type:text;not null;index:idx_dice_rolls_user_month,priority:2" json:"month_key"`
	Result   datatypes.JSONSlice[int] `gorm:"not null" json:"result"`
	RolledAt time.Time                `gorm:"not null" json:"rolled_at"`
}

// TableName sets the database table name.
func (DiceRoll) TableName() string { return "dice_rolls" }

// Sum adds up the faces of the roll.
func (r DiceRoll) Sum() int {
	total := 0
	for _, face := range r.Result {
		total += face
	}
	return total
}

// MonthKey formats t as "<year>-<month>" with a zero-based month, so January
// 2025 is "2025-0". Keys produced by earlier clients use the same layout.
func MonthKey(t time.Time) string {
	return fmt.Sprintf("%d-%d", t.Year(), int(t.Month())-1)
}
