package repository

import (
	"context"

	usagedomain "github.com/smallbiznis/creditgate/internal/usage/domain"
	"github.com/smallbiznis/creditgate/pkg/db"
	"github.com/smallbiznis/creditgate/pkg/db/option"
	"github.com/smallbiznis/creditgate/pkg/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type diceRepo struct {
	conn  *gorm.DB
	store repository.Repository[usagedomain.DiceRoll]
}

func Provide(conn *gorm.DB) usagedomain.Repository {
	return &diceRepo{
		conn:  conn,
		store: repository.ProvideStore[usagedomain.DiceRoll](conn),
	}
}

func (r *diceRepo) Insert(ctx context.Context, roll *usagedomain.DiceRoll) error {
	return insert(ctx, r.store, roll)
}

// InsertWithinLimit counts and inserts in one transaction. Concurrent rolls of
// the same user and month are serialized by an advisory lock on postgres and
// by row locks on mysql; sqlite serializes writers itself.
func (r *diceRepo) InsertWithinLimit(ctx context.Context, roll *usagedomain.DiceRoll, limit *int64) (int64, error) {
	var count int64
	err := r.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		filter := &usagedomain.DiceRoll{UserID: roll.UserID, MonthKey: roll.MonthKey}

		switch tx.Dialector.Name() {
		case "postgres":
			if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", roll.UserID+":"+roll.MonthKey).Error; err != nil {
				return err
			}
			if err := tx.Model(filter).Where(filter).Count(&count).Error; err != nil {
				return err
			}
		case "mysql":
			if err := tx.Model(filter).Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).Where(filter).Count(&count).Error; err != nil {
				return err
			}
		default:
			if err := tx.Model(filter).Where(filter).Count(&count).Error; err != nil {
				return err
			}
		}

		if limit != nil && count >= *limit {
			return usagedomain.ErrLimitReached
		}
		if err := insert(ctx, r.store.WithTrx(tx), roll); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *diceRepo) CountByMonth(ctx context.Context, userID, monthKey string) (int64, error) {
	return r.store.Count(ctx, &usagedomain.DiceRoll{UserID: userID, MonthKey: monthKey})
}

func (r *diceRepo) ListRecent(ctx context.Context, userID, monthKey string, limit int) ([]usagedomain.DiceRoll, error) {
	rows, err := r.store.Find(ctx,
		&usagedomain.DiceRoll{UserID: userID, MonthKey: monthKey},
		option.WithOrderBy("rolled_at", true),
		option.WithOrderBy("id", true),
		option.WithLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	rolls := make([]usagedomain.DiceRoll, 0, len(rows))
	for _, row := range rows {
		rolls = append(rolls, *row)
	}
	return rolls, nil
}

func (r *diceRepo) DeleteByMonth(ctx context.Context, userID, monthKey string) (int64, error) {
	return r.store.DeleteWhere(ctx, &usagedomain.DiceRoll{UserID: userID, MonthKey: monthKey})
}

func insert(ctx context.Context, store repository.Repository[usagedomain.DiceRoll], roll *usagedomain.DiceRoll) error {
	if err := store.Create(ctx, roll); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return usagedomain.ErrDuplicateRoll
		}
		return err
	}
	return nil
}
