package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/creditgate/internal/clock"
	entitlementdomain "github.com/smallbiznis/creditgate/internal/entitlement/domain"
	obslogger "github.com/smallbiznis/creditgate/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/creditgate/internal/observability/metrics"
	usagedomain "github.com/smallbiznis/creditgate/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Roller produces count die faces in [1,6].
type Roller func(count int) []int

type ServiceParam struct {
	fx.In

	Repo         usagedomain.Repository
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Entitlements entitlementdomain.Service
	ObsMetrics   *obsmetrics.Metrics `optional:"true"`
	Roller       Roller              `optional:"true"`
}

type Service struct {
	repo         usagedomain.Repository
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	entitlements entitlementdomain.Service
	obsMetrics   *obsmetrics.Metrics
	roll         Roller
}

func NewService(p ServiceParam) usagedomain.Service {
	roller := p.Roller
	if roller == nil {
		roller = randomRoller
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		repo:         p.Repo,
		log:          p.Log.Named("usage.service"),
		genID:        p.GenID,
		clock:        clk,
		entitlements: p.Entitlements,
		obsMetrics:   p.ObsMetrics,
		roll:         roller,
	}
}

func (s *Service) Roll(ctx context.Context, req usagedomain.RollRequest) (*usagedomain.DiceRoll, *usagedomain.Usage, error) {
	count := req.Count
	if count == 0 {
		count = usagedomain.DefaultDiceCount
	}
	if count < 1 || count > usagedomain.MaxDiceCount {
		return nil, nil, usagedomain.ErrInvalidDiceCount
	}

	usage, err := s.usage(ctx, req.UserID, false)
	if err != nil {
		return nil, nil, err
	}
	if !usage.Included {
		s.obsMetrics.RecordDiceRoll(ctx, obsmetrics.DiceRollNotIncluded)
		return nil, usage, usagedomain.ErrFeatureNotIncluded
	}
	if !usage.Allowed() {
		s.obsMetrics.RecordDiceRoll(ctx, obsmetrics.DiceRollLimitReached)
		return nil, usage, usagedomain.ErrLimitReached
	}

	roll, err := s.newRoll(usage.UserID, s.roll(count))
	if err != nil {
		return nil, nil, err
	}
	used, err := s.repo.InsertWithinLimit(ctx, roll, usage.Limit)
	switch {
	case errors.Is(err, usagedomain.ErrLimitReached):
		s.obsMetrics.RecordDiceRoll(ctx, obsmetrics.DiceRollLimitReached)
		usage.UsageCount = *usage.Limit
		usage.Remaining = remaining(*usage.Limit, usage.UsageCount)
		return nil, usage, err
	case err != nil:
		obslogger.WithContext(ctx, s.log).Error("failed to save dice roll", zap.Error(err))
		return nil, nil, err
	}
	s.obsMetrics.RecordDiceRoll(ctx, obsmetrics.DiceRollGranted)

	usage.UsageCount = used
	if usage.Limit != nil {
		usage.Remaining = remaining(*usage.Limit, used)
	}
	usage.RecentRolls = append([]usagedomain.DiceRoll{*roll}, usage.RecentRolls...)
	if len(usage.RecentRolls) > usagedomain.DefaultRecentLimit {
		usage.RecentRolls = usage.RecentRolls[:usagedomain.DefaultRecentLimit]
	}

	return roll, usage, nil
}

// Usage combines the stored roll count with the customer's dice-rolls
// entitlement. A customer without the feature gets Included == false, and so
// does one the vendor does not know or cannot be asked about; the local roll
// history is returned either way.
func (s *Service) Usage(ctx context.Context, userID string) (*usagedomain.Usage, error) {
	return s.usage(ctx, userID, true)
}

// usage reads the customer before the rolls. Unless degrade is set, a vendor
// outage is returned as an error so a roll is never refused as not included
// only because the vendor was down.
func (s *Service) usage(ctx context.Context, userID string, degrade bool) (*usagedomain.Usage, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, usagedomain.ErrInvalidUser
	}

	customer, err := s.entitlements.Customer(ctx, userID)
	switch {
	case err == nil:
	case errors.Is(err, entitlementdomain.ErrCustomerNotFound):
		customer = nil
	case degrade && errors.Is(err, entitlementdomain.ErrSourceUnavailable):
		obslogger.WithContext(ctx, s.log).Warn("customer unavailable, serving local dice usage", zap.Error(err))
		customer = nil
	default:
		return nil, err
	}

	monthKey := usagedomain.MonthKey(s.clock.Now())
	count, err := s.repo.CountByMonth(ctx, userID, monthKey)
	if err != nil {
		return nil, err
	}
	recent, err := s.repo.ListRecent(ctx, userID, monthKey, usagedomain.DefaultRecentLimit)
	if err != nil {
		return nil, err
	}

	usage := &usagedomain.Usage{
		UserID:      userID,
		MonthKey:    monthKey,
		UsageCount:  count,
		RecentRolls: recent,
	}
	if customer == nil {
		return usage, nil
	}

	feature, ok := entitlementdomain.FindFeature(customer.Features, usagedomain.DiceFeatureID)
	if ok && feature.Included {
		usage.Included = true
		usage.Limit = feature.Limit
		usage.Unlimited = feature.Limit == nil
		if feature.Limit != nil {
			usage.Remaining = remaining(*feature.Limit, count)
		}
	}

	return usage, nil
}

func (s *Service) AddRoll(ctx context.Context, userID string, result []int) (*usagedomain.DiceRoll, error) {
	roll, err := s.newRoll(userID, result)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, roll); err != nil {
		obslogger.WithContext(ctx, s.log).Error("failed to save dice roll", zap.Error(err))
		return nil, err
	}

	s.obsMetrics.RecordDiceRoll(ctx, obsmetrics.DiceRollImported)
	return roll, nil
}

func (s *Service) newRoll(userID string, result []int) (*usagedomain.DiceRoll, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, usagedomain.ErrInvalidUser
	}
	if len(result) == 0 || len(result) > usagedomain.MaxDiceCount {
		return nil, usagedomain.ErrInvalidDiceResult
	}
	for _, face := range result {
		if face < 1 || face > 6 {
			return nil, usagedomain.ErrInvalidDiceResult
		}
	}

	now := s.clock.Now()
	return &usagedomain.DiceRoll{
		ID:       s.genID.Generate(),
		UserID:   userID,
		MonthKey: usagedomain.MonthKey(now),
		Result:   datatypes.NewJSONSlice(append([]int(nil), result...)),
		RolledAt: now,
	}, nil
}

// RollCount is the number of rolls in the current month.
func (s *Service) RollCount(ctx context.Context, userID string) (int64, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, usagedomain.ErrInvalidUser
	}
	return s.repo.CountByMonth(ctx, userID, usagedomain.MonthKey(s.clock.Now()))
}

// RecentRolls returns the current month's rolls, newest first.
func (s *Service) RecentRolls(ctx context.Context, userID string, limit int) ([]usagedomain.DiceRoll, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, usagedomain.ErrInvalidUser
	}
	switch {
	case limit <= 0:
		limit = usagedomain.DefaultRecentLimit
	case limit > usagedomain.MaxRecentLimit:
		limit = usagedomain.MaxRecentLimit
	}
	return s.repo.ListRecent(ctx, userID, usagedomain.MonthKey(s.clock.Now()), limit)
}

func (s *Service) ClearUserRolls(ctx context.Context, userID string) (int64, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, usagedomain.ErrInvalidUser
	}
	deleted, err := s.repo.DeleteByMonth(ctx, userID, usagedomain.MonthKey(s.clock.Now()))
	if err != nil {
		return 0, err
	}
	obslogger.WithContext(ctx, s.log).Info("dice rolls cleared", zap.Int64("deleted", deleted))
	return deleted, nil
}

func remaining(limit, used int64) *int64 {
	left := limit - used
	if left < 0 {
		left = 0
	}
	return &left
}

func randomRoller(count int) []int {
	faces := make([]int, count)
	for i := range faces {
		faces[i] = rand.IntN(6) + 1
	}
	return faces
}
