package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/creditgate/internal/clock"
	entitlementdomain "github.com/smallbiznis/creditgate/internal/entitlement/domain"
	usagedomain "github.com/smallbiznis/creditgate/internal/usage/domain"
	"github.com/smallbiznis/creditgate/internal/usage/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type entitlementMock struct {
	mock.Mock
}

func (m *entitlementMock) FeatureCredit(ctx context.Context, req entitlementdomain.FeatureCreditRequest) (*entitlementdomain.FeatureCredit, error) {
	args := m.Called(ctx, req)
	return nil, args.Error(1)
}

func (m *entitlementMock) PricingModel(ctx context.Context) (*entitlementdomain.PricingModel, error) {
	return nil, nil
}

func (m *entitlementMock) Customer(ctx context.Context, customerID string) (*entitlementdomain.CustomerInfo, error) {
	args := m.Called(ctx, customerID)
	info, _ := args.Get(0).(*entitlementdomain.CustomerInfo)
	return info, args.Error(1)
}

func customerWithDice(included bool, limit *int64) *entitlementdomain.CustomerInfo {
	return &entitlementdomain.CustomerInfo{
		ID: "user1",
		Features: []entitlementdomain.CustomerFeature{
			{ID: usagedomain.DiceFeatureID, Included: included, Limit: limit},
		},
	}
}

func int64Ptr(v int64) *int64 { return &v }

type fixture struct {
	svc   usagedomain.Service
	ent   *entitlementMock
	clock *clock.FakeClock
	db    *gorm.DB
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&usagedomain.DiceRoll{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC))
	ent := &entitlementMock{}

	svc := NewService(ServiceParam{
		Repo:         repository.Provide(db),
		Log:          zap.NewNop(),
		GenID:        node,
		Clock:        fake,
		Entitlements: ent,
		Roller: func(count int) []int {
			faces := make([]int, count)
			for i := range faces {
				faces[i] = 3
			}
			return faces
		},
	})

	return fixture{svc: svc, ent: ent, clock: fake, db: db}
}

func TestAddRollAndCountCurrentMonth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddRoll(ctx, "user1", []int{1, 6})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	second, err := f.svc.AddRoll(ctx, "user1", []int{2, 2})
	require.NoError(t, err)
	assert.Equal(t, "2025-2", second.MonthKey)
	assert.Equal(t, 4, second.Sum())

	count, err := f.svc.RollCount(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	other, err := f.svc.RollCount(ctx, "user2")
	require.NoError(t, err)
	assert.Zero(t, other)

	recent, err := f.svc.RecentRolls(ctx, "user1", 0)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, second.ID, recent[0].ID)
	assert.Equal(t, []int{2, 2}, []int(recent[0].Result))

	f.clock.Set(time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC))
	count, err = f.svc.RollCount(ctx, "user1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestAddRollValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddRoll(ctx, " ", []int{1})
	assert.ErrorIs(t, err, usagedomain.ErrInvalidUser)
	_, err = f.svc.AddRoll(ctx, "user1", nil)
	assert.ErrorIs(t, err, usagedomain.ErrInvalidDiceResult)
	_, err = f.svc.AddRoll(ctx, "user1", []int{0, 7})
	assert.ErrorIs(t, err, usagedomain.ErrInvalidDiceResult)
}

func TestRecentRollsLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, err := f.svc.AddRoll(ctx, "user1", []int{i%6 + 1})
		require.NoError(t, err)
		f.clock.Advance(time.Second)
	}

	recent, err := f.svc.RecentRolls(ctx, "user1", 0)
	require.NoError(t, err)
	require.Len(t, recent, usagedomain.DefaultRecentLimit)
	for i := 1; i < len(recent); i++ {
		assert.True(t, !recent[i].RolledAt.After(recent[i-1].RolledAt))
	}

	three, err := f.svc.RecentRolls(ctx, "user1", 3)
	require.NoError(t, err)
	assert.Len(t, three, 3)
}

func TestRollGate(t *testing.T) {
	tests := []struct {
		name     string
		customer *entitlementdomain.CustomerInfo
		seeded   int
		wantErr  error
	}{
		{name: "feature missing", customer: &entitlementdomain.CustomerInfo{ID: "user1"}, wantErr: usagedomain.ErrFeatureNotIncluded},
		{name: "feature not included", customer: customerWithDice(false, nil), wantErr: usagedomain.ErrFeatureNotIncluded},
		{name: "limit reached", customer: customerWithDice(true, int64Ptr(2)), seeded: 2, wantErr: usagedomain.ErrLimitReached},
		{name: "under limit", customer: customerWithDice(true, int64Ptr(2)), seeded: 1},
		{name: "unlimited", customer: customerWithDice(true, nil), seeded: 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			f.ent.On("Customer", mock.Anything, "user1").Return(tc.customer, nil)

			for i := 0; i < tc.seeded; i++ {
				_, err := f.svc.AddRoll(ctx, "user1", []int{1})
				require.NoError(t, err)
			}

			roll, usage, err := f.svc.Roll(ctx, usagedomain.RollRequest{UserID: "user1"})
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, roll)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []int{3, 3}, []int(roll.Result))
			assert.Equal(t, int64(tc.seeded+1), usage.UsageCount)
			assert.Equal(t, roll.ID, usage.RecentRolls[0].ID)
			if usage.Limit != nil {
				require.NotNil(t, usage.Remaining)
				assert.Equal(t, *usage.Limit-usage.UsageCount, *usage.Remaining)
			} else {
				assert.True(t, usage.Unlimited)
			}
		})
	}
}

func TestRollRejectsDiceCount(t *testing.T) {
	f := newFixture(t)
	for _, count := range []int{-1, 7} {
		_, _, err := f.svc.Roll(context.Background(), usagedomain.RollRequest{UserID: "user1", Count: count})
		assert.ErrorIs(t, err, usagedomain.ErrInvalidDiceCount)
	}
}

func TestUsageRemainingNeverNegative(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.ent.On("Customer", mock.Anything, "user1").Return(customerWithDice(true, int64Ptr(1)), nil)

	for i := 0; i < 3; i++ {
		_, err := f.svc.AddRoll(ctx, "user1", []int{1})
		require.NoError(t, err)
	}

	usage, err := f.svc.Usage(ctx, "user1")
	require.NoError(t, err)
	require.NotNil(t, usage.Remaining)
	assert.Zero(t, *usage.Remaining)
	assert.False(t, usage.Allowed())
}

func TestClearUserRollsKeepsOtherMonths(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddRoll(ctx, "user1", []int{1})
	require.NoError(t, err)
	f.clock.Set(time.Date(2025, time.April, 2, 0, 0, 0, 0, time.UTC))
	_, err = f.svc.AddRoll(ctx, "user1", []int{2})
	require.NoError(t, err)
	_, err = f.svc.AddRoll(ctx, "user2", []int{3})
	require.NoError(t, err)

	deleted, err := f.svc.ClearUserRolls(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining int64
	require.NoError(t, f.db.Model(&usagedomain.DiceRoll{}).Count(&remaining).Error)
	assert.Equal(t, int64(2), remaining)
}

func TestUsageWithoutVendorCustomer(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "unknown customer", err: entitlementdomain.ErrCustomerNotFound},
		{name: "vendor unavailable", err: fmt.Errorf("%w: atlas offline", entitlementdomain.ErrSourceUnavailable)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			f.ent.On("Customer", mock.Anything, "user1").Return(nil, tc.err)

			_, err := f.svc.AddRoll(ctx, "user1", []int{4, 5})
			require.NoError(t, err)

			usage, err := f.svc.Usage(ctx, "user1")
			require.NoError(t, err)
			assert.False(t, usage.Included)
			assert.Equal(t, int64(1), usage.UsageCount)
			require.Len(t, usage.RecentRolls, 1)
			assert.Equal(t, 9, usage.RecentRolls[0].Sum())
		})
	}
}

func TestRollWithoutVendorCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.ent.On("Customer", mock.Anything, "user1").Return(nil, entitlementdomain.ErrCustomerNotFound).Once()
	f.ent.On("Customer", mock.Anything, "user1").Return(nil, entitlementdomain.ErrSourceUnavailable).Once()

	_, _, err := f.svc.Roll(ctx, usagedomain.RollRequest{UserID: "user1"})
	assert.ErrorIs(t, err, usagedomain.ErrFeatureNotIncluded)

	_, _, err = f.svc.Roll(ctx, usagedomain.RollRequest{UserID: "user1"})
	assert.ErrorIs(t, err, entitlementdomain.ErrSourceUnavailable)

	count, err := f.svc.RollCount(ctx, "user1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestConcurrentRollsStayWithinLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.ent.On("Customer", mock.Anything, "user1").Return(customerWithDice(true, int64Ptr(2)), nil)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, usage, err := f.svc.Roll(ctx, usagedomain.RollRequest{UserID: "user1"})
			if err != nil {
				assert.ErrorIs(t, err, usagedomain.ErrLimitReached)
				return
			}
			assert.LessOrEqual(t, usage.UsageCount, int64(2))
			mu.Lock()
			granted++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, granted)
	count, err := f.svc.RollCount(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
