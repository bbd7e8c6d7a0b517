package billing

import (
	"testing"

	"github.com/cofreforte/cofre-backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestUserShare(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		shared *int32
		want   string
	}{
		{"absent shared count", "39.90", nil, "39.9"},
		{"shared with zero", "39.90", int32Ptr(0), "39.9"},
		{"shared with negative", "39.90", int32Ptr(-3), "39.9"},
		{"shared with one", "39.90", int32Ptr(1), "39.9"},
		{"shared with two", "120", int32Ptr(2), "60"},
		{"shared with four", "55.60", int32Ptr(4), "13.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := newSub(tt.value, domain.CycleMonthly)
			sub.SharedWithCount = tt.shared
			assert.True(t, decimal.RequireFromString(tt.want).Equal(UserShare(sub)), "got %s", UserShare(sub))
		})
	}
}

func TestUserShare_MonotonicInSharedCount(t *testing.T) {
	sub := newSub("100", domain.CycleMonthly)
	prev := UserShare(sub)
	for n := int32(1); n <= 10; n++ {
		sub.SharedWithCount = int32Ptr(n)
		share := UserShare(sub)
		assert.True(t, share.LessThanOrEqual(prev), "share grew at count %d", n)
		prev = share
	}
}

func TestUserShare_NilSubscription(t *testing.T) {
	assert.True(t, UserShare(nil).IsZero())
	assert.True(t, MonthlyEquivalent(nil).IsZero())
	assert.True(t, AnnualEquivalent(nil).IsZero())
}

func TestMonthlyEquivalent_MonthlyIsIdentity(t *testing.T) {
	for _, v := range []string{"0", "9.90", "21.90", "55.90", "1000"} {
		sub := newSub(v, domain.CycleMonthly)
		assert.True(t, MonthlyEquivalent(sub).Equal(UserShare(sub)), "value %s", v)
	}
}

func TestMonthlyEquivalent_AnnualRoundTrip(t *testing.T) {
	tests := []struct {
		value  string
		shared int32
	}{
		{"120", 1},
		{"199.20", 1},
		{"1188", 1},
		{"100", 1},
		{"9.99", 1},
		{"39.90", 1},
		{"289.90", 1},
		{"10", 3},
		{"100", 7},
	}

	for _, tt := range tests {
		annual := newSub(tt.value, domain.CycleAnnually)
		annual.SharedWithCount = int32Ptr(tt.shared)
		monthly := MonthlyEquivalent(annual)
		assert.True(t, monthly.Equal(UserShare(annual).Div(decimal.NewFromInt(12))))

		asMonthly := newSub(monthly.String(), domain.CycleMonthly)
		want := UserShare(annual).Round(EquivalentPrecision)
		assert.True(t, AnnualEquivalent(asMonthly).Equal(want),
			"value %s / %d round trip gave %s, want %s", tt.value, tt.shared, AnnualEquivalent(asMonthly), want)
	}
}

func TestAnnualEquivalent_RepeatingShare(t *testing.T) {
	sub := newSub("10", domain.CycleMonthly)
	sub.SharedWithCount = int32Ptr(3)

	assert.Equal(t, "40", AnnualEquivalent(sub).String())
	assert.Equal(t, "100", AnnualEquivalent(newSub("8.3333333333333333", domain.CycleMonthly)).String())
}

func TestShare_AnnualSharedExample(t *testing.T) {
	sub := newSub("120", domain.CycleAnnually)
	sub.SharedWithCount = int32Ptr(2)

	assert.Equal(t, "60", UserShare(sub).String())
	assert.Equal(t, "5", MonthlyEquivalent(sub).String())
	assert.Equal(t, "60", AnnualEquivalent(sub).String())
}

func TestAnnualEquivalent(t *testing.T) {
	monthly := newSub("10", domain.CycleMonthly)
	assert.Equal(t, "120", AnnualEquivalent(monthly).String())

	annual := newSub("99", domain.CycleAnnually)
	assert.Equal(t, "99", AnnualEquivalent(annual).String())
}

func TestUnknownCycleBillsAnnually(t *testing.T) {
	sub := newSub("240", domain.Cycle("weekly"))

	assert.False(t, IsMonthly(sub.Cycle))
	assert.Equal(t, "20", MonthlyEquivalent(sub).String())
	assert.Equal(t, "240", AnnualEquivalent(sub).String())
	assert.Equal(t, date(2025, 1, 15), NextOccurrence(date(2024, 1, 15), sub.Cycle))
}
