package exchange

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travelhub/travel-hub/models"
	"github.com/travelhub/travel-hub/services"
	"go.uber.org/zap"
)

func testProfile() *models.UserProfile {
	return &models.UserProfile{
		UserID: "u-7",
		Email:  "sam@corp.example",
		Role:   "finance",
	}
}

func TestIssueAndRedeemOnce(t *testing.T) {
	svc := NewService(Config{TTL: time.Minute}, nil, zap.NewNop())

	code, err := svc.Issue(context.Background(), "bearer-xyz", testProfile(), models.RoleFinanceDesk)
	require.NoError(t, err)
	require.NotEmpty(t, code)

	rec, err := svc.Redeem(context.Background(), code)
	require.NoError(t, err)
	assert.Equal(t, "bearer-xyz", rec.Token)
	assert.Equal(t, "u-7", rec.Profile.UserID)
	assert.Equal(t, models.RoleFinanceDesk, rec.Role)

	// Single use: the second redemption must fail.
	_, err = svc.Redeem(context.Background(), code)
	assert.ErrorIs(t, err, services.ErrCodeNotFound)
}

func TestRedeemUnknownCode(t *testing.T) {
	svc := NewService(Config{TTL: time.Minute}, nil, zap.NewNop())
	_, err := svc.Redeem(context.Background(), "no-such-code")
	assert.ErrorIs(t, err, services.ErrCodeNotFound)
}

func TestRedeemExpiredCode(t *testing.T) {
	svc := NewService(Config{TTL: time.Minute}, nil, zap.NewNop())

	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }

	code, err := svc.Issue(context.Background(), "bearer", testProfile(), models.RoleEmployee)
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = svc.Redeem(context.Background(), code)
	assert.ErrorIs(t, err, services.ErrCodeExpired)
}

func TestIssuePurgesExpiredCodes(t *testing.T) {
	svc := NewService(Config{TTL: time.Minute}, nil, zap.NewNop())

	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }
	_, err := svc.Issue(context.Background(), "old", testProfile(), models.RoleEmployee)
	require.NoError(t, err)
	assert.Equal(t, 1, svc.cache.Len())

	svc.now = func() time.Time { return issued.Add(5 * time.Minute) }
	_, err = svc.Issue(context.Background(), "new", testProfile(), models.RoleEmployee)
	require.NoError(t, err)
	assert.Equal(t, 1, svc.cache.Len(), "issue must purge expired codes")
}

func TestCodesAreUnique(t *testing.T) {
	svc := NewService(Config{TTL: time.Minute}, nil, zap.NewNop())
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := svc.Issue(context.Background(), "b", testProfile(), models.RoleEmployee)
		require.NoError(t, err)
		assert.False(t, seen[code])
		seen[code] = true
	}
}

func TestCacheLRUEviction(t *testing.T) {
	c := newCodeCache(2)
	now := time.Now()

	put := func(id string) {
		c.Put(&models.ExchangeCode{Code: id, IssuedAt: now, ExpiresAt: now.Add(time.Minute)})
	}

	put("a")
	put("b")
	put("c") // evicts "a", the least recently used

	assert.Nil(t, c.Take("a"))
	assert.NotNil(t, c.Take("b"))
	assert.NotNil(t, c.Take("c"))
}
