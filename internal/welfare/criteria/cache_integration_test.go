//go:build integration

package criteria_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"welfarehub/internal/welfare/criteria"
	"welfarehub/internal/welfare/models"
	"welfarehub/pkg/testutil/containers"
)

func TestRedisCache(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	rc := containers.GetManager().GetRedis(t)
	ctx := context.Background()
	require.NoError(t, rc.FlushAll(ctx))

	cache := criteria.NewRedisCache(rc.Client, time.Minute)

	miss, err := cache.Get(ctx, "fp-1")
	require.NoError(t, err)
	require.Nil(t, miss)

	age := 30
	want := &models.FilterCriteria{IncludeKeywords: []string{"청년"}, MaxAge: &age, Source: models.CriteriaSourceAI}
	require.NoError(t, cache.Set(ctx, "fp-1", want))

	got, err := cache.Get(ctx, "fp-1")
	require.NoError(t, err)
	require.Equal(t, want, got)

	ttl, err := rc.Client.TTL(ctx, "welfare:criteria:fp-1").Result()
	require.NoError(t, err)
	require.Greater(t, ttl, 50*time.Second)
}
