//go:build integration

package dedupe_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"hostguard/internal/chat/dedupe"
	"hostguard/pkg/testutil/containers"
)

type RedisDedupeSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestRedisDedupeSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisDedupeSuite))
}

func (s *RedisDedupeSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *RedisDedupeSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisDedupeSuite) TestFirstSeen() {
	ctx := context.Background()
	d := dedupe.NewRedis(s.redis.Client, time.Minute)

	first, err := d.FirstSeen(ctx, "wamid.1")
	s.Require().NoError(err)
	s.True(first)

	again, err := d.FirstSeen(ctx, "wamid.1")
	s.Require().NoError(err)
	s.False(again)

	other, err := d.FirstSeen(ctx, "wamid.2")
	s.Require().NoError(err)
	s.True(other)
}

func (s *RedisDedupeSuite) TestExpiry() {
	ctx := context.Background()
	d := dedupe.NewRedis(s.redis.Client, time.Second)

	_, err := d.FirstSeen(ctx, "wamid.ttl")
	s.Require().NoError(err)
	s.Eventually(func() bool {
		ok, err := d.FirstSeen(ctx, "wamid.ttl")
		return err == nil && ok
	}, 5*time.Second, 200*time.Millisecond)
}
