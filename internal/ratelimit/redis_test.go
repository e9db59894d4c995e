package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

type RedisLimiterTestSuite struct {
	suite.Suite
	server  *miniredis.Miniredis
	client  *redis.Client
	limiter *RedisLimiter
	ctx     context.Context
}

func (s *RedisLimiterTestSuite) SetupTest() {
	s.server = miniredis.RunT(s.T())
	s.client = redis.NewClient(&redis.Options{Addr: s.server.Addr()})
	s.limiter = NewRedisLimiter(s.client, 5, time.Second)
	s.ctx = context.Background()
}

func (s *RedisLimiterTestSuite) TearDownTest() {
	s.client.Close()
}

func (s *RedisLimiterTestSuite) TestBoundaryAndReset() {
	for i := 1; i <= 5; i++ {
		d, err := s.limiter.Allow(s.ctx, "10.0.0.1")
		s.Require().NoError(err)
		s.True(d.Allowed, "request %d", i)
		s.Equal(5-i, d.Remaining)
	}

	d, err := s.limiter.Allow(s.ctx, "10.0.0.1")
	s.Require().NoError(err)
	s.False(d.Allowed)
	s.Greater(d.RetryAfter, time.Duration(0))

	count, err := s.server.Get("rate_limit:client:10.0.0.1")
	s.Require().NoError(err)
	s.Equal("5", count, "rejections leave the counter clamped")

	s.server.FastForward(time.Second)

	d, err = s.limiter.Allow(s.ctx, "10.0.0.1")
	s.Require().NoError(err)
	s.True(d.Allowed)
	s.Equal(4, d.Remaining)
}

func (s *RedisLimiterTestSuite) TestKeysCarryTTL() {
	_, err := s.limiter.Allow(s.ctx, "10.0.0.2")
	s.Require().NoError(err)

	ttl := s.server.TTL("rate_limit:client:10.0.0.2")
	s.Equal(time.Second, ttl)
}

func (s *RedisLimiterTestSuite) TestRedisUnavailable() {
	s.server.Close()

	_, err := s.limiter.Allow(s.ctx, "10.0.0.3")
	s.Error(err)
}

func TestRedisLimiterTestSuite(t *testing.T) {
	suite.Run(t, new(RedisLimiterTestSuite))
}
