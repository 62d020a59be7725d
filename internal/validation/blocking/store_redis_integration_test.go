//go:build integration

package blocking_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"catchcert/internal/validation/blocking"
	"catchcert/pkg/testutil/containers"
)

type RedisTogglesSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *blocking.RedisToggles
	ctx   context.Context
}

func TestRedisTogglesSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisTogglesSuite))
}

func (s *RedisTogglesSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = blocking.NewRedisToggles(s.redis.Client)
	s.ctx = context.Background()
}

func (s *RedisTogglesSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *RedisTogglesSuite) TestAbsentToggleReadsFalse() {
	enabled, err := s.store.IsBlocking(s.ctx, "3C")
	s.Require().NoError(err)
	s.False(enabled)
}

func (s *RedisTogglesSuite) TestToggleRoundTrip() {
	s.Require().NoError(s.store.SetBlocking(s.ctx, "3C", true))

	enabled, err := s.store.IsBlocking(s.ctx, "3C")
	s.Require().NoError(err)
	s.True(enabled)

	s.Require().NoError(s.store.SetBlocking(s.ctx, "3C", false))

	enabled, err = s.store.IsBlocking(s.ctx, "3C")
	s.Require().NoError(err)
	s.False(enabled)
}

func (s *RedisTogglesSuite) TestEvaluatorAgainstRedis() {
	s.Require().NoError(s.store.SetBlocking(s.ctx, "3D", true))
	evaluator := blocking.New(s.store)

	s.True(evaluator.ShouldBlock(s.ctx, []string{"3D"}))
	s.False(evaluator.ShouldBlock(s.ctx, []string{"3C"}))
	s.True(evaluator.ShouldBlock(s.ctx, []string{"noDataSubmitted"}))
}
