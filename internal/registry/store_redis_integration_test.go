//go:build integration

package registry_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"lifeledger/internal/registry"
	"lifeledger/pkg/domain"
	"lifeledger/pkg/platform/sentinel"
	"lifeledger/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *registry.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = registry.NewRedisStore(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestAdminFirstWriterWins() {
	ctx := context.Background()

	_, err := s.store.Admin(ctx)
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.store.SetAdmin(ctx, "addr-admin"))
	s.ErrorIs(s.store.SetAdmin(ctx, "addr-usurper"), sentinel.ErrAlreadyExists)

	admin, err := s.store.Admin(ctx)
	s.Require().NoError(err)
	s.Equal(domain.Address("addr-admin"), admin)
}

// TestConcurrentInitialize verifies that concurrent SetAdmin calls elect
// exactly one admin.
func (s *RedisStoreSuite) TestConcurrentInitialize() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var successCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			err := s.store.SetAdmin(ctx, domain.Address(string(rune('a'+n))))
			if err == nil {
				successCount.Add(1)
			} else if !errors.Is(err, sentinel.ErrAlreadyExists) {
				s.T().Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one SetAdmin should win")
}

func (s *RedisStoreSuite) TestBankAndHospitalSets() {
	ctx := context.Background()

	ok, err := s.store.HasBank(ctx, "addr-bank")
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.store.AddBank(ctx, "addr-bank"))
	ok, err = s.store.HasBank(ctx, "addr-bank")
	s.Require().NoError(err)
	s.True(ok)

	// Banks and hospitals live in separate sets.
	ok, err = s.store.HasHospital(ctx, "addr-bank")
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.store.AddHospital(ctx, "addr-hospital"))
	s.Require().NoError(s.store.RemoveHospital(ctx, "addr-hospital"))
	ok, err = s.store.HasHospital(ctx, "addr-hospital")
	s.Require().NoError(err)
	s.False(ok)

	// Removing an absent member is a no-op.
	s.Require().NoError(s.store.RemoveHospital(ctx, "addr-hospital"))
}
