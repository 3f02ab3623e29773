package registry

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"lifeledger/pkg/domain"
	"lifeledger/pkg/platform/sentinel"
)

const (
	adminKey     = "registry:admin"
	banksKey     = "registry:banks"
	hospitalsKey = "registry:hospitals"
)

// RedisStore shares role assignments across instances. The admin lives under a
// plain key written with SETNX; banks and hospitals are Redis sets.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Admin(ctx context.Context) (domain.Address, error) {
	val, err := s.client.Get(ctx, adminKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return domain.Address(val), nil
}

func (s *RedisStore) SetAdmin(ctx context.Context, admin domain.Address) error {
	// SETNX keeps first-writer-wins semantics across concurrent initializers.
	set, err := s.client.SetNX(ctx, adminKey, admin.String(), 0).Result()
	if err != nil {
		return err
	}
	if !set {
		return sentinel.ErrAlreadyExists
	}
	return nil
}

func (s *RedisStore) AddBank(ctx context.Context, bank domain.Address) error {
	return s.client.SAdd(ctx, banksKey, bank.String()).Err()
}

func (s *RedisStore) HasBank(ctx context.Context, bank domain.Address) (bool, error) {
	return s.client.SIsMember(ctx, banksKey, bank.String()).Result()
}

func (s *RedisStore) AddHospital(ctx context.Context, hospital domain.Address) error {
	return s.client.SAdd(ctx, hospitalsKey, hospital.String()).Err()
}

func (s *RedisStore) RemoveHospital(ctx context.Context, hospital domain.Address) error {
	return s.client.SRem(ctx, hospitalsKey, hospital.String()).Err()
}

func (s *RedisStore) HasHospital(ctx context.Context, hospital domain.Address) (bool, error) {
	return s.client.SIsMember(ctx, hospitalsKey, hospital.String()).Result()
}
