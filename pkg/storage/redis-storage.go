package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/matst80/slask-filterset/pkg/common/jsoncompat"
	"github.com/matst80/slask-filterset/pkg/types"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "filterset:"
	presetsKey = "filterset:presets"
)

// RedisStorage stores each filter set as a json string and keeps the uuids of
// presets in a set.
type RedisStorage struct {
	client *redis.Client
}

func NewRedisStorage(addr, password string, db int) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStorage{client: rdb}
}

func NewRedisStorageWithClient(client *redis.Client) *RedisStorage {
	return &RedisStorage{client: client}
}

func redisKey(uuid string) string {
	return keyPrefix + uuid
}

func (s *RedisStorage) Get(ctx context.Context, id string) (*types.FilterSet, error) {
	data, err := s.client.Get(ctx, redisKey(Key(id))).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	fs := &types.FilterSet{}
	if err = jsoncompat.Unmarshal(data, fs); err != nil {
		return nil, fmt.Errorf("decode filter set %s: %w", id, err)
	}
	return fs, nil
}

func (s *RedisStorage) put(ctx context.Context, fs *types.FilterSet) error {
	data, err := jsoncompat.Marshal(fs)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisKey(fs.UUID), data, 0)
		if fs.IsPreset {
			pipe.SAdd(ctx, presetsKey, fs.UUID)
		}
		return nil
	})
	return err
}

func (s *RedisStorage) Save(ctx context.Context, payload types.SavePayload) (*types.FilterSet, error) {
	fs := payload.ToFilterSet()
	assignIdentity(fs)
	existing, err := s.Get(ctx, fs.UUID)
	switch {
	case err == nil:
		fs.IsPreset = existing.IsPreset
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}
	if err = s.put(ctx, fs); err != nil {
		return nil, err
	}
	return fs, nil
}

func (s *RedisStorage) SavePreset(ctx context.Context, fs *types.FilterSet) (*types.FilterSet, error) {
	preset := fs.Clone()
	preset.IsPreset = true
	assignIdentity(preset)
	if err := s.put(ctx, preset); err != nil {
		return nil, err
	}
	return preset, nil
}

func (s *RedisStorage) ListPresets(ctx context.Context, searchType types.SearchType) ([]types.FilterSet, error) {
	ids, err := s.client.SMembers(ctx, presetsKey).Result()
	if err != nil {
		return nil, err
	}
	presets := make([]types.FilterSet, 0, len(ids))
	for _, id := range ids {
		fs, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if matchesType(fs, searchType) {
			presets = append(presets, *fs)
		}
	}
	return presets, nil
}

func (s *RedisStorage) Close() error {
	return s.client.Close()
}
