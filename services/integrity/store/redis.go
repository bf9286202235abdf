// Copyright (C) 2025 Fieldlens Labs (oss@fieldlens.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// resultTTL bounds how long a scored result stays retrievable.
const resultTTL = 24 * time.Hour

const resultKeyPrefix = "integrity:result:"

type redisStore struct {
	client *redis.Client
}

// NewRedisStore returns a Redis-backed ResultStore.
func NewRedisStore(client *redis.Client) ResultStore {
	return &redisStore{client: client}
}

func (r *redisStore) Save(ctx context.Context, result *ScoredResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, resultKeyPrefix+result.SessionID, data, resultTTL).Err()
}

func (r *redisStore) Get(ctx context.Context, sessionID string) (*ScoredResult, error) {
	data, err := r.client.Get(ctx, resultKeyPrefix+sessionID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var result ScoredResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *redisStore) Delete(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, resultKeyPrefix+sessionID).Err()
}
