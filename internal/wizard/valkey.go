// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package wizard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultStateTTL is how long an idle posting session is kept.
	DefaultStateTTL = 48 * time.Hour

	stateKeyPrefix = "wizard:"
)

// ValkeyStore keeps posting sessions in Valkey as JSON with a sliding TTL.
type ValkeyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewValkeyStore creates a state store backed by the given Valkey client.
func NewValkeyStore(client *redis.Client, ttl time.Duration) *ValkeyStore {
	if ttl == 0 {
		ttl = DefaultStateTTL
	}
	return &ValkeyStore{client: client, ttl: ttl}
}

// Load returns the session state, or nil if none exists.
func (s *ValkeyStore) Load(ctx context.Context, sessionID string) (*State, error) {
	payload, err := s.client.Get(ctx, stateKeyPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("wizard state get: %w", err)
	}

	var st State
	if err := json.Unmarshal(payload, &st); err != nil {
		return nil, fmt.Errorf("wizard state unmarshal: %w", err)
	}
	return &st, nil
}

// Save stores the session state and resets its TTL.
func (s *ValkeyStore) Save(ctx context.Context, st *State) error {
	st.UpdatedAt = time.Now()
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("wizard state marshal: %w", err)
	}
	if err := s.client.Set(ctx, stateKeyPrefix+st.SessionID, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("wizard state set: %w", err)
	}
	return nil
}

// Delete removes the session state.
func (s *ValkeyStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, stateKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("wizard state delete: %w", err)
	}
	return nil
}
