package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/classcast/classcast/pkg/pubsub"
)

// RedisConfig holds Redis connection configuration for the presence store.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// redisPresenceStore implements PresenceStore using Redis.
//
// Key patterns:
//
//	presence:session:{session_id}:members          SET<member_id>
//	presence:session:{session_id}:member:{id}      STRING<json Member>, with TTL
type redisPresenceStore struct {
	client *redis.Client
}

// NewRedisPresenceStore creates a new Redis-backed presence store.
func NewRedisPresenceStore(cfg RedisConfig) (PresenceStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisPresenceStore{client: client}, nil
}

func membersKey(sessionID string) string {
	return fmt.Sprintf("presence:session:%s:members", sessionID)
}

func memberKey(sessionID, memberID string) string {
	return fmt.Sprintf("presence:session:%s:member:%s", sessionID, memberID)
}

func (s *redisPresenceStore) AddMember(ctx context.Context, sessionID string, member pubsub.Member, ttl time.Duration) error {
	data, err := json.Marshal(member)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, membersKey(sessionID), member.ID)
	pipe.Set(ctx, memberKey(sessionID, member.ID), data, ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *redisPresenceStore) RemoveMember(ctx context.Context, sessionID, memberID string) error {
	pipe := s.client.TxPipeline()
	pipe.SRem(ctx, membersKey(sessionID), memberID)
	pipe.Del(ctx, memberKey(sessionID, memberID))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *redisPresenceStore) SetHandRaised(ctx context.Context, sessionID, memberID string, raised bool) error {
	key := memberKey(sessionID, memberID)

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil // member already gone, nothing to merge into
		}
		return err
	}

	var member pubsub.Member
	if err := json.Unmarshal(data, &member); err != nil {
		return err
	}
	member.HandRaised = raised

	updated, err := json.Marshal(member)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, updated, redis.KeepTTL).Err()
}

func (s *redisPresenceStore) ListMembers(ctx context.Context, sessionID string) ([]pubsub.Member, error) {
	ids, err := s.client.SMembers(ctx, membersKey(sessionID)).Result()
	if err != nil {
		return nil, err
	}

	members := make([]pubsub.Member, 0, len(ids))
	for _, memberID := range ids {
		data, err := s.client.Get(ctx, memberKey(sessionID, memberID)).Bytes()
		if err != nil {
			if err == redis.Nil {
				// Expired member info: drop the stale set entry.
				s.client.SRem(ctx, membersKey(sessionID), memberID)
				continue
			}
			return nil, err
		}

		var member pubsub.Member
		if err := json.Unmarshal(data, &member); err != nil {
			continue
		}
		members = append(members, member)
	}

	return members, nil
}

func (s *redisPresenceStore) Count(ctx context.Context, sessionID string) (int, error) {
	n, err := s.client.SCard(ctx, membersKey(sessionID)).Result()
	return int(n), err
}

func (s *redisPresenceStore) Close() error {
	return s.client.Close()
}
