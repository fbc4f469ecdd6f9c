package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	apperrors "github.com/yourusername/accounts-api/internal/pkg/errors"
)

const resetTokenKeyPrefix = "pwdreset:"

// ResetTokenRepo implements repository.ResetTokenRepository on Redis.
// TTL gives the time limit for free; GETDEL makes redemption single-use
// without any locking on our side.
type ResetTokenRepo struct {
	client redis.UniversalClient
	ctx    context.Context
}

// NewResetTokenRepo creates the repository and fails on a nil client.
func NewResetTokenRepo(client redis.UniversalClient) (*ResetTokenRepo, error) {
	if client == nil {
		return nil, fmt.Errorf("Redis client cannot be nil for ResetTokenRepo")
	}
	return &ResetTokenRepo{
		client: client,
		ctx:    context.Background(),
	}, nil
}

// Store saves the token with the given lifetime.
func (r *ResetTokenRepo) Store(token string, userID uuid.UUID, ttl time.Duration) error {
	return r.client.Set(r.ctx, resetTokenKeyPrefix+token, userID.String(), ttl).Err()
}

// Consume returns the owner of the token and deletes it in one round trip.
// Expired keys are gone from Redis already, so expiry and unknown collapse
// into the same ErrNotFound.
func (r *ResetTokenRepo) Consume(token string) (uuid.UUID, error) {
	val, err := r.client.GetDel(r.ctx, resetTokenKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, apperrors.ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to consume reset token: %w", err)
	}
	userID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("corrupt reset token payload: %w", err)
	}
	return userID, nil
}
