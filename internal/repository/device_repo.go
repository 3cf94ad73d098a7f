package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Device tokens live in Redis rather than Postgres: they churn with every
// reinstall and losing them only costs a push.
const deviceTokenTTL = 90 * 24 * time.Hour

type DeviceRepository struct {
	rdb *redis.Client
}

func NewDeviceRepository(rdb *redis.Client) *DeviceRepository {
	return &DeviceRepository{rdb: rdb}
}

func deviceKey(userID uuid.UUID) string {
	return fmt.Sprintf("careconnect:devices:%s", userID)
}

func (r *DeviceRepository) Register(userID uuid.UUID, token string) error {
	ctx := context.Background()
	key := deviceKey(userID)
	if err := r.rdb.SAdd(ctx, key, token).Err(); err != nil {
		return err
	}
	return r.rdb.Expire(ctx, key, deviceTokenTTL).Err()
}

func (r *DeviceRepository) Remove(userID uuid.UUID, token string) error {
	return r.rdb.SRem(context.Background(), deviceKey(userID), token).Err()
}

func (r *DeviceRepository) Tokens(userID uuid.UUID) ([]string, error) {
	return r.rdb.SMembers(context.Background(), deviceKey(userID)).Result()
}
