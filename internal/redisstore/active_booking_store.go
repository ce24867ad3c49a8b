package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultDialTimeout  = 5 * time.Second
	defaultReadTimeout  = 3 * time.Second
	defaultWriteTimeout = 3 * time.Second
)

// ErrCacheMiss indicates no cached active booking for the user.
var ErrCacheMiss = errors.New("redisstore: cache miss")

// NewRedisClient returns a configured go-redis client and validates the
// connection with PING.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("redisstore: addr is empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  defaultDialTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), defaultDialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}

// ActiveBooking is the cached shape of a user's open booking.
type ActiveBooking struct {
	BookingID int64     `json:"booking_id"`
	SpotID    int64     `json:"spot_id"`
	StartTime time.Time `json:"start_time"`
}

// ActiveBookingStore caches each user's open booking for quick lookups.
type ActiveBookingStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewActiveBookingStore returns redis-backed store.
func NewActiveBookingStore(client *redis.Client, ttl time.Duration) *ActiveBookingStore {
	return &ActiveBookingStore{client: client, ttl: ttl}
}

func (s *ActiveBookingStore) key(userUID string) string {
	return fmt.Sprintf("bookings:active:%s", userUID)
}

// Save caches the user's open booking.
func (s *ActiveBookingStore) Save(ctx context.Context, userUID string, booking ActiveBooking) error {
	data, err := json.Marshal(booking)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(userUID), data, s.ttl).Err()
}

// Get returns the cached booking, or ErrCacheMiss.
func (s *ActiveBookingStore) Get(ctx context.Context, userUID string) (*ActiveBooking, error) {
	result, err := s.client.Get(ctx, s.key(userUID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	var booking ActiveBooking
	if err := json.Unmarshal([]byte(result), &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// Delete drops the cached booking.
func (s *ActiveBookingStore) Delete(ctx context.Context, userUID string) error {
	return s.client.Del(ctx, s.key(userUID)).Err()
}
