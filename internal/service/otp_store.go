package service

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const otpKeyPrefix = "login:otp:"

// OTPChallenge 一次待验证的二次登录挑战
type OTPChallenge struct {
	ID       string
	SellerID int64
	Email    string
	CodeHash string
	Attempts int
	Resends  int
	SentAt   time.Time
}

// OTPStore 保存登录挑战直到验证成功或过期
type OTPStore interface {
	Save(ctx context.Context, ch OTPChallenge, ttl time.Duration) error
	// Get 挑战不存在或已过期时返回 (nil, nil)
	Get(ctx context.Context, id string) (*OTPChallenge, error)
	IncrAttempts(ctx context.Context, id string) (int, error)
	Delete(ctx context.Context, id string) error
}

// RedisOTPStore 以 hash 存储挑战，过期交给 Redis TTL
type RedisOTPStore struct {
	rdb redis.UniversalClient
}

func NewRedisOTPStore(rdb redis.UniversalClient) *RedisOTPStore {
	return &RedisOTPStore{rdb: rdb}
}

func (s *RedisOTPStore) Save(ctx context.Context, ch OTPChallenge, ttl time.Duration) error {
	key := otpKeyPrefix + ch.ID
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"sellerId", ch.SellerID,
			"email", ch.Email,
			"codeHash", ch.CodeHash,
			"attempts", ch.Attempts,
			"resends", ch.Resends,
			"sentAt", ch.SentAt.Unix(),
		)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	return err
}

func (s *RedisOTPStore) Get(ctx context.Context, id string) (*OTPChallenge, error) {
	fields, err := s.rdb.HGetAll(ctx, otpKeyPrefix+id).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	sellerID, _ := strconv.ParseInt(fields["sellerId"], 10, 64)
	attempts, _ := strconv.Atoi(fields["attempts"])
	resends, _ := strconv.Atoi(fields["resends"])
	sentAt, _ := strconv.ParseInt(fields["sentAt"], 10, 64)
	return &OTPChallenge{
		ID:       id,
		SellerID: sellerID,
		Email:    fields["email"],
		CodeHash: fields["codeHash"],
		Attempts: attempts,
		Resends:  resends,
		SentAt:   time.Unix(sentAt, 0),
	}, nil
}

func (s *RedisOTPStore) IncrAttempts(ctx context.Context, id string) (int, error) {
	n, err := s.rdb.HIncrBy(ctx, otpKeyPrefix+id, "attempts", 1).Result()
	return int(n), err
}

func (s *RedisOTPStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, otpKeyPrefix+id).Err()
}
