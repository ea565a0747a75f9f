// pkg/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"olympiad-platform/internal/models"
)

type RedisCache struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisCache(addr string) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &RedisCache{
		client: client,
		ctx:    context.Background(),
	}
}

// LeaderboardKey builds the cache key for one ranking tuple.
func LeaderboardKey(editionID uint, level models.EducationLevel, subject string, stage models.Stage) string {
	return fmt.Sprintf("leaderboard:%d:%s:%s:%s", editionID, level, subject, stage)
}

// SetLeaderboard overwrites the cached leaderboard for a ranking tuple.
// Called after every recompute, so the cache never holds a partial set.
func (c *RedisCache) SetLeaderboard(key string, entries []models.RankingEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return c.client.Set(c.ctx, key, data, 24*time.Hour).Err()
}

func (c *RedisCache) GetLeaderboard(key string) ([]models.RankingEntry, error) {
	data, err := c.client.Get(c.ctx, key).Bytes()
	if err != nil {
		return nil, err
	}

	var entries []models.RankingEntry
	err = json.Unmarshal(data, &entries)
	return entries, err
}

func (c *RedisCache) InvalidateLeaderboard(key string) error {
	return c.client.Del(c.ctx, key).Err()
}

// RecordTopScores mirrors the leaderboard into a ZSET keyed by
// registration number, used by the marketing site for quick top-N pulls
// without deserializing the full entry set.
func (c *RedisCache) RecordTopScores(key string, entries []models.RankingEntry) error {
	zkey := key + ":scores"

	pipe := c.client.Pipeline()
	pipe.Del(c.ctx, zkey)
	for _, entry := range entries {
		pipe.ZAdd(c.ctx, zkey, &redis.Z{
			Score:  float64(entry.Score),
			Member: entry.RegistrationNo,
		})
	}
	pipe.Expire(c.ctx, zkey, 24*time.Hour)

	_, err := pipe.Exec(c.ctx)
	return err
}

// TopScores returns the top-n (registration number, score) pairs.
func (c *RedisCache) TopScores(key string, n int64) (map[string]int, error) {
	zkey := key + ":scores"
	results, err := c.client.ZRevRangeWithScores(c.ctx, zkey, 0, n-1).Result()
	if err != nil {
		return nil, err
	}

	scores := make(map[string]int, len(results))
	for _, z := range results {
		scores[z.Member.(string)] = int(z.Score)
	}
	return scores, nil
}
