package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultClaimTTL outlives the longest session so a crashed process cannot
// hold a question forever.
const DefaultClaimTTL = 90 * time.Minute

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisClaimer marks questions as taken by this process so another process
// sharing the same store cannot start a session on them.
type RedisClaimer struct {
	client *redis.Client
	token  string
	ttl    time.Duration
}

func NewRedisClaimer(client *redis.Client, ttl time.Duration) *RedisClaimer {
	if ttl <= 0 {
		ttl = DefaultClaimTTL
	}
	return &RedisClaimer{
		client: client,
		token:  uuid.NewString(),
		ttl:    ttl,
	}
}

func claimKey(questionID int64) string {
	return fmt.Sprintf("question_claim:%d", questionID)
}

func (c *RedisClaimer) Claim(ctx context.Context, questionID int64) (bool, error) {
	ok, err := c.client.SetNX(ctx, claimKey(questionID), c.token, c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim question %d: %w", questionID, err)
	}
	return ok, nil
}

// Release drops the claim only if this process still holds it.
func (c *RedisClaimer) Release(ctx context.Context, questionID int64) error {
	if err := releaseScript.Run(ctx, c.client, []string{claimKey(questionID)}, c.token).Err(); err != nil {
		return fmt.Errorf("release question %d: %w", questionID, err)
	}
	return nil
}
