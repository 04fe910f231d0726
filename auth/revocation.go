package auth

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// revokedKeyFmt is the redis key holding a revoked token ID. Entries are
// written by the auth backend with a TTL matching the token's remaining
// lifetime, so the set cleans itself up.
const revokedKeyFmt = "revoked:%s"

// RedisRevocationStore checks token revocation against a redis instance
// shared across all gateway instances.
type RedisRevocationStore struct {
	Client *redis.Client
}

// IsRevoked reports whether the token ID is present in the revocation set.
func (s *RedisRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.Client.Exists(ctx, fmt.Sprintf(revokedKeyFmt, tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
