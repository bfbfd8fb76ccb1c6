package highlow

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
)

// Test d'integrazione: contratto dello store su un Redis reale.
func TestRedisStoreContract(t *testing.T) {
	addr := os.Getenv("HIGHLOW_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("HIGHLOW_TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("ping redis: %v", err)
	}

	runStoreContract(t, NewRedisStore(client, 64))
}
