package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// TestEnv holds test environment resources
type TestEnv struct {
	Redis          *goredis.Client
	RedisURL       string
	RedisContainer testcontainers.Container
	Logger         *zap.Logger
	ctx            context.Context
}

var testEnv *TestEnv

// SetupTestEnvironment initializes the test environment with containers
func SetupTestEnvironment(t *testing.T) *TestEnv {
	if testEnv != nil {
		return testEnv
	}

	ctx := context.Background()

	// Check if using external services (CI environment)
	if os.Getenv("REDIS_URL") != "" {
		return setupExternalServices(t, ctx)
	}

	// Use testcontainers for local testing
	return setupContainers(t, ctx)
}

func setupExternalServices(t *testing.T, ctx context.Context) *TestEnv {
	logger, _ := zap.NewDevelopment()

	redisURL := os.Getenv("REDIS_URL")

	opt, err := goredis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("Failed to parse Redis URL: %v", err)
	}

	redisClient := goredis.NewClient(opt)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	testEnv = &TestEnv{
		Redis:    redisClient,
		RedisURL: redisURL,
		Logger:   logger,
		ctx:      ctx,
	}

	return testEnv
}

func setupContainers(t *testing.T, ctx context.Context) *TestEnv {
	logger, _ := zap.NewDevelopment()

	// Start Redis container
	redisContainer, err := tcredis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Failed to start redis container: %v", err)
	}

	redisHost, err := redisContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get redis host: %v", err)
	}

	redisPort, err := redisContainer.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get redis port: %v", err)
	}

	redisURL := fmt.Sprintf("redis://%s:%s", redisHost, redisPort.Port())

	redisClient := goredis.NewClient(&goredis.Options{
		Addr: fmt.Sprintf("%s:%s", redisHost, redisPort.Port()),
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to redis: %v", err)
	}

	testEnv = &TestEnv{
		Redis:          redisClient,
		RedisURL:       redisURL,
		RedisContainer: redisContainer,
		Logger:         logger,
		ctx:            ctx,
	}

	return testEnv
}

// TeardownTestEnvironment cleans up the test environment
func TeardownTestEnvironment(t *testing.T) {
	if testEnv == nil {
		return
	}

	ctx := context.Background()

	if testEnv.Redis != nil {
		testEnv.Redis.Close()
	}

	if testEnv.RedisContainer != nil {
		if err := testEnv.RedisContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate redis container: %v", err)
		}
	}

	testEnv = nil
}

// FlushRedis clears all Redis keys
func FlushRedis(t *testing.T, client *goredis.Client) {
	ctx := context.Background()
	if err := client.FlushAll(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush redis: %v", err)
	}
}
