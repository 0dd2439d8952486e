package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cognibank/cognibank/handlers"
	"github.com/cognibank/cognibank/internal/auth"
	"github.com/cognibank/cognibank/internal/auth/cognito"
	"github.com/cognibank/cognibank/internal/auth/testauth"
	"github.com/cognibank/cognibank/internal/config"
	"github.com/cognibank/cognibank/internal/database"
	"github.com/cognibank/cognibank/internal/users"
	"github.com/cognibank/cognibank/pkg/logger"
	"github.com/cognibank/cognibank/pkg/metrics"
	"github.com/cognibank/cognibank/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// logging first (LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: testAuth=%v mongo=%v redis=%v",
		cfg.TestAuth.Enabled, cfg.MongoDB.URI != "", cfg.Redis.Host != "")

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Lightweight CORS middleware for dev/test. Production should use a
	// stricter policy.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})

	ctx := context.Background()

	// Redis is optional; only the distributed rate limiter uses it.
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			logger.Infof("connected to Redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimit(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// metrics
	registry := prometheus.NewRegistry()
	metrics.RegisterCollectors(registry)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// user directory: Mongo when configured, in-memory otherwise
	var directory users.Directory
	if cfg.MongoDB.URI != "" {
		client := connectMongoWithRetry(ctx, cfg)
		defer func() { _ = client.Disconnect(ctx) }()
		col := client.Database(cfg.MongoDB.Database).Collection("users")
		directory = users.NewMongoDirectory(col, cfg.Banking.InitialBalance)
		logger.Infof("using MongoDB user directory (db=%s)", cfg.MongoDB.Database)
	} else {
		directory = users.NewMemoryDirectory(cfg.Banking.InitialBalance)
		logger.Warn("using in-memory user directory; all users are lost on restart")
	}

	// identity provider + claims resolver: Cognito or the deterministic
	// test variant, selected by configuration
	var provider auth.IdentityProvider
	var resolver middleware.ClaimsResolver
	if cfg.TestAuth.Enabled {
		logger.Warn("test auth enabled; do not use in production")
		provider = testauth.NewProvider(testauth.Config{
			Password:           cfg.TestAuth.Password,
			TokenLifespan:      cfg.TestAuth.TokenLifespan,
			RefreshTokenPrefix: cfg.TestAuth.RefreshTokenPrefix,
		})
		resolver = testauth.NewClaimsResolver(directory)
	} else {
		cognitoCfg := cognito.Config{
			Region:          cfg.Cognito.Region,
			UserPoolID:      cfg.Cognito.UserPoolID,
			ClientID:        cfg.Cognito.ClientID,
			AccessKeyID:     cfg.Cognito.AccessKeyID,
			SecretAccessKey: cfg.Cognito.SecretAccessKey,
		}
		provider = cognito.NewProvider(cognitoCfg)
		cognitoResolver, err := cognito.NewClaimsResolver(ctx, cognitoCfg, directory)
		if err != nil {
			logger.Fatalf("failed to initialize cognito claims resolver: %v", err)
		}
		resolver = cognitoResolver
	}

	handlers.RegisterRoutes(r, auth.NewService(provider, directory), directory, resolver)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness: 200 only when critical dependencies are available
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		deps["auth"] = resolver != nil
		deps["directory"] = directory != nil

		if cfg.RateLimit.Enabled && cfg.RateLimit.UseRedis {
			deps["redis"] = redisClient != nil
			if redisClient == nil {
				ready = false
			}
		} else {
			deps["redis"] = true
		}

		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "not_ready"
		}
		c.JSON(status, gin.H{"status": state, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	logger.Infof("cognibank server listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server error: %v", err)
	}
}

// connectMongoWithRetry tolerates startup races with the database container.
func connectMongoWithRetry(ctx context.Context, cfg *config.Config) *mongo.Client {
	const maxAttempts = 5
	backoff := time.Second
	for attempt := 1; ; attempt++ {
		client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		if err == nil {
			return client
		}
		if attempt == maxAttempts {
			logger.Fatalf("could not connect to MongoDB after %d attempts: %v", maxAttempts, err)
		}
		logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, err)
		time.Sleep(backoff)
		backoff *= 2
	}
}
