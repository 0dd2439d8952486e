package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Cognito   CognitoConfig
	TestAuth  TestAuthConfig
	Banking   BankingConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// CognitoConfig identifies the AWS Cognito user pool backing the real auth
// mode. Ignored when TestAuth.Enabled is set.
type CognitoConfig struct {
	Region          string
	UserPoolID      string
	ClientID        string
	AccessKeyID     string
	SecretAccessKey string
}

// TestAuthConfig selects and tunes the deterministic test identity provider.
type TestAuthConfig struct {
	Enabled            bool
	Password           string
	TokenLifespan      time.Duration
	RefreshTokenPrefix string
}

type BankingConfig struct {
	// InitialBalance every signed-up user starts with. Highly unrealistic,
	// but it helps testing.
	InitialBalance int64
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5001")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("TEST_AUTH_PASSWORD", "Password1;")
	viper.SetDefault("TEST_AUTH_TOKEN_LIFESPAN_MINUTES", 10)
	viper.SetDefault("TEST_AUTH_REFRESH_TOKEN_PREFIX", "__refresh_token__")
	viper.SetDefault("BANKING_INITIAL_BALANCE", 1000)
	viper.SetDefault("MONGODB_DATABASE", "cognibank")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("RATE_LIMIT_RPS", 10.0)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Cognito: CognitoConfig{
			Region:          viper.GetString("COGNITO_REGION"),
			UserPoolID:      viper.GetString("COGNITO_USER_POOL_ID"),
			ClientID:        viper.GetString("COGNITO_CLIENT_ID"),
			AccessKeyID:     viper.GetString("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: viper.GetString("AWS_SECRET_ACCESS_KEY"),
		},
		TestAuth: TestAuthConfig{
			Enabled:            viper.GetBool("TEST_AUTH_ENABLED"),
			Password:           viper.GetString("TEST_AUTH_PASSWORD"),
			TokenLifespan:      time.Duration(viper.GetInt("TEST_AUTH_TOKEN_LIFESPAN_MINUTES")) * time.Minute,
			RefreshTokenPrefix: viper.GetString("TEST_AUTH_REFRESH_TOKEN_PREFIX"),
		},
		Banking: BankingConfig{
			InitialBalance: viper.GetInt64("BANKING_INITIAL_BALANCE"),
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       0,
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
	}

	if !cfg.TestAuth.Enabled {
		if cfg.Cognito.Region == "" || cfg.Cognito.UserPoolID == "" || cfg.Cognito.ClientID == "" {
			return nil, fmt.Errorf("COGNITO_REGION, COGNITO_USER_POOL_ID and COGNITO_CLIENT_ID are required unless TEST_AUTH_ENABLED is set")
		}
	}

	return cfg, nil
}
