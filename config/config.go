package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration. The job cache MUST live on DB 0 because the
	// relay subscriber listens on the __keyevent@0__:expired channel.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisJobDB    int    `mapstructure:"REDIS_JOB_DB"`
	RedisAuthDB   int    `mapstructure:"REDIS_AUTH_DB"`
	RedisOTPDB    int    `mapstructure:"REDIS_OTP_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Platform fee basis. Changing these does not reprice past jobs; the
	// fee breakdown is frozen on each transaction record.
	PlatformFeePercent float64 `mapstructure:"PLATFORM_FEE_PERCENT"`
	GSTPercent         float64 `mapstructure:"GST_PERCENT"`

	// Job notification cache tuning (seconds).
	JobCacheExpirySecs int `mapstructure:"JOB_CACHE_EXPIRY_SECS"`
	JobRelayExpirySecs int `mapstructure:"JOB_RELAY_EXPIRY_SECS"`

	// Local business time zone; drives task_id day boundaries and the
	// midnight sweep schedule.
	TimeZone string `mapstructure:"TIME_ZONE"`

	// Auth token lifetime in hours (default 30 days).
	TokenExpiryHours int `mapstructure:"TOKEN_EXPIRY_HOURS"`

	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`

	StripeKey           string `mapstructure:"STRIPE_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_JOB_DB", 0)
	viper.SetDefault("REDIS_AUTH_DB", 1)
	viper.SetDefault("REDIS_OTP_DB", 2)
	viper.SetDefault("REDIS_QUEUE_DB", 3)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "workerlly")
	viper.SetDefault("PLATFORM_FEE_PERCENT", 20.0)
	viper.SetDefault("GST_PERCENT", 18.0)
	viper.SetDefault("JOB_CACHE_EXPIRY_SECS", 360)
	viper.SetDefault("JOB_RELAY_EXPIRY_SECS", 120)
	viper.SetDefault("TIME_ZONE", "Asia/Kolkata")
	viper.SetDefault("TOKEN_EXPIRY_HOURS", 720)
	viper.SetDefault("FIREBASE_CREDENTIALS_FILE", "./firebase-service-account.json")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
