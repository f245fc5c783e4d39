package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Mongo configuration.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Redis configuration. Separate logical DBs keep cache evictions,
	// auth entries, idempotency records and the task queue apart.
	RedisAddr          string `mapstructure:"REDIS_ADDR"`
	RedisPassword      string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB       int    `mapstructure:"REDIS_CACHE_DB"`
	RedisAuthDB        int    `mapstructure:"REDIS_AUTH_DB"`
	RedisIdempotencyDB int    `mapstructure:"REDIS_IDEMPOTENCY_DB"`
	RedisAsynqDB       int    `mapstructure:"REDIS_ASYNQ_DB"`

	// Payment gateway.
	StripeSecretKey string `mapstructure:"STRIPE_SECRET_KEY"`

	// Platform fee charged on top of the consultation fee, in percent.
	PlatformFeePercent float64 `mapstructure:"PLATFORM_FEE_PERCENT"`

	// RefundWindows is the cancellation policy table as
	// "leadMinutes:percent" pairs, e.g. "1440:100,360:75,60:50,0:0".
	RefundWindows string `mapstructure:"REFUND_WINDOWS"`

	// Scheduling engine knobs.
	TimeZone                string `mapstructure:"TIME_ZONE"`
	ReservationTTLMinutes   int    `mapstructure:"RESERVATION_TTL_MINUTES"`
	SweepIntervalSeconds    int    `mapstructure:"SWEEP_INTERVAL_SECONDS"`
	NoShowGraceMinutes      int    `mapstructure:"NOSHOW_GRACE_MINUTES"`
	NoShowSweepIntervalMins int    `mapstructure:"NOSHOW_SWEEP_INTERVAL_MINUTES"`
	HorizonDays             int    `mapstructure:"HORIZON_DAYS"`
	MaterializeIntervalHrs  int    `mapstructure:"MATERIALIZE_INTERVAL_HOURS"`
	ReminderLeadMinutes     int    `mapstructure:"REMINDER_LEAD_MINUTES"`
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
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "roza")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_AUTH_DB", 1)
	viper.SetDefault("REDIS_IDEMPOTENCY_DB", 2)
	viper.SetDefault("REDIS_ASYNQ_DB", 3)
	viper.SetDefault("STRIPE_SECRET_KEY", "")
	viper.SetDefault("PLATFORM_FEE_PERCENT", 10.0)
	viper.SetDefault("REFUND_WINDOWS", "1440:100,360:75,60:50,0:0")
	viper.SetDefault("TIME_ZONE", "Asia/Kolkata")
	viper.SetDefault("RESERVATION_TTL_MINUTES", 30)
	viper.SetDefault("SWEEP_INTERVAL_SECONDS", 60)
	viper.SetDefault("NOSHOW_GRACE_MINUTES", 30)
	viper.SetDefault("NOSHOW_SWEEP_INTERVAL_MINUTES", 10)
	viper.SetDefault("HORIZON_DAYS", 30)
	viper.SetDefault("MATERIALIZE_INTERVAL_HOURS", 6)
	viper.SetDefault("REMINDER_LEAD_MINUTES", 120)

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
