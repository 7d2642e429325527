package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// MongoDB configuration.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Redis configuration.
	RedisAddr            string `mapstructure:"REDIS_ADDR"`
	RedisPassword        string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB       int    `mapstructure:"REDIS_SESSION_DB"`
	RedisReminderQueueDB int    `mapstructure:"REDIS_REMINDER_QUEUE_DB"`
	SessionTTLMinutes    int    `mapstructure:"SESSION_TTL_MINUTES"`

	// Telegram bot configuration.
	TelegramToken string `mapstructure:"TELEGRAM_TOKEN"`

	// Gemini (booking agent) configuration.
	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel  string `mapstructure:"GEMINI_MODEL"`

	// Google Calendar configuration.
	GoogleCredentialsFile string `mapstructure:"GOOGLE_CREDENTIALS_FILE"`
	CalendarID            string `mapstructure:"CALENDAR_ID"`
	CalendarTimezone      string `mapstructure:"CALENDAR_TIMEZONE"`

	// Booking policy.
	BookingWindowDays      int    `mapstructure:"BOOKING_WINDOW_DAYS"`
	DefaultSessionMinutes  int    `mapstructure:"DEFAULT_SESSION_MINUTES"`
	PrivateSessionMinutes  int    `mapstructure:"PRIVATE_SESSION_MINUTES"`
	BufferMinutes          int    `mapstructure:"BUFFER_MINUTES"`
	WorkdayStartHour       int    `mapstructure:"WORKDAY_START_HOUR"`
	WorkdayEndHour         int    `mapstructure:"WORKDAY_END_HOUR"`
	ToolCallTimeoutSeconds int    `mapstructure:"TOOL_CALL_TIMEOUT_SECONDS"`
	ReminderLeadHours      int    `mapstructure:"REMINDER_LEAD_HOURS"`
	WaiverBaseURL          string `mapstructure:"WAIVER_BASE_URL"`
	WaiverSecret           string `mapstructure:"WAIVER_SECRET"`
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
	viper.SetDefault("DATABASE_NAME", "kambo")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_SESSION_DB", 0)
	viper.SetDefault("REDIS_REMINDER_QUEUE_DB", 1)
	viper.SetDefault("SESSION_TTL_MINUTES", 120)
	viper.SetDefault("GEMINI_MODEL", "models/gemini-1.5-pro")
	viper.SetDefault("CALENDAR_ID", "primary")
	viper.SetDefault("CALENDAR_TIMEZONE", "America/Chicago")
	viper.SetDefault("BOOKING_WINDOW_DAYS", 14)
	viper.SetDefault("DEFAULT_SESSION_MINUTES", 60)
	viper.SetDefault("PRIVATE_SESSION_MINUTES", 90)
	viper.SetDefault("BUFFER_MINUTES", 0)
	viper.SetDefault("WORKDAY_START_HOUR", 9)
	viper.SetDefault("WORKDAY_END_HOUR", 18)
	viper.SetDefault("TOOL_CALL_TIMEOUT_SECONDS", 30)
	viper.SetDefault("REMINDER_LEAD_HOURS", 24)
	viper.SetDefault("WAIVER_BASE_URL", "https://kambo-klarity.example.com/waiver")

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

// SessionDurationMinutes maps a session type to its booked duration.
// The mapping is table-driven so new session types only need config changes.
func SessionDurationMinutes(sessionType string) int {
	durations := map[string]int{
		"private": AppConfig.PrivateSessionMinutes,
	}
	if d, ok := durations[sessionType]; ok && d > 0 {
		return d
	}
	if AppConfig.DefaultSessionMinutes > 0 {
		return AppConfig.DefaultSessionMinutes
	}
	return 60
}
