package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	TimeZone    string `envconfig:"APP_TIMEZONE" default:"Local"`

	SchedulerInterval   time.Duration `envconfig:"SCHEDULER_INTERVAL" default:"60s"`
	ReminderWindowStart time.Duration `envconfig:"REMINDER_WINDOW_START" default:"0s"`
	ReminderWindowEnd   time.Duration `envconfig:"REMINDER_WINDOW_END" default:"1h"`
	FeedbackWindowStart time.Duration `envconfig:"FEEDBACK_WINDOW_START" default:"-60m"`
	FeedbackWindowEnd   time.Duration `envconfig:"FEEDBACK_WINDOW_END" default:"-15m"`
	ShutdownTimeout     time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`

	UltraMsgInstanceID string `envconfig:"ULTRAMSG_INSTANCE_ID"`
	UltraMsgToken      string `envconfig:"ULTRAMSG_TOKEN"`

	BrevoAPIKey     string `envconfig:"BREVO_API_KEY"`
	EmailSender     string `envconfig:"EMAIL_SENDER"`
	EmailSenderName string `envconfig:"EMAIL_SENDER_NAME"`

	RabbitURL      string `envconfig:"RABBIT_URL"`
	NotifyExchange string `envconfig:"NOTIFY_EXCHANGE" default:"notification.exchange"`

	JWTSecret         string `envconfig:"JWT_SECRET" required:"true"`
	AdminUsername     string `envconfig:"ADMIN_USERNAME" default:"admin"`
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`
}

// Load reads .env when present, then the process environment.
func Load() (Config, error) {
	var c Config
	_ = godotenv.Load(".env")

	if err := envconfig.Process("", &c); err != nil {
		return c, fmt.Errorf("load config: %w", err)
	}
	if c.SchedulerInterval <= 0 {
		return c, fmt.Errorf("load config: SCHEDULER_INTERVAL must be positive, got %s", c.SchedulerInterval)
	}
	if c.ReminderWindowEnd <= c.ReminderWindowStart {
		return c, fmt.Errorf("load config: reminder window end %s must be after start %s", c.ReminderWindowEnd, c.ReminderWindowStart)
	}
	if c.FeedbackWindowEnd <= c.FeedbackWindowStart {
		return c, fmt.Errorf("load config: feedback window end %s must be after start %s", c.FeedbackWindowEnd, c.FeedbackWindowStart)
	}
	return c, nil
}

func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

func (c Config) UltraMsgEnabled() bool {
	return c.UltraMsgInstanceID != "" && c.UltraMsgToken != ""
}

func (c Config) EmailEnabled() bool {
	return c.BrevoAPIKey != "" && c.EmailSender != "" && c.EmailSenderName != ""
}
