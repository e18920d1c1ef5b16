package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/adhocore/gronx"
	"go.uber.org/zap"

	"github.com/linesmerrill/clinic-messaging-api/logging"
	"github.com/linesmerrill/clinic-messaging-api/models"
)

// Defaults for the simulated acknowledgement timings and background jobs.
const (
	DefaultDeliveredAfter = time.Second
	DefaultReadAfter      = 1500 * time.Millisecond
	DefaultDividerGap     = 30 * time.Minute
	DefaultSweepSchedule  = "*/1 * * * *"
	DefaultDigestSchedule = "0 8 * * *"
	DefaultSendRPS        = 5
	DefaultSendBurst      = 10
)

// Config holds the project config values
type Config struct {
	URL          string
	DatabaseName string
	BaseURL      string
	Port         string
	LogEnv       string
	JWTSecret    string

	DeliveredAfter time.Duration
	ReadAfter      time.Duration
	DividerGap     time.Duration

	SweepSchedule  string
	DigestSchedule string

	SendgridAPIKey  string
	DigestFromEmail string

	CORSOrigins []string
	SendRPS     float64
	SendBurst   int

	// problems collects values that could not be parsed, reported by Validate.
	problems []string
}

// New sets up all config related services
func New() *Config {
	c := &Config{
		URL:             os.Getenv("DB_URI"),
		DatabaseName:    os.Getenv("DB_NAME"),
		BaseURL:         os.Getenv("BASE_URL"),
		Port:            os.Getenv("PORT"),
		LogEnv:          os.Getenv("LOG_ENV"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		SweepSchedule:   envOr("SWEEP_SCHEDULE", DefaultSweepSchedule),
		DigestSchedule:  envOr("DIGEST_SCHEDULE", DefaultDigestSchedule),
		SendgridAPIKey:  os.Getenv("SENDGRID_API_KEY"),
		DigestFromEmail: envOr("DIGEST_FROM_EMAIL", "no-reply@clinic-messaging.local"),
		CORSOrigins:     splitList(envOr("CORS_ORIGINS", "https://*,http://*")),
	}
	c.DeliveredAfter = c.duration("DELIVERED_AFTER", DefaultDeliveredAfter)
	c.ReadAfter = c.duration("READ_AFTER", DefaultReadAfter)
	c.DividerGap = c.duration("DIVIDER_GAP", DefaultDividerGap)
	c.SendRPS = c.float("SEND_RPS", DefaultSendRPS)
	c.SendBurst = int(c.float("SEND_BURST", DefaultSendBurst))

	//setup zap logger and replace default logger
	logger, err := logging.New(c.LogEnv)
	if err != nil {
		logger = zap.NewExample()
	}
	_ = zap.ReplaceGlobals(logger)

	return c
}

// Validate reports every configuration value that would keep the service
// from starting.
func (c *Config) Validate() error {
	problems := append([]string(nil), c.problems...)
	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	}
	if c.DeliveredAfter <= 0 {
		problems = append(problems, "DELIVERED_AFTER must be positive")
	}
	if c.ReadAfter <= 0 {
		problems = append(problems, "READ_AFTER must be positive")
	}
	if c.DividerGap <= 0 {
		problems = append(problems, "DIVIDER_GAP must be positive")
	}
	if !gronx.IsValid(c.SweepSchedule) {
		problems = append(problems, fmt.Sprintf("SWEEP_SCHEDULE %q is not a valid cron expression", c.SweepSchedule))
	}
	if !gronx.IsValid(c.DigestSchedule) {
		problems = append(problems, fmt.Sprintf("DIGEST_SCHEDULE %q is not a valid cron expression", c.DigestSchedule))
	}
	if c.SendRPS <= 0 || c.SendBurst <= 0 {
		problems = append(problems, "SEND_RPS and SEND_BURST must be positive")
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	errText := ""
	if err != nil {
		errText = err.Error()
	}
	b, _ := json.Marshal(models.ErrorMessageResponse{Response: models.MessageError{Message: message, Error: errText}})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	_, _ = w.Write(b)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func (c *Config) duration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		c.problems = append(c.problems, fmt.Sprintf("%s: %v", key, err))
		return fallback
	}
	return d
}

func (c *Config) float(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		c.problems = append(c.problems, fmt.Sprintf("%s: %v", key, err))
		return fallback
	}
	return f
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
