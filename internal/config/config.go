package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// DefaultICEServers are the public STUN servers used when ICE_SERVERS is unset.
var DefaultICEServers = []string{
	"stun:stun.l.google.com:19302",
	"stun:stun1.l.google.com:19302",
	"stun:stun2.l.google.com:19302",
}

type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string
	GinMode   string

	// AllowedOrigins limits websocket upgrades. Empty allows any origin.
	AllowedOrigins []string
	SendQueueSize  int

	RoomIdleTTL  time.Duration
	ReapInterval time.Duration

	ICEServers    []string
	ICEUsername   string
	ICECredential string

	// RedisAddr enables rate limiting when set.
	RedisAddr         string
	RedisPassword     string
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file loaded, using environment variables")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function such as os.Getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		HTTPAddr:       get("HTTP_ADDR", ":8080"),
		LogLevel:       get("LOG_LEVEL", "info"),
		LogFormat:      get("LOG_FORMAT", "text"),
		GinMode:        get("GIN_MODE", "release"),
		AllowedOrigins: splitList(get("ALLOWED_ORIGINS", "")),
		ICEServers:     splitList(get("ICE_SERVERS", strings.Join(DefaultICEServers, ","))),
		ICEUsername:    get("ICE_USERNAME", ""),
		ICECredential:  get("ICE_CREDENTIAL", ""),
		RedisAddr:      get("REDIS_ADDR", ""),
		RedisPassword:  get("REDIS_PASSWORD", ""),
	}

	var err error
	if cfg.SendQueueSize, err = positiveInt("SEND_QUEUE_SIZE", get("SEND_QUEUE_SIZE", "256")); err != nil {
		return nil, err
	}
	if cfg.RateLimitRequests, err = positiveInt("RATE_LIMIT_REQUESTS", get("RATE_LIMIT_REQUESTS", "30")); err != nil {
		return nil, err
	}
	if cfg.RoomIdleTTL, err = duration("ROOM_IDLE_TTL", get("ROOM_IDLE_TTL", "30m")); err != nil {
		return nil, err
	}
	if cfg.ReapInterval, err = duration("REAP_INTERVAL", get("REAP_INTERVAL", "1m")); err != nil {
		return nil, err
	}
	if cfg.RateLimitWindow, err = duration("RATE_LIMIT_WINDOW", get("RATE_LIMIT_WINDOW", "1m")); err != nil {
		return nil, err
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}
	return cfg, nil
}

// SetupLogging applies the log level and format to the standard logrus logger.
func (c *Config) SetupLogging() error {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	logrus.SetLevel(level)
	if c.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func positiveInt(key, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}

// duration accepts Go durations ("90s") and zero to disable.
func duration(key, v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%s must be a duration like 30m, got %q", key, v)
	}
	return d, nil
}
