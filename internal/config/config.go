package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	IrisBaseURL string `yaml:"iris_base_url"`
	IrisWSURL   string `yaml:"iris_ws_url"`

	BotPrefix string `yaml:"bot_prefix"`

	XUserID    string `yaml:"x_user_id"`
	XUserEmail string `yaml:"x_user_email"`
	XSessionID string `yaml:"x_session_id"`

	RedisURL    string `yaml:"redis_url"`
	DatabaseURL string `yaml:"database_url"`

	AllowedRooms []string `yaml:"allowed_rooms"`

	EgressMode   string `yaml:"egress_mode"`
	EgressDryRun bool   `yaml:"egress_dryrun"`

	GameTTLSec   int    `yaml:"game_ttl_sec"`
	HistoryLimit int    `yaml:"history_limit"`
	MessagesDir  string `yaml:"messages_dir"`
	FlipForBlack bool   `yaml:"flip_for_black"`
}

// Load reads the optional CHECKERS_CONFIG yaml file, then applies env overrides.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		EgressMode:   "http",
		GameTTLSec:   86400,
		HistoryLimit: 10,
	}

	if path := strings.TrimSpace(os.Getenv("CHECKERS_CONFIG")); path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	setString(&cfg.IrisBaseURL, "IRIS_BASE_URL")
	setString(&cfg.IrisWSURL, "IRIS_WS_URL")
	setString(&cfg.BotPrefix, "BOT_PREFIX")

	setString(&cfg.XUserID, "X_USER_ID")
	setString(&cfg.XUserEmail, "X_USER_EMAIL")
	setString(&cfg.XSessionID, "X_SESSION_ID")

	setString(&cfg.RedisURL, "REDIS_URL")
	setString(&cfg.DatabaseURL, "DATABASE_URL")

	if v := strings.TrimSpace(os.Getenv("ALLOWED_ROOMS")); v != "" {
		cfg.AllowedRooms = splitList(v)
	}

	setString(&cfg.EgressMode, "IRIS_EGRESS")
	setBool(&cfg.EgressDryRun, "IRIS_EGRESS_DRYRUN")

	// seconds
	setPositiveInt(&cfg.GameTTLSec, "CHECKERS_GAME_TTL")
	setPositiveInt(&cfg.HistoryLimit, "CHECKERS_HISTORY_LIMIT")
	setString(&cfg.MessagesDir, "CHECKERS_MESSAGES_DIR")
	setBool(&cfg.FlipForBlack, "CHECKERS_FLIP_BLACK")

	cfg.EgressMode = strings.ToLower(strings.TrimSpace(cfg.EgressMode))
	switch cfg.EgressMode {
	case "http", "ws", "auto":
	default:
		return nil, fmt.Errorf("unsupported egress mode: %q", cfg.EgressMode)
	}

	if cfg.IrisBaseURL == "" {
		return nil, errors.New("IRIS_BASE_URL is required")
	}
	if cfg.IrisWSURL == "" {
		return nil, errors.New("IRIS_WS_URL is required")
	}
	if cfg.BotPrefix == "" {
		return nil, errors.New("BOT_PREFIX is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}

	return cfg, nil
}

// Headers returns the Iris auth headers that are set.
func (c *AppConfig) Headers() map[string]string {
	h := map[string]string{}
	if c.XUserID != "" {
		h["X-User-Id"] = c.XUserID
	}
	if c.XUserEmail != "" {
		h["X-User-Email"] = c.XUserEmail
	}
	if c.XSessionID != "" {
		h["X-Session-Id"] = c.XSessionID
	}
	return h
}

// RoomAllowed reports whether room may use the bot. An empty list allows all.
func (c *AppConfig) RoomAllowed(room string) bool {
	if len(c.AllowedRooms) == 0 {
		return true
	}
	return slices.Contains(c.AllowedRooms, strings.TrimSpace(room))
}

func loadFile(cfg *AppConfig, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setPositiveInt(dst *int, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
