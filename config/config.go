package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Hotel    HotelConfig    `yaml:"hotel"`
	Booking  BookingConfig  `yaml:"booking"`
	Worker   WorkerConfig   `yaml:"worker"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Address     string   `yaml:"address"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	// URL overrides the discrete fields when set (DATABASE_URL).
	URL string `yaml:"url"`
}

func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type StorageConfig struct {
	Driver  string `yaml:"driver"`
	Migrate bool   `yaml:"migrate"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers                []string `yaml:"brokers"`
	ReservationEventsTopic string   `yaml:"reservation_events_topic"`
	NotificationsTopic     string   `yaml:"notifications_topic"`
	ReportingTopic         string   `yaml:"reporting_topic"`
	GroupID                string   `yaml:"group_id"`
}

type HotelConfig struct {
	Timezone           string `yaml:"timezone"`
	ConfirmationCutoff string `yaml:"confirmation_cutoff"`
	CheckoutTime       string `yaml:"checkout_time"`
}

func (h HotelConfig) Location() (*time.Location, error) {
	return time.LoadLocation(h.Timezone)
}

type BookingConfig struct {
	RoomLockTTLSeconds   int `yaml:"room_lock_ttl_seconds"`
	RoomLockWaitMillis   int `yaml:"room_lock_wait_ms"`
	RoomsCacheTTLSeconds int `yaml:"rooms_cache_ttl_seconds"`
}

type WorkerConfig struct {
	SweepTime string `yaml:"sweep_time"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func defaults() Config {
	return Config{
		HTTP:    HTTPConfig{Address: ":8080"},
		Storage: StorageConfig{Driver: StorageDriverPostgres},
		Hotel: HotelConfig{
			Timezone:           "UTC",
			ConfirmationCutoff: "19:00",
			CheckoutTime:       "12:00",
		},
		Booking: BookingConfig{
			RoomLockTTLSeconds:   10,
			RoomLockWaitMillis:   2000,
			RoomsCacheTTLSeconds: 60,
		},
		Worker: WorkerConfig{SweepTime: "19:00"},
		Log:    LogConfig{Level: "info"},
	}
}

// LoadConfig reads a .env file if one exists, then the YAML file at path.
// DATABASE_URL and REDIS_PASSWORD from the environment override the file.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every malformed setting at once.
func (c *Config) Validate() error {
	var problems []string

	if _, err := c.Hotel.Location(); err != nil {
		problems = append(problems, fmt.Sprintf("hotel.timezone %q: %v", c.Hotel.Timezone, err))
	}
	for name, value := range map[string]string{
		"hotel.confirmation_cutoff": c.Hotel.ConfirmationCutoff,
		"hotel.checkout_time":       c.Hotel.CheckoutTime,
		"worker.sweep_time":         c.Worker.SweepTime,
	} {
		if _, err := time.Parse("15:04", value); err != nil {
			problems = append(problems, fmt.Sprintf("%s %q is not HH:MM", name, value))
		}
	}
	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		problems = append(problems, fmt.Sprintf("storage.driver %q must be postgres or memory", c.Storage.Driver))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
