package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mcdev12/planning-poker/go/internal/room"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Room struct {
		ReapInterval      time.Duration `yaml:"reap_interval"`
		Locale            string        `yaml:"locale"`
		LookupConcurrency int           `yaml:"lookup_concurrency"`
		OpTimeout         time.Duration `yaml:"op_timeout"`
	} `yaml:"room"`
	Gateway struct {
		NATSURL        string        `yaml:"nats_url"`
		Subject        string        `yaml:"subject"`
		MembersSubject string        `yaml:"members_subject"`
		QueryTimeout   time.Duration `yaml:"query_timeout"`
		NodeID         string        `yaml:"node_id"`
	} `yaml:"gateway"`
}

func defaultConfig() *Config {
	var c Config
	c.Server.Port = "8080"
	c.Server.AllowedOrigins = []string{"*"}
	c.Log.Level = "info"
	c.Room.ReapInterval = room.DefaultReapInterval
	c.Room.Locale = "en"
	c.Room.LookupConcurrency = 8
	c.Room.OpTimeout = 10 * time.Second
	c.Gateway.Subject = "rooms.events"
	c.Gateway.MembersSubject = "rooms.members"
	c.Gateway.QueryTimeout = 500 * time.Millisecond
	return &c
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// loadConfig reads the optional YAML file at path over the defaults and then
// applies environment overrides
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	config.Server.Port = getEnv("PORT", config.Server.Port)
	config.Log.Level = getEnv("LOG_LEVEL", config.Log.Level)
	config.Room.ReapInterval = getEnvAsDuration("REAP_INTERVAL", config.Room.ReapInterval)
	config.Room.Locale = getEnv("ROOM_LOCALE", config.Room.Locale)
	config.Room.LookupConcurrency = getEnvAsInt("LOOKUP_CONCURRENCY", config.Room.LookupConcurrency)
	config.Room.OpTimeout = getEnvAsDuration("OP_TIMEOUT", config.Room.OpTimeout)
	config.Gateway.NATSURL = getEnv("NATS_URL", config.Gateway.NATSURL)
	config.Gateway.NodeID = getEnv("NODE_ID", config.Gateway.NodeID)

	if config.Gateway.NodeID == "" {
		host, err := os.Hostname()
		if err != nil {
			host = "gateway"
		}
		config.Gateway.NodeID = host
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	if c.Room.ReapInterval <= 0 {
		return fmt.Errorf("room.reap_interval must be positive")
	}
	if c.Room.LookupConcurrency <= 0 {
		return fmt.Errorf("room.lookup_concurrency must be positive")
	}
	if c.Room.OpTimeout <= 0 {
		return fmt.Errorf("room.op_timeout must be positive")
	}
	return nil
}
