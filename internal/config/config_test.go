package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Port:          "8080",
		LogLevel:      "info",
		LogFormat:     "console",
		NLUTimeout:    30 * time.Second,
		StoreBackend:  "file",
		StoreDir:      "./data",
		EventsBackend: EventsNone,
		ChatQueueSize: 32,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		errorString string
	}{
		{name: "valid file backend", mutate: func(c *Config) {}},
		{
			name:   "valid sqlite backend",
			mutate: func(c *Config) { c.StoreBackend = "sqlite"; c.SQLiteDBPath = "./test.db" },
		},
		{
			name:        "invalid port - non-numeric",
			mutate:      func(c *Config) { c.Port = "abc" },
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range",
			mutate:      func(c *Config) { c.Port = "70000" },
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "unknown store backend",
			mutate:      func(c *Config) { c.StoreBackend = "redis" },
			errorString: "invalid store backend 'redis'",
		},
		{
			name:        "postgres without dsn",
			mutate:      func(c *Config) { c.StoreBackend = "postgres" },
			errorString: "POSTGRES_DSN is required",
		},
		{
			name:        "gcs without bucket",
			mutate:      func(c *Config) { c.StoreBackend = "gcs" },
			errorString: "GCS_BUCKET is required",
		},
		{
			name:        "missing credentials file",
			mutate:      func(c *Config) { c.GoogleCredentialsFile = filepath.Join(t.TempDir(), "nope.json") },
			errorString: "Google credentials file does not exist",
		},
		{
			name:        "half configured notion",
			mutate:      func(c *Config) { c.NotionToken = "secret" },
			errorString: "NOTION_TOKEN and NOTION_DATABASE_ID must be set together",
		},
		{
			name:        "bad amqp scheme",
			mutate:      func(c *Config) { c.EventsBackend = EventsAMQP; c.AMQPURL = "http://localhost"; c.AMQPExchange = "x" },
			errorString: "invalid AMQP URL scheme 'http'",
		},
		{
			name:        "kafka without topic",
			mutate:      func(c *Config) { c.EventsBackend = EventsKafka; c.KafkaBrokers = []string{"localhost:9092"} },
			errorString: "KAFKA_TOPIC is required",
		},
		{
			name:        "unknown events backend",
			mutate:      func(c *Config) { c.EventsBackend = "nats" },
			errorString: "invalid events backend 'nats'",
		},
		{
			name:        "short timeout",
			mutate:      func(c *Config) { c.NLUTimeout = 10 * time.Millisecond },
			errorString: "invalid NLU timeout",
		},
		{
			name:        "zero queue size",
			mutate:      func(c *Config) { c.ChatQueueSize = 0 },
			errorString: "invalid chat queue size 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.errorString == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.errorString)
			}
			if !strings.Contains(err.Error(), tt.errorString) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.errorString)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("NLU_TIMEOUT", "5s")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("CHAT_QUEUE_SIZE", "not-a-number")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.StoreBackend != "sqlite" {
		t.Errorf("StoreBackend = %q", cfg.StoreBackend)
	}
	if cfg.NLUTimeout != 5*time.Second {
		t.Errorf("NLUTimeout = %v", cfg.NLUTimeout)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Errorf("KafkaBrokers = %v", cfg.KafkaBrokers)
	}
	if cfg.ChatQueueSize != 32 {
		t.Errorf("ChatQueueSize = %d, want default 32", cfg.ChatQueueSize)
	}
	if cfg.GeminiModel != "gemini-2.5-flash" {
		t.Errorf("GeminiModel = %q", cfg.GeminiModel)
	}
}

func TestValidateInterpreter(t *testing.T) {
	cfg := validConfig()
	if err := cfg.ValidateInterpreter(); err == nil {
		t.Error("expected error without API key")
	}
	cfg.GeminiAPIKey = "key"
	if err := cfg.ValidateInterpreter(); err != nil {
		t.Errorf("ValidateInterpreter() error = %v", err)
	}
}
