package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vladislavdragonenkov/orderboard/internal/domain"
)

// Duration — обёртка над time.Duration с разбором из YAML ("5s", "1m").
type Duration time.Duration

// UnmarshalYAML разбирает строковую длительность.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std возвращает стандартный time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// DirectoryConfig задаёт источник записей Order Directory.
type DirectoryConfig struct {
	// Backend: memory | postgres | http.
	Backend   string `yaml:"backend"`
	DSN       string `yaml:"dsn"`
	BaseURL   string `yaml:"base_url"`
	Token     string `yaml:"token"`
	PageLimit int    `yaml:"page_limit"`
}

// AlertConfig задаёт проигрыватель звукового сигнала.
type AlertConfig struct {
	// Backend: bell | amqp | none.
	Backend    string `yaml:"backend"`
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
}

// KafkaConfig задаёт опциональную публикацию интеграционных событий.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
}

// Config описывает настройки запуска доски.
type Config struct {
	// Role определяет политику переходов и объём выборки: agent | admin.
	Role         string          `yaml:"role"`
	PollInterval Duration        `yaml:"poll_interval"`
	HTTPAddr     string          `yaml:"http_addr"`
	Directory    DirectoryConfig `yaml:"directory"`
	Alert        AlertConfig     `yaml:"alert"`
	Kafka        KafkaConfig     `yaml:"kafka"`
}

// DefaultConfig возвращает конфигурацию локальной разработки:
// in-memory directory, терминальный сигнал, без Kafka.
func DefaultConfig() Config {
	return Config{
		Role:         string(domain.RoleAgent),
		PollInterval: Duration(5 * time.Second),
		HTTPAddr:     ":8080",
		Directory: DirectoryConfig{
			Backend: "memory",
		},
		Alert: AlertConfig{
			Backend: "bell",
		},
	}
}

// LoadConfig читает YAML-файл поверх значений по умолчанию.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv накладывает переменные окружения поверх файла.
// Секреты (token, dsn) удобнее передавать окружением, а не файлом.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("ORDERBOARD_ROLE"); v != "" {
		c.Role = v
	}
	if v := os.Getenv("ORDERBOARD_HTTP_ADDR"); v != "" {
		c.HTTPAddr = v
	}
	if v := os.Getenv("ORDERBOARD_DIRECTORY_DSN"); v != "" {
		c.Directory.DSN = v
	}
	if v := os.Getenv("ORDERBOARD_DIRECTORY_TOKEN"); v != "" {
		c.Directory.Token = v
	}
	if v := os.Getenv("ORDERBOARD_AMQP_URL"); v != "" {
		c.Alert.URL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
}

// Validate проверяет согласованность конфигурации.
func (c *Config) Validate() error {
	switch domain.Role(c.Role) {
	case domain.RoleAgent, domain.RoleAdmin:
	default:
		return fmt.Errorf("unknown role %q", c.Role)
	}

	if c.PollInterval.Std() <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}

	switch c.Directory.Backend {
	case "memory":
	case "postgres":
		if c.Directory.DSN == "" {
			return fmt.Errorf("directory.dsn is required for postgres backend")
		}
	case "http":
		if c.Directory.BaseURL == "" {
			return fmt.Errorf("directory.base_url is required for http backend")
		}
	default:
		return fmt.Errorf("unknown directory backend %q", c.Directory.Backend)
	}

	switch c.Alert.Backend {
	case "bell", "none":
	case "amqp":
		if c.Alert.URL == "" {
			return fmt.Errorf("alert.url is required for amqp backend")
		}
	default:
		return fmt.Errorf("unknown alert backend %q", c.Alert.Backend)
	}

	return nil
}
