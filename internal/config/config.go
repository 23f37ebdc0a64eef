package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	LLM      LLMConfig      `yaml:"llm"`
	Fetch    FetchConfig    `yaml:"fetch"`
	YouTube  YouTubeConfig  `yaml:"youtube"`
	Store    StoreConfig    `yaml:"store"`
	Karakeep KarakeepConfig `yaml:"karakeep"`
	Events   EventsConfig   `yaml:"events"`
	LogLevel string         `yaml:"log_level"`
}

type ServerConfig struct {
	Address       string `yaml:"address"`
	SessionSecret string `yaml:"session_secret"`
}

type LLMConfig struct {
	APIKey         string        `yaml:"api_key"`
	Model          string        `yaml:"model"`
	SummaryTimeout time.Duration `yaml:"summary_timeout"`
	TitleTimeout   time.Duration `yaml:"title_timeout"`
	Temperature    float32       `yaml:"temperature"`
	TopP           float32       `yaml:"top_p"`
}

type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

type YouTubeConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type StoreConfig struct {
	Backend  string         `yaml:"backend"` // "memory" or "postgres"
	TTL      time.Duration  `yaml:"ttl"`
	Database DatabaseConfig `yaml:"database"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

type KarakeepConfig struct {
	APIURL   string `yaml:"api_url"`
	APIKey   string `yaml:"api_key"`
	ListName string `yaml:"list_name"`
}

// Enabled reports whether the bookmark integration is fully configured.
// Missing configuration disables the feature; it is not an error.
func (k KarakeepConfig) Enabled() bool {
	return k.APIURL != "" && k.APIKey != "" && k.ListName != ""
}

type EventsConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

func (e EventsConfig) Enabled() bool {
	return e.URL != ""
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gemini-2.0-flash"
	}
	if c.LLM.SummaryTimeout == 0 {
		c.LLM.SummaryTimeout = 90 * time.Second
	}
	if c.LLM.TitleTimeout == 0 {
		c.LLM.TitleTimeout = 30 * time.Second
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.7
	}
	if c.LLM.TopP == 0 {
		c.LLM.TopP = 0.95
	}
	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = 45 * time.Second
	}
	if c.YouTube.Timeout == 0 {
		c.YouTube.Timeout = 60 * time.Second
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}
	if c.Store.TTL == 0 {
		c.Store.TTL = time.Hour
	}
	if c.Events.Exchange == "" {
		c.Events.Exchange = "web_summarizer"
	}
	if c.Events.RoutingKey == "" {
		c.Events.RoutingKey = "summaries"
	}
	if c.Events.QueueName == "" {
		c.Events.QueueName = "summary_events"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
