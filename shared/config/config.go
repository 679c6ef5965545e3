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

const (
	PublisherMQTT  = "mqtt"
	PublisherKafka = "kafka"
	PublisherRedis = "redis"
)

type Config struct {
	App          AppConfig          `yaml:"app"`
	MeteoDisplay MeteoDisplayConfig `yaml:"meteo_display"`
	Prometheus   PrometheusConfig   `yaml:"prometheus"`
	Publisher    PublisherConfig    `yaml:"publisher"`
	Monitoring   MonitoringConfig   `yaml:"monitoring"`
	Schedule     string             `yaml:"schedule"`
}

type AppConfig struct {
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
	DataDir  string `yaml:"data_dir"`
}

type MeteoDisplayConfig struct {
	Airport       string        `yaml:"airport"`
	Runway        string        `yaml:"runway"`
	MetarURL      string        `yaml:"metar_url"`
	MetarCacheTTL time.Duration `yaml:"metar_cache_ttl"`
	HTTPTimeout   time.Duration `yaml:"http_timeout"`

	// Price tiers in display order: s, l1, l2, l3
	TaxiMetrics       []string `yaml:"taxi_metrics"`
	TrafficJamsMetric string   `yaml:"traffic_jams_metric"`

	Timezone string `yaml:"timezone"`
}

type PrometheusConfig struct {
	URL          string        `yaml:"url"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
}

type PublisherConfig struct {
	Kind  string      `yaml:"kind"`
	Topic string      `yaml:"topic"`
	MQTT  MQTTConfig  `yaml:"mqtt"`
	Kafka KafkaConfig `yaml:"kafka"`
	Redis RedisConfig `yaml:"redis"`
}

type MQTTConfig struct {
	URL               string        `yaml:"url"`
	CACertificatePath string        `yaml:"ca_certificate_path"`
	ClientID          string        `yaml:"client_id"`
	QoS               byte          `yaml:"qos"`
	ConnectTimeout    time.Duration `yaml:"connect_timeout"`
}

type KafkaConfig struct {
	Brokers      []string `yaml:"brokers"`
	RequiredAcks int16    `yaml:"required_acks"`
	MaxRetries   int      `yaml:"max_retries"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port"`
}

// Load reads the yaml config file named by CONFIG_FILE (config.yaml by
// default), then applies environment overrides and defaults. A missing
// default config file is fine; everything can come from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	explicit := configFile != ""
	if !explicit {
		configFile = "config.yaml"
	}

	cfg, err := LoadFile(configFile)
	if err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = &Config{}
	}

	cfg.applyEnv()
	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadFile parses a yaml config file without env overrides or defaults
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	override := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	override(&c.App.Env, "APP_ENV")
	override(&c.App.LogLevel, "LOG_LEVEL")
	override(&c.Schedule, "SCHEDULE")
	override(&c.MeteoDisplay.Airport, "METAR_AIRPORT")
	override(&c.MeteoDisplay.Runway, "METAR_RUNWAY")
	override(&c.Prometheus.URL, "PROMETHEUS_URL")
	override(&c.Publisher.Kind, "PUBLISHER_KIND")
	override(&c.Publisher.MQTT.URL, "MQTT_URL")
	override(&c.Publisher.MQTT.CACertificatePath, "CA_CERTIFICATE_PATH")
	override(&c.Publisher.Redis.Password, "REDIS_PASSWORD")

	if v := os.Getenv("TAXI_METRICS"); v != "" {
		var metrics []string
		for _, m := range strings.Split(v, ";") {
			if m = strings.TrimSpace(m); m != "" {
				metrics = append(metrics, m)
			}
		}
		c.MeteoDisplay.TaxiMetrics = metrics
	}
	override(&c.MeteoDisplay.TrafficJamsMetric, "TRAFFIC_JAMS_METRIC")
}

func (c *Config) setDefaults() {
	if c.App.Env == "" {
		c.App.Env = "development"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.DataDir == "" {
		c.App.DataDir = "data"
	}
	if c.Schedule == "" {
		c.Schedule = "0 * * * * *" // Every minute
	}

	md := &c.MeteoDisplay
	md.Airport = strings.ToUpper(strings.TrimSpace(md.Airport))
	md.Runway = strings.ToUpper(strings.TrimSpace(md.Runway))
	if md.MetarURL == "" {
		md.MetarURL = "https://aviationweather.gov/api/data/metar"
	}
	if md.MetarCacheTTL == 0 {
		md.MetarCacheTTL = 30 * time.Minute
	}
	if md.HTTPTimeout == 0 {
		md.HTTPTimeout = 10 * time.Second
	}
	if md.Timezone == "" {
		md.Timezone = "Local"
	}

	if c.Prometheus.QueryTimeout == 0 {
		c.Prometheus.QueryTimeout = 10 * time.Second
	}

	p := &c.Publisher
	if p.Kind == "" {
		p.Kind = PublisherMQTT
	}
	if p.Topic == "" {
		p.Topic = "bus/services/meteo-display/data"
	}
	if p.MQTT.URL == "" {
		p.MQTT.URL = "mqtt://localhost:1883"
	}
	if p.MQTT.ConnectTimeout == 0 {
		p.MQTT.ConnectTimeout = 10 * time.Second
	}
	if p.Kafka.RequiredAcks == 0 {
		p.Kafka.RequiredAcks = 1
	}
	if p.Kafka.MaxRetries == 0 {
		p.Kafka.MaxRetries = 3
	}
	if p.Redis.Addr == "" {
		p.Redis.Addr = "localhost:6379"
	}

	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = 8080
	}
}

func (c *Config) validate() error {
	md := c.MeteoDisplay
	if (len(md.TaxiMetrics) > 0 || md.TrafficJamsMetric != "") && c.Prometheus.URL == "" {
		return fmt.Errorf("Prometheus URL is required when metrics are configured (set PROMETHEUS_URL or prometheus.url)")
	}
	if len(md.TaxiMetrics) > 4 {
		return fmt.Errorf("at most 4 taxi metrics are supported, got %d", len(md.TaxiMetrics))
	}
	if md.MetarCacheTTL < 0 {
		return fmt.Errorf("metar cache TTL must not be negative")
	}
	if _, err := time.LoadLocation(md.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", md.Timezone, err)
	}

	switch c.Publisher.Kind {
	case PublisherMQTT, PublisherRedis:
	case PublisherKafka:
		if len(c.Publisher.Kafka.Brokers) == 0 {
			return fmt.Errorf("at least one Kafka broker is required for the kafka publisher")
		}
	default:
		return fmt.Errorf("unknown publisher kind %q (expected mqtt, kafka or redis)", c.Publisher.Kind)
	}
	if c.Publisher.MQTT.QoS > 2 {
		return fmt.Errorf("MQTT QoS must be 0, 1 or 2, got %d", c.Publisher.MQTT.QoS)
	}

	return nil
}
