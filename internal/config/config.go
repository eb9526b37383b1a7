package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Ingest  IngestConfig  `mapstructure:"ingest"`
	Feature FeatureConfig `mapstructure:"feature"`
}

type ServerConfig struct {
	NodeID string `mapstructure:"node_id"`
}

// EngineConfig points at the RSP-QL query and the static data a node loads
// at startup.
type EngineConfig struct {
	QueryFile      string `mapstructure:"query_file"`
	StaticDataPath string `mapstructure:"static_data_path"`
}

type IngestConfig struct {
	Socket   SocketAdapterConfig   `mapstructure:"socket"`
	Kafka    KafkaAdapterConfig    `mapstructure:"kafka"`
	RabbitMQ RabbitMQAdapterConfig `mapstructure:"rabbitmq"`
}

// AdapterConfig is the shape every ingress adapter config embeds: a single
// enable/disable switch the single-adapter-enabled rule inspects.
type AdapterConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type SocketAdapterConfig struct {
	AdapterConfig `mapstructure:",squash"`
	Address       string `mapstructure:"address"`
	AuthToken     string `mapstructure:"auth_token"`
	MaxInflight   int    `mapstructure:"max_inflight"`
}

type KafkaAdapterConfig struct {
	AdapterConfig    `mapstructure:",squash"`
	Brokers          []string `mapstructure:"brokers"`
	Topics           []string `mapstructure:"topics"`
	GroupID          string   `mapstructure:"group_id"`
	DefaultStreamURI string   `mapstructure:"default_stream_uri"`
}

type RabbitMQAdapterConfig struct {
	AdapterConfig `mapstructure:",squash"`
	URL           string   `mapstructure:"url"`
	Exchange      string   `mapstructure:"exchange"`
	Queue         string   `mapstructure:"queue"`
	RoutingKeys   []string `mapstructure:"routing_keys"`
}

type FeatureConfig struct {
	AllowMultipleAdapters bool `mapstructure:"allow_multiple_adapters"`
}

func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("rspengine")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("feature.allow_multiple_adapters", true)
}

func (c Config) Validate() error {
	if c.Server.NodeID == "" {
		return fmt.Errorf("server.node_id is required")
	}
	if c.Engine.QueryFile == "" {
		return fmt.Errorf("engine.query_file is required")
	}
	if !c.Feature.AllowMultipleAdapters {
		enabled := 0
		if c.Ingest.Socket.Enabled {
			enabled++
		}
		if c.Ingest.Kafka.Enabled {
			enabled++
		}
		if c.Ingest.RabbitMQ.Enabled {
			enabled++
		}
		if enabled > 1 {
			return fmt.Errorf("multiple adapters enabled while feature.allow_multiple_adapters=false")
		}
	}
	return nil
}
