package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	t.Setenv("RSPENGINE_INGEST_KAFKA_ENABLED", "true")

	path := filepath.Join(t.TempDir(), "rspengine.yaml")
	content := []byte(`
server:
  node_id: n1
engine:
  query_file: query.rspql
  static_data_path: static.nq
ingest:
  socket:
    enabled: true
  kafka:
    enabled: false
  rabbitmq:
    enabled: true
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	if !cfg.Ingest.Kafka.Enabled {
		t.Fatalf("expected env override to enable kafka")
	}
	if !cfg.Ingest.Socket.Enabled || !cfg.Ingest.RabbitMQ.Enabled {
		t.Fatalf("expected multiple adapters enabled")
	}
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rspengine.toml")
	content := []byte(`
[server]
node_id = "n2"

[engine]
query_file = "query.rspql"

[ingest.socket]
enabled = true

[ingest.kafka]
enabled = false

[ingest.rabbitmq]
enabled = false
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load toml: %v", err)
	}
	if cfg.Server.NodeID != "n2" {
		t.Fatalf("unexpected node id: %q", cfg.Server.NodeID)
	}
}

func TestValidateDisallowMultipleAdapters(t *testing.T) {
	cfg := Config{
		Server: ServerConfig{NodeID: "n1"},
		Engine: EngineConfig{QueryFile: "query.rspql"},
		Ingest: IngestConfig{
			Socket:   SocketAdapterConfig{AdapterConfig: AdapterConfig{Enabled: true}},
			Kafka:    KafkaAdapterConfig{AdapterConfig: AdapterConfig{Enabled: true}},
			RabbitMQ: RabbitMQAdapterConfig{AdapterConfig: AdapterConfig{Enabled: false}},
		},
		Feature: FeatureConfig{AllowMultipleAdapters: false},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error when multiple adapters are enabled")
	}
}

func TestValidateRequiresQueryFile(t *testing.T) {
	cfg := Config{Server: ServerConfig{NodeID: "n1"}}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing query_file to fail validation")
	}
}

func TestLoadKafkaAdapterFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rspengine.yaml")
	content := []byte(`
server:
  node_id: n1
engine:
  query_file: query.rspql
ingest:
  kafka:
    enabled: true
    brokers: ["127.0.0.1:9092"]
    topics: ["quads"]
    group_id: g1
    default_stream_uri: "http://example.org/s"
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Ingest.Kafka.Brokers) != 1 || cfg.Ingest.Kafka.GroupID != "g1" {
		t.Fatalf("unexpected kafka config: %+v", cfg.Ingest.Kafka)
	}
}
