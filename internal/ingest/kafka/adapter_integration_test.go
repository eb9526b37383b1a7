package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"rspengine/internal/rdf"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/twmb/franz-go/pkg/kgo"
)

type captureSink struct {
	mu    sync.Mutex
	calls []call
}

func (c *captureSink) AddQuads(uri string, quads []rdf.Quad, t int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call{uri: uri, quads: quads, t: t})
	return nil
}

func TestKafkaContainerIntegration(t *testing.T) {
	ctx := context.Background()
	defer func() {
		if r := recover(); r != nil {
			t.Skipf("docker/container runtime unavailable: %v", r)
		}
	}()

	req := testcontainers.ContainerRequest{
		Image:        "docker.redpanda.com/redpandadata/redpanda:v24.1.8",
		ExposedPorts: []string{"9092/tcp"},
		Cmd:          []string{"redpanda", "start", "--overprovisioned", "--smp", "1", "--memory", "512M", "--reserve-memory", "0M", "--check=false", "--node-id", "0", "--kafka-addr", "0.0.0.0:9092", "--advertise-kafka-addr", "127.0.0.1:9092"},
		WaitingFor:   wait.ForLog("Successfully started Redpanda"),
	}
	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("docker/container runtime unavailable: %v", err)
	}
	defer func() { _ = ctr.Terminate(ctx) }()

	host, _ := ctr.Host(ctx)
	port, _ := ctr.MappedPort(ctx, "9092")
	broker := fmt.Sprintf("%s:%s", host, port.Port())

	producer, err := kgo.NewClient(kgo.SeedBrokers(broker), kgo.DefaultProduceTopic("quads"))
	if err != nil {
		t.Fatalf("new producer: %v", err)
	}
	defer producer.Close()

	recBody, _ := json.Marshal(map[string]any{
		"stream":    "http://example.org/s",
		"timestamp": 1,
		"quads": []map[string]any{{
			"s": map[string]string{"kind": "iri", "value": "http://example.org/a"},
			"p": map[string]string{"kind": "iri", "value": "http://example.org/reads"},
			"o": map[string]string{"kind": "literal", "value": "v1"},
		}},
	})
	if err := producer.ProduceSync(ctx, &kgo.Record{Topic: "quads", Value: recBody}).FirstErr(); err != nil {
		t.Fatalf("produce: %v", err)
	}

	sink := &captureSink{}
	adapter, err := NewAdapter(Config{Enabled: true, Brokers: []string{broker}, Topics: []string{"quads"}, GroupID: "rspengine-it", ParseMode: ParseModeJSON}, sink)
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	consumeCtx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()

	go func() { _ = adapter.Start(consumeCtx) }()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-consumeCtx.Done():
			t.Fatalf("timed out waiting for consumed record")
		case <-ticker.C:
			sink.mu.Lock()
			count := len(sink.calls)
			sink.mu.Unlock()
			if count > 0 {
				return
			}
		}
	}
}
