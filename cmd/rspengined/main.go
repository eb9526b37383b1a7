package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"rspengine/internal/config"
	"rspengine/internal/engine"
	"rspengine/internal/ingest"
	"rspengine/internal/ingest/kafka"
	"rspengine/internal/ingest/rabbitmq"
	"rspengine/internal/ingest/socket"
	"rspengine/internal/sparql"
	"rspengine/internal/staticstore"
)

func main() {
	cfgPath := flag.String("config", "rspengine.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	queryText, err := os.ReadFile(cfg.Engine.QueryFile)
	if err != nil {
		log.Fatalf("read query file: %v", err)
	}

	eng := engine.New(string(queryText))
	if err := eng.Initialize(); err != nil {
		log.Fatalf("initialize engine: %v", err)
	}

	if cfg.Engine.StaticDataPath != "" {
		store, err := staticstore.Open(cfg.Engine.StaticDataPath)
		if err != nil {
			log.Fatalf("open static store: %v", err)
		}
		defer store.Close()

		quads, err := store.Load(context.Background())
		if err != nil {
			log.Fatalf("load static store: %v", err)
		}
		for _, q := range quads {
			eng.AddStaticData(q)
		}
		log.Printf("rspengined node=%s loaded %d static quads", cfg.Server.NodeID, len(quads))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sink := ingest.EngineSink{Engine: eng}

	if cfg.Ingest.Socket.Enabled {
		address := cfg.Ingest.Socket.Address
		if address == "" {
			address = "0.0.0.0:7070"
		}
		maxInflight := cfg.Ingest.Socket.MaxInflight
		if maxInflight <= 0 {
			maxInflight = 64
		}
		srv := socket.NewServer(socket.Config{Address: address, AuthToken: cfg.Ingest.Socket.AuthToken, MaxInflight: maxInflight, GlobalQueueLimit: 4096}, sink)
		go func() {
			if err := srv.Start(ctx); err != nil {
				log.Printf("socket adapter stopped: %v", err)
			}
		}()
		defer srv.Close()
	}
	if cfg.Ingest.Kafka.Enabled {
		adapter, err := kafka.NewAdapter(kafka.Config{
			Enabled:          true,
			Brokers:          cfg.Ingest.Kafka.Brokers,
			Topics:           cfg.Ingest.Kafka.Topics,
			GroupID:          cfg.Ingest.Kafka.GroupID,
			DefaultStreamURI: cfg.Ingest.Kafka.DefaultStreamURI,
		}, sink)
		if err != nil {
			log.Fatalf("new kafka adapter: %v", err)
		}
		go func() {
			if err := adapter.Start(ctx); err != nil {
				log.Printf("kafka adapter stopped: %v", err)
			}
		}()
	}
	if cfg.Ingest.RabbitMQ.Enabled {
		adapter, err := rabbitmq.NewAdapter(rabbitmq.Config{
			Enabled:       true,
			URL:           cfg.Ingest.RabbitMQ.URL,
			Exchange:      cfg.Ingest.RabbitMQ.Exchange,
			Queue:         cfg.Ingest.RabbitMQ.Queue,
			RoutingKeys:   cfg.Ingest.RabbitMQ.RoutingKeys,
			ManualAck:     true,
			PrefetchCount: 16,
			Workers:       4,
			DeliveryQueue: 256,
		}, sink)
		if err != nil {
			log.Fatalf("new rabbitmq adapter: %v", err)
		}
		if err := adapter.Start(ctx); err != nil {
			log.Fatalf("start rabbitmq adapter: %v", err)
		}
		defer adapter.Close()
	}

	results := eng.StartProcessing()
	defer eng.Close()

	log.Printf("rspengined node=%s ready (socket=%t kafka=%t rabbitmq=%t)",
		cfg.Server.NodeID, cfg.Ingest.Socket.Enabled, cfg.Ingest.Kafka.Enabled, cfg.Ingest.RabbitMQ.Enabled)

	for {
		select {
		case <-ctx.Done():
			return
		case res, ok := <-results:
			if !ok {
				return
			}
			if res.Err != nil {
				log.Printf("evaluation error: %v", res.Err)
				continue
			}
			log.Printf("binding: %s", formatBinding(res.Binding))
		}
	}
}

func formatBinding(b sparql.Binding) string {
	parts := make([]string, len(b.Pairs))
	for i, p := range b.Pairs {
		parts[i] = fmt.Sprintf("%s=%s", p.Var, p.Value)
	}
	return strings.Join(parts, " ")
}
