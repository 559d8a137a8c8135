// Package agent assembles the publisher from its collaborators and ties its
// lifecycle to process signals.
package agent

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sidekiq-metrics-agent/internal/cluster"
	"github.com/sidekiq-metrics-agent/internal/leader"
	"github.com/sidekiq-metrics-agent/internal/publish"
	"github.com/sidekiq-metrics-agent/internal/server"
	"github.com/sidekiq-metrics-agent/internal/sink"
	"github.com/sidekiq-metrics-agent/pkg/config"
	"github.com/sidekiq-metrics-agent/pkg/logger"
	"github.com/sidekiq-metrics-agent/pkg/metrics"
	pkgsignal "github.com/sidekiq-metrics-agent/pkg/signal"
)

// Run builds the agent and blocks until a shutdown signal. Lifecycle wiring
// is picked once here: with leader election the Start signal comes from
// acquiring the fleet lock, otherwise every process starts publishing
// immediately. The publisher itself only ever sees Start/Quiet/Stop.
func Run(ctx context.Context, cfg *config.Config) error {
	log := logger.GetLogger()

	client, err := newRedisClient(ctx, &cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis at %s: %w", cfg.Redis.Addr, err)
	}
	defer client.Close()
	log.Info("connected to cluster registry", zap.String("addr", cfg.Redis.Addr))

	source := cluster.NewRedisSource(client, cfg.Redis.Namespace, log)

	awsCfg, err := sink.GetAWSConfig(cfg.CloudWatch.AccessKey, cfg.CloudWatch.SecretKey, cfg.CloudWatch.Region, cfg.CloudWatch.Endpoint)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}
	cw := sink.NewCloudWatch(awsCfg)

	dims, err := publish.ParseDimensions(cfg.Publisher.Dimensions)
	if err != nil {
		return fmt.Errorf("parse dimensions: %w", err)
	}

	registry := prometheus.NewRegistry()
	regs := metrics.NewPromRegistry(registry)
	pubMetrics := metrics.NewPublisherMetrics(regs)
	if probe, err := metrics.NewProcessProbe(); err == nil {
		regs.MustRegister(probe)
	} else {
		log.Warn("process probe unavailable", zap.Error(err))
	}

	pub := publish.New(source, cw, publish.Options{
		Interval:   cfg.Publisher.Interval,
		Namespace:  cfg.Publisher.Namespace,
		Dimensions: dims,
		Logger:     log,
		Metrics:    pubMetrics,
	})

	var httpServer *server.HTTPServer
	if cfg.Server.Enable {
		httpServer = server.NewHTTPServer(&cfg.Server, log, registry)
		if err := httpServer.Start(); err != nil {
			return fmt.Errorf("start debug HTTP server: %w", err)
		}
	}

	leaderCtx, cancelLeader := context.WithCancel(ctx)
	defer cancelLeader()
	if cfg.Publisher.LeaderElection {
		gate := leader.New(client, cfg.Publisher.LeaderLockKey, cfg.Publisher.LeaderLockTTL, log)
		log.Info("leader election enabled, waiting for leadership",
			zap.String("lock_key", cfg.Publisher.LeaderLockKey))
		go gate.Run(leaderCtx, func() { _ = pub.Start() }, pub.Quiet)
	} else {
		if err := pub.Start(); err != nil {
			return fmt.Errorf("start publisher: %w", err)
		}
	}

	pkgsignal.WaitForShutdown(log, pub.Quiet, func() error {
		cancelLeader()
		pub.Stop()
		if httpServer != nil {
			if err := httpServer.Shutdown(); err != nil {
				return fmt.Errorf("shutdown debug HTTP server: %w", err)
			}
		}
		log.Info("all services shutdown successfully")
		return nil
	})
	return nil
}

func newRedisClient(ctx context.Context, cfg *config.RedisConfig) (redis.UniversalClient, error) {
	opts := &redis.UniversalOptions{
		Addrs:    []string{cfg.Addr},
		DB:       cfg.DB,
		Password: cfg.Password,
	}
	if cfg.EnableTLS {
		opts.TLSConfig = &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		}
	}

	client := redis.NewUniversalClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
