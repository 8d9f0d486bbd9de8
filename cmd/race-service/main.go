package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/race-pool-betting/internal/race-service/betting"
	"github.com/radieske/race-pool-betting/internal/race-service/domain"
	rhttp "github.com/radieske/race-pool-betting/internal/race-service/http"
	"github.com/radieske/race-pool-betting/internal/race-service/ledger"
	"github.com/radieske/race-pool-betting/internal/race-service/producer"
	"github.com/radieske/race-pool-betting/internal/race-service/pubsub"
	"github.com/radieske/race-pool-betting/internal/race-service/registry"
	"github.com/radieske/race-pool-betting/internal/race-service/ws"
	"github.com/radieske/race-pool-betting/internal/shared/cache"
	"github.com/radieske/race-pool-betting/internal/shared/config"
	"github.com/radieske/race-pool-betting/internal/shared/kafka"
	"github.com/radieske/race-pool-betting/internal/shared/logger"
	"github.com/radieske/race-pool-betting/internal/shared/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "race-service"
	}

	// Inicializa logger estruturado
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Estado em memória do processo: corridas e saldos
	races := registry.New()
	wallets := ledger.New(cfg.StartingBalance)
	log.Info("starting service", zap.Int64("startingBalance", wallets.StartingBalance()))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	raceMetrics := metrics.NewRaceMetrics(reg)

	var svc *betting.Service
	snapshotFn := ws.SnapshotFunc(func(raceID string) (domain.Snapshot, error) {
		return svc.Race(raceID)
	})

	// Redis (opcional): guarda o último snapshot e distribui via Pub/Sub.
	// Com Redis ligado o hub passa a ser alimentado pelo subscriber e
	// corridas de outras instâncias são servidas a partir do snapshot gravado.
	var rdb *redis.Client
	var broadcaster *pubsub.RedisBroadcaster
	if cfg.RedisAddr != "" {
		rdb, err = cache.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatal("redis connect", zap.Error(err))
		}
		defer rdb.Close()

		broadcaster = pubsub.NewRedisBroadcaster(rdb, cfg.RedisPubSubChannel, cfg.SnapshotTTL)
		snapshotFn = broadcaster.SnapshotFallback(snapshotFn, 2*time.Second)
	}

	// Hub WebSocket: renderizador padrão das corridas
	hub := ws.NewHub(log, originPolicy(cfg.AllowedOrigins), snapshotFn)
	renderers := []betting.Renderer{hub}

	if broadcaster != nil {
		if _, err := pubsub.StartRedisSubscriber(ctx, log, rdb, cfg.RedisPubSubChannel, hub); err != nil {
			log.Fatal("redis subscribe", zap.Error(err))
		}
		renderers = []betting.Renderer{broadcaster}
		log.Info("redis connected", zap.String("channel", cfg.RedisPubSubChannel))
	}

	// Kafka (opcional): eventos de corrida para o journal
	var publ betting.EventPublisher
	if cfg.KafkaBrokers != "" {
		writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRaceEvents)
		defer writer.Close()
		publ = producer.NewKafkaPublisher(writer)
		log.Info("kafka writer ready", zap.String("topic", cfg.TopicRaceEvents))
	}

	svc = betting.New(betting.Deps{
		Log:       log,
		Races:     races,
		Ledger:    wallets,
		Renderers: renderers,
		Publisher: publ,
		Metrics:   raceMetrics,
	})

	api := rhttp.NewServer(log, svc)
	api.WS = hub.HandleWS

	// Servidor de métricas e health check
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, reg, func(ctx context.Context) error {
		if rdb != nil {
			return rdb.Ping(ctx).Err()
		}
		return nil
	}, func(err error) {
		log.Error("metrics srv", zap.Error(err))
	})
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	// Servidor HTTP público (API de corridas + /ws)
	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("api listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("api srv", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("race-service stopped", zap.Int("races", races.Len()))
}

// originPolicy libera todas as origens com "*" ou apenas as listadas
func originPolicy(allowed []string) func(r *http.Request) bool {
	if slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}
