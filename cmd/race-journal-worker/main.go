package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/race-pool-betting/internal/race-journal/consumer"
	"github.com/radieske/race-pool-betting/internal/race-journal/repository"
	"github.com/radieske/race-pool-betting/internal/shared/config"
	"github.com/radieske/race-pool-betting/internal/shared/db"
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
		cfg.ServiceName = "race-journal-worker"
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.KafkaBrokers == "" {
		log.Fatal("KAFKA_BROKERS is required")
	}

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Conexão com Postgres para o diário de corridas
	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	repo := repository.NewPostgresRepo(pg)
	if err := repo.Migrate(ctx); err != nil {
		log.Fatal("journal migrate", zap.Error(err))
	}

	// Kafka consumer (consumer group race-journal) + DLQ para mensagens inválidas
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicRaceEvents, "race-journal")
	defer reader.Close()

	var dlq *kafka.Writer
	if cfg.TopicRaceEventsDLQ != "" {
		dlq = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRaceEventsDLQ)
		defer dlq.Close()
	}

	// Métricas Prometheus para monitoramento do processamento
	reg := prometheus.NewRegistry()
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "race_journal_messages_consumed_total", Help: "mensagens consumidas"})
	persist := prometheus.NewCounter(prometheus.CounterOpts{Name: "race_journal_db_writes_total", Help: "eventos gravados no diário"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "race_journal_errors_total", Help: "erros por estágio"}, []string{"stage"})
	reg.MustRegister(consumed, persist, errorsBy)

	proc := &consumer.Processor{
		Log:        log,
		Reader:     reader,
		Journal:    repo,
		OnConsumed: func() { consumed.Inc() },
		OnPersist:  func() { persist.Inc() },
		OnError:    func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}
	if dlq != nil {
		proc.DLQ = dlq
	}

	// Servidor HTTP para métricas e health check
	srv := metrics.StartMetricsServer(cfg.MetricsPort, reg, pg.PingContext, func(err error) {
		log.Error("metrics srv", zap.Error(err))
	})
	defer srv.Close()
	log.Info("metrics/health listening", zap.String("addr", srv.Addr))

	log.Info("race-journal-worker started", zap.String("consume", cfg.TopicRaceEvents))
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("race-journal-worker stopped")
}
