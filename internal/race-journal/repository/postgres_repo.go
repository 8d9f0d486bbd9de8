package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/radieske/race-pool-betting/pkg/contracts/events"
)

// Schema cria a tabela do diário de corridas. A dupla (partition, offset)
// torna a gravação idempotente quando o Kafka reentrega mensagens.
const Schema = `
CREATE TABLE IF NOT EXISTS race_journal (
	id             BIGSERIAL PRIMARY KEY,
	kafka_partition INT         NOT NULL,
	kafka_offset    BIGINT      NOT NULL,
	event_type      TEXT        NOT NULL,
	race_id         TEXT        NOT NULL,
	race_name       TEXT        NOT NULL,
	actor_id        TEXT        NOT NULL,
	status          TEXT        NOT NULL,
	competitor_id   TEXT,
	amount          BIGINT      NOT NULL DEFAULT 0,
	total           BIGINT      NOT NULL DEFAULT 0,
	paid            BIGINT      NOT NULL DEFAULT 0,
	remainder       BIGINT      NOT NULL DEFAULT 0,
	occurred_at     TIMESTAMPTZ NOT NULL,
	recorded_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (kafka_partition, kafka_offset)
);
CREATE INDEX IF NOT EXISTS race_journal_race_idx ON race_journal (race_id, occurred_at);
`

// PostgresRepo grava eventos de corrida no Postgres
// DB: conexão com o banco de dados
type PostgresRepo struct {
	DB *sql.DB
}

// NewPostgresRepo retorna uma instância de repositório Postgres
func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db}
}

// Migrate garante que a tabela existe
func (r *PostgresRepo) Migrate(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, Schema)
	return err
}

// Append insere o evento no diário; reentregas da mesma mensagem são ignoradas
func (r *PostgresRepo) Append(ctx context.Context, partition int, offset int64, e events.RaceEvent) error {
	const q = `
		INSERT INTO race_journal
		  (kafka_partition, kafka_offset, event_type, race_id, race_name, actor_id, status,
		   competitor_id, amount, total, paid, remainder, occurred_at)
		VALUES
		  ($1,$2,$3,$4,$5,$6,$7,NULLIF($8,''),$9,$10,$11,$12,$13)
		ON CONFLICT (kafka_partition, kafka_offset) DO NOTHING
	`
	_, err := r.DB.ExecContext(ctx, q,
		partition, offset, e.Type, e.RaceID, e.RaceName, e.ActorID, e.Status,
		e.CompetitorID, e.Amount, e.Total, e.Paid, e.Remainder,
		time.UnixMilli(e.TsUnixMs).UTC(),
	)
	return err
}
