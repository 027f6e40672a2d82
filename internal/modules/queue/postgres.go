package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"

	"signal_bridge/internal/models"
	"signal_bridge/pkg/db"
)

// PostgresStore — слот символа как строка таблицы, запись через upsert
// в транзакции: конкурентные publish на один символ сериализуются БД.
type PostgresStore struct {
	tx *db.PgTxManager
}

func NewPostgresStore(tx *db.PgTxManager) *PostgresStore {
	return &PostgresStore{tx: tx}
}

// EnsureSchema создаёт таблицу слотов, если её ещё нет.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	return p.tx.RunMaster(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			CREATE TABLE IF NOT EXISTS signal_queue (
				symbol       TEXT PRIMARY KEY,
				payload      BYTEA NOT NULL,
				published_at TIMESTAMPTZ NOT NULL
			)`)
		return err
	})
}

func (p *PostgresStore) Publish(ctx context.Context, sig *models.TradingSignal) error {
	if err := sig.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	raw, err := sonic.Marshal(Entry{Signal: sig, PublishedAt: now})
	if err != nil {
		return fmt.Errorf("marshal queue entry: %w", err)
	}

	return p.tx.RunMaster(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO signal_queue (symbol, payload, published_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (symbol) DO UPDATE
			SET payload = EXCLUDED.payload, published_at = EXCLUDED.published_at`,
			models.NormalizeSymbol(sig.Symbol), raw, now,
		)
		return err
	})
}

func (p *PostgresStore) FetchLatest(ctx context.Context, symbol string, maxAge time.Duration) (*models.TradingSignal, error) {
	var raw []byte
	err := p.tx.RunMaster(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return tx.QueryRow(ctx,
			`SELECT payload FROM signal_queue WHERE symbol = $1`,
			models.NormalizeSymbol(symbol),
		).Scan(&raw)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select signal_queue: %w", err)
	}
	return decodeEntry(raw, time.Now().UTC(), maxAge)
}
