package kv

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres keeps records in the kv_entries table created by the migrations.
type Postgres struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewPostgres wraps a validated pgx pool.
func NewPostgres(pool *pgxpool.Pool, timeout time.Duration) *Postgres {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Postgres{pool: pool, timeout: timeout}
}

func (p *Postgres) Get(key string) (string, bool, error) {
	ctx, cancel := p.ctx()
	defer cancel()

	const query = `SELECT value FROM kv_entries WHERE key = $1`
	var value string
	if err := p.pool.QueryRow(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (p *Postgres) Set(key, value string) error {
	ctx, cancel := p.ctx()
	defer cancel()

	const query = `
	INSERT INTO kv_entries (key, value)
	VALUES ($1, $2)
	ON CONFLICT (key) DO UPDATE
	SET value = EXCLUDED.value,
		updated_at = NOW()
	`
	_, err := p.pool.Exec(ctx, query, key, value)
	return err
}

func (p *Postgres) Remove(key string) error {
	ctx, cancel := p.ctx()
	defer cancel()

	const query = `DELETE FROM kv_entries WHERE key = $1`
	_, err := p.pool.Exec(ctx, query, key)
	return err
}

func (p *Postgres) Keys() ([]string, error) {
	ctx, cancel := p.ctx()
	defer cancel()

	const query = `SELECT key FROM kv_entries ORDER BY key`
	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (p *Postgres) Ping() error {
	ctx, cancel := p.ctx()
	defer cancel()
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), p.timeout)
}

var _ Store = (*Postgres)(nil)
