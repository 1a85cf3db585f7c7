// Package storage is the PostgreSQL implementation of core.Store. Bulk loads
// and report exports use the COPY protocol directly on pooled connections.
package storage

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/recon/internal/config"
	"github.com/JonMunkholm/recon/internal/core"
)

//go:embed schema.sql
var schemaSQL string

const groupSQL = `SELECT order_id, array_agg(id ORDER BY id), sum(total_amount)::text
FROM records
WHERE source = $1
GROUP BY order_id`

// Pool wraps a pgxpool.Pool and creates the schema on first use.
type Pool struct {
	pool *pgxpool.Pool

	schemaMu    sync.Mutex
	schemaReady bool
}

var _ core.Store = (*Pool)(nil)

// NewPool parses cfg, connects and pings the database.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	return &Pool{pool: pool}, nil
}

// Ping checks that the database is reachable.
func (p *Pool) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close closes every connection in the pool.
func (p *Pool) Close() {
	p.pool.Close()
}

// Stats reports connection usage.
func (p *Pool) Stats() PoolStats {
	s := p.pool.Stat()
	return PoolStats{
		Total:    s.TotalConns(),
		Idle:     s.IdleConns(),
		Acquired: s.AcquiredConns(),
		Max:      s.MaxConns(),
	}
}

// PoolStats is a snapshot of connection usage.
type PoolStats struct {
	Total    int32 `json:"total"`
	Idle     int32 `json:"idle"`
	Acquired int32 `json:"acquired"`
	Max      int32 `json:"max"`
}

// Acquire checks out one connection. The caller must Release it.
func (p *Pool) Acquire(ctx context.Context) (core.Conn, error) {
	c, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &Conn{pool: p, conn: c}, nil
}

// Conn is one pooled connection.
type Conn struct {
	pool *Pool
	conn *pgxpool.Conn
	once sync.Once
}

// Release returns the connection to the pool. Safe to call more than once.
func (c *Conn) Release() {
	c.once.Do(c.conn.Release)
}

// EnsureSchema creates the records and reconciled_records tables if missing.
// It runs the DDL at most once per pool.
func (c *Conn) EnsureSchema(ctx context.Context) error {
	c.pool.schemaMu.Lock()
	defer c.pool.schemaMu.Unlock()
	if c.pool.schemaReady {
		return nil
	}
	if _, err := c.conn.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	c.pool.schemaReady = true
	return nil
}

// CopyIn runs COPY ... FROM STDIN (FORMAT csv) with body as the data stream.
// If body returns an error the server aborts the COPY and nothing is kept.
func (c *Conn) CopyIn(ctx context.Context, table string, columns []string, body io.Reader) (int64, error) {
	sql := fmt.Sprintf("COPY %s (%s) FROM STDIN WITH (FORMAT csv)",
		pgx.Identifier{table}.Sanitize(), sanitizeColumns(columns))

	tag, err := c.conn.Conn().PgConn().CopyFrom(ctx, body, sql)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// GroupBySource aggregates stored records of one source by order id.
func (c *Conn) GroupBySource(ctx context.Context, src core.Source) ([]core.Group, error) {
	rows, err := c.conn.Query(ctx, groupSQL, string(src))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []core.Group
	for rows.Next() {
		var (
			g     core.Group
			total string
		)
		if err := rows.Scan(&g.OrderID, &g.IDs, &total); err != nil {
			return nil, err
		}
		if g.Total, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("order %q: total %q: %w", g.OrderID, total, err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// CopyOut runs a COPY ... TO STDOUT statement and streams its output to w.
func (c *Conn) CopyOut(ctx context.Context, w io.Writer, query string) (int64, error) {
	tag, err := c.conn.Conn().PgConn().CopyTo(ctx, w, query)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func sanitizeColumns(columns []string) string {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = pgx.Identifier{col}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
