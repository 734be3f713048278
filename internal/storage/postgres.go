package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/iWorld-y/reddit_radar/internal/config"
	"github.com/iWorld-y/reddit_radar/internal/model"
)

const dateLayout = "2006-01-02"

// Storage 付费发现的运行记录
type Storage struct {
	db *sql.DB
}

func NewStorage(cfg config.DBConfig) (*Storage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := New(db)
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// New 使用已有连接，不做建表
func New(db *sql.DB) *Storage {
	return &Storage{db: db}
}

func (s *Storage) Close() error {
	return s.db.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS discovery_runs (
		id UUID PRIMARY KEY,
		provider TEXT NOT NULL,
		topic TEXT NOT NULL,
		depth TEXT NOT NULL,
		model TEXT,
		from_date DATE,
		to_date DATE,
		price_atomic BIGINT NOT NULL,
		raw_negotiation JSONB,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS discovery_items (
		id SERIAL PRIMARY KEY,
		run_id UUID REFERENCES discovery_runs(id),
		item_id TEXT NOT NULL,
		title TEXT,
		url TEXT NOT NULL,
		subreddit TEXT,
		item_date TEXT,
		why_relevant TEXT,
		relevance DOUBLE PRECISION
	)`,
}

func (s *Storage) initSchema() error {
	for _, query := range schema {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query %s: %w", query, err)
		}
	}
	return nil
}

// SaveRun 在一个事务里写入运行记录和帖子，run.ID 为空时自动生成
func (s *Storage) SaveRun(ctx context.Context, run *model.DiscoveryRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var raw any
	if len(run.Quote.RawNegotiation) > 0 {
		raw = []byte(run.Quote.RawNegotiation)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO discovery_runs (id, provider, topic, depth, model, from_date, to_date, price_atomic, raw_negotiation, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		run.ID.String(), run.Provider, run.Request.Topic, string(run.Request.Depth), run.Request.Model,
		nullDate(run.Request.FromDate), nullDate(run.Request.ToDate),
		int64(run.Quote.AmountAtomic), raw, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert discovery run: %w", err)
	}

	for _, item := range run.Items {
		var date sql.NullString
		if item.Date != nil {
			date = sql.NullString{String: *item.Date, Valid: true}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO discovery_items (run_id, item_id, title, url, subreddit, item_date, why_relevant, relevance)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			run.ID.String(), item.ID, item.Title, item.URL, item.Subreddit, date, item.WhyRelevant, item.Relevance)
		if err != nil {
			return fmt.Errorf("failed to insert discovery item: %w", err)
		}
	}

	return tx.Commit()
}

// TotalSpent 累计报价金额，用于对账
func (s *Storage) TotalSpent(ctx context.Context, since time.Time) (uint64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(price_atomic), 0) FROM discovery_runs WHERE created_at >= $1`, since).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum discovery runs: %w", err)
	}
	return uint64(total), nil
}

func nullDate(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(dateLayout), Valid: true}
}
