package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/Yashi-Piparsaniya/buildathon/internal/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store keeps the optional detection history. The service runs fine without
// it; everything here is observability, not the detection contract.
type Store struct {
	db *sql.DB
}

func InitStore(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not reach database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		db.Close()
		return nil, err
	}
	if err := goose.Up(db, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	log.Println("Detection history database initialized")
	return &Store{db: db}, nil
}

func (s *Store) SaveDetection(ctx context.Context, d models.Detection) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO detections (endpoint, classification, confidence, explanation, model_used, latency_ms)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		d.Endpoint, d.Classification, d.Confidence, d.Explanation, d.ModelUsed, d.LatencyMs,
	)
	if err != nil {
		return fmt.Errorf("could not save detection: %w", err)
	}
	return nil
}

func (s *Store) RecentDetections(ctx context.Context, limit int) ([]models.Detection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, endpoint, classification, confidence, explanation, model_used, latency_ms, created_at
		 FROM detections ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("could not fetch detections: %w", err)
	}
	defer rows.Close()

	var detections []models.Detection
	for rows.Next() {
		var d models.Detection
		if err := rows.Scan(&d.ID, &d.Endpoint, &d.Classification, &d.Confidence,
			&d.Explanation, &d.ModelUsed, &d.LatencyMs, &d.CreatedAt); err != nil {
			continue
		}
		detections = append(detections, d)
	}
	return detections, rows.Err()
}

func (s *Store) Close() {
	if s.db != nil {
		s.db.Close()
		log.Println("DB closed")
	}
}
