package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"survey-relay-service/internal/survey"
)

// PostgresStore reads survey responses kept one JSON document per row.
type PostgresStore struct {
	db    *sql.DB
	table string
}

func NewPostgresStore(db *sql.DB, table string) *PostgresStore {
	return &PostgresStore{db: db, table: table}
}

// Connect opens and pings a postgres database.
func Connect(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// LoadResponses returns every response in insertion order. NULL documents are
// skipped.
func (s *PostgresStore) LoadResponses(ctx context.Context) ([]survey.Response, error) {
	table := strings.TrimSpace(s.table)
	if table == "" {
		return nil, errors.New("survey table name is empty")
	}
	rows, err := s.db.QueryContext(ctx, `SELECT response FROM `+pq.QuoteIdentifier(table)+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	items := make([]survey.Response, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		if len(raw) == 0 {
			continue
		}
		var r survey.Response
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("decode row %d: %w", len(items)+1, err)
		}
		if r == nil {
			continue
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *PostgresStore) LoadDataset(ctx context.Context) (*survey.Dataset, error) {
	items, err := s.LoadResponses(ctx)
	if err != nil {
		return nil, err
	}
	return survey.NewDataset(items), nil
}
