package mysql

import (
	"context"
	"database/sql"

	"tenant_search/internal/domain"
)

const maxRecent = 200

// Repo is the MySQL search log.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) RecordSearch(ctx context.Context, rec domain.SearchRecord) error {
	_, err := r.db.ExecContext(ctx, insertSearchSQL,
		rec.SessionID,
		rec.Query,
		rec.Outcome,
		rec.Results,
		rec.CreatedAt.UTC(),
	)
	return err
}

func (r *Repo) RecentSearches(ctx context.Context, limit int) ([]domain.SearchRecord, error) {
	if limit <= 0 || limit > maxRecent {
		limit = maxRecent
	}
	rows, err := r.db.QueryContext(ctx, recentSearchesSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.SearchRecord{}
	for rows.Next() {
		var rec domain.SearchRecord
		var sessionID sql.NullString
		if err := rows.Scan(
			&rec.ID,
			&sessionID,
			&rec.Query,
			&rec.Outcome,
			&rec.Results,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		if sessionID.Valid {
			rec.SessionID = sessionID.String
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
