package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	apperrors "regkareport/internal/errors"
	"regkareport/pkg/contracts/domain"
)

// ReplaceResults swaps the whole content of the result table for records
// in one transaction and returns the persisted row count. The identity
// sequence restarts at 1.
func (s *Store) ReplaceResults(ctx context.Context, records []domain.ResultRecord) (int64, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, createResultsTable); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM experiment_results`); err != nil {
			return fmt.Errorf("clear table: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM sqlite_sequence WHERE name = 'experiment_results'`); err != nil {
			return fmt.Errorf("reset sequence: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, insertResult)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for i, r := range records {
			if _, err := stmt.ExecContext(ctx,
				r.AreaLength, r.AreaWidth, r.AreaHeight, r.NumNodes, r.LinkQuality,
				r.KeyAgreementDelay, r.TotalSent, r.TotalReceived,
				r.OverheadRatio, r.SuccessRate, r.AvgUniqueContributions,
			); err != nil {
				return fmt.Errorf("insert record %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, apperrors.NewStorageError("replace results", err)
	}

	count, err := s.CountResults(ctx)
	if err != nil {
		return 0, err
	}

	s.logger.DebugContext(ctx, "Result table replaced",
		slog.String("path", s.path),
		slog.Int("records", len(records)),
		slog.Int64("count", count))

	return count, nil
}

// CountResults returns the number of rows in the result table
func (s *Store) CountResults(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM experiment_results`).Scan(&count); err != nil {
		return 0, apperrors.NewStorageError("count results", err)
	}
	return count, nil
}

// Columns returns the column names of the result table in schema order
func (s *Store) Columns(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM pragma_table_info('experiment_results') ORDER BY cid`)
	if err != nil {
		return nil, apperrors.NewStorageError("table info", err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, apperrors.NewStorageError("scan column", err)
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}
