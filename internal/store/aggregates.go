package store

import (
	"context"
	"database/sql"

	apperrors "regkareport/internal/errors"
	"regkareport/pkg/contracts/domain"
)

// The aggregations return raw (unrounded, unsorted) figures per bucket.
// Rounding and report ordering belong to the analysis layer.

const bucketColumns = `linkQuality, areaLength, areaWidth, areaHeight, numNodes`

// delayQualifies is the delay report's notion of success: a key was agreed
// and every node succeeded.
const delayQualifies = `keyAgreementDelay > 0 AND successRate = 100`

const delayAggregateQuery = `
SELECT ` + bucketColumns + `,
	COUNT(*),
	SUM(CASE WHEN ` + delayQualifies + ` THEN 1 ELSE 0 END),
	AVG(CASE WHEN ` + delayQualifies + ` THEN keyAgreementDelay END),
	MIN(CASE WHEN ` + delayQualifies + ` THEN keyAgreementDelay END),
	MAX(CASE WHEN ` + delayQualifies + ` THEN keyAgreementDelay END)
FROM experiment_results
GROUP BY ` + bucketColumns + `
ORDER BY ` + bucketColumns

const packetAggregateQuery = `
SELECT ` + bucketColumns + `,
	COUNT(*),
	AVG(totalSent),
	AVG(totalReceived),
	AVG(avgUniqueContributions)
FROM experiment_results
GROUP BY ` + bucketColumns + `
ORDER BY ` + bucketColumns

// The success-rate report counts any positive delay, whatever the run's
// successRate.
const successAggregateQuery = `
SELECT ` + bucketColumns + `,
	COUNT(*),
	SUM(CASE WHEN keyAgreementDelay > 0 THEN 1 ELSE 0 END)
FROM experiment_results
GROUP BY ` + bucketColumns + `
ORDER BY ` + bucketColumns

// DelayAggregate holds the raw delay figures of one bucket. The delay
// statistics are invalid when no run qualified.
type DelayAggregate struct {
	domain.Bucket
	Total        int64
	SuccessCount int64
	AvgDelay     sql.NullFloat64
	MinDelay     sql.NullFloat64
	MaxDelay     sql.NullFloat64
}

// PacketAggregate holds the raw packet averages of one bucket
type PacketAggregate struct {
	domain.Bucket
	Total                  int64
	AvgSent                float64
	AvgReceived            float64
	AvgUniqueContributions float64
}

// SuccessAggregate holds the raw success counts of one bucket
type SuccessAggregate struct {
	domain.Bucket
	Total        int64
	SuccessCount int64
}

// DelayAggregates runs the delay aggregation
func (s *Store) DelayAggregates(ctx context.Context) ([]DelayAggregate, error) {
	var out []DelayAggregate
	err := s.queryBuckets(ctx, "delay aggregates", delayAggregateQuery, func(rows *sql.Rows) error {
		var a DelayAggregate
		var success sql.NullInt64
		if err := rows.Scan(append(bucketDest(&a.Bucket),
			&a.Total, &success, &a.AvgDelay, &a.MinDelay, &a.MaxDelay)...); err != nil {
			return err
		}
		a.SuccessCount = success.Int64
		out = append(out, a)
		return nil
	})
	return out, err
}

// PacketAggregates runs the packet aggregation
func (s *Store) PacketAggregates(ctx context.Context) ([]PacketAggregate, error) {
	var out []PacketAggregate
	err := s.queryBuckets(ctx, "packet aggregates", packetAggregateQuery, func(rows *sql.Rows) error {
		var a PacketAggregate
		var sent, received, unique sql.NullFloat64
		if err := rows.Scan(append(bucketDest(&a.Bucket),
			&a.Total, &sent, &received, &unique)...); err != nil {
			return err
		}
		a.AvgSent = sent.Float64
		a.AvgReceived = received.Float64
		a.AvgUniqueContributions = unique.Float64
		out = append(out, a)
		return nil
	})
	return out, err
}

// SuccessAggregates runs the success-rate aggregation
func (s *Store) SuccessAggregates(ctx context.Context) ([]SuccessAggregate, error) {
	var out []SuccessAggregate
	err := s.queryBuckets(ctx, "success aggregates", successAggregateQuery, func(rows *sql.Rows) error {
		var a SuccessAggregate
		var success sql.NullInt64
		if err := rows.Scan(append(bucketDest(&a.Bucket), &a.Total, &success)...); err != nil {
			return err
		}
		a.SuccessCount = success.Int64
		out = append(out, a)
		return nil
	})
	return out, err
}

func bucketDest(b *domain.Bucket) []any {
	return []any{&b.LinkQuality, &b.AreaLength, &b.AreaWidth, &b.AreaHeight, &b.NumNodes}
}

func (s *Store) queryBuckets(ctx context.Context, what, query string, scan func(*sql.Rows) error) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return apperrors.NewStorageError(what, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return apperrors.NewStorageError(what, err)
		}
	}
	if err := rows.Err(); err != nil {
		return apperrors.NewStorageError(what, err)
	}
	return nil
}
