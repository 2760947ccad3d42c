package analysis

import (
	"context"

	"regkareport/internal/exporter"
	"regkareport/internal/store"
	"regkareport/pkg/contracts/domain"
)

// Sheet names, in workbook order.
const (
	DelaySheet   = "Delay Analysis"
	PacketSheet  = "Packet Statistics"
	SuccessSheet = "Success Rate Analysis"
)

// AggregateSource runs the raw per-bucket aggregations.
type AggregateSource interface {
	DelayAggregates(ctx context.Context) ([]store.DelayAggregate, error)
	PacketAggregates(ctx context.Context) ([]store.PacketAggregate, error)
	SuccessAggregates(ctx context.Context) ([]store.SuccessAggregate, error)
}

// BuildReport runs the three aggregations and returns rounded rows in
// report order.
func BuildReport(ctx context.Context, src AggregateSource) (*domain.AnalysisReport, error) {
	delay, err := src.DelayAggregates(ctx)
	if err != nil {
		return nil, err
	}
	packets, err := src.PacketAggregates(ctx)
	if err != nil {
		return nil, err
	}
	success, err := src.SuccessAggregates(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.AnalysisReport{
		Delay:   DelayStats(delay),
		Packets: PacketStats(packets),
		Success: SuccessStats(success),
	}, nil
}

// DelayStats rounds delay figures to four places. Groups without a
// qualifying run keep nil statistics.
func DelayStats(aggs []store.DelayAggregate) []domain.DelayStat {
	out := make([]domain.DelayStat, 0, len(aggs))
	for _, a := range aggs {
		out = append(out, domain.DelayStat{
			Bucket:       a.Bucket,
			TotalCount:   a.Total,
			SuccessCount: a.SuccessCount,
			AvgDelay:     roundNullable(a.AvgDelay.Valid, a.AvgDelay.Float64, delayPlaces),
			MinDelay:     roundNullable(a.MinDelay.Valid, a.MinDelay.Float64, delayPlaces),
			MaxDelay:     roundNullable(a.MaxDelay.Valid, a.MaxDelay.Float64, delayPlaces),
		})
	}
	SortBuckets(out, func(s domain.DelayStat) domain.Bucket { return s.Bucket })
	return out
}

// PacketStats rounds packet averages half up to integers and unique
// contributions to two places.
func PacketStats(aggs []store.PacketAggregate) []domain.PacketStat {
	out := make([]domain.PacketStat, 0, len(aggs))
	for _, a := range aggs {
		out = append(out, domain.PacketStat{
			Bucket:                 a.Bucket,
			TotalCount:             a.Total,
			AvgSentPackets:         RoundHalfUp(a.AvgSent),
			AvgReceivedPackets:     RoundHalfUp(a.AvgReceived),
			AvgUniqueContributions: RoundTo(a.AvgUniqueContributions, ratioPlaces),
		})
	}
	SortBuckets(out, func(s domain.PacketStat) domain.Bucket { return s.Bucket })
	return out
}

// SuccessStats derives the success rate as SuccessCount*100/TotalCount.
func SuccessStats(aggs []store.SuccessAggregate) []domain.SuccessStat {
	out := make([]domain.SuccessStat, 0, len(aggs))
	for _, a := range aggs {
		var rate float64
		if a.Total > 0 {
			rate = RoundTo(float64(a.SuccessCount)*100/float64(a.Total), ratioPlaces)
		}
		out = append(out, domain.SuccessStat{
			Bucket:       a.Bucket,
			TotalCount:   a.Total,
			SuccessCount: a.SuccessCount,
			SuccessRate:  rate,
		})
	}
	SortBuckets(out, func(s domain.SuccessStat) domain.Bucket { return s.Bucket })
	return out
}

// Tables renders the report as workbook sheets, in sheet order.
func Tables(r *domain.AnalysisReport) []exporter.Table {
	delay := exporter.Table{
		Name:    DelaySheet,
		Headers: []string{"LinkQuality", "AreaSize", "NodeCount", "TotalCount", "SuccessCount", "AvgDelay", "MinDelay", "MaxDelay"},
	}
	for _, s := range r.Delay {
		delay.Rows = append(delay.Rows, []any{
			s.LinkQuality, s.AreaSize(), s.NumNodes, s.TotalCount, s.SuccessCount,
			s.AvgDelay, s.MinDelay, s.MaxDelay,
		})
	}

	packets := exporter.Table{
		Name:    PacketSheet,
		Headers: []string{"LinkQuality", "AreaSize", "NodeCount", "TotalCount", "AvgSentPackets", "AvgReceivedPackets", "AvgUniqueContributions"},
	}
	for _, s := range r.Packets {
		packets.Rows = append(packets.Rows, []any{
			s.LinkQuality, s.AreaSize(), s.NumNodes, s.TotalCount,
			s.AvgSentPackets, s.AvgReceivedPackets, s.AvgUniqueContributions,
		})
	}

	success := exporter.Table{
		Name:    SuccessSheet,
		Headers: []string{"LinkQuality", "AreaSize", "NodeCount", "TotalCount", "SuccessCount", "SuccessRate"},
	}
	for _, s := range r.Success {
		success.Rows = append(success.Rows, []any{
			s.LinkQuality, s.AreaSize(), s.NumNodes, s.TotalCount, s.SuccessCount, s.SuccessRate,
		})
	}

	return []exporter.Table{delay, packets, success}
}
