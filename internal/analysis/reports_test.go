package analysis

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regkareport/internal/store"
	"regkareport/pkg/contracts/domain"
)

type fakeSource struct {
	delay   []store.DelayAggregate
	packets []store.PacketAggregate
	success []store.SuccessAggregate
	err     error
}

func (f *fakeSource) DelayAggregates(context.Context) ([]store.DelayAggregate, error) {
	return f.delay, f.err
}

func (f *fakeSource) PacketAggregates(context.Context) ([]store.PacketAggregate, error) {
	return f.packets, nil
}

func (f *fakeSource) SuccessAggregates(context.Context) ([]store.SuccessAggregate, error) {
	return f.success, nil
}

func ptr(v float64) *float64 { return &v }

func nullFloat(v float64) sql.NullFloat64 { return sql.NullFloat64{Float64: v, Valid: true} }

func TestDelayStats(t *testing.T) {
	high := bucket("high", 300, 300, 80, 50)
	low := bucket("low", 300, 300, 80, 50)

	got := DelayStats([]store.DelayAggregate{
		{Bucket: low, Total: 2},
		{Bucket: high, Total: 3, SuccessCount: 2, AvgDelay: nullFloat(7.5), MinDelay: nullFloat(5), MaxDelay: nullFloat(10.000049)},
	})

	want := []domain.DelayStat{
		{Bucket: high, TotalCount: 3, SuccessCount: 2, AvgDelay: ptr(7.5), MinDelay: ptr(5), MaxDelay: ptr(10)},
		{Bucket: low, TotalCount: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DelayStats() mismatch (-want +got):\n%s", diff)
	}
}

func TestPacketStats(t *testing.T) {
	got := PacketStats([]store.PacketAggregate{
		{Bucket: bucket("medium", 800, 800, 200, 30), Total: 2, AvgSent: 4.5, AvgReceived: 3.4999, AvgUniqueContributions: 1.23456},
	})
	require.Len(t, got, 1)
	assert.Equal(t, int64(5), got[0].AvgSentPackets)
	assert.Equal(t, int64(3), got[0].AvgReceivedPackets)
	assert.InDelta(t, 1.23, got[0].AvgUniqueContributions, 1e-12)
}

func TestSuccessStats(t *testing.T) {
	got := SuccessStats([]store.SuccessAggregate{
		{Bucket: bucket("high", 300, 300, 80, 50), Total: 3, SuccessCount: 2},
		{Bucket: bucket("high", 300, 300, 80, 10), Total: 0, SuccessCount: 0},
	})
	require.Len(t, got, 2)
	assert.Equal(t, int64(10), got[0].NumNodes)
	assert.Zero(t, got[0].SuccessRate)
	assert.InDelta(t, 66.67, got[1].SuccessRate, 1e-12)
}

func TestBuildReport_SameOrderAcrossSheets(t *testing.T) {
	qualities := []string{"medium", "high", "low", "unknown"}

	src := &fakeSource{}
	for _, q := range qualities {
		b := bucket(q, 300, 300, 80, 50)
		src.delay = append(src.delay, store.DelayAggregate{Bucket: b, Total: 1})
		src.packets = append(src.packets, store.PacketAggregate{Bucket: b, Total: 1})
		src.success = append(src.success, store.SuccessAggregate{Bucket: b, Total: 1})
	}

	report, err := BuildReport(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Groups())

	want := []string{"high", "medium", "low", "unknown"}
	var delay, packets, success []string
	for i := range report.Delay {
		delay = append(delay, report.Delay[i].LinkQuality)
		packets = append(packets, report.Packets[i].LinkQuality)
		success = append(success, report.Success[i].LinkQuality)
	}
	assert.Equal(t, want, delay)
	assert.Equal(t, want, packets)
	assert.Equal(t, want, success)
}

func TestBuildReport_SourceError(t *testing.T) {
	_, err := BuildReport(context.Background(), &fakeSource{err: errors.New("boom")})
	assert.EqualError(t, err, "boom")
}

func TestTables(t *testing.T) {
	report := &domain.AnalysisReport{
		Delay: []domain.DelayStat{{Bucket: bucket("high", 300, 300, 80, 50), TotalCount: 1}},
		Packets: []domain.PacketStat{{
			Bucket: bucket("high", 300, 300, 80, 50), TotalCount: 1, AvgSentPackets: 5, AvgReceivedPackets: 4, AvgUniqueContributions: 1.5,
		}},
		Success: []domain.SuccessStat{{Bucket: bucket("high", 300, 300, 80, 50), TotalCount: 1, SuccessCount: 1, SuccessRate: 100}},
	}

	tables := Tables(report)
	require.Len(t, tables, 3)
	assert.Equal(t, DelaySheet, tables[0].Name)
	assert.Equal(t, PacketSheet, tables[1].Name)
	assert.Equal(t, SuccessSheet, tables[2].Name)

	assert.Len(t, tables[0].Headers, 8)
	assert.Equal(t, []any{"high", "300*300*80", int64(50), int64(1), int64(0), (*float64)(nil), (*float64)(nil), (*float64)(nil)}, tables[0].Rows[0])
	assert.Equal(t, []any{"high", "300*300*80", int64(50), int64(1), int64(5), int64(4), 1.5}, tables[1].Rows[0])
	assert.Equal(t, []any{"high", "300*300*80", int64(50), int64(1), int64(1), 100.0}, tables[2].Rows[0])
}
