package domain

import "fmt"

// Bucket is the grouping key shared by every report:
// (linkQuality, areaLength, areaWidth, areaHeight, numNodes).
type Bucket struct {
	LinkQuality string `json:"link_quality"`
	AreaLength  int64  `json:"area_length"`
	AreaWidth   int64  `json:"area_width"`
	AreaHeight  int64  `json:"area_height"`
	NumNodes    int64  `json:"num_nodes"`
}

// AreaSize renders the simulation volume as "L*W*H".
func (b Bucket) AreaSize() string {
	return fmt.Sprintf("%d*%d*%d", b.AreaLength, b.AreaWidth, b.AreaHeight)
}

// DelayStat is one row of the delay analysis. The delay statistics only
// cover runs with a positive delay and a 100% success rate; they are nil
// when a group has no such run.
type DelayStat struct {
	Bucket
	TotalCount   int64    `json:"total_count"`
	SuccessCount int64    `json:"success_count"`
	AvgDelay     *float64 `json:"avg_delay,omitempty"`
	MinDelay     *float64 `json:"min_delay,omitempty"`
	MaxDelay     *float64 `json:"max_delay,omitempty"`
}

// PacketStat is one row of the packet statistics.
type PacketStat struct {
	Bucket
	TotalCount             int64   `json:"total_count"`
	AvgSentPackets         int64   `json:"avg_sent_packets"`
	AvgReceivedPackets     int64   `json:"avg_received_packets"`
	AvgUniqueContributions float64 `json:"avg_unique_contributions"`
}

// SuccessStat is one row of the success-rate analysis. Success here means
// a positive key agreement delay, regardless of the run's success rate.
type SuccessStat struct {
	Bucket
	TotalCount   int64   `json:"total_count"`
	SuccessCount int64   `json:"success_count"`
	SuccessRate  float64 `json:"success_rate"`
}

// AnalysisReport bundles the three result sets written to the workbook.
type AnalysisReport struct {
	Delay   []DelayStat   `json:"delay"`
	Packets []PacketStat  `json:"packets"`
	Success []SuccessStat `json:"success"`
}

// Groups returns the number of distinct buckets in the report.
func (r *AnalysisReport) Groups() int {
	if r == nil {
		return 0
	}
	return len(r.Delay)
}
