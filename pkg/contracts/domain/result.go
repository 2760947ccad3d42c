package domain

// Link quality labels written by the experiment runner.
const (
	LinkQualityHigh     = "high"
	LinkQualityMedium   = "medium"
	LinkQualityLow      = "low"
	LinkQualityVeryPoor = "very_poor"
)

// ResultRecord is one experiment run as persisted in the result table.
// The raw fragment line also carries a timestamp and a run id; both are
// dropped at load time and never reach this type.
type ResultRecord struct {
	AreaLength             int64   `json:"area_length" db:"areaLength"`
	AreaWidth              int64   `json:"area_width" db:"areaWidth"`
	AreaHeight             int64   `json:"area_height" db:"areaHeight"`
	NumNodes               int64   `json:"num_nodes" db:"numNodes"`
	LinkQuality            string  `json:"link_quality" db:"linkQuality"`
	KeyAgreementDelay      float64 `json:"key_agreement_delay" db:"keyAgreementDelay"`
	TotalSent              int64   `json:"total_sent" db:"totalSent"`
	TotalReceived          int64   `json:"total_received" db:"totalReceived"`
	OverheadRatio          float64 `json:"overhead_ratio" db:"overheadRatio"`
	SuccessRate            float64 `json:"success_rate" db:"successRate"`
	AvgUniqueContributions float64 `json:"avg_unique_contributions" db:"avgUniqueContributions"`
}

// KeyAgreed reports whether the run agreed a key. A zero delay is the
// failure sentinel.
func (r ResultRecord) KeyAgreed() bool {
	return r.KeyAgreementDelay > 0
}
