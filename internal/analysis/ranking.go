package analysis

import (
	"cmp"
	"slices"

	"regkareport/pkg/contracts/domain"
)

// otherRank orders unrecognised link qualities and area sizes last.
const otherRank = 5

var linkQualityRanks = map[string]int{
	domain.LinkQualityHigh:     1,
	domain.LinkQualityMedium:   2,
	domain.LinkQualityLow:      3,
	domain.LinkQualityVeryPoor: 4,
}

var areaRanks = map[string]int{
	"300*300*80":    1,
	"500*500*150":   2,
	"800*800*200":   3,
	"1000*1000*300": 4,
}

// LinkQualityRank maps a link quality label to its report position
func LinkQualityRank(quality string) int {
	if r, ok := linkQualityRanks[quality]; ok {
		return r
	}
	return otherRank
}

// AreaRank maps an "L*W*H" area size to its report position
func AreaRank(area string) int {
	if r, ok := areaRanks[area]; ok {
		return r
	}
	return otherRank
}

// CompareBuckets is the single ordering used by every report: link
// quality rank, area rank, then node count ascending. Buckets that share
// all three keys fall back to the raw label and the dimensions so output
// is deterministic.
func CompareBuckets(a, b domain.Bucket) int {
	return cmp.Or(
		cmp.Compare(LinkQualityRank(a.LinkQuality), LinkQualityRank(b.LinkQuality)),
		cmp.Compare(AreaRank(a.AreaSize()), AreaRank(b.AreaSize())),
		cmp.Compare(a.NumNodes, b.NumNodes),
		cmp.Compare(a.LinkQuality, b.LinkQuality),
		cmp.Compare(a.AreaLength, b.AreaLength),
		cmp.Compare(a.AreaWidth, b.AreaWidth),
		cmp.Compare(a.AreaHeight, b.AreaHeight),
	)
}

// SortBuckets orders report rows in place by their bucket
func SortBuckets[T any](rows []T, bucket func(T) domain.Bucket) {
	slices.SortStableFunc(rows, func(a, b T) int {
		return CompareBuckets(bucket(a), bucket(b))
	})
}
