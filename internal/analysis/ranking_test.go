package analysis

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"regkareport/pkg/contracts/domain"
)

func TestLinkQualityRank(t *testing.T) {
	tests := map[string]int{
		"high":      1,
		"medium":    2,
		"low":       3,
		"very_poor": 4,
		"unknown":   5,
		"":          5,
		"High":      5,
	}
	for quality, want := range tests {
		assert.Equal(t, want, LinkQualityRank(quality), quality)
	}
}

func TestAreaRank(t *testing.T) {
	tests := map[string]int{
		"300*300*80":    1,
		"500*500*150":   2,
		"800*800*200":   3,
		"1000*1000*300": 4,
		"300*300*81":    5,
	}
	for area, want := range tests {
		assert.Equal(t, want, AreaRank(area), area)
	}
}

func bucket(q string, l, w, h, n int64) domain.Bucket {
	return domain.Bucket{LinkQuality: q, AreaLength: l, AreaWidth: w, AreaHeight: h, NumNodes: n}
}

func TestSortBuckets(t *testing.T) {
	rows := []domain.Bucket{
		bucket("unknown", 300, 300, 80, 10),
		bucket("low", 300, 300, 80, 10),
		bucket("high", 1000, 1000, 300, 10),
		bucket("high", 300, 300, 80, 100),
		bucket("medium", 300, 300, 80, 10),
		bucket("high", 300, 300, 80, 20),
		bucket("high", 42, 42, 42, 5),
		bucket("high", 500, 500, 150, 50),
		bucket("aaa", 300, 300, 80, 10),
		bucket("very_poor", 800, 800, 200, 10),
	}

	SortBuckets(rows, func(b domain.Bucket) domain.Bucket { return b })

	want := []domain.Bucket{
		bucket("high", 300, 300, 80, 20),
		bucket("high", 300, 300, 80, 100),
		bucket("high", 500, 500, 150, 50),
		bucket("high", 1000, 1000, 300, 10),
		bucket("high", 42, 42, 42, 5),
		bucket("medium", 300, 300, 80, 10),
		bucket("low", 300, 300, 80, 10),
		bucket("very_poor", 800, 800, 200, 10),
		bucket("aaa", 300, 300, 80, 10),
		bucket("unknown", 300, 300, 80, 10),
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("SortBuckets() mismatch (-want +got):\n%s", diff)
	}
}

func TestCompareBuckets(t *testing.T) {
	a := bucket("high", 300, 300, 80, 50)
	assert.Zero(t, CompareBuckets(a, a))
	assert.Negative(t, CompareBuckets(a, bucket("medium", 300, 300, 80, 10)))
	assert.Positive(t, CompareBuckets(bucket("other", 300, 300, 80, 10), bucket("very_poor", 99, 99, 99, 99)))
	// two unranked areas order by their dimensions
	assert.Negative(t, CompareBuckets(bucket("low", 100, 100, 10, 5), bucket("low", 200, 100, 10, 5)))
}
