package metrics

import (
	"math"
	"testing"

	"github.com/rawblock/coinjoin-engine/internal/disjointset"
	"github.com/rawblock/coinjoin-engine/internal/ids"
)

func TestAdjustedRandIndex_PerfectAgreement(t *testing.T) {
	predicted := []int{0, 0, 1, 1, 2, 2}
	groundTruth := []int{0, 0, 1, 1, 2, 2}

	ari := AdjustedRandIndex(predicted, groundTruth)

	if math.Abs(ari-1.0) > 0.01 {
		t.Errorf("Expected ARI=1.0 for perfect agreement. Got: %f", ari)
	}
}

func TestAdjustedRandIndex_RandomPartition(t *testing.T) {
	// Two very different partitions should yield ARI near 0
	predicted := []int{0, 0, 0, 1, 1, 1}
	groundTruth := []int{0, 1, 0, 1, 0, 1}

	ari := AdjustedRandIndex(predicted, groundTruth)

	if ari > 0.5 {
		t.Errorf("Expected ARI near 0 for dissimilar partitions. Got: %f", ari)
	}
}

func TestVariationOfInformation_Identical(t *testing.T) {
	predicted := []int{0, 0, 1, 1, 2, 2}
	groundTruth := []int{0, 0, 1, 1, 2, 2}

	vi := VariationOfInformation(predicted, groundTruth)

	if vi > 0.01 {
		t.Errorf("Expected VI=0.0 for identical partitions. Got: %f", vi)
	}
}

func TestVariationOfInformation_Different(t *testing.T) {
	predicted := []int{0, 0, 0, 1, 1, 1}
	groundTruth := []int{0, 1, 0, 1, 0, 1}

	vi := VariationOfInformation(predicted, groundTruth)

	if vi < 0.1 {
		t.Errorf("Expected VI > 0 for different partitions. Got: %f", vi)
	}
}

func TestCompareClusterings_IdenticalPartitionsScorePerfectAgreement(t *testing.T) {
	outs := []ids.OutID{
		ids.NewDenseOutID(0), ids.NewDenseOutID(1),
		ids.NewDenseOutID(2), ids.NewDenseOutID(3),
	}

	a := disjointset.New[ids.OutID]()
	a.Union(outs[0], outs[1])
	b := disjointset.New[ids.OutID]()
	b.Union(outs[0], outs[1])

	agreement := CompareClusterings(a, b, outs)
	if math.Abs(agreement.ARI-1.0) > 0.01 {
		t.Errorf("expected ARI=1.0 for identical partitions, got %f", agreement.ARI)
	}
	if agreement.VI > 0.01 {
		t.Errorf("expected VI=0 for identical partitions, got %f", agreement.VI)
	}
}

func TestCompareClusterings_FinerPartitionScoresLowerAgreement(t *testing.T) {
	outs := []ids.OutID{
		ids.NewDenseOutID(0), ids.NewDenseOutID(1),
		ids.NewDenseOutID(2), ids.NewDenseOutID(3),
	}

	// global groups everything into one block; baseline leaves it split.
	global := disjointset.New[ids.OutID]()
	global.Union(outs[0], outs[1])
	global.Union(outs[1], outs[2])
	global.Union(outs[2], outs[3])

	baseline := disjointset.New[ids.OutID]()
	baseline.Union(outs[0], outs[1])
	baseline.Union(outs[2], outs[3])

	agreement := CompareClusterings(global, baseline, outs)
	if agreement.ARI >= 1.0 {
		t.Errorf("expected ARI < 1.0 for a coarser vs finer partition, got %f", agreement.ARI)
	}
	if agreement.VI <= 0.0 {
		t.Errorf("expected VI > 0 for a coarser vs finer partition, got %f", agreement.VI)
	}
}
