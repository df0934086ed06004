package dependency

import (
	"testing"

	"github.com/npucs/npucs/model"
	"github.com/stretchr/testify/assert"
)

func oneToOne() model.Dependency {
	return model.Dependency{
		OuterRatio: model.Ratio{Self: 1, Other: 1},
		InnerRatio: model.Ratio{Self: 1, Other: 1},
		Boundary:   0,
	}
}

func TestGetFirstReaderStripeId_OneToOneIsIdentity(t *testing.T) {
	dep := oneToOne()
	for x := uint32(0); x < 5; x++ {
		assert.Equal(t, int32(x), GetFirstReaderStripeId(dep, x))
	}
}

func TestGetLastReaderStripeId_OneToOneIsIdentity(t *testing.T) {
	dep := oneToOne()
	for x := uint32(0); x < 5; x++ {
		assert.Equal(t, int32(x), GetLastReaderStripeId(dep, x))
	}
}

func TestMonotonicity_FirstLessOrEqualLast(t *testing.T) {
	dep := model.Dependency{
		OuterRatio: model.Ratio{Self: 3, Other: 2},
		InnerRatio: model.Ratio{Self: 1, Other: 1},
		Boundary:   1,
	}
	var prevFirst, prevLast int32 = -1, -1
	for x := uint32(0); x < 12; x++ {
		first := GetFirstReaderStripeId(dep, x)
		last := GetLastReaderStripeId(dep, x)
		assert.LessOrEqual(t, first, last)
		assert.LessOrEqual(t, last, dep.OuterRatio.Other-1+ (int32(x)/dep.OuterRatio.Self)*dep.OuterRatio.Other)
		assert.GreaterOrEqual(t, first, prevFirst)
		assert.GreaterOrEqual(t, last, prevLast)
		prevFirst, prevLast = first, last
	}
}

func TestGetLastReaderOfEvictedStripeId_PanicsBelowTileSize(t *testing.T) {
	defer func() {
		assert.NotNil(t, recover())
	}()
	GetLastReaderOfEvictedStripeId(oneToOne(), 1, 4)
}

func TestGetLastReaderOfEvictedStripeId_MatchesShiftedLookup(t *testing.T) {
	dep := oneToOne()
	assert.Equal(t, GetLastReaderStripeId(dep, 6), GetLastReaderOfEvictedStripeId(dep, 10, 4))
}
