package util_test

import (
	"testing"

	"lintang/floodnav/pkg/util"

	"github.com/stretchr/testify/assert"
)

func TestRoundFloat(t *testing.T) {
	assert.Equal(t, 3.14, util.RoundFloat(3.14159, 2))
	assert.Equal(t, -7.5561, util.RoundFloat(-7.55612, 4))
}

func TestReverseG(t *testing.T) {
	arr := []int{1, 2, 3, 4}
	util.ReverseG(arr)
	assert.Equal(t, []int{4, 3, 2, 1}, arr)
}

func TestMinMaxMean(t *testing.T) {
	t.Run("values", func(t *testing.T) {
		min, max, mean := util.MinMaxMean([]float64{4, 2, 6})
		assert.Equal(t, 2.0, min)
		assert.Equal(t, 6.0, max)
		assert.Equal(t, 4.0, mean)
	})
	t.Run("empty", func(t *testing.T) {
		min, max, mean := util.MinMaxMean(nil)
		assert.Zero(t, min)
		assert.Zero(t, max)
		assert.Zero(t, mean)
	})
}
