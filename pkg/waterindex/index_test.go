package waterindex_test

import (
	"testing"

	"lintang/floodnav/pkg/datastructure"
	"lintang/floodnav/pkg/geo"
	"lintang/floodnav/pkg/waterindex"

	"github.com/stretchr/testify/assert"
)

func sampleFeatures() []datastructure.WaterFeature {
	return []datastructure.WaterFeature{
		{
			ID:   1,
			Kind: "waterway",
			Points: []datastructure.Coordinate{
				{Lat: -7.57, Lon: 110.80},
				{Lat: -7.57, Lon: 110.84},
			},
		},
		{
			ID:     2,
			Kind:   "water",
			Closed: true,
			Points: []datastructure.Coordinate{
				{Lat: -7.551, Lon: 110.799},
				{Lat: -7.551, Lon: 110.801},
				{Lat: -7.549, Lon: 110.801},
				{Lat: -7.549, Lon: 110.799},
				{Lat: -7.551, Lon: 110.799},
			},
		},
	}
}

func TestDistanceTo(t *testing.T) {
	idx := waterindex.New(sampleFeatures(), waterindex.DefaultOptions())
	assert.Equal(t, 2, idx.Len())

	t.Run("point north of river", func(t *testing.T) {
		q := datastructure.NewCoordinate(-7.5691, 110.82)
		want := geo.DistanceMeters(q, datastructure.NewCoordinate(-7.57, 110.82))
		assert.InDelta(t, want, idx.DistanceTo(q), 1)
	})

	t.Run("point on river between vertices", func(t *testing.T) {
		assert.InDelta(t, 0, idx.DistanceTo(datastructure.NewCoordinate(-7.57, 110.8123)), 1)
	})

	t.Run("point inside lake", func(t *testing.T) {
		assert.Equal(t, 0.0, idx.DistanceTo(datastructure.NewCoordinate(-7.55, 110.80)))
	})

	t.Run("point near lake shore", func(t *testing.T) {
		d := idx.DistanceTo(datastructure.NewCoordinate(-7.5485, 110.80))
		assert.InDelta(t, 55, d, 2)
	})

	t.Run("far away falls back to default", func(t *testing.T) {
		assert.Equal(t, 5000.0, idx.DistanceTo(datastructure.NewCoordinate(-7.40, 110.50)))
	})
}

func TestEmptyIndex(t *testing.T) {
	idx := waterindex.New(nil, waterindex.Options{Resolution: 8, SearchRadiusM: 1000, DefaultDistanceM: 2500})
	assert.Equal(t, 2500.0, idx.DistanceTo(datastructure.NewCoordinate(-7.55, 110.80)))
}
