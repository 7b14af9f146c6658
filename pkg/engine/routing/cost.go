// Package routing computes flood-aware routes over the road network graph:
// cost model, flood lookup, A* search and the three-profile route set.
package routing

import (
	"lintang/floodnav/pkg/datastructure"
)

const lowTerrainElevationM = 5.0

// FloodPenalty faktor pengali untuk segment tergenang per risk profile.
func FloodPenalty(profile datastructure.RiskProfile, flooded bool) float64 {
	if !flooded {
		return 1.0
	}
	switch profile {
	case datastructure.RiskAverse:
		return 50.0
	case datastructure.Balanced:
		return 5.0
	case datastructure.RiskTolerant:
		return 1.1
	default:
		return 5.0
	}
}

// TerrainPenalty jalan di dataran rendah (mean elevation < 5 m) lebih mahal.
func TerrainPenalty(seg *datastructure.RoadSegment) float64 {
	if seg.ElevationMean < lowTerrainElevationM {
		return 1.5
	}
	return 1.0
}

func ModePenalty(mode datastructure.TransportMode) float64 {
	switch mode {
	case datastructure.Motorcycle:
		return 0.9
	case datastructure.Walking:
		return 2.0
	default:
		return 1.0
	}
}

// MinMultiplier batas bawah multiplier untuk mode ini (flood & terrain = 1). Dipakai untuk scaling heuristic.
func MinMultiplier(mode datastructure.TransportMode) float64 {
	return ModePenalty(mode)
}

func Multiplier(seg *datastructure.RoadSegment, mode datastructure.TransportMode, profile datastructure.RiskProfile,
	flooded bool) float64 {
	return FloodPenalty(profile, flooded) * TerrainPenalty(seg) * ModePenalty(mode)
}

// SegmentCost biaya melewati seluruh segment: length_m * flood * terrain * mode.
func SegmentCost(seg *datastructure.RoadSegment, mode datastructure.TransportMode, profile datastructure.RiskProfile,
	cache *FloodLookupCache) float64 {
	return seg.LengthM * Multiplier(seg, mode, profile, cache.IsFlooded(seg))
}
