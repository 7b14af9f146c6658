package geo

import (
	"math"

	"lintang/floodnav/pkg/datastructure"
	"lintang/floodnav/pkg/util"
)

const earthRadiusKM = 6371.0

const (
	// NodePrecision jumlah digit desimal untuk key node graph (~1.1 m).
	NodePrecision = 5
	// FloodLookupPrecision jumlah digit desimal untuk key flood lookup cache (~11 m).
	FloodLookupPrecision = 4
)

type Location struct {
	Latitude  float64
	Longitude float64
}

func degreeToRadians(angle float64) float64 {
	return angle * (math.Pi / 180.0)
}

func NewLocation(latDegree float64, lonDegree float64) Location {
	return Location{
		Latitude:  degreeToRadians(latDegree),
		Longitude: degreeToRadians(lonDegree),
	}
}

func havFunction(angleRad float64) float64 {
	return (1 - math.Cos(angleRad)) / 2.0
}

func havFormula(locationOne Location, locationTwo Location) float64 {
	latDiff := locationOne.Latitude - locationTwo.Latitude
	lonDiff := locationOne.Longitude - locationTwo.Longitude

	return havFunction(latDiff) + math.Cos(locationOne.Latitude)*math.Cos(locationTwo.Latitude)*havFunction(lonDiff)
}

func archaversine(havAngle float64) float64 {
	return 2.0 * math.Asin(math.Sqrt(math.Min(1, havAngle)))
}

// HaversineDistance great-circle distance dalam km.
func HaversineDistance(locationOne Location, locationTwo Location) float64 {
	return earthRadiusKM * archaversine(havFormula(locationOne, locationTwo))
}

// DistanceMeters great-circle distance antara dua koordinat dalam meter.
func DistanceMeters(a, b datastructure.Coordinate) float64 {
	return HaversineDistance(NewLocation(a.Lat, a.Lon), NewLocation(b.Lat, b.Lon)) * 1000
}

// PolylineLength jumlah great-circle distance antar titik berurutan (meter).
func PolylineLength(points []datastructure.Coordinate) float64 {
	length := 0.0
	for i := 1; i < len(points); i++ {
		length += DistanceMeters(points[i-1], points[i])
	}
	return length
}

// Quantize membulatkan koordinat ke precision digit desimal. Dipakai sebagai key node graph & flood cache.
func Quantize(c datastructure.Coordinate, precision uint) datastructure.Coordinate {
	return datastructure.Coordinate{
		Lat: util.RoundFloat(c.Lat, precision),
		Lon: util.RoundFloat(c.Lon, precision),
	}
}
