package dedup

import "math"

const earthRadiusKM = 6371.0

// DistanceKM is the haversine great-circle distance between two points in
// degrees, rounded to 2 decimal places. Symmetric; 0 for identical points.
// Out-of-range inputs pass through to the trig functions unchecked.
func DistanceKM(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return math.Round(earthRadiusKM*c*100) / 100
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
