package services

import "math"

// Area returns the floor area of a rectangular zone. Non-positive dimensions
// yield zero.
func Area(length, width float64) float64 {
	if length <= 0 || width <= 0 {
		return 0
	}
	return length * width
}

// DewPoint returns the approximate dew point for an air temperature and
// relative humidity, rounded to one decimal place.
//
// This is the linear rule of thumb temp - (100 - RH)/5, not the Magnus
// formula. Readings already stored were derived with it, so it must not be
// swapped for a more accurate model without a data migration.
func DewPoint(temp, humidity float64) float64 {
	return round1(temp - (100-humidity)/5)
}

// TotalArea sums the area of every affected area, deriving it from the
// dimensions when the stored value is missing.
func TotalArea(areas []AffectedArea) float64 {
	var total float64
	for _, a := range areas {
		if a.Area > 0 {
			total += a.Area
			continue
		}
		total += Area(a.Length, a.Width)
	}
	return total
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
