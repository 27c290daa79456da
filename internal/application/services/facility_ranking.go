package services

import (
	"math"
	"sort"

	"github.com/healthconnect/backend/internal/domain/entities"
	"github.com/healthconnect/backend/pkg/geo"
)

// DuplicateLatitudeTolerance is the latitude difference, in degrees, under which
// two same-named facilities are treated as one (about 111 m).
const DuplicateLatitudeTolerance = 0.001

// AssignDistances fills DistanceKm for every facility that does not have one yet.
func AssignDistances(origin entities.Coordinates, facilities []*entities.Facility) {
	for _, f := range facilities {
		if f.DistanceKm != nil {
			continue
		}
		d := geo.DistanceKm(origin.Latitude, origin.Longitude, f.Latitude, f.Longitude)
		f.DistanceKm = &d
	}
}

// RankByDistance sorts facilities nearest first. The sort is stable and
// facilities without a distance go last.
func RankByDistance(facilities []*entities.Facility) []*entities.Facility {
	sort.SliceStable(facilities, func(i, j int) bool {
		a, b := facilities[i].DistanceKm, facilities[j].DistanceKm
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
	return facilities
}

// DedupeNearby keeps the first of any facilities sharing an exact name whose
// latitudes differ by less than DuplicateLatitudeTolerance.
func DedupeNearby(facilities []*entities.Facility) []*entities.Facility {
	kept := make([]*entities.Facility, 0, len(facilities))
	for _, f := range facilities {
		duplicate := false
		for _, k := range kept {
			if k.Name == f.Name && math.Abs(k.Latitude-f.Latitude) < DuplicateLatitudeTolerance {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, f)
		}
	}
	return kept
}
