package domain

import (
	"fmt"
	"math/rand/v2"
)

// Coordinate is a WGS-84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Marker is one labeled point on a facility map.
type Marker struct {
	Coordinate
	Label   string `json:"label"`
	Contact string `json:"contact"`
	URL     string `json:"url"`
}

// facilityJitter bounds the random offset, in degrees, of generated markers.
const facilityJitter = 0.006

var (
	cityCoordinates = map[City]Coordinate{
		Delhi:     {28.6139, 77.2090},
		Mumbai:    {19.0760, 72.8777},
		Bangalore: {12.9716, 77.5946},
		Chennai:   {13.0827, 80.2707},
		Kolkata:   {22.5726, 88.3639},
		Hyderabad: {17.3850, 78.4867},
		Pune:      {18.5204, 73.8567},
		Ahmedabad: {23.0225, 72.5714},
	}
	// countryCenter is used for cities without known coordinates.
	countryCenter = Coordinate{20.5937, 78.9629}
)

// CityCoordinate returns the city center, or the country center and false
// when the city is unknown.
func CityCoordinate(c City) (Coordinate, bool) {
	coord, ok := cityCoordinates[c]
	if !ok {
		return countryCenter, false
	}
	return coord, true
}

// NearbyFacilities places one approximate marker per facility kind around the
// city center. Positions and contact numbers are illustrative, not looked up.
func NearbyFacilities(city City, places []string, rng *rand.Rand) []Marker {
	center, _ := CityCoordinate(city)
	out := make([]Marker, 0, len(places))
	for i, name := range places {
		lat := center.Lat + jitter(rng)
		lon := center.Lon + jitter(rng)
		out = append(out, Marker{
			Coordinate: Coordinate{Lat: lat, Lon: lon},
			Label:      fmt.Sprintf("%s %d", name, i+1),
			Contact:    fmt.Sprintf("+91-%d%d", 90000+rng.IntN(10000), 1000+rng.IntN(9000)),
			URL:        fmt.Sprintf("https://www.google.com/maps/search/?api=1&query=%f,%f", lat, lon),
		})
	}
	return out
}

func jitter(rng *rand.Rand) float64 {
	return (rng.Float64()*2 - 1) * facilityJitter
}
