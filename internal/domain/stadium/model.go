package stadium

import "math"

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64
	Lon float64
}

func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lon, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// InfoboxRow is one header/value pair of a wiki infobox table.
type InfoboxRow struct {
	Header string
	Value  string
}
