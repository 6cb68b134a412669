// Package route provides a static DistanceOracle: a table of named-location
// pairs whose distances come either from an explicit nautical-mile figure or
// from the length of a lat/lon polyline.
package route

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// earthRadiusNM is the mean Earth radius in nautical miles.
const earthRadiusNM = 3440.065

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
}

// Spec describes one route between two named locations. Either NM or Path
// must be set; Path is the list of waypoints between the endpoints.
type Spec struct {
	From string   `yaml:"from"`
	To   string   `yaml:"to"`
	NM   *float64 `yaml:"nm"`
	Path []Point  `yaml:"path"`
}

// File is the on-disk route document.
type File struct {
	Locations map[string]Point `yaml:"locations"`
	Routes    []Spec           `yaml:"routes"`
}

type pair struct{ a, b string }

// Table is a symmetric distance lookup. The zero value is not usable; call NewTable.
type Table struct {
	dist map[pair]float64
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{dist: make(map[pair]float64)}
}

// Set records the distance between a and b in both directions.
func (t *Table) Set(a, b string, nm float64) {
	t.dist[pair{a, b}] = nm
	t.dist[pair{b, a}] = nm
}

// Distance implements sim.DistanceOracle.
func (t *Table) Distance(a, b string) (float64, bool) {
	if a == b {
		return 0, true
	}
	d, ok := t.dist[pair{a, b}]
	return d, ok
}

// Len is the number of undirected routes in the table.
func (t *Table) Len() int { return len(t.dist) / 2 }

// Load reads a route document from path.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading routes: %w", err)
	}
	return Parse(data)
}

// Parse builds a table from a YAML route document.
func Parse(data []byte) (*Table, error) {
	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing routes: %w", err)
	}
	return f.Build()
}

// Build resolves every route spec to a distance.
func (f File) Build() (*Table, error) {
	t := NewTable()
	for i, r := range f.Routes {
		if r.From == "" || r.To == "" {
			return nil, fmt.Errorf("route[%d]: from and to are required", i)
		}
		if r.NM != nil {
			if *r.NM < 0 || math.IsNaN(*r.NM) {
				return nil, fmt.Errorf("route[%d] %s-%s: nm must be non-negative, got %f", i, r.From, r.To, *r.NM)
			}
			t.Set(r.From, r.To, *r.NM)
			continue
		}
		pts := make([]Point, 0, len(r.Path)+2)
		if p, ok := f.Locations[r.From]; ok {
			pts = append(pts, p)
		}
		pts = append(pts, r.Path...)
		if p, ok := f.Locations[r.To]; ok {
			pts = append(pts, p)
		}
		if len(pts) < 2 {
			return nil, fmt.Errorf("route[%d] %s-%s: needs nm or at least two points", i, r.From, r.To)
		}
		t.Set(r.From, r.To, PolylineNM(pts))
	}
	return t, nil
}

// Haversine is the great-circle distance between two points in nautical miles.
func Haversine(a, b Point) float64 {
	lat1, lat2 := a.Lat*math.Pi/180, b.Lat*math.Pi/180
	dLat := lat2 - lat1
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusNM * math.Asin(math.Min(1, math.Sqrt(h)))
}

// PolylineNM sums the haversine legs of a polyline.
func PolylineNM(pts []Point) float64 {
	total := 0.0
	for i := 1; i < len(pts); i++ {
		total += Haversine(pts[i-1], pts[i])
	}
	return total
}
