package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversine_OneDegreeOfLatitudeIsSixtyNauticalMiles(t *testing.T) {
	d := Haversine(Point{Lat: 29, Lon: -90}, Point{Lat: 30, Lon: -90})
	assert.InDelta(t, 60.0, d, 0.1)
}

func TestTable_DistanceIsSymmetric(t *testing.T) {
	// GIVEN a table with one explicit route
	tbl := NewTable()
	tbl.Set("source1", "HDD17", 12.5)

	// WHEN queried in both directions
	ab, okAB := tbl.Distance("source1", "HDD17")
	ba, okBA := tbl.Distance("HDD17", "source1")
	_, okMissing := tbl.Distance("source1", "HDD99")

	// THEN both directions agree and unknown pairs report !ok
	assert.True(t, okAB)
	assert.True(t, okBA)
	assert.Equal(t, ab, ba)
	assert.False(t, okMissing)
	assert.Equal(t, 1, tbl.Len())
}

func TestParse_PolylineAndExplicitDistances(t *testing.T) {
	// GIVEN a document mixing an explicit distance and a polyline route
	doc := []byte(`
locations:
  source1: {lat: 29.0, lon: -90.0}
  HDD17: {lat: 29.5, lon: -90.0}
routes:
  - from: source1
    to: HDD17
    path:
      - {lat: 29.25, lon: -90.0}
  - from: source1
    to: HDD18
    nm: 7.5
`)

	// WHEN parsed
	tbl, err := Parse(doc)

	// THEN the polyline is measured and the explicit figure is kept
	require.NoError(t, err)
	d, ok := tbl.Distance("HDD17", "source1")
	require.True(t, ok)
	assert.InDelta(t, 30.0, d, 0.1)
	d, ok = tbl.Distance("source1", "HDD18")
	require.True(t, ok)
	assert.Equal(t, 7.5, d)
}

func TestParse_RejectsUnknownFieldsAndShortRoutes(t *testing.T) {
	_, err := Parse([]byte("routez: []\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("routes:\n  - from: a\n    to: b\n"))
	assert.Error(t, err)
}
