package Gomerge

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withoutTopologySimplify(t *testing.T) {
	t.Helper()
	available := topologySimplifyAvailable
	topologySimplifyAvailable = func() bool { return false }
	t.Cleanup(func() { topologySimplifyAvailable = available })
}

func mustGeometry(t *testing.T, wkt string) *Geometry {
	t.Helper()
	g, err := NewGeometryFromWKT(wkt, nil)
	require.NoError(t, err)
	t.Cleanup(g.Close)
	return g
}

func exteriorPoints(t *testing.T, g *Geometry) int {
	t.Helper()
	geom, err := g.Orb()
	require.NoError(t, err)
	polygon, ok := geom.(orb.Polygon)
	require.True(t, ok)
	return len(polygon[0])
}

const collinearSquare = "POLYGON ((0 0,1 0,2 0,2 1,2 2,1 2,0 2,0 1,0 0))"

func TestSimplifyGeometry_ZeroTolerance(t *testing.T) {
	g := mustGeometry(t, collinearSquare)

	simplified, err := simplifyGeometry(g, 0, nil)
	require.NoError(t, err)
	defer simplified.Close()

	want, err := g.WKT()
	require.NoError(t, err)
	got, err := simplified.WKT()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSimplifyGeometry(t *testing.T) {
	tests := []struct {
		name     string
		fallback bool
	}{
		{name: "gdal"},
		{name: "douglas peucker", fallback: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.fallback {
				withoutTopologySimplify(t)
			} else if !topologySimplifyAvailable() {
				t.Skip("GDAL built without GEOS")
			}

			simplified, err := simplifyGeometry(mustGeometry(t, collinearSquare), 0.1, nil)
			require.NoError(t, err)
			defer simplified.Close()

			assert.Equal(t, 5, exteriorPoints(t, simplified))
			assert.InDelta(t, 4.0, simplified.Area(), 1e-9)
		})
	}
}

func TestSimplifyFallback_MultiPolygon(t *testing.T) {
	withoutTopologySimplify(t)
	g := mustGeometry(t, "MULTIPOLYGON (((0 0,1 0,2 0,2 2,0 2,0 0)),((10 10,10.01 10,10 10.01,10 10)))")

	simplified, err := simplifyGeometry(g, 0.5, nil)
	require.NoError(t, err)
	defer simplified.Close()

	geom, err := simplified.Orb()
	require.NoError(t, err)
	multi, ok := geom.(orb.MultiPolygon)
	require.True(t, ok)
	assert.Len(t, multi, 1, "collapsed parts are dropped")
}

func TestSimplifyFallback_Collapsed(t *testing.T) {
	withoutTopologySimplify(t)
	g := mustGeometry(t, "POLYGON ((0 0,1 0,0 1,0 0))")

	_, err := simplifyGeometry(g, 10, nil)
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestSimplifyFallback_KeepsSpatialRef(t *testing.T) {
	withoutTopologySimplify(t)
	latLon, err := NewSpatialRefFromEPSG(DefaultSRID)
	require.NoError(t, err)
	defer latLon.Close()
	mercator, err := NewSpatialRefFromEPSG(3857)
	require.NoError(t, err)
	defer mercator.Close()

	g, err := NewGeometryFromWKT(collinearSquare, latLon)
	require.NoError(t, err)
	defer g.Close()

	simplified, err := simplifyGeometry(g, 0.5, latLon)
	require.NoError(t, err)
	defer simplified.Close()

	require.NoError(t, simplified.TransformTo(mercator), "simplified geometry lost its reference system")
	env, err := simplified.Envelope()
	require.NoError(t, err)
	assert.InDelta(t, 222638.98, env.MaxX(), 1)
}
