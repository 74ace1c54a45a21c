package Gomerge

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func projectionWKT(t *testing.T, epsg int) string {
	t.Helper()
	sr, err := NewSpatialRefFromEPSG(epsg)
	require.NoError(t, err)
	defer sr.Close()
	wkt, err := sr.WKT()
	require.NoError(t, err)
	return wkt
}

// newTestRaster creates an in-memory raster filled with fill in every band.
func newTestRaster(t *testing.T, epsg int, width, height, bands int, gt [6]float64, fill float64) *RasterDataset {
	t.Helper()
	ds, err := CreateMemRaster(width, height, bands, TypeFloat32)
	require.NoError(t, err)
	t.Cleanup(ds.Close)

	require.NoError(t, ds.SetGeoTransform(gt))
	require.NoError(t, ds.SetProjection(projectionWKT(t, epsg)))
	for b := 1; b <= bands; b++ {
		require.NoError(t, ds.Fill(b, fill))
	}
	return ds
}

func fillWindow(t *testing.T, ds *RasterDataset, band int, r Rect, value float64) {
	t.Helper()
	data := make([]float64, r.Area())
	for i := range data {
		data[i] = value
	}
	require.NoError(t, ds.WriteWindow(band, r, data))
}

func readAll(t *testing.T, ds *RasterDataset, band int) []float64 {
	t.Helper()
	data, err := ds.ReadWindow(band, NewRect(0, 0, ds.Width(), ds.Height()), 0, 0)
	require.NoError(t, err)
	return data
}
