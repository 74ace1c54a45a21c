package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GrainArc/Gomerge"
)

func writeUTMGeoTIFF(t *testing.T) string {
	t.Helper()
	sr, err := Gomerge.NewSpatialRefFromEPSG(32633)
	require.NoError(t, err)
	defer sr.Close()
	wkt, err := sr.WKT()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "utm.tif")
	ds, err := Gomerge.CreateRasterDataset("GTiff", path, 10, 10, 1, Gomerge.TypeByte, nil)
	require.NoError(t, err)
	require.NoError(t, ds.SetGeoTransform([6]float64{500000, 10, 0, 5000100, 0, -10}))
	require.NoError(t, ds.SetProjection(wkt))
	require.NoError(t, ds.Fill(1, 7))
	ds.Close()
	return path
}

func TestMaskedSource_ProjectedInput(t *testing.T) {
	path := writeUTMGeoTIFF(t)

	ds, err := Gomerge.OpenRasterDataset(path, false)
	require.NoError(t, err)
	footprint, err := Gomerge.GenerateFootprintWKT(ds, 0)
	ds.Close()
	require.NoError(t, err)

	source, err := maskedSource(path, footprint, &Gomerge.MaskOptions{TempDir: t.TempDir()})
	require.NoError(t, err)
	defer source.Close()

	// the lon/lat footprint covers the whole UTM grid
	mask, err := source.Dataset().ReadMask(1, Gomerge.NewRect(0, 0, 10, 10))
	require.NoError(t, err)
	for i, v := range mask {
		assert.Zero(t, v, "pixel %d is outside the footprint", i)
	}
}
