package Gomerge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRasterView_GetWindow(t *testing.T) {
	view := NewRasterView(newTestRaster(t, 4326, 10, 10, 1, [6]float64{0, 1, 0, 10, 0, -1}, 0))

	tests := []struct {
		name    string
		bbox    BBox
		want    Rect
		wantErr error
	}{
		{
			name: "inner box",
			bbox: mustBBox(t, 2, 2, 5, 5),
			want: NewRect(2, 5, 3, 3),
		},
		{
			name: "full extent",
			bbox: mustBBox(t, 0, 0, 10, 10),
			want: NewRect(0, 0, 10, 10),
		},
		{
			name: "floating point noise",
			bbox: mustBBox(t, 1.9999999, 2.0000001, 5.0000001, 4.9999999),
			want: NewRect(2, 5, 3, 3),
		},
		{
			name:    "sub pixel box",
			bbox:    mustBBox(t, 2.1, 2.1, 2.2, 2.2),
			wantErr: ErrWindowTooSmall,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := view.GetWindow(tt.bbox)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRasterView_Georeferencing(t *testing.T) {
	view := NewRasterView(newTestRaster(t, 32633, 4, 3, 2, [6]float64{500000, 10, 0, 5000000, 0, -20}, 0))

	resX, resY, err := view.Resolution()
	require.NoError(t, err)
	assert.Equal(t, 10.0, resX)
	assert.Equal(t, 20.0, resY)

	bbox, err := view.BBox()
	require.NoError(t, err)
	assert.Equal(t, mustBBox(t, 500000, 4999940, 500040, 5000000), bbox)

	sizeX, sizeY := view.Size()
	assert.Equal(t, 4, sizeX)
	assert.Equal(t, 3, sizeY)
	assert.Equal(t, 2, view.BandCount())

	srs, err := view.SRS()
	require.NoError(t, err)
	defer srs.Close()
	assert.False(t, srs.IsGeographic())
}

func TestRasterView_BBoxPositiveYResolution(t *testing.T) {
	view := NewRasterView(newTestRaster(t, 4326, 10, 5, 1, [6]float64{0, 1, 0, 0, 0, 1}, 0))
	bbox, err := view.BBox()
	require.NoError(t, err)
	assert.Equal(t, mustBBox(t, 0, 0, 10, 5), bbox)
}

func TestRasterView_ReadData(t *testing.T) {
	ds := newTestRaster(t, 4326, 4, 4, 1, [6]float64{0, 1, 0, 4, 0, -1}, 1)
	fillWindow(t, ds, 1, NewRect(2, 2, 2, 2), 9)
	view := NewRasterView(ds)

	data, err := view.ReadData(1, NewRect(1, 1, 2, 2), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 1, 9}, data)

	_, err = view.ReadData(2, NewRect(0, 0, 1, 1), 0, 0)
	assert.Error(t, err)

	view.Close()
	assert.Equal(t, 4, ds.Width(), "a view never closes a dataset it was given")
	_, err = ds.GeoTransform()
	assert.NoError(t, err)
}
