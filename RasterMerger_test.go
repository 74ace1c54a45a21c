package Gomerge

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// closeCounter records whether the merger released a source.
type closeCounter struct {
	*RasterView
	closed  int
	onClose func()
}

func (c *closeCounter) Close() {
	c.closed++
	if c.onClose != nil {
		c.onClose()
	}
}

func TestRasterMerger_LaterSourceWins(t *testing.T) {
	gt := [6]float64{0, 1, 0, 10, 0, -1}
	first := &closeCounter{RasterView: NewRasterView(newTestRaster(t, 4326, 10, 10, 1, gt, 5))}
	second := &closeCounter{RasterView: NewRasterView(newTestRaster(t, 4326, 10, 10, 1, gt, 7))}

	merged, err := NewRasterMerger([]Source{first, second}, nil, nil).Merge("", memTarget)
	require.NoError(t, err)
	defer merged.Close()

	for _, v := range readAll(t, merged, 1) {
		assert.Equal(t, 7.0, v)
	}
	assert.Equal(t, 1, first.closed)
	assert.Equal(t, 1, second.closed)
}

func TestRasterMerger_MaskedSource(t *testing.T) {
	gt := [6]float64{0, 1, 0, 10, 0, -1}
	base := NewRasterView(newTestRaster(t, 4326, 10, 10, 1, gt, 5))
	masked, err := NewMaskedSource(newTestRaster(t, 4326, 10, 10, 1, gt, 7), "POLYGON ((0 0,5 0,5 10,0 10,0 0))", 4326, nil)
	require.NoError(t, err)

	merger := NewRasterMerger(nil, nil, DefaultMergeOptions())
	merger.AddSource(base)
	merger.AddSource(masked)

	merged, err := merger.Merge("", memTarget)
	require.NoError(t, err)
	defer merged.Close()

	data := readAll(t, merged, 1)
	for row := 0; row < 10; row++ {
		for col := 0; col < 10; col++ {
			want := 7.0
			if col < 5 {
				want = 5.0
			}
			assert.Equal(t, want, data[row*10+col], "pixel (%d, %d)", col, row)
		}
	}
}

func TestRasterMerger_ExplicitTarget(t *testing.T) {
	source := NewRasterView(newTestRaster(t, 4326, 4, 4, 1, [6]float64{2, 1, 0, 4, 0, -1}, 3))
	target, err := NewMergeTarget("", 8, 4, [6]float64{0, 1, 0, 4, 0, -1}, 1, TypeFloat32, projectionWKT(t, 4326), memTarget)
	require.NoError(t, err)

	merged, err := NewRasterMerger([]Source{source}, target, nil).Merge("ignored", TargetOptions{})
	require.NoError(t, err)
	defer merged.Close()
	assert.Same(t, target.Dataset(), merged)

	data := readAll(t, merged, 1)
	for row := 0; row < 4; row++ {
		for col := 0; col < 8; col++ {
			want := 0.0
			if col >= 2 && col < 6 {
				want = 3.0
			}
			assert.Equal(t, want, data[row*8+col], "pixel (%d, %d)", col, row)
		}
	}
}

func TestRasterMerger_Errors(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	_, err := NewRasterMerger(nil, nil, &MergeOptions{Metrics: metrics}).Merge("", memTarget)
	assert.ErrorIs(t, err, ErrNoSources)

	gt := [6]float64{0, 10, 0, 100, 0, -10}
	sources := []Source{
		NewRasterView(newTestRaster(t, 32633, 10, 10, 1, gt, 0)),
		NewRasterView(newTestRaster(t, 32632, 10, 10, 1, gt, 0)),
	}
	_, err = NewRasterMerger(sources, nil, &MergeOptions{Metrics: metrics}).Merge("", memTarget)
	assert.ErrorIs(t, err, ErrIncompatibleSources)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.merges.WithLabelValues("error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.sourcesMerged))
}

func TestRasterMerger_Metrics(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	gt := [6]float64{0, 1, 0, 10, 0, -1}
	sources := []Source{
		NewRasterView(newTestRaster(t, 4326, 10, 10, 1, gt, 1)),
		NewRasterView(newTestRaster(t, 4326, 10, 10, 1, gt, 2)),
	}

	merged, err := NewRasterMerger(sources, nil, &MergeOptions{Metrics: metrics}).Merge("", memTarget)
	require.NoError(t, err)
	merged.Close()

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.merges.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.sourcesMerged))
}

func TestParseResampleMethod(t *testing.T) {
	method, err := ParseResampleMethod("bilinear")
	require.NoError(t, err)
	assert.Equal(t, ResampleBilinear, method)

	method, err = ParseResampleMethod("")
	require.NoError(t, err)
	assert.Equal(t, ResampleNearest, method)

	_, err = ParseResampleMethod("mode")
	assert.Error(t, err)
}

func TestRasterMerger_AbortsOnFailingSource(t *testing.T) {
	gt := [6]float64{0, 1, 0, 10, 0, -1}
	first := &closeCounter{RasterView: NewRasterView(newTestRaster(t, 4326, 10, 10, 1, gt, 5))}
	broken := newTestRaster(t, 4326, 10, 10, 1, gt, 6)
	broken.Close()
	middle := &closeCounter{RasterView: NewRasterView(broken)}
	last := &closeCounter{RasterView: NewRasterView(newTestRaster(t, 4326, 10, 10, 1, gt, 7))}

	target, err := NewMergeTarget("", 10, 10, gt, 1, TypeFloat32, projectionWKT(t, 4326), memTarget)
	require.NoError(t, err)
	defer target.Close()

	merged, err := NewRasterMerger([]Source{first, middle, last}, target, nil).Merge("", TargetOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReprojection))
	assert.Nil(t, merged)

	assert.Equal(t, 1, first.closed)
	assert.Equal(t, 1, middle.closed, "the failing source is released")
	assert.Equal(t, 1, last.closed, "sources after the failure are released unmerged")

	for _, v := range readAll(t, target.Dataset(), 1) {
		assert.Equal(t, 5.0, v, "nothing after the failing source is merged")
	}
}

func TestRasterMerger_AbortClosesOwnTarget(t *testing.T) {
	gt := [6]float64{0, 1, 0, 10, 0, -1}
	middleDataset := newTestRaster(t, 4326, 10, 10, 1, gt, 6)
	middle := &closeCounter{RasterView: NewRasterView(middleDataset)}
	// the middle dataset disappears once the target grid has been derived
	first := &closeCounter{RasterView: NewRasterView(newTestRaster(t, 4326, 10, 10, 1, gt, 5)), onClose: middleDataset.Close}
	last := &closeCounter{RasterView: NewRasterView(newTestRaster(t, 4326, 10, 10, 1, gt, 7))}

	path := filepath.Join(t.TempDir(), "merged.tif")
	_, err := NewRasterMerger([]Source{first, middle, last}, nil, nil).Merge(path, TargetOptions{})
	assert.ErrorIs(t, err, ErrReprojection)
	assert.Equal(t, 1, middle.closed)
	assert.Equal(t, 1, last.closed)

	// a closed GTiff is complete on disk and can be opened again
	reopened, err := OpenRasterDataset(path, false)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, 10, reopened.Width())
}

func TestRasterMerger_IncompatibleSourcesAreReleased(t *testing.T) {
	gt := [6]float64{0, 10, 0, 100, 0, -10}
	a := &closeCounter{RasterView: NewRasterView(newTestRaster(t, 32633, 10, 10, 1, gt, 0))}
	b := &closeCounter{RasterView: NewRasterView(newTestRaster(t, 32632, 10, 10, 1, gt, 0))}

	_, err := NewRasterMerger([]Source{a, b}, nil, nil).Merge("", memTarget)
	assert.ErrorIs(t, err, ErrIncompatibleSources)
	assert.Equal(t, 1, a.closed)
	assert.Equal(t, 1, b.closed)
}
