/*
Copyright (C) 2025 [GrainArc]

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published
by the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package Gomerge

/*
#include "gomerge_utils.h"
*/
import "C"

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ResampleMethod is the resampling used when reprojecting a source into the
// merge target.
type ResampleMethod int

const (
	ResampleNearest     ResampleMethod = ResampleMethod(C.GRA_NearestNeighbour)
	ResampleBilinear    ResampleMethod = ResampleMethod(C.GRA_Bilinear)
	ResampleCubic       ResampleMethod = ResampleMethod(C.GRA_Cubic)
	ResampleCubicSpline ResampleMethod = ResampleMethod(C.GRA_CubicSpline)
	ResampleLanczos     ResampleMethod = ResampleMethod(C.GRA_Lanczos)
)

// ParseResampleMethod maps a resampling name (nearest, bilinear, cubic,
// cubicspline, lanczos) to its method.
func ParseResampleMethod(name string) (ResampleMethod, error) {
	switch name {
	case "", "nearest":
		return ResampleNearest, nil
	case "bilinear":
		return ResampleBilinear, nil
	case "cubic":
		return ResampleCubic, nil
	case "cubicspline":
		return ResampleCubicSpline, nil
	case "lanczos":
		return ResampleLanczos, nil
	}
	return ResampleNearest, fmt.Errorf("unknown resampling method %q", name)
}

// MergeOptions configures a RasterMerger.
type MergeOptions struct {
	ResampleMethod ResampleMethod
	Metrics        *Metrics
}

// DefaultMergeOptions returns nearest neighbour resampling without metrics.
func DefaultMergeOptions() *MergeOptions {
	return &MergeOptions{ResampleMethod: ResampleNearest}
}

// RasterMerger reprojects an ordered list of sources into one target grid.
// Where sources overlap, the valid pixels of later sources win.
type RasterMerger struct {
	sources []Source
	target  *MergeTarget
	options *MergeOptions
}

// NewRasterMerger creates a merger. target may be nil, Merge then derives it
// from the sources. options may be nil.
func NewRasterMerger(sources []Source, target *MergeTarget, options *MergeOptions) *RasterMerger {
	if options == nil {
		options = DefaultMergeOptions()
	}
	return &RasterMerger{sources: sources, target: target, options: options}
}

// AddSource appends a source after all sources added so far.
func (m *RasterMerger) AddSource(source Source) {
	m.sources = append(m.sources, source)
}

// Merge reprojects every source into the target in order, closing each
// source right after it has been consumed. The first failing source aborts
// the merge; the sources after it are closed without being merged. Every
// source is closed when Merge returns. On success the target dataset is
// returned and the caller is responsible for closing it. outPath and opts
// are only used when the merger has no explicit target.
func (m *RasterMerger) Merge(outPath string, opts TargetOptions) (_ *RasterDataset, err error) {
	start := time.Now()
	log := logger.With().Str("merge_id", uuid.New().String()).Logger()
	defer func() {
		m.options.Metrics.observeMerge(start, err)
	}()

	if len(m.sources) == 0 {
		return nil, ErrNoSources
	}

	consumed := 0
	defer func() {
		for _, source := range m.sources[consumed:] {
			source.Close()
		}
	}()

	target := m.target
	if target == nil {
		target, err = MergeTargetFromSources(outPath, m.sources, opts)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err != nil {
				target.Close()
			}
		}()
	}

	log.Info().
		Int("sources", len(m.sources)).
		Str("target", target.Dataset().Path()).
		Msg("merging sources")

	for i, source := range m.sources {
		consumed = i + 1
		if err := m.reproject(log, i, source, target); err != nil {
			log.Warn().Err(err).Int("source", i).Int("skipped", len(m.sources)-consumed).Msg("merge aborted")
			return nil, err
		}
		m.options.Metrics.sourceMerged()
	}

	log.Info().Dur("elapsed", time.Since(start)).Msg("merge finished")
	return target.Dataset(), nil
}

func (m *RasterMerger) reproject(log zerolog.Logger, index int, source Source, target *MergeTarget) error {
	defer source.Close()
	defer lockGDAL()()

	src, err := source.View().Dataset().handle()
	if err != nil {
		return fmt.Errorf("%w: source %d: %w", ErrReprojection, index, err)
	}
	dst, err := target.Dataset().handle()
	if err != nil {
		return fmt.Errorf("%w: target: %w", ErrReprojection, err)
	}

	log.Debug().Int("source", index).Str("path", source.View().Dataset().Path()).Msg("reprojecting source")

	if C.GDALReprojectImage(src, nil, dst, nil, C.GDALResampleAlg(m.options.ResampleMethod),
		0, 0, nil, nil, nil) != C.CE_None {
		return lastError(ErrReprojection, fmt.Sprintf("reproject source %d", index))
	}
	return nil
}
