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
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/carlmjohnson/versioninfo"
	"github.com/iancoleman/strcase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/GrainArc/Gomerge"
)

const CONFIG string = `config`
const DRIVER string = `driver`
const CREATIONOPTION string = `co`
const RESAMPLING string = `resampling`
const SIMPLIFICATIONFACTOR string = `simplification-factor`
const LOGLEVEL string = `log-level`
const METRICSTEXTFILE string = `metrics-textfile`

func main() {
	app := cli.NewApp()
	app.Name = "gomerge"
	app.Usage = "Merge geo-referenced rasters along their data footprints"
	app.UsageText = "gomerge [flags] inputA inputB [inputC ...] output"
	app.Version = versioninfo.Short()

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    CONFIG,
			Aliases: []string{"c"},
			Usage:   "Path of the XML config, defaults to <user config dir>/Gomerge/config.xml",
			EnvVars: []string{envVar(CONFIG)},
		},
		&cli.StringFlag{
			Name:    DRIVER,
			Aliases: []string{"d"},
			Usage:   "GDAL driver of the output. E.g.: GTiff",
			EnvVars: []string{envVar(DRIVER)},
		},
		&cli.StringSliceFlag{
			Name:    CREATIONOPTION,
			Usage:   "Driver creation option KEY=VALUE, repeatable",
			EnvVars: []string{envVar(CREATIONOPTION)},
		},
		&cli.StringFlag{
			Name:    RESAMPLING,
			Aliases: []string{"r"},
			Usage:   "Resampling method: nearest, bilinear, cubic, cubicspline or lanczos",
			EnvVars: []string{envVar(RESAMPLING)},
		},
		&cli.Float64Flag{
			Name:    SIMPLIFICATIONFACTOR,
			Usage:   "Footprint simplification tolerance in pixels",
			EnvVars: []string{envVar(SIMPLIFICATIONFACTOR)},
		},
		&cli.StringFlag{
			Name:    LOGLEVEL,
			Usage:   "Log level: debug, info, warn or error",
			EnvVars: []string{envVar(LOGLEVEL)},
		},
		&cli.StringFlag{
			Name:    METRICSTEXTFILE,
			Usage:   "Write metrics in the node exporter textfile format to this path",
			EnvVars: []string{envVar(METRICSTEXTFILE)},
		},
	}

	app.Action = mergeAction
	app.Commands = []*cli.Command{
		{
			Name:      "footprint",
			Usage:     "Print the footprint of a raster as WKT",
			ArgsUsage: "<raster>",
			Action:    footprintAction,
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func envVar(flag string) string {
	return "GOMERGE_" + strcase.ToScreamingSnake(flag)
}

// run carries what every action needs: the effective config and the
// metrics, which are only collected when a textfile is requested.
type run struct {
	config   *Gomerge.Config
	metrics  *Gomerge.Metrics
	registry *prometheus.Registry
	textfile string
}

func setup(c *cli.Context) (*run, error) {
	cfg, err := Gomerge.LoadConfig(c.String(CONFIG))
	if err != nil {
		return nil, err
	}
	if c.IsSet(DRIVER) {
		cfg.Driver = c.String(DRIVER)
	}
	if c.IsSet(CREATIONOPTION) {
		cfg.CreationOptions = append(cfg.CreationOptions, c.StringSlice(CREATIONOPTION)...)
	}
	if c.IsSet(RESAMPLING) {
		cfg.Resampling = c.String(RESAMPLING)
	}
	if c.IsSet(SIMPLIFICATIONFACTOR) {
		cfg.SimplificationFactor = c.Float64(SIMPLIFICATIONFACTOR)
	}
	if c.IsSet(LOGLEVEL) {
		cfg.LogLevel = c.String(LOGLEVEL)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := Gomerge.NewLogger(cfg.LogLevel, true, os.Stderr)
	Gomerge.SetLogger(logger)
	logger.Debug().Str("gdal", Gomerge.GDALVersion()).Str("version", versioninfo.Short()).Msg("starting")

	r := &run{config: cfg, textfile: c.String(METRICSTEXTFILE)}
	if r.textfile != "" {
		r.registry = prometheus.NewRegistry()
		r.metrics = Gomerge.NewMetrics(r.registry)
	}
	return r, nil
}

func (r *run) writeMetrics() error {
	if r.registry == nil {
		return nil
	}
	return prometheus.WriteToTextfile(r.textfile, r.registry)
}

func mergeAction(c *cli.Context) error {
	args := c.Args().Slice()
	if len(args) < 3 {
		return cli.Exit("too few arguments given. Usage: inputA inputB (inputC ...) output", 1)
	}
	inputs, output := args[:len(args)-1], args[len(args)-1]

	r, err := setup(c)
	if err != nil {
		return err
	}
	defer func() {
		if err := r.writeMetrics(); err != nil {
			log.Printf("could not write metrics: %s", err)
		}
	}()

	mergeOptions, err := r.config.MergeOptions(r.metrics)
	if err != nil {
		return err
	}
	pool := Gomerge.NewFootprintPool(0, r.config.FootprintOptions(r.metrics))
	footprints, err := pool.Footprints(c.Context, inputs)
	pool.Shutdown()
	if err != nil {
		return err
	}

	sources := make([]Gomerge.Source, 0, len(inputs))
	defer func() {
		for _, source := range sources {
			source.Close()
		}
	}()

	for i, input := range inputs {
		source, err := maskedSource(input, footprints[i], r.config.MaskOptions())
		if err != nil {
			return err
		}
		sources = append(sources, source)
	}

	merger := Gomerge.NewRasterMerger(sources, nil, mergeOptions)
	merged, err := merger.Merge(output, r.config.TargetOptions())
	if err != nil {
		return err
	}
	defer merged.Close()
	return merged.Flush()
}

// maskedSource opens input and masks it with its footprint, which is
// always in EPSG:4326.
func maskedSource(input, footprint string, options *Gomerge.MaskOptions) (*Gomerge.MaskedSource, error) {
	ds, err := Gomerge.OpenRasterDataset(input, false)
	if err != nil {
		return nil, err
	}

	options.OwnDataset = true
	source, err := Gomerge.NewMaskedSource(ds, footprint, Gomerge.DefaultSRID, options)
	if err != nil {
		ds.Close()
		return nil, err
	}
	return source, nil
}

func footprintAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("expected exactly one raster", 1)
	}

	r, err := setup(c)
	if err != nil {
		return err
	}
	defer func() {
		if err := r.writeMetrics(); err != nil {
			log.Printf("could not write metrics: %s", err)
		}
	}()

	ds, err := Gomerge.OpenRasterDataset(c.Args().First(), false)
	if err != nil {
		return err
	}
	defer ds.Close()

	footprint, err := Gomerge.NewFootprintExtractor(r.config.FootprintOptions(r.metrics)).GenerateFootprint(ds)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, footprint)
	return err
}
