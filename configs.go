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

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

// Config holds the ingest settings read from config.xml.
type Config struct {
	XMLName xml.Name `xml:"config"`

	Driver          string   `xml:"driver" default:"GTiff" validate:"required"`
	Compression     string   `xml:"compression" default:"NONE" validate:"oneof=NONE LZW DEFLATE JPEG PACKBITS"`
	JPEGQuality     int      `xml:"jpeg_quality" default:"75" validate:"gte=1,lte=100"`
	ZLevel          int      `xml:"zlevel" default:"6" validate:"gte=1,lte=9"`
	Tiling          bool     `xml:"tiling" default:"true"`
	CreationOptions []string `xml:"creation_option" validate:"dive,contains=="`

	SimplificationFactor float64 `xml:"simplification_factor" default:"2" validate:"gte=0"`
	Connectedness        int     `xml:"connectedness" default:"4" validate:"oneof=4 8"`
	Resampling           string  `xml:"resampling" default:"nearest" validate:"oneof=nearest bilinear cubic cubicspline lanczos"`
	TempDir              string  `xml:"temp_dir"`

	LogLevel string `xml:"log_level" default:"info" validate:"oneof=debug info warn error"`
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UserConfigPath returns <user config dir>/Gomerge/config.xml.
func UserConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "Gomerge", "config.xml"), nil
}

// LoadConfig reads the configuration at path. An empty path means
// UserConfigPath, which may be absent: the defaults are returned then.
func LoadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := UserConfigPath()
		if err != nil {
			return DefaultConfig()
		}
		path = p
	}

	xmlFile, err := os.Open(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return DefaultConfig()
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer xmlFile.Close()

	cfg, err := DecodeConfig(xmlFile)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	logger.Debug().Str("path", path).Msg("loaded config")
	return cfg, nil
}

// DecodeConfig decodes and validates an XML configuration. Elements that are
// missing keep their defaults.
func DecodeConfig(r io.Reader) (*Config, error) {
	cfg, err := DefaultConfig()
	if err != nil {
		return nil, err
	}
	if err := xml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, err
	}
	cfg.Compression = strings.ToUpper(strings.TrimSpace(cfg.Compression))
	cfg.Resampling = strings.ToLower(strings.TrimSpace(cfg.Resampling))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	return validate.Struct(c)
}

// GetCreationOptions builds the driver creation options: compression and its
// parameters, tiling, then the raw creation options untouched.
func (c *Config) GetCreationOptions() []string {
	options := []string{"COMPRESS=" + c.Compression}
	switch c.Compression {
	case "JPEG":
		options = append(options, "JPEG_QUALITY="+strconv.Itoa(c.JPEGQuality))
	case "DEFLATE":
		options = append(options, "ZLEVEL="+strconv.Itoa(c.ZLevel))
	}
	if c.Tiling {
		options = append(options, "TILED=YES")
	}
	return append(options, c.CreationOptions...)
}

// TargetOptions returns the output options of a merge.
func (c *Config) TargetOptions() TargetOptions {
	return TargetOptions{Driver: c.Driver, CreationOptions: c.GetCreationOptions()}
}

// MergeOptions returns merge options with the configured resampling.
func (c *Config) MergeOptions(metrics *Metrics) (*MergeOptions, error) {
	method, err := ParseResampleMethod(c.Resampling)
	if err != nil {
		return nil, err
	}
	return &MergeOptions{ResampleMethod: method, Metrics: metrics}, nil
}

// FootprintOptions returns footprint options with the configured
// simplification.
func (c *Config) FootprintOptions(metrics *Metrics) *FootprintOptions {
	return &FootprintOptions{
		SimplificationFactor: c.SimplificationFactor,
		Connectedness:        c.Connectedness,
		TempDir:              c.TempDir,
		Metrics:              metrics,
	}
}

// MaskOptions returns the options for masked sources.
func (c *Config) MaskOptions() *MaskOptions {
	return &MaskOptions{TempDir: c.TempDir}
}
