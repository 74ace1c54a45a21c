package Gomerge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg, err := DefaultConfig()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "GTiff", cfg.Driver)
	assert.Equal(t, 2.0, cfg.SimplificationFactor)
	assert.Equal(t, 4, cfg.Connectedness)
	assert.Equal(t, []string{"COMPRESS=NONE", "TILED=YES"}, cfg.GetCreationOptions())
}

func TestDecodeConfig(t *testing.T) {
	tests := []struct {
		name    string
		xml     string
		want    []string
		wantErr bool
	}{
		{
			name: "jpeg",
			xml:  `<config><compression>jpeg</compression><jpeg_quality>80</jpeg_quality><tiling>false</tiling></config>`,
			want: []string{"COMPRESS=JPEG", "JPEG_QUALITY=80"},
		},
		{
			name: "deflate with raw options",
			xml: `<config>
				<compression>DEFLATE</compression>
				<zlevel>9</zlevel>
				<creation_option>PREDICTOR=2</creation_option>
				<creation_option>BIGTIFF=YES</creation_option>
			</config>`,
			want: []string{"COMPRESS=DEFLATE", "ZLEVEL=9", "TILED=YES", "PREDICTOR=2", "BIGTIFF=YES"},
		},
		{
			name:    "unknown compression",
			xml:     `<config><compression>ZSTD</compression></config>`,
			wantErr: true,
		},
		{
			name:    "connectedness",
			xml:     `<config><connectedness>6</connectedness></config>`,
			wantErr: true,
		},
		{
			name:    "malformed creation option",
			xml:     `<config><creation_option>PREDICTOR</creation_option></config>`,
			wantErr: true,
		},
		{
			name:    "not xml",
			xml:     `{"driver": "GTiff"}`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := DecodeConfig(strings.NewReader(tt.xml))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.GetCreationOptions())
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.xml")
	require.NoError(t, os.WriteFile(path, []byte(`<config>
		<driver>COG</driver>
		<resampling>Bilinear</resampling>
		<simplification_factor>0.5</simplification_factor>
		<temp_dir>/tmp/gomerge</temp_dir>
	</config>`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, TargetOptions{Driver: "COG", CreationOptions: []string{"COMPRESS=NONE", "TILED=YES"}}, cfg.TargetOptions())

	mergeOptions, err := cfg.MergeOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, ResampleBilinear, mergeOptions.ResampleMethod)

	footprintOptions := cfg.FootprintOptions(nil)
	assert.Equal(t, 0.5, footprintOptions.SimplificationFactor)
	assert.Equal(t, 4, footprintOptions.Connectedness)
	assert.Equal(t, "/tmp/gomerge", footprintOptions.TempDir)
	assert.Equal(t, "/tmp/gomerge", cfg.MaskOptions().TempDir)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.xml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
