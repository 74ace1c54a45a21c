package Gomerge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeometry_Envelope(t *testing.T) {
	g := mustGeometry(t, "POLYGON ((10 49,11 49.5,10.5 50,10 49))")
	assert.False(t, g.IsEmpty())

	env, err := g.Envelope()
	require.NoError(t, err)
	assert.Equal(t, 10.0, env.MinX())
	assert.Equal(t, 49.0, env.MinY())
	assert.Equal(t, 11.0, env.MaxX())
	assert.Equal(t, 50.0, env.MaxY())
}

func TestGeometry_Empty(t *testing.T) {
	g := mustGeometry(t, "POLYGON EMPTY")
	assert.True(t, g.IsEmpty())

	_, err := g.Envelope()
	assert.ErrorIs(t, err, ErrDegenerateBox)
}

func TestGDALVersion(t *testing.T) {
	assert.NotEmpty(t, GDALVersion())
}
