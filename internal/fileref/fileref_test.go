package fileref

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAbsolute(t *testing.T) {
	dir := filepath.FromSlash("/data/trips")

	assert.Equal(t, filepath.FromSlash("/data/trips/img/a.jpg"), Absolute("img/a.jpg", dir))
	assert.Equal(t, filepath.FromSlash("/data/img/a.jpg"), Absolute("../img/a.jpg", dir))
	assert.Equal(t, "", Absolute("img/a.jpg", ""))
	assert.Equal(t, "", Absolute("", dir))
}

func TestAbsolute_AlreadyAbsolute(t *testing.T) {
	abs, err := filepath.Abs("photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, "", Absolute(abs, filepath.FromSlash("/data")))
}

func TestRelative(t *testing.T) {
	base, err := filepath.Abs("trips")
	require.NoError(t, err)

	assert.Equal(t, filepath.FromSlash("img/a.jpg"), Relative(base, filepath.Join(base, "img", "a.jpg")))
	assert.Equal(t, "a.jpg", Relative("", "a.jpg"))
	assert.Equal(t, "rel/a.jpg", Relative(base, "rel/a.jpg"))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("Relative")
	require.NoError(t, err)
	assert.Equal(t, FormatRelative, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatAbsolute, f)

	_, err = ParseFormat("uri")
	require.Error(t, err)
}
