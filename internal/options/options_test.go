package options

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	o := Defaults()
	require.Equal(t, 4, o.TabStop)
	require.Equal(t, 4, o.ShiftWidth)
	require.True(t, o.ExpandTab)
	require.True(t, o.IgnoreCase)
	require.Equal(t, 1000, o.History)
}

func TestSetBoolOn(t *testing.T) {
	o := Defaults()
	o.Number = false
	require.NoError(t, Set(&o, "number"))
	require.True(t, o.Number)
}

func TestSetBoolOff(t *testing.T) {
	o := Defaults()
	require.NoError(t, Set(&o, "noignorecase"))
	require.False(t, o.IgnoreCase)
}

func TestSetBoolToggle(t *testing.T) {
	o := Defaults()
	start := o.Wrap
	require.NoError(t, Set(&o, "wrap!"))
	require.Equal(t, !start, o.Wrap)
}

func TestSetBoolReset(t *testing.T) {
	o := Defaults()
	o.HLSearch = false
	require.NoError(t, Set(&o, "hlsearch&"))
	require.Equal(t, Defaults().HLSearch, o.HLSearch)
}

func TestSetIntOption(t *testing.T) {
	o := Defaults()
	require.NoError(t, Set(&o, "shiftwidth=2"))
	require.Equal(t, 2, o.ShiftWidth)
}

func TestSetIntOptionInvalidValue(t *testing.T) {
	o := Defaults()
	err := Set(&o, "shiftwidth=abc")
	require.Error(t, err)
}

func TestSetUnknownOptionIgnored(t *testing.T) {
	o := Defaults()
	err := Set(&o, "nosuchoption")
	require.NoError(t, err)
}

func TestSetColorscheme(t *testing.T) {
	o := Defaults()
	require.NoError(t, Set(&o, "colorscheme=dracula"))
	require.Equal(t, "dracula", o.ColorScheme)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	o, err := Load("/nonexistent/path/to/options.yaml")
	require.NoError(t, err)
	require.Equal(t, Defaults(), o)
}

func TestWriteDefaultConfigCreatesLoadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	o, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, Defaults(), o)
}
