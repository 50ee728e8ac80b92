package register

import (
	"testing"

	"github.com/govim/vimcore/internal/clipboard"
	"github.com/stretchr/testify/require"
)

func TestUnnamedDefaultRegister(t *testing.T) {
	s := New(nil)
	s.SetUnnamed(Content{Text: "hello", Kind: Charwise}, true)
	require.Equal(t, "hello", s.Get('"').Text)
	require.Equal(t, "hello", s.Get(0).Text)
}

func TestYankAlsoFillsRegisterZero(t *testing.T) {
	s := New(nil)
	s.SetUnnamed(Content{Text: "yanked", Kind: Charwise}, true)
	require.Equal(t, "yanked", s.Get('0').Text)
}

func TestDeleteDoesNotFillRegisterZero(t *testing.T) {
	s := New(nil)
	s.SetUnnamed(Content{Text: "yanked", Kind: Charwise}, true)
	s.SetUnnamed(Content{Text: "deleted line\n", Kind: Linewise}, false)
	require.Equal(t, "yanked", s.Get('0').Text)
}

func TestLinewiseDeleteShiftsNumberedRing(t *testing.T) {
	s := New(nil)
	s.SetUnnamed(Content{Text: "first\n", Kind: Linewise}, false)
	s.SetUnnamed(Content{Text: "second\n", Kind: Linewise}, false)
	require.Equal(t, "second\n", s.Get('1').Text)
	require.Equal(t, "first\n", s.Get('2').Text)
}

func TestCharwiseSmallDeleteDoesNotEnterRing(t *testing.T) {
	s := New(nil)
	s.SetUnnamed(Content{Text: "x", Kind: Charwise}, false)
	require.Equal(t, "", s.Get('1').Text)
}

func TestNamedRegisterLowercaseOverwrites(t *testing.T) {
	s := New(nil)
	s.Set('a', Content{Text: "one", Kind: Charwise})
	s.Set('a', Content{Text: "two", Kind: Charwise})
	require.Equal(t, "two", s.Get('a').Text)
}

func TestNamedRegisterUppercaseAppends(t *testing.T) {
	s := New(nil)
	s.Set('a', Content{Text: "one", Kind: Charwise})
	s.Set('A', Content{Text: "two", Kind: Charwise})
	require.Equal(t, "onetwo", s.Get('a').Text)
}

func TestNamedRegisterUppercaseAppendJoinsLinewise(t *testing.T) {
	s := New(nil)
	s.Set('a', Content{Text: "one", Kind: Linewise})
	s.Set('A', Content{Text: "two", Kind: Charwise})
	require.Equal(t, "one\ntwo", s.Get('a').Text)
	require.Equal(t, Linewise, s.Get('a').Kind)
}

func TestBlackholeRegisterDiscards(t *testing.T) {
	s := New(nil)
	s.Set('a', Content{Text: "keep", Kind: Charwise})
	s.Set('_', Content{Text: "gone", Kind: Charwise})
	require.Equal(t, Content{}, s.Get('_'))
	require.Equal(t, "keep", s.Get('a').Text)
}

func TestClipboardRegistersRouteToProvider(t *testing.T) {
	mem := clipboard.NewMemory()
	s := New(mem)
	s.Set('+', Content{Text: "clip", Kind: Charwise})
	require.Equal(t, "clip", s.Get('+').Text)

	text, err := mem.GetText()
	require.NoError(t, err)
	require.Equal(t, "clip", text)
}

func TestClipboardRegisterWithoutProviderActsLikeNamedRegister(t *testing.T) {
	s := New(nil)
	s.Set('*', Content{Text: "local", Kind: Charwise})
	require.Equal(t, "local", s.Get('*').Text)
}
