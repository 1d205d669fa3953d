package step

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll_CanonicalOrder(t *testing.T) {
	ids := AllIDs()
	assert.Equal(t, []ID{IDCore, IDPlugins, IDThemes, IDTranslations}, ids)
}

func TestLookup(t *testing.T) {
	s, ok := Lookup(IDPlugins)
	require.True(t, ok)
	assert.Equal(t, "Plugins", s.Label())

	_, ok = Lookup(ID("bogus"))
	assert.False(t, ok)
}

func TestSelect_Empty_ReturnsAll(t *testing.T) {
	steps, err := Select(nil)
	require.NoError(t, err)
	assert.Len(t, steps, 4)
}

func TestSelect_PreservesCanonicalOrder(t *testing.T) {
	// Requested out of order; emitted in registry order.
	steps, err := Select([]ID{IDTranslations, IDCore})
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, IDCore, steps[0].ID())
	assert.Equal(t, IDTranslations, steps[1].ID())
}

func TestSelect_CollapsesDuplicates(t *testing.T) {
	steps, err := Select([]ID{IDThemes, IDThemes})
	require.NoError(t, err)
	assert.Len(t, steps, 1)
}

func TestSelect_UnknownID(t *testing.T) {
	_, err := Select([]ID{ID("widgets")})
	assert.Error(t, err)
}

func TestParseID(t *testing.T) {
	id, err := ParseID(" Core ")
	require.NoError(t, err)
	assert.Equal(t, IDCore, id)

	_, err = ParseID("widgets")
	assert.Error(t, err)
}

func TestStep_Commands(t *testing.T) {
	s, ok := Lookup(IDPlugins)
	require.True(t, ok)

	cmds := s.Commands("/srv/www", []string{"akismet", "jetpack"})
	require.Len(t, cmds, 1)
	assert.Equal(t,
		[]string{"plugin", "update", "--all", "--exclude=akismet,jetpack", "--path=/srv/www"},
		cmds[0])
}

func TestStep_Commands_ExcludeIgnoredWhereUnsupported(t *testing.T) {
	s, ok := Lookup(IDCore)
	require.True(t, ok)

	cmds := s.Commands("/srv/www", []string{"akismet"})
	require.Len(t, cmds, 1)
	assert.Equal(t, []string{"core", "update", "--path=/srv/www"}, cmds[0])
}

func TestStep_Commands_Translations(t *testing.T) {
	s, ok := Lookup(IDTranslations)
	require.True(t, ok)

	cmds := s.Commands("/srv/www", nil)
	require.Len(t, cmds, 3)
	assert.Equal(t, []string{"language", "core", "update", "--path=/srv/www"}, cmds[0])
	assert.Equal(t, []string{"language", "plugin", "update", "--all", "--path=/srv/www"}, cmds[1])
	assert.Equal(t, []string{"language", "theme", "update", "--all", "--path=/srv/www"}, cmds[2])
}
