package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/combustion/cachefile"
	"github.com/meigma/combustion/internal/convtype"
	"github.com/meigma/combustion/internal/testutil"
)

const (
	classScenarioType cachefile.Class = 0x6D706C79 // mply
	classString       cachefile.Class = 0x75737472 // ustr
	classBitmapRef    cachefile.Class = 0x6869646F // hido
)

// auxiliary returns an encoded auxiliary cache file:
//
//	0 mply ctf        -> 2, 3
//	1 tagc root       -> 0, 4
//	2 ustr ctf name
//	3 bitm ctf icon
//	4 mply slayer     -> 2, 5
//	5 hido cycle      -> 4
func auxiliary(t *testing.T) []byte {
	t.Helper()
	f := testutil.NewFile(
		testutil.PlainTag(`ui\multiplayer_game_text\ctf`, classScenarioType, 2, 3),
		testutil.PlainTag(RootPath, RootClass, 0, 4, 0),
		testutil.PlainTag(`ui\multiplayer_game_text\ctf_name`, classString),
		testutil.BitmapTag(`ui\shell\bitmaps\ctf`, []testutil.Block{{Size: 4}}, []byte{1, 2, 3, 4}),
		testutil.PlainTag(`ui\multiplayer_game_text\slayer`, classScenarioType, 2, 5),
		testutil.PlainTag(`ui\multiplayer_game_text\cycle`, classBitmapRef, 4),
	)
	f.Type = cachefile.MapUserInterface
	return testutil.Encode(t, f)
}

func primary() *cachefile.File {
	return testutil.NewFile(
		testutil.PlainTag(`levels\test\bloodgulch\bloodgulch`, 0x73636E72), // scnr
		testutil.PlainTag(`ui\multiplayer_game_text\ctf_name`, classString),
	)
}

func TestImport_EmptyAuxiliary(t *testing.T) {
	t.Parallel()

	dst := primary()
	added, err := Import(dst, nil, nil)
	require.NoError(t, err)
	assert.Zero(t, added)
	assert.Len(t, dst.Tags, 2)

	added, err = Import(dst, []byte{}, nil)
	require.NoError(t, err)
	assert.Zero(t, added)
	assert.Len(t, dst.Tags, 2)
}

func TestImport_Closure(t *testing.T) {
	t.Parallel()

	dst := primary()
	added, err := Import(dst, auxiliary(t), nil)
	require.NoError(t, err)

	// ctf, icon, slayer and cycle are new; ctf_name already exists.
	assert.Equal(t, 4, added)
	require.Len(t, dst.Tags, 6)

	_, ok := dst.Find(RootPath, RootClass)
	assert.False(t, ok, "the root itself is not imported")

	ctf, ok := dst.Find(`ui\multiplayer_game_text\ctf`, classScenarioType)
	require.True(t, ok)
	name, ok := dst.Find(`ui\multiplayer_game_text\ctf_name`, classString)
	require.True(t, ok)
	assert.Equal(t, 1, name, "existing tag reused")
	icon, ok := dst.Find(`ui\shell\bitmaps\ctf`, cachefile.ClassBitmap)
	require.True(t, ok)
	assert.Equal(t, []int{name, icon}, dst.References(ctf))

	slayer, ok := dst.Find(`ui\multiplayer_game_text\slayer`, classScenarioType)
	require.True(t, ok)
	cycle, ok := dst.Find(`ui\multiplayer_game_text\cycle`, classBitmapRef)
	require.True(t, ok)
	assert.Equal(t, []int{name, cycle}, dst.References(slayer))
	assert.Equal(t, []int{slayer}, dst.References(cycle))

	res, ok := dst.Tags[icon].Resident()
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3, 4}, res.Assets)
}

func TestImport_IsASet(t *testing.T) {
	t.Parallel()

	dst := primary()
	aux := auxiliary(t)
	_, err := Import(dst, aux, nil)
	require.NoError(t, err)
	count := len(dst.Tags)

	added, err := Import(dst, aux, nil)
	require.NoError(t, err)
	assert.Zero(t, added)
	assert.Len(t, dst.Tags, count)

	// The merged file still encodes and loads with its references intact.
	loaded := testutil.Load(t, testutil.Encode(t, dst))
	require.Len(t, loaded.Tags, count)
	for i := range dst.Tags {
		assert.Equal(t, dst.References(i), loaded.References(i), "tag %d", i)
	}
}

func TestImport_MissingRoot(t *testing.T) {
	t.Parallel()

	aux := testutil.Encode(t, testutil.NewFile(
		testutil.PlainTag(RootPath, classScenarioType), // right path, wrong class
	))
	dst := primary()
	_, err := Import(dst, aux, nil)
	require.ErrorIs(t, err, convtype.ErrMissingRequiredTag)
	assert.Len(t, dst.Tags, 2)
}

func TestImport_MalformedAuxiliary(t *testing.T) {
	t.Parallel()

	_, err := Import(primary(), []byte("not a cache file"), nil)
	require.ErrorIs(t, err, convtype.ErrFormat)
	require.ErrorIs(t, err, cachefile.ErrFormat)
}
