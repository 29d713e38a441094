package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/combustion/cachefile"
	"github.com/meigma/combustion/internal/convtype"
	"github.com/meigma/combustion/internal/layout"
	"github.com/meigma/combustion/internal/testutil"
	"github.com/meigma/combustion/resourcemap"
)

func loadPool(t *testing.T, p *testutil.Pool) (*resourcemap.Map, []byte) {
	t.Helper()
	data := p.Bytes(t)
	m, err := resourcemap.Load(data)
	require.NoError(t, err)
	return m, data
}

func bitmapEntries(t *testing.T, tag *cachefile.Tag) layout.BitmapTable {
	t.Helper()
	res, ok := tag.Resident()
	require.True(t, ok, "tag should be resident")
	entries, err := layout.Bitmaps(layout.TagSpace(res.Data, res.Address))
	require.NoError(t, err)
	return entries
}

func soundPermutations(t *testing.T, tag *cachefile.Tag) []layout.SoundPermutation {
	t.Helper()
	res, ok := tag.Resident()
	require.True(t, ok, "tag should be resident")
	space := layout.TagSpace(res.Data, res.Address)
	ranges, err := layout.Ranges(space)
	require.NoError(t, err)
	var perms []layout.SoundPermutation
	for k := range ranges.Len() {
		table, err := layout.Permutations(space, ranges.At(k), k)
		require.NoError(t, err)
		for j := range table.Len() {
			perms = append(perms, table.At(j))
		}
	}
	return perms
}

func TestBitmap_MatchesResource(t *testing.T) {
	t.Parallel()

	a, b := testutil.Payload(1, 100), testutil.Payload(2, 50)
	pixels, blocks := testutil.SharedPool(a, b)
	target := testutil.NewPool(resourcemap.TypeBitmaps)
	target.AddBitmap(`ui\hud\bitmaps\crosshair`, a, b)
	m, raw := loadPool(t, target)

	tag := testutil.BitmapTag(`ui\hud\crosshair`, blocks, nil)
	r := New(Pools{SourcePixels: pixels, TargetBitmaps: m, TargetPixels: raw})

	out, err := r.Bitmap(0, tag)
	require.NoError(t, err)
	assert.Equal(t, convtype.ActionMatched, out.Action)
	assert.Equal(t, 0, out.Resource)
	assert.Equal(t, 2, out.Blocks)

	ext, ok := tag.Payload.(*cachefile.External)
	require.True(t, ok, "tag should be external")
	assert.True(t, ext.Indexed)
	assert.Equal(t, uint32(0), ext.ResourceIndex)
	assert.Equal(t, `ui\hud\crosshair`, tag.Path, "bitmap paths are kept")
}

func TestBitmap_SizeMismatchRepacks(t *testing.T) {
	t.Parallel()

	a, b := testutil.Payload(1, 100), testutil.Payload(2, 50)
	pixels, blocks := testutil.SharedPool(a, b)
	target := testutil.NewPool(resourcemap.TypeBitmaps)
	target.AddBitmap(`ui\hud\bitmaps\crosshair`, a, testutil.Payload(2, 51))
	m, raw := loadPool(t, target)

	tag := testutil.BitmapTag(`ui\hud\crosshair`, blocks, nil)
	r := New(Pools{SourcePixels: pixels, TargetBitmaps: m, TargetPixels: raw})

	out, err := r.Bitmap(0, tag)
	require.NoError(t, err)
	assert.Equal(t, convtype.ActionRepacked, out.Action)
	assert.Equal(t, -1, out.Resource)
	assert.Equal(t, 2, out.RepackedBlocks)
	assert.Equal(t, uint64(150), out.RepackedBytes)

	res, ok := tag.Resident()
	require.True(t, ok)
	assert.Equal(t, append(append([]byte(nil), a...), b...), res.Assets)

	entries := bitmapEntries(t, tag)
	assert.Equal(t, uint32(0), entries.At(0).Offset())
	assert.Equal(t, uint32(100), entries.At(1).Offset())
	for k := range entries.Len() {
		assert.False(t, entries.At(k).Shared(), "entry %d should be private", k)
	}
}

func TestBitmap_RoundTripConservation(t *testing.T) {
	t.Parallel()

	payloads := [][]byte{testutil.Payload(3, 64), testutil.Payload(4, 1), testutil.Payload(5, 300)}
	pixels, blocks := testutil.SharedPool(payloads...)
	// Shuffle the source offsets so the repacked order differs from the pool order.
	blocks[0], blocks[2] = blocks[2], blocks[0]
	want := [][]byte{payloads[2], payloads[1], payloads[0]}

	tag := testutil.BitmapTag(`weapons\rifle\bitmaps\scope`, blocks, nil)
	out, err := New(Pools{SourcePixels: pixels}).Bitmap(3, tag)
	require.NoError(t, err)
	require.Equal(t, convtype.ActionRepacked, out.Action)

	res, _ := tag.Resident()
	entries := bitmapEntries(t, tag)
	for k := range entries.Len() {
		e := entries.At(k)
		got := res.Assets[e.Offset() : e.Offset()+e.Size()]
		assert.Equal(t, want[k], got, "entry %d", k)
	}
	assert.Equal(t, res.Assets, out.Assets)
}

func TestBitmap_MonotonicOffsets(t *testing.T) {
	t.Parallel()

	existing := testutil.Payload(9, 40)
	pixels, shared := testutil.SharedPool(testutil.Payload(1, 10), testutil.Payload(2, 20), testutil.Payload(3, 30))
	blocks := []testutil.Block{
		shared[0],
		{Offset: 0, Size: 40}, // already private
		shared[1],
		shared[2],
	}
	tag := testutil.BitmapTag(`levels\test\bitmaps\detail`, blocks, existing)

	_, err := New(Pools{SourcePixels: pixels}).Bitmap(0, tag)
	require.NoError(t, err)

	entries := bitmapEntries(t, tag)
	assert.Equal(t, uint32(0), entries.At(1).Offset(), "private entry untouched")

	var prevEnd uint32 = 40
	for _, k := range []int{0, 2, 3} {
		e := entries.At(k)
		assert.Equal(t, prevEnd, e.Offset(), "entry %d starts at the previous end", k)
		prevEnd = e.Offset() + e.Size()
	}
	res, _ := tag.Resident()
	assert.Len(t, res.Assets, int(prevEnd))
	assert.Equal(t, existing, res.Assets[:40])
}

func TestBitmap_FirstMatchWins(t *testing.T) {
	t.Parallel()

	a := testutil.Payload(7, 128)
	pixels, blocks := testutil.SharedPool(a)
	target := testutil.NewPool(resourcemap.TypeBitmaps)
	target.AddBitmap(`first`, a)
	target.AddBitmap(`second`, a)
	m, raw := loadPool(t, target)
	pools := Pools{SourcePixels: pixels, TargetBitmaps: m, TargetPixels: raw}

	for range 5 {
		tag := testutil.BitmapTag(`tag`, blocks, nil)
		out, err := New(pools).Bitmap(0, tag)
		require.NoError(t, err)
		assert.Equal(t, 0, out.Resource)
	}
}

func TestBitmap_AllOrNothing(t *testing.T) {
	t.Parallel()

	a, b := testutil.Payload(1, 100), testutil.Payload(2, 50)
	pixels, blocks := testutil.SharedPool(a, b)
	wrong := testutil.Payload(2, 50)
	wrong[49] ^= 0xFF

	target := testutil.NewPool(resourcemap.TypeBitmaps)
	target.AddBitmap(`partial`, a, wrong) // resources 0, 1
	target.AddBitmap(`full`, a, b)        // resources 2, 3
	m, raw := loadPool(t, target)

	tag := testutil.BitmapTag(`tag`, blocks, nil)
	out, err := New(Pools{SourcePixels: pixels, TargetBitmaps: m, TargetPixels: raw}).Bitmap(0, tag)
	require.NoError(t, err)
	assert.Equal(t, convtype.ActionMatched, out.Action)
	assert.Equal(t, 2, out.Resource)
}

func TestBitmap_SkipsPixelResources(t *testing.T) {
	t.Parallel()

	a := testutil.Payload(1, 32)
	pixels, blocks := testutil.SharedPool(a)
	target := testutil.NewPool(resourcemap.TypeBitmaps)
	// A matching layout stored under a bulk name is never a candidate.
	target.AddBitmap(`decoy`+resourcemap.PixelsSuffix, a)
	m, raw := loadPool(t, target)

	tag := testutil.BitmapTag(`tag`, blocks, nil)
	out, err := New(Pools{SourcePixels: pixels, TargetBitmaps: m, TargetPixels: raw}).Bitmap(0, tag)
	require.NoError(t, err)
	assert.Equal(t, convtype.ActionRepacked, out.Action)
}

func TestBitmap_PrivateEntryMatchesFromAssets(t *testing.T) {
	t.Parallel()

	a := testutil.Payload(1, 48)
	target := testutil.NewPool(resourcemap.TypeBitmaps)
	target.AddBitmap(`hud`, a)
	m, raw := loadPool(t, target)

	tag := testutil.BitmapTag(`tag`, []testutil.Block{{Offset: 0, Size: 48}}, a)
	out, err := New(Pools{TargetBitmaps: m, TargetPixels: raw}).Bitmap(0, tag)
	require.NoError(t, err)
	assert.Equal(t, convtype.ActionMatched, out.Action)
}

func TestBitmap_ZeroEntries(t *testing.T) {
	t.Parallel()

	target := testutil.NewPool(resourcemap.TypeBitmaps)
	target.AddBitmap(`one`, testutil.Payload(1, 8))
	target.AddBitmap(`empty`)
	m, raw := loadPool(t, target)

	tag := testutil.BitmapTag(`tag`, nil, nil)
	out, err := New(Pools{TargetBitmaps: m, TargetPixels: raw}).Bitmap(0, tag)
	require.NoError(t, err)
	assert.Equal(t, convtype.ActionMatched, out.Action)
	assert.Equal(t, 2, out.Resource)

	tag = testutil.BitmapTag(`tag`, nil, nil)
	out, err = New(Pools{}).Bitmap(0, tag)
	require.NoError(t, err)
	assert.Equal(t, convtype.ActionSkipped, out.Action)
	res, _ := tag.Resident()
	assert.Nil(t, res.Assets)
}

func TestBitmap_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		tag   func() *cachefile.Tag
		pools Pools
		field string
	}{
		{
			name: "source offset outside pool",
			tag: func() *cachefile.Tag {
				return testutil.BitmapTag(`tag`, []testutil.Block{{Shared: true, Offset: 90, Size: 20}}, nil)
			},
			pools: Pools{SourcePixels: make([]byte, 100)},
			field: "bitmap[0].pixels",
		},
		{
			name: "size overflows offset",
			tag: func() *cachefile.Tag {
				return testutil.BitmapTag(`tag`, []testutil.Block{{Shared: true, Offset: 0xFFFFFFF0, Size: 0x20}}, nil)
			},
			pools: Pools{SourcePixels: make([]byte, 100)},
			field: "bitmap[0].pixels",
		},
		{
			name: "entry table past data",
			tag: func() *cachefile.Tag {
				tag := testutil.BitmapTag(`tag`, []testutil.Block{{Shared: true, Size: 1}}, nil)
				res, _ := tag.Resident()
				res.Data[0x60] = 9
				return tag
			},
			pools: Pools{SourcePixels: make([]byte, 100)},
			field: "bitmaps",
		},
		{
			name: "pointer below address",
			tag: func() *cachefile.Tag {
				tag := testutil.BitmapTag(`tag`, []testutil.Block{{Shared: true, Size: 1}}, nil)
				res, _ := tag.Resident()
				res.Address += 0x1000
				return tag
			},
			pools: Pools{SourcePixels: make([]byte, 100)},
			field: "bitmaps.pointer",
		},
		{
			name: "truncated header",
			tag: func() *cachefile.Tag {
				tag := testutil.BitmapTag(`tag`, nil, nil)
				res, _ := tag.Resident()
				res.Data = res.Data[:0x62]
				return tag
			},
			field: "bitmaps.count",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tt.pools).Bitmap(4, tt.tag())
			require.ErrorIs(t, err, convtype.ErrMalformedTagData)

			var te *convtype.TagError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, 4, te.Index)
			assert.Equal(t, "bitm", te.Class)
			assert.Equal(t, tt.field, te.Field)
		})
	}
}

func TestBitmap_MalformedResource(t *testing.T) {
	t.Parallel()

	a := testutil.Payload(1, 16)
	pixels, blocks := testutil.SharedPool(a)
	target := testutil.NewPool(resourcemap.TypeBitmaps)
	target.Add(`short`, []byte{1, 2, 3})
	m, raw := loadPool(t, target)

	_, err := New(Pools{SourcePixels: pixels, TargetBitmaps: m, TargetPixels: raw}).Bitmap(0, testutil.BitmapTag(`tag`, blocks, nil))
	require.ErrorIs(t, err, convtype.ErrMalformedTagData)
	var te *convtype.TagError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "resource[0].bitmaps.count", te.Field)
}

func TestSound_MatchesResource(t *testing.T) {
	t.Parallel()

	r0 := [][]byte{testutil.Payload(1, 200), testutil.Payload(2, 80)}
	r1 := [][]byte{testutil.Payload(3, 10)}
	pixels, flat := testutil.SharedPool(append(append([][]byte{}, r0...), r1...)...)
	shape := [][]testutil.Block{flat[:2], flat[2:]}

	target := testutil.NewPool(resourcemap.TypeSounds)
	target.AddSound(`sound\sfx\other`, [][]byte{testutil.Payload(9, 200)})
	target.AddSound(`sound\sfx\ui\cursor`, r0, r1)
	m, raw := loadPool(t, target)

	tag := testutil.SoundTag(`sound\sfx\ui\pc_cursor`, shape, nil)
	out, err := New(Pools{SourceSamples: pixels, TargetSounds: m, TargetSamples: raw}).Sound(1, tag)
	require.NoError(t, err)
	assert.Equal(t, convtype.ActionMatched, out.Action)
	assert.Equal(t, 2, out.Resource)
	assert.Equal(t, 3, out.Blocks)
	assert.Equal(t, `sound\sfx\ui\cursor`, out.Path)

	assert.True(t, tag.Implicit())
	assert.Equal(t, `sound\sfx\ui\cursor`, tag.Path)
	ext := tag.Payload.(*cachefile.External)
	assert.False(t, ext.Indexed)
}

func TestSound_EveryRangeMustMatch(t *testing.T) {
	t.Parallel()

	r0 := [][]byte{testutil.Payload(1, 20)}
	r1 := [][]byte{testutil.Payload(2, 20)}
	samples, flat := testutil.SharedPool(r0[0], r1[0])
	shape := [][]testutil.Block{flat[:1], flat[1:]}

	target := testutil.NewPool(resourcemap.TypeSounds)
	// Same first range, different second range.
	target.AddSound(`near`, r0, [][]byte{testutil.Payload(5, 20)})
	m, raw := loadPool(t, target)

	tag := testutil.SoundTag(`tag`, shape, nil)
	out, err := New(Pools{SourceSamples: samples, TargetSounds: m, TargetSamples: raw}).Sound(0, tag)
	require.NoError(t, err)
	assert.Equal(t, convtype.ActionRepacked, out.Action)
	assert.Equal(t, `tag`, tag.Path)
}

func TestSound_PermutationCountMismatch(t *testing.T) {
	t.Parallel()

	a, b := testutil.Payload(1, 20), testutil.Payload(2, 20)
	samples, flat := testutil.SharedPool(a, b)

	target := testutil.NewPool(resourcemap.TypeSounds)
	target.AddSound(`fewer`, [][]byte{a})
	m, raw := loadPool(t, target)

	tag := testutil.SoundTag(`tag`, [][]testutil.Block{flat}, nil)
	out, err := New(Pools{SourceSamples: samples, TargetSounds: m, TargetSamples: raw}).Sound(0, tag)
	require.NoError(t, err)
	assert.Equal(t, convtype.ActionRepacked, out.Action)
}

func TestSound_Repack(t *testing.T) {
	t.Parallel()

	payloads := [][]byte{testutil.Payload(1, 33), testutil.Payload(2, 17), testutil.Payload(3, 5)}
	samples, flat := testutil.SharedPool(payloads...)
	existing := testutil.Payload(8, 12)
	shape := [][]testutil.Block{
		{flat[0], {Offset: 0, Size: 12}},
		{flat[1], flat[2]},
	}
	target := testutil.NewPool(resourcemap.TypeSounds)
	target.AddSound(`unrelated`, [][]byte{testutil.Payload(4, 33), existing}, [][]byte{payloads[1], payloads[2]})
	m, raw := loadPool(t, target)

	tag := testutil.SoundTag(`tag`, shape, existing)
	out, err := New(Pools{SourceSamples: samples, TargetSounds: m, TargetSamples: raw}).Sound(0, tag)
	require.NoError(t, err)
	assert.Equal(t, convtype.ActionRepacked, out.Action)
	assert.Equal(t, 3, out.RepackedBlocks)
	assert.Equal(t, uint64(55), out.RepackedBytes)

	res, _ := tag.Resident()
	perms := soundPermutations(t, tag)
	require.Len(t, perms, 4)
	want := [][]byte{payloads[0], existing, payloads[1], payloads[2]}
	wantOff := []uint32{12, 0, 45, 62}
	for k, p := range perms {
		assert.False(t, p.Shared(), "permutation %d should be private", k)
		assert.Equal(t, wantOff[k], p.Offset(), "permutation %d offset", k)
		assert.Equal(t, want[k], res.Assets[p.Offset():p.Offset()+p.Size()], "permutation %d bytes", k)
	}
}

func TestSound_ZeroRangesSkipped(t *testing.T) {
	t.Parallel()

	target := testutil.NewPool(resourcemap.TypeSounds)
	target.AddSound(`empty`)
	m, raw := loadPool(t, target)

	tag := testutil.SoundTag(`tag`, nil, nil)
	before, _ := tag.Resident()
	data := append([]byte(nil), before.Data...)

	out, err := New(Pools{TargetSounds: m, TargetSamples: raw}).Sound(0, tag)
	require.NoError(t, err)
	assert.Equal(t, convtype.ActionSkipped, out.Action)
	res, ok := tag.Resident()
	require.True(t, ok)
	assert.Equal(t, data, res.Data)
}

func TestSound_SkipsSampleResources(t *testing.T) {
	t.Parallel()

	a := testutil.Payload(1, 20)
	samples, flat := testutil.SharedPool(a)
	target := testutil.NewPool(resourcemap.TypeSounds)
	target.AddSound(`decoy`+resourcemap.SamplesSuffix, [][]byte{a})
	m, raw := loadPool(t, target)

	tag := testutil.SoundTag(`tag`, [][]testutil.Block{flat}, nil)
	out, err := New(Pools{SourceSamples: samples, TargetSounds: m, TargetSamples: raw}).Sound(0, tag)
	require.NoError(t, err)
	assert.Equal(t, convtype.ActionRepacked, out.Action)
}

func TestSound_Malformed(t *testing.T) {
	t.Parallel()

	tag := testutil.SoundTag(`tag`, [][]testutil.Block{{{Shared: true, Offset: 10, Size: 10}}}, nil)
	_, err := New(Pools{SourceSamples: make([]byte, 15)}).Sound(2, tag)
	require.ErrorIs(t, err, convtype.ErrMalformedTagData)
	var te *convtype.TagError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 2, te.Index)
	assert.Equal(t, "snd!", te.Class)
	assert.Equal(t, "range[0].permutation[0].samples", te.Field)
}

func TestResolve_Dispatch(t *testing.T) {
	t.Parallel()

	pixels, blocks := testutil.SharedPool(testutil.Payload(1, 4))
	f := testutil.NewFile(
		testutil.PlainTag(`globals\globals`, 0x6D617467), // matg
		testutil.BitmapTag(`bitmap`, blocks, nil),
		&cachefile.Tag{Class: cachefile.ClassBitmap, Path: `external`, Payload: &cachefile.External{Indexed: true}},
	)
	r := New(Pools{SourcePixels: pixels})

	want := []convtype.Action{convtype.ActionPassthrough, convtype.ActionRepacked, convtype.ActionSkipped}
	for i, action := range want {
		out, err := r.Resolve(f, i)
		require.NoError(t, err)
		assert.Equal(t, action, out.Action, "tag %d", i)
		assert.Equal(t, i, out.Index)
	}
}
