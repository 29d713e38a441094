package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/meigma/combustion/cachefile"
	"github.com/meigma/combustion/internal/codec"
	"github.com/meigma/combustion/internal/testutil"
	"github.com/meigma/combustion/report"
	"github.com/meigma/combustion/resourcemap"
)

// workspace writes a small map and its resource maps to a temp dir. The
// map is stored zstd compressed.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	icons := [][]byte{testutil.Payload(1, 80), testutil.Payload(2, 40)}
	pixels, blocks := testutil.SharedPool(append(append([][]byte{}, icons...), testutil.Payload(3, 16))...)
	samples, sound := testutil.SharedPool(testutil.Payload(4, 24))

	f := testutil.NewFile(
		testutil.BitmapTag(`ui\hud\bitmaps\hud_msg_icons`, blocks[:2], nil),
		testutil.BitmapTag(`ui\hud\bitmaps\unique`, blocks[2:], nil),
		testutil.SoundTag(`sound\sfx\ui\beep`, [][]testutil.Block{sound}, nil),
	)
	target := testutil.NewPool(resourcemap.TypeBitmaps)
	target.AddBitmap(`ui\hud\bitmaps\hud_msg_icons`, icons...)

	mapData, err := codec.Encode(testutil.Encode(t, f), codec.CompressionZstd)
	require.NoError(t, err)

	write := func(name string, data []byte) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o600))
	}
	write("test.map.zst", mapData)
	write("bitmaps.map", pixels)
	write("sounds.map", samples)
	write("ce_bitmaps.map", target.Bytes(t))
	return dir
}

func TestConvert(t *testing.T) {
	t.Parallel()

	dir := workspace(t)
	var stdout, stderr bytes.Buffer
	err := run([]string{
		"--map", filepath.Join(dir, "test.map.zst"),
		"--source-bitmaps", filepath.Join(dir, "bitmaps.map"),
		"--source-sounds", filepath.Join(dir, "sounds.map"),
		"--target-bitmaps", filepath.Join(dir, "ce_bitmaps.map"),
		"--compression", "lz4",
		"--report", filepath.Join(dir, "report.bin"),
		"--summary", filepath.Join(dir, "summary.yaml"),
		"-v",
	}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())
	assert.Contains(t, stdout.String(), "1 matched, 2 repacked")
	assert.Contains(t, stderr.String(), "level=DEBUG")

	outPath := filepath.Join(dir, "test.ce.map.lz4")
	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, codec.CompressionLZ4, codec.Detect(raw))
	data, err := codec.Decode(raw, 1<<20)
	require.NoError(t, err)

	f := testutil.Load(t, data)
	assert.Equal(t, cachefile.EngineCustomEdition, f.Engine)
	assert.True(t, f.Tags[0].Implicit())
	assert.False(t, f.Tags[1].Implicit())

	rawReport, err := os.ReadFile(filepath.Join(dir, "report.bin"))
	require.NoError(t, err)
	rep, err := report.Load(rawReport)
	require.NoError(t, err)
	require.NoError(t, rep.VerifyOutput(data))
	assert.Len(t, rep.Tags, 3)

	rawSummary, err := os.ReadFile(filepath.Join(dir, "summary.yaml"))
	require.NoError(t, err)
	var s summary
	require.NoError(t, yaml.Unmarshal(rawSummary, &s))
	assert.Equal(t, "custom-edition", s.Engine)
	assert.Equal(t, 1, s.Totals.Matched)
	assert.Equal(t, 2, s.Totals.Repacked)
	require.Len(t, s.Tags, 3)
	require.NotNil(t, s.Tags[0].Resource)
	assert.Equal(t, 0, *s.Tags[0].Resource)
	assert.Nil(t, s.Tags[1].Resource)
	assert.EqualValues(t, 16, s.Tags[1].Bytes)
}

func TestConvert_ConfigFile(t *testing.T) {
	t.Parallel()

	dir := workspace(t)
	cfgPath := filepath.Join(dir, "combustion.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
inputs:
  map: test.map.zst
  source_bitmaps: bitmaps.map
  source_sounds: sounds.map
output:
  path: from-config.map
engine: retail
`), 0o600))

	var stdout, stderr bytes.Buffer
	err := run([]string{"convert", "-c", cfgPath, "--output", filepath.Join(dir, "from-flag.map")}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	assert.NoFileExists(t, filepath.Join(dir, "from-config.map"))
	data, err := os.ReadFile(filepath.Join(dir, "from-flag.map"))
	require.NoError(t, err)
	f := testutil.Load(t, data)
	assert.Equal(t, cachefile.EngineRetail, f.Engine)
	assert.Contains(t, stdout.String(), "0 matched, 3 repacked")
}

func TestConvert_Errors(t *testing.T) {
	t.Parallel()

	dir := workspace(t)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing inputs", []string{"convert"}, "inputs.map is required"},
		{"bad engine", []string{
			"-m", "x.map", "--source-bitmaps", "b", "--source-sounds", "s", "--engine", "pc",
		}, "unknown engine"},
		{"missing file", []string{
			"-m", filepath.Join(dir, "nope.map"),
			"--source-bitmaps", filepath.Join(dir, "bitmaps.map"),
			"--source-sounds", filepath.Join(dir, "sounds.map"),
		}, "nope.map"},
		{"not a map", []string{
			"-m", filepath.Join(dir, "bitmaps.map"),
			"--source-bitmaps", filepath.Join(dir, "bitmaps.map"),
			"--source-sounds", filepath.Join(dir, "sounds.map"),
		}, "malformed cache file"},
		{"extra args", []string{"convert", "stray"}, "unexpected arguments"},
		{"unknown flag", []string{"--nope"}, "unknown flag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var stdout, stderr bytes.Buffer
			err := run(tt.args, &stdout, &stderr)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestInspect(t *testing.T) {
	t.Parallel()

	dir := workspace(t)
	var stdout bytes.Buffer
	require.NoError(t, run([]string{
		"inspect",
		filepath.Join(dir, "test.map.zst"),
		filepath.Join(dir, "ce_bitmaps.map"),
	}, &stdout, &stdout))

	out := stdout.String()
	assert.Contains(t, out, "name testmap")
	assert.Contains(t, out, `ui\hud\bitmaps\unique`)
	assert.Contains(t, out, "bitmaps, 2 resources")
	assert.Contains(t, out, `ui\hud\bitmaps\hud_msg_icons__pixels`)

	stdout.Reset()
	err := run([]string{"inspect", "--kind", "map", filepath.Join(dir, "ce_bitmaps.map")}, &stdout, &stdout)
	require.ErrorIs(t, err, cachefile.ErrFormat)
}

func TestVerify(t *testing.T) {
	t.Parallel()

	dir := workspace(t)
	out := filepath.Join(dir, "out.map")
	rep := filepath.Join(dir, "report.bin")
	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{
		"-m", filepath.Join(dir, "test.map.zst"),
		"--source-bitmaps", filepath.Join(dir, "bitmaps.map"),
		"--source-sounds", filepath.Join(dir, "sounds.map"),
		"--target-bitmaps", filepath.Join(dir, "ce_bitmaps.map"),
		"-o", out, "--report", rep,
	}, &stdout, &stderr))

	stdout.Reset()
	require.NoError(t, run([]string{"verify", "--report", rep, "--input", filepath.Join(dir, "test.map.zst"), out}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "ok")
	assert.Contains(t, stdout.String(), "matched: 1")

	stdout.Reset()
	require.NoError(t, run([]string{"inspect", rep}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "map testmap")

	err := run([]string{"verify", "--report", rep, filepath.Join(dir, "bitmaps.map")}, &stdout, &stderr)
	require.ErrorIs(t, err, report.ErrDigestMismatch)
}

func TestHelp(t *testing.T) {
	t.Parallel()

	var stdout bytes.Buffer
	require.NoError(t, run(nil, &stdout, &stdout))
	assert.Contains(t, stdout.String(), "USAGE")

	stdout.Reset()
	require.NoError(t, run([]string{"inspect", "--help"}, &stdout, &stdout))
	assert.Contains(t, stdout.String(), "--kind")
}
