//go:generate flatc --go --go-namespace fb -o ../internal ../schema/report.fbs

// Package report records what a conversion did, in a compact FlatBuffers
// encoding that can be stored next to the converted map.
//
// A report carries go-digest digests of the input and output maps, so a
// stored report can be checked against the files it describes, and a
// BLAKE3 fingerprint of every private asset stream the conversion produced.
package report

import (
	_ "crypto/sha256" // sha256 digests
	"errors"
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/opencontainers/go-digest"
	"github.com/zeebo/blake3"

	"github.com/meigma/combustion"
	"github.com/meigma/combustion/cachefile"
	"github.com/meigma/combustion/internal/fb"
)

// Version is the report format version written by Encode.
const Version = 1

// Sentinel errors.
var (
	// ErrInvalid is returned when report data cannot be parsed.
	ErrInvalid = errors.New("report: invalid report data")

	// ErrDigestMismatch is returned when a file does not match the digest
	// recorded in a report.
	ErrDigestMismatch = errors.New("report: digest mismatch")
)

// Report summarizes one conversion.
type Report struct {
	// MapName is the converted map's scenario name.
	MapName string

	// Engine is the engine marker of the converted map.
	Engine cachefile.Engine

	// Input and Output are digests of the map before and after conversion.
	Input  digest.Digest
	Output digest.Digest

	// OutputSize is the length of the converted map.
	OutputSize uint64

	// Imported is the number of tags merged from the auxiliary map.
	Imported int

	// Tags has one record per tag, in tag order.
	Tags []TagRecord
}

// TagRecord is the outcome of one tag.
type TagRecord struct {
	Index          int
	Class          string
	Path           string
	Action         combustion.Action
	Resource       int
	Blocks         int
	RepackedBlocks int
	RepackedBytes  uint64

	// AssetHash is the BLAKE3-256 of the tag's private asset stream after
	// conversion, or nil when the tag has none.
	AssetHash []byte
}

// New builds a report for res, the result of converting input.
func New(input []byte, res *combustion.Result) *Report {
	r := &Report{
		MapName:    res.Name,
		Engine:     res.Engine,
		Input:      digest.FromBytes(input),
		Output:     digest.FromBytes(res.Data),
		OutputSize: uint64(len(res.Data)),
		Imported:   res.Imported,
		Tags:       make([]TagRecord, 0, len(res.Outcomes)),
	}
	for _, o := range res.Outcomes {
		rec := TagRecord{
			Index:          o.Index,
			Class:          o.Class,
			Path:           o.Path,
			Action:         o.Action,
			Resource:       o.Resource,
			Blocks:         o.Blocks,
			RepackedBlocks: o.RepackedBlocks,
			RepackedBytes:  o.RepackedBytes,
		}
		if o.Assets != nil {
			sum := blake3.Sum256(o.Assets)
			rec.AssetHash = sum[:]
		}
		r.Tags = append(r.Tags, rec)
	}
	return r
}

// Encode serializes the report to FlatBuffers.
func (r *Report) Encode() []byte {
	builder := flatbuffers.NewBuilder(1024)

	// Build records in reverse order (FlatBuffers requirement)
	offsets := make([]flatbuffers.UOffsetT, len(r.Tags))
	for i := len(r.Tags) - 1; i >= 0; i-- {
		t := r.Tags[i]

		classOffset := builder.CreateString(t.Class)
		pathOffset := builder.CreateString(t.Path)
		var hashOffset flatbuffers.UOffsetT
		if t.AssetHash != nil {
			hashOffset = builder.CreateByteVector(t.AssetHash)
		}

		fb.TagRecordStart(builder)
		fb.TagRecordAddIndex(builder, uint32(t.Index)) //nolint:gosec // tag indices fit in 16 bits
		fb.TagRecordAddClass(builder, classOffset)
		fb.TagRecordAddPath(builder, pathOffset)
		fb.TagRecordAddAction(builder, fb.Action(t.Action))
		fb.TagRecordAddResource(builder, int32(t.Resource))           //nolint:gosec // resource counts are 32-bit
		fb.TagRecordAddBlocks(builder, uint32(t.Blocks))               //nolint:gosec // bounded by 32-bit counts
		fb.TagRecordAddRepackedBlocks(builder, uint32(t.RepackedBlocks)) //nolint:gosec // bounded by 32-bit counts
		fb.TagRecordAddRepackedBytes(builder, t.RepackedBytes)
		if hashOffset != 0 {
			fb.TagRecordAddAssetHash(builder, hashOffset)
		}
		offsets[i] = fb.TagRecordEnd(builder)
	}

	fb.ReportStartTagsVector(builder, len(offsets))
	for i := len(offsets) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(offsets[i])
	}
	tagsOffset := builder.EndVector(len(offsets))

	nameOffset := builder.CreateString(r.MapName)
	inputOffset := builder.CreateString(r.Input.String())
	outputOffset := builder.CreateString(r.Output.String())

	fb.ReportStart(builder)
	fb.ReportAddVersion(builder, Version)
	fb.ReportAddMapName(builder, nameOffset)
	fb.ReportAddEngine(builder, uint32(r.Engine))
	fb.ReportAddInputDigest(builder, inputOffset)
	fb.ReportAddOutputDigest(builder, outputOffset)
	fb.ReportAddOutputSize(builder, r.OutputSize)
	fb.ReportAddImported(builder, uint32(r.Imported)) //nolint:gosec // bounded by the tag limit
	fb.ReportAddTags(builder, tagsOffset)
	root := fb.ReportEnd(builder)

	builder.Finish(root)
	return builder.FinishedBytes()
}

// Load parses a report produced by Encode.
func Load(data []byte) (rep *Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			rep = nil
			err = fmt.Errorf("%w: %v", ErrInvalid, r)
		}
	}()
	if len(data) < flatbuffers.SizeUOffsetT {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalid, len(data))
	}

	root := fb.GetRootAsReport(data, 0)
	if v := root.Version(); v != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalid, v)
	}
	input, err := digest.Parse(string(root.InputDigest()))
	if err != nil {
		return nil, fmt.Errorf("%w: input digest: %w", ErrInvalid, err)
	}
	output, err := digest.Parse(string(root.OutputDigest()))
	if err != nil {
		return nil, fmt.Errorf("%w: output digest: %w", ErrInvalid, err)
	}

	rep = &Report{
		MapName:    string(root.MapName()),
		Engine:     cachefile.Engine(root.Engine()),
		Input:      input,
		Output:     output,
		OutputSize: root.OutputSize(),
		Imported:   int(root.Imported()),
		Tags:       make([]TagRecord, 0, root.TagsLength()),
	}
	var rec fb.TagRecord
	for i := range root.TagsLength() {
		if !root.Tags(&rec, i) {
			return nil, fmt.Errorf("%w: tag record %d", ErrInvalid, i)
		}
		t := TagRecord{
			Index:          int(rec.Index()),
			Class:          string(rec.Class()),
			Path:           string(rec.Path()),
			Action:         combustion.Action(rec.Action()),
			Resource:       int(rec.Resource()),
			Blocks:         int(rec.Blocks()),
			RepackedBlocks: int(rec.RepackedBlocks()),
			RepackedBytes:  rec.RepackedBytes(),
		}
		if h := rec.AssetHashBytes(); h != nil {
			t.AssetHash = append([]byte(nil), h...)
		}
		rep.Tags = append(rep.Tags, t)
	}
	return rep, nil
}

// VerifyInput checks that data is the map the report was produced from.
func (r *Report) VerifyInput(data []byte) error {
	return verify(r.Input, data, "input")
}

// VerifyOutput checks that data is the map the report describes.
func (r *Report) VerifyOutput(data []byte) error {
	if uint64(len(data)) != r.OutputSize {
		return fmt.Errorf("%w: output is %d bytes, report records %d", ErrDigestMismatch, len(data), r.OutputSize)
	}
	return verify(r.Output, data, "output")
}

func verify(d digest.Digest, data []byte, what string) error {
	v := d.Verifier()
	if _, err := v.Write(data); err != nil {
		return fmt.Errorf("verify %s: %w", what, err)
	}
	if !v.Verified() {
		return fmt.Errorf("%w: %s does not match %s", ErrDigestMismatch, what, d)
	}
	return nil
}

// Totals returns the number of records per action.
func (r *Report) Totals() map[combustion.Action]int {
	totals := make(map[combustion.Action]int)
	for _, t := range r.Tags {
		totals[t.Action]++
	}
	return totals
}
