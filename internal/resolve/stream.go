package resolve

import (
	"github.com/meigma/combustion/internal/convtype"
	"github.com/meigma/combustion/internal/sizing"
)

// stream is a tag's private asset stream during repacking. Payloads are
// only ever appended, so each one lands at the previous end of the stream.
type stream struct {
	data     []byte
	appended int
	bytes    uint64
}

// appendPayload copies p onto the end of the stream and returns the offset
// it was written at.
func (s *stream) appendPayload(p []byte, field string) (uint32, error) {
	end := uint64(len(s.data)) + uint64(len(p))
	if end > sizing.MaxUint32Size {
		return 0, convtype.Malformed(field, "private asset stream of %d bytes exceeds 4 GiB", end)
	}
	off := uint32(len(s.data)) //nolint:gosec // checked above
	s.data = append(s.data, p...)
	s.appended++
	s.bytes += uint64(len(p))
	return off, nil
}
