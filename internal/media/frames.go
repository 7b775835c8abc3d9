package media

import (
	"bytes"
	"encoding/binary"
)

// IsAnimated reports whether an image must keep its own format. GIF always
// does; WebP only when it carries more than one frame.
func IsAnimated(data []byte, f Format) bool {
	switch f {
	case GIF:
		return true
	case WebP:
		return WebPFrameCount(data) > 1
	}
	return false
}

// WebPFrameCount walks the RIFF chunk list and counts ANMF chunks. A still
// WebP (or anything unparseable) counts as one frame.
func WebPFrameCount(data []byte) int {
	if len(data) < 12 || !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WEBP")) {
		return 1
	}
	frames := 0
	for pos := 12; pos+8 <= len(data); {
		fourcc := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		if size < 0 || pos+8+size > len(data) {
			break
		}
		if fourcc == "ANMF" {
			frames++
		}
		// chunks are padded to an even length
		pos += 8 + size + size&1
	}
	if frames == 0 {
		return 1
	}
	return frames
}
