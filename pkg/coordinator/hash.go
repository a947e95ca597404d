package coordinator

import (
	"crypto/sha256"
	"encoding/binary"
	"unicode/utf16"

	"github.com/voidshard/foreman/pkg/structs"
)

// TaskHash derives a dedup hash for tasks registered without one.
//
// The hash is SHA-256 over the UTF-16LE encoding of type+appId+tag+payload,
// folded to 64 bits by XORing the little endian words at offsets 0, 8 and 24.
// Existing applications compute the same value client side so it must not change.
func TaskHash(t *structs.TaskSpec) int64 {
	data := t.Type + t.AppID + t.Tag + t.Payload
	if data == "" {
		return 0
	}

	units := utf16.Encode([]rune(data))
	buf := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(buf[i*2:], u)
	}

	sum := sha256.Sum256(buf)
	h := binary.LittleEndian.Uint64(sum[0:8]) ^
		binary.LittleEndian.Uint64(sum[8:16]) ^
		binary.LittleEndian.Uint64(sum[24:32])
	return int64(h)
}
