package bench

import (
	"encoding/binary"

	"git.gammaspectra.live/P2Pool/randomx-bench/types"
)

const (
	// TemplateSize size of the hashing blob in bytes
	TemplateSize = 76

	// NonceOffset offset of an uint32
	NonceOffset = 39
)

// Template is the fixed size work blob fed to the virtual machine.
// Workers keep a private copy and only ever rewrite the nonce field.
type Template [TemplateSize]byte

// DefaultTemplate standard work blob used when no override is given, nonce field zeroed
var DefaultTemplate = Template{
	0x07, 0x07, 0xf7, 0xa4, 0xf0, 0xd6, 0x05, 0xb3, 0x03, 0x26, 0x08, 0x16, 0xba, 0x3f, 0x10, 0x90, 0x2e, 0x1a, 0x14,
	0x5a, 0xc5, 0xfa, 0xd3, 0xaa, 0x3a, 0xf6, 0xea, 0x44, 0xc1, 0x18, 0x69, 0xdc, 0x4f, 0x85, 0x3f, 0x00, 0x2b, 0x2e,
	0xea, 0x00, 0x00, 0x00, 0x00, 0x77, 0xb2, 0x06, 0xa0, 0x2c, 0xa5, 0xb1, 0xd4, 0xce, 0x6b, 0xbf, 0xdf, 0x0a, 0xca,
	0xc3, 0x8b, 0xde, 0xd3, 0x4d, 0x2d, 0xcd, 0xee, 0xf9, 0x5c, 0xd2, 0x0c, 0xef, 0xc1, 0x2f, 0x61, 0xd5, 0x61, 0x09,
}

// TemplateFromBytes copies buf into a fresh template. buf must be exactly TemplateSize bytes.
func TemplateFromBytes(buf []byte) (tpl Template, ok bool) {
	if len(buf) != TemplateSize {
		return tpl, false
	}
	copy(tpl[:], buf)
	return tpl, true
}

func (tpl *Template) PutNonce(nonce uint32) {
	binary.LittleEndian.PutUint32(tpl[NonceOffset:], nonce)
}

func (tpl *Template) Nonce() uint32 {
	return binary.LittleEndian.Uint32(tpl[NonceOffset:])
}

func (tpl *Template) Bytes() types.Bytes {
	return tpl[:]
}
