package encryption

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrUnterminated is returned when an encrypted string runs past the end of
// its buffer without decrypting to a terminator.
var ErrUnterminated = errors.New("encryption: unterminated string")

// ErrUnencodable is returned when a string holds characters outside the
// single-byte range the string cipher works on.
var ErrUnencodable = errors.New("encryption: string not encodable")

// KeySet holds the fixed constants each game generation uses for its packs.
// Key sets are values: they are chosen from the game catalog and never
// mutated at runtime.
type KeySet struct {
	// StringKey is the repeating table for index paths.
	StringKey [64]byte

	// U32Key masks index sizes and timestamps.
	U32Key uint32

	// DataKey drives the payload block cipher.
	DataKey uint64

	// PlainLastBlock leaves the final 8-byte block of every payload in the
	// clear, as the games' own packs do.
	PlainLastBlock bool
}

// Default is the key set used by current games.
var Default = KeySet{
	StringKey: [64]byte([]byte("#:AhppdV-!PEfz&}[]Nv?6w4guU%dF5.fq:n*-qGuhBJJBm&?2tPy!geW/+k#pG?")),
	U32Key:    0xE10B73F4,
	DataKey:   0x8FEB2A6740A6920E,
}

// ArenaLegacy is the index key set found in encrypted Arena packs.
var ArenaLegacy = KeySet{
	StringKey: [64]byte([]byte("L2{B3dPL7L*v&+Q3ZsusUhy[BGQn(Uq$f>JQdnvdlf{-K:>OssVDr#TlYU|13B}r")),
	U32Key:    0x15091984,
	DataKey:   0x8FEB2A6740A6920E,
}

// DecryptData reverses EncryptData. The cipher is an XOR keystream, so the
// two are the same operation.
func (k KeySet) DecryptData(ciphertext []byte) []byte {
	return k.xorBlocks(ciphertext)
}

// EncryptData obfuscates a payload. The input is zero-padded to a multiple
// of 8 bytes and every block is XORed with DataKey * ^counter, the counter
// starting at 0 and advancing by 8 per block. With PlainLastBlock the final
// block is copied unchanged. The output is truncated back to the input
// length.
func (k KeySet) EncryptData(plaintext []byte) []byte {
	return k.xorBlocks(plaintext)
}

func (k KeySet) xorBlocks(in []byte) []byte {
	padded := (len(in) + 7) &^ 7
	out := make([]byte, padded)
	copy(out, in)
	end := padded
	if k.PlainLastBlock {
		end -= 8
	}
	var counter uint64
	for off := 0; off < end; off += 8 {
		block := binary.LittleEndian.Uint64(out[off:])
		binary.LittleEndian.PutUint64(out[off:], block^(k.DataKey*^counter))
		counter += 8
	}
	return out[:len(in)]
}

// DecryptU32 unmasks an index integer. second is the number of index entries
// that follow the one being read.
func (k KeySet) DecryptU32(value, second uint32) uint32 {
	return value ^ k.U32Key ^ ^second
}

// EncryptU32 masks an index integer. It is the inverse of DecryptU32.
func (k KeySet) EncryptU32(value, second uint32) uint32 {
	return value ^ k.U32Key ^ ^second
}

// DecryptString decrypts a zero-terminated index string from the start of
// ciphertext. second is the low byte of the entry's decrypted size. It
// returns the string and the number of bytes consumed, terminator included.
//
// Decrypted bytes map one to one onto code points 0 to 255.
func (k KeySet) DecryptString(ciphertext []byte, second uint8) (string, int, error) {
	mask := ^second
	var sb strings.Builder
	for i, c := range ciphertext {
		b := c ^ k.StringKey[i%len(k.StringKey)] ^ mask
		if b == 0 {
			return sb.String(), i + 1, nil
		}
		sb.WriteRune(rune(b))
	}
	return "", 0, fmt.Errorf("%w after %d bytes", ErrUnterminated, len(ciphertext))
}

// EncryptString encrypts s and its terminator as DecryptString expects.
func (k KeySet) EncryptString(s string, second uint8) ([]byte, error) {
	mask := ^second
	out := make([]byte, 0, utf8.RuneCountInString(s)+1)
	i := 0
	for _, r := range s {
		if r == 0 || r > 0xFF {
			return nil, fmt.Errorf("%w: %q", ErrUnencodable, s)
		}
		out = append(out, byte(r)^k.StringKey[i%len(k.StringKey)]^mask)
		i++
	}
	return append(out, k.StringKey[i%len(k.StringKey)]^mask), nil
}
