package pack

import (
	"github.com/Frodo45127/rpfm-sub014/binrw"
	"github.com/Frodo45127/rpfm-sub014/encryption"
)

// layout isolates what differs between container versions: the header
// fields after the index counters and the optional per-entry fields.
type layout interface {
	// extraLen is the byte length of the header after the base fields.
	extraLen(h *Header) int
	readExtra(r *binrw.Reader, h *Header) error
	writeExtra(w *binrw.Writer, h *Header)

	// compressedFlag reports whether index entries carry a compression bool.
	compressedFlag(h *Header) bool

	// readEntryTimestamp reads the per-file timestamp, if the pack has one.
	// remaining is the number of entries left after the current one and
	// keys the encrypted index cipher.
	readEntryTimestamp(r *binrw.Reader, h *Header, keys encryption.KeySet, remaining uint32) (int64, error)
	writeEntryTimestamp(w *binrw.Writer, h *Header, keys encryption.KeySet, remaining uint32, ts int64)
}

func layoutFor(v Version) layout {
	switch v {
	case PFH0:
		return pfh0{}
	case PFH2, PFH3:
		return pfh2{}
	case PFH4, PFH5:
		return pfh4{}
	case PFH6:
		return pfh6{}
	}
	return nil
}

// readIndexU32 reads an index integer, decrypting it when the index is encrypted.
func readIndexU32(r *binrw.Reader, h *Header, keys encryption.KeySet, remaining uint32) (uint32, error) {
	v, err := r.U32()
	if err != nil {
		return 0, err
	}
	if h.Flags.Has(FlagEncryptedIndex) {
		v = keys.DecryptU32(v, remaining)
	}
	return v, nil
}

func writeIndexU32(w *binrw.Writer, h *Header, keys encryption.KeySet, remaining, v uint32) {
	if h.Flags.Has(FlagEncryptedIndex) {
		v = keys.EncryptU32(v, remaining)
	}
	w.WriteU32(v)
}
