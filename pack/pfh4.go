package pack

import (
	"github.com/Frodo45127/rpfm-sub014/binrw"
	"github.com/Frodo45127/rpfm-sub014/encryption"
)

// pfh4 serves PFH4 and PFH5. Both store 32-bit Unix times and may carry a
// 20-byte extended header. PFH5 index entries carry a compression bool,
// except in Arena packs, which keep the PFH4 entry layout.
type pfh4 struct{}

func (pfh4) extraLen(h *Header) int {
	if h.Flags.Has(FlagExtendedHeader) {
		return 4 + extendedHeaderLen
	}
	return 4
}

func (pfh4) readExtra(r *binrw.Reader, h *Header) error {
	ts, err := r.U32()
	if err != nil {
		return err
	}
	h.Timestamp = int64(ts)
	if h.Flags.Has(FlagExtendedHeader) {
		ext, err := r.Slice(extendedHeaderLen)
		if err != nil {
			return err
		}
		copy(h.Extended[:], ext)
	}
	return nil
}

func (pfh4) writeExtra(w *binrw.Writer, h *Header) {
	w.WriteU32(uint32(h.Timestamp)) //nolint:gosec // the format stores 32-bit times
	if h.Flags.Has(FlagExtendedHeader) {
		_, _ = w.Write(h.Extended[:])
	}
}

func (pfh4) compressedFlag(h *Header) bool {
	return h.Version == PFH5 && !h.Flags.Has(FlagExtendedHeader)
}

func (pfh4) readEntryTimestamp(r *binrw.Reader, h *Header, keys encryption.KeySet, remaining uint32) (int64, error) {
	return readU32Timestamp(r, h, keys, remaining)
}

func (pfh4) writeEntryTimestamp(w *binrw.Writer, h *Header, keys encryption.KeySet, remaining uint32, ts int64) {
	writeU32Timestamp(w, h, keys, remaining, ts)
}

func readU32Timestamp(r *binrw.Reader, h *Header, keys encryption.KeySet, remaining uint32) (int64, error) {
	if !h.Flags.Has(FlagIndexTimestamps) {
		return 0, nil
	}
	ts, err := readIndexU32(r, h, keys, remaining)
	if err != nil {
		return 0, err
	}
	return int64(ts), nil
}

func writeU32Timestamp(w *binrw.Writer, h *Header, keys encryption.KeySet, remaining uint32, ts int64) {
	if h.Flags.Has(FlagIndexTimestamps) {
		writeIndexU32(w, h, keys, remaining, uint32(ts)) //nolint:gosec // the format stores 32-bit times
	}
}
