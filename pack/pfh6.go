package pack

import (
	"fmt"

	"github.com/Frodo45127/rpfm-sub014/binrw"
	"github.com/Frodo45127/rpfm-sub014/encryption"
)

// pfh6 adds a 280-byte subheader after the 32-bit timestamp: marker,
// subheader version, game version, build number, authoring tool and an
// opaque block. Every index entry carries a compression bool.
type pfh6 struct{}

const pfh6SubheaderLen = 4 + 4 + 4 + 4 + authoringToolLen + subheaderExtraLen

func (pfh6) extraLen(*Header) int { return 4 + pfh6SubheaderLen }

func (pfh6) readExtra(r *binrw.Reader, h *Header) error {
	ts, err := r.U32()
	if err != nil {
		return err
	}
	h.Timestamp = int64(ts)

	mark, err := r.U32()
	if err != nil {
		return err
	}
	if mark != subheaderMark {
		return fmt.Errorf("%w: marker %#08x", ErrSubHeaderMissing, mark)
	}
	if h.SubheaderVersion, err = r.U32(); err != nil {
		return err
	}
	if h.GameVersion, err = r.U32(); err != nil {
		return err
	}
	if h.BuildNumber, err = r.U32(); err != nil {
		return err
	}
	tool, err := r.Slice(authoringToolLen)
	if err != nil {
		return err
	}
	copy(h.AuthoringTool[:], tool)
	extra, err := r.Slice(subheaderExtraLen)
	if err != nil {
		return err
	}
	copy(h.SubheaderExtra[:], extra)
	return nil
}

func (pfh6) writeExtra(w *binrw.Writer, h *Header) {
	w.WriteU32(uint32(h.Timestamp)) //nolint:gosec // the format stores 32-bit times
	w.WriteU32(subheaderMark)
	w.WriteU32(h.SubheaderVersion)
	w.WriteU32(h.GameVersion)
	w.WriteU32(h.BuildNumber)
	_, _ = w.Write(h.AuthoringTool[:])
	_, _ = w.Write(h.SubheaderExtra[:])
}

func (pfh6) compressedFlag(*Header) bool { return true }

func (pfh6) readEntryTimestamp(r *binrw.Reader, h *Header, keys encryption.KeySet, remaining uint32) (int64, error) {
	return readU32Timestamp(r, h, keys, remaining)
}

func (pfh6) writeEntryTimestamp(w *binrw.Writer, h *Header, keys encryption.KeySet, remaining uint32, ts int64) {
	writeU32Timestamp(w, h, keys, remaining, ts)
}
