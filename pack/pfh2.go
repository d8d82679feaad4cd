package pack

import (
	"github.com/Frodo45127/rpfm-sub014/binrw"
	"github.com/Frodo45127/rpfm-sub014/encryption"
)

// pfh2 serves PFH2 and PFH3, which store times as 64-bit Windows ticks.
type pfh2 struct{}

func (pfh2) extraLen(*Header) int { return 8 }

func (pfh2) readExtra(r *binrw.Reader, h *Header) error {
	ticks, err := r.I64()
	if err != nil {
		return err
	}
	h.Timestamp = ticksToUnix(ticks)
	return nil
}

func (pfh2) writeExtra(w *binrw.Writer, h *Header) {
	w.WriteI64(unixToTicks(h.Timestamp))
}

func (pfh2) compressedFlag(*Header) bool { return false }

func (pfh2) readEntryTimestamp(r *binrw.Reader, h *Header, _ encryption.KeySet, _ uint32) (int64, error) {
	if !h.Flags.Has(FlagIndexTimestamps) {
		return 0, nil
	}
	ticks, err := r.I64()
	if err != nil {
		return 0, err
	}
	return ticksToUnix(ticks), nil
}

func (pfh2) writeEntryTimestamp(w *binrw.Writer, h *Header, _ encryption.KeySet, _ uint32, ts int64) {
	if h.Flags.Has(FlagIndexTimestamps) {
		w.WriteI64(unixToTicks(ts))
	}
}
