package pack

import (
	"github.com/Frodo45127/rpfm-sub014/binrw"
	"github.com/Frodo45127/rpfm-sub014/encryption"
)

// pfh0 is the earliest layout: no container timestamp, no per-file fields.
type pfh0 struct{}

func (pfh0) extraLen(*Header) int { return 0 }

func (pfh0) readExtra(*binrw.Reader, *Header) error { return nil }

func (pfh0) writeExtra(*binrw.Writer, *Header) {}

func (pfh0) compressedFlag(*Header) bool { return false }

func (pfh0) readEntryTimestamp(*binrw.Reader, *Header, encryption.KeySet, uint32) (int64, error) {
	return 0, nil
}

func (pfh0) writeEntryTimestamp(*binrw.Writer, *Header, encryption.KeySet, uint32, int64) {}
