package pack

import (
	"bytes"
	"time"
)

const (
	// baseHeaderLen covers the tag, the header word and the four index counters.
	baseHeaderLen = 24

	mfhPreamble    = "MFH"
	mfhPreambleLen = 8

	extendedHeaderLen = 20
	authoringToolLen  = 8
	subheaderExtraLen = 256
	arenaAppendixLen  = 256

	// Windows FILETIME ticks per second and seconds between 1601 and 1970.
	windowsTick      = 10_000_000
	secToUnixEpoch   = 11_644_473_600
	subheaderMark    = 0x12345678

	// defaultSubheaderVersion is the subheader version of new packs.
	defaultSubheaderVersion = 1
)

// Header holds the container-level fields of a pack. Counts and lengths are
// derived from the pack's contents when encoding and are not kept here.
type Header struct {
	Version Version
	Type    Type
	Flags   Flags

	// Timestamp is the container creation time in Unix seconds. PFH0 packs
	// have none.
	Timestamp int64

	// Extended is the opaque extended header of PFH4 and PFH5 packs with
	// FlagExtendedHeader.
	Extended [extendedHeaderLen]byte

	// PFH6 subheader fields. AuthoringTool is the raw zero-padded field,
	// kept whole so bytes after the padding survive a round trip; Tool and
	// SetTool treat it as a string.
	SubheaderVersion uint32
	GameVersion      uint32
	BuildNumber      uint32
	AuthoringTool    [authoringToolLen]byte
	SubheaderExtra   [subheaderExtraLen]byte

	// Preamble is the 8-byte MFH block some workshop downloads carry in
	// front of the tag, or nil.
	Preamble []byte

	// Appendix is the trailing block of Arena packs.
	Appendix [arenaAppendixLen]byte
}

// Time returns Timestamp as a time.Time.
func (h *Header) Time() time.Time {
	return time.Unix(h.Timestamp, 0)
}

// Tool returns the authoring tool name: the tool field up to its first
// zero byte.
func (h *Header) Tool() string {
	b := h.AuthoringTool[:]
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// SetTool replaces the tool field with name, zero padded. Longer names are
// cropped to the field width.
func (h *Header) SetTool(name string) {
	h.AuthoringTool = [authoringToolLen]byte{}
	copy(h.AuthoringTool[:], name)
}

// arena reports whether the pack uses the Arena layout, which keeps a
// trailing appendix after the payloads.
func (h *Header) arena() bool {
	return h.Version == PFH5 && h.Flags.Has(FlagExtendedHeader)
}

// padded reports whether payloads start at 8-byte aligned offsets.
func (h *Header) padded() bool {
	return h.arena() && h.Flags.Has(FlagEncryptedData)
}

// ticksToUnix converts Windows FILETIME ticks to Unix seconds. Sub-second
// precision is dropped.
func ticksToUnix(ticks int64) int64 {
	return ticks/windowsTick - secToUnixEpoch
}

func unixToTicks(sec int64) int64 {
	return (sec + secToUnixEpoch) * windowsTick
}
