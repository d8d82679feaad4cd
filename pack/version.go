package pack

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is the container layout, named after its 4-byte tag.
type Version uint8

// Known container versions. The numeric value is the tag's digit.
const (
	PFH0 Version = 0
	PFH2 Version = 2
	PFH3 Version = 3
	PFH4 Version = 4
	PFH5 Version = 5
	PFH6 Version = 6
)

// String returns the on-disk tag.
func (v Version) String() string {
	return "PFH" + strconv.Itoa(int(v))
}

// ParseVersion maps a 4-byte tag to its Version.
func ParseVersion(tag string) (Version, error) {
	switch tag {
	case "PFH0":
		return PFH0, nil
	case "PFH2":
		return PFH2, nil
	case "PFH3":
		return PFH3, nil
	case "PFH4":
		return PFH4, nil
	case "PFH5":
		return PFH5, nil
	case "PFH6":
		return PFH6, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedSignature, tag)
}

// Type is the usage classification kept in the low nibble of the header word.
type Type uint8

// Known pack types. Any other nibble value is preserved as is.
const (
	TypeBoot    Type = 0
	TypeRelease Type = 1
	TypePatch   Type = 2
	TypeMod     Type = 3
	TypeMovie   Type = 4
)

const typeMask = 0xF

func (t Type) String() string {
	switch t {
	case TypeBoot:
		return "boot"
	case TypeRelease:
		return "release"
	case TypePatch:
		return "patch"
	case TypeMod:
		return "mod"
	case TypeMovie:
		return "movie"
	}
	return "other(" + strconv.Itoa(int(t)) + ")"
}

// ParseType maps a type name ("mod", "movie", ...) back to its Type.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "boot":
		return TypeBoot, nil
	case "release":
		return TypeRelease, nil
	case "patch":
		return TypePatch, nil
	case "mod":
		return TypeMod, nil
	case "movie":
		return TypeMovie, nil
	}
	return 0, fmt.Errorf("pack: unknown pack type %q", s)
}

// Flags is the feature bitmask kept in the high bits of the header word.
// Bits without a name are preserved on round trips.
type Flags uint32

// Known feature flags.
const (
	FlagEncryptedData   Flags = 0x10
	FlagIndexTimestamps Flags = 0x40
	FlagEncryptedIndex  Flags = 0x80
	FlagExtendedHeader  Flags = 0x100
)

// Has reports whether every bit of f is set.
func (fl Flags) Has(f Flags) bool {
	return fl&f == f
}

func (fl Flags) String() string {
	var names []string
	rest := fl
	for _, n := range []struct {
		f    Flags
		name string
	}{
		{FlagEncryptedData, "encrypted_data"},
		{FlagIndexTimestamps, "index_timestamps"},
		{FlagEncryptedIndex, "encrypted_index"},
		{FlagExtendedHeader, "extended_header"},
	} {
		if fl.Has(n.f) {
			names = append(names, n.name)
			rest &^= n.f
		}
	}
	if rest != 0 {
		names = append(names, fmt.Sprintf("%#x", uint32(rest)))
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// splitWord separates the header word into type and flags.
func splitWord(word uint32) (Type, Flags) {
	return Type(word & typeMask), Flags(word &^ typeMask)
}

func joinWord(t Type, f Flags) uint32 {
	return uint32(f)&^typeMask | uint32(t)&typeMask
}
