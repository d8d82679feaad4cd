// Package games describes the supported games: which container version each
// of them writes, which compression schemes it loads and which cipher keys
// its packs use.
//
// The catalog ships embedded as YAML and can be replaced with Load.
package games

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Frodo45127/rpfm-sub014/compression"
	"github.com/Frodo45127/rpfm-sub014/encryption"
)

//go:embed games.yaml
var catalogYAML []byte

var (
	// ErrUnknownGame is returned when a key is not in the catalog.
	ErrUnknownGame = errors.New("games: unknown game")

	// ErrInvalidCatalog is returned when a catalog fails validation.
	ErrInvalidCatalog = errors.New("games: invalid catalog")
)

// Pack type names used as keys of Info.PackVersions.
const (
	TypeBoot    = "boot"
	TypeRelease = "release"
	TypePatch   = "patch"
	TypeMod     = "mod"
	TypeMovie   = "movie"
)

var (
	packTypes    = []string{TypeBoot, TypeRelease, TypePatch, TypeMod, TypeMovie}
	packVersions = []string{"PFH0", "PFH2", "PFH3", "PFH4", "PFH5", "PFH6"}
	keySets      = map[string]encryption.KeySet{
		"default":      encryption.Default,
		"arena_legacy": encryption.ArenaLegacy,
	}
)

// Info describes one game.
type Info struct {
	Key          string               `yaml:"key"`
	DisplayName  string               `yaml:"display_name"`
	SteamID      uint64               `yaml:"steam_id,omitempty"`
	KeySetName   string               `yaml:"key_set"`
	PackVersions map[string]string    `yaml:"pack_versions"`
	Compression  []compression.Scheme `yaml:"compression,omitempty"`
}

// Keys returns the cipher constants of the game's packs. The games leave
// the last block of encrypted payloads in the clear.
func (i Info) Keys() encryption.KeySet {
	ks, ok := keySets[i.KeySetName]
	if !ok {
		ks = encryption.Default
	}
	ks.PlainLastBlock = true
	return ks
}

// PackVersion returns the container tag the game writes for packType.
func (i Info) PackVersion(packType string) (string, bool) {
	v, ok := i.PackVersions[packType]
	return v, ok
}

// DefaultCompression returns the scheme new packs of this game use, or
// compression.None if the game loads no compressed files.
func (i Info) DefaultCompression() compression.Scheme {
	if len(i.Compression) == 0 {
		return compression.None
	}
	return i.Compression[0]
}

// SupportsCompression reports whether the game loads files compressed with s.
func (i Info) SupportsCompression(s compression.Scheme) bool {
	return slices.Contains(i.Compression, s)
}

func (i Info) validate() error {
	if i.Key == "" {
		return fmt.Errorf("%w: game without key", ErrInvalidCatalog)
	}
	if _, ok := keySets[i.KeySetName]; !ok {
		return fmt.Errorf("%w: %s: unknown key set %q", ErrInvalidCatalog, i.Key, i.KeySetName)
	}
	for _, t := range packTypes {
		v, ok := i.PackVersions[t]
		if !ok {
			return fmt.Errorf("%w: %s: no version for %s packs", ErrInvalidCatalog, i.Key, t)
		}
		if !slices.Contains(packVersions, v) {
			return fmt.Errorf("%w: %s: unknown version %q", ErrInvalidCatalog, i.Key, v)
		}
	}
	for _, s := range i.Compression {
		if s == compression.None {
			return fmt.Errorf("%w: %s: none is not a compression scheme", ErrInvalidCatalog, i.Key)
		}
	}
	return nil
}

// Catalog is an ordered set of games.
type Catalog struct {
	games []Info
	byKey map[string]int
}

type catalogFile struct {
	Games []Info `yaml:"games"`
}

// Load parses and validates a YAML catalog.
func Load(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	c := &Catalog{
		games: f.Games,
		byKey: make(map[string]int, len(f.Games)),
	}
	for idx, g := range f.Games {
		if err := g.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byKey[g.Key]; dup {
			return nil, fmt.Errorf("%w: duplicate game %q", ErrInvalidCatalog, g.Key)
		}
		c.byKey[g.Key] = idx
	}
	return c, nil
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := Load(catalogYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded game catalog: %v", err))
	}
	return c
})

// Default returns the embedded catalog.
func Default() *Catalog {
	return defaultCatalog()
}

// Get returns the game with the given key.
func (c *Catalog) Get(key string) (Info, error) {
	idx, ok := c.byKey[key]
	if !ok {
		return Info{}, fmt.Errorf("%w: %q", ErrUnknownGame, key)
	}
	return c.games[idx], nil
}

// All returns every game in catalog order.
func (c *Catalog) All() []Info {
	return slices.Clone(c.games)
}
