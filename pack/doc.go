// Package pack reads and writes Total War pack archives.
//
// A pack is a single file holding a header, a dependency index naming the
// packs it loads after, a file index and the concatenated file payloads.
// Six container versions are supported, PFH0 to PFH6, including encrypted
// indexes and payloads and per-file compression.
//
// Opening a pack reads only the header and the indexes. Payloads stay in the
// backing file until first use:
//   - ReadFile decrypts and decompresses a single file on demand
//   - Load reads every remaining payload, merging adjacent reads
//   - Save re-encodes the pack, copying untouched payloads verbatim
//
// # Quick Start
//
// Open a pack and read a file:
//
//	p, err := pack.Open("data.pack")
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//	content, err := p.ReadFile("db/units_tables/data__")
//
// Build a mod and save it:
//
//	p := pack.New(pack.WithGame(info))
//	if _, err := p.InsertFolder("./my_mod", ""); err != nil {
//	    return err
//	}
//	err = p.Save("my_mod.pack")
//
// # Addressing files
//
// Paths inside a pack use forward slashes and keep their case, while the
// index is always written in case-insensitive order. [ContainerPath]
// addresses either a single file or a folder and everything beneath it, and
// [Dedup] removes addresses covered by another one.
//
// # Reserved files
//
// Mod and Movie packs carry their notes and settings in two reserved files.
// They are parsed on open, hidden from [Pack.Files] and rewritten on save;
// use [Pack.Notes] and [Pack.Settings] to access them.
package pack
