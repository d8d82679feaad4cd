package pack

import "strings"

// Kind is the file type guessed from an entry's path.
type Kind uint8

// Known kinds.
const (
	KindUnknown Kind = iota
	KindDB
	KindLoc
	KindText
	KindImage
	KindCaVp8
	KindRigidModel
	KindFastbin
	KindPortraitSettings
	KindAnimPack
	KindUnitVariant
	KindUIC
	KindPack
)

var kindNames = [...]string{
	KindUnknown:          "unknown",
	KindDB:               "db",
	KindLoc:              "loc",
	KindText:             "text",
	KindImage:            "image",
	KindCaVp8:            "ca_vp8",
	KindRigidModel:       "rigid_model",
	KindFastbin:          "fastbin",
	KindPortraitSettings: "portrait_settings",
	KindAnimPack:         "animpack",
	KindUnitVariant:      "unit_variant",
	KindUIC:              "uic",
	KindPack:             "pack",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Compressible reports whether the game loads this kind compressed. Tables
// and localisation files must stay uncompressed.
func (k Kind) Compressible() bool {
	return k != KindDB && k != KindLoc
}

var (
	imageExtensions = []string{".jpg", ".jpeg", ".tga", ".dds", ".png"}
	textExtensions  = []string{
		".inl", ".lua", ".xml", ".technique", ".xml.shader", ".xml.material",
		".variantmeshdefinition", ".environment", ".lighting", ".wsmodel",
		".benchmark", ".cindyscene", ".cindyscenemanager", ".csv", ".tsv",
		".tai", ".battle_speech_camera", ".bob", ".txt", ".htm", ".html",
		".json", ".texture_array", ".md",
	}
)

// GuessKind derives the kind of the file at path from its extension and,
// failing that, its top-level folder.
func GuessKind(path string) Kind {
	p := strings.ToLower(path)
	switch {
	case p == ReservedNotes || p == ReservedSettings:
		return KindText
	case strings.HasSuffix(p, ".loc"):
		return KindLoc
	case strings.HasSuffix(p, ".rigid_model_v2"):
		return KindRigidModel
	case strings.HasSuffix(p, ".animpack"):
		return KindAnimPack
	case strings.HasSuffix(p, ".ca_vp8"):
		return KindCaVp8
	case hasAnySuffix(p, imageExtensions):
		return KindImage
	case hasAnySuffix(p, textExtensions):
		return KindText
	case strings.HasSuffix(p, ".unit_variant"):
		return KindUnitVariant
	case strings.HasSuffix(p, ".bmd"), strings.HasSuffix(p, ".vegetation"):
		return KindFastbin
	case strings.HasSuffix(p, ".pack"):
		return KindPack
	case strings.HasPrefix(p, "ui/portraits/portholes/") && strings.HasSuffix(p, ".bin"),
		strings.HasPrefix(p, "portrait_settings") && strings.HasSuffix(p, ".bin"):
		return KindPortraitSettings
	}

	folder, rest, nested := strings.Cut(p, "/")
	if !nested {
		return KindUnknown
	}
	switch folder {
	case "db":
		return KindDB
	case "ui":
		if !strings.Contains(rest, ".") || strings.HasSuffix(rest, ".uic") {
			return KindUIC
		}
	}
	return KindUnknown
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}
