// Package fingerprint derives the cache identity of a compilation unit.
package fingerprint

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
	"go.trai.ch/rscript/internal/core/domain"
)

// Input is everything that influences the compiled artifact.
type Input struct {
	Kind domain.UnitKind
	// Source is the rendered program, prelude included.
	Source       string
	Manifest     []byte
	Mode         domain.BuildMode
	Features     []string
	TemplateName string
	TemplateText string
	Toolchain    string
}

// Compute returns the fingerprint of in.
//
// Every field is written with a label and a length prefix, so no two distinct
// inputs can produce the same byte stream. Features are sorted and
// deduplicated first since their order does not affect the build.
func Compute(in Input) domain.Fingerprint {
	h := blake3.New()

	writeField(h, "kind", string(in.Kind))
	writeField(h, "source", in.Source)
	writeField(h, "manifest", string(in.Manifest))
	writeField(h, "mode", string(in.Mode))

	features := slices.Clone(in.Features)
	slices.Sort(features)
	features = slices.Compact(features)
	writeField(h, "features", fmt.Sprint(len(features)))
	for _, f := range features {
		writeField(h, "feature", f)
	}

	writeField(h, "template", in.TemplateName)
	writeField(h, "template-digest", TemplateDigest(in.TemplateText))
	writeField(h, "toolchain", in.Toolchain)

	return domain.Fingerprint(hex.EncodeToString(h.Sum(nil)))
}

// TemplateDigest returns a short content digest of a template text.
func TemplateDigest(text string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(text))
}

func writeField(h hash.Hash, label, value string) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(label)))
	_, _ = h.Write(n[:])
	_, _ = h.Write([]byte(label))
	binary.BigEndian.PutUint64(n[:], uint64(len(value)))
	_, _ = h.Write(n[:])
	_, _ = h.Write([]byte(value))
}
