package selector

import (
	"encoding/hex"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

var (
	qualifierPattern = regexp.MustCompile(`\b(storage ref|storage pointer|memory|storage|calldata)\b`)
	kindTagPattern    = regexp.MustCompile(`^(contract|struct|enum)\s+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// CanonicalType reduces a solc typeString (TypeDescriptions.typeString) to
// the type token used inside a canonical signature: qualifiers and leading
// kind tags are stripped, whitespace collapses, and mapping types normalize
// to a space-free form (design note, spec §4.4).
func CanonicalType(typeString string) string {
	t := kindTagPattern.ReplaceAllString(typeString, "")
	t = qualifierPattern.ReplaceAllString(t, "")
	t = whitespacePattern.ReplaceAllString(t, " ")
	t = strings.TrimSpace(t)
	t = strings.ReplaceAll(t, " => ", "=>")
	t = strings.ReplaceAll(t, "( ", "(")
	t = strings.ReplaceAll(t, " )", ")")
	t = strings.ReplaceAll(t, " ", "")
	return t
}

// CanonicalSignature builds name(type1,type2,...) from a function's name and
// parameter list, using CanonicalType on each parameter's typeString.
func CanonicalSignature(name string, params []Parameter) string {
	types := make([]string, len(params))
	for i, p := range params {
		types[i] = CanonicalType(p.TypeString)
	}
	return name + "(" + strings.Join(types, ",") + ")"
}

// Selector returns the 4-byte function selector (0x-prefixed, lowercase hex)
// for a canonical signature: the first four bytes of its keccak256 digest.
func Selector(canonicalSignature string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(canonicalSignature))
	digest := h.Sum(nil)
	return "0x" + hex.EncodeToString(digest[:4])
}
