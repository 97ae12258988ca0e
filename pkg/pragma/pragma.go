// Package pragma extracts the version pragma from Solidity source and
// resolves it, against a list of available compiler releases, to the
// highest release that satisfies the constraint.
package pragma

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/solgas/engine/pkg/gitutil"
	"github.com/solgas/engine/pkg/logger"
)

var log = logger.New("pragma:resolver")

// ErrNoMatch is returned when a pragma constraint was present but no
// available release satisfies it, or the constraint itself could not be
// parsed. Callers fall back to the bundled compiler and mark the result
// isExact = false, per spec.
var ErrNoMatch = errors.New("pragma: no compiler release satisfies constraint")

// pragmaPattern matches the first `pragma solidity <constraint>;` directive.
// Constraints may span multiple space-separated clauses (">=0.8.0 <0.9.0")
// and use commas or "||" for union/intersection, so we capture everything up
// to the terminating semicolon.
var pragmaPattern = regexp.MustCompile(`pragma\s+solidity\s+([^;]+);`)

// Pragma is the parsed version constraint extracted from a source buffer.
type Pragma struct {
	// Present is false when the source contains no version pragma at all;
	// this is not an error, the caller should use the bundled compiler.
	Present bool
	// Constraint is the raw constraint text, e.g. "^0.8.20" or ">=0.8.0 <0.9.0".
	Constraint string
}

// Extract returns the Pragma found in src, if any. It never returns an error:
// an absent pragma is represented by Pragma{Present: false}.
func Extract(src []byte) Pragma {
	m := pragmaPattern.FindSubmatch(src)
	if m == nil {
		return Pragma{Present: false}
	}
	constraint := strings.TrimSpace(string(m[1]))
	return Pragma{Present: true, Constraint: constraint}
}

// ReleaseId is a fully-qualified compiler release identifier of the form
// vMAJOR.MINOR.PATCH+commit.HHHHHHHH, ordered by semver.
type ReleaseId struct {
	version *semver.Version
	raw     string
}

// ParseReleaseId parses a release string such as "v0.8.20+commit.a1b79de6".
// The build-metadata suffix, when present, must be "commit.<hex>" matching
// solc's own release-identifier convention.
func ParseReleaseId(s string) (ReleaseId, error) {
	v, err := semver.NewVersion(strings.TrimPrefix(s, "v"))
	if err != nil {
		return ReleaseId{}, err
	}
	if commit := v.Metadata(); commit != "" {
		hash := strings.TrimPrefix(commit, "commit.")
		if hash == commit || !gitutil.IsHexString(hash) {
			return ReleaseId{}, fmt.Errorf("pragma: release %q has malformed commit metadata %q", s, commit)
		}
	}
	return ReleaseId{version: v, raw: s}, nil
}

// String returns the release identifier exactly as parsed.
func (r ReleaseId) String() string {
	return r.raw
}

// Core returns "MAJOR.MINOR.PATCH" with build metadata stripped, the form
// semver constraints are checked against.
func (r ReleaseId) Core() string {
	return fmt.Sprintf("%d.%d.%d", r.version.Major(), r.version.Minor(), r.version.Patch())
}

// Less reports whether r orders strictly before other by semver precedence.
func (r ReleaseId) Less(other ReleaseId) bool {
	return r.version.LessThan(other.version)
}

// Resolution is the outcome of resolving a Pragma against a release list.
type Resolution struct {
	Release ReleaseId
	// IsExact is false when the bundled compiler was substituted for a
	// missing or unsatisfiable pragma; downstream reporting should warn.
	IsExact bool
}

// Resolve picks the highest release in available that satisfies src's pragma.
// If src has no pragma, bundled is returned with IsExact = true (using the
// bundled compiler absent a pragma is expected behavior, not a fallback).
// If src has a pragma but it is unparseable or unsatisfiable by anything in
// available, ErrNoMatch is returned and the caller is expected to fall back
// to bundled itself and set IsExact = false.
func Resolve(src []byte, available []ReleaseId, bundled ReleaseId) (Resolution, error) {
	p := Extract(src)
	if !p.Present {
		log.Printf("no pragma present, using bundled release %s", bundled)
		return Resolution{Release: bundled, IsExact: true}, nil
	}

	constraint, err := semver.NewConstraint(p.Constraint)
	if err != nil {
		log.Printf("unparseable constraint %q: %v", p.Constraint, err)
		return Resolution{}, ErrNoMatch
	}

	best, ok := highestSatisfying(constraint, available)
	if !ok {
		log.Printf("no release satisfies constraint %q among %d candidates", p.Constraint, len(available))
		return Resolution{}, ErrNoMatch
	}

	log.Printf("resolved constraint %q to release %s", p.Constraint, best)
	return Resolution{Release: best, IsExact: true}, nil
}

func highestSatisfying(constraint *semver.Constraints, available []ReleaseId) (ReleaseId, bool) {
	candidates := make([]ReleaseId, 0, len(available))
	for _, r := range available {
		if constraint.Check(r.version) {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return ReleaseId{}, false
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Less(candidates[j]) })
	return candidates[len(candidates)-1], true
}
