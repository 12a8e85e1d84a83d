package treesync

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Martian-0007/folder-syncer/pkg/config"
)

// Translator computes what target string a copied symlink should point at,
// given the canonical source root and the dangling-link policy. Its output
// feeds both the comparator (expected-target check) and the symlink handler
// (actual link creation).
type Translator struct {
	sourceRoot string // canonical source root
	policy     config.DanglingPolicy
}

// NewTranslator creates a translator for one pass over the given canonical
// source root.
func NewTranslator(canonicalSourceRoot string, policy config.DanglingPolicy) *Translator {
	return &Translator{
		sourceRoot: canonicalSourceRoot,
		policy:     policy,
	}
}

// Translate returns the target string for the replica link and whether a
// valid target exists. ok == false is the "no valid target" sentinel: the
// replica must carry no link at all.
//
// rawTarget is the unresolved link text read from the source link; linkDir
// is the canonical directory containing the link on the source side.
//
// The rules:
//   - dangling + drop-dangling: no valid target.
//   - dangling + keep-dangling: rawTarget unchanged, deliberately dangling.
//   - resolves inside the source root: rawTarget unchanged, preserving the
//     source's internal link structure in the replica.
//   - resolves outside the source root: a synthesized absolute target with
//     an embedded marker segment from which rawTarget can be recovered.
func (t *Translator) Translate(rawTarget, linkDir string) (target string, ok bool) {
	absTarget := rawTarget
	if !filepath.IsAbs(absTarget) {
		absTarget = filepath.Join(linkDir, rawTarget)
	}
	absTarget = filepath.Clean(absTarget)

	if _, err := os.Stat(absTarget); err != nil {
		// Dangling: the target does not exist on disk (or cannot be
		// reached, which for mirroring purposes is the same thing).
		if t.policy == config.KeepDangling {
			return rawTarget, true
		}
		return "", false
	}

	canonical, err := filepath.EvalSymlinks(absTarget)
	if err != nil {
		// Exists but cannot be fully resolved; fall back to the cleaned
		// absolute path for the containment test.
		canonical = absTarget
	}

	if pathContains(t.sourceRoot, canonical) {
		return rawTarget, true
	}
	return markerTarget(linkDir, rawTarget), true
}

// markerTarget synthesizes an absolute target carrying a literal single-dot
// path segment in front of the raw target. The marker lets a later consumer
// recover the original raw target (see RecoverRawTarget). Built by string
// concatenation: filepath.Join would normalize the "." segment away.
// An absolute rawTarget produces a doubled separator after the marker; that
// byte is what tells RecoverRawTarget an absolute target apart from a
// relative one with the same text, so it must not be collapsed. Path
// resolution ignores the empty segment.
func markerTarget(linkDir, rawTarget string) string {
	sep := string(filepath.Separator)
	return strings.TrimSuffix(linkDir, sep) + sep + "." + sep + rawTarget
}

// RecoverRawTarget extracts the original raw target from a translated one
// by stripping everything up to and including the marker segment. Returns
// ok == false when the target carries no marker (i.e. it was replicated
// unchanged, or a path normalization destroyed the marker).
func RecoverRawTarget(translated string) (string, bool) {
	sep := string(filepath.Separator)
	marker := sep + "." + sep
	i := strings.Index(translated, marker)
	if i < 0 {
		return "", false
	}
	return translated[i+len(marker):], true
}

// pathContains reports whether p equals root or lies inside it. The check
// is path arithmetic on canonical paths, never a string prefix, so sibling
// roots like /src and /src-backup cannot produce false positives.
func pathContains(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
