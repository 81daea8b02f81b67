package packager

import (
	"path/filepath"
	"strings"
)

// Stem returns the entry-point file name with its extension removed.
// `wifi_speed.py` → `wifi_speed`.
func Stem(entry string) string {
	base := filepath.Base(entry)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ArtifactName returns the executable file name produced for entry when
// targeting goos. The name derives from the entry point alone; profile and
// host have no influence on it.
func ArtifactName(entry, goos string) string {
	if goos == "windows" {
		return Stem(entry) + ".exe"
	}
	return Stem(entry)
}

// ArtifactPath returns the artifact location under dist using host path
// semantics, for local filesystem checks.
func ArtifactPath(dist, entry, goos string) string {
	return filepath.Join(dist, ArtifactName(entry, goos))
}

// DisplayPath renders the artifact path the way the target platform writes
// it. The completion message quotes this path verbatim, so it must not vary
// with the machine the build happens to run on.
func DisplayPath(dist, entry, goos string) string {
	joined := filepath.ToSlash(filepath.Join(dist, ArtifactName(entry, goos)))
	if goos == "windows" {
		return strings.ReplaceAll(joined, "/", `\`)
	}
	return joined
}

// CompletionMessage is the fixed line printed when a run finishes. The
// original packaging script printed it regardless of step outcomes, and the
// default mode preserves that behaviour; it names the expected artifact, not
// a verified one.
func CompletionMessage(dist, entry, goos string) string {
	return "Done. See " + DisplayPath(dist, entry, goos)
}

// ScratchPaths returns the packager's intermediate outputs for entry: the
// work directory and the generated spec file. Both live next to the entry
// point and are safe to remove between builds.
func ScratchPaths(entry string) []string {
	return []string{"build", Stem(entry) + ".spec"}
}
