// Package packager defines the fixed packaging profiles: which extra
// packages each variant installs and the exact PyInstaller flag set it
// invokes. Profiles are constants, not user-extensible configuration,
// so the produced command lines stay reproducible.
package packager

import (
	"fmt"
	"sort"

	v1 "github.com/f9-o/speedbuild/api/v1"
)

// Tool is the packaging executable name inside the venv.
const Tool = "pyinstaller"

// Profile describes one fixed packaging variant.
type Profile struct {
	Name v1.Profile

	// Extras are installed unconditionally before packaging, even when
	// the dependency manifest already provides them. Order is preserved.
	Extras []string

	// Flags is the exact PyInstaller flag set, passed verbatim.
	Flags []string
}

var profiles = map[v1.Profile]Profile{
	v1.ProfileFull: {
		Name: v1.ProfileFull,
		// The speedtest engine is imported lazily by the app, so the full
		// profile installs it and forces it into the frozen bundle.
		Extras: []string{"speedtest-cli", "pyinstaller"},
		Flags: []string{
			"--onefile",
			"--windowed",
			"--hidden-import=speedtest",
			"--collect-submodules", "speedtest",
		},
	},
	v1.ProfileLite: {
		Name:   v1.ProfileLite,
		Extras: []string{"pyinstaller"},
		Flags: []string{
			"--onefile",
			"--windowed",
		},
	},
}

// Lookup resolves a profile by name.
func Lookup(name v1.Profile) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown packaging profile %q (have %v)", name, Names())
	}
	return p, nil
}

// Names returns the known profile names, sorted.
func Names() []string {
	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, string(n))
	}
	sort.Strings(names)
	return names
}

// Command builds the exact packager argv for entry under this profile.
func (p Profile) Command(tool, entry string) []string {
	argv := make([]string, 0, len(p.Flags)+2)
	argv = append(argv, tool)
	argv = append(argv, p.Flags...)
	return append(argv, entry)
}
