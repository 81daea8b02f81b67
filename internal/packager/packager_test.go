package packager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/f9-o/speedbuild/api/v1"
)

func TestFullProfileFlagsVerbatim(t *testing.T) {
	p, err := Lookup(v1.ProfileFull)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"--onefile",
		"--windowed",
		"--hidden-import=speedtest",
		"--collect-submodules", "speedtest",
	}, p.Flags)
	assert.Equal(t, []string{"speedtest-cli", "pyinstaller"}, p.Extras)
}

func TestLiteProfileFlagsVerbatim(t *testing.T) {
	p, err := Lookup(v1.ProfileLite)
	require.NoError(t, err)

	assert.Equal(t, []string{"--onefile", "--windowed"}, p.Flags)
	assert.Equal(t, []string{"pyinstaller"}, p.Extras)
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup(v1.Profile("turbo"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "turbo")
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"full", "lite"}, Names())
}

func TestCommand(t *testing.T) {
	p, err := Lookup(v1.ProfileFull)
	require.NoError(t, err)

	argv := p.Command("venv/bin/pyinstaller", "wifi_speed.py")
	assert.Equal(t, []string{
		"venv/bin/pyinstaller",
		"--onefile",
		"--windowed",
		"--hidden-import=speedtest",
		"--collect-submodules", "speedtest",
		"wifi_speed.py",
	}, argv)
}

func TestCommandIdenticalEntryAcrossProfiles(t *testing.T) {
	full, _ := Lookup(v1.ProfileFull)
	lite, _ := Lookup(v1.ProfileLite)

	fa := full.Command(Tool, "wifi_speed.py")
	la := lite.Command(Tool, "wifi_speed.py")
	assert.Equal(t, "wifi_speed.py", fa[len(fa)-1])
	assert.Equal(t, "wifi_speed.py", la[len(la)-1])
}
