package version

import (
	_ "embed"
	"strings"
)

//go:embed version.txt
var versionFile string

// Version returns the current reqcore version
func Version() string {
	v := strings.TrimSpace(versionFile)
	if v == "" {
		return "0.0.0-development"
	}
	return v
}
