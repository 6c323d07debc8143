package version

import (
	"regexp"
	"testing"
)

func TestVersionIsSemver(t *testing.T) {
	v := Version()
	if !regexp.MustCompile(`^\d+\.\d+\.\d+`).MatchString(v) {
		t.Errorf("Version() = %q, want a semantic version", v)
	}
}
