package version

import (
	"strings"
	"testing"
)

func TestStringIncludesComponents(t *testing.T) {
	s := String()
	for _, want := range []string{"whisperd", Version, "commit=", "date=", "go="} {
		if !strings.Contains(s, want) {
			t.Fatalf("version string %q missing %q", s, want)
		}
	}
}
