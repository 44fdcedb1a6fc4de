package classroom

import (
	"regexp"
	"testing"
)

var codeRegex = regexp.MustCompile(`^[A-Z0-9]{6}$`)

func Test_generateJoinCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := generateJoinCode()
		if err != nil {
			t.Fatalf("generateJoinCode() failed: %v", err)
		}
		if !codeRegex.MatchString(code) {
			t.Fatalf("generateJoinCode() = %q; want 6 chars [A-Z0-9]", code)
		}
		if seen[code] {
			t.Fatalf("generateJoinCode() repeated %q", code)
		}
		seen[code] = true
	}
}
