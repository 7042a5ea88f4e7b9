package repository

import "testing"

func TestValidIdentifier(t *testing.T) {
	valid := []string{"plants", "user_applications", "_audit", "T1", "a"}
	for _, name := range valid {
		if !ValidIdentifier(name) {
			t.Errorf("ValidIdentifier(%q) = false, want true", name)
		}
	}

	invalid := []string{
		"",
		"1plants",
		"plants; DROP TABLE users",
		"plants--",
		`"plants"`,
		"plants.users",
		"表",
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", // 64 chars
	}
	for _, name := range invalid {
		if ValidIdentifier(name) {
			t.Errorf("ValidIdentifier(%q) = true, want false", name)
		}
	}
}
