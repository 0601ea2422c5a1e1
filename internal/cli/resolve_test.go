package cli

import (
	"errors"
	"testing"

	apperrors "github.com/julianstephens/mono/internal/errors"
)

func TestResolve(t *testing.T) {
	ids := []string{"abc123", "abd456", "xyz"}
	self := func(s string) string { return s }

	tests := []struct {
		name    string
		ref     string
		want    string
		wantErr bool
	}{
		{"exact", "xyz", "xyz", false},
		{"unique prefix", "abc", "abc123", false},
		{"ambiguous prefix", "ab", "", true},
		{"missing", "qqq", "", true},
		{"empty", "  ", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(ids, self, tt.ref, "task")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Resolve(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}

	if _, err := Resolve(ids, self, "qqq", "task"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
