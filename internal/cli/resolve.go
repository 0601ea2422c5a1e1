package cli

import (
	"fmt"
	"strings"

	apperrors "github.com/julianstephens/mono/internal/errors"
)

// Resolve finds the one item whose id equals ref or starts with it.
func Resolve[T any](items []T, id func(T) string, ref, kind string) (T, error) {
	var zero T
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return zero, fmt.Errorf("%s id cannot be empty", kind)
	}

	var matches []T
	for _, item := range items {
		switch itemID := id(item); {
		case itemID == ref:
			return item, nil
		case strings.HasPrefix(itemID, ref):
			matches = append(matches, item)
		}
	}

	switch len(matches) {
	case 0:
		return zero, apperrors.NotFound(fmt.Sprintf("%s %q", kind, ref))
	case 1:
		return matches[0], nil
	default:
		return zero, fmt.Errorf("%s id %q is ambiguous (%d matches)", kind, ref, len(matches))
	}
}
