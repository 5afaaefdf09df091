package policy

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedVersion is returned when a stored version is not MAJOR.MINOR.PATCH.
var ErrMalformedVersion = errors.New("malformed policy version")

// InitialVersion is assigned when no version has been published.
const InitialVersion = "1.0.0"

// NextVersion increments the minor segment of prev and resets the patch.
// An empty prev yields InitialVersion.
func NextVersion(prev string) (string, error) {
	prev = strings.TrimSpace(prev)
	if prev == "" {
		return InitialVersion, nil
	}
	parts := strings.Split(prev, ".")
	if len(parts) != 3 {
		return "", fmt.Errorf("%w: %q", ErrMalformedVersion, prev)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return "", fmt.Errorf("%w: %q", ErrMalformedVersion, prev)
		}
		nums[i] = n
	}
	return fmt.Sprintf("%d.%d.0", nums[0], nums[1]+1), nil
}
