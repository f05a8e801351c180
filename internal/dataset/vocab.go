package dataset

import (
	"fmt"

	"github.com/franz/storefront-insights/internal/util"
)

// Role selects the company field used for grouping
type Role string

const (
	RoleDeveloper Role = "developer"
	RolePublisher Role = "publisher"
)

// ParseRole validates a role selector
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleDeveloper, RolePublisher:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: role must be developer or publisher, got %q", util.ErrInvalidArgument, s)
}

// Categories are the store categories encoded as flags
var Categories = []string{"Single-player", "Multi-player"}

// Genres are the genres encoded as flags. FPS is not a store genre and is
// matched against the tag text instead.
var Genres = []string{
	"Action", "Adventure", "Casual", "FPS", "Indie",
	"Racing", "RPG", "Simulation", "Sports", "Strategy",
}
