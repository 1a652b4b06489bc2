package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CheckSchemaCompatibility checks if a cache file written with fileVersion can
// be read by a build expecting engineVersion.
// Returns nil if compatible, error with details if not.
//
// Compatibility Rules:
//   - If either version is "main" (development build), compatibility check is skipped
//   - Major versions must match exactly
//   - Minor versions must match exactly
//   - Patch versions can differ (e.g., 1.2.0 is compatible with 1.2.5)
func CheckSchemaCompatibility(engineVersion, fileVersion string) error {
	// Strip 'v' prefix if present for consistency
	engineVersion = strings.TrimPrefix(engineVersion, "v")
	fileVersion = strings.TrimPrefix(fileVersion, "v")

	// Skip version check for "main" (development builds)
	if engineVersion == "main" || fileVersion == "main" {
		return nil
	}

	engineSemver, err := semver.NewVersion(engineVersion)
	if err != nil {
		return fmt.Errorf("invalid engine schema version '%s': %w", engineVersion, err)
	}

	fileSemver, err := semver.NewVersion(fileVersion)
	if err != nil {
		return fmt.Errorf("invalid cache schema version '%s': %w", fileVersion, err)
	}

	if engineSemver.Major() != fileSemver.Major() {
		return fmt.Errorf("major schema mismatch: engine expects %d.x.x but cache file is %d.x.x",
			engineSemver.Major(), fileSemver.Major())
	}

	if engineSemver.Minor() != fileSemver.Minor() {
		return fmt.Errorf("minor schema mismatch: engine expects %d.%d.x but cache file is %d.%d.x",
			engineSemver.Major(), engineSemver.Minor(),
			fileSemver.Major(), fileSemver.Minor())
	}

	return nil
}
