package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFull(t *testing.T) {
	// Default
	assert.Equal(t, Version, Full())

	// With build info
	originalBuildTime := BuildTime
	originalGitCommit := GitCommit
	defer func() {
		BuildTime = originalBuildTime
		GitCommit = originalGitCommit
	}()

	BuildTime = "2025-01-01"
	GitCommit = "abcdef"

	full := Full()
	assert.Contains(t, full, "2025-01-01")
	assert.Contains(t, full, "abcdef")
}
