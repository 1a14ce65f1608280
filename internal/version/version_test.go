package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func restore(t *testing.T) {
	t.Helper()
	v, c, b := Version, GitCommit, BuildTime
	t.Cleanup(func() {
		Version, GitCommit, BuildTime = v, c, b
	})
}

func TestGetVersion(t *testing.T) {
	t.Run("defaults to dev under go test", func(t *testing.T) {
		restore(t)
		Version = "dev"
		assert.Equal(t, "dev", GetVersion())
	})

	t.Run("ldflags version wins", func(t *testing.T) {
		restore(t)
		Version = "v1.2.3"
		assert.Equal(t, "v1.2.3", GetVersion())
	})
}

func TestGetFullVersion(t *testing.T) {
	t.Run("version only", func(t *testing.T) {
		restore(t)
		Version, GitCommit, BuildTime = "v1.0.0", "unknown", "unknown"
		assert.Equal(t, "v1.0.0", GetFullVersion())
	})

	t.Run("commit is shortened", func(t *testing.T) {
		restore(t)
		Version, GitCommit, BuildTime = "v1.0.0", "0123456789abcdef", "unknown"
		assert.Equal(t, "v1.0.0 (commit: 0123456)", GetFullVersion())
	})

	t.Run("build time is appended", func(t *testing.T) {
		restore(t)
		Version, GitCommit, BuildTime = "v1.0.0", "abc", "2026-10-14"
		assert.Equal(t, "v1.0.0 (commit: abc) built 2026-10-14", GetFullVersion())
	})
}
