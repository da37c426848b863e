package version

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShortPrefersInjectedVersion(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })

	Version = "v1.2.3"
	assert.Equal(t, "v1.2.3", Short())
}

func TestInfo(t *testing.T) {
	oldCommit, oldBuilt := Commit, BuildTime
	t.Cleanup(func() { Commit, BuildTime = oldCommit, oldBuilt })

	Commit = ""
	BuildTime = "2025-01-02T03:04:05Z"
	info := Info()
	assert.True(t, strings.HasPrefix(info, "thoughtrelay "))
	assert.Contains(t, info, "commit:  unknown")
	assert.Contains(t, info, "built:   2025-01-02T03:04:05Z")
	assert.Contains(t, info, runtime.Version())
}
