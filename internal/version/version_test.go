package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet_DefaultValues(t *testing.T) {
	info := Get("backend")

	assert.Equal(t, Info{Service: "backend", Version: "dev", Commit: "dev", BuildTime: "unknown"}, info)
	assert.False(t, IsRelease())
	assert.Equal(t, "backend dev (commit dev, built unknown)", info.String())
}

func TestGet_StampedValues(t *testing.T) {
	oldVersion, oldCommit, oldBuild := Version, Commit, BuildTime
	t.Cleanup(func() { Version, Commit, BuildTime = oldVersion, oldCommit, oldBuild })

	Version, Commit, BuildTime = "v1.4.0", "abc1234", "2026-10-01T12:00:00Z"

	info := Get("ideas-admin")
	assert.True(t, IsRelease())
	assert.Equal(t, "v1.4.0", info.Version)
	assert.Equal(t, "ideas-admin v1.4.0 (commit abc1234, built 2026-10-01T12:00:00Z)", info.String())
}
