package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo(t *testing.T) {
	info := Info()
	assert.Contains(t, info, "fabricscan")
	assert.Contains(t, info, Version)
	assert.Contains(t, info, Commit)
	assert.Contains(t, info, BuildDate)
}

func TestGet(t *testing.T) {
	v := Get()
	assert.Equal(t, Version, v.Version)
	assert.Equal(t, Commit, v.Commit)
	assert.Equal(t, runtime.Version(), v.GoVersion)
}
