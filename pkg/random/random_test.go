package random

import (
	"regexp"
	"testing"

	"gotest.tools/v3/assert"
)

func TestNameSuffix(t *testing.T) {
	// statichcek SA4000 error if we inline on the same line :\
	f := NameSuffix(8)
	assert.Assert(t, f != NameSuffix(8))
}

func TestNameSuffixIsDNSSafe(t *testing.T) {
	valid := regexp.MustCompile(`^[a-z0-9]+$`)
	for _, n := range []int{1, 5, 10, 63} {
		s := NameSuffix(n)
		assert.Equal(t, len(s), n)
		assert.Assert(t, valid.MatchString(s), s)
	}
}
