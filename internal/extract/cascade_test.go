package extract_test

import (
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"despesify/internal/extract"
)

func evenNumber(m []string) (int, bool) {
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, n%2 == 0
}

func TestCascade_RejectedMatchFallsThrough(t *testing.T) {
	c := extract.Cascade[int]{
		{Name: "first", Match: extract.Pattern(regexp.MustCompile(`a(\d+)`)), Accept: evenNumber},
		{Name: "missing", Match: extract.Pattern(regexp.MustCompile(`z(\d+)`)), Accept: evenNumber},
		{Name: "third", Match: extract.Pattern(regexp.MustCompile(`b(\d+)`)), Accept: evenNumber},
	}

	v, rule, ok := c.Run("a7 b4")

	assert.True(t, ok)
	assert.Equal(t, 4, v)
	assert.Equal(t, "third", rule)
}

func TestCascade_FirstAcceptedWins(t *testing.T) {
	c := extract.Cascade[int]{
		{Name: "first", Match: extract.Pattern(regexp.MustCompile(`a(\d+)`)), Accept: evenNumber},
		{Name: "second", Match: extract.Pattern(regexp.MustCompile(`b(\d+)`)), Accept: evenNumber},
	}

	v, rule, ok := c.Run("b2 a8")

	assert.True(t, ok)
	assert.Equal(t, 8, v)
	assert.Equal(t, "first", rule)
}

func TestCascade_NothingAccepted(t *testing.T) {
	c := extract.Cascade[int]{
		{Name: "only", Match: extract.Pattern(regexp.MustCompile(`a(\d+)`)), Accept: evenNumber},
	}

	v, rule, ok := c.Run("a3")

	assert.False(t, ok)
	assert.Zero(t, v)
	assert.Empty(t, rule)
}
