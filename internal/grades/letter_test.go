package grades

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLetter(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{100, "A"},
		{90, "A"},
		{89.9, "B"},
		{80, "B"},
		{79.5, "C"},
		{70, "C"},
		{69, "D"},
		{60, "D"},
		{59.99, "F"},
		{0, "F"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Letter(tc.score), "score %.2f", tc.score)
	}
}
