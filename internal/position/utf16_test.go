package position_test

import (
	"testing"

	"bennypowers.dev/tplcache/internal/position"
	"github.com/stretchr/testify/assert"
)

func TestUTF16Column(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		offset int
		want   int
	}{
		{name: "start of source", src: "tag`x`", offset: 0, want: 0},
		{name: "ASCII", src: "a = tag`x`", offset: 4, want: 4},
		{name: "resets after newline", src: "x;\n  tag`x`", offset: 5, want: 2},
		{name: "BMP characters count once", src: "颜色 = tag`x`", offset: 9, want: 5},
		{name: "astral characters count twice", src: "/*👍*/tag`x`", offset: 8, want: 6},
		{name: "offset past end is clamped", src: "ab", offset: 10, want: 2},
		{name: "invalid UTF-8 counts one per byte", src: "\xff\xfe tag``", offset: 3, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, position.UTF16Column(tt.src, tt.offset))
		})
	}
}
