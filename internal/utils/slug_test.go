package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Web Development", "web-development"},
		{"  Mobile Apps  ", "mobile-apps"},
		{"UI/UX Design", "ui-ux-design"},
		{"C++ & Go", "c-go"},
		{"already-a-slug", "already-a-slug"},
		{"Data   Science!!!", "data-science"},
		{"---", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), "Slugify(%q)", tt.in)
	}
}
