package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "no fences",
			in:   `{"explanation": "quiet grid"}`,
			want: `{"explanation": "quiet grid"}`,
		},
		{
			name: "json fence",
			in:   "```json\n{\"explanation\": \"solar ramp\"}\n```",
			want: `{"explanation": "solar ramp"}`,
		},
		{
			name: "bare fence",
			in:   "```\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "surrounding whitespace",
			in:   "  \n```json\n{}\n```\n  ",
			want: `{}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.in))
		})
	}
}
