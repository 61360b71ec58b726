package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Descriptor
	}{
		{
			name:  "exact tag",
			input: "1.1",
			want:  Descriptor{Tag: "1.1"},
		},
		{
			name:  "exact tag with qualifier",
			input: "1.1rc2",
			want:  Descriptor{Tag: "1.1rc2"},
		},
		{
			name:  "tag with distance and hash",
			input: "1.1-3-g1234abc",
			want:  Descriptor{Tag: "1.1", Distance: 3},
		},
		{
			name:  "exact tag dirty",
			input: "1.1-dirty",
			want:  Descriptor{Tag: "1.1", Dirty: true},
		},
		{
			name:  "distance and dirty",
			input: "1.1-3-g1234abc-dirty",
			want:  Descriptor{Tag: "1.1", Distance: 3, Dirty: true},
		},
		{
			name:  "multi-component tag",
			input: "2.0.13-12-gdeadbee",
			want:  Descriptor{Tag: "2.0.13", Distance: 12},
		},
		{
			name:  "alpha qualifier",
			input: "3.0a1-1-gabc1234",
			want:  Descriptor{Tag: "3.0a1", Distance: 1},
		},
		{
			name:  "surrounding whitespace",
			input: "  1.2-5-gfeedf00d \n",
			want:  Descriptor{Tag: "1.2", Distance: 5},
		},
		{
			name:  "single component",
			input: "7",
			want:  Descriptor{Tag: "7"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_UnparsableTag(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "v prefix", input: "v1.1"},
		{name: "v prefix with distance", input: "v1.1-3-g1234abc"},
		{name: "unsupported qualifier", input: "1.1.0-beta"},
		{name: "qualifier without number", input: "1.1rc"},
		{name: "empty", input: ""},
		{name: "just dirty", input: "-dirty"},
		{name: "non-numeric", input: "release"},
		{name: "non-hex hash keeps suffix in tag", input: "1.1-3-gZZZZ"},
		{name: "trailing dot", input: "1."},
		{name: "interior newline", input: "1.1\n1.2"},
		{name: "interior newline with dirty", input: "1.1\n-dirty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnparsableTag)
		})
	}
}

func TestParse_HashIsDiscarded(t *testing.T) {
	a, err := Parse("1.1-3-g1234abc")
	require.NoError(t, err)
	b, err := Parse("1.1-3-gcafebabe")
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestParse_ZeroDistanceLongForm(t *testing.T) {
	// Some describe variants emit the distance even on an exact tag.
	got, err := Parse("1.1-0-g1234abc")
	require.NoError(t, err)
	assert.Equal(t, Descriptor{Tag: "1.1", Distance: 0}, got)
}
