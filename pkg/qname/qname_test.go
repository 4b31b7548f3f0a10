package qname

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"prefixed property", "cm:content", "cm%3Acontent"},
		{"nested property", "cm:content.mimetype", "cm%3Acontent%2Emimetype"},
		{"hyphenated property", "sys:store-identifier", "sys%3Astore%2Didentifier"},
		{"plain field", "ALIVE", "ALIVE"},
		{"space", "a b", "a%20b"},
		{"plus", "a+b", "a%2Bb"},
		{"asterisk", "a*b", "a%2Ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Encode(tt.input))
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, input := range []string{
		"cm:content.mimetype",
		"sys:store-identifier",
		"cm:name",
		"exif:pixelXDimension",
	} {
		decoded, err := Decode(Encode(input))
		require.NoError(t, err)
		assert.Equal(t, input, decoded)
	}
}

func TestExtractUUID(t *testing.T) {
	uuid, err := ExtractUUID("workspace://SpacesStore/8c3f2a10-0f8a-4b2f-9e47-77d1f9c6a111")
	require.NoError(t, err)
	assert.Equal(t, "8c3f2a10-0f8a-4b2f-9e47-77d1f9c6a111", uuid)

	uuid, err = ExtractUUID("archive://SpacesStore/deadbeef")
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", uuid)
}

func TestExtractUUIDInvalid(t *testing.T) {
	_, err := ExtractUUID("not-a-node-ref")
	assert.Error(t, err)
}

func TestSplitQName(t *testing.T) {
	uri, local, ok := SplitQName("{http://www.alfresco.org/model/content/1.0}name")
	require.True(t, ok)
	assert.Equal(t, "{http://www.alfresco.org/model/content/1.0}", uri)
	assert.Equal(t, "name", local)

	_, _, ok = SplitQName("cm:name")
	assert.False(t, ok)

	_, _, ok = SplitQName("{unclosed")
	assert.False(t, ok)
}
