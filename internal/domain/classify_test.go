package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_InvalidInputs(t *testing.T) {
	cases := []string{
		"",
		"not a url",
		"ftp://example.com/file",
		"example.com/path?query=1",
		"http://",
		"https:///path-only",
		"//example.com/missing-scheme",
	}

	for _, raw := range cases {
		_, err := Classify(raw)
		assert.Error(t, err, "input %q should be invalid", raw)
	}
}

func TestClassify_YouTubeShapes(t *testing.T) {
	cases := map[string]string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ":   "dQw4w9WgXcQ",
		"https://youtube.com/watch?v=dQw4w9WgXcQ&t=42s": "dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ":                  "dQw4w9WgXcQ",
		"https://www.youtube.com/embed/a1B2c3D4e5F":     "a1B2c3D4e5F",
		"http://www.youtube.com/v/a_b-c_d-e_f":          "a_b-c_d-e_f",
	}

	for raw, wantID := range cases {
		ref, err := Classify(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, KindYouTubeVideo, ref.Kind, raw)
		assert.Equal(t, wantID, ref.VideoID, raw)
		assert.Equal(t, raw, ref.RawURL)
	}
}

func TestClassify_WebPages(t *testing.T) {
	cases := []string{
		"https://example.com/article",
		"http://example.com",
		"https://www.youtube.com/playlist?list=PL123",
		"https://youtu.be/tooshort",
		"https://vimeo.com/watch?v=dQw4w9WgXcQ2",
	}

	for _, raw := range cases {
		ref, err := Classify(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, KindWebPage, ref.Kind, raw)
		assert.Empty(t, ref.VideoID, raw)
	}
}
