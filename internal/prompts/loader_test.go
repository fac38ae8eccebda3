package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	ClearCache()

	prompt, err := Get("synthesis.json", "first-pass-analysis")
	require.NoError(t, err)
	assert.NotEmpty(t, prompt)
	assert.Contains(t, prompt, "Return ONLY valid JSON")
	assert.Contains(t, prompt, "{{.Course}}")
}

func TestGet_InvalidFile(t *testing.T) {
	ClearCache()

	_, err := Get("nonexistent.json", "some-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	ClearCache()

	_, err := Get("synthesis.json", "nonexistent-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet_Panics(t *testing.T) {
	ClearCache()

	assert.Panics(t, func() {
		MustGet("nonexistent.json", "some-key")
	})
}

func TestMustGet_ValidPrompt(t *testing.T) {
	ClearCache()

	assert.NotPanics(t, func() {
		prompt := MustGet("synthesis.json", "final-synthesis")
		assert.NotEmpty(t, prompt)
	})
}

func TestFormat(t *testing.T) {
	template := "Analyze {{.Course}} using {{.ThreadText}}"
	data := map[string]string{
		"Course":     "CS010",
		"ThreadText": "POST: some thread",
	}

	result := Format(template, data)
	assert.Equal(t, "Analyze CS010 using POST: some thread", result)
}

func TestFormat_NoPlaceholders(t *testing.T) {
	template := "No placeholders here"
	data := map[string]string{"Key": "Value"}

	result := Format(template, data)
	assert.Equal(t, template, result)
}

func TestFormat_EmptyData(t *testing.T) {
	template := "Hello {{.Name}}"
	data := map[string]string{}

	result := Format(template, data)
	assert.Equal(t, template, result) // Placeholder remains
}

func TestList(t *testing.T) {
	ClearCache()

	keys, err := List("synthesis.json")
	require.NoError(t, err)
	assert.Contains(t, keys, "first-pass-analysis")
	assert.Contains(t, keys, "final-synthesis")
	assert.Contains(t, keys, "json-cleanup")
}

func TestCaching(t *testing.T) {
	ClearCache()

	// First call loads from file
	prompt1, err := Get("synthesis.json", "first-pass-analysis")
	require.NoError(t, err)

	// Second call should use cache
	prompt2, err := Get("synthesis.json", "first-pass-analysis")
	require.NoError(t, err)

	assert.Equal(t, prompt1, prompt2)
}
