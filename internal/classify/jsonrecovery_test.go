package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModelContent_DirectObject(t *testing.T) {
	out, err := ParseModelContent(map[string]any{"life_stage": "adult"})
	require.NoError(t, err)
	assert.Equal(t, "adult", out["life_stage"])
}

func TestParseModelContent_DirectJSONString(t *testing.T) {
	out, err := ParseModelContent(`{"life_stage": "larva", "count": 3}`)
	require.NoError(t, err)
	assert.Equal(t, "larva", out["life_stage"])
}

func TestParseModelContent_CodeFencedJSON(t *testing.T) {
	content := "```json\n{\"life_stage\": \"pupa\"}\n```"
	out, err := ParseModelContent(content)
	require.NoError(t, err)
	assert.Equal(t, "pupa", out["life_stage"])
}

func TestParseModelContent_PrefixedAndSuffixedText(t *testing.T) {
	content := `Sure, here's the result: {"life_stage": "adult", "notes": "a {nested} brace"} -- hope that helps!`
	out, err := ParseModelContent(content)
	require.NoError(t, err)
	assert.Equal(t, "adult", out["life_stage"])
	assert.Equal(t, "a {nested} brace", out["notes"])
}

func TestParseModelContent_BraceInsideStringDoesNotConfuseDepth(t *testing.T) {
	content := `Result: {"notes": "unterminated \" quote then } a brace", "life_stage": "adult"}`
	out, err := ParseModelContent(content)
	require.NoError(t, err)
	assert.Equal(t, "adult", out["life_stage"])
}

func TestParseModelContent_NoObjectFound(t *testing.T) {
	_, err := ParseModelContent("no json here at all")
	require.Error(t, err)
}

func TestParseModelContent_UnterminatedObject(t *testing.T) {
	_, err := ParseModelContent(`{"life_stage": "adult"`)
	require.Error(t, err)
}

func TestParseModelContent_UnsupportedType(t *testing.T) {
	_, err := ParseModelContent(42)
	require.Error(t, err)
}
