package language

import (
	"testing"

	"github.com/coderunr/editor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		id      string
		version string
		ok      bool
	}{
		{"javascript", "18.15.0", true},
		{"typescript", "5.0.3", true},
		{"python", "3.10.0", true},
		{"java", "15.0.2", true},
		{"csharp", "6.12.0", true},
		{"php", "8.2.3", true},
		{"cpp", "", false},
		{"brainfuck", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			version, ok := Version(tt.id)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.version, version)
		})
	}
}

func TestAllSkipsDisabled(t *testing.T) {
	all := All()
	require.Len(t, all, 6)

	ids := make([]string, len(all))
	for i, lang := range all {
		ids[i] = lang.ID
	}
	assert.Equal(t, []string{"csharp", "java", "javascript", "php", "python", "typescript"}, ids)
}

func TestSnippet(t *testing.T) {
	snippet, ok := Snippet("python")
	require.True(t, ok)
	assert.Contains(t, snippet, "def greet(name):")

	_, ok = Snippet("cpp")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate())
}

func TestCheckRuntimes(t *testing.T) {
	runtimes := []types.Runtime{
		{Language: "javascript", Version: "18.15.0", Aliases: []string{"node-javascript", "js"}},
		{Language: "typescript", Version: "5.0.3"},
		{Language: "python", Version: "3.10.0", Aliases: []string{"py"}},
		{Language: "python", Version: "3.12.0"},
		{Language: "java", Version: "15.0.2"},
		{Language: "mono", Version: "6.12.0", Aliases: []string{"csharp", "cs"}},
		{Language: "php", Version: "8.2.3"},
	}

	assert.Empty(t, CheckRuntimes(runtimes))

	missing := CheckRuntimes(runtimes[2:])
	require.Len(t, missing, 2)
	assert.Equal(t, "javascript", missing[0].ID)
	assert.Equal(t, "typescript", missing[1].ID)
}

func TestInfo(t *testing.T) {
	lang, ok := Lookup("php")
	require.True(t, ok)

	assert.Empty(t, lang.Info(false).Snippet)
	assert.Equal(t, types.LanguageInfo{ID: "php", Version: "8.2.3", Snippet: lang.Snippet}, lang.Info(true))
}
