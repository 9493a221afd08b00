// Package language holds the compiled-in table of supported languages: the
// runtime version each one is executed with and the starter snippet loaded into
// the editor when it is selected.
package language

import (
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/coderunr/editor/internal/types"
)

// Language is a single table entry
type Language struct {
	ID       string
	Version  string
	Snippet  string
	Disabled bool
}

var table = map[string]Language{
	"cpp": {
		ID:       "cpp",
		Version:  "c++14",
		Snippet:  "#include<bits/stdc++.h>\nusing namespace std;\n\nint main(){\n\n\tstring name=\"Aegon\";\n\n\tcout<<name<<endl;\n\n   return 0;\n }",
		Disabled: true,
	},
	"javascript": {
		ID:      "javascript",
		Version: "18.15.0",
		Snippet: "\nfunction greet(name) {\n\tconsole.log(\"Hello, \" + name + \"!\");\n}\n\ngreet(\"Aegon\");\n",
	},
	"typescript": {
		ID:      "typescript",
		Version: "5.0.3",
		Snippet: "\ntype Params = {\n\tname: string;\n}\n\nfunction greet(data: Params) {\n\tconsole.log(\"Hello, \" + data.name + \"!\");\n}\n\ngreet({ name: \"Aegon\" });\n",
	},
	"python": {
		ID:      "python",
		Version: "3.10.0",
		Snippet: "\ndef greet(name):\n\tprint(\"Hello, \" + name + \"!\")\n\ngreet(\"Aegon\")\n",
	},
	"java": {
		ID:      "java",
		Version: "15.0.2",
		Snippet: "\npublic class HelloWorld {\n\tpublic static void main(String[] args) {\n\t\tSystem.out.println(\"Hello World\");\n\t}\n}\n",
	},
	"csharp": {
		ID:      "csharp",
		Version: "6.12.0",
		Snippet: "using System;\n\nnamespace HelloWorld\n{\n\tclass Hello { \n\t\tstatic void Main(string[] args) {\n\t\t\tConsole.WriteLine(\"Hello World in C#\");\n\t\t}\n\t}\n}\n",
	},
	"php": {
		ID:      "php",
		Version: "8.2.3",
		Snippet: "<?php\n\n$name = 'Aegon';\necho $name;\n",
	},
}

// Lookup returns the enabled entry for id
func Lookup(id string) (Language, bool) {
	lang, ok := table[id]
	if !ok || lang.Disabled {
		return Language{}, false
	}
	return lang, true
}

// Version returns the fixed runtime version for id
func Version(id string) (string, bool) {
	lang, ok := Lookup(id)
	return lang.Version, ok
}

// Snippet returns the starter snippet for id
func Snippet(id string) (string, bool) {
	lang, ok := Lookup(id)
	return lang.Snippet, ok
}

// All returns every enabled language sorted by id
func All() []Language {
	out := make([]Language, 0, len(table))
	for _, lang := range table {
		if lang.Disabled {
			continue
		}
		out = append(out, lang)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// Info converts the entry for API responses
func (l Language) Info(withSnippet bool) types.LanguageInfo {
	info := types.LanguageInfo{
		ID:      l.ID,
		Version: l.Version,
	}
	if withSnippet {
		info.Snippet = l.Snippet
	}
	return info
}

// Validate checks that every enabled version is a valid semantic version
func Validate() error {
	for _, lang := range All() {
		if _, err := semver.NewVersion(lang.Version); err != nil {
			return fmt.Errorf("language %s: invalid version %q: %w", lang.ID, lang.Version, err)
		}
	}
	return nil
}

// CheckRuntimes returns the enabled languages whose pinned version is not
// advertised by the execution service. Aliases count as a language match.
func CheckRuntimes(runtimes []types.Runtime) []Language {
	var missing []Language

	for _, lang := range All() {
		want, err := semver.NewVersion(lang.Version)
		if err != nil {
			missing = append(missing, lang)
			continue
		}

		found := false
		for _, rt := range runtimes {
			if !matchesLanguage(rt, lang.ID) {
				continue
			}
			have, err := semver.NewVersion(rt.Version)
			if err != nil {
				continue
			}
			if have.Equal(want) {
				found = true
				break
			}
		}

		if !found {
			missing = append(missing, lang)
		}
	}

	return missing
}

func matchesLanguage(rt types.Runtime, id string) bool {
	if rt.Language == id {
		return true
	}
	for _, alias := range rt.Aliases {
		if alias == id {
			return true
		}
	}
	return false
}
