package frontend

import (
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	ts "github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Dialect is a canonical source-language name derived from a file path.
type Dialect string

const (
	DialectGo         Dialect = "go"
	DialectTypeScript Dialect = "typescript"
	DialectJavaScript Dialect = "javascript"
	DialectPython     Dialect = "python"
	DialectRust       Dialect = "rust"
)

// extToDialect maps file extensions to dialects.
var extToDialect = map[string]Dialect{
	".go":  DialectGo,
	".ts":  DialectTypeScript,
	".tsx": DialectTypeScript,
	".js":  DialectJavaScript,
	".jsx": DialectJavaScript,
	".mjs": DialectJavaScript,
	".py":  DialectPython,
	".rs":  DialectRust,
}

// grammars maps dialects to tree-sitter Language objects.
// Lazily initialized on first call via sync.Once.
var (
	grammars     map[Dialect]*sitter.Language
	grammarsOnce sync.Once
)

func initGrammars() {
	grammarsOnce.Do(func() {
		grammars = map[Dialect]*sitter.Language{
			DialectGo:         golang.GetLanguage(),
			DialectTypeScript: ts.GetLanguage(),
			DialectJavaScript: javascript.GetLanguage(),
			DialectPython:     python.GetLanguage(),
			DialectRust:       rust.GetLanguage(),
		}
	})
}

// DialectForFile returns the dialect for a file path based on its extension.
// Returns ("", false) if the extension is not recognized.
func DialectForFile(path string) (Dialect, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	d, ok := extToDialect[ext]
	return d, ok
}

// grammarFor returns the tree-sitter Language for a dialect.
func grammarFor(d Dialect) (*sitter.Language, bool) {
	initGrammars()
	l, ok := grammars[d]
	return l, ok
}
