package config

import (
	"fmt"
	"strings"
	"unicode"
)

// argvLexer splits a shell-like command string into its argument vector.
// Single and double quotes group words; backslash escapes the next rune.
type argvLexer struct {
	word  strings.Builder
	out   []string
	open  bool
	quote rune
}

// parseArgv tokenizes the clipboard command from config. Empty input and
// comment lines yield a nil argv, which disables the export.
func parseArgv(input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" || strings.HasPrefix(input, "#") {
		return nil, nil
	}

	var lex argvLexer
	escaped := false

	for _, r := range input {
		switch {
		case escaped:
			lex.push(r)
			escaped = false
		case r == '\\':
			escaped = true
		case lex.quote != 0:
			if r == lex.quote {
				lex.quote = 0
			} else {
				lex.push(r)
			}
		case r == '\'' || r == '"':
			lex.quote = r
			lex.open = true
		case unicode.IsSpace(r):
			lex.endWord()
		default:
			lex.push(r)
		}
	}

	if escaped {
		return nil, fmt.Errorf("unterminated escape sequence in command: %q", input)
	}
	if lex.quote != 0 {
		return nil, fmt.Errorf("unterminated quote in command: %q", input)
	}

	lex.endWord()
	return lex.out, nil
}

func (l *argvLexer) push(r rune) {
	l.word.WriteRune(r)
	l.open = true
}

func (l *argvLexer) endWord() {
	if !l.open {
		return
	}
	l.out = append(l.out, l.word.String())
	l.word.Reset()
	l.open = false
}

func mustParseArgv(input string) []string {
	argv, err := parseArgv(input)
	if err != nil {
		panic(err)
	}
	return argv
}
