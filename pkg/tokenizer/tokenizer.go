// Package tokenizer splits raw chat input into positional arguments and
// named flags.
//
// Whitespace separates tokens except inside double quotes. A backslash
// escapes the character that follows it (a quote, a space, another
// backslash) and is itself dropped. Tokens that start with the flag prefix
// and are longer than it become flags:
//
//	--name        flag "name" without a value
//	--name=value  flag "name" with value "value" (split on the first '=')
//
// Everything else is kept as a positional argument, in order.
package tokenizer

import (
	"strings"
	"unicode"
)

// DefaultFlagPrefix is used when Tokenize is given an empty prefix.
const DefaultFlagPrefix = "--"

// Result is the output of a single tokenization pass.
type Result struct {
	Args  Args
	Flags Flags
}

// Tokenize splits text into positional arguments and flags.
func Tokenize(text, flagPrefix string) Result {
	if flagPrefix == "" {
		flagPrefix = DefaultFlagPrefix
	}

	res := Result{Args: Args{}, Flags: Flags{}}
	for _, tok := range Split(text) {
		if len(tok) > len(flagPrefix) && strings.HasPrefix(tok, flagPrefix) {
			body := tok[len(flagPrefix):]
			name, value, hasValue := strings.Cut(body, "=")
			if hasValue {
				res.Flags[name] = flag{value: value, set: true}
			} else {
				res.Flags[name] = flag{}
			}
			continue
		}
		res.Args = append(res.Args, tok)
	}
	return res
}

// Split breaks text into raw tokens without classifying flags.
func Split(text string) []string {
	var (
		tokens  []string
		cur     strings.Builder
		started bool
		quoted  bool
		escaped bool
	)

	flush := func() {
		if started {
			tokens = append(tokens, cur.String())
		}
		cur.Reset()
		started = false
	}

	for _, r := range text {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
			started = true
		case r == '"':
			quoted = !quoted
			started = true
		case unicode.IsSpace(r) && !quoted:
			flush()
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if escaped {
		// lone trailing backslash is kept as-is
		cur.WriteRune('\\')
	}
	flush()
	return tokens
}

// Join is the inverse of Split: it quotes and escapes tokens so that
// Split(Join(tokens)) returns the same tokens.
func Join(tokens []string) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = quote(tok)
	}
	return strings.Join(parts, " ")
}

func quote(tok string) string {
	if tok == "" {
		return `""`
	}
	needsQuotes := strings.IndexFunc(tok, unicode.IsSpace) >= 0
	var b strings.Builder
	if needsQuotes {
		b.WriteByte('"')
	}
	for _, r := range tok {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	if needsQuotes {
		b.WriteByte('"')
	}
	return b.String()
}
