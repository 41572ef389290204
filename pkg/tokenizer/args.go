package tokenizer

import "strings"

// Args is the ordered list of positional tokens of one message.
type Args []string

// Len returns the number of tokens.
func (a Args) Len() int { return len(a) }

// Get returns the token at i, or false when i is out of range.
func (a Args) Get(i int) (string, bool) {
	if i < 0 || i >= len(a) {
		return "", false
	}
	return a[i], true
}

// At returns the token at i or an empty string.
func (a Args) At(i int) string {
	s, _ := a.Get(i)
	return s
}

// JoinFrom returns every token after position n joined by single spaces.
// JoinFrom(0) skips the first token.
func (a Args) JoinFrom(n int) string {
	if n+1 >= len(a) {
		return ""
	}
	return strings.Join(a[n+1:], " ")
}

// Collapse merges trailing tokens into the last kept slot until at most n
// tokens remain. It is used when a handler expects a bounded arity but the
// tail is free text:
//
//	Args{"rank", "demon", "User", "Name"}.Collapse(3) // ["rank" "demon" "User Name"]
func (a Args) Collapse(n int) Args {
	if n <= 0 || len(a) <= n {
		out := make(Args, len(a))
		copy(out, a)
		return out
	}
	out := make(Args, n)
	copy(out, a[:n-1])
	out[n-1] = strings.Join(a[n-1:], " ")
	return out
}

type flag struct {
	value string
	set   bool
}

// Flags maps a flag name to its optional value.
type Flags map[string]flag

// Has reports whether the flag was given, with or without a value.
func (f Flags) Has(name string) bool {
	_, ok := f[name]
	return ok
}

// Value returns the flag's value. The boolean is false when the flag is
// missing or was given without "=value".
func (f Flags) Value(name string) (string, bool) {
	v, ok := f[name]
	if !ok || !v.set {
		return "", false
	}
	return v.value, true
}

// Set records a flag. Later calls for the same name win.
func (f Flags) Set(name string, value *string) {
	if value == nil {
		f[name] = flag{}
		return
	}
	f[name] = flag{value: *value, set: true}
}
