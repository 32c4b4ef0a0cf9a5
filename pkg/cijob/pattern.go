package cijob

import "strings"

// CombinePattern adds the alternatives of name to the alternation regex old.
// A blank old pattern yields name unchanged. When old is wrapped in a single
// pair of parentheses the new alternatives go inside it, so "(bar)" and "foo"
// give "(bar|foo)". Alternatives already present are not added twice.
func CombinePattern(old, name string) string {
	old = strings.TrimSpace(old)
	name = strings.TrimSpace(name)
	if old == "" {
		return name
	}
	if name == "" {
		return old
	}

	inner, wrapped := unwrap(old)
	alternatives := splitAlternatives(inner)
	seen := make(map[string]bool, len(alternatives))
	for _, a := range alternatives {
		seen[a] = true
	}
	newInner, _ := unwrap(name)
	for _, a := range splitAlternatives(newInner) {
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		alternatives = append(alternatives, a)
	}

	joined := strings.Join(alternatives, "|")
	if wrapped {
		return "(" + joined + ")"
	}
	return joined
}

// CombinePatterns folds every name into old, in order.
func CombinePatterns(old string, names ...string) string {
	for _, n := range names {
		old = CombinePattern(old, n)
	}
	return old
}

// unwrap strips one pair of parentheses when the opening one at index 0 is
// closed by the last character.
func unwrap(p string) (string, bool) {
	if len(p) < 2 || p[0] != '(' || p[len(p)-1] != ')' {
		return p, false
	}
	depth := 0
	for i := 0; i < len(p); i++ {
		switch p[i] {
		case '\\':
			i++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i != len(p)-1 {
				return p, false
			}
		}
	}
	return p[1 : len(p)-1], true
}

// splitAlternatives splits on '|' outside of groups, classes and escapes.
func splitAlternatives(p string) []string {
	var (
		out     []string
		depth   int
		inClass bool
		start   int
	)
	for i := 0; i < len(p); i++ {
		switch c := p[i]; {
		case c == '\\':
			i++
		case inClass:
			if c == ']' {
				inClass = false
			}
		case c == '[':
			inClass = true
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == '|' && depth == 0:
			out = append(out, strings.TrimSpace(p[start:i]))
			start = i + 1
		}
	}
	return append(out, strings.TrimSpace(p[start:]))
}
