package conductor

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Command is a parsed agent submission: an API name and its arguments.
type Command struct {
	API  string
	Args []any
}

// ParseWrapped parses a wrapped command string of the form `name(args)`.
// Agents often ship the call inside markdown fences or backticks, so
// those are stripped first. Arguments are decoded as JSON values; an
// argument that is not valid JSON is kept as a raw string with
// surrounding quotes removed.
func ParseWrapped(s string) (Command, error) {
	s = stripFences(strings.TrimSpace(s))

	open := strings.Index(s, "(")
	end := strings.LastIndex(s, ")")
	if open <= 0 || end < open {
		return Command{}, fmt.Errorf("not a wrapped command: %q", s)
	}

	name := strings.TrimSpace(s[:open])
	for _, r := range name {
		if !isIdentRune(r) {
			return Command{}, fmt.Errorf("invalid API name: %q", name)
		}
	}

	inner := strings.TrimSpace(s[open+1 : end])
	if inner == "" {
		return Command{API: name}, nil
	}

	var args []any
	if err := json.Unmarshal([]byte("["+inner+"]"), &args); err != nil {
		// Unquoted or single-quoted argument: take it as one raw string.
		args = []any{strings.Trim(inner, `'"`)}
	}
	return Command{API: name, Args: args}, nil
}

func stripFences(s string) string {
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if i := strings.Index(s, "\n"); i >= 0 && !strings.Contains(s[:i], "(") {
			s = s[i+1:] // drop a language tag line
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.Trim(strings.TrimSpace(s), "`")
}

func isIdentRune(r rune) bool {
	return r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}
