package orm

import (
	"fmt"
	"strings"
)

// checkClause validates a caller-supplied WHERE or ORDER BY fragment written
// for dialect d. Values must be passed as ? placeholders; the fragment may
// not end the statement or open a comment.
func checkClause(d Dialect, clause string, nargs int) error {
	if strings.TrimSpace(clause) == "" {
		return &QuerySyntaxError{Clause: clause, Reason: "empty clause"}
	}

	var (
		quote   byte
		depth   int
		params  int
		escapes = d.BackslashEscapes()
	)
	for i := 0; i < len(clause); i++ {
		c := clause[i]
		if quote != 0 {
			switch {
			case c == '\\' && escapes && quote != '`':
				i++
			case c == quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return &QuerySyntaxError{Clause: clause, Reason: "unbalanced parentheses"}
			}
		case '?':
			params++
		case ';':
			return &QuerySyntaxError{Clause: clause, Reason: "statement separator"}
		case '-':
			if i+1 < len(clause) && clause[i+1] == '-' {
				return &QuerySyntaxError{Clause: clause, Reason: "comment"}
			}
		case '/':
			if i+1 < len(clause) && clause[i+1] == '*' {
				return &QuerySyntaxError{Clause: clause, Reason: "comment"}
			}
		}
	}

	switch {
	case quote != 0:
		return &QuerySyntaxError{Clause: clause, Reason: "unterminated quote"}
	case depth != 0:
		return &QuerySyntaxError{Clause: clause, Reason: "unbalanced parentheses"}
	case params != nargs:
		return &QuerySyntaxError{Clause: clause, Reason: fmt.Sprintf("%d placeholders for %d arguments", params, nargs)}
	}
	return nil
}

// rewritePlaceholders converts ? to dialect-specific placeholders ($1, $2, …).
// Question marks inside quoted literals are left alone.
func rewritePlaceholders(d Dialect, query string) string {
	if d.Placeholder(1) == "?" {
		return query
	}
	var b strings.Builder
	b.Grow(len(query))
	var quote byte
	idx := 1
	for i := range len(query) {
		c := query[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			b.WriteByte(c)
		case c == '\'' || c == '"' || c == '`':
			quote = c
			b.WriteByte(c)
		case c == '?':
			b.WriteString(d.Placeholder(idx))
			idx++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
