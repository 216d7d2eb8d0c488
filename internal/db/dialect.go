package db

import (
	"strconv"
	"strings"
)

// Dialect abstracts the SQL differences between the supported backends.
type Dialect interface {
	// Name is "sqlite" or "postgres".
	Name() string
	// Rebind rewrites '?' placeholders into the backend's native form.
	Rebind(query string) string
	// ILike returns a predicate matching column case-insensitively against a
	// single pattern argument built with LikePattern.
	ILike(column string) string
	// ForUpdate is appended to SELECTs that must lock the returned rows.
	ForUpdate() string
	// IsUniqueViolation reports whether err is a unique-constraint failure.
	IsUniqueViolation(err error) bool
	// Schema returns the statements creating all tables and indexes.
	Schema() []string
}

// rebindDollar replaces every '?' outside quoted literals with $1, $2, ...
func rebindDollar(query string) string {
	if !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	var quote byte
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '?':
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
