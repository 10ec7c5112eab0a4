package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// unique_violation
const errUniqueViolation pq.ErrorCode = "23505"

func isDuplicate(err error) bool {
	var pe *pq.Error
	return errors.As(err, &pe) && pe.Code == errUniqueViolation
}

func nullIfEmpty(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// escapeLikePattern escapes special characters in LIKE patterns
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}

// placeholders keeps track of $n positions while a query is built
type placeholders struct {
	next int
	args []any
}

func (p *placeholders) add(v any) string {
	p.args = append(p.args, v)
	p.next++
	return fmt.Sprintf("$%d", p.next)
}
