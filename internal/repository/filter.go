package repository

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/user/halrest/internal/models"
)

// dialect captures what differs between the SQL backends.
type dialect struct {
	placeholder func(n int) string
	like        string
	id          func(uuid.UUID) any
}

var (
	postgresDialect = dialect{
		placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
		like:        "ILIKE",
		id:          func(id uuid.UUID) any { return id },
	}
	sqliteDialect = dialect{
		placeholder: func(int) string { return "?" },
		like:        "LIKE",
		id:          func(id uuid.UUID) any { return id.String() },
	}
)

// contactWhere builds the WHERE clause for a filter. prefix qualifies
// column names (e.g. "c.").
func (d dialect) contactWhere(f models.ContactFilter, prefix string) (string, []any) {
	var (
		clauses []string
		args    []any
	)

	if q := strings.TrimSpace(f.Query); q != "" {
		pattern := "%" + escapeLike(q) + "%"
		args = append(args, pattern)
		name := d.placeholder(len(args))
		args = append(args, pattern)
		email := d.placeholder(len(args))
		clauses = append(clauses, fmt.Sprintf(`(%sname %s %s ESCAPE '\' OR %semail %s %s ESCAPE '\')`,
			prefix, d.like, name, prefix, d.like, email))
	}
	if f.OrganizationID != nil {
		args = append(args, d.id(*f.OrganizationID))
		clauses = append(clauses, fmt.Sprintf("%sorganization_id = %s", prefix, d.placeholder(len(args))))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
