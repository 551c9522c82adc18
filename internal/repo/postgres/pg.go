package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jobscout/jobscout/internal/query"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// collectMaps drains a result set into generic maps keyed by API field
// names, so a fields= projection shapes the rows without a fixed struct.
func collectMaps(rows pgx.Rows, fields map[string]query.Field) ([]map[string]any, error) {
	apiName := make(map[string]string, len(fields))
	for name, f := range fields {
		apiName[f.Column] = name
	}

	descs := rows.FieldDescriptions()
	out := make([]map[string]any, 0)

	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}

		m := make(map[string]any, len(vals))
		for i, d := range descs {
			name := d.Name
			if api, ok := apiName[name]; ok {
				name = api
			}
			m[name] = vals[i]
		}
		out = append(out, m)
	}

	return out, rows.Err()
}
