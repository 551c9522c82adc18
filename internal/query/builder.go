package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Kind tells the builder how to compare a column.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindTime
	KindArray
)

// Field maps an API-facing name onto a SQL column.
type Field struct {
	Column string
	Kind   Kind
}

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Reserved query keys consumed by the pipeline itself rather than treated as
// filters.
var reserved = map[string]bool{
	"sort":   true,
	"fields": true,
	"q":      true,
	"limit":  true,
	"page":   true,
}

var suffixOps = []string{"_gte", "_lte", "_gt", "_lt", "_in"}

// Builder assembles the SELECT list, WHERE clause, ordering and paging for a
// listing query. Every column it will emit comes from the allow-list handed
// to New, so raw request input never reaches the SQL text; values travel as
// positional args. Malformed or unknown input is skipped, not rejected.
type Builder struct {
	fields      map[string]Field
	defaultCols []string
	defaultSort string
	searchExpr  string

	conds   []string
	args    []any
	cols    []string
	orderBy string
	page    int
	limit   int
}

// New builds a pipeline over the given allow-list. defaultCols is the SELECT
// list used when the request names no fields, defaultSort an ORDER BY
// fragment, and searchExpr a tsvector expression matched against the q
// parameter.
func New(fields map[string]Field, defaultCols []string, defaultSort, searchExpr string) *Builder {
	return &Builder{
		fields:      fields,
		defaultCols: defaultCols,
		defaultSort: defaultSort,
		searchExpr:  searchExpr,
		page:        DefaultPage,
		limit:       DefaultLimit,
	}
}

// Apply runs the full pipeline over the request's query string.
func (b *Builder) Apply(values url.Values) *Builder {
	b.Filter(values)
	b.Search(values.Get("q"))
	b.Sort(values.Get("sort"))
	b.Select(values.Get("fields"))
	b.Paginate(values.Get("page"), values.Get("limit"))
	return b
}

// Where adds a fixed condition outside the request-driven pipeline, e.g. an
// ownership restriction. The condition must write its placeholder as $%d.
func (b *Builder) Where(condTmpl string, arg any) *Builder {
	b.args = append(b.args, arg)
	b.conds = append(b.conds, fmt.Sprintf(condTmpl, len(b.args)))
	return b
}

// Filter turns the non-reserved query parameters into WHERE conditions.
// Operators ride on the key, either as a suffix (salary_gt=50000) or in
// bracket form (salary[gt]=50000); a bare key means equality.
func (b *Builder) Filter(values url.Values) *Builder {
	for key, vals := range values {
		if reserved[key] || len(vals) == 0 || vals[0] == "" {
			continue
		}

		name, op := splitOp(key)
		f, ok := b.fields[name]
		if !ok {
			continue
		}

		b.addCond(f, op, vals[0])
	}
	return b
}

func splitOp(key string) (name, op string) {
	if i := strings.IndexByte(key, '['); i > 0 && strings.HasSuffix(key, "]") {
		return key[:i], key[i+1 : len(key)-1]
	}
	for _, s := range suffixOps {
		if strings.HasSuffix(key, s) {
			return strings.TrimSuffix(key, s), s[1:]
		}
	}
	return key, "eq"
}

func (b *Builder) addCond(f Field, op, raw string) {
	cmp, isCmp := map[string]string{"gt": ">", "gte": ">=", "lt": "<", "lte": "<="}[op]

	switch {
	case op == "eq":
		if f.Kind == KindArray {
			b.Where("$%d = ANY("+f.Column+")", raw)
			return
		}
		if v, ok := coerce(f.Kind, raw); ok {
			b.Where(f.Column+" = $%d", v)
		}

	case isCmp:
		if f.Kind == KindArray {
			return
		}
		if v, ok := coerce(f.Kind, raw); ok {
			b.Where(f.Column+" "+cmp+" $%d", v)
		}

	case op == "in":
		parts := strings.Split(raw, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if f.Kind == KindArray {
			b.Where(f.Column+" && $%d", parts)
			return
		}
		if list, ok := coerceList(f.Kind, parts); ok {
			b.Where(f.Column+" = ANY($%d)", list)
		}
	}
}

// coerce types a raw value for the column's kind. A value that does not
// parse reports false and the condition is dropped, so garbage never reaches
// the database as a comparison arg.
func coerce(kind Kind, raw string) (any, bool) {
	switch kind {
	case KindNumber:
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n, true
		}
		if fl, err := strconv.ParseFloat(raw, 64); err == nil {
			return fl, true
		}
		return nil, false
	case KindTime:
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, true
			}
		}
		return nil, false
	default:
		return raw, true
	}
}

// coerceList types an in-list element-wise, dropping members that do not
// parse. An empty result drops the whole condition.
func coerceList(kind Kind, parts []string) (any, bool) {
	switch kind {
	case KindNumber:
		nums := make([]float64, 0, len(parts))
		for _, p := range parts {
			if fl, err := strconv.ParseFloat(p, 64); err == nil {
				nums = append(nums, fl)
			}
		}
		return nums, len(nums) > 0
	case KindTime:
		times := make([]time.Time, 0, len(parts))
		for _, p := range parts {
			if v, ok := coerce(KindTime, p); ok {
				times = append(times, v.(time.Time))
			}
		}
		return times, len(times) > 0
	default:
		return parts, true
	}
}

// Search adds a full-text phrase condition. Hyphens in q stand in for spaces
// so multi-word phrases survive URL routing.
func (b *Builder) Search(q string) *Builder {
	if q == "" || b.searchExpr == "" {
		return b
	}
	phrase := strings.ReplaceAll(q, "-", " ")
	b.Where(b.searchExpr+" @@ phraseto_tsquery('english', $%d)", phrase)
	return b
}

// Sort parses a comma-separated field list, a leading '-' meaning
// descending. Unknown fields are dropped; an empty result falls back to the
// default ordering.
func (b *Builder) Sort(param string) *Builder {
	var parts []string
	for _, tok := range strings.Split(param, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		dir := "ASC"
		if strings.HasPrefix(tok, "-") {
			tok, dir = tok[1:], "DESC"
		}
		f, ok := b.fields[tok]
		if !ok {
			continue
		}
		parts = append(parts, f.Column+" "+dir)
	}

	if len(parts) == 0 {
		b.orderBy = b.defaultSort
	} else {
		b.orderBy = strings.Join(parts, ", ")
	}
	return b
}

// Select narrows the projection to the requested fields, intersected with
// the allow-list. Columns outside the allow-list can never be projected.
func (b *Builder) Select(param string) *Builder {
	for _, tok := range strings.Split(param, ",") {
		tok = strings.TrimSpace(tok)
		f, ok := b.fields[tok]
		if !ok {
			continue
		}
		b.cols = append(b.cols, f.Column)
	}
	if len(b.cols) == 0 {
		b.cols = b.defaultCols
	}
	return b
}

func (b *Builder) Paginate(pageParam, limitParam string) *Builder {
	if n, err := strconv.Atoi(pageParam); err == nil && n > 0 {
		b.page = n
	}
	if n, err := strconv.Atoi(limitParam); err == nil && n > 0 {
		b.limit = n
	}
	if b.limit > MaxLimit {
		b.limit = MaxLimit
	}
	return b
}

// Columns returns the final SELECT list.
func (b *Builder) Columns() string {
	if len(b.cols) == 0 {
		return strings.Join(b.defaultCols, ", ")
	}
	return strings.Join(b.cols, ", ")
}

// WhereClause returns the assembled WHERE clause (empty when unfiltered) and
// its positional args.
func (b *Builder) WhereClause() (string, []any) {
	if len(b.conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(b.conds, " AND "), b.args
}

func (b *Builder) OrderBy() string { return b.orderBy }
func (b *Builder) Page() int       { return b.page }
func (b *Builder) Limit() int      { return b.limit }
func (b *Builder) Offset() int     { return (b.page - 1) * b.limit }
