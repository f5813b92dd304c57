package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// RecordStore is the set of generic primitives the resolver and handlers
// assume exist for every table named in the registry. Table and column
// names always come from the registry, never from request input, so they
// are interpolated; values are always parameterized.
type RecordStore interface {
	GetByID(ctx context.Context, table, id string) (map[string]any, error)
	// List returns rows matching every filter pair (nil filter selects all),
	// ordered by the given columns ascending.
	List(ctx context.Context, table string, filter map[string]any, orderBy ...string) ([]map[string]any, error)
	// ListByIDs fetches all rows whose id is in ids with a single round trip.
	ListByIDs(ctx context.Context, table string, ids []string) ([]map[string]any, error)
	// Search returns rows where any of the given columns matches the query
	// case-insensitively as a substring.
	Search(ctx context.Context, table string, fields []string, query string) ([]map[string]any, error)
	Insert(ctx context.Context, table string, values map[string]any) (map[string]any, error)
	UpdateByID(ctx context.Context, table, id string, values map[string]any) (map[string]any, error)
	DeleteByID(ctx context.Context, table, id string) error
}

type sqlRecords struct {
	q Querier
}

// NewRecordStore wraps a Querier (pool or transaction) with the generic
// record primitives.
func NewRecordStore(q Querier) RecordStore {
	return &sqlRecords{q: q}
}

func (r *sqlRecords) GetByID(ctx context.Context, table, id string) (map[string]any, error) {
	row, err := QueryRow(ctx, r.q, fmt.Sprintf("SELECT * FROM %s WHERE id = $1", table), id)
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (r *sqlRecords) List(ctx context.Context, table string, filter map[string]any, orderBy ...string) ([]map[string]any, error) {
	sql := fmt.Sprintf("SELECT * FROM %s", table)
	var args []any
	if len(filter) > 0 {
		var where []string
		for _, field := range sortedKeys(filter) {
			args = append(args, filter[field])
			where = append(where, fmt.Sprintf("%s = $%d", field, len(args)))
		}
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	if len(orderBy) > 0 {
		sql += " ORDER BY " + strings.Join(orderBy, ", ")
	}
	return QueryRows(ctx, r.q, sql, args...)
}

func (r *sqlRecords) ListByIDs(ctx context.Context, table string, ids []string) ([]map[string]any, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	sql := fmt.Sprintf("SELECT * FROM %s WHERE id = ANY($1)", table)
	return QueryRows(ctx, r.q, sql, ids)
}

func (r *sqlRecords) Search(ctx context.Context, table string, fields []string, query string) ([]map[string]any, error) {
	if len(fields) == 0 || query == "" {
		return nil, nil
	}
	conds := make([]string, len(fields))
	for i, f := range fields {
		conds[i] = fmt.Sprintf("%s::text ILIKE $1", f)
	}
	sql := fmt.Sprintf("SELECT * FROM %s WHERE %s ORDER BY %s",
		table, strings.Join(conds, " OR "), fields[0])
	return QueryRows(ctx, r.q, sql, "%"+escapeLike(query)+"%")
}

func (r *sqlRecords) Insert(ctx context.Context, table string, values map[string]any) (map[string]any, error) {
	row := make(map[string]any, len(values)+1)
	for k, v := range values {
		row[k] = v
	}
	if _, ok := row["id"]; !ok {
		row["id"] = uuid.New().String()
	}

	cols := sortedKeys(row)
	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = row[c]
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	inserted, err := QueryRow(ctx, r.q, sql, args...)
	if err != nil {
		return nil, MapError(err)
	}
	return inserted, nil
}

func (r *sqlRecords) UpdateByID(ctx context.Context, table, id string, values map[string]any) (map[string]any, error) {
	if len(values) == 0 {
		return r.GetByID(ctx, table, id)
	}

	cols := sortedKeys(values)
	sets := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+1)
	for _, c := range cols {
		args = append(args, values[c])
		sets = append(sets, fmt.Sprintf("%s = $%d", c, len(args)))
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING *",
		table, strings.Join(sets, ", "), len(args))
	updated, err := QueryRow(ctx, r.q, sql, args...)
	if err != nil {
		return nil, MapError(err)
	}
	return updated, nil
}

func (r *sqlRecords) DeleteByID(ctx context.Context, table, id string) error {
	affected, err := Exec(ctx, r.q, fmt.Sprintf("DELETE FROM %s WHERE id = $1", table), id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
