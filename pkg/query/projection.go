package query

import (
	"fmt"
	"strings"
)

// SortField names a projected field and its direction.
type SortField struct {
	Field      string
	Descending bool
}

// ProjectionMap maps Go field names onto the qualified columns of a single table.
type ProjectionMap struct {
	schema  string
	table   string
	alias   string
	columns []string
	fields  map[string]string
}

// NewProjectionMap creates a projection for schema.table aliased as alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		schema: schema,
		table:  table,
		alias:  alias,
		fields: make(map[string]string),
	}
}

// Project registers column under the field name.
func (p *ProjectionMap) Project(column, field string) *ProjectionMap {
	qualified := fmt.Sprintf("%s.%s", p.alias, column)
	p.columns = append(p.columns, qualified)
	p.fields[field] = qualified
	return p
}

// Table returns the aliased table reference for FROM clauses.
func (p *ProjectionMap) Table() string {
	return fmt.Sprintf("%s.%s %s", p.schema, p.table, p.alias)
}

// Columns returns the projected columns in registration order.
func (p *ProjectionMap) Columns() string {
	return strings.Join(p.columns, ", ")
}

// Column resolves a field name to its qualified column. Unknown fields
// resolve to themselves so raw columns can still be referenced.
func (p *ProjectionMap) Column(field string) string {
	if col, ok := p.fields[field]; ok {
		return col
	}
	return field
}
