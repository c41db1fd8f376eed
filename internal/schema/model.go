package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kyleking/asksql/internal/errors"
)

// ColumnType is the normalized type of a column. Dialect-specific types are
// mapped onto this small set so the translator and validator never have to
// reason about raw database types.
type ColumnType string

const (
	TypeInteger   ColumnType = "integer"
	TypeDecimal   ColumnType = "decimal"
	TypeText      ColumnType = "text"
	TypeBoolean   ColumnType = "boolean"
	TypeTimestamp ColumnType = "timestamp"
	TypeDate      ColumnType = "date"
	TypeUnknown   ColumnType = "unknown"
)

// IsNumeric reports whether the type supports numeric comparison operators.
func (t ColumnType) IsNumeric() bool {
	return t == TypeInteger || t == TypeDecimal
}

// Column describes a single column of a table.
type Column struct {
	Name       string     `json:"name"`
	Type       ColumnType `json:"type"`
	RawType    string     `json:"raw_type,omitempty"`
	Nullable   bool       `json:"nullable"`
	PrimaryKey bool       `json:"primary_key,omitempty"`
}

// ForeignKey is an edge between two tables. Targets are referenced by name,
// never by pointer, so a model stays a plain value that can be snapshotted.
type ForeignKey struct {
	Column    string `json:"column"`
	RefTable  string `json:"ref_table"`
	RefColumn string `json:"ref_column"`
}

// Table describes a single table and its outgoing foreign keys.
type Table struct {
	Name        string       `json:"name"`
	Columns     []Column     `json:"columns"`
	ForeignKeys []ForeignKey `json:"foreign_keys,omitempty"`
}

// Column returns the column with the given name, ignoring case.
func (t *Table) Column(name string) (*Column, bool) {
	for i := range t.Columns {
		if strings.EqualFold(t.Columns[i].Name, name) {
			return &t.Columns[i], true
		}
	}

	return nil, false
}

// PrimaryKey returns the names of the primary key columns in declaration order.
func (t *Table) PrimaryKey() []string {
	var keys []string

	for _, col := range t.Columns {
		if col.PrimaryKey {
			keys = append(keys, col.Name)
		}
	}

	return keys
}

// ColumnNames returns all column names in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}

	return names
}

// Model is an immutable view of a database schema. Build one with NewModel;
// refreshing constructs a new Model rather than mutating an existing one, so
// holders of a *Model can read it without locking.
type Model struct {
	tables   []Table
	byName   map[string]int
	warnings []string
}

// NewModel builds a Model from the given tables. Foreign keys that reference
// a missing table or column are dropped from the model and recorded as
// warnings instead of failing the build. Duplicate table names keep the first
// occurrence and record a warning.
func NewModel(tables []Table) *Model {
	m := &Model{
		tables: make([]Table, 0, len(tables)),
		byName: make(map[string]int, len(tables)),
	}

	for _, table := range tables {
		key := strings.ToLower(table.Name)
		if _, exists := m.byName[key]; exists {
			m.warnings = append(m.warnings,
				fmt.Sprintf("duplicate table %q ignored", table.Name))

			continue
		}

		m.byName[key] = len(m.tables)
		m.tables = append(m.tables, copyTable(table))
	}

	m.pruneDanglingForeignKeys()

	return m
}

func copyTable(table Table) Table {
	copied := Table{
		Name:        table.Name,
		Columns:     make([]Column, len(table.Columns)),
		ForeignKeys: make([]ForeignKey, len(table.ForeignKeys)),
	}
	copy(copied.Columns, table.Columns)
	copy(copied.ForeignKeys, table.ForeignKeys)

	return copied
}

// pruneDanglingForeignKeys removes edges whose source column or target is not
// part of the model and records a warning per dropped edge.
func (m *Model) pruneDanglingForeignKeys() {
	for i := range m.tables {
		table := &m.tables[i]
		kept := table.ForeignKeys[:0]

		for _, fk := range table.ForeignKeys {
			if _, ok := table.Column(fk.Column); !ok {
				m.warnings = append(m.warnings, fmt.Sprintf(
					"foreign key %s.%s dropped: column does not exist",
					table.Name, fk.Column))

				continue
			}

			target, ok := m.Table(fk.RefTable)
			if !ok {
				m.warnings = append(m.warnings, fmt.Sprintf(
					"foreign key %s.%s dropped: references missing table %q",
					table.Name, fk.Column, fk.RefTable))

				continue
			}

			if _, ok := target.Column(fk.RefColumn); !ok {
				m.warnings = append(m.warnings, fmt.Sprintf(
					"foreign key %s.%s dropped: references missing column %s.%s",
					table.Name, fk.Column, fk.RefTable, fk.RefColumn))

				continue
			}

			kept = append(kept, fk)
		}

		table.ForeignKeys = kept
	}
}

// Table returns the table with the given name, ignoring case.
func (m *Model) Table(name string) (*Table, bool) {
	idx, ok := m.byName[strings.ToLower(name)]
	if !ok {
		return nil, false
	}

	return &m.tables[idx], true
}

// HasTable reports whether the model contains a table with the given name.
func (m *Model) HasTable(name string) bool {
	_, ok := m.byName[strings.ToLower(name)]
	return ok
}

// Tables returns all tables in extraction order.
func (m *Model) Tables() []Table {
	return m.tables
}

// TableNames returns all table names in extraction order.
func (m *Model) TableNames() []string {
	names := make([]string, len(m.tables))
	for i := range m.tables {
		names[i] = m.tables[i].Name
	}

	return names
}

// Warnings returns the issues recorded while building the model, such as
// dropped foreign keys.
func (m *Model) Warnings() []string {
	return m.warnings
}

// IsEmpty reports whether the model has no tables.
func (m *Model) IsEmpty() bool {
	return len(m.tables) == 0
}

// JoinStep is one hop of a join path between two tables.
type JoinStep struct {
	FromTable  string `json:"from_table"`
	FromColumn string `json:"from_column"`
	ToTable    string `json:"to_table"`
	ToColumn   string `json:"to_column"`
}

// Condition renders the step as an SQL join condition.
func (s JoinStep) Condition() string {
	return fmt.Sprintf("%s.%s = %s.%s", s.FromTable, s.FromColumn, s.ToTable, s.ToColumn)
}

// JoinPath finds the shortest chain of foreign key edges connecting two
// tables, traversing edges in both directions. A table joined to itself
// yields an empty path. Unknown tables and unreachable pairs return a
// not-found error.
func (m *Model) JoinPath(from, to string) ([]JoinStep, error) {
	fromTable, ok := m.Table(from)
	if !ok {
		return nil, errors.Newf(errors.ErrTypeNotFound, "unknown table: %s", from)
	}

	toTable, ok := m.Table(to)
	if !ok {
		return nil, errors.Newf(errors.ErrTypeNotFound, "unknown table: %s", to)
	}

	if strings.EqualFold(fromTable.Name, toTable.Name) {
		return []JoinStep{}, nil
	}

	start := strings.ToLower(fromTable.Name)
	goal := strings.ToLower(toTable.Name)

	visited := map[string]bool{start: true}
	parents := make(map[string]pathEdge)
	queue := []string{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current == goal {
			return m.reconstructPath(parents, start, goal), nil
		}

		for _, step := range m.adjacentSteps(current) {
			next := strings.ToLower(step.ToTable)
			if visited[next] {
				continue
			}

			visited[next] = true
			parents[next] = pathEdge{step: step, prev: current}
			queue = append(queue, next)
		}
	}

	return nil, errors.Newf(errors.ErrTypeNotFound,
		"no join path between %s and %s", fromTable.Name, toTable.Name)
}

// pathEdge records how BFS reached a table so the path can be rebuilt.
type pathEdge struct {
	step JoinStep
	prev string
}

// adjacentSteps returns every join step leaving the given table, in a stable
// order so path discovery stays deterministic.
func (m *Model) adjacentSteps(tableName string) []JoinStep {
	table, ok := m.Table(tableName)
	if !ok {
		return nil
	}

	var steps []JoinStep

	for _, fk := range table.ForeignKeys {
		steps = append(steps, JoinStep{
			FromTable:  table.Name,
			FromColumn: fk.Column,
			ToTable:    fk.RefTable,
			ToColumn:   fk.RefColumn,
		})
	}

	// Reverse edges: other tables pointing at this one
	for i := range m.tables {
		other := &m.tables[i]
		if strings.EqualFold(other.Name, tableName) {
			continue
		}

		for _, fk := range other.ForeignKeys {
			if strings.EqualFold(fk.RefTable, tableName) {
				steps = append(steps, JoinStep{
					FromTable:  table.Name,
					FromColumn: fk.RefColumn,
					ToTable:    other.Name,
					ToColumn:   fk.Column,
				})
			}
		}
	}

	return steps
}

func (m *Model) reconstructPath(
	parents map[string]pathEdge,
	start, goal string,
) []JoinStep {
	var path []JoinStep

	for current := goal; current != start; {
		e := parents[current]
		path = append(path, e.step)
		current = e.prev
	}

	// Reverse into from-to order
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return path
}

// Describe renders the model as compact text suitable for display and for
// generation prompts.
func (m *Model) Describe() string {
	var b strings.Builder

	for i := range m.tables {
		table := &m.tables[i]

		if i > 0 {
			b.WriteString("\n")
		}

		b.WriteString(fmt.Sprintf("TABLE %s (\n", table.Name))

		for _, col := range table.Columns {
			b.WriteString(fmt.Sprintf("  %s %s", col.Name, col.Type))

			if col.PrimaryKey {
				b.WriteString(" PRIMARY KEY")
			}

			if !col.Nullable {
				b.WriteString(" NOT NULL")
			}

			b.WriteString("\n")
		}

		for _, fk := range table.ForeignKeys {
			b.WriteString(fmt.Sprintf("  FOREIGN KEY (%s) REFERENCES %s(%s)\n",
				fk.Column, fk.RefTable, fk.RefColumn))
		}

		b.WriteString(")\n")
	}

	return b.String()
}

// SortedTableNames returns table names sorted alphabetically. Used where a
// stable alphabetical order is needed, such as ambiguity tie-breaks.
func (m *Model) SortedTableNames() []string {
	names := m.TableNames()
	sort.Strings(names)

	return names
}
