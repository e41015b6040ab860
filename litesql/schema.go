package litesql

import (
	"fmt"
	"sort"
	"strings"
)

// PrimaryKeyKind classifies a table's primary key.
type PrimaryKeyKind int

const (
	// PrimaryKeyNone means the table declares no primary key. Rowid
	// tables still carry the implicit rowid.
	PrimaryKeyNone PrimaryKeyKind = iota
	// PrimaryKeyRowID means a single INTEGER PRIMARY KEY column aliasing
	// the rowid.
	PrimaryKeyRowID
	// PrimaryKeyComposite means one or more ordinary key columns.
	PrimaryKeyComposite
)

func (k PrimaryKeyKind) String() string {
	switch k {
	case PrimaryKeyRowID:
		return "rowid-alias"
	case PrimaryKeyComposite:
		return "composite"
	default:
		return "none"
	}
}

// PrimaryKey describes a table's primary key. Columns is in key order and
// empty for PrimaryKeyNone.
type PrimaryKey struct {
	Kind    PrimaryKeyKind
	Columns []string
}

// ColumnInfo describes one column of a table.
type ColumnInfo struct {
	Name         string
	DeclaredType string
	NotNull      bool
	// Default is the column's declared default, as the engine reports it.
	Default Value
	// PrimaryKeyOrdinal is the column's 1-based position within the
	// primary key, or zero if it is not part of one.
	PrimaryKeyOrdinal int
}

// Columns introspects the columns of |table|, or fails with SQLITE_NOTFOUND
// if no such table exists.
func (c *Conn) Columns(table string) ([]ColumnInfo, error) {
	c.enter()
	defer c.exit()
	return c.columns(table)
}

func (c *Conn) columns(table string) ([]ColumnInfo, error) {
	s, err := c.selectStatement(
		`SELECT name, type, "notnull", dflt_value, pk FROM pragma_table_info(?)`)
	if err != nil {
		return nil, err
	}
	if err = s.bind([]interface{}{table}); err != nil {
		return nil, err
	}

	var infos []ColumnInfo
	for {
		row, err := s.step()
		if err != nil {
			return nil, err
		}
		if !row {
			break
		}
		var info ColumnInfo
		if err = s.Scan(&info.Name, &info.DeclaredType); err != nil {
			return nil, err
		}
		if nn, ok := s.Value(2).Int64(); ok {
			info.NotNull = nn != 0
		}
		info.Default = s.Value(3)
		if pk, ok := s.Value(4).Int64(); ok {
			info.PrimaryKeyOrdinal = int(pk)
		}
		infos = append(infos, info)
	}
	if len(infos) == 0 {
		return nil, &Error{Code: ErrNotFound,
			Message: fmt.Sprintf("no such table: %s", table)}
	}
	return infos, nil
}

// PrimaryKey derives the primary key of |table|. A single INTEGER PRIMARY
// KEY column is classified as a rowid alias; any other declared key is
// composite. Results are cached until ClearSchemaCache.
func (c *Conn) PrimaryKey(table string) (PrimaryKey, error) {
	c.enter()
	defer c.exit()

	var key = strings.ToLower(table)
	if v, ok := c.primaryKeys.Get(key); ok {
		return v.(PrimaryKey), nil
	}

	infos, err := c.columns(table)
	if err != nil {
		return PrimaryKey{}, err
	}
	var pk = derivePrimaryKey(infos)
	c.primaryKeys.Add(key, pk)
	return pk, nil
}

func derivePrimaryKey(infos []ColumnInfo) PrimaryKey {
	var cols []ColumnInfo
	for _, info := range infos {
		if info.PrimaryKeyOrdinal > 0 {
			cols = append(cols, info)
		}
	}
	if len(cols) == 0 {
		return PrimaryKey{Kind: PrimaryKeyNone}
	}
	sort.Slice(cols, func(i, j int) bool {
		return cols[i].PrimaryKeyOrdinal < cols[j].PrimaryKeyOrdinal
	})

	var names = make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.Name
	}
	if len(cols) == 1 && strings.EqualFold(cols[0].DeclaredType, "INTEGER") {
		return PrimaryKey{Kind: PrimaryKeyRowID, Columns: names}
	}
	return PrimaryKey{Kind: PrimaryKeyComposite, Columns: names}
}

// TableExists reports whether a table named |name| exists, matching
// case-insensitively as the engine does.
func (c *Conn) TableExists(name string) (bool, error) {
	c.enter()
	defer c.exit()

	s, err := c.selectStatement(
		`SELECT 1 FROM sqlite_master WHERE type = 'table' AND lower(name) = lower(?)`)
	if err != nil {
		return false, err
	}
	if err = s.bind([]interface{}{name}); err != nil {
		return false, err
	}
	row, err := s.step()
	if err != nil {
		return false, err
	}
	if row {
		// Drain so the cached statement is left reset.
		if _, err = s.step(); err != nil {
			return false, err
		}
	}
	return row, nil
}

// ClearSchemaCache discards cached primary keys and prepared statements.
// Call it after schema changes made outside this Conn.
func (c *Conn) ClearSchemaCache() {
	c.enter()
	defer c.exit()

	c.primaryKeys.Purge()
	c.selectStmts.Purge()
	c.updateStmts.Purge()
}
