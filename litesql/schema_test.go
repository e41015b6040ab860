package litesql

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrimaryKeyRowIDAlias(t *testing.T) {
	var c = newTestConn(t, Config{})
	_, err := c.Execute(`CREATE TABLE t (id INTEGER PRIMARY KEY, s TEXT)`)
	require.NoError(t, err)

	pk, err := c.PrimaryKey("t")
	require.NoError(t, err)
	require.Equal(t, PrimaryKey{Kind: PrimaryKeyRowID, Columns: []string{"id"}}, pk)
}

func TestPrimaryKeyComposite(t *testing.T) {
	var c = newTestConn(t, Config{})
	_, err := c.Execute(`CREATE TABLE t (a TEXT, b INTEGER, PRIMARY KEY (b, a))`)
	require.NoError(t, err)

	// Columns come back in key order, not declaration order.
	pk, err := c.PrimaryKey("t")
	require.NoError(t, err)
	require.Equal(t, PrimaryKey{Kind: PrimaryKeyComposite, Columns: []string{"b", "a"}}, pk)
}

func TestPrimaryKeySingleNonIntegerIsComposite(t *testing.T) {
	var c = newTestConn(t, Config{})
	_, err := c.Execute(`CREATE TABLE t (name TEXT PRIMARY KEY)`)
	require.NoError(t, err)

	// Only an INTEGER column aliases the rowid.
	pk, err := c.PrimaryKey("t")
	require.NoError(t, err)
	require.Equal(t, PrimaryKeyComposite, pk.Kind)
	require.Equal(t, []string{"name"}, pk.Columns)
}

func TestPrimaryKeyNone(t *testing.T) {
	var c = newTestConn(t, Config{})
	_, err := c.Execute(`CREATE TABLE t (a TEXT, b TEXT)`)
	require.NoError(t, err)

	pk, err := c.PrimaryKey("t")
	require.NoError(t, err)
	require.Equal(t, PrimaryKeyNone, pk.Kind)
	require.Empty(t, pk.Columns)
}

func TestPrimaryKeyUnknownTable(t *testing.T) {
	var c = newTestConn(t, Config{})

	var _, err = c.PrimaryKey("nope")
	require.Error(t, err)
	require.Equal(t, ErrNotFound, err.(*Error).Code)
}

func TestColumns(t *testing.T) {
	var c = newTestConn(t, Config{})
	_, err := c.Execute(
		`CREATE TABLE t (id INTEGER PRIMARY KEY, s TEXT NOT NULL DEFAULT 'x', f REAL)`)
	require.NoError(t, err)

	infos, err := c.Columns("t")
	require.NoError(t, err)
	require.Len(t, infos, 3)

	require.Equal(t, "id", infos[0].Name)
	require.Equal(t, "INTEGER", infos[0].DeclaredType)
	require.Equal(t, 1, infos[0].PrimaryKeyOrdinal)

	require.Equal(t, "s", infos[1].Name)
	require.True(t, infos[1].NotNull)
	require.Equal(t, Text("'x'"), infos[1].Default)
	require.Zero(t, infos[1].PrimaryKeyOrdinal)

	require.Equal(t, "f", infos[2].Name)
	require.True(t, infos[2].Default.IsNull())
}

func TestTableExists(t *testing.T) {
	var c = newTestConn(t, Config{})
	_, err := c.Execute(`CREATE TABLE Mixed (n INTEGER)`)
	require.NoError(t, err)

	for _, name := range []string{"Mixed", "mixed", "MIXED"} {
		ok, err := c.TableExists(name)
		require.NoError(t, err)
		require.True(t, ok, name)
	}

	ok, err := c.TableExists("absent")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPrimaryKeyCacheAndClear(t *testing.T) {
	var c = newTestConn(t, Config{})
	_, err := c.Execute(`CREATE TABLE t (id INTEGER PRIMARY KEY)`)
	require.NoError(t, err)

	pk, err := c.PrimaryKey("t")
	require.NoError(t, err)
	require.Equal(t, PrimaryKeyRowID, pk.Kind)

	// The schema changes under the cache; the stale derivation persists
	// until cleared.
	_, err = c.Execute(`DROP TABLE t; CREATE TABLE t (a TEXT, b TEXT, PRIMARY KEY (a, b))`)
	require.NoError(t, err)

	pk, err = c.PrimaryKey("T") // Lookup is case-insensitive.
	require.NoError(t, err)
	require.Equal(t, PrimaryKeyRowID, pk.Kind)

	c.ClearSchemaCache()

	pk, err = c.PrimaryKey("t")
	require.NoError(t, err)
	require.Equal(t, PrimaryKeyComposite, pk.Kind)
	require.Equal(t, []string{"a", "b"}, pk.Columns)
}
