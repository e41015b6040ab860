package litesql

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// A database written through a Conn is an ordinary SQLite file, readable
// by unrelated drivers.
func TestInteropWithDatabaseSQL(t *testing.T) {
	var path = filepath.Join(t.TempDir(), "interop.db")

	var c, err = Open(path, Config{})
	require.NoError(t, err)

	_, err = c.Execute(`
		CREATE TABLE kv (k TEXT PRIMARY KEY, v BLOB);
		INSERT INTO kv VALUES (?, ?), (?, ?);
	`, "alpha", []byte{1, 2}, "beta", []byte{3})
	require.NoError(t, err)
	require.NoError(t, c.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query(`SELECT k, v FROM kv ORDER BY k`)
	require.NoError(t, err)
	defer rows.Close()

	var got = make(map[string][]byte)
	for rows.Next() {
		var k string
		var v []byte
		require.NoError(t, rows.Scan(&k, &v))
		got[k] = v
	}
	require.NoError(t, rows.Err())
	require.Equal(t, map[string][]byte{
		"alpha": {1, 2},
		"beta":  {3},
	}, got)
}
