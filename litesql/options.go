package litesql

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3" // Imported for registration side-effect.
	"github.com/pkg/errors"
)

// CompiledOptions returns the set of compile-time options of the linked
// SQLite library, such as "ENABLE_JSON1" or "THREADSAFE=2".
func CompiledOptions() (map[string]struct{}, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, errors.WithMessage(err, "opening SQLite memory DB")
	}
	defer db.Close()

	rows, err := db.Query("PRAGMA compile_options")
	if err != nil {
		return nil, errors.WithMessage(err, "querying compile options")
	}
	defer rows.Close()

	var out = make(map[string]struct{})
	for rows.Next() {
		var opt string
		if err = rows.Scan(&opt); err != nil {
			return nil, errors.WithMessage(err, "scanning compile option")
		}
		out[opt] = struct{}{}
	}
	return out, rows.Err()
}
