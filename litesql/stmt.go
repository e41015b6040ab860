package litesql

// #include "bridge.h"
import "C"

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"go.litesql.dev/core/metrics"
)

// Stmt is a prepared statement owned by its Conn's statement cache. A Stmt
// remains valid until its Conn is closed, the cache evicts it, or
// ClearSchemaCache discards it; callers must not retain one across those
// events. Stmt methods follow the Conn's single-owner discipline.
type Stmt struct {
	c        *Conn
	stmt     *C.sqlite3_stmt
	sql      string
	readOnly bool
	// erred marks a failed evaluation already surfaced from Step, which
	// sqlite3_reset will redundantly report again.
	erred bool
}

// SelectStatement returns a cached prepared statement for |sql|, which must
// be a single read-only statement. Repeated calls with identical text return
// the same prepared statement, reset and with bindings cleared.
func (c *Conn) SelectStatement(sql string) (*Stmt, error) {
	c.enter()
	defer c.exit()
	return c.selectStatement(sql)
}

// UpdateStatement returns a cached prepared statement for |sql|, which must
// be a single statement. It is held in a cache distinct from that of
// SelectStatement.
func (c *Conn) UpdateStatement(sql string) (*Stmt, error) {
	c.enter()
	defer c.exit()
	return c.updateStatement(sql)
}

func (c *Conn) selectStatement(sql string) (*Stmt, error) {
	if v, ok := c.selectStmts.Get(sql); ok {
		metrics.StatementCacheHitsTotal.Inc()
		var s = v.(*Stmt)
		if err := s.rearm(); err != nil {
			return nil, err
		}
		return s, nil
	}
	metrics.StatementCacheMissesTotal.Inc()

	s, err := c.prepareOne(sql)
	if err != nil {
		return nil, err
	}
	if !s.readOnly {
		s.finalize()
		return nil, &Error{Code: ErrMisuse, SQL: sql,
			Message: "statement is not read-only"}
	}
	c.selectStmts.Add(sql, s)
	return s, nil
}

func (c *Conn) updateStatement(sql string) (*Stmt, error) {
	if v, ok := c.updateStmts.Get(sql); ok {
		metrics.StatementCacheHitsTotal.Inc()
		var s = v.(*Stmt)
		if err := s.rearm(); err != nil {
			return nil, err
		}
		return s, nil
	}
	metrics.StatementCacheMissesTotal.Inc()

	s, err := c.prepareOne(sql)
	if err != nil {
		return nil, err
	}
	c.updateStmts.Add(sql, s)
	return s, nil
}

// prepareOne compiles |sql|, requiring that it holds exactly one statement.
func (c *Conn) prepareOne(sql string) (*Stmt, *Error) {
	stmt, tail, err := c.prepare(sql)
	if err != nil {
		return nil, err
	}
	if stmt == nil {
		return nil, &Error{Code: ErrMisuse, SQL: sql, Message: "empty statement"}
	}
	if strings.TrimSpace(tail) != "" {
		C.sqlite3_finalize(stmt)
		return nil, &Error{Code: ErrMisuse, SQL: sql,
			Message: "sql must hold exactly one statement"}
	}
	return &Stmt{
		c:        c,
		stmt:     stmt,
		sql:      sql,
		readOnly: C.sqlite3_stmt_readonly(stmt) != 0,
	}, nil
}

// evictStmt finalizes a statement displaced from a cache.
func evictStmt(_, value interface{}) { value.(*Stmt).finalize() }

// SQL returns the statement's text.
func (s *Stmt) SQL() string { return s.sql }

// ReadOnly reports whether the statement makes no direct database changes.
func (s *Stmt) ReadOnly() bool { return s.readOnly }

// ColumnCount returns the number of result columns.
func (s *Stmt) ColumnCount() int { return int(C.sqlite3_column_count(s.stmt)) }

// ColumnName returns the name of result column |i|.
func (s *Stmt) ColumnName(i int) string {
	return C.GoString(C.sqlite3_column_name(s.stmt, C.int(i)))
}

// Bind rebinds the statement's placeholders, resetting it first. Arguments
// follow the conventions of Conn.Execute, except that a positional count
// mismatch fails immediately as the statement boundary is unambiguous.
func (s *Stmt) Bind(args ...interface{}) error {
	s.c.enter()
	defer s.c.exit()

	if err := s.rearm(); err != nil {
		return err
	}
	return s.bind(args)
}

func (s *Stmt) bind(args []interface{}) error {
	named, positional, err := splitArgs(args)
	if err != nil {
		return err
	}
	if named != nil {
		if berr := bindNamed(s.c, s.stmt, named); berr != nil {
			berr.SQL = s.sql
			return berr
		}
		return nil
	}
	if n := int(C.sqlite3_bind_parameter_count(s.stmt)); n != len(positional) {
		return &Error{Code: ErrMisuse, SQL: s.sql,
			Message: "argument count does not match placeholder count"}
	}
	if berr := bindPositional(s.c, s.stmt, positional); berr != nil {
		berr.SQL = s.sql
		return berr
	}
	return nil
}

// Step advances to the next result row. It returns false at completion or
// on error, and completion is a transaction checkpoint: pending observer
// notifications are delivered before Step returns.
func (s *Stmt) Step() (bool, error) {
	s.c.enter()
	defer s.c.exit()
	return s.step()
}

func (s *Stmt) step() (bool, error) {
	switch rc := C.sqlite3_step(s.stmt); rc {
	case C.SQLITE_ROW:
		return true, nil
	case C.SQLITE_DONE:
		return false, s.c.statementDidExecute(nil)
	default:
		s.erred = true
		return false, s.c.statementDidExecute(s.c.lastError(s.sql))
	}
}

// Exec binds |args| and drives the statement to completion, discarding rows.
func (s *Stmt) Exec(args ...interface{}) error {
	s.c.enter()
	defer s.c.exit()

	if err := s.rearm(); err != nil {
		return err
	}
	if err := s.bind(args); err != nil {
		return err
	}
	return s.exec()
}

func (s *Stmt) exec() error {
	for {
		row, err := s.step()
		if err != nil {
			return err
		}
		if !row {
			metrics.StatementsExecutedTotal.Inc()
			return nil
		}
	}
}

// Value copies column |i| of the current row. It is valid only after a
// Step which returned true.
func (s *Stmt) Value(i int) Value { return columnValue(s.stmt, i) }

// Scan decodes the current row's columns into |dsts|, which holds one
// pointer per column read, starting at column zero.
func (s *Stmt) Scan(dsts ...interface{}) error {
	for i, d := range dsts {
		if err := columnValue(s.stmt, i).Decode(d); err != nil {
			return err
		}
	}
	return nil
}

// Reset rewinds the statement so it may be stepped again. Bindings are
// retained. Resetting a partially-stepped writing statement completes it,
// so Reset is a transaction checkpoint like Step completion: pending
// observer notifications are delivered before it returns.
func (s *Stmt) Reset() error {
	s.c.enter()
	defer s.c.exit()
	return s.reset()
}

// reset rewinds the statement and runs the transaction checkpoint.
// Completing an abandoned statement here may commit (or roll back) its
// implicit transaction, firing hooks whose state must be consumed at this
// boundary rather than leak into the next statement's.
func (s *Stmt) reset() error {
	var resetErr *Error
	if rc := C.sqlite3_reset(s.stmt); rc != C.SQLITE_OK && !s.erred {
		resetErr = s.c.lastError(s.sql)
	}
	s.erred = false
	return s.c.statementDidExecute(resetErr)
}

// rearm resets the statement and clears its bindings, the state a cache
// hit hands back.
func (s *Stmt) rearm() error {
	if err := s.reset(); err != nil {
		return err
	}
	if rc := C.sqlite3_clear_bindings(s.stmt); rc != C.SQLITE_OK {
		return s.c.lastError(s.sql)
	}
	return nil
}

func (s *Stmt) finalize() {
	if s.stmt == nil {
		return
	}
	// finalize reports the statement's most recent evaluation error, which
	// was already surfaced to the caller; log rather than re-raise it.
	if rc := C.sqlite3_finalize(s.stmt); rc != C.SQLITE_OK {
		log.WithFields(log.Fields{"sql": s.sql, "rc": int(rc)}).
			Warn("finalizing prepared statement")
	}
	s.stmt = nil
}
