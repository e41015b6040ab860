package litesql

// #include "bridge.h"
import "C"

import (
	log "github.com/sirupsen/logrus"

	"go.litesql.dev/core/metrics"
)

// ChangeKind enumerates row mutations reported to observers.
type ChangeKind int

const (
	ChangeInsert ChangeKind = iota
	ChangeDelete
	ChangeUpdate
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeInsert:
		return "INSERT"
	case ChangeDelete:
		return "DELETE"
	case ChangeUpdate:
		return "UPDATE"
	default:
		return "UNKNOWN"
	}
}

// ChangeEvent describes a single row mutation within a transaction.
type ChangeEvent struct {
	Kind     ChangeKind
	Database string
	Table    string
	RowID    int64
}

// TransactionObserver is notified of row changes and transaction outcomes
// on a Conn. All methods are invoked on the context driving the Conn.
// DatabaseChanged fires as rows change; the remaining methods fire at the
// statement boundary which completed the transaction.
type TransactionObserver interface {
	// DatabaseChanged is invoked for each row inserted, deleted or updated.
	DatabaseChanged(ChangeEvent)
	// TransactionWillCommit is invoked as the transaction commits.
	// A non-nil error vetoes the commit: the engine rolls the transaction
	// back, and the error surfaces verbatim from the statement which
	// attempted the commit.
	TransactionWillCommit() error
	// TransactionDidCommit is invoked after a successful commit.
	TransactionDidCommit()
	// TransactionDidRollback is invoked after a rollback, including
	// rollbacks caused by a veto.
	TransactionDidRollback()
}

// txnState tracks a hook-reported transaction outcome awaiting its
// statement-boundary checkpoint.
type txnState int

const (
	txnIdle txnState = iota
	txnPendingCommit
	txnPendingRollback
	txnPendingVeto
)

// AddTransactionObserver registers |obs|. Observers are notified in
// registration order; re-adding a registered observer is a no-op. The
// engine hooks are installed with the first observer.
func (c *Conn) AddTransactionObserver(obs TransactionObserver) {
	c.enter()
	defer c.exit()

	for _, o := range c.observers {
		if o == obs {
			return
		}
	}
	c.observers = append(c.observers, obs)

	if c.hookHandle == 0 {
		c.hookHandle = registerHandle(c)
		C.bridgeInstallHooks(c.db, C.uintptr_t(c.hookHandle))
	}
}

// RemoveTransactionObserver removes |obs|. Removing an unregistered
// observer is a no-op. The engine hooks are removed with the last observer.
func (c *Conn) RemoveTransactionObserver(obs TransactionObserver) {
	c.enter()
	defer c.exit()

	for i, o := range c.observers {
		if o == obs {
			c.observers = append(c.observers[:i], c.observers[i+1:]...)
			break
		}
	}
	if len(c.observers) == 0 && c.hookHandle != 0 {
		C.bridgeRemoveHooks(c.db)
		unregisterHandle(c.hookHandle)
		c.hookHandle = 0
	}
}

// statementDidExecute is the per-statement transaction checkpoint. It
// consumes hook-reported state, delivers the corresponding observer
// notifications, and resolves the statement's error: a commit veto
// supersedes |execErr|, which is the engine's generic constraint failure
// for the denied commit.
func (c *Conn) statementDidExecute(execErr *Error) error {
	var state, veto = c.txn, c.vetoErr
	c.txn, c.vetoErr = txnIdle, nil

	switch state {
	case txnPendingVeto:
		c.notifyDidRollback()
		metrics.TxnVetoesTotal.Inc()
		return veto
	case txnPendingCommit:
		c.notifyDidCommit()
	case txnPendingRollback:
		c.notifyDidRollback()
	}
	if execErr != nil {
		return execErr
	}
	return nil
}

func (c *Conn) notifyDidCommit() {
	for _, obs := range c.observers {
		obs.TransactionDidCommit()
	}
}

func (c *Conn) notifyDidRollback() {
	for _, obs := range c.observers {
		obs.TransactionDidRollback()
	}
}

// TxnOutcome is the disposition a transaction body requests.
type TxnOutcome int

const (
	// TxnCommit commits the transaction when the body returns nil.
	TxnCommit TxnOutcome = iota
	// TxnRollback rolls the transaction back despite a nil body error.
	TxnRollback
)

// Txn is the view of a Conn handed to an InTransaction body.
type Txn struct{ c *Conn }

// Execute runs |sql| within the transaction. See Conn.Execute.
func (t *Txn) Execute(sql string, args ...interface{}) (Result, error) {
	return t.c.Execute(sql, args...)
}

// SelectStatement returns a cached read-only statement. See
// Conn.SelectStatement.
func (t *Txn) SelectStatement(sql string) (*Stmt, error) {
	return t.c.SelectStatement(sql)
}

// UpdateStatement returns a cached statement. See Conn.UpdateStatement.
func (t *Txn) UpdateStatement(sql string) (*Stmt, error) {
	return t.c.UpdateStatement(sql)
}

// PrimaryKey derives a table's primary key. See Conn.PrimaryKey.
func (t *Txn) PrimaryKey(table string) (PrimaryKey, error) {
	return t.c.PrimaryKey(table)
}

// LastInsertRowID returns the rowid of the transaction's most recent INSERT.
func (t *Txn) LastInsertRowID() int64 { return t.c.LastInsertRowID() }

// Changes returns the rows changed by the most recent statement.
func (t *Txn) Changes() int64 { return t.c.Changes() }

// InTransaction opens a transaction of |kind|, runs |body|, and commits or
// rolls back according to the body's outcome and error. A body error always
// rolls back and is returned verbatim. A commit vetoed by an observer
// surfaces the observer's error.
//
// InTransaction is not reentrant: calling it while a transaction is already
// open on the Conn panics.
func (c *Conn) InTransaction(kind TransactionKind, body func(*Txn) (TxnOutcome, error)) error {
	if kind == TransactionDefault {
		kind = c.cfg.DefaultTransaction
	}

	c.enter()
	if c.inTransaction || C.sqlite3_get_autocommit(c.db) == 0 {
		c.exit()
		panic("litesql: InTransaction is not reentrant")
	}
	c.inTransaction = true
	_, err := c.execute(kind.sql(), nil)
	c.exit()

	if err != nil {
		c.inTransaction = false
		return err
	}
	metrics.TxnsStartedTotal.Inc()

	var bodyCompleted bool
	defer func() {
		c.inTransaction = false
		if bodyCompleted {
			return
		}
		// The body panicked. Release the open transaction before the
		// panic unwinds so the Conn remains usable.
		if !c.AutoCommit() {
			if _, rbErr := c.Execute("ROLLBACK"); rbErr != nil {
				log.WithFields(log.Fields{"path": c.path, "err": rbErr}).
					Error("rollback after transaction body panic failed")
			}
		}
		metrics.TxnsRolledBackTotal.Inc()
	}()

	outcome, bodyErr := body(&Txn{c: c})
	bodyCompleted = true

	if bodyErr == nil && outcome == TxnCommit {
		if _, err := c.Execute("COMMIT"); err != nil {
			metrics.TxnsRolledBackTotal.Inc()
			// A denied or failed commit may leave the transaction open
			// (a vetoed one does not: the engine rolled it back).
			if !c.AutoCommit() {
				if _, rbErr := c.Execute("ROLLBACK"); rbErr != nil {
					log.WithFields(log.Fields{"path": c.path, "err": rbErr}).
						Error("rollback after failed commit failed")
				}
			}
			return err
		}
		metrics.TxnsCommittedTotal.Inc()
		return nil
	}

	// Rollback path: the body errored or requested TxnRollback. If the
	// error is one for which the engine may have already rolled back,
	// the explicit ROLLBACK is possibly redundant and its failure is
	// expected; otherwise a failed ROLLBACK is logged but the body's
	// error still wins.
	if _, rbErr := c.Execute("ROLLBACK"); rbErr != nil && !canAutoRollback(bodyErr) {
		if bodyErr == nil {
			return rbErr
		}
		log.WithFields(log.Fields{"path": c.path, "err": rbErr}).
			Error("transaction rollback failed")
	}
	metrics.TxnsRolledBackTotal.Inc()
	return bodyErr
}
