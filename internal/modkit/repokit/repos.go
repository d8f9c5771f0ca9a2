// Package repokit provides the SQL seams and transaction helpers used by record sources
package repokit

import "crimedash/internal/platform/store"

// Queryer is the read and write surface a transaction hands to its callback
type Queryer = store.RowQuerier

// TxRunner can execute a function inside a transaction
type TxRunner = store.TxRunner

type (
	// Rows are the result set of a query
	Rows = store.Rows

	// Row is a single row result from a query
	Row = store.Row

	// CommandTag is the result of a command that modifies data
	CommandTag = store.CommandTag
)
