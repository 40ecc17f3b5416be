package ledger

import (
	"errors"
	"fmt"
)

// ErrNoLedger is returned by stores when no canonical ledger file exists yet.
var ErrNoLedger = errors.New("no canonical ledger file")

// ErrDateUnresolvable means a merged table has no parseable date in any row.
// Non-fatal: the merge keeps the prior file name instead of deriving a new one.
var ErrDateUnresolvable = errors.New("no parseable date in merged ledger")

// MalformedLedgerError reports a file that parsed but whose structure cannot
// be trusted (fewer columns than the known ledger layout).
type MalformedLedgerError struct {
	Columns int
}

func (e *MalformedLedgerError) Error() string {
	return fmt.Sprintf("malformed ledger: %d columns, need at least %d", e.Columns, MinColumns)
}

// IncompatibleSchemaError reports a merge batch whose column count disagrees
// with the existing ledger. The merge performs no write in this case.
type IncompatibleSchemaError struct {
	Existing int
	Batch    int
}

func (e *IncompatibleSchemaError) Error() string {
	return fmt.Sprintf("incompatible schema: existing ledger has %d columns, batch has %d", e.Existing, e.Batch)
}
