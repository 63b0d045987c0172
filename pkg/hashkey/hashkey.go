// Package hashkey derives the deterministic hash expressions used for hub
// business keys, link composite keys, and satellite hash-diffs.
//
// All call sites use the same derivation so a hash computed during staging
// is byte-identical to the hash recomputed inside a hub or satellite view:
// each column is cast to VARCHAR, trimmed, uppercased, nulls replaced by a
// fixed sentinel, the results concatenated in declared column order with a
// fixed delimiter, and the concatenation digested with SHA-1 (160 bits,
// lowercase hex).
//
// Nulls and empty strings hash differently: TRIM('') stays '' while NULL
// becomes the sentinel.
package hashkey

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/futureanalytics-io/data-vault-MS-Fabric/pkg/dialect"
)

const (
	// Delimiter separates column values inside the hash input. It is
	// stripped from no legitimate key value because normalization runs
	// before concatenation, not on the joined string.
	Delimiter = "||"

	// NullToken replaces NULL column values in the hash input.
	NullToken = "~~N~~"
)

// NormalizeExpr returns the per-column normalization expression:
// cast to VARCHAR, trim, uppercase, null to sentinel.
func NormalizeExpr(d *dialect.Dialect, column string) string {
	return fmt.Sprintf("COALESCE(UPPER(TRIM(CAST(%s AS %s))), '%s')", column, d.VarcharType, NullToken)
}

// ConcatExpr concatenates the normalized columns in declared order with the
// fixed delimiter. CONCAT_WS never skips arguments here since every part is
// already COALESCEd.
func ConcatExpr(d *dialect.Dialect, columns []string) string {
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = NormalizeExpr(d, col)
	}
	return fmt.Sprintf("CONCAT_WS('%s', %s)", Delimiter, strings.Join(parts, ", "))
}

// KeyExpr returns the full hash expression over the given ordered columns.
// The column order is taken as declared; reordering changes the hash.
func KeyExpr(d *dialect.Dialect, columns []string) string {
	return d.HashExpr(ConcatExpr(d, columns))
}

// Sum is the Go reference implementation of the derivation. It pins the
// algorithm in tests: nil means SQL NULL, any other pointer the column
// value. The result matches what the generated SQL computes for the same
// ordered values.
func Sum(values []*string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		if v == nil {
			parts[i] = NullToken
			continue
		}
		parts[i] = strings.ToUpper(strings.TrimSpace(*v))
	}
	digest := sha1.Sum([]byte(strings.Join(parts, Delimiter)))
	return hex.EncodeToString(digest[:])
}
