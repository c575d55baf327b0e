package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MissingSentinel stands in for a missing field inside a hash key, so that a missing
// value never collides with a legitimate empty string.
const MissingSentinel = "<NA>"

const hashDelimiter = "_"

// HashIdentity derives the id_registro of a row from its ordered business-key fields and
// its disambiguating sequence: SHA-256 over "f1_f2_..._fn_seq", lowercase hex. Inside a
// field, backslash, '_' and a leading '<' are escaped with a backslash so distinct tuples
// never share a hashed text.
func HashIdentity(fields []any, seq int) string {
	text := keyText(fields) + hashDelimiter + strconv.Itoa(seq)
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func keyText(fields []any) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = hashText(f)
	}
	return strings.Join(parts, hashDelimiter)
}

var hashEscaper = strings.NewReplacer(`\`, `\\`, hashDelimiter, `\`+hashDelimiter)

func hashText(v any) string {
	if v == nil {
		return MissingSentinel
	}
	if t, ok := v.(time.Time); ok && t.IsZero() {
		return MissingSentinel
	}
	s := hashEscaper.Replace(FormatValue(v))
	if strings.HasPrefix(s, "<") {
		s = `\` + s
	}
	return s
}

// AssignSequences returns, for every row, its 1-based running count among the rows that
// share the same key tuple, in row order. It must run over the whole batch before any
// hashing so the counters do not depend on how rows are later grouped.
func AssignSequences(rows []Row, key []string) []int {
	seqs := make([]int, len(rows))
	counters := make(map[string]int, len(rows))
	for i, r := range rows {
		k := tupleKey(r, key)
		counters[k]++
		seqs[i] = counters[k]
	}
	return seqs
}

// tupleKey is the hashed text of a key tuple, so rows share a counter exactly when they
// would share a digest.
func tupleKey(r Row, key []string) string {
	return keyText(keyFields(r, key))
}

func keyFields(r Row, key []string) []any {
	fields := make([]any, len(key))
	for i, f := range key {
		fields[i] = r[f]
	}
	return fields
}

// FormatValue renders a row value the way it is hashed, exported and compared.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format("2006-01-02T15:04:05")
	case decimal.Decimal:
		return x.String()
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
