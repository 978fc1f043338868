package query

import (
	"strconv"
	"strings"
)

// Key deterministically identifies one logical query as an ordered sequence
// of primitive parts. Two keys are equal iff their sequences are deep-equal
// element by element; an absent part (nil) is distinct from an empty string.
// Identical semantic queries must build equal keys, which is the correctness
// foundation for request deduplication.
type Key struct {
	parts []part
}

type partKind uint8

const (
	partAbsent partKind = iota
	partString
	partNumber
)

type part struct {
	kind partKind
	str  string
	num  float64
}

// K builds a key from primitive parts. Accepted types: string, int, int64,
// float64, bool, and nil for an absent value. Unsupported types panic, since
// a non-deterministic key silently breaks deduplication.
func K(parts ...any) Key {
	ps := make([]part, 0, len(parts))
	for _, p := range parts {
		switch v := p.(type) {
		case nil:
			ps = append(ps, part{kind: partAbsent})
		case string:
			ps = append(ps, part{kind: partString, str: v})
		case int:
			ps = append(ps, part{kind: partNumber, num: float64(v)})
		case int64:
			ps = append(ps, part{kind: partNumber, num: float64(v)})
		case float64:
			ps = append(ps, part{kind: partNumber, num: v})
		case bool:
			n := 0.0
			if v {
				n = 1.0
			}
			ps = append(ps, part{kind: partNumber, num: n})
		default:
			panic("query: unsupported key part type")
		}
	}
	return Key{parts: ps}
}

// String returns the canonical serialized form of the key. Equal keys have
// equal strings and vice versa.
func (k Key) String() string {
	var b strings.Builder
	for i, p := range k.parts {
		if i > 0 {
			b.WriteByte('/')
		}
		switch p.kind {
		case partAbsent:
			b.WriteByte('_')
		case partString:
			b.WriteByte('s')
			b.WriteString(strconv.Quote(p.str))
		case partNumber:
			b.WriteByte('n')
			b.WriteString(strconv.FormatFloat(p.num, 'g', -1, 64))
		}
	}
	return b.String()
}

// Equal reports whether two keys identify the same query.
func (k Key) Equal(other Key) bool {
	if len(k.parts) != len(other.parts) {
		return false
	}
	for i, p := range k.parts {
		if p != other.parts[i] {
			return false
		}
	}
	return true
}

// IsZero reports whether the key has no parts.
func (k Key) IsZero() bool {
	return len(k.parts) == 0
}
