package stats

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

var ErrUnknownValueKind = errors.New("stats: unknown value kind")

// Kind tags the shape of a Value.
type Kind int

const (
	KindScalar Kind = iota + 1
	KindSequence
	KindKeyedMap
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindKeyedMap:
		return "keyed_map"
	default:
		return "unknown"
	}
}

// Decimal is a fixed-point number that encodes as a bare JSON number using
// its exact decimal text, so 12.50 is written as 12.5 and never as a float
// approximation.
type Decimal struct {
	decimal.Decimal
}

// NewDecimal wraps d.
func NewDecimal(d decimal.Decimal) Decimal {
	return Decimal{Decimal: d}
}

// ParseDecimal parses the decimal text of a database column.
func ParseDecimal(s string) (Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Decimal{}, err
	}
	return Decimal{Decimal: d}, nil
}

func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(d.Decimal.String()), nil
}

func (d *Decimal) UnmarshalJSON(b []byte) error {
	parsed, err := decimal.NewFromString(string(bytes.Trim(b, `"`)))
	if err != nil {
		return fmt.Errorf("stats: invalid decimal %s: %w", b, err)
	}
	d.Decimal = parsed
	return nil
}

// Number is the set of numeric types a KeyedMap may hold.
type Number interface {
	~int | ~int64 | ~float64 | Decimal
}

// Value is the payload of a stat: exactly one of a scalar, an ordered
// sequence of records or a label to number mapping.
type Value struct {
	kind   Kind
	scalar any
	items  []any
	keyed  map[string]any
}

// Kind reports which variant v holds.
func (v Value) Kind() Kind {
	return v.kind
}

// Text is a string scalar.
func Text(s string) Value {
	return Value{kind: KindScalar, scalar: s}
}

// Int is an integer scalar.
func Int(n int64) Value {
	return Value{kind: KindScalar, scalar: n}
}

// Fixed is a decimal scalar.
func Fixed(d Decimal) Value {
	return Value{kind: KindScalar, scalar: d}
}

// Sequence is an ordered list of records. Records are usually structs with
// json tags; their field order is preserved in the encoding.
func Sequence[T any](records []T) Value {
	items := make([]any, 0, len(records))
	for _, r := range records {
		items = append(items, r)
	}
	return Value{kind: KindSequence, items: items}
}

// KeyedMap maps labels to numbers.
func KeyedMap[N Number](entries map[string]N) Value {
	keyed := make(map[string]any, len(entries))
	for k, n := range entries {
		keyed[k] = n
	}
	return Value{kind: KindKeyedMap, keyed: keyed}
}

// Encode renders v in its stored textual form. String scalars are stored
// bare, numeric scalars as their decimal text, sequences and maps as JSON.
func (v Value) Encode() (string, error) {
	switch v.kind {
	case KindScalar:
		return encodeScalar(v.scalar)
	case KindSequence:
		if v.items == nil {
			return "[]", nil
		}
		return encodeJSON(v.items)
	case KindKeyedMap:
		if v.keyed == nil {
			return "{}", nil
		}
		return encodeJSON(v.keyed)
	default:
		return "", ErrUnknownValueKind
	}
}

func encodeScalar(s any) (string, error) {
	switch x := s.(type) {
	case string:
		return x, nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case Decimal:
		return x.Decimal.String(), nil
	default:
		return "", fmt.Errorf("%w: scalar of type %T", ErrUnknownValueKind, s)
	}
}

func encodeJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("stats: failed to encode value: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
