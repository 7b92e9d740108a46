package stream

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// ============================================================================
// RECORD SYSTEM - STRUCTURED STREAM ELEMENTS
// ============================================================================

// Record is the structured element type of this library: a field map holding
// native Go values. Record streams come out of the IO adapters and flow
// through the same transformers, folds, and parsers as any other element
// type.
type Record map[string]any

// RecordStream is the common shape of structured data pipelines.
type RecordStream = Stream[Record]

// R builds a record from alternating keys and values. Keys must be strings;
// an odd argument count is a construction bug and panics.
func R(pairs ...any) Record {
	if len(pairs)%2 != 0 {
		panic("R() requires an even number of arguments (key-value pairs)")
	}
	r := make(Record, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		r[pairs[i].(string)] = pairs[i+1]
	}
	return r
}

// RecordFrom adopts an existing map as a Record without copying.
func RecordFrom(m map[string]any) Record {
	return Record(m)
}

// RecordsFrom adopts a slice of maps as Records.
func RecordsFrom(ms []map[string]any) []Record {
	records := make([]Record, len(ms))
	for i, m := range ms {
		records[i] = Record(m)
	}
	return records
}

// ============================================================================
// TYPED FIELD ACCESS
// ============================================================================

// Get reads a field as type T. A direct type match is returned as is; other
// values go through the scalar coercion rules below. The (value, ok) result
// follows the same partial-function convention as MapMaybe: false means the
// field is missing, nil, or not representable as T.
func Get[T any](r Record, field string) (T, bool) {
	var zero T
	val, exists := r[field]
	if !exists || val == nil {
		return zero, false
	}
	if typed, ok := val.(T); ok {
		return typed, true
	}
	return coerce[T](val)
}

// GetOr reads a field as type T, falling back to a default.
func GetOr[T any](r Record, field string, fallback T) T {
	if val, ok := Get[T](r, field); ok {
		return val
	}
	return fallback
}

// Set assigns a field and returns the record for chaining.
func (r Record) Set(field string, value any) Record {
	r[field] = value
	return r
}

// Has reports whether a field exists.
func (r Record) Has(field string) bool {
	_, exists := r[field]
	return exists
}

// Keys returns the field names in unspecified order.
func (r Record) Keys() []string {
	return slices.Collect(maps.Keys(r))
}

// Decode fills a struct from the record's fields.
func (r Record) Decode(out any) error {
	return mapstructure.Decode(map[string]any(r), out)
}

// RecordOf builds a Record from a struct's fields.
func RecordOf(v any) (Record, error) {
	m := make(map[string]any)
	if err := mapstructure.Decode(v, &m); err != nil {
		return nil, fmt.Errorf("failed to convert %T to record: %w", v, err)
	}
	return Record(m), nil
}

// FromStructs creates a RecordStream from a slice of structs.
func FromStructs[T any](items []T) RecordStream {
	index := 0
	return func() Step[Record] {
		if index >= len(items) {
			return Stop[Record]()
		}
		rec, err := RecordOf(items[index])
		if err != nil {
			return StopWith[Record](err)
		}
		index++
		return Yield(rec)
	}
}

// DecodeStructs converts a RecordStream into a stream of structs.
func DecodeStructs[T any](input RecordStream) Stream[T] {
	return MapEffect(func(r Record) (T, error) {
		var out T
		if err := r.Decode(&out); err != nil {
			var zero T
			return zero, fmt.Errorf("failed to decode record: %w", err)
		}
		return out, nil
	})(input)
}

// ExtractField gets a typed field from records
func ExtractField[T any](field string) Transform[Record, T] {
	return Map(func(r Record) T {
		val, _ := Get[T](r, field)
		return val
	})
}

// ============================================================================
// SCALAR COERCION
// ============================================================================

// coerce converts a field value to the requested type. The switch drives on
// the destination; numeric sources are classified once by reflect kind so
// every named integer, unsigned, and float type coerces the same way.
// Supported destinations are the scalar types the IO adapters produce:
// int64, float64, string, bool, and time.Time. Anything else falls back to
// plain Go convertibility.
func coerce[T any](val any) (T, bool) {
	var out T
	switch dst := any(&out).(type) {
	case *int64:
		i, f, isFloat, ok := numericOf(val)
		if !ok {
			return out, false
		}
		if isFloat {
			*dst = int64(f)
		} else {
			*dst = i
		}
	case *float64:
		i, f, isFloat, ok := numericOf(val)
		if !ok {
			return out, false
		}
		if isFloat {
			*dst = f
		} else {
			*dst = float64(i)
		}
	case *string:
		*dst = FormatScalar(val)
	case *bool:
		b, ok := truthOf(val)
		if !ok {
			return out, false
		}
		*dst = b
	case *time.Time:
		t, ok := timeOf(val)
		if !ok {
			return out, false
		}
		*dst = t
	default:
		rv := reflect.ValueOf(val)
		rt := reflect.TypeOf(out)
		if rt == nil || !rv.IsValid() || !rv.Type().ConvertibleTo(rt) {
			return out, false
		}
		return rv.Convert(rt).Interface().(T), true
	}
	return out, true
}

// numericOf classifies any built-in numeric value as integral or floating.
func numericOf(val any) (i int64, f float64, isFloat, ok bool) {
	rv := reflect.ValueOf(val)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), 0, false, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), 0, false, true
	case reflect.Float32, reflect.Float64:
		return 0, rv.Float(), true, true
	}
	return 0, 0, false, false
}

// truthOf reads a value as a boolean: zero numbers and empty strings are
// false, everything else true.
func truthOf(val any) (bool, bool) {
	switch v := val.(type) {
	case bool:
		return v, true
	case string:
		return v != "", true
	}
	if i, f, isFloat, ok := numericOf(val); ok {
		if isFloat {
			return f != 0, true
		}
		return i != 0, true
	}
	return false, false
}

// timeOf reads a value as a timestamp: native times pass through, strings
// try the text layouts, integers count Unix seconds.
func timeOf(val any) (time.Time, bool) {
	switch v := val.(type) {
	case time.Time:
		return v, true
	case string:
		for _, layout := range scalarTimeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	}
	if i, _, isFloat, ok := numericOf(val); ok && !isFloat {
		return time.Unix(i, 0), true
	}
	return time.Time{}, false
}

// ============================================================================
// SCALAR TEXT CODEC
// ============================================================================

// scalarTimeLayouts are the timestamp shapes the text codec recognizes.
// RFC3339Nano also accepts fraction-free RFC3339 input, so it goes first.
var scalarTimeLayouts = []string{
	time.RFC3339Nano,
	time.DateTime,
	time.DateOnly,
}

// scalarReaders are tried in order on untyped text fields; the first reader
// to accept the text wins. The order is deliberate: bool literals must not
// reach the number readers, and "1" must stay integral rather than float.
var scalarReaders = []func(string) (any, bool){
	readBool,
	readInt,
	readFloat,
	readTime,
}

// ParseScalar reads one untyped text field, as the CSV adapter does for
// every cell: booleans, integers, floats, then timestamps, with the raw
// text itself as the fallback.
func ParseScalar(text string) any {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	for _, read := range scalarReaders {
		if v, ok := read(text); ok {
			return v
		}
	}
	return text
}

// FormatScalar renders a field value back to text, inverting ParseScalar
// for every type it produces.
func FormatScalar(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	}
	if i, f, isFloat, ok := numericOf(val); ok {
		if isFloat {
			s := strconv.FormatFloat(f, 'g', -1, 64)
			if !strings.ContainsAny(s, ".eEnN") {
				// A whole float keeps a fraction so it reads back as a float.
				s += ".0"
			}
			return s
		}
		return strconv.FormatInt(i, 10)
	}
	return fmt.Sprint(val)
}

func readBool(s string) (any, bool) {
	switch strings.ToLower(s) {
	case "true", "t", "yes", "y":
		return true, true
	case "false", "f", "no", "n":
		return false, true
	}
	return nil, false
}

func readInt(s string) (any, bool) {
	v, err := strconv.ParseInt(s, 10, 64)
	return v, err == nil
}

func readFloat(s string) (any, bool) {
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

func readTime(s string) (any, bool) {
	for _, layout := range scalarTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return nil, false
}
