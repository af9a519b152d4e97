package runtime

import (
	"math"
	"strconv"
	"strings"
)

// ============================================================
// Truthiness and numeric coercion
// ============================================================

// IsTruthy applies the standard boolean conversion: false, Null, zero,
// the empty string, the string "0" and the empty array are falsy;
// everything else, objects included, is truthy.
func IsTruthy(v Value) bool {
	switch val := v.(type) {
	case NullVal:
		return false
	case BoolVal:
		return bool(val)
	case IntVal:
		return val != 0
	case FloatVal:
		return val != 0
	case StringVal:
		return val != "" && val != "0"
	case *ArrayVal:
		return val.Len() > 0
	default:
		return true
	}
}

// ToInt converts a value to an integer: floats truncate toward zero,
// strings take their leading numeric prefix, arrays count as emptiness.
func ToInt(v Value) int64 {
	switch val := v.(type) {
	case IntVal:
		return int64(val)
	case FloatVal:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		// Out-of-range conversions are implementation-defined in Go;
		// saturate instead.
		if f >= math.MaxInt64 {
			return math.MaxInt64
		}
		if f <= math.MinInt64 {
			return math.MinInt64
		}
		return int64(f)
	case BoolVal:
		if val {
			return 1
		}
		return 0
	case StringVal:
		n := parseNumeric(string(val))
		if n.isInt {
			return n.i
		}
		return ToInt(FloatVal(n.f))
	case *ArrayVal:
		if val.Len() == 0 {
			return 0
		}
		return 1
	case *ObjectVal:
		return 1
	default:
		return 0
	}
}

// ToFloat converts a value to a float the same way.
func ToFloat(v Value) float64 {
	switch val := v.(type) {
	case IntVal:
		return float64(val)
	case FloatVal:
		return float64(val)
	case BoolVal:
		if val {
			return 1
		}
		return 0
	case StringVal:
		n := parseNumeric(string(val))
		if n.isInt {
			return float64(n.i)
		}
		return n.f
	case *ArrayVal:
		return float64(ToInt(v))
	case *ObjectVal:
		return 1
	default:
		return 0
	}
}

// toNumber coerces a value to IntVal or FloatVal for arithmetic. Numeric
// strings parse (a leading numeric prefix counts); anything else is zero.
func toNumber(v Value) Value {
	switch val := v.(type) {
	case IntVal, FloatVal:
		return val
	case StringVal:
		n := parseNumeric(string(val))
		if n.isInt {
			return IntVal(n.i)
		}
		return FloatVal(n.f)
	default:
		return IntVal(ToInt(v))
	}
}

// numeric is the result of scanning a string's leading numeric prefix.
type numeric struct {
	i     int64
	f     float64
	isInt bool
}

// parseNumeric scans the longest numeric prefix of s: optional leading
// whitespace, sign, digits, fraction, exponent. No prefix at all yields
// integer zero. An integral prefix too large for int64 becomes a float.
func parseNumeric(s string) numeric {
	i := 0
	for i < len(s) && isNumSpace(s[i]) {
		i++
	}
	start := i
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	isInt := true
	if i+1 < len(s) && s[i] == '.' && isDigit(s[i+1]) {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
		isInt = false
	}
	if digits == 0 {
		return numeric{isInt: true}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			i = j
			isInt = false
		}
	}
	text := s[start:i]
	if isInt {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return numeric{i: n, isInt: true}
		}
	}
	f, _ := strconv.ParseFloat(text, 64)
	return numeric{f: f}
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isNumSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\v' || ch == '\f'
}

func trimNumSpace(s string) string {
	start := 0
	for start < len(s) && isNumSpace(s[start]) {
		start++
	}
	end := len(s)
	for end > start && isNumSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

// IsNumericString reports whether the whole string is a well-formed
// number (surrounding whitespace aside). Comparison rules use this to
// decide between numeric and byte-wise string comparison.
func IsNumericString(s string) bool {
	t := trimNumSpace(s)
	if t == "" {
		return false
	}
	i := 0
	if t[i] == '+' || t[i] == '-' {
		i++
	}
	digits := 0
	for i < len(t) && isDigit(t[i]) {
		i++
		digits++
	}
	if i < len(t) && t[i] == '.' {
		i++
		for i < len(t) && isDigit(t[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(t) && (t[i] == 'e' || t[i] == 'E') {
		i++
		if i < len(t) && (t[i] == '+' || t[i] == '-') {
			i++
		}
		expDigits := 0
		for i < len(t) && isDigit(t[i]) {
			i++
			expDigits++
		}
		if expDigits == 0 {
			return false
		}
	}
	return i == len(t)
}

// ============================================================
// Equality and ordering
// ============================================================

// LooseEqual implements the == table for the supported variants:
// null compares as the empty string against strings and as a boolean
// against everything else; booleans convert their partner; numbers and
// numeric strings compare numerically; arrays compare as unordered
// key/value sets; objects compare by class and properties.
func LooseEqual(a, b Value) bool {
	switch av := a.(type) {
	case NullVal:
		switch bv := b.(type) {
		case NullVal:
			return true
		case StringVal:
			return bv == ""
		default:
			return !IsTruthy(b)
		}
	case BoolVal:
		return bool(av) == IsTruthy(b)
	case IntVal, FloatVal:
		switch b.(type) {
		case NullVal, BoolVal:
			return LooseEqual(b, a)
		case IntVal, FloatVal, StringVal:
			if ai, ok := a.(IntVal); ok {
				if bi, ok := b.(IntVal); ok {
					return ai == bi
				}
			}
			return ToFloat(a) == ToFloat(b)
		default:
			return false
		}
	case StringVal:
		switch bv := b.(type) {
		case NullVal, BoolVal:
			return LooseEqual(b, a)
		case IntVal, FloatVal:
			return ToFloat(a) == ToFloat(b)
		case StringVal:
			if IsNumericString(string(av)) && IsNumericString(string(bv)) {
				return ToFloat(av) == ToFloat(bv)
			}
			return av == bv
		default:
			return false
		}
	case *ArrayVal:
		switch bv := b.(type) {
		case NullVal, BoolVal:
			return LooseEqual(b, a)
		case *ArrayVal:
			return arraysLooseEqual(av, bv)
		default:
			return false
		}
	case *ObjectVal:
		switch bv := b.(type) {
		case NullVal, BoolVal:
			return LooseEqual(b, a)
		case *ObjectVal:
			return objectsLooseEqual(av, bv)
		default:
			return false
		}
	}
	return false
}

// arraysLooseEqual: same size and every key of a maps to a loosely-equal
// value in b, insertion order ignored.
func arraysLooseEqual(a, b *ArrayVal) bool {
	if a.Len() != b.Len() {
		return false
	}
	for _, key := range a.Keys() {
		av, _ := a.Get(key)
		bv, ok := b.Get(key)
		if !ok || !LooseEqual(av, bv) {
			return false
		}
	}
	return true
}

// objectsLooseEqual: same instance, or same class with loosely-equal
// properties.
func objectsLooseEqual(a, b *ObjectVal) bool {
	if a == b {
		return true
	}
	if a.Class != b.Class || len(a.PropNames()) != len(b.PropNames()) {
		return false
	}
	for _, name := range a.PropNames() {
		bCell := b.Prop(name)
		if bCell == nil || !LooseEqual(a.Prop(name).Get(), bCell.Get()) {
			return false
		}
	}
	return true
}

// StrictEqual implements ===: same variant and same value. Arrays need
// identical key order and strictly-equal elements; objects need identity.
func StrictEqual(a, b Value) bool {
	switch av := a.(type) {
	case NullVal:
		_, ok := b.(NullVal)
		return ok
	case BoolVal:
		bv, ok := b.(BoolVal)
		return ok && av == bv
	case IntVal:
		bv, ok := b.(IntVal)
		return ok && av == bv
	case FloatVal:
		bv, ok := b.(FloatVal)
		return ok && av == bv
	case StringVal:
		bv, ok := b.(StringVal)
		return ok && av == bv
	case *ArrayVal:
		bv, ok := b.(*ArrayVal)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		bKeys := bv.Keys()
		for idx, key := range av.Keys() {
			if bKeys[idx] != key {
				return false
			}
			x, _ := av.Get(key)
			y, _ := bv.Get(key)
			if !StrictEqual(x, y) {
				return false
			}
		}
		return true
	case *ObjectVal:
		return a == b
	}
	return false
}

// Compare orders two values for < <= > >= and <=>, returning -1, 0 or 1.
// Non-numeric strings compare byte-wise; null against a string compares
// as the empty string; booleans and null otherwise compare as booleans;
// arrays outrank scalars and compare by size first.
func Compare(a, b Value) int {
	switch av := a.(type) {
	case StringVal:
		if bv, ok := b.(StringVal); ok {
			if IsNumericString(string(av)) && IsNumericString(string(bv)) {
				return compareFloats(ToFloat(av), ToFloat(bv))
			}
			return strings.Compare(string(av), string(bv))
		}
		if _, ok := b.(NullVal); ok {
			return strings.Compare(string(av), "")
		}
	case NullVal:
		if bv, ok := b.(StringVal); ok {
			return strings.Compare("", string(bv))
		}
	case *ArrayVal:
		if bv, ok := b.(*ArrayVal); ok {
			return compareArrays(av, bv)
		}
		return 1
	}
	if _, ok := b.(*ArrayVal); ok {
		return -1
	}
	if isBoolish(a) || isBoolish(b) {
		return compareBools(IsTruthy(a), IsTruthy(b))
	}
	if ai, ok := a.(IntVal); ok {
		if bi, ok := b.(IntVal); ok {
			return compareInts(int64(ai), int64(bi))
		}
	}
	return compareFloats(ToFloat(a), ToFloat(b))
}

func compareInts(a, b int64) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

func isBoolish(v Value) bool {
	switch v.(type) {
	case BoolVal, NullVal:
		return true
	}
	return false
}

func compareBools(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}

func compareFloats(a, b float64) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// compareArrays: fewer entries sorts first; same size compares the values
// of a's keys in order, treating a missing key in b as greater.
func compareArrays(a, b *ArrayVal) int {
	if a.Len() != b.Len() {
		return compareFloats(float64(a.Len()), float64(b.Len()))
	}
	for _, key := range a.Keys() {
		av, _ := a.Get(key)
		bv, ok := b.Get(key)
		if !ok {
			return 1
		}
		if c := Compare(av, bv); c != 0 {
			return c
		}
	}
	return 0
}
