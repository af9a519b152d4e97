package runtime

import (
	"math"
	"testing"
)

func TestIsTruthy(t *testing.T) {
	filled := NewArray()
	filled.Append(IntVal(1))
	obj := NewObject(&ClassVal{Name: "T"})

	falsy := []Value{
		NullVal{}, BoolVal(false), IntVal(0), FloatVal(0),
		StringVal(""), StringVal("0"), NewArray(),
	}
	for _, v := range falsy {
		if IsTruthy(v) {
			t.Errorf("IsTruthy(%v) = true, want false", v)
		}
	}

	truthy := []Value{
		BoolVal(true), IntVal(-1), FloatVal(0.1),
		StringVal("0.0"), StringVal("00"), StringVal(" "), StringVal("false"),
		filled, obj,
	}
	for _, v := range truthy {
		if !IsTruthy(v) {
			t.Errorf("IsTruthy(%v) = false, want true", v)
		}
	}
}

func TestToInt(t *testing.T) {
	filled := NewArray()
	filled.Append(IntVal(7))

	cases := []struct {
		in   Value
		want int64
	}{
		{IntVal(5), 5},
		{FloatVal(3.9), 3},
		{FloatVal(-3.9), -3},
		{BoolVal(true), 1},
		{BoolVal(false), 0},
		{NullVal{}, 0},
		{StringVal("12abc"), 12},
		{StringVal(" 42"), 42},
		{StringVal("-7"), -7},
		{StringVal("1e2"), 100},
		{StringVal("1e"), 1},
		{StringVal("abc"), 0},
		{StringVal(".5"), 0},
		{StringVal("9223372036854775808"), math.MaxInt64},
		{NewArray(), 0},
		{filled, 1},
	}
	for _, c := range cases {
		if got := ToInt(c.in); got != c.want {
			t.Errorf("ToInt(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestToFloat(t *testing.T) {
	cases := []struct {
		in   Value
		want float64
	}{
		{FloatVal(2.5), 2.5},
		{IntVal(3), 3},
		{BoolVal(true), 1},
		{NullVal{}, 0},
		{StringVal("2.5"), 2.5},
		{StringVal("1e-2"), 0.01},
		{StringVal("3.5kg"), 3.5},
		{StringVal("abc"), 0},
	}
	for _, c := range cases {
		if got := ToFloat(c.in); got != c.want {
			t.Errorf("ToFloat(%v) = %g, want %g", c.in, got, c.want)
		}
	}
}

func TestParseNumericPrefix(t *testing.T) {
	cases := []struct {
		in    string
		isInt bool
		i     int64
		f     float64
	}{
		{"42", true, 42, 0},
		{"+3", true, 3, 0},
		{" 42", true, 42, 0},
		{"5.", true, 5, 0},
		{".5", false, 0, 0.5},
		{"1.5x", false, 0, 1.5},
		{"1e2", false, 0, 100},
		{"abc", true, 0, 0},
		{"", true, 0, 0},
	}
	for _, c := range cases {
		n := parseNumeric(c.in)
		if n.isInt != c.isInt || n.i != c.i || n.f != c.f {
			t.Errorf("parseNumeric(%q) = %+v, want isInt=%v i=%d f=%g",
				c.in, n, c.isInt, c.i, c.f)
		}
	}
}

func TestIsNumericString(t *testing.T) {
	yes := []string{"5", "-5", "+5", "0", "5.5", ".5", "5.", "1e3", "1E+3", "1.5e-2", " 42 "}
	for _, s := range yes {
		if !IsNumericString(s) {
			t.Errorf("IsNumericString(%q) = false, want true", s)
		}
	}
	no := []string{"", " ", "abc", "1e", "1e+", "5x", "x5", "1.2.3", "0x1A", "+", "-", "e5"}
	for _, s := range no {
		if IsNumericString(s) {
			t.Errorf("IsNumericString(%q) = true, want false", s)
		}
	}
}

func TestLooseEqual(t *testing.T) {
	cases := []struct {
		a, b Value
		want bool
	}{
		{IntVal(5), IntVal(5), true},
		{IntVal(5), IntVal(6), false},
		{IntVal(1), FloatVal(1.0), true},
		{IntVal(0), StringVal("abc"), true},
		{IntVal(100), StringVal("1e2"), true},
		{StringVal("1"), StringVal("01"), true},
		{StringVal("10"), StringVal("1e1"), true},
		{StringVal("abc"), StringVal("abc"), true},
		{StringVal("abc"), StringVal("ABC"), false},
		{NullVal{}, StringVal(""), true},
		{NullVal{}, StringVal("0"), false},
		{NullVal{}, IntVal(0), true},
		{NullVal{}, BoolVal(false), true},
		{NullVal{}, NewArray(), true},
		{BoolVal(true), IntVal(-1), true},
		{BoolVal(false), StringVal("0"), true},
		{BoolVal(true), StringVal("0"), false},
		// Beyond float precision: the integer fast path must decide.
		{IntVal(9007199254740993), IntVal(9007199254740992), false},
	}
	for _, c := range cases {
		if got := LooseEqual(c.a, c.b); got != c.want {
			t.Errorf("LooseEqual(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
		}
		if got := LooseEqual(c.b, c.a); got != c.want {
			t.Errorf("LooseEqual(%v, %v) = %v, want %v", c.b, c.a, got, c.want)
		}
	}
}

func TestArrayEqualityIgnoresOrderLooseOnly(t *testing.T) {
	forward := NewArray()
	forward.Append(IntVal(1))
	forward.Append(IntVal(2))

	sameOrder := NewArray()
	sameOrder.Append(IntVal(1))
	sameOrder.Append(IntVal(2))

	reversed := NewArray()
	reversed.Set(IntKey(1), IntVal(2))
	reversed.Set(IntKey(0), IntVal(1))

	if !LooseEqual(forward, reversed) {
		t.Error("loose equality should ignore insertion order")
	}
	if StrictEqual(forward, reversed) {
		t.Error("strict equality should require the same key order")
	}
	if !StrictEqual(forward, sameOrder) {
		t.Error("identical arrays should be strictly equal")
	}

	loose := NewArray()
	loose.Append(StringVal("1"))
	strict := NewArray()
	strict.Append(IntVal(1))
	if !LooseEqual(loose, strict) {
		t.Error(`[0 => "1"] should loosely equal [0 => 1]`)
	}
	if StrictEqual(loose, strict) {
		t.Error(`[0 => "1"] should not strictly equal [0 => 1]`)
	}
}

func TestStrictEqualScalars(t *testing.T) {
	if StrictEqual(IntVal(1), FloatVal(1)) {
		t.Error("int and float are never identical")
	}
	if StrictEqual(StringVal("1"), IntVal(1)) {
		t.Error("string and int are never identical")
	}
	if !StrictEqual(NullVal{}, NullVal{}) {
		t.Error("null is identical to null")
	}
	if StrictEqual(BoolVal(false), NullVal{}) {
		t.Error("false is not identical to null")
	}
}

func TestCompare(t *testing.T) {
	one := NewArray()
	one.Append(IntVal(1))
	oneBigger := NewArray()
	oneBigger.Append(IntVal(5))
	two := NewArray()
	two.Append(IntVal(1))
	two.Append(IntVal(2))

	cases := []struct {
		a, b Value
		want int
	}{
		{IntVal(2), IntVal(10), -1},
		{FloatVal(2.5), FloatVal(2.5), 0},
		{StringVal("5"), IntVal(10), -1},
		{StringVal("10"), StringVal("9"), 1},
		{StringVal("abc"), StringVal("abd"), -1},
		{NullVal{}, StringVal("a"), -1},
		{StringVal("a"), NullVal{}, 1},
		{NullVal{}, NullVal{}, 0},
		{BoolVal(false), IntVal(-1), -1},
		{BoolVal(true), IntVal(100), 0},
		{two, one, 1},
		{one, oneBigger, -1},
		{one, IntVal(99), 1},
		{IntVal(99), one, -1},
	}
	for _, c := range cases {
		if got := Compare(c.a, c.b); got != c.want {
			t.Errorf("Compare(%v, %v) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestKeyOf(t *testing.T) {
	cases := []struct {
		in   Value
		want ArrayKey
	}{
		{IntVal(5), IntKey(5)},
		{StringVal("5"), IntKey(5)},
		{StringVal("-3"), IntKey(-3)},
		{StringVal("05"), ArrayKey{S: "05"}},
		{StringVal("-0"), ArrayKey{S: "-0"}},
		{StringVal("abc"), ArrayKey{S: "abc"}},
		{StringVal("9223372036854775808"), ArrayKey{S: "9223372036854775808"}},
		{FloatVal(1.9), IntKey(1)},
		{BoolVal(true), IntKey(1)},
		{BoolVal(false), IntKey(0)},
		{NullVal{}, ArrayKey{S: ""}},
	}
	for _, c := range cases {
		got, ok := KeyOf(c.in)
		if !ok || got != c.want {
			t.Errorf("KeyOf(%v) = %v, %v; want %v", c.in, got, ok, c.want)
		}
	}

	if _, ok := KeyOf(NewArray()); ok {
		t.Error("arrays must not normalize to a key")
	}
	if _, ok := KeyOf(NewObject(&ClassVal{Name: "T"})); ok {
		t.Error("objects must not normalize to a key")
	}
}

func TestIntegralString(t *testing.T) {
	if n, ok := integralString("5"); !ok || n != 5 {
		t.Errorf(`integralString("5") = %d, %v`, n, ok)
	}
	if n, ok := integralString("-3"); !ok || n != -3 {
		t.Errorf(`integralString("-3") = %d, %v`, n, ok)
	}
	for _, s := range []string{"", "05", "-0", " 1", "1.0", "1e2", "9223372036854775808"} {
		if _, ok := integralString(s); ok {
			t.Errorf("integralString(%q) accepted, want rejected", s)
		}
	}
}
