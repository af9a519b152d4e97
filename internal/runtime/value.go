// Package runtime implements the interpreter and runtime value system for phplite.
package runtime

import (
	"fmt"
	"math"
	"strconv"

	"phplite/internal/ast"
)

// Value is the interface for all runtime values.
type Value interface {
	// TypeName returns the type name in gettype() style, e.g. "integer".
	TypeName() string
	String() string
}

// ============================================================
// Primitive values
// ============================================================

// NullVal represents the null value. It stringifies to the literal text
// "null", not the empty string.
type NullVal struct{}

func (v NullVal) TypeName() string { return "NULL" }
func (v NullVal) String() string   { return "null" }

// BoolVal represents a boolean value.
type BoolVal bool

func (v BoolVal) TypeName() string { return "boolean" }
func (v BoolVal) String() string {
	if v {
		return "1"
	}
	return "0"
}

// IntVal represents a 64-bit integer value.
type IntVal int64

func (v IntVal) TypeName() string { return "integer" }
func (v IntVal) String() string   { return strconv.FormatInt(int64(v), 10) }

// FloatVal represents a floating-point value.
type FloatVal float64

func (v FloatVal) TypeName() string { return "double" }
func (v FloatVal) String() string   { return formatFloat(float64(v)) }

// formatFloat renders a float the way echo does: integral values print
// without a decimal point, and precision is capped at 14 significant digits.
func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "INF"
	}
	if math.IsInf(f, -1) {
		return "-INF"
	}
	if math.IsNaN(f) {
		return "NAN"
	}
	return strconv.FormatFloat(f, 'G', 14, 64)
}

// StringVal represents a string value.
type StringVal string

func (v StringVal) TypeName() string { return "string" }
func (v StringVal) String() string   { return string(v) }

// ============================================================
// Arrays
// ============================================================

// ArrayKey is a normalized array key: either an integer or a string.
type ArrayKey struct {
	S     string
	I     int64
	IsInt bool
}

func (k ArrayKey) String() string {
	if k.IsInt {
		return strconv.FormatInt(k.I, 10)
	}
	return k.S
}

// IntKey returns an integer array key.
func IntKey(i int64) ArrayKey { return ArrayKey{I: i, IsInt: true} }

// StrKey returns a string array key, folding integral numeric strings
// into integer keys the way PHP does ("5" and 5 are the same key).
func StrKey(s string) ArrayKey {
	if n, ok := integralString(s); ok {
		return IntKey(n)
	}
	return ArrayKey{S: s}
}

// integralString reports whether s is a canonical decimal integer
// ("5", "-3", "0"; not "05", "1.0", " 1").
func integralString(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	if len(s) > 1 && s[0] == '0' {
		return 0, false
	}
	if len(s) >= 2 && s[0] == '-' && s[1] == '0' {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// KeyOf normalizes an arbitrary value into an array key. Null becomes the
// empty string key, bools become 0/1, floats truncate toward zero.
func KeyOf(v Value) (ArrayKey, bool) {
	switch k := v.(type) {
	case IntVal:
		return IntKey(int64(k)), true
	case StringVal:
		return StrKey(string(k)), true
	case BoolVal:
		if k {
			return IntKey(1), true
		}
		return IntKey(0), true
	case FloatVal:
		return IntKey(ToInt(k)), true
	case NullVal:
		return ArrayKey{S: ""}, true
	default:
		return ArrayKey{}, false
	}
}

// ArrayVal is an ordered hash map from normalized keys to values.
// Arrays have value semantics: assignment and argument passing copy.
type ArrayVal struct {
	keys    []ArrayKey
	entries map[ArrayKey]Value
	nextIdx int64
}

// NewArray returns a fresh empty array.
func NewArray() *ArrayVal {
	return &ArrayVal{entries: make(map[ArrayKey]Value)}
}

func (a *ArrayVal) TypeName() string { return "array" }
func (a *ArrayVal) String() string   { return "Array" }

// Len returns the number of entries.
func (a *ArrayVal) Len() int { return len(a.keys) }

// Keys returns the keys in insertion order.
func (a *ArrayVal) Keys() []ArrayKey { return a.keys }

// Get looks up a key.
func (a *ArrayVal) Get(key ArrayKey) (Value, bool) {
	v, ok := a.entries[key]
	return v, ok
}

// Set stores a value under key, appending the key if it is new.
func (a *ArrayVal) Set(key ArrayKey, v Value) {
	if _, ok := a.entries[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.entries[key] = v
	if key.IsInt && key.I >= a.nextIdx {
		a.nextIdx = key.I + 1
	}
}

// Append stores a value under the next free integer index.
func (a *ArrayVal) Append(v Value) {
	a.Set(IntKey(a.nextIdx), v)
}

// Unset removes a key, preserving the order of the remaining entries.
// The next append index is not rewound, matching PHP.
func (a *ArrayVal) Unset(key ArrayKey) {
	if _, ok := a.entries[key]; !ok {
		return
	}
	delete(a.entries, key)
	for i, k := range a.keys {
		if k == key {
			a.keys = append(a.keys[:i], a.keys[i+1:]...)
			break
		}
	}
}

// Clone returns a deep copy. Nested arrays are copied recursively;
// objects keep reference semantics and are shared.
func (a *ArrayVal) Clone() *ArrayVal {
	c := &ArrayVal{
		keys:    make([]ArrayKey, len(a.keys)),
		entries: make(map[ArrayKey]Value, len(a.entries)),
		nextIdx: a.nextIdx,
	}
	copy(c.keys, a.keys)
	for k, v := range a.entries {
		if nested, ok := v.(*ArrayVal); ok {
			c.entries[k] = nested.Clone()
		} else {
			c.entries[k] = v
		}
	}
	return c
}

// CopyValue deep-copies v if it is an array, preserving value semantics
// on assignment. All other values pass through unchanged.
func CopyValue(v Value) Value {
	if a, ok := v.(*ArrayVal); ok {
		return a.Clone()
	}
	return v
}

// ============================================================
// Classes and objects
// ============================================================

// PropDef is a declared property. Default is evaluated once, at class
// declaration time; nil means the property starts as Null.
type PropDef struct {
	Name      string
	Modifiers []string
	Default   Value
}

// Param is a constructor parameter. Type is the lowercased hint ("" when
// untyped), Default the declaration-time value (nil when required), and
// Promoted is set when any visibility modifier is present.
type Param struct {
	Name      string
	Type      string
	Modifiers []string
	Default   Value
}

// Promoted reports whether the parameter doubles as an instance property.
func (p *Param) Promoted() bool { return len(p.Modifiers) > 0 }

// Ctor is a class constructor. Body is taken (cleared in place) the first
// time the constructor runs, so later instantiations execute an empty body.
type Ctor struct {
	Params []*Param
	Body   []ast.Stmt
}

// ClassVal is a runtime class. Classes are values only insofar as
// instanceof needs them; scripts cannot reference them directly.
type ClassVal struct {
	Name     string
	Abstract bool
	Parent   *ClassVal
	Props    []*PropDef
	Ctor     *Ctor
}

func (c *ClassVal) TypeName() string { return "class" }
func (c *ClassVal) String() string   { return c.Name }

// IsSubclassOf walks the parent chain, inclusive of c itself.
func (c *ClassVal) IsSubclassOf(other *ClassVal) bool {
	for cur := c; cur != nil; cur = cur.Parent {
		if cur == other {
			return true
		}
	}
	return false
}

// ObjectVal is a class instance. Objects have reference semantics:
// assignment shares the same instance. Properties live in cells so that
// promoted constructor parameters can alias them.
type ObjectVal struct {
	Class     *ClassVal
	ID        int // instance number, shown by var_dump
	propOrder []string
	props     map[string]*Cell
}

// NewObject returns an instance of class with no properties bound yet.
func NewObject(class *ClassVal) *ObjectVal {
	return &ObjectVal{Class: class, props: make(map[string]*Cell)}
}

func (o *ObjectVal) TypeName() string { return "object" }
func (o *ObjectVal) String() string   { return fmt.Sprintf("object(%s)", o.Class.Name) }

// Prop returns the cell for a property, or nil if not present.
func (o *ObjectVal) Prop(name string) *Cell {
	return o.props[name]
}

// BindProp installs a cell for a property, keeping declaration order.
func (o *ObjectVal) BindProp(name string, cell *Cell) {
	if _, ok := o.props[name]; !ok {
		o.propOrder = append(o.propOrder, name)
	}
	o.props[name] = cell
}

// UnsetProp removes a property binding.
func (o *ObjectVal) UnsetProp(name string) {
	if _, ok := o.props[name]; !ok {
		return
	}
	delete(o.props, name)
	for i, n := range o.propOrder {
		if n == name {
			o.propOrder = append(o.propOrder[:i], o.propOrder[i+1:]...)
			break
		}
	}
}

// PropNames returns property names in binding order.
func (o *ObjectVal) PropNames() []string { return o.propOrder }
