package runtime

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"phplite/internal/span"
)

// builtinFn is the signature of a native function. Arity and argument
// type violations are fatal, in keeping with the rest of the runtime.
type builtinFn func(i *Interp, args []Value, s span.Span) (Value, error)

// builtinTable returns the native function table. Lookups are done on
// lowercased names, so every key here must be lowercase.
func builtinTable() map[string]builtinFn {
	t := make(map[string]builtinFn)

	t["var_dump"] = func(i *Interp, args []Value, s span.Span) (Value, error) {
		if len(args) == 0 {
			return nil, i.fatal(s, "var_dump() expects at least 1 argument, 0 given")
		}
		var sb strings.Builder
		for _, v := range args {
			dumpValue(&sb, v, 0)
		}
		i.write(sb.String())
		return NullVal{}, nil
	}

	t["gettype"] = func(i *Interp, args []Value, s span.Span) (Value, error) {
		if len(args) != 1 {
			return nil, i.fatal(s, "gettype() expects exactly 1 argument, %d given", len(args))
		}
		return StringVal(args[0].TypeName()), nil
	}

	t["strval"] = func(i *Interp, args []Value, s span.Span) (Value, error) {
		if len(args) != 1 {
			return nil, i.fatal(s, "strval() expects exactly 1 argument, %d given", len(args))
		}
		return StringVal(i.outString(args[0], s)), nil
	}

	t["intval"] = func(i *Interp, args []Value, s span.Span) (Value, error) {
		if len(args) != 1 {
			return nil, i.fatal(s, "intval() expects exactly 1 argument, %d given", len(args))
		}
		return IntVal(ToInt(args[0])), nil
	}

	t["floatval"] = func(i *Interp, args []Value, s span.Span) (Value, error) {
		if len(args) != 1 {
			return nil, i.fatal(s, "floatval() expects exactly 1 argument, %d given", len(args))
		}
		return FloatVal(ToFloat(args[0])), nil
	}

	t["boolval"] = func(i *Interp, args []Value, s span.Span) (Value, error) {
		if len(args) != 1 {
			return nil, i.fatal(s, "boolval() expects exactly 1 argument, %d given", len(args))
		}
		return BoolVal(IsTruthy(args[0])), nil
	}

	t["strlen"] = func(i *Interp, args []Value, s span.Span) (Value, error) {
		if len(args) != 1 {
			return nil, i.fatal(s, "strlen() expects exactly 1 argument, %d given", len(args))
		}
		switch args[0].(type) {
		case *ArrayVal, *ObjectVal:
			return nil, i.fatal(s, "strlen(): Argument #1 ($string) must be of type string, %s given", typeShort(args[0]))
		}
		return IntVal(int64(len(args[0].String()))), nil
	}

	t["count"] = func(i *Interp, args []Value, s span.Span) (Value, error) {
		if len(args) != 1 {
			return nil, i.fatal(s, "count() expects exactly 1 argument, %d given", len(args))
		}
		arr, ok := args[0].(*ArrayVal)
		if !ok {
			return nil, i.fatal(s, "count(): Argument #1 ($value) must be of type Countable|array, %s given", typeShort(args[0]))
		}
		return IntVal(int64(arr.Len())), nil
	}

	pred := func(name string, match func(Value) bool) builtinFn {
		return func(i *Interp, args []Value, s span.Span) (Value, error) {
			if len(args) != 1 {
				return nil, i.fatal(s, "%s() expects exactly 1 argument, %d given", name, len(args))
			}
			return BoolVal(match(args[0])), nil
		}
	}

	t["is_int"] = pred("is_int", func(v Value) bool { _, ok := v.(IntVal); return ok })
	t["is_float"] = pred("is_float", func(v Value) bool { _, ok := v.(FloatVal); return ok })
	t["is_string"] = pred("is_string", func(v Value) bool { _, ok := v.(StringVal); return ok })
	t["is_bool"] = pred("is_bool", func(v Value) bool { _, ok := v.(BoolVal); return ok })
	t["is_null"] = pred("is_null", func(v Value) bool { _, ok := v.(NullVal); return ok })
	t["is_array"] = pred("is_array", func(v Value) bool { _, ok := v.(*ArrayVal); return ok })
	t["is_object"] = pred("is_object", func(v Value) bool { _, ok := v.(*ObjectVal); return ok })

	return t
}

// ============================================================
// var_dump rendering
// ============================================================

// dumpValue renders one value in var_dump's layout: scalars on one line,
// arrays and objects as braced blocks indented two spaces per level.
func dumpValue(sb *strings.Builder, v Value, indent int) {
	pad := strings.Repeat("  ", indent)
	switch val := v.(type) {
	case NullVal:
		sb.WriteString(pad + "NULL\n")
	case BoolVal:
		if val {
			sb.WriteString(pad + "bool(true)\n")
		} else {
			sb.WriteString(pad + "bool(false)\n")
		}
	case IntVal:
		fmt.Fprintf(sb, "%sint(%d)\n", pad, int64(val))
	case FloatVal:
		fmt.Fprintf(sb, "%sfloat(%s)\n", pad, dumpFloat(float64(val)))
	case StringVal:
		fmt.Fprintf(sb, "%sstring(%d) \"%s\"\n", pad, len(val), string(val))
	case *ArrayVal:
		fmt.Fprintf(sb, "%sarray(%d) {\n", pad, val.Len())
		for _, k := range val.Keys() {
			if k.IsInt {
				fmt.Fprintf(sb, "%s  [%d]=>\n", pad, k.I)
			} else {
				fmt.Fprintf(sb, "%s  [\"%s\"]=>\n", pad, k.S)
			}
			elem, _ := val.Get(k)
			dumpValue(sb, elem, indent+1)
		}
		sb.WriteString(pad + "}\n")
	case *ObjectVal:
		names := val.PropNames()
		fmt.Fprintf(sb, "%sobject(%s)#%d (%d) {\n", pad, val.Class.Name, val.ID, len(names))
		for _, name := range names {
			fmt.Fprintf(sb, "%s  [\"%s\"]=>\n", pad, name)
			dumpValue(sb, val.Prop(name).Get(), indent+1)
		}
		sb.WriteString(pad + "}\n")
	}
}

// Dump renders a single value in var_dump form, without the trailing
// newline. The REPL uses it to echo expression results.
func Dump(v Value) string {
	var sb strings.Builder
	dumpValue(&sb, v, 0)
	return strings.TrimRight(sb.String(), "\n")
}

// dumpFloat uses the shortest round-trip rendering, not echo's
// 14-digit cap.
func dumpFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "INF"
	}
	if math.IsInf(f, -1) {
		return "-INF"
	}
	if math.IsNaN(f) {
		return "NAN"
	}
	return strconv.FormatFloat(f, 'G', -1, 64)
}
