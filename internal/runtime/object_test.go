package runtime

import "testing"

// ---- Declarations and instantiation ----

func TestClassDeclarationAndDefaults(t *testing.T) {
	expectOutput(t, `<?php
class Point { public $x = 1; public $y; }
$p = new Point();
echo $p->x, $p->y;`, "1null")
}

func TestNewWithoutParens(t *testing.T) {
	expectOutput(t, `<?php
class Bare { public $n = 3; }
$b = new Bare;
echo $b->n;`, "3")
}

func TestClassNamesCaseInsensitive(t *testing.T) {
	expectOutput(t, `<?php
class Widget { public $n = 1; }
$w = new WIDGET();
echo $w->n;`, "1")
}

func TestNoConstructorEvaluatesAndDropsArguments(t *testing.T) {
	expectOutput(t, `<?php
class Plain {}
$p = new Plain(1, "x");
echo gettype($p);`, "object")

	// Arguments are still evaluated for their side effects.
	expectOutput(t, `<?php
class Plain {}
new Plain($u = 5);
echo $u;`, "5")
}

// ---- Constructors ----

func TestConstructorRuns(t *testing.T) {
	expectOutput(t, `<?php
class Greeter {
    public $msg;
    public function __construct() { $this->msg = "hi"; }
}
$g = new Greeter();
echo $g->msg;`, "hi")
}

func TestConstructorBodyRunsOnce(t *testing.T) {
	expectOutput(t, `<?php
class Once { public function __construct() { echo "ctor!"; } }
new Once();
new Once();
new Once();`, "ctor!")
}

func TestConstructorBodySharedWithSubclass(t *testing.T) {
	// The subclass runs the inherited constructor body first, which
	// empties it for the base class as well.
	expectOutput(t, `<?php
class Sound { public function __construct() { echo "X"; } }
class Echoer extends Sound {}
new Echoer();
new Sound();`, "X")
}

func TestPromotedParamsBindAfterBodyCleared(t *testing.T) {
	expectOutput(t, `<?php
class P {
    public $v;
    public function __construct(public $x = 0) { $this->v = 99; }
}
$a = new P(1);
$b = new P(2);
echo $a->x, $b->x, $a->v, $b->v;`, "1299null")
}

func TestPromotedParamSharesCellWithProperty(t *testing.T) {
	expectOutput(t, `<?php
class Boxed { public function __construct(public $n) { $n = 42; } }
$b = new Boxed(5);
echo $b->n;`, "42")

	expectOutput(t, `<?php
class Pair {
    public $snapshot;
    public function __construct(public $n) {
        $this->snapshot = $n;
        $n = 9;
    }
}
$p = new Pair(3);
echo $p->snapshot, $p->n;`, "39")
}

func TestThisBinding(t *testing.T) {
	expectOutput(t, `<?php
class Counter {
    public $v = 0;
    public function __construct() { $this->v = 7; }
}
$c = new Counter();
echo $c->v;`, "7")
}

func TestConstructorScopeIsolation(t *testing.T) {
	expectOutput(t, `<?php
$outer = "invisible";
class Iso { public function __construct() { echo isset($outer); } }
new Iso();`, "0")

	expectOutput(t, `<?php
class Leaky { public function __construct() { $local = 5; } }
new Leaky();
echo isset($local);`, "0")
}

func TestReturnStopsConstructor(t *testing.T) {
	expectOutput(t, `<?php
class Early {
    public $v = 0;
    public function __construct() {
        $this->v = 1;
        return;
        $this->v = 2;
    }
}
$e = new Early();
echo $e->v;`, "1")
}

// ---- Constructor arguments ----

func TestNamedArguments(t *testing.T) {
	expectOutput(t, `<?php
class Conf { public function __construct(public $a, public $b = 2, public $c = 3) {} }
$k = new Conf(1, c: 30);
echo $k->a, $k->b, $k->c;`, "1230")
}

func TestNamedArgumentErrors(t *testing.T) {
	decl := `<?php
class Conf { public function __construct(public $a, public $b = 2) {} }
`
	expectError(t, decl+`new Conf(1, z: 5);`, "Unknown named argument $z")
	expectError(t, decl+`new Conf(a: 1, a: 2);`, "Named argument $a overwrites previous argument")
	expectError(t, decl+`new Conf(b: 1, 2);`, "Cannot use positional argument after named argument")
	expectError(t, decl+`new Conf(1, a: 5);`, "Named argument $a overwrites previous argument")
}

func TestTooFewArguments(t *testing.T) {
	expectError(t, `<?php
class Coord { public function __construct($a, $b) {} }
new Coord(1);`, "Too few arguments to function Coord::__construct(), 1 passed and exactly 2 expected")

	expectError(t, `<?php
class Opt { public function __construct($a, $b = 1) {} }
new Opt();`, "Too few arguments to function Opt::__construct(), 0 passed and at least 1 expected")
}

func TestExtraPositionalArgumentsIgnored(t *testing.T) {
	expectOutput(t, `<?php
class One { public function __construct(public $a) {} }
$o = new One(1, 2, 3);
echo $o->a;`, "1")
}

func TestConstructorTypeHints(t *testing.T) {
	expectOutput(t, `<?php
class Typed { public function __construct(public int $n, public string $s) {} }
$t = new Typed(5, "ok");
echo $t->n, $t->s;`, "5ok")

	expectError(t, `<?php
class T0 { public function __construct(int $n) {} }
new T0("5");`, "T0::__construct(): Argument #1 ($n): Expected type 'int', 'string' given")

	// No numeric coercion between int and float.
	expectError(t, `<?php
class T1 { public function __construct(float $f) {} }
new T1(1);`, "Expected type 'float', 'int' given")

	expectError(t, `<?php
class T2 { public function __construct(int $n) {} }
new T2(null);`, "Expected type 'int', 'null' given")

	// A declared default is trusted even when it misses the hint, so an
	// omitted argument never trips the check that an explicit null does.
	expectOutput(t, `<?php
class T3 { public function __construct(public int $n = null) {} }
$t = new T3();
echo $t->n;`, "null")
}

func TestClassTypeHint(t *testing.T) {
	expectOutput(t, `<?php
class Animal {}
class Dog extends Animal {}
class Shelter { public function __construct(public Animal $pet) {} }
$s = new Shelter(new Dog());
echo gettype($s->pet);`, "object")

	expectError(t, `<?php
class Animal {}
class Shelter { public function __construct(Animal $pet) {} }
new Shelter(5);`, "Expected type 'animal', 'int' given")
}

func TestDeclarationTimeDefaults(t *testing.T) {
	expectOutput(t, `<?php
$n = 1;
class Snap { public $d = $n; }
$n = 99;
$o = new Snap();
echo $o->d;`, "1")

	expectOutput(t, `<?php
$m = 7;
class SnapArg { public function __construct(public $p = $m) {} }
$m = 0;
$q = new SnapArg();
echo $q->p;`, "7")
}

func TestArrayDefaultCopiedPerInstance(t *testing.T) {
	expectOutput(t, `<?php
class Rows { public $rows = [1]; }
$a = new Rows();
$b = new Rows();
$a->rows[] = 2;
echo count($a->rows), count($b->rows);`, "21")
}

// ---- Inheritance ----

func TestInheritedProperties(t *testing.T) {
	expectOutput(t, `<?php
class Base1 { public $b = "B"; }
class Kid1 extends Base1 { public $k = "K"; }
$o = new Kid1();
echo $o->b, $o->k;`, "BK")
}

func TestPropertyOverride(t *testing.T) {
	expectOutput(t, `<?php
class Base2 { public $n = 1; }
class Kid2 extends Base2 { public $n = 2; }
$o = new Kid2();
echo $o->n;`, "2")
}

func TestInheritedConstructor(t *testing.T) {
	expectOutput(t, `<?php
class Base3 { public function __construct(public $n) {} }
class Kid3 extends Base3 {}
$o = new Kid3(7);
echo $o->n;`, "7")
}

func TestDeepInheritanceChain(t *testing.T) {
	expectOutput(t, `<?php
class Tier1 { public $a = 1; }
class Tier2 extends Tier1 { public $b = 2; }
class Tier3 extends Tier2 { public $c = 3; }
$o = new Tier3();
echo $o->a, $o->b, $o->c;`, "123")
}

func TestAbstractParentInstantiableThroughChild(t *testing.T) {
	expectOutput(t, `<?php
abstract class Shape { public $sides = 0; }
class Square extends Shape { public $sides = 4; }
$s = new Square();
echo $s->sides;`, "4")
}

// ---- instanceof ----

func TestInstanceof(t *testing.T) {
	expectOutput(t, `<?php
class Fruit {}
class Banana extends Fruit {}
$b = new Banana();
echo $b instanceof Banana, $b instanceof Fruit, 5 instanceof Fruit;`, "110")

	expectOutput(t, `<?php
class Fruit {}
$f = new Fruit();
echo $f instanceof Missing;`, "0")

	expectOutput(t, `<?php
class Fruit {}
$f = new Fruit();
echo $f instanceof FRUIT;`, "1")
}

func TestInstanceofDynamicRight(t *testing.T) {
	expectOutput(t, `<?php
class Fruit {}
class Banana extends Fruit {}
$b = new Banana();
$proto = new Fruit();
echo $b instanceof $proto;`, "1")

	expectOutput(t, `<?php
class Fruit {}
$f = new Fruit();
$name = "Fruit";
echo $f instanceof $name;`, "1")
}

// ---- Declaration errors ----

func TestClassErrors(t *testing.T) {
	expectError(t, `<?php class Dup {} class dup {}`, "Cannot redeclare class dup")
	expectError(t, `<?php class Orphan extends Missing {}`, `Class "Missing" not found`)
	expectError(t, `<?php new Ghost();`, "Class Ghost not found")
	expectError(t, `<?php
abstract class Shape {}
new Shape();`, "Cannot instantiate abstract class Shape")
}

// ---- Object semantics ----

func TestObjectAssignmentSharesIdentity(t *testing.T) {
	expectOutput(t, `<?php
class Holder { public $n = 1; }
$a = new Holder();
$b = $a;
$b->n = 5;
echo $a->n;`, "5")
}

func TestObjectComparison(t *testing.T) {
	expectOutput(t, `<?php
class Vec { public function __construct(public $v) {} }
$a = new Vec(1);
$b = new Vec(1);
$c = $a;
echo $a == $b, $a === $b, $a === $c;`, "101")
}

func TestNestedObjectProperties(t *testing.T) {
	expectOutput(t, `<?php
class Wheel { public $size = 0; }
class Car { public $wheel; }
$c = new Car();
$c->wheel = new Wheel();
$c->wheel->size = 17;
echo $c->wheel->size;`, "17")
}

func TestUndefinedPropertyWarns(t *testing.T) {
	src := `<?php
class Bag {}
$b = new Bag();
echo $b->missing;`
	expectWarning(t, src, "W3002", "Undefined property: Bag::$missing")
	expectOutput(t, src, "null")
}

func TestDynamicPropertyAssignment(t *testing.T) {
	expectOutput(t, `<?php
class Bag {}
$b = new Bag();
$b->extra = 9;
echo $b->extra;`, "9")
}

func TestPropertyAccessOnNonObject(t *testing.T) {
	expectWarning(t, `<?php $n = 5; echo $n->p;`, "W3002", `Attempt to read property "p" on int`)
	expectOutput(t, `<?php $n = 5; echo $n->p;`, "null")
	expectWarning(t, `<?php $n = 5; $n->p = 1; echo $n;`, "W3002", `Attempt to assign property "p" on int`)
}

func TestPropertyReference(t *testing.T) {
	expectOutput(t, `<?php
class Cellar { public $p = 1; }
$o = new Cellar();
$r = &$o->p;
$r = 77;
echo $o->p;`, "77")

	expectOutput(t, `<?php
class Cellar { public $p = 1; }
$o = new Cellar();
$v = 5;
$o->p = &$v;
$v = 8;
echo $o->p;`, "8")

	// Referencing a missing property brings it into existence.
	expectOutput(t, `<?php
class Sparse {}
$o = new Sparse();
$r = &$o->fresh;
$r = 3;
echo $o->fresh;`, "3")
}

func TestReferenceErrors(t *testing.T) {
	expectError(t, `<?php $a = [1]; $r = &$a[0];`, "Cannot assign by reference to an array element")
	expectError(t, `<?php $r = &5;`, "Cannot assign by reference to a non-variable")
}

// ---- var_dump of objects ----

func TestVarDumpObject(t *testing.T) {
	expectOutput(t, `<?php
class Pt { public $x = 1; public $y = 2; }
var_dump(new Pt());`, `object(Pt)#1 (2) {
  ["x"]=>
  int(1)
  ["y"]=>
  int(2)
}`)

	expectOutput(t, `<?php
class Pt { public $x = 1; }
$a = new Pt();
$b = new Pt();
var_dump($b);`, `object(Pt)#2 (1) {
  ["x"]=>
  int(1)
}`)
}

func TestObjectIdsFollowAllocationOrder(t *testing.T) {
	// The receiving object is allocated before its arguments are
	// evaluated, so the outer instance takes the lower id.
	expectOutput(t, `<?php
class Inner {}
class Outer { public function __construct(public $child) {} }
var_dump(new Outer(new Inner()));`, `object(Outer)#1 (1) {
  ["child"]=>
  object(Inner)#2 (0) {
  }
}`)
}

func TestEchoObjectPlaceholder(t *testing.T) {
	src := `<?php
class Opaque {}
echo new Opaque();`
	expectOutput(t, src, "Object")
	expectWarning(t, src, "W3004", "object to string conversion failed.")
}
