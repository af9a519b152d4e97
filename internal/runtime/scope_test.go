package runtime

import (
	"sort"
	"testing"

	"github.com/go-test/deep"
)

func TestBindAllocatesFreshCell(t *testing.T) {
	s := NewScope()
	s.Bind("a", IntVal(1))
	first := s.Cell("a")
	s.Bind("a", IntVal(2))
	if s.Cell("a") == first {
		t.Error("plain rebinding should allocate a new cell")
	}
	if v, _ := s.Read("a"); !StrictEqual(v, IntVal(2)) {
		t.Errorf("read after rebind = %v, want 2", v)
	}
}

func TestBindWritesThroughReferenceCell(t *testing.T) {
	s := NewScope()
	cell := NewCell(IntVal(1))
	s.BindRef("a", cell)
	s.BindRef("b", cell)

	s.Bind("a", IntVal(9))
	if v, _ := s.Read("b"); !StrictEqual(v, IntVal(9)) {
		t.Errorf("aliased read = %v, want 9", v)
	}
	if s.Cell("a") != cell {
		t.Error("write-through must keep the shared cell")
	}
}

func TestBindRefFlagsCell(t *testing.T) {
	s := NewScope()
	cell := NewCell(IntVal(1))
	if cell.Ref {
		t.Fatal("fresh cell should not carry the reference flag")
	}
	s.BindRef("a", cell)
	if !cell.Ref {
		t.Error("BindRef should flag the cell")
	}
}

func TestUnsetDetachesOnlyOneBinding(t *testing.T) {
	s := NewScope()
	cell := NewCell(IntVal(5))
	s.BindRef("a", cell)
	s.BindRef("b", cell)

	s.Unset("a")
	if _, ok := s.Read("a"); ok {
		t.Error("unset name should be unbound")
	}
	if v, _ := s.Read("b"); !StrictEqual(v, IntVal(5)) {
		t.Errorf("surviving alias = %v, want 5", v)
	}

	// Rebinding the unset name must not rejoin the old group.
	s.Bind("a", IntVal(7))
	if v, _ := s.Read("b"); !StrictEqual(v, IntVal(5)) {
		t.Errorf("alias after rebind = %v, want 5", v)
	}
}

func TestCellOrDefineMaterializesNull(t *testing.T) {
	s := NewScope()
	cell := s.CellOrDefine("x")
	if _, ok := cell.Get().(NullVal); !ok {
		t.Errorf("materialized cell holds %v, want null", cell.Get())
	}
	if s.CellOrDefine("x") != cell {
		t.Error("second resolve should return the same cell")
	}
	if s.Isset("x") {
		t.Error("null binding should not count as set")
	}
}

func TestScopeIsset(t *testing.T) {
	s := NewScope()
	if s.Isset("a") {
		t.Error("unbound name reported as set")
	}
	s.Bind("a", IntVal(0))
	if !s.Isset("a") {
		t.Error("zero is still a set value")
	}
	s.Bind("a", NullVal{})
	if s.Isset("a") {
		t.Error("null binding reported as set")
	}
}

func TestNames(t *testing.T) {
	s := NewScope()
	s.Bind("beta", IntVal(1))
	s.Bind("alpha", IntVal(2))

	names := s.Names()
	sort.Strings(names)
	if diff := deep.Equal(names, []string{"alpha", "beta"}); diff != nil {
		t.Error(diff)
	}
}
