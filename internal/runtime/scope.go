package runtime

// Cell is the shared mutable container behind every variable binding.
// Several bindings may point at one cell; a write through any of them is
// visible through all. Ref is set once the cell has been the target of a
// reference assignment: from then on plain assignment writes through the
// cell instead of allocating a fresh one.
type Cell struct {
	value Value
	Ref   bool
}

// NewCell returns a cell holding v.
func NewCell(v Value) *Cell { return &Cell{value: v} }

// Get returns the cell's current value.
func (c *Cell) Get() Value { return c.value }

// Set replaces the cell's value in place, for every binding aliased to it.
func (c *Cell) Set(v Value) { c.value = v }

// Scope maps bare variable names (no $ sigil) to cells. The global scope
// lives for the whole run; each constructor invocation gets a fresh one.
type Scope struct {
	vars map[string]*Cell
}

// NewScope returns an empty scope.
func NewScope() *Scope {
	return &Scope{vars: make(map[string]*Cell)}
}

// Bind performs a plain assignment. If the name is already bound to a
// reference-flagged cell the value is written through it, keeping every
// alias in sync; otherwise the name is rebound to a fresh cell, detaching
// it from any alias group it was part of.
func (s *Scope) Bind(name string, v Value) {
	if cell, ok := s.vars[name]; ok && cell.Ref {
		cell.Set(v)
		return
	}
	s.vars[name] = NewCell(v)
}

// BindRef makes name an alias of cell, joining its group. The cell is
// flagged so later plain assignments to any member write through it.
func (s *Scope) BindRef(name string, cell *Cell) {
	cell.Ref = true
	s.vars[name] = cell
}

// Cell resolves the cell bound to name, or nil if unbound.
func (s *Scope) Cell(name string) *Cell {
	return s.vars[name]
}

// CellOrDefine resolves name's cell, materializing one holding Null when
// the name is unbound. Reference assignment uses this for its right side.
func (s *Scope) CellOrDefine(name string) *Cell {
	if cell, ok := s.vars[name]; ok {
		return cell
	}
	cell := NewCell(NullVal{})
	s.vars[name] = cell
	return cell
}

// Read returns the value bound to name.
func (s *Scope) Read(name string) (Value, bool) {
	cell, ok := s.vars[name]
	if !ok {
		return nil, false
	}
	return cell.Get(), true
}

// Unset removes name's binding only. Other bindings aliased to the same
// cell keep working; if this was the last one the cell is unreachable.
func (s *Scope) Unset(name string) {
	delete(s.vars, name)
}

// Isset reports whether name is bound to a non-Null value.
func (s *Scope) Isset(name string) bool {
	cell, ok := s.vars[name]
	if !ok {
		return false
	}
	_, isNull := cell.Get().(NullVal)
	return !isNull
}

// Names returns the bound names in no particular order.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	return names
}
