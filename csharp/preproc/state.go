// Package preproc implements the C# conditional-compilation filter: the
// defined-symbol table, the #if/#elif/#else/#endif branch stack, directive
// splitting, and evaluation of directive expressions.
//
// The package works on directive lines as text. Callers (the parser's
// token source) feed it every directive they meet in source order and ask
// it whether the text that follows is live.
package preproc

import (
	"fmt"
	"sort"
)

// State is the conditional-compilation state of one source unit.
type State struct {
	defined map[string]bool
	conds   condStack
}

// NewState returns a state with the given symbols defined, as if passed
// with /define: on the command line.
func NewState(symbols ...string) *State {
	s := &State{defined: make(map[string]bool)}
	for _, sym := range symbols {
		if sym != "" {
			s.defined[sym] = true
		}
	}
	return s
}

func (s *State) Define(name string) {
	s.defined[name] = true
}

func (s *State) Undefine(name string) {
	delete(s.defined, name)
}

func (s *State) IsDefined(name string) bool {
	return s.defined[name]
}

// Symbols returns the currently defined symbols in sorted order.
func (s *State) Symbols() []string {
	out := make([]string, 0, len(s.defined))
	for name := range s.defined {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Active reports whether text at the current point is live.
func (s *State) Active() bool {
	return s.conds.Active()
}

// Depth is the number of open #if blocks.
func (s *State) Depth() int {
	return s.conds.Depth()
}

// Unclosed returns the line of the innermost #if that has no #endif.
func (s *State) Unclosed() (int, bool) {
	if s.conds.Depth() == 0 {
		return 0, false
	}
	return s.conds.UnclosedLine(), true
}

// Apply updates the state for a directive found on the given line. The
// returned error describes a malformed or misplaced directive; the state is
// still updated so that the rest of the unit can be processed. A condition
// that fails to evaluate selects the excluded branch.
func (s *State) Apply(d *Directive, line int) error {
	switch d.Kind {
	case DirectiveIf:
		val, err := s.evalDirective(d)
		s.conds.Push(val, line)
		return err
	case DirectiveElif:
		if s.conds.Depth() == 0 {
			return fmt.Errorf("unexpected preprocessor directive #elif")
		}
		if s.conds.SawElse() {
			return fmt.Errorf("#elif after #else")
		}
		val, err := s.evalDirective(d)
		s.conds.Elif(val)
		return err
	case DirectiveElse:
		if s.conds.Depth() == 0 {
			return fmt.Errorf("unexpected preprocessor directive #else")
		}
		if s.conds.SawElse() {
			return fmt.Errorf("duplicate #else")
		}
		s.conds.Else()
		return nil
	case DirectiveEndif:
		if s.conds.Depth() == 0 {
			return fmt.Errorf("unexpected preprocessor directive #endif")
		}
		s.conds.Pop()
		return nil
	case DirectiveDefine, DirectiveUndef:
		if !s.Active() {
			return nil
		}
		if d.Symbol == "" {
			return fmt.Errorf("identifier expected after #%s", d.Name)
		}
		if isKeywordSymbol(d.Symbol) {
			return fmt.Errorf("cannot #%s %q", d.Name, d.Symbol)
		}
		if d.Kind == DirectiveDefine {
			s.Define(d.Symbol)
		} else {
			s.Undefine(d.Symbol)
		}
		return nil
	}
	return d.Err
}

func (s *State) evalDirective(d *Directive) (bool, error) {
	if d.Err != nil {
		return false, d.Err
	}
	if d.Expr == nil {
		return false, fmt.Errorf("expression expected after #%s", d.Name)
	}
	return d.Expr.Eval(s), nil
}

func isKeywordSymbol(name string) bool {
	return name == "true" || name == "false"
}

type condStack struct {
	stack []condFrame
}

type condFrame struct {
	parentActive bool
	taken        bool
	active       bool
	sawElse      bool
	line         int
}

func (c *condStack) Depth() int { return len(c.stack) }

func (c *condStack) Active() bool {
	if len(c.stack) == 0 {
		return true
	}
	return c.stack[len(c.stack)-1].active
}

func (c *condStack) Push(cond bool, line int) {
	parent := c.Active()
	active := parent && cond
	c.stack = append(c.stack, condFrame{
		parentActive: parent,
		taken:        active,
		active:       active,
		line:         line,
	})
}

func (c *condStack) Elif(cond bool) {
	if len(c.stack) == 0 {
		return
	}
	top := &c.stack[len(c.stack)-1]
	if !top.parentActive || top.taken {
		top.active = false
		return
	}
	top.active = cond
	if cond {
		top.taken = true
	}
}

func (c *condStack) Else() {
	if len(c.stack) == 0 {
		return
	}
	top := &c.stack[len(c.stack)-1]
	top.sawElse = true
	if !top.parentActive {
		top.active = false
		return
	}
	top.active = !top.taken
	top.taken = true
}

func (c *condStack) SawElse() bool {
	if len(c.stack) == 0 {
		return false
	}
	return c.stack[len(c.stack)-1].sawElse
}

func (c *condStack) Pop() {
	if len(c.stack) == 0 {
		return
	}
	c.stack = c.stack[:len(c.stack)-1]
}

func (c *condStack) UnclosedLine() int {
	if len(c.stack) == 0 {
		return 0
	}
	return c.stack[len(c.stack)-1].line
}
