package value

import "github.com/uni-lang/uni/internal/ast"

// Function is a closure: the environment captured at definition time, the
// parameter pattern, the body AST, and whether the (outermost, for curried
// functions) parameter introduces a `self` binding for recursion.
type Function struct {
	Name    string
	Param   ast.Node // pattern
	Body    ast.Node
	Env     *Environment
	HasSelf bool
}

func (f *Function) Kind() Kind      { return KindFunction }
func (f *Function) Inspect() string {
	name := f.Name
	if name == "" {
		name = "<anonymous>"
	}
	return "fn " + name
}
