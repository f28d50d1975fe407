package eval

import (
	"fmt"

	"github.com/uni-lang/uni/internal/ast"
	"github.com/uni-lang/uni/internal/value"
)

func (e *Evaluator) evalName(node ast.Node, ctx Context) (value.Value, error) {
	name := node.Data.(ast.NameData).Value
	switch name {
	case "true":
		return value.True, nil
	case "false":
		return value.False, nil
	case "injected":
		return ctx.Handlers.Visible(), nil
	}
	if v, ok := ctx.Env.Lookup(name); ok {
		return v, nil
	}
	if suggestion := suggestName(name, ctx.Env.Names()); suggestion != "" {
		return nil, fmt.Errorf("evaluate: undeclared name %q (did you mean %q?) at %d:%d", name, suggestion, node.Pos.Start, node.Pos.End)
	}
	return nil, fmt.Errorf("evaluate: undeclared name %q at %d:%d", name, node.Pos.Start, node.Pos.End)
}

// suggestName returns the closest candidate to name within edit
// distance 2, or "" if none is close enough to be worth suggesting.
func suggestName(name string, candidates []string) string {
	best := ""
	bestDist := 3
	for _, c := range candidates {
		d := levenshtein(name, c)
		if d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

func levenshtein(a, b string) int {
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}
	prev := make([]int, lb+1)
	cur := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		cur[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			cur[j] = m
		}
		prev, cur = cur, prev
	}
	return prev[lb]
}
