package value

import "fmt"

// Equal implements `==`: value equality for numbers/strings/bools/null,
// identity for symbols, and reference equality for everything else
// (records, lists, channels, tasks, functions, effects, handlers).
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		bv, ok := b.(Bool)
		return ok && av.Value == bv.Value
	case Number:
		bv, ok := b.(Number)
		return ok && av.Value == bv.Value
	case String:
		bv, ok := b.(String)
		return ok && av.Value == bv.Value
	default:
		return a == b
	}
}

// cyclePair tracks a pointer pair already visited during a DeepEqual
// descent, so cyclic records/lists are detected rather than looping.
type cyclePair struct{ a, b any }

// DeepEqual implements `===`: structural equality for lists and records,
// value equality for the scalar kinds, and reference equality for
// functions/channels/tasks/effects/handlers (the source leaves these
// undefined structurally; spec.md §9 says to detect cycles and fail
// rather than loop, which we do here by returning an error).
func DeepEqual(a, b Value) (bool, error) {
	return deepEqual(a, b, make(map[cyclePair]bool))
}

func deepEqual(a, b Value, seen map[cyclePair]bool) (bool, error) {
	switch av := a.(type) {
	case Null, Bool, Number, String, *Symbol:
		return Equal(a, b), nil
	case *List:
		bv, ok := b.(*List)
		if !ok {
			return false, nil
		}
		if av == bv {
			return true, nil
		}
		pair := cyclePair{av, bv}
		if seen[pair] {
			return false, fmt.Errorf("cyclic structure in === comparison")
		}
		seen[pair] = true
		defer delete(seen, pair)
		as, bs := av.Snapshot(), bv.Snapshot()
		if len(as) != len(bs) {
			return false, nil
		}
		for i := range as {
			eq, err := deepEqual(as[i], bs[i], seen)
			if err != nil {
				return false, err
			}
			if !eq {
				return false, nil
			}
		}
		return true, nil
	case *Record:
		bv, ok := b.(*Record)
		if !ok {
			return false, nil
		}
		if av == bv {
			return true, nil
		}
		pair := cyclePair{av, bv}
		if seen[pair] {
			return false, fmt.Errorf("cyclic structure in === comparison")
		}
		seen[pair] = true
		defer delete(seen, pair)
		ae, be := av.Entries(), bv.Entries()
		if len(ae) != len(be) {
			return false, nil
		}
		for _, e := range ae {
			other, ok := bv.Get(e.Key)
			if !ok {
				return false, nil
			}
			eq, err := deepEqual(e.Val, other, seen)
			if err != nil {
				return false, err
			}
			if !eq {
				return false, nil
			}
		}
		return true, nil
	default:
		return a == b, nil
	}
}
