package value

// Effect is a first-class value produced by the `handle` builtin
// (spec.md §4.F): a tag (Symbol or String), a payload, and the
// environment captured at the point `handle` was called. The evaluator
// records CapturedEnv but does not read it when dispatching the effect
// to a handler.
type Effect struct {
	Tag         Value // Symbol or String
	Payload     Value
	CapturedEnv *Environment
}

func (e *Effect) Kind() Kind      { return KindEffect }
func (e *Effect) Inspect() string { return "effect " + e.Tag.Inspect() }

// Handler is an opaque wrapper around a callable taking (continuation,
// payload): usually a *Function, but native handlers (such as the
// curried native function `try` installs for throw) are also valid, so Fn is typed as
// the general Value a call site can invoke. Continuations passed to it
// are one-shot (spec.md §4.F, §9).
type Handler struct {
	Fn Value
}

func (h *Handler) Kind() Kind      { return KindHandler }
func (h *Handler) Inspect() string { return "handler" }
