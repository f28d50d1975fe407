package task

// Scope is a structured-concurrency region (spec.md §4.E): a task forked
// while a Scope is active is adopted as its child via the normal
// parent/child registry, and the scope guarantees something about those
// children once its body finishes, depending on how the evaluator drives
// it (sync / cancel_on_error / cancel_on_return semantics live in the
// eval package, which calls Children/CancelChildren here and Await on
// each child directly).
type Scope struct {
	owner *Task // synthetic parent; never itself run on a goroutine
}

// NewScope returns a Scope whose adopted children are registered under a
// synthetic owner task parented to parent (nil for a root scope).
func NewScope(parent *Task) *Scope {
	return &Scope{owner: &Task{parent: parent}}
}

// Parent returns the task that Fork calls made during this scope's body
// should use as their parent, so they are adopted by the scope.
func (s *Scope) Parent() *Task { return s.owner }

// Children returns the tasks forked during this scope's body.
func (s *Scope) Children() []*Task { return s.owner.Children() }

// CancelChildren cancels every still-Pending child task, used by
// cancel_on_error and cancel_on_return.
func (s *Scope) CancelChildren() {
	for _, c := range s.owner.Children() {
		c.Cancel()
	}
}
