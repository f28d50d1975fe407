// Package ast defines the shape of the validated AST consumed by the
// evaluator. Lexing and parsing are out of scope for this module (see
// spec.md §1): the parser is an external collaborator that produces trees
// of this shape; tests in this repo build them directly with the
// constructors below.
package ast

// Pos is an opaque byte-offset span into the source, as produced by the
// file map collaborator. The core never interprets these beyond attaching
// them to diagnostics.
type Pos struct {
	Start int
	End   int
}

// Kind tags the syntactic form of a Node. The core switches on Kind; it
// never inspects Go's dynamic type of Node.
type Kind int

const (
	// Literals
	KindNumber Kind = iota
	KindString
	KindName
	KindAtom
	KindPlaceholder
	KindImplicitPlaceholder

	// Sequencing
	KindSequence
	KindBlock
	KindLabeledBlock

	// Control
	KindIf
	KindIfElse
	KindWhile
	KindFor
	KindLoop
	KindReturn
	KindBreak
	KindContinue

	// Declaration / assignment
	KindDeclare
	KindAssign
	KindIncAssign
	KindPreInc
	KindPreDec
	KindPostInc
	KindPostDec

	// Data
	KindTuple
	KindLabel
	KindIndex
	KindSquareBrackets
	KindSpread

	// Functions
	KindFunction
	KindApplication

	// Channels
	KindSend
	KindReceive
	KindSendStatus
	KindReceiveStatus

	// Concurrency
	KindFork
	KindParallel
	KindAwait

	// Effects
	KindInject
	KindMask
	KindWithout
	KindHandle

	// Patterns
	KindIs
	KindMatch
	KindMatchCase
	KindPin
	KindBind
	KindLike
	KindStrict
	KindMutable
	KindExport
	KindPatAssign // Assign(pattern, default) pattern-position node

	// Imports
	KindImport

	// Operators (binary/unary, arithmetic/comparison/boolean)
	KindBinaryOp
	KindUnaryOp

	// Error node carrying a parse/validate diagnostic
	KindError
)

// Node is a single AST node: a tag, optional scalar Data, and an ordered
// list of Children. Exactly which Data/Children are populated depends on
// Kind; see the per-kind comments on the Kind constants and the
// constructors below.
type Node struct {
	Kind     Kind
	Pos      Pos
	Data     any    // operator name, literal value, identifier, label name...
	Children []Node
}

// Data payload types for literal/identifier nodes.
type (
	NumberData struct{ Value float64 }
	StringData struct{ Value string }
	NameData   struct{ Value string }
	AtomData   struct{ Name string }
	OpData     struct{ Op string }
	LabelData  struct{ Name string } // label for LabeledBlock / labeled break/continue
	ErrorData  struct{ Message string }
)

func Number(v float64, pos Pos) Node { return Node{Kind: KindNumber, Pos: pos, Data: NumberData{v}} }
func String(v string, pos Pos) Node  { return Node{Kind: KindString, Pos: pos, Data: StringData{v}} }
func Name(v string, pos Pos) Node    { return Node{Kind: KindName, Pos: pos, Data: NameData{v}} }
func Atom(name string, pos Pos) Node { return Node{Kind: KindAtom, Pos: pos, Data: AtomData{name}} }
func Placeholder(pos Pos) Node       { return Node{Kind: KindPlaceholder, Pos: pos} }
func ImplicitPlaceholder(pos Pos) Node {
	return Node{Kind: KindImplicitPlaceholder, Pos: pos}
}

func Sequence(pos Pos, children ...Node) Node {
	return Node{Kind: KindSequence, Pos: pos, Children: children}
}

func Block(pos Pos, body Node) Node {
	return Node{Kind: KindBlock, Pos: pos, Children: []Node{body}}
}

func LabeledBlock(label string, pos Pos, body Node) Node {
	return Node{Kind: KindLabeledBlock, Pos: pos, Data: LabelData{label}, Children: []Node{body}}
}

func If(pos Pos, cond, then Node) Node {
	return Node{Kind: KindIf, Pos: pos, Children: []Node{cond, then}}
}

func IfElse(pos Pos, cond, then, els Node) Node {
	return Node{Kind: KindIfElse, Pos: pos, Children: []Node{cond, then, els}}
}

func While(pos Pos, cond, body Node) Node {
	return Node{Kind: KindWhile, Pos: pos, Children: []Node{cond, body}}
}

// For(pattern, iterable, body)
func For(pos Pos, pattern, iterable, body Node) Node {
	return Node{Kind: KindFor, Pos: pos, Children: []Node{pattern, iterable, body}}
}

func Loop(pos Pos, body Node) Node {
	return Node{Kind: KindLoop, Pos: pos, Children: []Node{body}}
}

// Return/Break/Continue carry an optional value child and, for
// Break/Continue, an optional label in Data.
func Return(pos Pos, value *Node) Node {
	n := Node{Kind: KindReturn, Pos: pos}
	if value != nil {
		n.Children = []Node{*value}
	}
	return n
}

func Break(label string, pos Pos, value *Node) Node {
	n := Node{Kind: KindBreak, Pos: pos, Data: LabelData{label}}
	if value != nil {
		n.Children = []Node{*value}
	}
	return n
}

func Continue(label string, pos Pos, value *Node) Node {
	n := Node{Kind: KindContinue, Pos: pos, Data: LabelData{label}}
	if value != nil {
		n.Children = []Node{*value}
	}
	return n
}

// Declare(pattern, expr) and Assign(pattern, expr); IncAssign(pattern, expr).
func Declare(pos Pos, pattern, expr Node) Node {
	return Node{Kind: KindDeclare, Pos: pos, Children: []Node{pattern, expr}}
}

func Assign(pos Pos, pattern, expr Node) Node {
	return Node{Kind: KindAssign, Pos: pos, Children: []Node{pattern, expr}}
}

func IncAssign(pos Pos, pattern, expr Node) Node {
	return Node{Kind: KindIncAssign, Pos: pos, Children: []Node{pattern, expr}}
}

func PreInc(pos Pos, target Node) Node  { return Node{Kind: KindPreInc, Pos: pos, Children: []Node{target}} }
func PreDec(pos Pos, target Node) Node  { return Node{Kind: KindPreDec, Pos: pos, Children: []Node{target}} }
func PostInc(pos Pos, target Node) Node { return Node{Kind: KindPostInc, Pos: pos, Children: []Node{target}} }
func PostDec(pos Pos, target Node) Node { return Node{Kind: KindPostDec, Pos: pos, Children: []Node{target}} }

func Tuple(pos Pos, items ...Node) Node {
	return Node{Kind: KindTuple, Pos: pos, Children: items}
}

// Label(keyExpr, valueExpr) used both as a record-entry expression and as
// a record-destructuring pattern child.
func Label(pos Pos, key, value Node) Node {
	return Node{Kind: KindLabel, Pos: pos, Children: []Node{key, value}}
}

func Index(pos Pos, target, index Node) Node {
	return Node{Kind: KindIndex, Pos: pos, Children: []Node{target, index}}
}

func SquareBrackets(pos Pos, items ...Node) Node {
	return Node{Kind: KindSquareBrackets, Pos: pos, Children: items}
}

func Spread(pos Pos, target Node) Node {
	return Node{Kind: KindSpread, Pos: pos, Children: []Node{target}}
}

// Function(pattern, body); Data carries whether the function binds `self`.
type FunctionData struct{ HasSelf bool }

func Function(pos Pos, param, body Node, hasSelf bool) Node {
	return Node{Kind: KindFunction, Pos: pos, Data: FunctionData{hasSelf}, Children: []Node{param, body}}
}

func Application(pos Pos, callee, arg Node) Node {
	return Node{Kind: KindApplication, Pos: pos, Children: []Node{callee, arg}}
}

func Send(pos Pos, channel, value Node) Node {
	return Node{Kind: KindSend, Pos: pos, Children: []Node{channel, value}}
}

func Receive(pos Pos, channel Node) Node {
	return Node{Kind: KindReceive, Pos: pos, Children: []Node{channel}}
}

func SendStatus(pos Pos, channel, value Node) Node {
	return Node{Kind: KindSendStatus, Pos: pos, Children: []Node{channel, value}}
}

func ReceiveStatus(pos Pos, channel Node) Node {
	return Node{Kind: KindReceiveStatus, Pos: pos, Children: []Node{channel}}
}

func Fork(pos Pos, body Node) Node {
	return Node{Kind: KindFork, Pos: pos, Children: []Node{body}}
}

func Parallel(pos Pos, items ...Node) Node {
	return Node{Kind: KindParallel, Pos: pos, Children: items}
}

func Await(pos Pos, task Node) Node {
	return Node{Kind: KindAwait, Pos: pos, Children: []Node{task}}
}

// Inject(handlerRecord, body); handlerRecord is a Tuple-of-Label node.
func Inject(pos Pos, handlers, body Node) Node {
	return Node{Kind: KindInject, Pos: pos, Children: []Node{handlers, body}}
}

// Mask/Without(names, body); names is Data.
type NamesData struct{ Names []string }

func Mask(pos Pos, names []string, body Node) Node {
	return Node{Kind: KindMask, Pos: pos, Data: NamesData{names}, Children: []Node{body}}
}

func Without(pos Pos, names []string, body Node) Node {
	return Node{Kind: KindWithout, Pos: pos, Data: NamesData{names}, Children: []Node{body}}
}

func Handle(pos Pos, tag, payload Node) Node {
	return Node{Kind: KindHandle, Pos: pos, Children: []Node{tag, payload}}
}

// Is(pattern) used as a condition expression: If(Is(p), ...).
func Is(pos Pos, discriminant, pattern Node) Node {
	return Node{Kind: KindIs, Pos: pos, Children: []Node{discriminant, pattern}}
}

// Match(discriminant, cases...)
func Match(pos Pos, discriminant Node, cases ...Node) Node {
	children := append([]Node{discriminant}, cases...)
	return Node{Kind: KindMatch, Pos: pos, Children: children}
}

// MatchCase(pattern, body)
func MatchCase(pos Pos, pattern, body Node) Node {
	return Node{Kind: KindMatchCase, Pos: pos, Children: []Node{pattern, body}}
}

func Pin(pos Pos, expr Node) Node { return Node{Kind: KindPin, Pos: pos, Children: []Node{expr}} }

func Bind(pos Pos, p1, p2 Node) Node { return Node{Kind: KindBind, Pos: pos, Children: []Node{p1, p2}} }

func Like(pos Pos, p Node) Node    { return Node{Kind: KindLike, Pos: pos, Children: []Node{p}} }
func Strict(pos Pos, p Node) Node  { return Node{Kind: KindStrict, Pos: pos, Children: []Node{p}} }
func Mutable(pos Pos, p Node) Node { return Node{Kind: KindMutable, Pos: pos, Children: []Node{p}} }
func Export(pos Pos, p Node) Node  { return Node{Kind: KindExport, Pos: pos, Children: []Node{p}} }

func PatAssign(pos Pos, p, defaultExpr Node) Node {
	return Node{Kind: KindPatAssign, Pos: pos, Children: []Node{p, defaultExpr}}
}

type ImportData struct{ Path string }

func Import(pos Pos, path string) Node {
	return Node{Kind: KindImport, Pos: pos, Data: ImportData{path}}
}

func BinaryOp(pos Pos, op string, lhs, rhs Node) Node {
	return Node{Kind: KindBinaryOp, Pos: pos, Data: OpData{op}, Children: []Node{lhs, rhs}}
}

func UnaryOp(pos Pos, op string, operand Node) Node {
	return Node{Kind: KindUnaryOp, Pos: pos, Data: OpData{op}, Children: []Node{operand}}
}

func Error(pos Pos, message string) Node {
	return Node{Kind: KindError, Pos: pos, Data: ErrorData{message}}
}
