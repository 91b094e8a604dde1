package trace

// ActionTrace is the extracted summary of one document: the instruction
// that initiated the recorded session and the tool steps taken for it, in
// execution order. Derived and read-only; recomputed per document, never
// persisted.
type ActionTrace struct {
	// Instruction is the user's task statement, marker stripped.
	Instruction string

	// Steps are the recorded tool invocations in document order.
	Steps []Step

	// TargetCell is the index of the reasoning cell that bounds the trace,
	// the cell a rewrite replaces.
	TargetCell int
}

// Step is one recorded tool invocation paired with its result.
type Step struct {
	// ToolName is the invoked tool's name.
	ToolName string

	// Arguments are the call's parameters in the order the document
	// recorded them.
	Arguments []Arg

	// Result is the recorded output text, empty while Pending.
	Result string

	// Pending marks a call with no recorded result before the trace
	// boundary.
	Pending bool
}

// Arg is one call argument. Name is empty when the call carried a bare
// value (a single string or array) instead of a parameter object.
type Arg struct {
	Name  string
	Value string
}
