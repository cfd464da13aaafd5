// Package bytecode defines the instruction set and the Chunk container the
// compiler emits into and the interpreter fetches from: a flat byte stream,
// a parallel per-byte line table, a constant pool, an identifier pool shared
// by globals/properties/methods, and one inline-cache slot per identifier
// reference site.
package bytecode

// Opcode is a single-byte instruction tag for the Vela bytecode interpreter.
type Opcode uint8

const (
	// ---- Stack ---------------------------------------------------------

	// OpConstant pushes Constants[operand] (16-bit operand).
	OpConstant Opcode = iota
	OpNil
	OpTrue
	OpFalse
	OpPop
	OpDup

	// ---- Locals / upvalues ----------------------------------------------

	// OpGetLocal/OpSetLocal address a frame-relative slot (8-bit operand).
	OpGetLocal
	OpSetLocal
	// OpGetUpvalue/OpSetUpvalue address the closure's upvalue array.
	OpGetUpvalue
	OpSetUpvalue
	// OpCloseUpvalue closes every open upvalue at or above the top of stack.
	OpCloseUpvalue

	// ---- Globals ----------------------------------------------------------

	OpDefineGlobalVal
	OpDefineGlobalVar
	OpGetGlobal
	OpSetGlobal

	// ---- Properties ---------------------------------------------------

	OpGetProperty
	OpSetProperty
	OpGetPropertyOptional
	OpGetSubscript
	OpSetSubscript
	OpGetSubscriptOptional
	OpGetSuper

	// ---- Arithmetic / logic --------------------------------------------

	OpEqual
	OpGreater
	OpLess
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	OpNot
	OpNegate
	OpRange
	OpNilCoalescing
	OpElvis

	// ---- Control flow ---------------------------------------------------

	// OpJump/OpJumpIfFalse/OpJumpIfEmpty carry a 16-bit forward offset.
	OpJump
	OpJumpIfFalse
	OpJumpIfEmpty
	// OpLoop carries a 16-bit backward offset.
	OpLoop
	// OpEnd is a placeholder known to the disassembler; the compiler never
	// emits it and the VM treats it as a no-op.
	OpEnd

	// ---- Calls -----------------------------------------------------------

	OpCall
	OpOptionalCall
	OpInvoke
	OpSuperInvoke
	OpOptionalInvoke

	// ---- Definitions -----------------------------------------------------

	// OpClosure carries the function's constant index followed by, for each
	// upvalue, an {isLocal, index} byte pair.
	OpClosure
	OpClass
	OpTrait
	// OpAnonymous carries a single byte discriminating which anonymous
	// surface constructed the enclosing closure (lambda vs. block).
	OpAnonymous
	OpInherit
	// OpImplement applies n trait constants (operand n) onto the class on
	// top of the stack.
	OpImplement
	OpInstanceMethod
	OpClassMethod

	// ---- Containers --------------------------------------------------------

	OpArray
	OpDictionary

	// ---- Modules / namespaces -----------------------------------------

	OpRequire
	OpNamespace
	OpDeclareNamespace
	OpGetNamespace
	OpUsingNamespace

	// ---- Exceptions --------------------------------------------------

	OpThrow
	// OpTry reserves a 6-byte operand: exception class constant index (2),
	// handler address (2), finally address (2); rewritten once the handler
	// and finally blocks are emitted.
	OpTry
	// OpEndTry runs when a guarded block completes without throwing: it
	// discards TRY's placeholder stack slot and retires the handler entry
	// TRY registered, so a later throw in the same frame never matches a
	// try block it has already exited normally.
	OpEndTry
	OpCatch
	OpFinally

	// ---- Returns / suspension -------------------------------------------

	OpReturn
	// OpReturnNonlocal carries the number of enclosing lambda frames to
	// unwind through (supports `return` escaping nested lambdas).
	OpReturnNonlocal
	OpYield
	OpYieldFrom
	OpAwait

	opcodeCount
)

type opcodeInfo struct {
	name     string
	operands int // number of bytes of operand data following the opcode byte
}

var opcodeTable = [opcodeCount]opcodeInfo{
	OpConstant: {"CONSTANT", 2},
	OpNil:      {"NIL", 0},
	OpTrue:     {"TRUE", 0},
	OpFalse:    {"FALSE", 0},
	OpPop:      {"POP", 0},
	OpDup:      {"DUP", 0},

	OpGetLocal:    {"GET_LOCAL", 1},
	OpSetLocal:    {"SET_LOCAL", 1},
	OpGetUpvalue:  {"GET_UPVALUE", 1},
	OpSetUpvalue:  {"SET_UPVALUE", 1},
	OpCloseUpvalue: {"CLOSE_UPVALUE", 0},

	OpDefineGlobalVal: {"DEFINE_GLOBAL_VAL", 2},
	OpDefineGlobalVar: {"DEFINE_GLOBAL_VAR", 2},
	OpGetGlobal:       {"GET_GLOBAL", 2},
	OpSetGlobal:       {"SET_GLOBAL", 2},

	OpGetProperty:          {"GET_PROPERTY", 2},
	OpSetProperty:          {"SET_PROPERTY", 2},
	OpGetPropertyOptional:  {"GET_PROPERTY_OPTIONAL", 2},
	OpGetSubscript:         {"GET_SUBSCRIPT", 0},
	OpSetSubscript:         {"SET_SUBSCRIPT", 0},
	OpGetSubscriptOptional: {"GET_SUBSCRIPT_OPTIONAL", 0},
	OpGetSuper:             {"GET_SUPER", 2},

	OpEqual:         {"EQUAL", 0},
	OpGreater:       {"GREATER", 0},
	OpLess:          {"LESS", 0},
	OpAdd:           {"ADD", 0},
	OpSubtract:      {"SUBTRACT", 0},
	OpMultiply:      {"MULTIPLY", 0},
	OpDivide:        {"DIVIDE", 0},
	OpModulo:        {"MODULO", 0},
	OpNot:           {"NOT", 0},
	OpNegate:        {"NEGATE", 0},
	OpRange:         {"RANGE", 0},
	OpNilCoalescing: {"NIL_COALESCING", 0},
	OpElvis:         {"ELVIS", 0},

	OpJump:        {"JUMP", 2},
	OpJumpIfFalse: {"JUMP_IF_FALSE", 2},
	OpJumpIfEmpty: {"JUMP_IF_EMPTY", 2},
	OpLoop:        {"LOOP", 2},
	OpEnd:         {"END", 2},

	OpCall:           {"CALL", 1},
	OpOptionalCall:   {"OPTIONAL_CALL", 1},
	OpInvoke:         {"INVOKE", 3},
	OpSuperInvoke:    {"SUPER_INVOKE", 3},
	OpOptionalInvoke: {"OPTIONAL_INVOKE", 3},

	OpClosure:         {"CLOSURE", 2}, // plus a variable upvalue tail, handled specially
	OpClass:           {"CLASS", 2},
	OpTrait:           {"TRAIT", 2},
	OpAnonymous:       {"ANONYMOUS", 1},
	OpInherit:         {"INHERIT", 0},
	OpImplement:       {"IMPLEMENT", 1},
	OpInstanceMethod:  {"INSTANCE_METHOD", 2},
	OpClassMethod:     {"CLASS_METHOD", 2},

	OpArray:      {"ARRAY", 1},
	OpDictionary: {"DICTIONARY", 1},

	OpRequire:          {"REQUIRE", 2},
	OpNamespace:        {"NAMESPACE", 2},
	OpDeclareNamespace: {"DECLARE_NAMESPACE", 1},
	OpGetNamespace:     {"GET_NAMESPACE", 1},
	OpUsingNamespace:   {"USING_NAMESPACE", 2},

	OpThrow:   {"THROW", 0},
	OpTry:     {"TRY", 6},
	OpEndTry:  {"END_TRY", 0},
	OpCatch:   {"CATCH", 0},
	OpFinally: {"FINALLY", 0},

	OpReturn:         {"RETURN", 0},
	OpReturnNonlocal: {"RETURN_NONLOCAL", 1},
	OpYield:          {"YIELD", 0},
	OpYieldFrom:      {"YIELD_FROM", 0},
	OpAwait:          {"AWAIT", 0},
}

// String returns the opcode's disassembly mnemonic.
func (op Opcode) String() string {
	if int(op) >= len(opcodeTable) {
		return "UNKNOWN"
	}
	return opcodeTable[op].name
}

// OperandBytes reports how many bytes of fixed operand data immediately
// follow the opcode byte. CLOSURE's variable-length upvalue tail is not
// counted here; callers that walk a chunk opcode-by-opcode (the
// disassembler) special-case OpClosure using the function's upvalue count.
func (op Opcode) OperandBytes() int {
	if int(op) >= len(opcodeTable) {
		return 0
	}
	return opcodeTable[op].operands
}
