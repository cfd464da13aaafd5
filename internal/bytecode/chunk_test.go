package bytecode_test

import (
	"testing"

	"github.com/vela-lang/vela/internal/bytecode"
	"github.com/vela-lang/vela/internal/value"
)

func TestAddConstantAndWriteConstant(t *testing.T) {
	c := bytecode.NewChunk()
	idx := c.AddConstant(value.Int(42))
	c.WriteOp(bytecode.OpConstant, 1)
	c.WriteUint16(idx, 1)

	if len(c.Code) != 3 {
		t.Fatalf("len(Code) = %d, want 3", len(c.Code))
	}
	if c.ReadUint16(1) != idx {
		t.Errorf("ReadUint16 = %d, want %d", c.ReadUint16(1), idx)
	}
}

func TestPatchUint16RewritesJumpTarget(t *testing.T) {
	c := bytecode.NewChunk()
	c.WriteOp(bytecode.OpJumpIfFalse, 1)
	offset := c.WriteUint16(0xFFFF, 1)
	c.PatchUint16(offset, 7)
	if got := c.ReadUint16(offset); got != 7 {
		t.Errorf("patched target = %d, want 7", got)
	}
}

func TestAddIdentifierDedupesAndAllocatesCacheSlot(t *testing.T) {
	c := bytecode.NewChunk()
	a := c.AddIdentifier("name")
	b := c.AddIdentifier("name")
	if a != b {
		t.Errorf("expected repeated identifier references to share an index, got %d and %d", a, b)
	}
	if len(c.Identifiers) != 1 || len(c.Caches) != 1 {
		t.Fatalf("expected exactly one identifier/cache pair, got %d/%d", len(c.Identifiers), len(c.Caches))
	}

	other := c.AddIdentifier("other")
	if other == a {
		t.Error("expected a distinct identifier to get a distinct index")
	}
}

func TestIterateDecodesOperandWidths(t *testing.T) {
	c := bytecode.NewChunk()
	c.WriteOp(bytecode.OpNil, 1)
	c.WriteOp(bytecode.OpGetLocal, 2)
	c.WriteByte(3, 2)
	c.WriteOp(bytecode.OpJump, 3)
	c.WriteUint16(9, 3)

	var insts []bytecode.Instruction
	c.Iterate(nil, func(inst bytecode.Instruction) {
		insts = append(insts, inst)
	})

	if len(insts) != 3 {
		t.Fatalf("decoded %d instructions, want 3", len(insts))
	}
	if insts[0].Op != bytecode.OpNil || len(insts[0].Operands) != 0 {
		t.Errorf("inst[0] = %+v", insts[0])
	}
	if insts[1].Op != bytecode.OpGetLocal || insts[1].Operands[0] != 3 {
		t.Errorf("inst[1] = %+v", insts[1])
	}
	if insts[2].Op != bytecode.OpJump || insts[2].Operands[0] != 9 {
		t.Errorf("inst[2] = %+v", insts[2])
	}
}

func TestCacheReturnsAddressableSlot(t *testing.T) {
	c := bytecode.NewChunk()
	idx := c.AddIdentifier("Foo")
	entry := c.Cache(idx)
	entry.Slot = 4
	if c.Caches[idx].Slot != 4 {
		t.Errorf("expected mutation through Cache() pointer to be visible, got %d", c.Caches[idx].Slot)
	}
}
