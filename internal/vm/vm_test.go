package vm_test

import (
	"testing"

	"loom/internal/funcreg"
	"loom/internal/ir"
	"loom/internal/module"
	"loom/internal/types"
	"loom/internal/vm"
)

func newTestEnv(t *testing.T) (*types.Registry, *funcreg.Registry, *module.Module) {
	t.Helper()
	treg := types.NewRegistry()
	freg := funcreg.New()
	types.SetFunctionTypeLookup(freg.SignatureOf)
	mod := module.New("test_module", "test_module.loom")
	return treg, freg, mod
}

func declareFunc(t *testing.T, treg *types.Registry, freg *funcreg.Registry, mod *module.Module, name string, argc int) (funcreg.ID, *ir.CodeHolder) {
	t.Helper()
	ft := types.FunctionType{Return: treg.Builtins.I32}
	for i := 0; i < argc; i++ {
		ft.Arguments = append(ft.Arguments, types.Argument{Kind: types.ArgValue, Type: treg.Builtins.I32})
	}
	sig := treg.RegisterFunctionType("test_module::", ft)
	id := freg.Declare(funcreg.Function{Name: name, FQN: "test_module::" + name, Signature: sig})
	freg.MarkBodyFinalized(id)
	code := ir.NewCodeHolder()
	mod.Code[id] = code
	mod.AddFunction(id)
	return id, code
}

func TestExecuteAddsTwoArguments(t *testing.T) {
	treg, freg, mod := newTestEnv(t)
	id, code := declareFunc(t, treg, freg, mod, "add", 2)

	dst := code.NewReg()
	code.Append(ir.Instruction{
		Op: ir.OpIAdd,
		A:  ir.Reg(dst, treg.Builtins.I32),
		B:  ir.Reg(1, treg.Builtins.I32),
		C:  ir.Reg(2, treg.Builtins.I32),
	})
	code.Append(ir.Instruction{Op: ir.OpRet, A: ir.Reg(dst, treg.Builtins.I32)})

	m := vm.New(mod, treg, freg, 4096)
	ret, err := m.Execute(id, []vm.Value{
		{Type: treg.Builtins.I32, Raw: 7},
		{Type: treg.Builtins.I32, Raw: 35},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if ret.Raw != 42 {
		t.Fatalf("got %d, want 42", ret.Raw)
	}
	if m.State() != vm.Running {
		t.Fatalf("expected Running after a plain return, got %v", m.State())
	}
}

func TestExecuteIntegerDivisionByZero(t *testing.T) {
	treg, freg, mod := newTestEnv(t)
	id, code := declareFunc(t, treg, freg, mod, "div_zero", 1)

	dst := code.NewReg()
	code.Append(ir.Instruction{
		Op: ir.OpIDiv,
		A:  ir.Reg(dst, treg.Builtins.I32),
		B:  ir.Reg(1, treg.Builtins.I32),
		C:  ir.ImmInt(0, treg.Builtins.I32),
	})
	code.Append(ir.Instruction{Op: ir.OpRet, A: ir.Reg(dst, treg.Builtins.I32)})

	m := vm.New(mod, treg, freg, 4096)
	_, err := m.Execute(id, []vm.Value{{Type: treg.Builtins.I32, Raw: 10}})
	if err == nil {
		t.Fatal("expected a division-by-zero error, got nil")
	}
}

func TestExecuteTermOpTerminatesVM(t *testing.T) {
	treg, freg, mod := newTestEnv(t)
	id, code := declareFunc(t, treg, freg, mod, "halt", 0)
	code.Append(ir.Instruction{Op: ir.OpTerm})

	m := vm.New(mod, treg, freg, 4096)
	if _, err := m.Execute(id, nil); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if m.State() != vm.Terminated {
		t.Fatalf("expected Terminated after term, got %v", m.State())
	}
}

func TestExecuteStackOverflowOnOversizedAllocation(t *testing.T) {
	treg, freg, mod := newTestEnv(t)
	id, code := declareFunc(t, treg, freg, mod, "blow_stack", 0)

	alloc := code.NewAlloc()
	code.Append(ir.Instruction{
		Op: ir.OpStackAllocate,
		A:  ir.Stack(alloc, treg.Builtins.I32),
		B:  ir.ImmInt(1<<20, treg.Builtins.I32),
	})
	code.Append(ir.Instruction{Op: ir.OpRet})

	m := vm.New(mod, treg, freg, 64)
	if _, err := m.Execute(id, nil); err == nil {
		t.Fatal("expected a stack-overflow error, got nil")
	}
}

func TestExecuteStoreAtStackGuardBoundary(t *testing.T) {
	// With stackSize = 64, a store64 at sp+56 succeeds (56+8 lands
	// exactly on the guard boundary) and at sp+64 overflows (64+8
	// reaches into the guard region). Pins the '>' vs '>=' choice in
	// checkRange.
	t.Run("sp+56 succeeds", func(t *testing.T) {
		treg, freg, mod := newTestEnv(t)
		id, code := declareFunc(t, treg, freg, mod, "store_at_56", 0)
		code.Append(ir.Instruction{
			Op: ir.OpStore,
			A:  ir.ImmInt(56, treg.Builtins.I64),
			B:  ir.ImmInt(0, treg.Builtins.I64),
			C:  ir.ImmInt(1, treg.Builtins.I64),
		})
		code.Append(ir.Instruction{Op: ir.OpRet})

		m := vm.New(mod, treg, freg, 64)
		if _, err := m.Execute(id, nil); err != nil {
			t.Fatalf("store at sp+56 should stay inside the guard boundary, got %v", err)
		}
	})

	t.Run("sp+64 overflows", func(t *testing.T) {
		treg, freg, mod := newTestEnv(t)
		id, code := declareFunc(t, treg, freg, mod, "store_at_64", 0)
		code.Append(ir.Instruction{
			Op: ir.OpStore,
			A:  ir.ImmInt(64, treg.Builtins.I64),
			B:  ir.ImmInt(0, treg.Builtins.I64),
			C:  ir.ImmInt(1, treg.Builtins.I64),
		})
		code.Append(ir.Instruction{Op: ir.OpRet})

		m := vm.New(mod, treg, freg, 64)
		if _, err := m.Execute(id, nil); err == nil {
			t.Fatal("store at sp+64 should overflow the guard region")
		}
	})
}

func TestExecuteCallsHostFunction(t *testing.T) {
	treg, freg, mod := newTestEnv(t)

	ft := types.FunctionType{Return: treg.Builtins.I32, Arguments: []types.Argument{
		{Kind: types.ArgValue, Type: treg.Builtins.I32},
	}}
	sig := treg.RegisterFunctionType("test_module::", ft)
	hostID := freg.Declare(funcreg.Function{Name: "double", FQN: "test_module::double", Signature: sig, HostEntry: 1})
	freg.MarkBodyFinalized(hostID)

	callerID, code := declareFunc(t, treg, freg, mod, "caller", 1)
	code.Append(ir.Instruction{Op: ir.OpParam, A: ir.Reg(1, treg.Builtins.I32), B: ir.ImmInt(0, treg.Builtins.I32)})
	code.Append(ir.Instruction{Op: ir.OpCall, A: ir.ImmFunc(uint32(hostID))})
	code.Append(ir.Instruction{Op: ir.OpRet})

	m := vm.New(mod, treg, freg, 4096)
	m.RegisterHost(uint32(hostID), func(_ *vm.VM, args []vm.Value) (vm.Value, error) {
		return vm.Value{Type: treg.Builtins.I32, Raw: args[0].Raw * 2}, nil
	})

	ret, err := m.Execute(callerID, []vm.Value{{Type: treg.Builtins.I32, Raw: 21}})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if ret.Raw != 42 {
		t.Fatalf("got %d, want 42", ret.Raw)
	}
}
