// Package vm implements the register-based interpreter (§4.7) and the
// host-function bridge (§4.8): a dense-switch dispatch loop over the
// compiler's three-address IR, a per-call register bank sized lazily to
// the function's virtual-register count, and a single shared stack
// buffer guarded by an 8-byte tail region.
//
// The spec describes one flat instruction vector addressed by a single
// ip/ra pair; this implementation gets the same jal/jalr/prepareState
// semantics from a Go call stack of per-function cursors (one frame per
// active call) instead of literally concatenating every function's code
// into one vector and doing pointer arithmetic over it — idiomatic here,
// since Go already has a safe growable call stack to reuse.
package vm

import (
	"fmt"
	"math"

	"fortio.org/safecast"

	"loom/internal/funcreg"
	"loom/internal/ir"
	"loom/internal/module"
	"loom/internal/types"
)

const defaultGuardSize = 8

// VM owns one context's execution state: the type and function
// registries it interprets against, the module supplying code and data,
// the host-function table, the stack buffer, and the active call stack.
type VM struct {
	Types *types.Registry
	Funcs *funcreg.Registry
	Mod   *module.Module

	host map[uint32]HostFunc

	stack     []byte
	guardSize uint64
	special   specialRegs

	frames  []*frame
	state   State
	reentry int // isExecuting: re-entry count across nested Execute calls
}

// New builds a VM with a stackSize-byte stack buffer (plus the fixed
// tail guard) over mod's code and data, backed by treg/freg.
func New(mod *module.Module, treg *types.Registry, freg *funcreg.Registry, stackSize uint64) *VM {
	return &VM{
		Types:     treg,
		Funcs:     freg,
		Mod:       mod,
		host:      make(map[uint32]HostFunc),
		stack:     make([]byte, stackSize+defaultGuardSize),
		guardSize: defaultGuardSize,
		state:     Running,
	}
}

// State reports the VM's top-level run state.
func (vm *VM) State() State { return vm.state }

// IsExecuting reports the current re-entry depth (§4.7 "Nesting").
func (vm *VM) IsExecuting() int { return vm.reentry }

func (vm *VM) curFrame() *frame { return vm.frames[len(vm.frames)-1] }

// Execute runs fn to completion (or to a runtime error / HostPanic),
// returning its primitive return value. It is reentrant: a host function
// invoked from within a running call may call Execute again, and
// prepareState below preserves the interrupted frame stack across that
// nested run.
func (vm *VM) Execute(fn funcreg.ID, args []Value) (Value, error) {
	saved := vm.prepareState()
	defer vm.restoreState(saved)

	vm.reentry++
	defer func() { vm.reentry-- }()

	for i, a := range args {
		if i >= numArgRegs {
			break
		}
		vm.special.Arg[i] = a.Raw
	}

	ret, err := vm.call(uint32(fn))
	if err != nil {
		return Value{}, err
	}
	return ret, nil
}

// prepareState pushes the current frame stack aside so a nested Execute
// starts from an empty call stack, per §4.7 "prepareState pushes ip and
// ra so host code can re-enter the VM".
func (vm *VM) prepareState() []*frame {
	saved := vm.frames
	vm.frames = nil
	return saved
}

// restoreState pops the frame stack prepareState pushed aside.
func (vm *VM) restoreState(saved []*frame) {
	vm.frames = saved
}

// call resolves fnID through the function registry, dispatching to the
// host bridge for native functions and to the bytecode interpreter loop
// otherwise. It implements jal's semantics without a literal ip/ra
// mutation, since each nested call gets its own frame instead of sharing
// one flat instruction vector.
func (vm *VM) call(fnID uint32) (Value, error) {
	fn, ok := vm.Funcs.Get(funcreg.ID(fnID))
	if !ok {
		return Value{}, &RuntimeError{Func: fnID, Msg: "call to undeclared function"}
	}

	sigType, hasSig := vm.Types.Get(fn.Signature)
	var sig *types.FunctionType
	if hasSig {
		sig = sigType.Function
	}

	if fn.HostEntry != 0 {
		impl, bound := vm.host[fnID]
		if !bound {
			return Value{}, &RuntimeError{Func: fnID, Msg: "host function has no registered implementation"}
		}
		if sig == nil {
			return Value{}, &RuntimeError{Func: fnID, Msg: "host function has no finalized signature"}
		}
		if err := vm.callHost(fnID, sig, impl); err != nil {
			return Value{}, err
		}
		return Value{Type: sig.Return, Raw: vm.special.V0}, nil
	}

	code, ok := vm.Mod.Code[funcreg.ID(fnID)]
	if !ok {
		return Value{}, &RuntimeError{Func: fnID, Msg: "bytecode function has no compiled body"}
	}

	f := newFrame(fnID, code)
	if sig != nil {
		for i := range sig.Arguments {
			if i >= numArgRegs {
				break
			}
			f.general.set(i+1, vm.special.Arg[i])
		}
	}
	vm.frames = append(vm.frames, f)
	defer func() { vm.frames = vm.frames[:len(vm.frames)-1] }()

	if err := vm.run(f); err != nil {
		return Value{}, err
	}
	retType := types.NoTypeID
	if sig != nil {
		retType = sig.Return
	}
	return Value{Type: retType, Raw: vm.special.V0}, nil
}

// run drives one frame's dispatch loop until it executes ret/term or
// falls off the end of its instruction vector.
func (vm *VM) run(f *frame) error {
	for f.ip < len(f.code.Instrs) {
		instr := f.code.Instrs[f.ip]
		done, err := vm.step(f, instr)
		if err != nil {
			return err
		}
		if done {
			if instr.Op == ir.OpJump || instr.Op == ir.OpBranch {
				continue // the jump already repositioned ip
			}
			return nil
		}
		f.ip++
	}
	vm.state = Terminated
	return nil
}

// step executes one instruction, returning done=true when the frame
// should stop advancing (ret/term, or a jump already repositioned ip).
func (vm *VM) step(f *frame, instr ir.Instruction) (bool, error) {
	switch instr.Op {
	case ir.OpNoop, ir.OpLabel:
		return false, nil

	case ir.OpTerm:
		vm.state = Terminated
		return true, nil

	case ir.OpStackAllocate:
		size := vm.readOperand(f, instr.B)
		addr, err := vm.stackAlloc(f, instr.A.Stack, uint64(size))
		if err != nil {
			return false, err
		}
		if instr.C.Flag != ir.OperandNone {
			vm.writeOperand(f, instr.C, RegWord(addr))
		}
		return false, nil

	case ir.OpStackFree:
		vm.stackFree(f, instr.A.Stack)
		return false, nil

	case ir.OpModuleData:
		idx := int(vm.readOperand(f, instr.B))
		if idx < 0 || idx >= len(vm.Mod.Data) {
			return false, &RuntimeError{Func: f.fn, IP: f.ip, Msg: "module_data index out of range"}
		}
		vm.writeOperand(f, instr.A, dataWord(vm.Mod.Data[idx]))
		return false, nil

	case ir.OpLoad:
		addr := uint64(vm.readOperand(f, instr.B)) + uint64(int64(vm.readOperand(f, instr.C)))
		v, err := vm.loadWord(addr)
		if err != nil {
			return false, &RuntimeError{Func: f.fn, IP: f.ip, Msg: err.Error()}
		}
		vm.writeOperand(f, instr.A, v)
		return false, nil

	case ir.OpStore:
		addr := uint64(vm.readOperand(f, instr.A)) + uint64(int64(vm.readOperand(f, instr.B)))
		if err := vm.storeWord(addr, vm.readOperand(f, instr.C)); err != nil {
			return false, &RuntimeError{Func: f.fn, IP: f.ip, Msg: err.Error()}
		}
		return false, nil

	case ir.OpReserve:
		return false, nil

	case ir.OpResolve:
		vm.writeOperand(f, instr.A, vm.readOperand(f, instr.B))
		return false, nil

	case ir.OpCvt:
		v, err := vm.convert(instr.B.Type, instr.A.Type, vm.readOperand(f, instr.B))
		if err != nil {
			return false, &RuntimeError{Func: f.fn, IP: f.ip, Msg: err.Error()}
		}
		vm.writeOperand(f, instr.A, v)
		return false, nil

	case ir.OpJump:
		vm.jumpTo(f, instr.L1)
		return true, nil

	case ir.OpBranch:
		if vm.readOperand(f, instr.A) != 0 {
			vm.jumpTo(f, instr.L1)
		} else if instr.L2 != ir.NoLabel {
			vm.jumpTo(f, instr.L2)
		} else {
			return false, nil
		}
		return true, nil

	case ir.OpParam:
		idx := int(vm.readOperand(f, instr.B))
		if idx >= 0 && idx < numArgRegs {
			vm.special.Arg[idx] = vm.readOperand(f, instr.A)
		}
		return false, nil

	case ir.OpCall:
		var fnID uint32
		if instr.A.Flag == ir.OperandFunc {
			fnID = instr.A.Func
		} else {
			fnID = uint32(vm.readOperand(f, instr.A))
		}
		ret, err := vm.call(fnID)
		if err != nil {
			return false, err
		}
		vm.special.V0 = ret.Raw
		if instr.B.Flag != ir.OperandNone {
			vm.writeOperand(f, instr.B, ret.Raw)
		}
		return false, nil

	case ir.OpRet:
		if instr.A.Flag != ir.OperandNone {
			vm.special.V0 = vm.readOperand(f, instr.A)
		}
		return true, nil

	default:
		return vm.stepArith(f, instr)
	}
}

func (vm *VM) jumpTo(f *frame, l ir.LabelID) {
	for i, instr := range f.code.Instrs {
		if instr.Op == ir.OpLabel && instr.L1 == l {
			f.ip = i
			return
		}
	}
	f.ip = len(f.code.Instrs)
}

func dataWord(d module.Data) RegWord {
	if len(d.Storage) >= 8 {
		return RegWord(littleEndianU64(d.Storage))
	}
	var buf [8]byte
	copy(buf[:], d.Storage)
	return RegWord(littleEndianU64(buf[:]))
}

func littleEndianU64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8 && i < len(b); i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

// readOperand resolves any operand flavor to its raw register word.
func (vm *VM) readOperand(f *frame, op ir.Operand) RegWord {
	switch op.Flag {
	case ir.OperandReg:
		if vm.isFloat(op.Type) {
			return f.float.get(int(op.Reg))
		}
		return f.general.get(int(op.Reg))
	case ir.OperandStack:
		slot, ok := f.allocs[op.Stack]
		if !ok {
			return 0
		}
		w, _ := vm.loadWord(slot.addr)
		return w
	case ir.OperandImm:
		return RegWord(op.Imm)
	case ir.OperandFunc:
		return RegWord(op.Func)
	default:
		return 0
	}
}

// writeOperand stores v into a register or stack-allocation operand;
// immediates and function refs are not valid write targets.
func (vm *VM) writeOperand(f *frame, op ir.Operand, v RegWord) {
	switch op.Flag {
	case ir.OperandReg:
		if vm.isFloat(op.Type) {
			f.float.set(int(op.Reg), v)
		} else {
			f.general.set(int(op.Reg), v)
		}
	case ir.OperandStack:
		if slot, ok := f.allocs[op.Stack]; ok {
			_ = vm.storeWord(slot.addr, v)
		}
	}
}

func (vm *VM) isFloat(id types.TypeID) bool {
	t, ok := vm.Types.Get(id)
	return ok && t.Meta.Has(types.MetaIsFloatingPoint)
}

func (vm *VM) convert(from, to types.TypeID, v RegWord) (RegWord, error) {
	ft, fok := vm.Types.Get(from)
	tt, tok := vm.Types.Get(to)
	if !fok || !tok {
		return 0, fmt.Errorf("cvt: unknown type")
	}
	switch {
	case ft.Meta.Has(types.MetaIsFloatingPoint) && tt.Meta.Has(types.MetaIsIntegral):
		f := math.Float64frombits(uint64(v))
		i, err := safecast.Convert[int64](f)
		if err != nil {
			return 0, err
		}
		return RegWord(uint64(i)), nil
	case ft.Meta.Has(types.MetaIsIntegral) && tt.Meta.Has(types.MetaIsFloatingPoint):
		return RegWord(math.Float64bits(float64(int64(v)))), nil
	case ft.Meta.Has(types.MetaIsIntegral) && tt.Meta.Has(types.MetaIsIntegral):
		return narrowInt(v, tt.Size, tt.Meta.Has(types.MetaIsUnsigned))
	default:
		return v, nil
	}
}

func narrowInt(v RegWord, size uint32, unsigned bool) (RegWord, error) {
	switch size {
	case 1:
		if unsigned {
			n, err := safecast.Conv[uint8](int64(v))
			return RegWord(n), err
		}
		n, err := safecast.Conv[int8](int64(v))
		return RegWord(uint64(uint8(n))), err
	case 2:
		if unsigned {
			n, err := safecast.Conv[uint16](int64(v))
			return RegWord(n), err
		}
		n, err := safecast.Conv[int16](int64(v))
		return RegWord(uint64(uint16(n))), err
	case 4:
		if unsigned {
			n, err := safecast.Conv[uint32](int64(v))
			return RegWord(n), err
		}
		n, err := safecast.Conv[int32](int64(v))
		return RegWord(uint64(uint32(n))), err
	default:
		return v, nil
	}
}
