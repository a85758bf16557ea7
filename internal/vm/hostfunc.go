package vm

import (
	"fmt"

	"loom/internal/types"
)

// Value is the argument/return representation crossing the host-function
// bridge (§4.8): a primitive carries its bit pattern directly, a
// non-primitive or pointer-kind value carries the stack address the VM
// stored it at.
type Value struct {
	Type  types.TypeID
	Raw   RegWord
	ByRef bool
}

// HostFunc is a native function bound into the registry under a
// funcreg.ID. The VM marshals arguments into and return values out of
// Value per the declared signature before and after calling it.
type HostFunc func(vm *VM, args []Value) (Value, error)

// RegisterHost binds a native implementation under fn's id. fn must
// already be declared in the VM's function registry with HostEntry set.
func (vm *VM) RegisterHost(id uint32, impl HostFunc) {
	vm.host[id] = impl
}

// callHost marshals the declared argument registers into Value per
// ArgKind, invokes impl, and writes the result back to v0 or the
// caller-provided ret_ptr.
func (vm *VM) callHost(fnID uint32, sig *types.FunctionType, impl HostFunc) error {
	args := make([]Value, 0, len(sig.ExplicitArgs()))
	for i, a := range sig.ExplicitArgs() {
		if i >= numArgRegs {
			return &RuntimeError{Func: fnID, Msg: "host call: too many arguments for the argument-register bank"}
		}
		t, ok := vm.Types.Get(a.Type)
		if !ok {
			return &RuntimeError{Func: fnID, Msg: fmt.Sprintf("host call: unknown argument type for arg %d", i)}
		}
		byRef := a.Kind == types.ArgPointer || !t.Meta.Has(types.MetaIsPrimitive)
		if a.Kind == types.ArgValue && !t.Meta.Has(types.MetaIsPrimitive) {
			return &RuntimeError{Func: fnID, Msg: fmt.Sprintf("host call: arg %d declares pass-by-value for a non-primitive type", i)}
		}
		args = append(args, Value{Type: a.Type, Raw: vm.special.Arg[i], ByRef: byRef})
	}

	ret, err := impl(vm, args)
	if err != nil {
		return err
	}

	retType, retOK := vm.Types.Get(sig.Return)
	if sig.Return == types.NoTypeID || (retOK && retType.Primitive == types.PrimVoid) {
		return nil
	}
	if retOK && !retType.Meta.Has(types.MetaIsPrimitive) {
		retAddr, ok := retPtrArg(vm, sig)
		if !ok {
			return &RuntimeError{Func: fnID, Msg: "host call: non-primitive return with no ret_ptr"}
		}
		return vm.storeWord(retAddr, ret.Raw)
	}
	vm.special.V0 = ret.Raw
	return nil
}

// retPtrArg locates the implicit ret_ptr argument in sig's prefix and
// reads the address the caller placed in the matching Arg register.
func retPtrArg(vm *VM, sig *types.FunctionType) (uint64, bool) {
	for i, a := range sig.Arguments {
		if a.Kind == types.ArgRetPtr && i < numArgRegs {
			return uint64(vm.special.Arg[i]), true
		}
	}
	return 0, false
}
