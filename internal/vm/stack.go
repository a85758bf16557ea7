package vm

import (
	"encoding/binary"
	"fmt"

	"loom/internal/ir"
)

// guardLimit is the first byte offset inside the tail guard; any
// load/store/allocation whose effective range reaches it or beyond is a
// stack overflow (§4.7 "an 8-byte tail guard used for overflow detection
// on each load/store").
func (vm *VM) guardLimit() uint64 {
	return uint64(len(vm.stack)) - vm.guardSize
}

func (vm *VM) checkRange(addr, size uint64) error {
	if addr+size > vm.guardLimit() || addr+size < addr {
		return fmt.Errorf("stack overflow at address %d (size %d)", addr, size)
	}
	return nil
}

func (vm *VM) stackAlloc(f *frame, id ir.StackAllocID, size uint64) (uint64, error) {
	if size == 0 {
		size = 8
	}
	addr := vm.special.SP
	if err := vm.checkRange(addr, size); err != nil {
		return 0, err
	}
	vm.special.SP += size
	f.allocs[id] = stackSlot{addr: addr, size: size}
	return addr, nil
}

func (vm *VM) stackFree(f *frame, id ir.StackAllocID) {
	slot, ok := f.allocs[id]
	if !ok {
		return
	}
	delete(f.allocs, id)
	if vm.special.SP >= slot.size {
		vm.special.SP -= slot.size
	}
}

func (vm *VM) loadWord(addr uint64) (RegWord, error) {
	if err := vm.checkRange(addr, 8); err != nil {
		return 0, err
	}
	return RegWord(binary.LittleEndian.Uint64(vm.stack[addr : addr+8])), nil
}

func (vm *VM) storeWord(addr uint64, v RegWord) error {
	if err := vm.checkRange(addr, 8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(vm.stack[addr:addr+8], uint64(v))
	return nil
}
