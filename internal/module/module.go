// Package module implements the serializable container of types,
// functions, globals, and IR described in §4.6, plus its msgpack
// encoding and an on-disk compiled-module cache.
package module

import (
	"hash/fnv"

	"loom/internal/funcreg"
	"loom/internal/ir"
	"loom/internal/types"
)

// ID is the hash of a module's name (§3 Module: "id (hash of name)").
type ID uint64

// HashName computes a module's id from its name.
func HashName(name string) ID {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return ID(h.Sum64())
}

// DataAccess mirrors types.Access for module_data slots.
type DataAccess = types.Access

// Data is one entry of the module's data area (§3 "module_data slots").
type Data struct {
	Name    string
	Type    types.TypeID
	Size    uint32
	Storage []byte
	Access  DataAccess
}

// Module is the runtime container: owned types, owned functions (index 0
// reserved null per §3), and a data area populated by the module's
// synthetic __init__ function.
type Module struct {
	ID   ID
	Name string
	Path string

	Types     []types.TypeID
	Functions []funcreg.ID // index 0 is funcreg.NoID, per spec
	Data      []Data

	InitFunc funcreg.ID

	Code map[funcreg.ID]*ir.CodeHolder
}

// New creates an empty module with the reserved null function slot.
func New(name, path string) *Module {
	return &Module{
		ID:        HashName(name),
		Name:      name,
		Path:      path,
		Functions: []funcreg.ID{funcreg.NoID},
		Code:      make(map[funcreg.ID]*ir.CodeHolder),
	}
}

// AddType records ownership of a type in this module.
func (m *Module) AddType(id types.TypeID) {
	for _, t := range m.Types {
		if t == id {
			return
		}
	}
	m.Types = append(m.Types, id)
}

// AddFunction records ownership of a function in this module.
func (m *Module) AddFunction(id funcreg.ID) {
	m.Functions = append(m.Functions, id)
}

// AddData declares a new global data slot and returns its index.
func (m *Module) AddData(d Data) uint32 {
	m.Data = append(m.Data, d)
	return uint32(len(m.Data) - 1)
}
