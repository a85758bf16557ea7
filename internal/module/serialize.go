package module

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"

	"loom/internal/funcreg"
	"loom/internal/ir"
	"loom/internal/source"
	"loom/internal/types"
)

// BuildArtifact flattens m, treg, and freg into a serializable Artifact.
func BuildArtifact(m *Module, treg *types.Registry, freg *funcreg.Registry) *Artifact {
	a := &Artifact{ModuleID: uint64(m.ID), Name: m.Name, Path: m.Path}

	for _, fid := range m.Functions {
		if fid == funcreg.NoID {
			continue
		}
		f, ok := freg.Get(fid)
		if !ok {
			continue
		}
		rec := FuncRecord{
			Name: f.Name, DisplayName: f.DisplayName, FQN: f.FQN,
			Access: uint8(f.Access), IsHost: f.HostEntry != 0, IsMethod: f.IsMethod,
			BaseOffset: f.BaseOffset, DeclaredAt: spanRecord(f.DeclaredAt),
		}
		if sig, ok := treg.Get(f.Signature); ok && sig.Function != nil {
			rec.ReturnFQN = fqnOrEmpty(treg, sig.Function.Return)
			for _, arg := range sig.Function.Arguments {
				rec.Args = append(rec.Args, ArgRecord{Kind: uint8(arg.Kind), TypeFQN: fqnOrEmpty(treg, arg.Type), Name: arg.Name})
			}
		}
		a.Functions = append(a.Functions, rec)
	}

	for _, tid := range m.Types {
		t, ok := treg.Get(tid)
		if !ok || t.Kind == types.KindTemplate {
			continue // template subtrees are out of scope for this artifact
		}
		a.Types = append(a.Types, typeRecord(treg, freg, t))
	}

	for _, d := range m.Data {
		a.Data = append(a.Data, DataRecord{
			Name: d.Name, TypeFQN: fqnOrEmpty(treg, d.Type), Size: d.Size,
			Bytes: d.Storage, Access: uint8(d.Access),
		})
	}

	for fid, code := range m.Code {
		f, ok := freg.Get(fid)
		if !ok {
			continue
		}
		rec := IRRecord{FuncFQN: f.FQN}
		for _, instr := range code.Instrs {
			rec.Instrs = append(rec.Instrs, instrRecord(treg, instr))
		}
		a.IR = append(a.IR, rec)
	}
	return a
}

func spanRecord(s source.Span) SpanRecord {
	return SpanRecord{File: uint32(s.File), Start: s.Start, End: s.End}
}

func fqnOrEmpty(treg *types.Registry, id types.TypeID) string {
	if id == types.NoTypeID {
		return ""
	}
	t, ok := treg.Get(id)
	if !ok {
		return ""
	}
	return t.FQN
}

func typeRecord(treg *types.Registry, freg *funcreg.Registry, t *types.Type) TypeRecord {
	rec := TypeRecord{FQN: t.FQN, Name: t.Name, Kind: uint8(t.Kind), Meta: uint16(t.Meta), Size: t.Size}
	switch t.Kind {
	case types.KindPrimitive:
		rec.Primitive = uint8(t.Primitive)
	case types.KindAlias:
		rec.AliasOfFQN = fqnOrEmpty(treg, t.Alias)
	case types.KindClass:
		if t.Class != nil {
			for _, p := range t.Class.Properties {
				rec.Properties = append(rec.Properties, PropertyRecord{
					Name: p.Name, Offset: p.Offset, TypeFQN: fqnOrEmpty(treg, p.Type),
					Flags: uint8(p.Flags), Access: uint8(p.Access),
				})
			}
			for _, b := range t.Class.Bases {
				rec.Bases = append(rec.Bases, BaseRecord{TypeFQN: fqnOrEmpty(treg, b.Type), Offset: b.Offset, Access: uint8(b.Access)})
			}
			for _, meth := range t.Class.Methods {
				// MethodFQNs has to carry the function's own FQN, not its
				// bare member name (two classes both have a "sum" method) —
				// Materialize looks each one up in a map keyed by FQN.
				if fn, ok := freg.Get(funcreg.ID(meth.Func)); ok {
					rec.MethodFQNs = append(rec.MethodFQNs, fn.FQN)
				}
			}
			if t.Class.Destructor != types.NoFuncID {
				if fn, ok := freg.Get(funcreg.ID(t.Class.Destructor)); ok {
					rec.DestructorFQN = fn.FQN
				}
			}
		}
	case types.KindFunction:
		if t.Function != nil {
			rec.FnReturnFQN = fqnOrEmpty(treg, t.Function.Return)
			for _, arg := range t.Function.Arguments {
				rec.FnArgs = append(rec.FnArgs, ArgRecord{Kind: uint8(arg.Kind), TypeFQN: fqnOrEmpty(treg, arg.Type), Name: arg.Name})
			}
		}
	}
	return rec
}

func instrRecord(treg *types.Registry, instr ir.Instruction) InstrRecord {
	return InstrRecord{
		Op: uint16(instr.Op),
		A:  operandRecord(treg, instr.A), B: operandRecord(treg, instr.B), C: operandRecord(treg, instr.C),
		L1: uint32(instr.L1), L2: uint32(instr.L2), Src: spanRecord(instr.Src),
	}
}

func operandRecord(treg *types.Registry, op ir.Operand) OperandRecord {
	return OperandRecord{
		Flag: uint8(op.Flag), TypeFQN: fqnOrEmpty(treg, op.Type),
		Reg: uint32(op.Reg), Stack: uint32(op.Stack), Func: op.Func, Imm: op.Imm,
	}
}

// Encode msgpack-serializes an artifact.
func Encode(a *Artifact) ([]byte, error) {
	var buf bytes.Buffer
	if err := msgpack.NewEncoder(&buf).Encode(a); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a previously-encoded artifact.
func Decode(data []byte) (*Artifact, error) {
	var a Artifact
	if err := msgpack.NewDecoder(bytes.NewReader(data)).Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}
