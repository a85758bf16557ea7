package module

import (
	"loom/internal/funcreg"
	"loom/internal/ir"
	"loom/internal/source"
	"loom/internal/types"
)

// Materialize reconstructs a live Module plus the registries it depends
// on, using the skeleton-then-fill ordering §4.6 prescribes: first
// functions (without signatures), then types (without properties/bases),
// then signatures, then type details. This breaks the method → signature
// type → function arg type → class cycle by ensuring every FQN the later
// phases dereference was already inserted as a skeleton.
func (a *Artifact) Materialize() (*Module, *types.Registry, *funcreg.Registry, error) {
	treg := types.NewRegistry()
	freg := funcreg.New()
	types.SetFunctionTypeLookup(freg.SignatureOf)

	fqnToFunc := make(map[string]funcreg.ID, len(a.Functions))
	for _, fr := range a.Functions {
		var hostEntry uintptr
		if fr.IsHost {
			hostEntry = 1
		}
		id := freg.Declare(funcreg.Function{
			Name: fr.Name, DisplayName: fr.DisplayName, FQN: fr.FQN,
			Access: types.Access(fr.Access), HostEntry: hostEntry, IsMethod: fr.IsMethod,
			BaseOffset: fr.BaseOffset, DeclaredAt: spanFromRecord(fr.DeclaredAt),
		})
		fqnToFunc[fr.FQN] = id
	}

	for _, tr := range a.Types {
		switch types.Kind(tr.Kind) {
		case types.KindClass:
			treg.RegisterClass(tr.FQN, tr.Name, source.Span{})
		case types.KindAlias:
			treg.RegisterAlias(tr.FQN, tr.Name, types.NoTypeID)
		}
	}

	for _, fr := range a.Functions {
		if fr.ReturnFQN == "" && len(fr.Args) == 0 {
			continue
		}
		ft := types.FunctionType{Return: resolveFQN(treg, fr.ReturnFQN)}
		for _, arg := range fr.Args {
			ft.Arguments = append(ft.Arguments, types.Argument{Kind: types.ArgKind(arg.Kind), Type: resolveFQN(treg, arg.TypeFQN), Name: arg.Name})
		}
		sig := treg.RegisterFunctionType("", ft)
		freg.SetSignature(fqnToFunc[fr.FQN], sig)
		freg.MarkBodyFinalized(fqnToFunc[fr.FQN])
	}

	for _, tr := range a.Types {
		id, ok := treg.GetByFQN(tr.FQN)
		if !ok {
			continue
		}
		switch types.Kind(tr.Kind) {
		case types.KindAlias:
			t, _ := treg.Get(id)
			t.Alias = resolveFQN(treg, tr.AliasOfFQN)
		case types.KindClass:
			for _, b := range tr.Bases {
				treg.AddBase(id, resolveFQN(treg, b.TypeFQN), types.Access(b.Access))
			}
			for _, p := range tr.Properties {
				treg.AddProperty(id, p.Name, resolveFQN(treg, p.TypeFQN), types.PropertyFlags(p.Flags), types.Access(p.Access))
			}
			for _, methFQN := range tr.MethodFQNs {
				fnID, ok := fqnToFunc[methFQN]
				if !ok {
					continue
				}
				fn, ok := freg.Get(fnID)
				if !ok {
					continue
				}
				treg.AddMethod(id, types.Method{Name: fn.Name, Func: types.FuncID(fnID), Access: fn.Access, Static: !fn.IsMethod})
			}
			if tr.DestructorFQN != "" {
				if fnID, ok := fqnToFunc[tr.DestructorFQN]; ok {
					treg.SetDestructor(id, types.FuncID(fnID))
				}
			}
		}
	}

	m := New(a.Name, a.Path)
	m.ID = ID(a.ModuleID)
	for _, tr := range a.Types {
		if id, ok := treg.GetByFQN(tr.FQN); ok {
			m.AddType(id)
		}
	}
	for fqn, fid := range fqnToFunc {
		_ = fqn
		m.AddFunction(fid)
	}
	for _, dr := range a.Data {
		m.AddData(Data{Name: dr.Name, Type: resolveFQN(treg, dr.TypeFQN), Size: dr.Size, Storage: dr.Bytes, Access: types.Access(dr.Access)})
	}

	for _, rec := range a.IR {
		fid, ok := fqnToFunc[rec.FuncFQN]
		if !ok {
			continue
		}
		code := ir.NewCodeHolder()
		for _, instrRec := range rec.Instrs {
			code.Append(instrFromRecord(treg, instrRec))
		}
		m.Code[fid] = code
	}

	return m, treg, freg, nil
}

func resolveFQN(treg *types.Registry, fqn string) types.TypeID {
	if fqn == "" {
		return types.NoTypeID
	}
	id, _ := treg.GetByFQN(fqn)
	return id
}

func spanFromRecord(s SpanRecord) source.Span {
	return source.Span{File: source.FileID(s.File), Start: s.Start, End: s.End}
}

func instrFromRecord(treg *types.Registry, rec InstrRecord) ir.Instruction {
	return ir.Instruction{
		Op: ir.Op(rec.Op),
		A:  operandFromRecord(treg, rec.A), B: operandFromRecord(treg, rec.B), C: operandFromRecord(treg, rec.C),
		L1: ir.LabelID(rec.L1), L2: ir.LabelID(rec.L2), Src: spanFromRecord(rec.Src),
	}
}

func operandFromRecord(treg *types.Registry, rec OperandRecord) ir.Operand {
	return ir.Operand{
		Flag: ir.OperandFlag(rec.Flag), Type: resolveFQN(treg, rec.TypeFQN),
		Reg: ir.RegID(rec.Reg), Stack: ir.StackAllocID(rec.Stack), Func: rec.Func, Imm: rec.Imm,
	}
}
