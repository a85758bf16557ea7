package module_test

import (
	"testing"

	"loom/internal/funcreg"
	"loom/internal/ir"
	"loom/internal/module"
	"loom/internal/source"
	"loom/internal/types"
)

// buildRoundTripModule assembles a small but representative module by
// hand (a class with properties and a method, a free function, a data
// slot, and one function body's worth of IR), mirroring how vm_test.go
// builds its fixtures directly against the registries rather than
// through the parser.
func buildRoundTripModule(t *testing.T) (*module.Module, *types.Registry, *funcreg.Registry) {
	t.Helper()
	treg := types.NewRegistry()
	freg := funcreg.New()
	types.SetFunctionTypeLookup(freg.SignatureOf)
	mod := module.New("rt_mod", "rt_mod.loom")

	pointID := treg.RegisterClass("rt_mod::Point", "Point", source.Span{})
	treg.AddProperty(pointID, "x", treg.Builtins.I32, types.PropReadable|types.PropWritable, types.AccessPublic)
	treg.AddProperty(pointID, "y", treg.Builtins.I32, types.PropReadable|types.PropWritable, types.AccessPublic)
	mod.AddType(pointID)

	methodSig := treg.RegisterFunctionType("rt_mod::", types.FunctionType{
		Return:    treg.Builtins.I32,
		Arguments: []types.Argument{{Kind: types.ArgThisPtr, Type: treg.Builtins.PointerOpaque, Name: "this"}},
	})
	sumID := freg.Declare(funcreg.Function{
		Name: "sum", FQN: "rt_mod::Point::sum", Signature: methodSig, IsMethod: true,
	})
	freg.MarkBodyFinalized(sumID)
	treg.AddMethod(pointID, types.Method{Name: "sum", Func: types.FuncID(sumID)})
	mod.AddFunction(sumID)

	sumCode := ir.NewCodeHolder()
	dst := sumCode.NewReg()
	sumCode.Append(ir.Instruction{Op: ir.OpIAdd, A: ir.Reg(dst, treg.Builtins.I32), B: ir.ImmInt(1, treg.Builtins.I32), C: ir.ImmInt(2, treg.Builtins.I32)})
	sumCode.Append(ir.Instruction{Op: ir.OpRet, A: ir.Reg(dst, treg.Builtins.I32)})
	mod.Code[sumID] = sumCode

	freeSig := treg.RegisterFunctionType("rt_mod::", types.FunctionType{
		Return: treg.Builtins.I32,
		Arguments: []types.Argument{
			{Kind: types.ArgValue, Type: treg.Builtins.I32, Name: "n"},
		},
	})
	doubleID := freg.Declare(funcreg.Function{Name: "double", FQN: "rt_mod::double", Signature: freeSig})
	freg.MarkBodyFinalized(doubleID)
	mod.AddFunction(doubleID)

	doubleCode := ir.NewCodeHolder()
	dReg := doubleCode.NewReg()
	doubleCode.Append(ir.Instruction{Op: ir.OpIMul, A: ir.Reg(dReg, treg.Builtins.I32), B: ir.Reg(1, treg.Builtins.I32), C: ir.ImmInt(2, treg.Builtins.I32)})
	doubleCode.Append(ir.Instruction{Op: ir.OpRet, A: ir.Reg(dReg, treg.Builtins.I32)})
	mod.Code[doubleID] = doubleCode

	mod.AddData(module.Data{Name: "greeting", Type: treg.Builtins.PointerOpaque, Size: 5, Storage: []byte("hello"), Access: types.AccessPrivate})

	return mod, treg, freg
}

// TestSerializeRoundTrip exercises the encode/decode/materialize chain
// (§3's skeleton-then-fill deserialization ordering): every type,
// function, data slot, and instruction recovered after a round trip must
// match the originals at the logical level (FQNs, signatures, raw
// bytes, and op-codes) even though the materialized registries assign
// fresh TypeIDs and funcreg.IDs of their own.
func TestSerializeRoundTrip(t *testing.T) {
	mod, treg, freg := buildRoundTripModule(t)

	artifact := module.BuildArtifact(mod, treg, freg)
	encoded, err := module.Encode(artifact)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := module.Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	gotMod, gotTypes, gotFuncs, err := decoded.Materialize()
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}

	if gotMod.Name != "rt_mod" || gotMod.Path != "rt_mod.loom" {
		t.Fatalf("module identity not preserved: got name=%q path=%q", gotMod.Name, gotMod.Path)
	}

	pointID, ok := gotTypes.GetByFQN("rt_mod::Point")
	if !ok {
		t.Fatal("Point type missing after round trip")
	}
	point, ok := gotTypes.Get(pointID)
	if !ok || point.Class == nil {
		t.Fatal("Point did not materialize as a class")
	}
	if len(point.Class.Properties) != 2 {
		t.Fatalf("got %d properties, want 2", len(point.Class.Properties))
	}
	if point.Class.Properties[0].Name != "x" || point.Class.Properties[1].Name != "y" {
		t.Fatalf("property order/names not preserved: %+v", point.Class.Properties)
	}

	sumID, ok := gotFuncs.GetByFQN("rt_mod::Point::sum")
	if !ok {
		t.Fatal("Point::sum missing after round trip")
	}
	sumFn, ok := gotFuncs.Get(sumID)
	if !ok || !sumFn.IsMethod {
		t.Fatal("Point::sum lost its IsMethod flag")
	}
	sumCode, ok := gotMod.Code[sumID]
	if !ok || len(sumCode.Instrs) != 2 {
		t.Fatalf("Point::sum's IR did not round-trip: %+v", sumCode)
	}
	if sumCode.Instrs[0].Op != ir.OpIAdd || sumCode.Instrs[1].Op != ir.OpRet {
		t.Fatalf("Point::sum's op-codes changed: %+v", sumCode.Instrs)
	}

	doubleID, ok := gotFuncs.GetByFQN("rt_mod::double")
	if !ok {
		t.Fatal("double missing after round trip")
	}
	doubleFn, _ := gotFuncs.Get(doubleID)
	sigType, ok := gotTypes.Get(doubleFn.Signature)
	if !ok || sigType.Function == nil || len(sigType.Function.Arguments) != 1 {
		t.Fatalf("double's signature did not round-trip: %+v", sigType)
	}

	if len(gotMod.Data) != 1 {
		t.Fatalf("got %d data slots, want 1", len(gotMod.Data))
	}
	if string(gotMod.Data[0].Storage) != "hello" {
		t.Fatalf("data bytes changed: got %q, want %q", gotMod.Data[0].Storage, "hello")
	}
}

// TestSerializeExcludesTemplates confirms the documented exclusion: an
// uninstantiated template type never reaches the artifact, even though
// its module owns it, since only concrete instantiated types have a
// fixed layout worth serializing.
func TestSerializeExcludesTemplates(t *testing.T) {
	treg := types.NewRegistry()
	freg := funcreg.New()
	types.SetFunctionTypeLookup(freg.SignatureOf)
	mod := module.New("tmpl_mod", "tmpl_mod.loom")

	tmplID := treg.RegisterTemplate("tmpl_mod::Array", "Array", []types.TemplateParam{{Name: "T"}}, nil, 0)
	mod.AddType(tmplID)

	artifact := module.BuildArtifact(mod, treg, freg)
	if len(artifact.Types) != 0 {
		t.Fatalf("expected the template to be excluded, got %d types", len(artifact.Types))
	}
}
