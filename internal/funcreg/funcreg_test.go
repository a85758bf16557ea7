package funcreg_test

import (
	"testing"

	"loom/internal/funcreg"
	"loom/internal/types"
)

func TestNewRegistryReservesNullSentinel(t *testing.T) {
	r := funcreg.New()
	if funcreg.NoID != 0 {
		t.Fatalf("NoID = %d, want 0", funcreg.NoID)
	}
	if _, ok := r.Get(funcreg.NoID); ok {
		t.Fatalf("Get(NoID) should report false")
	}
	if r.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 for a fresh registry", r.Len())
	}
}

func TestDeclareAssignsIncreasingIDsAndIndexesByFQN(t *testing.T) {
	r := funcreg.New()
	a := r.Declare(funcreg.Function{Name: "f", FQN: "mod::f"})
	b := r.Declare(funcreg.Function{Name: "g", FQN: "mod::g"})
	if a == funcreg.NoID || b == funcreg.NoID || a == b {
		t.Fatalf("Declare returned invalid/duplicate ids: %d, %d", a, b)
	}
	got, ok := r.GetByFQN("mod::f")
	if !ok || got != a {
		t.Fatalf("GetByFQN(\"mod::f\") = (%d, %v), want (%d, true)", got, ok, a)
	}
	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}
}

func TestSetSignatureAndMarkBodyFinalized(t *testing.T) {
	r := funcreg.New()
	id := r.Declare(funcreg.Function{Name: "f", FQN: "mod::f"})
	if r.BodyFinalized(id) {
		t.Fatalf("a freshly declared function should not be body-finalized")
	}
	r.SetSignature(id, types.TypeID(42))
	r.MarkBodyFinalized(id)
	fn, ok := r.Get(id)
	if !ok || fn.Signature != types.TypeID(42) {
		t.Fatalf("signature not recorded: %+v", fn)
	}
	if !r.BodyFinalized(id) {
		t.Fatalf("MarkBodyFinalized should make BodyFinalized report true")
	}
}

func TestSignatureOfAdaptsToTypesLookupSeam(t *testing.T) {
	r := funcreg.New()
	id := r.Declare(funcreg.Function{Name: "f", FQN: "mod::f"})
	r.SetSignature(id, types.TypeID(7))
	if got := r.SignatureOf(types.FuncID(id)); got != types.TypeID(7) {
		t.Fatalf("SignatureOf = %d, want 7", got)
	}
	if got := r.SignatureOf(types.FuncID(999)); got != types.NoTypeID {
		t.Fatalf("SignatureOf(unknown) = %d, want NoTypeID", got)
	}
}
