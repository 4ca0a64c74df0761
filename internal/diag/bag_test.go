package diag

import "testing"

func TestBagLimitAndForce(t *testing.T) {
	b := NewBag(1)
	if !b.Add(Diagnostic{Code: InfNoSuchAttribute}) || b.Add(Diagnostic{Code: InfNoSuchAttribute}) {
		t.Fatal("limit of one not honoured")
	}
	b.Force(Diagnostic{Severity: SevInfo, Code: PrjTimings})
	if b.Len() != 2 || b.Add(Diagnostic{}) {
		t.Fatalf("len = %d after Force", b.Len())
	}
}

func TestBagSortAndDedup(t *testing.T) {
	b := NewBag(0)
	at := Location{Func: "f[int64]", Op: "r = add x y"}
	b.Add(Diagnostic{Severity: SevInfo, Code: PrjTimings})
	b.Add(Diagnostic{Severity: SevWarning, Code: InfNoSuchAttribute, Primary: at, Message: "m"})
	b.Add(Diagnostic{Severity: SevError, Code: InfNoSuchAttribute, Primary: at, Message: "m"})
	b.Add(Diagnostic{Severity: SevError, Code: InfNoSuchAttribute, Primary: at, Message: "m"})
	b.Sort()
	b.Dedup()
	items := b.Items()
	if len(items) != 2 {
		t.Fatalf("items = %v", items)
	}
	// The unit-level entry has an empty location and sorts first; for the
	// same site errors precede warnings, and Dedup keeps the first.
	if items[0].Code != PrjTimings || items[1].Severity != SevError || !b.HasErrors() {
		t.Fatalf("items = %v", items)
	}
}

func TestSeverityString(t *testing.T) {
	if SevWarning.String() != "WARNING" || Severity(9).String() != "UNKNOWN" {
		t.Fatal("severity names")
	}
}
