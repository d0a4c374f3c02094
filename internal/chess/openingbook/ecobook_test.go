package openingbook

import "testing"

func TestFromBookECO(t *testing.T) {
	refs, err := FromBookECO()
	if err != nil {
		t.Fatalf("FromBookECO: %v", err)
	}
	if len(refs) < 100 {
		t.Fatalf("only %d references", len(refs))
	}
	for _, ref := range refs {
		if ref.Fingerprint == "" || ref.ECOCode == "" || ref.PlyCount == 0 || ref.Source != SourceECOBook {
			t.Fatalf("incomplete reference %+v", ref)
		}
	}

	idx := NewIndex(refs)
	m := NewMatcher(idx)
	got := m.DetectText("1. e4 c5 2. Nf3 d6 3. d4 cxd4 4. Nxd4 Nf6 5. Nc3 a6")
	if got == nil || got.Opening == nil || got.Opening.ECOCode[0] != 'B' {
		t.Fatalf("Najdorf line match = %+v", got)
	}
}

func TestReferenceFromLine(t *testing.T) {
	ref, ok := referenceFromLine("C60", "Ruy Lopez", "1.e4 e5 2.Nf3 Nc6 3.Bb5")
	if !ok {
		t.Fatalf("line rejected")
	}
	if ref.PlyCount != 5 || ref.Moves != "1. e4 e5 2. Nf3 Nc6 3. Bb5" {
		t.Fatalf("ref = %+v", ref)
	}
	if ref.Fingerprint != fingerprintAfter(t, "1. e4 e5 2. Nf3 Nc6 3. Bb5") {
		t.Fatalf("fingerprint = %q", ref.Fingerprint)
	}
	if _, ok := referenceFromLine("X", "bad", "1.e4 e4"); ok {
		t.Fatalf("illegal line accepted")
	}
}
