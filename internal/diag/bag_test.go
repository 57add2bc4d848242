package diag_test

import (
	"errors"
	"testing"

	"kestrel/internal/diag"
	"kestrel/internal/source"
)

func TestBagLimitAndErrors(t *testing.T) {
	bag := diag.NewBag(2)
	r := diag.BagReporter{Bag: bag}

	diag.ReportWarning(r, diag.SemaTypeMismatch, source.Span{Start: 4, End: 5}, "warn").Emit()
	if bag.HasErrors() {
		t.Fatalf("warning must not count as error")
	}
	if bag.Err() != nil {
		t.Fatalf("Err() should be nil without errors")
	}

	diag.ReportError(r, diag.SemaUnresolvedSymbol, source.Span{Start: 1, End: 2}, "first").Emit()
	if bag.Add(diag.NewError(diag.UnknownCode, source.Span{}, "dropped")) {
		t.Fatalf("bag over limit must reject")
	}
	if bag.Len() != 2 {
		t.Fatalf("Len = %d, want 2", bag.Len())
	}

	var be *diag.BagError
	if err := bag.Err(); !errors.As(err, &be) || err.Error() != "first" {
		t.Fatalf("Err() = %v", err)
	}
}

func TestBagSortAndDedup(t *testing.T) {
	bag := diag.NewBag(10)
	bag.Add(diag.NewError(diag.SemaTypeMismatch, source.Span{Start: 9, End: 10}, "b"))
	bag.Add(diag.New(diag.SevWarning, diag.SemaTypeMismatch, source.Span{Start: 1, End: 2}, "a"))
	bag.Add(diag.NewError(diag.SemaTypeMismatch, source.Span{Start: 1, End: 2}, "a"))
	bag.Add(diag.NewError(diag.SemaTypeMismatch, source.Span{Start: 9, End: 10}, "b"))

	bag.Sort()
	bag.Dedup()

	items := bag.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 items after dedup, got %d", len(items))
	}
	if items[0].Severity != diag.SevError || items[0].Primary.Start != 1 {
		t.Errorf("unexpected first item: %+v", items[0])
	}
}

func TestReportBuilderEmitsOnce(t *testing.T) {
	bag := diag.NewBag(10)
	b := diag.ReportError(diag.BagReporter{Bag: bag}, diag.SemaDuplicateSymbol, source.Span{}, "dup").
		WithNote(source.Span{Start: 3, End: 4}, "previous declaration")
	b.Emit()
	b.Emit()
	if bag.Len() != 1 {
		t.Fatalf("Emit must be idempotent, got %d items", bag.Len())
	}
	if n := len(bag.Items()[0].Notes); n != 1 {
		t.Errorf("notes = %d", n)
	}
}

func TestCodeID(t *testing.T) {
	tests := map[diag.Code]string{
		diag.LexUnknownChar:      "LEX1001",
		diag.SynExpectSemicolon:  "SYN2002",
		diag.SemaOccursCheck:     "SEM3004",
		diag.IOLoadFileError:     "IO4001",
		diag.ProjInvalidManifest: "PRJ5001",
		diag.GenLowerFailed:      "GEN6001",
		diag.UnknownCode:         "E0000",
	}
	for code, want := range tests {
		if got := code.ID(); got != want {
			t.Errorf("%d.ID() = %s, want %s", code, got, want)
		}
	}
}
