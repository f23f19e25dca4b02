package core

import (
	"testing"
	"time"
)

func TestParseCategory(t *testing.T) {
	cases := []struct {
		in   string
		want Category
	}{
		{"Food", Food},
		{"Transport", Transport},
		{"Utilities", Utilities},
		{"Entertainment", Entertainment},
		{"Miscellaneous", Miscellaneous},
		{"Misc", Miscellaneous}, // legacy alias
		{" Food ", Food},
		{"Groceries", Other},
		{"", Other},
	}
	for i, tc := range cases {
		if got := ParseCategory(tc.in); got != tc.want {
			t.Fatalf("case %d: ParseCategory(%q) = %q, want %q", i, tc.in, got, tc.want)
		}
	}
}

func TestCategoryIndex(t *testing.T) {
	for i, c := range Categories {
		if c.Index() != i {
			t.Fatalf("Categories[%d].Index() = %d", i, c.Index())
		}
	}
	if got := Category("Groceries").Index(); got != len(Categories)-1 {
		t.Fatalf("unknown category index = %d, want Other slot %d", got, len(Categories)-1)
	}
}

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2024, 1, 5), true},
		{NewDate(2024, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err != nil {
		t.Fatalf("zero is a valid amount, got %v", err)
	}
	if err := (Money{Cents: -1}).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestExpenseRecordValidate(t *testing.T) {
	good := ExpenseRecord{
		Date:        NewDate(2024, 1, 5),
		Amount:      Money{Cents: 10000},
		Category:    Food,
		IsNecessary: true,
		Description: "groceries",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	long := make([]byte, 201)
	for i := range long {
		long[i] = 'x'
	}

	bads := []ExpenseRecord{
		{Date: Date{Time: time.Time{}}, Amount: Money{Cents: 1}, Category: Food},
		{Date: NewDate(2024, 1, 5), Amount: Money{Cents: -1}, Category: Food},
		{Date: NewDate(2024, 1, 5), Amount: Money{Cents: 1}, Category: Category(string(long[:51]))},
		{Date: NewDate(2024, 1, 5), Amount: Money{Cents: 1}, Category: Food, Description: string(long)},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestLedgerIsEmpty(t *testing.T) {
	if !(Ledger{}).IsEmpty() {
		t.Fatal("empty ledger should report empty")
	}
	l := Ledger{{Date: NewDate(2024, 1, 5), Amount: Money{Cents: 100}, Category: Food}}
	if l.IsEmpty() {
		t.Fatal("non-empty ledger should not report empty")
	}
}
