package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Food          Category = "Food"
	Transport     Category = "Transport"
	Utilities     Category = "Utilities"
	Entertainment Category = "Entertainment"
	Miscellaneous Category = "Miscellaneous"
	Other         Category = "Other"
)

type (
	// Category is a closed grouping key. Unknown strings are folded into
	// Other by ParseCategory so grouping stays deterministic.
	Category string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// ExpenseRecord is one immutable ledger entry. Records are created by
	// the append path, persisted, and thereafter only read.
	ExpenseRecord struct {
		ID          int64
		Amount      Money
		Category    Category
		Date        Date
		IsNecessary bool
		Description string
	}

	// Ledger is the full set of expense records for exactly one user,
	// ordered by date descending.
	Ledger []ExpenseRecord
)

// Categories lists the fixed category set in canonical order. Other is
// last so one-hot feature encodings stay stable.
var Categories = []Category{Food, Transport, Utilities, Entertainment, Miscellaneous, Other}

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrCategoryTooLong = errors.New("category too long (max 50 characters)")
	ErrDescriptionLong = errors.New("description too long (max 200 characters)")
)

// ParseCategory maps a raw string onto the closed category set. The
// legacy "Misc" spelling is an alias for Miscellaneous; anything not in
// the set lands in Other.
func ParseCategory(s string) Category {
	c := Category(strings.TrimSpace(s))
	switch c {
	case Food, Transport, Utilities, Entertainment, Miscellaneous:
		return c
	case "Misc":
		return Miscellaneous
	default:
		return Other
	}
}

func (c Category) String() string {
	return string(c)
}

// Index returns the position of c in Categories, used for one-hot
// feature encoding. Unknown categories map to the Other slot.
func (c Category) Index() int {
	for i, known := range Categories {
		if c == known {
			return i
		}
	}
	return len(Categories) - 1
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// NewDate creates a Date from year, month, day at calendar-date granularity.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month (1-12)
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e ExpenseRecord) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if len(e.Category) > 50 {
		return ErrCategoryTooLong
	}
	if len(e.Description) > 200 {
		return ErrDescriptionLong
	}
	return nil
}

// IsEmpty reports whether the ledger holds no records.
func (l Ledger) IsEmpty() bool {
	return len(l) == 0
}
