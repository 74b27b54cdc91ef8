package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Date is a calendar date with no time-of-day component.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Expense struct {
		ID           int64
		UserID       string
		Date         Date
		ItemName     string
		CategoryID   *int64
		CategoryName string // joined display name, empty when uncategorized
		UnitID       *int64
		Quantity     float64 // optional, 0 when not provided
		TotalPrice   Money
		Notes        string
		ReceiptURL   string
		BatchID      string // shared group key, empty for standalone rows
	}

	Fund struct {
		ID         int64
		UserID     string
		Date       Date
		Amount     Money
		SourceNote string
	}

	Category struct {
		ID     int64
		UserID string
		Name   string
	}

	Unit struct {
		ID     int64
		UserID string
		Name   string
	}

	Tag struct {
		ID     int64
		UserID string
		Name   string
	}

	// Favorite stores defaults used to pre-fill the expense form.
	Favorite struct {
		ID         int64
		UserID     string
		ItemName   string
		CategoryID *int64
		UnitID     *int64
		Quantity   float64
	}

	// Budget is a per-category monthly limit. The "spent" figure is derived
	// on read from current-month expenses, never stored.
	Budget struct {
		ID           int64
		UserID       string
		CategoryID   int64
		CategoryName string
		MonthlyLimit Money
	}

	Family struct {
		ID         int64
		OwnerID    string
		InviteCode string
	}

	FamilyMember struct {
		ID       int64
		FamilyID int64
		UserID   string
		CanAdd   bool
	}

	// Settings is the per-user application context. Edit mode gates updates
	// across screens and is persisted rather than kept as an ambient flag.
	Settings struct {
		UserID   string
		EditMode bool
	}
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrNegativePrice   = errors.New("total price cannot be negative")
	ErrEmptyItemName   = errors.New("empty item name")
	ErrEmptyName       = errors.New("empty name")
	ErrInvalidQuantity = errors.New("invalid quantity")
)

const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// DateOf truncates an instant to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.ItemName)) == 0 {
		return ErrEmptyItemName
	}
	if len(e.ItemName) > 200 {
		return errors.New("item name too long (max 200 characters)")
	}
	if e.TotalPrice.Cents < 0 {
		return ErrNegativePrice
	}
	if e.Quantity < 0 {
		return ErrInvalidQuantity
	}
	return nil
}

func (f Fund) Validate() error {
	if err := f.Date.Validate(); err != nil {
		return err
	}
	return f.Amount.Validate()
}

func (c Category) Validate() error { return validateName(c.Name) }

func (u Unit) Validate() error { return validateName(u.Name) }

func (t Tag) Validate() error { return validateName(t.Name) }

func (f Favorite) Validate() error {
	if len(strings.TrimSpace(f.ItemName)) == 0 {
		return ErrEmptyItemName
	}
	if f.Quantity < 0 {
		return ErrInvalidQuantity
	}
	return nil
}

func (b Budget) Validate() error {
	if b.CategoryID <= 0 {
		return errors.New("budget requires a category")
	}
	if b.MonthlyLimit.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func validateName(name string) error {
	if len(strings.TrimSpace(name)) == 0 {
		return ErrEmptyName
	}
	if len(name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	return nil
}
