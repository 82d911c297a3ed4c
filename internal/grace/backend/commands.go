package backend

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/artmatsak/grace/internal/grace/commands"
	"github.com/artmatsak/grace/internal/grace/observability"
)

// timeLayouts are the accepted forms of the book_table time parameter.
var timeLayouts = []string{
	time.DateTime,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// Register adds book_table and cancel_booking to r, backed by store. New
// booking references never contain any of the reserved words; callers pass
// the session end token here.
func Register(r *commands.Router, store Store, reserved ...string) error {
	h := handlers{store: store, reserved: reserved}
	if err := r.Add("book_table", "book a table",
		[]string{"full_name", "num_people", "time"},
		h.bookTable,
		map[string]string{"full_name": "Jane Doe", "num_people": "2", "time": "2023-06-01 19:00:00"},
		"Booking successful, reference: ABC123",
	); err != nil {
		return err
	}
	return r.Add("cancel_booking", "cancel a booking",
		[]string{"reference"},
		h.cancelBooking,
		map[string]string{"reference": "ABC123"},
		"Booking cancelled",
	)
}

type handlers struct {
	store    Store
	reserved []string
}

func (h handlers) bookTable(ctx context.Context, p map[string]string) (any, error) {
	name := strings.TrimSpace(p["full_name"])
	if name == "" {
		return nil, errors.New("full_name must not be empty")
	}
	n, err := strconv.Atoi(strings.TrimSpace(p["num_people"]))
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("num_people must be a positive whole number, got %q", p["num_people"])
	}
	at, err := ParseTime(p["time"])
	if err != nil {
		return nil, err
	}

	ref, err := h.create(ctx, Booking{FullName: name, NumPeople: n, Time: at})
	if err != nil {
		return nil, err
	}
	observability.WithTrace(ctx).Info("booking created", "reference", ref, "num_people", n, "time", at)
	return "Booking successful, reference: " + ref, nil
}

// create stores b under a fresh reference free of reserved words.
func (h handlers) create(ctx context.Context, b Booking) (string, error) {
	for range maxReferenceAttempts {
		b.Reference = NewReference(h.reserved...)
		ref, err := h.store.Create(ctx, b)
		if errors.Is(err, ErrDuplicate) {
			continue
		}
		return ref, err
	}
	return "", ErrDuplicate
}

func (h handlers) cancelBooking(ctx context.Context, p map[string]string) (any, error) {
	ref := strings.ToUpper(strings.TrimSpace(p["reference"]))
	if err := h.store.Delete(ctx, ref); err != nil {
		return nil, err
	}
	observability.WithTrace(ctx).Info("booking cancelled", "reference", ref)
	return "Booking cancelled", nil
}

// ParseTime parses a booking time given as "YYYY-MM-DD HH:MM:SS".
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("time must be formatted as YYYY-MM-DD HH:MM:SS, got %q", s)
}
