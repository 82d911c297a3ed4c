package domain_test

import (
	"strings"
	"testing"

	"github.com/artmatsak/grace/common/spec/domain"
)

const validYAML = `
business_name: Death Star
business_description: a highly rated restaurant on the Moon
extra_instructions: In your speech, you impersonate Jedi Master Yoda.
command_example:
  command: book_table
  params:
    full_name: Jeremiah Biggs
    num_people: 3
    time: "2023-06-23 20:00:00"
  result: Booking reference ZBA4HB
answers:
  - question: Do you have parking on site?
    answer: On-site parking is available
  - question: What are your opening hours?
    answer: We are open from 5 pm to 11 pm every day
`

func TestParse_Valid(t *testing.T) {
	d, err := domain.Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d.BusinessName != "Death Star" {
		t.Errorf("BusinessName: got %q", d.BusinessName)
	}
	if d.CommandExample.Command != "book_table" {
		t.Errorf("CommandExample.Command: got %q", d.CommandExample.Command)
	}
	if got := d.CommandExample.Params["num_people"]; got != 3 {
		t.Errorf("num_people: got %v (%T), want int 3", got, got)
	}
	if len(d.Answers) != 2 {
		t.Fatalf("Answers: got %d, want 2", len(d.Answers))
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := domain.Parse([]byte("business_name: [unterminated")); err == nil {
		t.Fatal("expected parse error, got nil")
	}
}

func TestValidate(t *testing.T) {
	base := func() domain.Domain {
		return domain.Domain{
			BusinessName:        "Death Star",
			BusinessDescription: "a restaurant",
			CommandExample:      domain.CommandExample{Command: "book_table", Result: "ok"},
			Answers:             []domain.Answer{{Question: "Parking?", Answer: "Yes"}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(d *domain.Domain)
		wantErr string
	}{
		{name: "valid", mutate: func(d *domain.Domain) {}},
		{name: "missing name", mutate: func(d *domain.Domain) { d.BusinessName = " " }, wantErr: "business_name"},
		{name: "missing description", mutate: func(d *domain.Domain) { d.BusinessDescription = "" }, wantErr: "business_description"},
		{name: "missing example command", mutate: func(d *domain.Domain) { d.CommandExample.Command = "" }, wantErr: "command_example"},
		{name: "spaced example command", mutate: func(d *domain.Domain) { d.CommandExample.Command = "book table" }, wantErr: "single identifier"},
		{name: "missing example result", mutate: func(d *domain.Domain) { d.CommandExample.Result = "" }, wantErr: "result"},
		{name: "empty answer", mutate: func(d *domain.Domain) { d.Answers[0].Answer = "" }, wantErr: "answers[0]"},
		{
			name: "duplicate question",
			mutate: func(d *domain.Domain) {
				d.Answers = append(d.Answers, domain.Answer{Question: "parking?", Answer: "No"})
			},
			wantErr: "duplicate question",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := base()
			tt.mutate(&d)
			err := domain.Validate(&d)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	if err := domain.Validate(nil); err == nil {
		t.Fatal("expected error for nil domain")
	}
}
