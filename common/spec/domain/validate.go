package domain

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse decodes a domain YAML document and validates it.
func Parse(data []byte) (*Domain, error) {
	var d Domain
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("domain parse: %w", err)
	}
	if err := Validate(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks a Domain for structural correctness. It returns the first
// problem found, or nil.
func Validate(d *Domain) error {
	if d == nil {
		return fmt.Errorf("domain must not be nil")
	}
	if strings.TrimSpace(d.BusinessName) == "" {
		return fmt.Errorf("business_name must not be empty")
	}
	if strings.TrimSpace(d.BusinessDescription) == "" {
		return fmt.Errorf("business_description must not be empty")
	}

	if err := validateCommandExample(d.CommandExample); err != nil {
		return fmt.Errorf("command_example: %w", err)
	}

	seen := make(map[string]struct{}, len(d.Answers))
	for i, a := range d.Answers {
		q := strings.TrimSpace(a.Question)
		if q == "" {
			return fmt.Errorf("answers[%d]: question must not be empty", i)
		}
		if strings.TrimSpace(a.Answer) == "" {
			return fmt.Errorf("answers[%d] (%q): answer must not be empty", i, q)
		}
		key := strings.ToLower(q)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("answers[%d]: duplicate question %q", i, q)
		}
		seen[key] = struct{}{}
	}
	return nil
}

func validateCommandExample(c CommandExample) error {
	if strings.TrimSpace(c.Command) == "" {
		return fmt.Errorf("command must not be empty")
	}
	if strings.ContainsAny(c.Command, " \t\n") {
		return fmt.Errorf("command %q must be a single identifier", c.Command)
	}
	if strings.TrimSpace(c.Result) == "" {
		return fmt.Errorf("result must not be empty")
	}
	return nil
}
