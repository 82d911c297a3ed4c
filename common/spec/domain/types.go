// Package domain defines the business domain document that personalises a
// grace assistant: who the business is, one worked command example for the
// system prompt, extra instructions, and the canned answers served by the
// look_up command.
package domain

// Domain is the root type of a domain.yaml document.
type Domain struct {
	// BusinessName is substituted into the system prompt (e.g. "Death Star").
	BusinessName string `yaml:"business_name" json:"business_name"`

	// BusinessDescription follows the name in the prompt's first sentence
	// (e.g. "a highly rated restaurant on the Moon").
	BusinessDescription string `yaml:"business_description" json:"business_description"`

	// ExtraInstructions is appended verbatim to the prompt's closing rules.
	ExtraInstructions string `yaml:"extra_instructions,omitempty" json:"extra_instructions,omitempty"`

	// CommandExample is the fully worked invocation shown to the model.
	CommandExample CommandExample `yaml:"command_example" json:"command_example"`

	// Answers are the canned question/answer pairs for knowledge lookup.
	Answers []Answer `yaml:"answers,omitempty" json:"answers,omitempty"`
}

// CommandExample is one backend invocation and its result, rendered into the
// system prompt as "[json]{...}[/json]" followed by "Backend response: ...".
type CommandExample struct {
	Command string         `yaml:"command" json:"command"`
	Params  map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
	Result  string         `yaml:"result" json:"result"`
}

// Answer is a canned answer to a frequently asked question.
type Answer struct {
	Question string `yaml:"question" json:"question"`
	Answer   string `yaml:"answer" json:"answer"`
}
