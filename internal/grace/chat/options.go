package chat

const (
	// DefaultEndToken is the termination token the model emits to end a session.
	DefaultEndToken = "END"
	// DefaultMaxTokens caps each model reply.
	DefaultMaxTokens = 150
	// DefaultTemperature is the sampling temperature sent with every request.
	DefaultTemperature = 0.9
	// DefaultMaxChain bounds the commands dispatched in one exchange.
	DefaultMaxChain = 8
)

// TerminationMode selects how the end token is recognised in a reply.
type TerminationMode int

const (
	// TerminationSubstring ends the session on any occurrence of the token.
	TerminationSubstring TerminationMode = iota
	// TerminationSuffix ends the session only when the token is the final
	// word of the reply.
	TerminationSuffix
)

// Option configures a Session.
type Option func(*settings)

type settings struct {
	model       string
	maxTokens   int
	temperature float64
	endToken    string
	mode        TerminationMode
	maxChain    int
}

func defaultSettings() settings {
	return settings{
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
		endToken:    DefaultEndToken,
		mode:        TerminationSubstring,
		maxChain:    DefaultMaxChain,
	}
}

// WithModel sets the model name sent with each request. Empty leaves the
// provider default in place.
func WithModel(model string) Option {
	return func(s *settings) { s.model = model }
}

// WithMaxTokens overrides DefaultMaxTokens. Values <= 0 are ignored.
func WithMaxTokens(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// WithTemperature overrides DefaultTemperature.
func WithTemperature(t float64) Option {
	return func(s *settings) { s.temperature = t }
}

// WithEndToken overrides DefaultEndToken. Empty values are ignored.
func WithEndToken(token string) Option {
	return func(s *settings) {
		if token != "" {
			s.endToken = token
		}
	}
}

// WithTerminationMode selects substring or suffix matching of the end token.
func WithTerminationMode(mode TerminationMode) Option {
	return func(s *settings) { s.mode = mode }
}

// WithMaxChain overrides DefaultMaxChain for command sessions. Values <= 0
// are ignored.
func WithMaxChain(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxChain = n
		}
	}
}
