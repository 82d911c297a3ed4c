package chat_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artmatsak/grace/internal/grace/chat"
	"github.com/artmatsak/grace/internal/grace/llm"
	"github.com/artmatsak/grace/internal/grace/llm/llmtest"
)

type recorder struct{ got []string }

func (r *recorder) output(text string) { r.got = append(r.got, text) }

func msg(role llm.Role, content string) llm.Message { return llm.NewMessage(role, content) }

func TestSession_StartAndReply(t *testing.T) {
	ctx := context.Background()
	script := llmtest.NewScript(`  "Hello, how can I help?"` + "\n", "Sure thing.")
	var out recorder
	s := chat.New(script, "be helpful", out.output)

	require.True(t, s.IsEnded())
	require.NoError(t, s.Start(ctx))
	require.False(t, s.IsEnded())

	require.NoError(t, s.SendResponses(ctx, []string{"  hi  ", "I need help\n"}))

	assert.Equal(t, []string{"Hello, how can I help?", "Sure thing."}, out.got)
	want := []llm.Message{
		msg(llm.RoleSystem, "be helpful"),
		msg(llm.RoleAssistant, "Hello, how can I help?"),
		msg(llm.RoleUser, "hi"),
		msg(llm.RoleUser, "I need help"),
		msg(llm.RoleAssistant, "Sure thing."),
	}
	if diff := cmp.Diff(want, s.Transcript()); diff != "" {
		t.Fatalf("transcript mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_GenerationParameters(t *testing.T) {
	script := llmtest.NewScript("hi", "hi")
	s := chat.New(script, "p", nil)
	require.NoError(t, s.Start(context.Background()))

	req := script.Requests()[0]
	assert.Equal(t, chat.DefaultMaxTokens, req.MaxTokens)
	assert.InDelta(t, chat.DefaultTemperature, req.Temperature, 1e-9)

	s = chat.New(script, "p", nil, chat.WithModel("m"), chat.WithMaxTokens(20), chat.WithTemperature(0.1))
	require.NoError(t, s.Start(context.Background()))
	req = script.Requests()[1]
	assert.Equal(t, "m", req.Model)
	assert.Equal(t, 20, req.MaxTokens)
	assert.InDelta(t, 0.1, req.Temperature, 1e-9)
}

func TestSession_EndToken(t *testing.T) {
	ctx := context.Background()
	script := llmtest.NewScript("Hi!", "Goodbye! END")
	var out recorder
	s := chat.New(script, "p", out.output)

	require.NoError(t, s.Start(ctx))
	require.NoError(t, s.SendResponses(ctx, []string{"bye"}))

	assert.Equal(t, []string{"Hi!", "Goodbye!"}, out.got)
	for range 3 {
		assert.True(t, s.IsEnded())
	}
	assert.Empty(t, s.Transcript())
	assert.ErrorIs(t, s.SendResponses(ctx, []string{"hello?"}), chat.ErrSessionInactive)
	assert.Equal(t, 2, script.Calls())
}

func TestSession_EndTokenOnlyEmitsNothing(t *testing.T) {
	var out recorder
	s := chat.New(llmtest.NewScript("END"), "p", out.output)
	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsEnded())
	assert.Empty(t, out.got)
}

func TestSession_EndTokenIsCaseSensitive(t *testing.T) {
	s := chat.New(llmtest.NewScript("We can send it. end of story"), "p", nil)
	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsEnded())
}

func TestSession_TerminationModes(t *testing.T) {
	tests := []struct {
		name      string
		mode      chat.TerminationMode
		reply     string
		wantEnded bool
		wantOut   []string
	}{
		{"substring inside word", chat.TerminationSubstring, "Welcome to BENDER's Diner", true, []string{"Welcome to B"}},
		{"suffix inside word", chat.TerminationSuffix, "Welcome to BENDER's Diner", false, []string{"Welcome to BENDER's Diner"}},
		{"suffix trailing word", chat.TerminationSuffix, "Goodbye! END", true, []string{"Goodbye!"}},
		{"suffix after punctuation", chat.TerminationSuffix, "Goodbye!END", true, []string{"Goodbye!"}},
		{"suffix glued to word", chat.TerminationSuffix, "LEGEND", false, []string{"LEGEND"}},
		{"suffix alone", chat.TerminationSuffix, "END", true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out recorder
			s := chat.New(llmtest.NewScript(tt.reply), "p", out.output, chat.WithTerminationMode(tt.mode))
			require.NoError(t, s.Start(context.Background()))
			assert.Equal(t, tt.wantEnded, s.IsEnded())
			assert.Equal(t, tt.wantOut, out.got)
		})
	}
}

func TestSession_CustomEndToken(t *testing.T) {
	s := chat.New(llmtest.NewScript("Bye <<STOP>>"), "p", nil, chat.WithEndToken("<<STOP>>"))
	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsEnded())
}

func TestSession_StateErrors(t *testing.T) {
	ctx := context.Background()
	s := chat.New(llmtest.NewScript("hi", "again"), "p", nil)

	assert.ErrorIs(t, s.SendResponses(ctx, []string{"x"}), chat.ErrSessionInactive)
	require.NoError(t, s.Start(ctx))
	assert.ErrorIs(t, s.Start(ctx), chat.ErrSessionActive)
}

func TestSession_RestartAfterEnd(t *testing.T) {
	ctx := context.Background()
	var out recorder
	s := chat.New(llmtest.NewScript("Bye END", "Hello again"), "p", out.output)

	require.NoError(t, s.Start(ctx))
	require.True(t, s.IsEnded())
	require.NoError(t, s.Start(ctx))
	assert.False(t, s.IsEnded())
	assert.Len(t, s.Transcript(), 2)
	assert.Equal(t, []string{"Bye", "Hello again"}, out.got)
}

func TestSession_ProviderErrorPropagates(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection reset")
	script := llmtest.NewScript("hi").FailAt(1, boom)
	s := chat.New(script, "p", nil)

	require.NoError(t, s.Start(ctx))
	err := s.SendResponses(ctx, []string{"hello"})
	assert.ErrorIs(t, err, boom)
	assert.False(t, s.IsEnded())
}

func TestSession_TranscriptIsCopy(t *testing.T) {
	s := chat.New(llmtest.NewScript("hi"), "p", nil)
	require.NoError(t, s.Start(context.Background()))

	tr := s.Transcript()
	tr[0].Content = "tampered"
	assert.Equal(t, "p", s.Transcript()[0].Content)
	assert.NotEmpty(t, s.ID())
}
