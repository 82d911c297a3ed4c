package chat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/artmatsak/grace/internal/grace/chat"
)

func TestSplitReply(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  chat.Split
	}{
		{
			name:  "no block",
			reply: "How many people will be joining?",
			want: chat.Split{
				Display: "How many people will be joining?",
				Matched: "How many people will be joining?",
			},
		},
		{
			name:  "text then block with trailing text",
			reply: `One moment. [json]{"command": "look_up"}[/json] ignored`,
			want: chat.Split{
				Display:    "One moment. ",
				Payload:    `{"command": "look_up"}`,
				Matched:    `One moment. [json]{"command": "look_up"}[/json]`,
				HasCommand: true,
			},
		},
		{
			name:  "block at start",
			reply: `[json]{}[/json]`,
			want: chat.Split{
				Payload:    `{}`,
				Matched:    `[json]{}[/json]`,
				HasCommand: true,
			},
		},
		{
			name:  "mixed case markers",
			reply: `Hold on [JSON]{"a":1}[/Json]`,
			want: chat.Split{
				Display:    "Hold on ",
				Payload:    `{"a":1}`,
				Matched:    `Hold on [JSON]{"a":1}[/Json]`,
				HasCommand: true,
			},
		},
		{
			name:  "multi-line block",
			reply: "Checking.\n[json]{\n  \"command\": \"x\"\n}[/json]",
			want: chat.Split{
				Display:    "Checking.\n",
				Payload:    "{\n  \"command\": \"x\"\n}",
				Matched:    "Checking.\n[json]{\n  \"command\": \"x\"\n}[/json]",
				HasCommand: true,
			},
		},
		{
			name:  "only first block is used",
			reply: `a [json]1[/json] b [json]2[/json]`,
			want: chat.Split{
				Display:    "a ",
				Payload:    "1",
				Matched:    "a [json]1[/json]",
				HasCommand: true,
			},
		},
		{
			name:  "unterminated block",
			reply: `Let me check [json]{"command": "x"}`,
			want: chat.Split{
				Display:      `Let me check [json]{"command": "x"}`,
				Matched:      `Let me check [json]{"command": "x"}`,
				Unterminated: true,
			},
		},
		{
			name:  "closing marker before opening",
			reply: `[/json] then [json]`,
			want: chat.Split{
				Display:      `[/json] then [json]`,
				Matched:      `[/json] then [json]`,
				Unterminated: true,
			},
		},
		{
			name:  "non-ASCII display text",
			reply: `Größe prüfen [json]{}[/json]`,
			want: chat.Split{
				Display:    "Größe prüfen ",
				Payload:    "{}",
				Matched:    `Größe prüfen [json]{}[/json]`,
				HasCommand: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, chat.SplitReply(tt.reply))
		})
	}
}
