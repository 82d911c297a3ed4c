package knowledge_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artmatsak/grace/common/spec/domain"
	"github.com/artmatsak/grace/internal/grace/commands"
	"github.com/artmatsak/grace/internal/grace/knowledge"
)

type fixedSource struct {
	answer string
	score  float64
	err    error
	asked  []string
}

func (f *fixedSource) Lookup(_ context.Context, q string) (string, float64, error) {
	f.asked = append(f.asked, q)
	return f.answer, f.score, f.err
}

func TestRegisterLookUp_Threshold(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		want  string
	}{
		{"low confidence", 0.3, knowledge.CannotAnswer},
		{"at threshold", 0.4, knowledge.CannotAnswer},
		{"confident", 0.5, "On-site parking is available"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fixedSource{answer: "On-site parking is available", score: tt.score}
			r := commands.NewRouter()
			require.NoError(t, knowledge.RegisterLookUp(r, src))

			got, err := r.Invoke(context.Background(),
				`{"command": "look_up", "params": {"question": "Do you have parking?"}}`)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, []string{"Do you have parking?"}, src.asked)
		})
	}
}

func TestRegisterLookUp_SourceError(t *testing.T) {
	boom := errors.New("embedding service down")
	r := commands.NewRouter()
	require.NoError(t, knowledge.RegisterLookUp(r, &fixedSource{err: boom}))

	_, err := r.Invoke(context.Background(), `{"command": "look_up", "params": {"question": "q"}}`)
	assert.ErrorIs(t, err, boom)
}

var answers = []domain.Answer{
	{Question: "What are your opening hours?", Answer: "We are open 9 am to 11 pm."},
	{Question: "Do you have parking on site?", Answer: "On-site parking is available."},
	{Question: "Is there a vegetarian menu?", Answer: "Yes, ask for the green menu."},
}

func TestBase_LexicalLookup(t *testing.T) {
	base, err := knowledge.NewBase(answers, nil)
	require.NoError(t, err)
	ctx := context.Background()

	answer, score, err := base.Lookup(ctx, "Do you have parking?")
	require.NoError(t, err)
	assert.Equal(t, "On-site parking is available.", answer)
	assert.Greater(t, score, knowledge.Threshold)

	answer, score, err = base.Lookup(ctx, "WHEN are your opening HOURS")
	require.NoError(t, err)
	assert.Equal(t, "We are open 9 am to 11 pm.", answer)
	assert.Greater(t, score, knowledge.Threshold)

	_, score, err = base.Lookup(ctx, "Can I bring my dog?")
	require.NoError(t, err)
	assert.LessOrEqual(t, score, knowledge.Threshold)
}

func TestBase_Empty(t *testing.T) {
	base, err := knowledge.NewBase(nil, nil)
	require.NoError(t, err)
	answer, score, err := base.Lookup(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, answer)
	assert.Zero(t, score)
}

func TestNewBase_RejectsEmptyQuestion(t *testing.T) {
	_, err := knowledge.NewBase([]domain.Answer{{Answer: "orphan"}}, nil)
	assert.Error(t, err)
}

func TestFold(t *testing.T) {
	assert.Equal(t, "cafe creme", knowledge.Fold("Café CRÈME"))
	assert.Equal(t, "strasse", knowledge.Fold("STRASSE"))
}

func TestLexicalScorer_Identical(t *testing.T) {
	scores, err := knowledge.LexicalScorer{}.Score(context.Background(), "Déjà vu menu", []string{"deja VU menu", "wine list"})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, scores[0], 1e-9)
	assert.Zero(t, scores[1])
}
