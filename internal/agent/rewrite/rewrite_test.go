package rewrite

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubModel struct {
	reply string
	err   error
	calls int
	last  []*schema.Message
}

func (s *stubModel) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	s.calls++
	s.last = in
	if s.err != nil {
		return nil, s.err
	}
	return schema.AssistantMessage(s.reply, nil), nil
}

func (s *stubModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := s.Generate(ctx, in, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func TestToThirdPerson(t *testing.T) {
	r := New(&stubModel{}, "Taixing Bi")

	cases := []struct {
		in   string
		want string
	}{
		{"are you available for remote work?", "is Taixing Bi available for remote work?"},
		{"Do you need visa sponsorship?", "does Taixing Bi need visa sponsorship?"},
		{"have you worked with Go?", "has Taixing Bi worked with Go?"},
		{"can you relocate?", "can Taixing Bi relocate?"},
		{"what is your strongest skill?", "what is Taixing Bi's strongest skill?"},
		{"tell me about yourself", "tell me about Taixing Bi"},
		{"where did you study?", "where did Taixing Bi study?"},
		{"no second person here", "no second person here"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, r.ToThirdPerson(tc.in), "input: %q", tc.in)
	}
}

func TestToThirdPersonIdempotent(t *testing.T) {
	r := New(&stubModel{}, "Taixing Bi")

	once := r.ToThirdPerson("are you open to contract roles, and do you have references?")
	twice := r.ToThirdPerson(once)
	assert.Equal(t, once, twice)
}

func TestToThirdPersonWordBoundaries(t *testing.T) {
	r := New(&stubModel{}, "Taixing Bi")

	// "young" must not trigger the bare "you" substitution.
	assert.Equal(t, "is the young candidate ready", r.ToThirdPerson("is the young candidate ready"))
}

func TestRewriteUsesModelOutput(t *testing.T) {
	m := &stubModel{reply: "Taixing Bi remote work availability"}
	r := New(m, "Taixing Bi")

	out, err := r.Rewrite(context.Background(), "are you available for remote work?")
	require.NoError(t, err)
	assert.Equal(t, "Taixing Bi remote work availability", out)

	// The model sees the substituted text, not the raw question.
	require.Len(t, m.last, 2)
	assert.Equal(t, schema.System, m.last[0].Role)
	assert.Equal(t, "is Taixing Bi available for remote work?", m.last[1].Content)
}

func TestRewriteFallsBackOnEmptyModelOutput(t *testing.T) {
	m := &stubModel{reply: "   "}
	r := New(m, "Taixing Bi")

	out, err := r.Rewrite(context.Background(), "do you know Kubernetes?")
	require.NoError(t, err)
	assert.Equal(t, "does Taixing Bi know Kubernetes?", out)
}

func TestRewriteEmptyInputSkipsModel(t *testing.T) {
	m := &stubModel{reply: "ignored"}
	r := New(m, "Taixing Bi")

	out, err := r.Rewrite(context.Background(), "  ")
	require.NoError(t, err)
	assert.Equal(t, "  ", out)
	assert.Zero(t, m.calls)
}

func TestRewriteModelError(t *testing.T) {
	m := &stubModel{err: errors.New("quota exceeded")}
	r := New(m, "Taixing Bi")

	_, err := r.Rewrite(context.Background(), "can you start in June?")
	require.Error(t, err)
	assert.ErrorContains(t, err, "rewrite query")
}
