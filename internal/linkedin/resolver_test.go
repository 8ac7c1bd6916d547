package linkedin

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xaenox/dm-organizer/internal/models"
)

type step struct {
	text string
	err  error
}

// scriptedCompleter replays canned responses in order, recording prompts
type scriptedCompleter struct {
	steps   []step
	prompts []string
}

func (c *scriptedCompleter) Complete(_ context.Context, prompt string) (string, error) {
	c.prompts = append(c.prompts, prompt)
	if len(c.steps) == 0 {
		return "", errors.New("script exhausted")
	}
	s := c.steps[0]
	c.steps = c.steps[1:]
	return s.text, s.err
}

var testProfile = models.Profile{
	CounterpartID: "100",
	Username:      "jdoe",
	DisplayName:   "Jane Doe",
	Bio:           "CTO at Acme",
	Location:      "Berlin",
}

var testSummary = models.SummaryResult{Text: "Discussed hiring plans.", Source: models.SummaryFallback}

func TestResolve_PatternStageWins(t *testing.T) {
	t.Parallel()

	completer := &scriptedCompleter{}
	r := NewResolver(completer, zap.NewNop())
	profile := testProfile
	profile.Bio = "CTO at Acme, linkedin.com/in/jane-doe"

	res := r.Resolve(context.Background(), profile, testSummary)

	assert.Equal(t, "https://www.linkedin.com/in/jane-doe", res.URL)
	assert.Equal(t, models.ConfidenceHigh, res.Confidence)
	assert.Equal(t, models.MethodPattern, res.Method)
	assert.Empty(t, completer.prompts, "model must not be consulted on a pattern hit")
}

func TestResolve_NilCompleterResolvesToNotFound(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil, zap.NewNop())

	res := r.Resolve(context.Background(), testProfile, testSummary)

	assert.Empty(t, res.URL)
	assert.Equal(t, models.ConfidenceNotFound, res.Confidence)
	assert.Equal(t, models.MethodAI, res.Method)
}

func TestResolve_ConfidentNegativeIsFinal(t *testing.T) {
	t.Parallel()

	completer := &scriptedCompleter{steps: []step{{text: "NOT_FOUND"}}}
	r := NewResolver(completer, zap.NewNop())

	res := r.Resolve(context.Background(), testProfile, testSummary)

	assert.Equal(t, models.ConfidenceNotFound, res.Confidence)
	assert.Equal(t, models.MethodAI, res.Method)
	assert.Len(t, completer.prompts, 1, "a confident negative ends the loop immediately")
}

func TestResolve_ValidatedCandidate(t *testing.T) {
	t.Parallel()

	completer := &scriptedCompleter{steps: []step{
		{text: "The most likely profile is https://linkedin.com/in/jane-doe"},
		{text: "PASS"},
	}}
	r := NewResolver(completer, zap.NewNop())

	res := r.Resolve(context.Background(), testProfile, testSummary)

	assert.Equal(t, "https://www.linkedin.com/in/jane-doe", res.URL)
	assert.Equal(t, models.ConfidenceHigh, res.Confidence)
	assert.Equal(t, models.MethodAI, res.Method)
	assert.Len(t, completer.prompts, 2)
}

func TestResolve_RejectedCandidatesAreExcluded(t *testing.T) {
	t.Parallel()

	completer := &scriptedCompleter{steps: []step{
		{text: "linkedin.com/in/jane-doe-1"},
		{text: "FAIL"},
		{text: "linkedin.com/in/jane-doe-2"},
		{text: "FAIL"},
		{text: "linkedin.com/in/jane-doe"},
		{text: "PASS"},
	}}
	r := NewResolver(completer, zap.NewNop())

	res := r.Resolve(context.Background(), testProfile, testSummary)

	assert.Equal(t, "https://www.linkedin.com/in/jane-doe", res.URL)
	assert.Equal(t, models.ConfidenceHigh, res.Confidence)
	require.Len(t, completer.prompts, 6)
	// the third generation prompt names both rejected candidates
	assert.Contains(t, completer.prompts[4], "jane-doe-1")
	assert.Contains(t, completer.prompts[4], "jane-doe-2")
}

func TestResolve_AllCandidatesRejected(t *testing.T) {
	t.Parallel()

	completer := &scriptedCompleter{steps: []step{
		{text: "linkedin.com/in/a-1"},
		{text: "FAIL"},
		{text: "linkedin.com/in/a-2"},
		{text: "FAIL"},
		{text: "linkedin.com/in/a-3"},
		{text: "FAIL"},
	}}
	r := NewResolver(completer, zap.NewNop())

	res := r.Resolve(context.Background(), testProfile, testSummary)

	assert.Empty(t, res.URL)
	assert.Equal(t, models.ConfidenceNotFound, res.Confidence)
	assert.Equal(t, models.MethodAI, res.Method)
	assert.Len(t, completer.prompts, 6, "the loop is bounded at three attempts")
}

func TestResolve_TransportFailuresCountAsAttempts(t *testing.T) {
	t.Parallel()

	completer := &scriptedCompleter{steps: []step{
		{err: errors.New("model unavailable")},
		{err: errors.New("model unavailable")},
		{err: errors.New("model unavailable")},
	}}
	r := NewResolver(completer, zap.NewNop())

	res := r.Resolve(context.Background(), testProfile, testSummary)

	assert.Equal(t, models.ConfidenceNotFound, res.Confidence)
	assert.Len(t, completer.prompts, 3)
}

func TestResolve_UnparseableVerdictRejectsCandidate(t *testing.T) {
	t.Parallel()

	completer := &scriptedCompleter{steps: []step{
		{text: "linkedin.com/in/jane-doe"},
		{text: "maybe, hard to say"},
		{text: "NOT_FOUND"},
	}}
	r := NewResolver(completer, zap.NewNop())

	res := r.Resolve(context.Background(), testProfile, testSummary)

	assert.Equal(t, models.ConfidenceNotFound, res.Confidence)
	require.Len(t, completer.prompts, 3)
	// the candidate with the garbled verdict is treated as rejected
	assert.Contains(t, completer.prompts[2], "jane-doe")
}

func TestIdentityBlock_IncludesKnownFields(t *testing.T) {
	t.Parallel()

	block := identityBlock(testProfile, testSummary)

	assert.Contains(t, block, "Name: Jane Doe")
	assert.Contains(t, block, "@jdoe")
	assert.Contains(t, block, "Location: Berlin")
	assert.Contains(t, block, "Company: Acme")
	assert.Contains(t, block, "Discussed hiring plans.")
}
