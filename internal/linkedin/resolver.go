package linkedin

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xaenox/dm-organizer/internal/ai"
	"github.com/xaenox/dm-organizer/internal/models"
)

const (
	maxAttempts   = 3
	notFoundToken = "NOT_FOUND"
)

// Resolver finds a counterpart's LinkedIn profile: first by scanning the
// profile text, then by asking a model to propose a candidate and asking
// it again to validate the candidate. The pattern stage always wins when
// it matches.
type Resolver struct {
	completer ai.TextCompleter
	logger    *zap.Logger
}

// NewResolver builds a resolver. A nil completer disables the model
// stage; pattern misses then resolve straight to not_found.
func NewResolver(completer ai.TextCompleter, logger *zap.Logger) *Resolver {
	return &Resolver{completer: completer, logger: logger}
}

func (r *Resolver) Resolve(ctx context.Context, profile models.Profile, summary models.SummaryResult) models.LinkedInResult {
	if url, ok := ExtractProfileURL(profile.Bio, profile.Website); ok {
		r.logger.Debug("LinkedIn URL found in profile text",
			zap.String("counterpart_id", profile.CounterpartID),
			zap.String("url", url))
		return models.LinkedInResult{
			URL:        url,
			Confidence: models.ConfidenceHigh,
			Method:     models.MethodPattern,
		}
	}

	if r.completer == nil {
		return models.LinkedInResult{
			Confidence: models.ConfidenceNotFound,
			Method:     models.MethodAI,
			Reasoning:  "model stage disabled",
		}
	}
	return r.discover(ctx, profile, summary)
}

// discover runs the bounded generate/validate loop. A confident negative
// from the model is final; transport and parse failures count as failed
// attempts rather than aborting.
func (r *Resolver) discover(ctx context.Context, profile models.Profile, summary models.SummaryResult) models.LinkedInResult {
	var rejected []string
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		candidate, notFound, err := r.generate(ctx, profile, summary, rejected)
		if err != nil {
			r.logger.Warn("Candidate generation failed",
				zap.Error(err),
				zap.Int("attempt", attempt),
				zap.String("counterpart_id", profile.CounterpartID))
			continue
		}
		if notFound {
			return models.LinkedInResult{
				Confidence: models.ConfidenceNotFound,
				Method:     models.MethodAI,
				Reasoning:  fmt.Sprintf("model reported no confident match on attempt %d", attempt),
			}
		}

		ok, err := r.validate(ctx, profile, summary, candidate)
		if err != nil {
			r.logger.Warn("Candidate validation failed",
				zap.Error(err),
				zap.Int("attempt", attempt),
				zap.String("candidate", candidate))
			rejected = append(rejected, candidate)
			continue
		}
		if ok {
			return models.LinkedInResult{
				URL:        candidate,
				Confidence: models.ConfidenceHigh,
				Method:     models.MethodAI,
				Reasoning:  fmt.Sprintf("model validated candidate on attempt %d", attempt),
			}
		}
		r.logger.Debug("Candidate rejected",
			zap.Int("attempt", attempt),
			zap.String("candidate", candidate))
		rejected = append(rejected, candidate)
	}

	return models.LinkedInResult{
		Confidence: models.ConfidenceNotFound,
		Method:     models.MethodAI,
		Reasoning:  "all candidates rejected",
	}
}

func (r *Resolver) generate(ctx context.Context, profile models.Profile, summary models.SummaryResult, rejected []string) (string, bool, error) {
	var b strings.Builder
	b.WriteString("Find the LinkedIn profile URL for this person:\n\n")
	b.WriteString(identityBlock(profile, summary))
	if len(rejected) > 0 {
		fmt.Fprintf(&b, "\nThese candidates were already rejected, do not repeat them: %s\n", strings.Join(rejected, ", "))
		b.WriteString("Try a different likely profile, such as an alternative slug variation.\n")
	}
	b.WriteString("\nOutput ONLY the LinkedIn profile URL in the form linkedin.com/in/<slug>.\n")
	fmt.Fprintf(&b, "If you cannot find a confident match, output exactly: %s\n", notFoundToken)

	text, err := r.completer.Complete(ctx, b.String())
	if err != nil {
		return "", false, err
	}
	if strings.Contains(text, notFoundToken) {
		return "", true, nil
	}
	m := profileRefPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false, fmt.Errorf("no profile URL in model output")
	}
	return Normalize(m[1]), false, nil
}

func (r *Resolver) validate(ctx context.Context, profile models.Profile, summary models.SummaryResult, candidate string) (bool, error) {
	var b strings.Builder
	b.WriteString("Evaluate whether this LinkedIn profile URL belongs to this person:\n\n")
	fmt.Fprintf(&b, "Candidate URL: %s\n\n", candidate)
	b.WriteString(identityBlock(profile, summary))
	b.WriteString("\nConsider whether the profile slug, name, location, and role plausibly match.\n")
	b.WriteString("Output ONLY PASS or FAIL.\n")

	text, err := r.completer.Complete(ctx, b.String())
	if err != nil {
		return false, err
	}
	verdict := strings.ToUpper(strings.TrimSpace(text))
	switch {
	case strings.HasPrefix(verdict, "PASS"):
		return true, nil
	case strings.HasPrefix(verdict, "FAIL"):
		return false, nil
	default:
		return false, fmt.Errorf("unrecognized verdict from model")
	}
}

func identityBlock(profile models.Profile, summary models.SummaryResult) string {
	var b strings.Builder
	name := profile.DisplayName
	if name == "" {
		name = "unknown"
	}
	fmt.Fprintf(&b, "Name: %s\n", name)
	if profile.Username != "" {
		fmt.Fprintf(&b, "X (Twitter) handle: @%s\n", profile.Username)
	}
	if profile.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", profile.Location)
	}
	if company := CompanyFromBio(profile.Bio); company != "" {
		fmt.Fprintf(&b, "Company: %s\n", company)
	}
	if summary.Text != "" {
		fmt.Fprintf(&b, "Context from their conversations: %s\n", summary.Text)
	}
	return b.String()
}
