package app

import (
	"context"
	"errors"

	"moltspeak/internal/domain"
	"moltspeak/internal/errs"
)

// Resolvers asks each resolver in turn and returns the first answer.
// Local pins come before the directory so an operator can override what
// the directory publishes.
type Resolvers []domain.KeyResolver

func (rs Resolvers) Resolve(ctx context.Context, ref domain.AgentRef) (domain.AgentRef, error) {
	var failures []error
	for _, r := range rs {
		out, err := r.Resolve(ctx, ref)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return domain.AgentRef{}, errs.Wrap(errs.CodeTimeout, ctx.Err(), "resolve %s", ref)
		}
		failures = append(failures, err)
	}
	if len(failures) == 0 {
		return domain.AgentRef{}, errs.Signature("no key resolver configured for %s", ref)
	}
	return domain.AgentRef{}, errs.Wrap(errs.CodeSignature, errors.Join(failures...), "no public key known for %s", ref)
}

var _ domain.KeyResolver = Resolvers(nil)
