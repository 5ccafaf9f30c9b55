// Package resolve decides, for each incoming candidate identity, whether it
// refers to an already-known legislator, a new one, or an ambiguous case.
// Resolution is read-only: it sees a snapshot of the canonical identity store
// and performs no writes. The merge engine applies the outcome.
package resolve

import (
	"sort"

	"github.com/mhenriquez/parlid/internal/domain"
	"github.com/mhenriquez/parlid/internal/normalize"
)

// Default acceptance tunables for approximate matching. Validated against a
// labeled sample of free-text mentions; overridable via config.
const (
	DefaultThreshold = 0.80
	DefaultGap       = 0.10
)

// Resolver matches candidate identities against a store snapshot in strict
// priority order: exact external id, exact normalized name/alias, then
// approximate similarity for id-less free-text mentions.
type Resolver struct {
	snap *Snapshot

	// Threshold is the minimum similarity an approximate match must reach.
	Threshold float64
	// Gap is the minimum margin the best candidate must hold over the
	// runner-up. Within the gap the match is deferred, never guessed.
	Gap float64
}

// New creates a resolver over the given snapshot with default tunables.
func New(snap *Snapshot) *Resolver {
	return &Resolver{
		snap:      snap,
		Threshold: DefaultThreshold,
		Gap:       DefaultGap,
	}
}

// Resolve maps a candidate to an outcome. The only error returned is
// *domain.MalformedCandidateError; ambiguity is a deferred outcome, not an
// error.
func (r *Resolver) Resolve(c domain.CandidateIdentity) (domain.Outcome, error) {
	if err := domain.ValidateCandidate(&c); err != nil {
		return domain.Outcome{}, err
	}

	// Step 1: exact external-id match. Deterministic, certainty 1.0.
	if c.SourceID != "" {
		if mpUID, ok := r.snap.LookupIdentifier(c.Source, c.SourceID); ok {
			return domain.Outcome{Kind: domain.OutcomeMatched, MPUID: mpUID, Score: 1}, nil
		}
	}

	// Step 2: exact normalized alias / canonical-name match.
	name := c.DisplayName()
	if name != "" {
		hits := r.snap.NameMatches(name)
		switch len(hits) {
		case 0:
			// fall through
		case 1:
			return domain.Outcome{Kind: domain.OutcomeMatched, MPUID: hits[0], Score: 1}, nil
		default:
			return domain.Outcome{
				Kind:       domain.OutcomeDeferred,
				Reason:     domain.DeferAmbiguousMatch,
				Candidates: hits,
			}, nil
		}
	}

	// Step 3: approximate match, only for free-text mentions lacking an id.
	if c.SourceID == "" && name != "" {
		if outcome, ok := r.approximate(name); ok {
			return outcome, nil
		}
	}

	// Step 4: nothing cleared; mint a new person. The merge engine assigns
	// the mp_uid at insert time.
	return domain.Outcome{Kind: domain.OutcomeCreated}, nil
}

// approximate scores the candidate name against every known person and
// accepts only a confident, unambiguous best. Returns ok=false when there is
// nothing remotely close, letting resolution fall through to create-new.
func (r *Resolver) approximate(name string) (domain.Outcome, bool) {
	tokens := normalize.Tokens(name)
	if len(tokens) == 0 {
		return domain.Outcome{}, false
	}

	type scored struct {
		mpUID int64
		score float64
	}
	var ranked []scored
	for _, entry := range r.snap.persons {
		var best float64
		for _, variant := range entry.variants {
			if s := setSimilarity(tokens, variant); s > best {
				best = s
			}
		}
		ranked = append(ranked, scored{mpUID: entry.mpUID, score: best})
	}
	if len(ranked) == 0 {
		return domain.Outcome{}, false
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].mpUID < ranked[j].mpUID
	})

	best := ranked[0]
	var runnerUp float64
	if len(ranked) > 1 {
		runnerUp = ranked[1].score
	}

	if best.score < r.Threshold {
		// Nothing close enough to even consider: create-new is safer than a
		// wild guess, but a near-miss goes to review instead.
		if best.score >= r.Threshold-r.Gap {
			return domain.Outcome{
				Kind:       domain.OutcomeDeferred,
				Reason:     domain.DeferBelowThreshold,
				Candidates: []int64{best.mpUID},
				Score:      best.score,
				RunnerUp:   runnerUp,
			}, true
		}
		return domain.Outcome{}, false
	}

	if best.score-runnerUp < r.Gap {
		return domain.Outcome{
			Kind:       domain.OutcomeDeferred,
			Reason:     domain.DeferAmbiguousMatch,
			Candidates: []int64{best.mpUID, ranked[1].mpUID},
			Score:      best.score,
			RunnerUp:   runnerUp,
		}, true
	}

	return domain.Outcome{
		Kind:     domain.OutcomeMatched,
		MPUID:    best.mpUID,
		Score:    best.score,
		RunnerUp: runnerUp,
	}, true
}
