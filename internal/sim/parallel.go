package sim

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/electrosim/internal/dynamo"
)

// Member builds the independent pieces of one ensemble run. Each member
// must return its own Simulator, since trees are not shared between runs.
type Member func(idx int) (*Simulator, []dynamo.Body, error)

type Ensemble struct {
	member  Member
	numRuns int
	limit   int
}

func NewEnsemble(member Member, numRuns int) *Ensemble {
	return &Ensemble{member: member, numRuns: numRuns, limit: runtime.GOMAXPROCS(0)}
}

// SetLimit caps how many runs execute at once.
func (e *Ensemble) SetLimit(n int) { e.limit = n }

// Run executes every member concurrently. The first failure cancels the
// remaining runs and is returned.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}

	for i := 0; i < e.numRuns; i++ {
		g.Go(func() error {
			s, bodies, err := e.member(i)
			if err != nil {
				return err
			}
			res, err := s.Run(ctx, bodies, cfg)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
