package trainer

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zarux/qtictactoe/pkg/qlearning"
)

const (
	FirstPlayerKnowledge  = "first-player"
	SecondPlayerKnowledge = "second-player"
)

// Persistent is a learner whose table can be stored. *qlearning.Engine
// satisfies it.
type Persistent interface {
	Save(ctx context.Context, store qlearning.Store, id string) error
	Load(ctx context.Context, store qlearning.Store, id string) (int, error)
}

// LoadAgents loads each agent's knowledge and returns the loaded sizes.
// Missing or unreadable knowledge leaves that agent with an empty table and
// sets its entry in errs to the cause.
func LoadAgents(ctx context.Context, store qlearning.Store, agents ...*Agent) (sizes []int, errs []error) {
	sizes = make([]int, len(agents))
	errs = make([]error, len(agents))
	for i, a := range agents {
		p, ok := a.Learner.(Persistent)
		if !ok || a.Knowledge == "" {
			continue
		}
		sizes[i], errs[i] = p.Load(ctx, store, a.Knowledge)
	}

	return sizes, errs
}

// SaveAgents saves every agent's knowledge, continuing past failures.
func SaveAgents(ctx context.Context, store qlearning.Store, agents ...*Agent) error {
	var errs []error
	for _, a := range agents {
		p, ok := a.Learner.(Persistent)
		if !ok || a.Knowledge == "" {
			continue
		}

		if err := p.Save(ctx, store, a.Knowledge); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", a.Name, err))
		}
	}

	return errors.Join(errs...)
}
