package partition

import (
	"github.com/aukilabs/go-tooling/pkg/errors"

	"github.com/Faultbox/midgard-spatial/internal/engine/spatial"
)

// DefaultBudget is the number of dirty components re-indexed per frame when
// no budget is configured.
const DefaultBudget = 256

// ErrTypeInvalidConfig is the error type returned by Config.Validate.
const ErrTypeInvalidConfig = "invalid_partition_config"

// Config holds the parameters fixed at coordinator construction.
type Config struct {
	// Tree selects the index implementation: spatial.KindOctree or
	// spatial.KindBVH.
	Tree string

	Params spatial.Params

	// Budget caps the dirty components processed by one Update call.
	Budget int
}

// DefaultConfig returns an octree coordinator with default parameters.
func DefaultConfig() Config {
	return Config{
		Tree:   spatial.KindOctree,
		Params: spatial.DefaultParams(),
		Budget: DefaultBudget,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch c.Tree {
	case spatial.KindOctree, spatial.KindBVH:
	default:
		return errors.New("unknown tree kind").
			WithType(ErrTypeInvalidConfig).
			WithTag("tree", c.Tree)
	}
	if c.Budget < 1 {
		return errors.New("budget must be at least 1").
			WithType(ErrTypeInvalidConfig).
			WithTag("budget", c.Budget)
	}
	if err := c.Params.Validate(); err != nil {
		return errors.New("invalid tree parameters").
			WithType(ErrTypeInvalidConfig).
			Wrap(err)
	}
	return nil
}
