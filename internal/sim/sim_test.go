package sim

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Faultbox/midgard-spatial/internal/config"
	"github.com/Faultbox/midgard-spatial/internal/engine/scene"
	"github.com/Faultbox/midgard-spatial/internal/engine/spatial"
)

func newSimulator(t *testing.T, tree string, mutate func(c *config.Config)) (*Simulator, *scene.World) {
	cfg := config.Default()
	cfg.Partition.Tree = tree
	cfg.Partition.Budget = 16
	cfg.Partition.WorldMin = [3]float32{-50, -50, -50}
	cfg.Partition.WorldMax = [3]float32{50, 50, 50}
	cfg.Sim.Actors = 200
	cfg.Sim.Frames = 20
	cfg.Sim.FPS = 0
	cfg.Sim.MoveFraction = 0.5
	cfg.Sim.Speed = 30
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	logger := zaptest.NewLogger(t)
	world, err := scene.NewWorld(cfg.Partition.ToCoordinatorConfig(), logger)
	require.NoError(t, err)

	// Keep actors clear of the world faces so octree cells always hold them.
	bound := cfg.Partition.WorldBound().Expand(-5)
	return New(cfg.Sim, world, bound, logger), world
}

func TestRunRespectsBudget(t *testing.T) {
	for _, tree := range []string{spatial.KindOctree, spatial.KindBVH} {
		t.Run(tree, func(t *testing.T) {
			s, world := newSimulator(t, tree, nil)
			s.Populate()
			require.Equal(t, 200, world.Len())
			require.Equal(t, 200, world.Partition().Len())

			report, err := s.Run(context.Background())
			require.NoError(t, err)
			require.Equal(t, 20, report.Frames)
			require.Equal(t, 200, report.Actors)
			require.Equal(t, 20, report.Picks)
			require.LessOrEqual(t, report.MaxReindexed, 16)
			require.Equal(t, 16, report.MaxReindexed)
			require.Positive(t, report.Moved)
			require.Positive(t, report.Pending)
			require.Equal(t, 200, report.Partition.Primitives)
			require.Equal(t, tree, report.Partition.Kind)
		})
	}
}

func TestStepKeepsActorsInBound(t *testing.T) {
	s, world := newSimulator(t, spatial.KindOctree, func(c *config.Config) {
		c.Partition.Budget = 1000
		c.Sim.MoveFraction = 1
	})
	s.Populate()

	for i := 0; i < 30; i++ {
		fs := s.Step(0.5)
		require.Equal(t, 200, fs.Moved)
		require.Equal(t, 200, fs.Reindexed)
		require.Zero(t, fs.Pending)
	}
	for _, a := range s.actors {
		require.True(t, s.bound.ContainsPoint(a.Transform().Position))
	}

	// Everything was re-indexed, so a query over the spawn region sees every
	// component.
	require.Len(t, world.Overlapping(s.bound.Expand(3)), 200)
}

func TestRunStopsOnCancel(t *testing.T) {
	s, _ := newSimulator(t, spatial.KindBVH, func(c *config.Config) {
		c.Sim.FPS = 30
		c.Sim.Frames = 1000
	})
	s.Populate()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	report, err := s.Run(ctx)
	require.Error(t, err)
	require.Less(t, report.Frames, 1000)
}

func TestWriteReport(t *testing.T) {
	s, _ := newSimulator(t, spatial.KindOctree, func(c *config.Config) {
		c.Sim.Actors = 10
		c.Sim.Frames = 3
	})
	s.Populate()
	report, err := s.Run(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, report))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.EqualValues(t, 3, decoded["frames"])
	require.Equal(t, spatial.KindOctree, decoded["partition"].(map[string]any)["kind"])

	path := filepath.Join(t.TempDir(), "stats.json")
	require.NoError(t, SaveReport(path, report))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, buf.String(), string(data))
}
