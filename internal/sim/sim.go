// Package sim drives a world frame by frame: it moves actors, re-indexes
// them under the partition budget and runs the culling, picking and
// overlap queries a game frame would issue.
package sim

import (
	"context"
	"math/rand"
	"time"

	"github.com/chewxy/math32"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Faultbox/midgard-spatial/internal/config"
	"github.com/Faultbox/midgard-spatial/internal/engine/camera"
	"github.com/Faultbox/midgard-spatial/internal/engine/picking"
	"github.com/Faultbox/midgard-spatial/internal/engine/scene"
	"github.com/Faultbox/midgard-spatial/internal/engine/spatial"
	"github.com/Faultbox/midgard-spatial/pkg/bounds"
	"github.com/Faultbox/midgard-spatial/pkg/math"
)

// FrameStats summarizes one simulated frame.
type FrameStats struct {
	Frame     int           `json:"frame"`
	Moved     int           `json:"moved"`
	Reindexed int           `json:"reindexed"`
	Pending   int           `json:"pending"`
	Visible   int           `json:"visible"`
	Picked    bool          `json:"picked"`
	Overlaps  int           `json:"overlaps"`
	Duration  time.Duration `json:"duration"`
}

// Report is the summary of a run.
type Report struct {
	Frames       int           `json:"frames"`
	Actors       int           `json:"actors"`
	Moved        int           `json:"moved"`
	Reindexed    int           `json:"reindexed"`
	MaxReindexed int           `json:"max_reindexed"`
	Pending      int           `json:"pending"`
	AvgVisible   float64       `json:"avg_visible"`
	Picks        int           `json:"picks"`
	PickHits     int           `json:"pick_hits"`
	Overlaps     int           `json:"overlaps"`
	Elapsed      time.Duration `json:"elapsed"`
	MaxFrameTime time.Duration `json:"max_frame_time"`
	Partition    spatial.Stats `json:"partition"`
}

// Simulator owns the moving actors of a world.
type Simulator struct {
	cfg     config.SimConfig
	world   *scene.World
	bound   bounds.AABB
	camera  *camera.OrbitCamera
	rng     *rand.Rand
	limiter *rate.Limiter
	logger  *zap.Logger

	actors     []*scene.Actor
	velocities []math.Vec3
	frame      int
}

// New creates a simulator over world. bound is the region actors are
// spawned in and bounce off.
func New(cfg config.SimConfig, world *scene.World, bound bounds.AABB, logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}

	cam := camera.NewOrbitCamera()
	cam.FitToBounds(bound)

	s := &Simulator{
		cfg:    cfg,
		world:  world,
		bound:  bound,
		camera: cam,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		logger: logger.Named("sim"),
	}
	if cfg.FPS > 0 {
		s.limiter = rate.NewLimiter(rate.Every(time.Second/time.Duration(cfg.FPS)), 1)
	}
	return s
}

// Populate spawns the configured number of actors, each with one box
// component, and bulk indexes them.
func (s *Simulator) Populate() {
	for i := 0; i < s.cfg.Actors; i++ {
		a := s.world.Spawn("actor", scene.At(s.randomPoint()))
		half := math.Vec3{
			X: 0.25 + s.rng.Float32(),
			Y: 0.25 + s.rng.Float32(),
			Z: 0.25 + s.rng.Float32(),
		}
		a.AddComponent("body", bounds.AABBFromCenterExtents(math.Vec3{}, half))

		s.actors = append(s.actors, a)
		s.velocities = append(s.velocities, s.randomDirection().Scale(s.cfg.Speed))
	}
	s.world.Partition().Rebuild()

	s.logger.Info("world populated",
		zap.Int("actors", len(s.actors)),
		zap.Any("partition", s.world.Partition().Stats()),
	)
}

func (s *Simulator) randomPoint() math.Vec3 {
	size := s.bound.Size()
	return math.Vec3{
		X: s.bound.Min.X + s.rng.Float32()*size.X,
		Y: s.bound.Min.Y + s.rng.Float32()*size.Y,
		Z: s.bound.Min.Z + s.rng.Float32()*size.Z,
	}
}

func (s *Simulator) randomDirection() math.Vec3 {
	for {
		v := math.Vec3{
			X: s.rng.Float32()*2 - 1,
			Y: s.rng.Float32()*2 - 1,
			Z: s.rng.Float32()*2 - 1,
		}
		if l := v.LengthSquared(); l > 1e-4 && l <= 1 {
			return v.Normalize()
		}
	}
}

// Step advances the world by dt seconds.
func (s *Simulator) Step(dt float32) FrameStats {
	start := time.Now()
	s.frame++
	stats := FrameStats{Frame: s.frame}

	for i, a := range s.actors {
		if s.rng.Float64() >= s.cfg.MoveFraction {
			continue
		}
		s.move(i, a, dt)
		stats.Moved++
	}
	stats.Reindexed = s.world.Tick(dt)
	stats.Pending = s.world.Partition().Pending()

	s.camera.HandleDrag(1, 0)
	w, h := float32(s.cfg.Viewport[0]), float32(s.cfg.Viewport[1])
	aspect := w / h
	stats.Visible = len(s.world.Visible(s.camera.Frustum(aspect)))

	_, stats.Picked = picking.PickScreen[*scene.Component](s.world.Partition(),
		s.rng.Float32()*w, s.rng.Float32()*h, w, h, s.camera.ViewProjection(aspect))

	if len(s.actors) > 0 {
		probe := s.actors[s.rng.Intn(len(s.actors))]
		for _, c := range probe.Components() {
			for _, other := range s.world.OverlappingOBB(c.WorldOBB()) {
				if other.Owner() != probe {
					stats.Overlaps++
				}
			}
		}
	}

	stats.Duration = time.Since(start)
	return stats
}

func (s *Simulator) move(i int, a *scene.Actor, dt float32) {
	v := s.velocities[i]
	p := a.Transform().Position.Add(v.Scale(dt))

	// Bounce off the spawn region.
	lo, hi := s.bound.Min.Array(), s.bound.Max.Array()
	pa, va := p.Array(), v.Array()
	for axis := range pa {
		if pa[axis] < lo[axis] || pa[axis] > hi[axis] {
			pa[axis] = math.Clamp(pa[axis], lo[axis], hi[axis])
			va[axis] = -va[axis]
		}
	}
	s.velocities[i] = math.Vec3FromArray(va)

	t := a.Transform()
	t.Position = math.Vec3FromArray(pa)
	yaw := math32.Atan2(va[0], va[2])
	t.Rotation = math.QuatFromAxisAngle(math.Vec3{Y: 1}, yaw)
	a.SetTransform(t)
}

// Run simulates the configured number of frames, paced by the configured
// frame rate. It stops early when ctx is done.
func (s *Simulator) Run(ctx context.Context) (Report, error) {
	report := Report{Actors: len(s.actors)}
	start := time.Now()
	lastFrame := start
	lastReport := start

	visible := 0
	for report.Frames < s.cfg.Frames {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return s.finish(report, start, visible), err
			}
		} else if err := ctx.Err(); err != nil {
			return s.finish(report, start, visible), err
		}

		now := time.Now()
		dt := float32(now.Sub(lastFrame).Seconds())
		if s.limiter == nil {
			dt = 1.0 / 60
		}
		lastFrame = now

		fs := s.Step(dt)
		report.Frames++
		report.Moved += fs.Moved
		report.Reindexed += fs.Reindexed
		report.MaxReindexed = max(report.MaxReindexed, fs.Reindexed)
		report.Overlaps += fs.Overlaps
		report.Picks++
		if fs.Picked {
			report.PickHits++
		}
		report.MaxFrameTime = max(report.MaxFrameTime, fs.Duration)
		visible += fs.Visible

		s.logger.Debug("frame",
			zap.Int("frame", fs.Frame),
			zap.Int("moved", fs.Moved),
			zap.Int("reindexed", fs.Reindexed),
			zap.Int("pending", fs.Pending),
			zap.Int("visible", fs.Visible),
			zap.Duration("duration", fs.Duration),
		)
		if s.cfg.ReportEvery > 0 && now.Sub(lastReport) >= s.cfg.ReportEvery {
			lastReport = now
			s.logger.Info("progress",
				zap.Int("frames", report.Frames),
				zap.Int("pending", fs.Pending),
				zap.Duration("max_frame_time", report.MaxFrameTime),
			)
		}
	}
	return s.finish(report, start, visible), nil
}

func (s *Simulator) finish(report Report, start time.Time, visible int) Report {
	report.Elapsed = time.Since(start)
	report.Pending = s.world.Partition().Pending()
	if report.Frames > 0 {
		report.AvgVisible = float64(visible) / float64(report.Frames)
	}
	report.Partition = s.world.Partition().Stats()
	return report
}
