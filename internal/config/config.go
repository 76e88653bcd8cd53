// Package config handles simulator configuration loading and management.
package config

import (
	"time"

	"github.com/Faultbox/midgard-spatial/internal/engine/partition"
	"github.com/Faultbox/midgard-spatial/internal/engine/spatial"
	"github.com/Faultbox/midgard-spatial/pkg/bounds"
	"github.com/Faultbox/midgard-spatial/pkg/math"
)

// Config holds all simulator settings.
type Config struct {
	Partition PartitionConfig `yaml:"partition" toml:"partition"`
	Sim       SimConfig       `yaml:"sim" toml:"sim"`
	Metrics   MetricsConfig   `yaml:"metrics" toml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
}

// PartitionConfig holds the spatial index parameters. They are fixed once
// the world is created.
type PartitionConfig struct {
	Tree                 string     `yaml:"tree" toml:"tree"` // octree or bvh
	MaxDepth             int        `yaml:"max_depth" toml:"max_depth"`
	MaxPrimitivesPerLeaf int        `yaml:"max_primitives_per_leaf" toml:"max_primitives_per_leaf"`
	Budget               int        `yaml:"budget" toml:"budget"` // re-indexes per frame
	WorldMin             [3]float32 `yaml:"world_min" toml:"world_min"`
	WorldMax             [3]float32 `yaml:"world_max" toml:"world_max"`
}

// SimConfig holds the frame driver settings.
type SimConfig struct {
	Actors       int           `yaml:"actors" toml:"actors"`
	Frames       int           `yaml:"frames" toml:"frames"`
	FPS          int           `yaml:"fps" toml:"fps"` // 0 runs unpaced
	MoveFraction float64       `yaml:"move_fraction" toml:"move_fraction"`
	Speed        float32       `yaml:"speed" toml:"speed"` // world units per second
	Seed         int64         `yaml:"seed" toml:"seed"`
	Viewport     [2]int        `yaml:"viewport" toml:"viewport"`
	ReportEvery  time.Duration `yaml:"report_every" toml:"report_every"`
	StatsFile    string        `yaml:"stats_file" toml:"stats_file"` // empty writes to stdout
}

// MetricsConfig holds the Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Addr    string `yaml:"addr" toml:"addr"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	Format  string `yaml:"format" toml:"format"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	params := spatial.DefaultParams()
	return &Config{
		Partition: PartitionConfig{
			Tree:                 spatial.KindOctree,
			MaxDepth:             params.MaxDepth,
			MaxPrimitivesPerLeaf: params.MaxPrimitivesPerLeaf,
			Budget:               partition.DefaultBudget,
			WorldMin:             params.WorldBound.Min.Array(),
			WorldMax:             params.WorldBound.Max.Array(),
		},
		Sim: SimConfig{
			Actors:       1000,
			Frames:       600,
			FPS:          60,
			MoveFraction: 0.1,
			Speed:        4,
			Seed:         1,
			Viewport:     [2]int{1280, 720},
			ReportEvery:  time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Format:  "console",
			LogFile: "",
		},
	}
}

// WorldBound returns the configured world box.
func (c PartitionConfig) WorldBound() bounds.AABB {
	return bounds.AABB{
		Min: math.Vec3FromArray(c.WorldMin),
		Max: math.Vec3FromArray(c.WorldMax),
	}
}

// ToCoordinatorConfig converts the settings to the partition's own config.
func (c PartitionConfig) ToCoordinatorConfig() partition.Config {
	return partition.Config{
		Tree: c.Tree,
		Params: spatial.Params{
			WorldBound:           c.WorldBound(),
			MaxDepth:             c.MaxDepth,
			MaxPrimitivesPerLeaf: c.MaxPrimitivesPerLeaf,
		},
		Budget: c.Budget,
	}
}
