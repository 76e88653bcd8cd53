package config

import "flag"

var (
	flagConfig      = flag.String("config", "", "Path to config file (.yaml or .toml)")
	flagDebug       = flag.Bool("debug", false, "Enable debug logging")
	flagTree        = flag.String("tree", "", "Spatial index: octree or bvh")
	flagBudget      = flag.Int("budget", 0, "Components re-indexed per frame")
	flagActors      = flag.Int("actors", 0, "Number of actors to spawn")
	flagFrames      = flag.Int("frames", 0, "Number of frames to simulate")
	flagFPS         = flag.Int("fps", -1, "Frame rate limit, 0 runs unpaced")
	flagMetricsAddr = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	flagStatsFile   = flag.String("stats", "", "Write the final stats report to this file")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagTree != "" {
		cfg.Partition.Tree = *flagTree
	}
	if *flagBudget > 0 {
		cfg.Partition.Budget = *flagBudget
	}
	if *flagActors > 0 {
		cfg.Sim.Actors = *flagActors
	}
	if *flagFrames > 0 {
		cfg.Sim.Frames = *flagFrames
	}
	if *flagFPS >= 0 {
		cfg.Sim.FPS = *flagFPS
	}
	if *flagMetricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = *flagMetricsAddr
	}
	if *flagStatsFile != "" {
		cfg.Sim.StatsFile = *flagStatsFile
	}
}
