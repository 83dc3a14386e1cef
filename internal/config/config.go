package config

import (
	"os"
	"time"
)

// Config holds process configuration.
type Config struct {
	Port      string
	DBPath    string
	JWTSecret string
	SimMode   bool // run with simulated providers when no hardware is present

	Engine EngineConfig
}

// EngineConfig enumerates the behavior-engine thresholds and constants as
// named, typed fields.
type EngineConfig struct {
	// Stay-point detection
	StayDistanceThresholdM float64       // max pair distance to form a cluster
	StayTimeThreshold      time.Duration // min pair time span to form a cluster
	StayMergeRadiusM       float64       // candidate merges into an existing stay point within this radius
	FixBufferSize          int           // trailing fixes scanned for clusters
	FixHistorySize         int           // fixes retained for persistence
	MaxStayPoints          int           // lowest-visit entries evicted beyond this

	// Motion aggregation
	MotionWindow time.Duration // trailing retention of motion samples

	// Pattern analysis
	AnalysisInterval  time.Duration // periodic analysis cadence
	AnalysisWindow    time.Duration // how far back analysis looks at stays and fixes
	IdealStayDuration time.Duration // dwell duration the location score rewards
	PatternRetention  time.Duration // pattern history pruned beyond this age
	PatternHistoryMax int           // patterns retained for persistence

	// Mood weights. Fixed design constants; behavioral parity depends on
	// them staying exactly these values.
	LocationWeight float64
	ActivityWeight float64
	SocialWeight   float64
	SleepWeight    float64
}

// DefaultEngineConfig returns the engine constants.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		StayDistanceThresholdM: 100,
		StayTimeThreshold:      10 * time.Minute,
		StayMergeRadiusM:       50,
		FixBufferSize:          20,
		FixHistorySize:         200,
		MaxStayPoints:          100,

		MotionWindow: time.Hour,

		AnalysisInterval:  15 * time.Minute,
		AnalysisWindow:    24 * time.Hour,
		IdealStayDuration: 2 * time.Hour,
		PatternRetention:  7 * 24 * time.Hour,
		PatternHistoryMax: 1000,

		LocationWeight: 0.2,
		ActivityWeight: 0.3,
		SocialWeight:   0.25,
		SleepWeight:    0.25,
	}
}

// Load loads process configuration from the environment.
func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = ":8080"
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./data/behavior/behavior.db"
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "your-secret-key-change-in-production"
	}

	return &Config{
		Port:      port,
		DBPath:    dbPath,
		JWTSecret: jwtSecret,
		SimMode:   os.Getenv("SIM_MODE") != "",
		Engine:    DefaultEngineConfig(),
	}
}
