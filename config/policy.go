package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Policy holds the tunable lifecycle constants. None of them are invariants;
// product can change any of them without code changes.
type Policy struct {
	Duplicate DuplicatePolicy `yaml:"duplicate"`
	Overdue   OverduePolicy   `yaml:"overdue"`
	Scoring   ScoringPolicy   `yaml:"scoring"`
	Routing   RoutingPolicy   `yaml:"routing"`
}

// DuplicatePolicy configures submission-time duplicate detection
type DuplicatePolicy struct {
	RadiusMeters float64 `yaml:"radius_meters"` // default 20
}

// OverduePolicy configures assignment reminders
type OverduePolicy struct {
	Threshold time.Duration `yaml:"threshold"` // default 4h
	BatchSize int           `yaml:"batch_size"`
}

// ScoringPolicy holds point tariffs and badge thresholds
type ScoringPolicy struct {
	SubmitPoints   int `yaml:"submit_points"`
	ResolvePoints  int `yaml:"resolve_points"`
	FeedbackPoints int `yaml:"feedback_points"`

	FirstReportSubmits   int `yaml:"first_report_submits"`
	ProblemSolverResolve int `yaml:"problem_solver_resolves"`
	ChampionSubmits      int `yaml:"champion_submits"`
	FeedbackGiverCount   int `yaml:"feedback_giver_count"`
	PointMasterPoints    int `yaml:"point_master_points"`
}

// RoutingPolicy holds the task router's heuristic constants
type RoutingPolicy struct {
	DefaultMaxTasksPerDay   int     `yaml:"default_max_tasks_per_day"`
	DefaultWorkloadFraction float64 `yaml:"default_workload_fraction"`
	// BaseMinutes is the estimated on-site duration per category
	BaseMinutes       map[string]float64 `yaml:"base_minutes"`
	DefaultMinutes    float64            `yaml:"default_minutes"`
	OutdoorCategories []string           `yaml:"outdoor_categories"`

	HeavyPrecipitationMMPerHour float64 `yaml:"heavy_precipitation_mm_per_hour"`
	ExtremeHeatC                float64 `yaml:"extreme_heat_c"`
	HighWindKmh                 float64 `yaml:"high_wind_kmh"`
}

// DefaultPolicy returns the built-in policy
func DefaultPolicy() *Policy {
	return &Policy{
		Duplicate: DuplicatePolicy{RadiusMeters: 20},
		Overdue:   OverduePolicy{Threshold: 4 * time.Hour, BatchSize: 200},
		Scoring: ScoringPolicy{
			SubmitPoints:         50,
			ResolvePoints:        100,
			FeedbackPoints:       25,
			FirstReportSubmits:   1,
			ProblemSolverResolve: 5,
			ChampionSubmits:      25,
			FeedbackGiverCount:   1,
			PointMasterPoints:    2000,
		},
		Routing: RoutingPolicy{
			DefaultMaxTasksPerDay:   8,
			DefaultWorkloadFraction: 1.0,
			BaseMinutes: map[string]float64{
				"pothole":     120,
				"streetlight": 60,
				"garbage":     45,
				"drainage":    90,
				"traffic":     60,
				"water":       90,
				"electricity": 75,
				"other":       60,
			},
			DefaultMinutes: 60,
			OutdoorCategories: []string{
				"pothole", "streetlight", "garbage", "drainage", "traffic", "water", "electricity",
			},
			HeavyPrecipitationMMPerHour: 7.6,
			ExtremeHeatC:                40,
			HighWindKmh:                 40,
		},
	}
}

// LoadPolicy reads a YAML policy file over the defaults. An empty path returns the defaults.
func LoadPolicy(path string) (*Policy, error) {
	p := DefaultPolicy()
	if path == "" {
		return p, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, p); err != nil {
		return nil, fmt.Errorf("parse policy %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate rejects values the engine cannot work with
func (p *Policy) Validate() error {
	if p.Duplicate.RadiusMeters <= 0 {
		return errors.New("policy: duplicate.radius_meters must be > 0")
	}
	if p.Overdue.Threshold <= 0 {
		return errors.New("policy: overdue.threshold must be > 0")
	}
	if p.Routing.DefaultMaxTasksPerDay <= 0 {
		return errors.New("policy: routing.default_max_tasks_per_day must be > 0")
	}
	f := p.Routing.DefaultWorkloadFraction
	if f < 0.5 || f > 1.0 {
		return errors.New("policy: routing.default_workload_fraction must be within [0.5, 1.0]")
	}
	return nil
}
