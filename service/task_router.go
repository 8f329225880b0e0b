package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"civicpulse/config"
	"civicpulse/metrics"
	"civicpulse/models"
	"civicpulse/utils"
)

// TaskRouter orders a worker's tasks for a shift. It is a heuristic re-ranking
// over explicit inputs and keeps no state between calls.
type TaskRouter struct {
	policy  config.RoutingPolicy
	outdoor map[models.Category]bool
}

// NewTaskRouter creates a router using the routing policy
func NewTaskRouter(policy config.RoutingPolicy) *TaskRouter {
	outdoor := make(map[models.Category]bool, len(policy.OutdoorCategories))
	for _, c := range policy.OutdoorCategories {
		outdoor[models.Category(strings.ToLower(c))] = true
	}
	return &TaskRouter{policy: policy, outdoor: outdoor}
}

// WorkloadCap returns ceil(maxTasksPerDay × fraction) with fraction clamped to [0.5, 1.0]
func WorkloadCap(maxTasksPerDay int, fraction float64) int {
	if maxTasksPerDay <= 0 {
		return 0
	}
	fraction = math.Max(0.5, math.Min(1.0, fraction))
	// tolerate float noise such as 10×0.6 = 6.000000000000001
	return int(math.Ceil(float64(maxTasksPerDay)*fraction - 1e-9))
}

// Route runs the pipeline: eligibility, skill filter, priority sort, distance
// sort, weather adjustment, workload cap. A cancelled ctx yields an empty route
// together with ctx.Err().
func (t *TaskRouter) Route(ctx context.Context, reports []*models.Report, current *models.Coordinates, skills []string, opts models.RouteOptions) (*models.RouteResult, error) {
	start := time.Now()
	defer func() { metrics.RouteDuration.Observe(time.Since(start).Seconds()) }()

	empty := &models.RouteResult{Tasks: []models.Task{}}
	if err := ctx.Err(); err != nil {
		return empty, err
	}

	keywords := normalizeSkills(skills)

	// 1. eligibility
	tasks := make([]models.Task, 0, len(reports))
	for _, r := range reports {
		if r == nil {
			continue
		}
		if r.Status != models.StatusAssigned && r.Status != models.StatusInProgress {
			continue
		}
		tasks = append(tasks, models.Task{
			Report:        r,
			SkillMatch:    skillMatch(r, keywords),
			WeatherImpact: models.WeatherImpactLow,
		})
	}

	// 2. skill filter; an empty skill list leaves the filter off
	if opts.SkillFilter && len(keywords) > 0 {
		kept := tasks[:0]
		for _, task := range tasks {
			if task.SkillMatch > 0 {
				kept = append(kept, task)
			}
		}
		tasks = kept
	}
	if err := ctx.Err(); err != nil {
		return empty, err
	}

	// 3. priority sort
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Report.Priority.Weight() > tasks[j].Report.Priority.Weight()
	})

	// 4. distance sort within equal priority
	if current != nil {
		for i := range tasks {
			loc := tasks[i].Report.Location
			d := utils.Distance(current.Latitude, current.Longitude, loc.Latitude, loc.Longitude)
			tasks[i].DistanceMeters = &d
		}
		sort.SliceStable(tasks, func(i, j int) bool {
			wi, wj := tasks[i].Report.Priority.Weight(), tasks[j].Report.Priority.Weight()
			if wi != wj {
				return wi > wj
			}
			return sortableDistance(tasks[i].DistanceMeters) < sortableDistance(tasks[j].DistanceMeters)
		})
	}
	if err := ctx.Err(); err != nil {
		return empty, err
	}

	// 5. weather adjustment and durations
	for i := range tasks {
		base := t.baseMinutes(tasks[i].Report.Category)
		multiplier := 1.0
		if opts.WeatherAdjust && opts.Weather != nil && t.outdoor[tasks[i].Report.Category] {
			extra := t.weatherExtra(*opts.Weather)
			multiplier += extra
			tasks[i].WeatherImpact = weatherTier(extra)
		}
		tasks[i].EstimatedMinutes = base * multiplier
	}

	// 6. workload cap
	maxTasks := opts.MaxTasksPerDay
	if maxTasks <= 0 {
		maxTasks = t.policy.DefaultMaxTasksPerDay
	}
	fraction := opts.WorkloadBalanceFraction
	if fraction <= 0 {
		fraction = t.policy.DefaultWorkloadFraction
	}
	if limit := WorkloadCap(maxTasks, fraction); len(tasks) > limit {
		tasks = tasks[:limit]
	}

	if err := ctx.Err(); err != nil {
		return empty, err
	}
	return routeMetrics(tasks, current, opts.TravelMode), nil
}

// weatherExtra sums the additive duration surcharges for adverse conditions
func (t *TaskRouter) weatherExtra(w models.WeatherSnapshot) float64 {
	extra := 0.0
	if w.PrecipitationMMPerHour >= t.policy.HeavyPrecipitationMMPerHour {
		extra += 0.3
	}
	if w.TemperatureC >= t.policy.ExtremeHeatC {
		extra += 0.2
	}
	if w.WindKmh >= t.policy.HighWindKmh {
		extra += 0.1
	}
	return extra
}

func weatherTier(extra float64) models.WeatherImpact {
	switch {
	case extra <= 0:
		return models.WeatherImpactLow
	case extra < 0.3-1e-9:
		return models.WeatherImpactMedium
	}
	return models.WeatherImpactHigh
}

func (t *TaskRouter) baseMinutes(c models.Category) float64 {
	if m, ok := t.policy.BaseMinutes[string(c)]; ok && m > 0 {
		return m
	}
	if t.policy.DefaultMinutes > 0 {
		return t.policy.DefaultMinutes
	}
	return 60
}

// routeMetrics walks the ordered list from current (when known) and totals
// distance, travel time and efficiency.
func routeMetrics(tasks []models.Task, current *models.Coordinates, mode models.TravelMode) *models.RouteResult {
	result := &models.RouteResult{Tasks: tasks}
	if len(tasks) == 0 {
		return result
	}

	var prev *models.Coordinates
	if current != nil {
		c := *current
		prev = &c
	}
	workMinutes := 0.0
	for _, task := range tasks {
		loc := task.Report.Location
		if prev != nil {
			d := utils.Distance(prev.Latitude, prev.Longitude, loc.Latitude, loc.Longitude)
			if !math.IsNaN(d) {
				result.TotalDistanceMeters += d
			}
		}
		prev = &models.Coordinates{Latitude: loc.Latitude, Longitude: loc.Longitude}
		workMinutes += task.EstimatedMinutes
	}

	km := result.TotalDistanceMeters / 1000
	travelHours := km / mode.SpeedKmh()
	result.TravelMinutes = travelHours * 60
	result.TotalEstimatedMinutes = workMinutes + result.TravelMinutes
	result.EfficiencyScore = math.Max(0, math.Min(100, 100-2*km-5*travelHours))
	return result
}

func normalizeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		if k := strings.ToLower(strings.TrimSpace(s)); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// skillMatch is the fraction of keywords found in the category or description
func skillMatch(r *models.Report, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	category := strings.ToLower(string(r.Category))
	description := strings.ToLower(r.Description)
	matched := 0
	for _, k := range keywords {
		if strings.Contains(category, k) || strings.Contains(description, k) {
			matched++
		}
	}
	return float64(matched) / float64(len(keywords))
}

func sortableDistance(d *float64) float64 {
	if d == nil || math.IsNaN(*d) {
		return math.Inf(1)
	}
	return *d
}
