package models

// TravelMode selects the average speed used for travel-time estimates
type TravelMode string

const (
	TravelWalking TravelMode = "walking"
	TravelCycling TravelMode = "cycling"
	TravelDriving TravelMode = "driving"
)

// SpeedKmh returns the average speed for the mode; unknown modes drive.
func (m TravelMode) SpeedKmh() float64 {
	switch m {
	case TravelWalking:
		return 5
	case TravelCycling:
		return 15
	}
	return 40
}

// WeatherImpact is the tier assigned by the weather adjustment stage
type WeatherImpact string

const (
	WeatherImpactLow    WeatherImpact = "low"
	WeatherImpactMedium WeatherImpact = "medium"
	WeatherImpactHigh   WeatherImpact = "high"
)

// WeatherSnapshot is supplied by an external weather collaborator
type WeatherSnapshot struct {
	PrecipitationMMPerHour float64 `json:"precipitation_mm_per_hour"`
	TemperatureC           float64 `json:"temperature_c"`
	WindKmh                float64 `json:"wind_kmh"`
}

// RouteOptions tunes a single routing call
type RouteOptions struct {
	SkillFilter             bool             `json:"skill_filter"`
	WeatherAdjust           bool             `json:"weather_adjust"`
	Weather                 *WeatherSnapshot `json:"weather,omitempty"`
	MaxTasksPerDay          int              `json:"max_tasks_per_day" validate:"gte=0"`
	WorkloadBalanceFraction float64          `json:"workload_balance_fraction" validate:"gte=0,lte=1"`
	TravelMode              TravelMode       `json:"travel_mode,omitempty" validate:"omitempty,oneof=walking cycling driving"`
}

// Task is a per-worker, read-time projection of an assignable report
type Task struct {
	Report           *Report       `json:"report"`
	SkillMatch       float64       `json:"skill_match"`
	DistanceMeters   *float64      `json:"distance_meters,omitempty"`
	WeatherImpact    WeatherImpact `json:"weather_impact"`
	EstimatedMinutes float64       `json:"estimated_minutes"`
}

// RouteResult is the ordered task list plus advisory route metrics
type RouteResult struct {
	Tasks                 []Task  `json:"tasks"`
	TotalDistanceMeters   float64 `json:"total_distance_meters"`
	TravelMinutes         float64 `json:"travel_minutes"`
	TotalEstimatedMinutes float64 `json:"total_estimated_minutes"`
	EfficiencyScore       float64 `json:"efficiency_score"`
}

// NearbyReport is a duplicate candidate with its distance from the query point
type NearbyReport struct {
	Report         *Report `json:"report"`
	DistanceMeters float64 `json:"distance_meters"`
}

// DuplicateCheckResult is returned by the duplicate detector.
// Degraded is set when the lookup could not run; Matches is then empty.
type DuplicateCheckResult struct {
	Matches      []NearbyReport `json:"matches"`
	RadiusMeters float64        `json:"radius_meters"`
	Degraded     bool           `json:"degraded,omitempty"`
}
