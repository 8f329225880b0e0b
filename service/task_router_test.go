package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civicpulse/models"
)

func routedReport(id string, priority models.Priority, category models.Category, lat, lon float64) *models.Report {
	return &models.Report{
		ID:          id,
		Status:      models.StatusAssigned,
		Priority:    priority,
		Category:    category,
		Description: string(category) + " needs attention",
		Location:    models.Coordinates{Latitude: lat, Longitude: lon},
	}
}

func routedIDs(result *models.RouteResult) []string {
	ids := make([]string, 0, len(result.Tasks))
	for _, task := range result.Tasks {
		ids = append(ids, task.Report.ID)
	}
	return ids
}

func TestWorkloadCap(t *testing.T) {
	tests := []struct {
		max      int
		fraction float64
		want     int
	}{
		{8, 0.75, 6},
		{8, 1.0, 8},
		{8, 0.2, 4},
		{8, 1.5, 8},
		{10, 0.6, 6},
		{7, 0.5, 4},
		{0, 1.0, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_%.2f", tt.max, tt.fraction), func(t *testing.T) {
			assert.Equal(t, tt.want, WorkloadCap(tt.max, tt.fraction))
		})
	}
}

func TestRouteCapsWorkload(t *testing.T) {
	router := NewTaskRouter(testPolicy().Routing)
	var reports []*models.Report
	for i := 0; i < 10; i++ {
		reports = append(reports, routedReport(fmt.Sprintf("r%d", i), models.PriorityMedium, models.CategoryPothole, 10, 10+float64(i)*0.001))
	}

	result, err := router.Route(context.Background(), reports, &models.Coordinates{Latitude: 10, Longitude: 10}, nil,
		models.RouteOptions{MaxTasksPerDay: 8, WorkloadBalanceFraction: 0.75})
	require.NoError(t, err)
	require.Len(t, result.Tasks, 6)

	// output is a subset of the input with no repeats
	seen := map[string]bool{}
	input := map[string]bool{}
	for _, r := range reports {
		input[r.ID] = true
	}
	for _, id := range routedIDs(result) {
		assert.True(t, input[id])
		assert.False(t, seen[id])
		seen[id] = true
	}
	assert.Equal(t, []string{"r0", "r1", "r2", "r3", "r4", "r5"}, routedIDs(result))
}

func TestRoutePriorityBeforeDistance(t *testing.T) {
	router := NewTaskRouter(testPolicy().Routing)
	here := &models.Coordinates{Latitude: 10, Longitude: 10}
	reports := []*models.Report{
		routedReport("low-near", models.PriorityLow, models.CategoryGarbage, 10.0001, 10),
		routedReport("high-far", models.PriorityHigh, models.CategoryGarbage, 10.05, 10),
		routedReport("medium-mid", models.PriorityMedium, models.CategoryGarbage, 10.01, 10),
		routedReport("high-near", models.PriorityHigh, models.CategoryGarbage, 10.001, 10),
	}

	result, err := router.Route(context.Background(), reports, here, nil, models.RouteOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"high-near", "high-far", "medium-mid", "low-near"}, routedIDs(result))
	for _, task := range result.Tasks {
		require.NotNil(t, task.DistanceMeters)
	}
}

func TestRouteWithoutLocationKeepsPriorityOrder(t *testing.T) {
	router := NewTaskRouter(testPolicy().Routing)
	reports := []*models.Report{
		routedReport("a", models.PriorityLow, models.CategoryGarbage, 10, 10),
		routedReport("b", models.PriorityHigh, models.CategoryGarbage, 11, 11),
		routedReport("c", models.PriorityLow, models.CategoryGarbage, 12, 12),
	}
	result, err := router.Route(context.Background(), reports, nil, nil, models.RouteOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, routedIDs(result))
	assert.Nil(t, result.Tasks[0].DistanceMeters)
}

func TestRouteEligibilityAndSkillFilter(t *testing.T) {
	router := NewTaskRouter(testPolicy().Routing)
	resolved := routedReport("resolved", models.PriorityHigh, models.CategoryPothole, 10, 10)
	resolved.Status = models.StatusResolved
	inProgress := routedReport("drain", models.PriorityMedium, models.CategoryDrainage, 10, 10)
	inProgress.Status = models.StatusInProgress

	reports := []*models.Report{
		routedReport("pothole", models.PriorityMedium, models.CategoryPothole, 10, 10),
		inProgress,
		resolved,
		nil,
	}

	result, err := router.Route(context.Background(), reports, nil, []string{"Pothole"}, models.RouteOptions{SkillFilter: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"pothole"}, routedIDs(result))
	assert.Equal(t, 1.0, result.Tasks[0].SkillMatch)

	result, err = router.Route(context.Background(), reports, nil, nil, models.RouteOptions{SkillFilter: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"pothole", "drain"}, routedIDs(result))
}

func TestRouteWeatherAdjustment(t *testing.T) {
	router := NewTaskRouter(testPolicy().Routing)
	reports := []*models.Report{
		routedReport("pothole", models.PriorityMedium, models.CategoryPothole, 10, 10),
		routedReport("other", models.PriorityMedium, models.CategoryOther, 10, 10),
	}

	tests := []struct {
		name    string
		weather models.WeatherSnapshot
		tier    models.WeatherImpact
		minutes float64
	}{
		{"clear", models.WeatherSnapshot{TemperatureC: 25}, models.WeatherImpactLow, 120},
		{"heavy rain", models.WeatherSnapshot{PrecipitationMMPerHour: 10}, models.WeatherImpactHigh, 156},
		{"heat", models.WeatherSnapshot{TemperatureC: 42}, models.WeatherImpactMedium, 144},
		{"wind", models.WeatherSnapshot{WindKmh: 45}, models.WeatherImpactMedium, 132},
		{"heat and wind", models.WeatherSnapshot{TemperatureC: 41, WindKmh: 50}, models.WeatherImpactHigh, 156},
		{"storm", models.WeatherSnapshot{PrecipitationMMPerHour: 20, TemperatureC: 40, WindKmh: 60}, models.WeatherImpactHigh, 192},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := tt.weather
			result, err := router.Route(context.Background(), reports, nil, nil, models.RouteOptions{WeatherAdjust: true, Weather: &w})
			require.NoError(t, err)
			require.Len(t, result.Tasks, 2)

			assert.Equal(t, tt.tier, result.Tasks[0].WeatherImpact)
			assert.InDelta(t, tt.minutes, result.Tasks[0].EstimatedMinutes, 1e-6)

			// indoor-or-unknown work is never weather adjusted
			assert.Equal(t, models.WeatherImpactLow, result.Tasks[1].WeatherImpact)
			assert.InDelta(t, 60, result.Tasks[1].EstimatedMinutes, 1e-6)
		})
	}
}

func TestRouteMetrics(t *testing.T) {
	router := NewTaskRouter(testPolicy().Routing)
	here := &models.Coordinates{Latitude: 10, Longitude: 10}
	reports := []*models.Report{
		routedReport("a", models.PriorityMedium, models.CategoryGarbage, 10+metersToLatDegrees(1000), 10),
		routedReport("b", models.PriorityMedium, models.CategoryGarbage, 10+metersToLatDegrees(2000), 10),
	}

	driving, err := router.Route(context.Background(), reports, here, nil, models.RouteOptions{})
	require.NoError(t, err)
	assert.InDelta(t, 2000, driving.TotalDistanceMeters, 1)
	assert.InDelta(t, 3, driving.TravelMinutes, 0.01)
	assert.InDelta(t, 93, driving.TotalEstimatedMinutes, 0.01)
	assert.InDelta(t, 100-4-5*0.05, driving.EfficiencyScore, 0.01)

	walking, err := router.Route(context.Background(), reports, here, nil, models.RouteOptions{TravelMode: models.TravelWalking})
	require.NoError(t, err)
	assert.InDelta(t, 24, walking.TravelMinutes, 0.01)
	assert.GreaterOrEqual(t, walking.EfficiencyScore, 0.0)
	assert.LessOrEqual(t, walking.EfficiencyScore, 100.0)
}

func TestRouteEmptyAndCancelled(t *testing.T) {
	router := NewTaskRouter(testPolicy().Routing)

	result, err := router.Route(context.Background(), nil, nil, nil, models.RouteOptions{})
	require.NoError(t, err)
	assert.Empty(t, result.Tasks)
	assert.Zero(t, result.TotalDistanceMeters)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err = router.Route(ctx, []*models.Report{routedReport("a", models.PriorityHigh, models.CategoryPothole, 10, 10)}, nil, nil, models.RouteOptions{})
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Empty(t, result.Tasks)
}
