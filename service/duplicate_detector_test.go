package service

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civicpulse/models"
	"civicpulse/repository"
	"civicpulse/utils"
)

// metersToLatDegrees converts a north-south offset to degrees of latitude
func metersToLatDegrees(m float64) float64 {
	return m / utils.EarthRadiusMeters * 180 / math.Pi
}

func TestCreateHoldsBackNearbyDuplicate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	existing := env.submit(t, "citizen-1", 23.3441, 85.3096)

	resp, err := env.reports.Create(ctx, "citizen-2", &models.CreateReportRequest{
		Title:       "Streetlight not working",
		Description: "Dark stretch of road",
		Category:    models.CategoryStreetlight,
		Location:    &models.Coordinates{Latitude: 23.34415, Longitude: 85.30965},
	})
	require.NoError(t, err)
	assert.Nil(t, resp.Report)
	require.NotNil(t, resp.Duplicates)
	require.Len(t, resp.Duplicates.Matches, 1)
	assert.Equal(t, existing.ID, resp.Duplicates.Matches[0].Report.ID)
	assert.InDelta(t, 7.5, resp.Duplicates.Matches[0].DistanceMeters, 1.0)
	assert.False(t, resp.Duplicates.Degraded)

	mine, err := env.reports.ListByReporter(ctx, "citizen-2")
	require.NoError(t, err)
	assert.Empty(t, mine, "nothing is created until the duplicate is confirmed")

	resp, err = env.reports.Create(ctx, "citizen-2", &models.CreateReportRequest{
		Title:            "Streetlight not working",
		Description:      "Dark stretch of road",
		Category:         models.CategoryStreetlight,
		Location:         &models.Coordinates{Latitude: 23.34415, Longitude: 85.30965},
		ConfirmDuplicate: true,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Report)
	assert.Equal(t, models.StatusSubmitted, resp.Report.Status)
}

func TestResolvedReportIsNotADuplicate(t *testing.T) {
	env := newTestEnv(t)
	existing := env.submit(t, "citizen-1", 23.3441, 85.3096)
	env.driveTo(t, existing.ID, models.StatusResolved, "w1")

	result := env.detector.Check(context.Background(), &models.Coordinates{Latitude: 23.34415, Longitude: 85.30965})
	assert.Empty(t, result.Matches)
	assert.False(t, result.Degraded)

	resp, err := env.reports.Create(context.Background(), "citizen-2", &models.CreateReportRequest{
		Title:       "Streetlight out",
		Description: "Same pole as before",
		Category:    models.CategoryStreetlight,
		Location:    &models.Coordinates{Latitude: 23.34415, Longitude: 85.30965},
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Report)
	assert.Nil(t, resp.Duplicates)
}

func TestCheckFindsDuplicateAcrossAntimeridian(t *testing.T) {
	env := newTestEnv(t)
	existing := env.submit(t, "citizen-1", -17.0, 179.99995)

	result := env.detector.Check(context.Background(), &models.Coordinates{Latitude: -17.0, Longitude: -179.99995})
	assert.False(t, result.Degraded)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, existing.ID, result.Matches[0].Report.ID)
	assert.InDelta(t, 10.6, result.Matches[0].DistanceMeters, 0.5)

	result = env.detector.Check(context.Background(), &models.Coordinates{Latitude: -17.0, Longitude: -179.9})
	assert.Empty(t, result.Matches)
}

func TestFindNearbyRadiusAndOrder(t *testing.T) {
	origin := models.Coordinates{Latitude: 12.9716, Longitude: 77.5946}
	at := func(id string, meters float64, status models.ReportStatus) *models.Report {
		return &models.Report{
			ID:       id,
			Status:   status,
			Location: models.Coordinates{Latitude: origin.Latitude + metersToLatDegrees(meters), Longitude: origin.Longitude},
		}
	}
	reports := []*models.Report{
		at("far", 21, models.StatusSubmitted),
		at("near", 5, models.StatusAssigned),
		at("edge", 19.9, models.StatusAcknowledged),
		at("closed", 1, models.StatusClosed),
		at("rejected", 2, models.StatusRejected),
		nil,
	}

	matches := FindNearby(origin, 20, reports)
	require.Len(t, matches, 2)
	assert.Equal(t, "near", matches[0].Report.ID)
	assert.Equal(t, "edge", matches[1].Report.ID)
	for _, m := range matches {
		assert.LessOrEqual(t, m.DistanceMeters, 20.0)
		assert.False(t, m.Report.Status.IsTerminal())
	}

	assert.Empty(t, FindNearby(origin, 20, nil))
}

func TestFindNearbyDropsNaN(t *testing.T) {
	reports := []*models.Report{{ID: "r1", Status: models.StatusSubmitted, Location: models.Coordinates{Latitude: math.NaN()}}}
	assert.Empty(t, FindNearby(models.Coordinates{}, 20, reports))
}

func TestCheckWithinDegradesWithoutCoordinates(t *testing.T) {
	env := newTestEnv(t)
	env.submit(t, "citizen-1", 10, 10)

	result := env.detector.CheckWithin(context.Background(), nil, 50)
	assert.True(t, result.Degraded)
	assert.Empty(t, result.Matches)
	assert.Equal(t, 50.0, result.RadiusMeters)

	result = env.detector.CheckWithin(context.Background(), &models.Coordinates{Latitude: math.NaN(), Longitude: 10}, 0)
	assert.True(t, result.Degraded)
	assert.Equal(t, env.detector.Radius(), result.RadiusMeters)
}

func TestCheckDegradesOnStoreFailure(t *testing.T) {
	store := failingReportStore{MemoryStore: repository.NewMemoryStore()}
	detector := NewDuplicateDetector(store, 20)

	result := detector.Check(context.Background(), &models.Coordinates{Latitude: 10, Longitude: 10})
	assert.True(t, result.Degraded)
	assert.NotNil(t, result.Matches)
	assert.Empty(t, result.Matches)
}

func TestCreateProceedsWhenDuplicateCheckDegrades(t *testing.T) {
	mem := repository.NewMemoryStore()
	store := failingReportStore{MemoryStore: mem}
	policy := testPolicy()
	dispatcher := NewDispatcher(fastDispatch(), 2)
	t.Cleanup(dispatcher.Close)

	svc := NewReportService(store, NewDuplicateDetector(store, 20), NewScoringEngine(mem, policy.Scoring),
		NewNotificationService(mem, mem, policy.Overdue), dispatcher)

	resp, err := svc.Create(context.Background(), "citizen-1", &models.CreateReportRequest{
		Title:       "Garbage pile",
		Description: "Uncollected for a week",
		Category:    models.CategoryGarbage,
		Location:    &models.Coordinates{Latitude: 10, Longitude: 10},
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Report)
}
