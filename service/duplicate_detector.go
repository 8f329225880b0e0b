package service

import (
	"context"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"civicpulse/logger"
	"civicpulse/metrics"
	"civicpulse/models"
	"civicpulse/repository"
	"civicpulse/utils"
)

// FindNearby returns the open reports within radiusMeters of coords, nearest first.
// Terminal reports (resolved, rejected, closed) are never candidates.
func FindNearby(coords models.Coordinates, radiusMeters float64, reports []*models.Report) []models.NearbyReport {
	matches := make([]models.NearbyReport, 0)
	for _, r := range reports {
		if r == nil || r.Status.IsTerminal() {
			continue
		}
		d := utils.Distance(coords.Latitude, coords.Longitude, r.Location.Latitude, r.Location.Longitude)
		// NaN compares false and drops out here
		if d <= radiusMeters {
			matches = append(matches, models.NearbyReport{Report: r, DistanceMeters: d})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].DistanceMeters < matches[j].DistanceMeters
	})
	return matches
}

// DuplicateDetector runs the submission-time duplicate check against the store
type DuplicateDetector struct {
	store  repository.ReportStore
	radius float64
	log    *logrus.Entry
}

// NewDuplicateDetector creates a detector with the default radius in meters
func NewDuplicateDetector(store repository.ReportStore, radiusMeters float64) *DuplicateDetector {
	return &DuplicateDetector{
		store:  store,
		radius: radiusMeters,
		log:    logger.GetLogger("duplicate"),
	}
}

// Radius returns the configured default radius
func (d *DuplicateDetector) Radius() float64 {
	return d.radius
}

// Check looks for open reports near coords using the default radius
func (d *DuplicateDetector) Check(ctx context.Context, coords *models.Coordinates) *models.DuplicateCheckResult {
	return d.CheckWithin(ctx, coords, d.radius)
}

// CheckWithin looks for open reports within radiusMeters (<= 0 uses the default).
// It never fails: missing coordinates or a store error degrade to "no duplicates".
func (d *DuplicateDetector) CheckWithin(ctx context.Context, coords *models.Coordinates, radiusMeters float64) *models.DuplicateCheckResult {
	if radiusMeters <= 0 {
		radiusMeters = d.radius
	}
	result := &models.DuplicateCheckResult{
		Matches:      []models.NearbyReport{},
		RadiusMeters: radiusMeters,
	}

	if coords == nil || math.IsNaN(coords.Latitude) || math.IsNaN(coords.Longitude) {
		d.log.Warn("[duplicate] no coordinates supplied, skipping duplicate check")
		result.Degraded = true
		metrics.DuplicateChecks.WithLabelValues("degraded").Inc()
		return result
	}

	candidates, err := d.store.QueryOpenReportsNear(ctx, *coords, radiusMeters)
	if err != nil {
		d.log.WithError(err).Warn("[duplicate] nearby query failed, treating as no duplicates")
		result.Degraded = true
		metrics.DuplicateChecks.WithLabelValues("degraded").Inc()
		return result
	}

	result.Matches = FindNearby(*coords, radiusMeters, candidates)
	if len(result.Matches) > 0 {
		metrics.DuplicateChecks.WithLabelValues("match").Inc()
	} else {
		metrics.DuplicateChecks.WithLabelValues("none").Inc()
	}
	return result
}
