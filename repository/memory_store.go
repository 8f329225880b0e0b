package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"civicpulse/models"
	"civicpulse/utils"
)

// MemoryStore is an in-process Store used for local runs (STORE_DRIVER=memory)
// and tests. Values are deep-copied in and out so callers never share state.
type MemoryStore struct {
	mu sync.RWMutex

	reports     map[string]*models.Report
	reportOrder []string
	history     map[string][]models.StatusChange
	historySeq  int64

	scoreEvents []models.ScoreEvent
	scoreKeys   map[string]struct{}
	scoreSeq    int64

	notifications []models.Notification

	staff map[string]*models.Staff
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reports:   make(map[string]*models.Report),
		history:   make(map[string][]models.StatusChange),
		scoreKeys: make(map[string]struct{}),
		staff:     make(map[string]*models.Staff),
	}
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) CreateReport(ctx context.Context, report *models.Report, initial *models.StatusChange) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.reports[report.ID]; exists {
		return fmt.Errorf("failed to create report: duplicate id %s", report.ID)
	}
	m.reports[report.ID] = report.Clone()
	m.reportOrder = append(m.reportOrder, report.ID)
	if initial != nil {
		m.appendHistoryLocked(initial)
	}
	return nil
}

func (m *MemoryStore) LoadReport(ctx context.Context, reportID string) (*models.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.reports[reportID]
	if !ok {
		return nil, fmt.Errorf("report %s: %w", reportID, models.ErrNotFound)
	}
	return r.Clone(), nil
}

func (m *MemoryStore) SaveReport(ctx context.Context, report *models.Report, expectedVersion int, change *models.StatusChange) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.reports[report.ID]
	if !ok {
		return fmt.Errorf("report %s: %w", report.ID, models.ErrNotFound)
	}
	if stored.Version != expectedVersion {
		return fmt.Errorf("report %s version %d: %w", report.ID, expectedVersion, models.ErrConflictRetry)
	}

	saved := report.Clone()
	saved.Version = expectedVersion + 1
	m.reports[report.ID] = saved
	if change != nil {
		m.appendHistoryLocked(change)
	}
	report.Version = saved.Version
	return nil
}

func (m *MemoryStore) appendHistoryLocked(change *models.StatusChange) {
	m.historySeq++
	change.HistoryID = m.historySeq
	m.history[change.ReportID] = append(m.history[change.ReportID], *change)
}

func (m *MemoryStore) QueryOpenReportsNear(ctx context.Context, coords models.Coordinates, radiusMeters float64) ([]*models.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	minLat, maxLat, minLon, maxLon := utils.BoundingBox(coords.Latitude, coords.Longitude, radiusMeters)
	lonRanges := utils.LongitudeRanges(minLon, maxLon)

	return m.filterReports(func(r *models.Report) bool {
		if r.Status.IsTerminal() {
			return false
		}
		lat, lon := r.Location.Latitude, r.Location.Longitude
		if lat < minLat || lat > maxLat {
			return false
		}
		for _, lr := range lonRanges {
			if lr.Contains(lon) {
				return true
			}
		}
		return false
	}), nil
}

func (m *MemoryStore) ListReportsByReporter(ctx context.Context, reporterID string) ([]*models.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := m.filterReports(func(r *models.Report) bool { return r.ReporterID == reporterID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) ListReportsByAssignee(ctx context.Context, assigneeID string, statuses []models.ReportStatus) ([]*models.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.filterReports(func(r *models.Report) bool {
		if r.AssigneeID == nil || *r.AssigneeID != assigneeID {
			return false
		}
		return len(statuses) == 0 || containsStatus(statuses, r.Status)
	}), nil
}

func (m *MemoryStore) ListOverdueAssignments(ctx context.Context, cutoff time.Time, limit int) ([]*models.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := m.filterReports(func(r *models.Report) bool {
		if r.Status != models.StatusAssigned && r.Status != models.StatusInProgress {
			return false
		}
		return r.AssignedAt != nil && r.AssignedAt.Before(cutoff)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].AssignedAt.Before(*out[j].AssignedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) StatusHistory(ctx context.Context, reportID string) ([]models.StatusChange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.StatusChange(nil), m.history[reportID]...), nil
}

// filterReports returns clones of matching reports in insertion order
func (m *MemoryStore) filterReports(keep func(*models.Report) bool) []*models.Report {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.Report
	for _, id := range m.reportOrder {
		r := m.reports[id]
		if keep(r) {
			out = append(out, r.Clone())
		}
	}
	return out
}

func (m *MemoryStore) AppendScoreEvent(ctx context.Context, event *models.ScoreEvent) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := event.ReportID + "|" + string(event.Reason)
	if _, dup := m.scoreKeys[key]; dup {
		return false, nil
	}
	m.scoreKeys[key] = struct{}{}
	m.scoreSeq++
	event.EventID = m.scoreSeq
	m.scoreEvents = append(m.scoreEvents, *event)
	return true, nil
}

func (m *MemoryStore) SumScoreEvents(ctx context.Context, actorID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := 0
	for _, e := range m.scoreEvents {
		if e.ActorID == actorID {
			total += e.Points
		}
	}
	return total, nil
}

func (m *MemoryStore) ListScoreEvents(ctx context.Context, actorID string) ([]models.ScoreEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.ScoreEvent
	for _, e := range m.scoreEvents {
		if e.ActorID == actorID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MemoryStore) TopScorers(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	totals := make(map[string]int)
	for _, e := range m.scoreEvents {
		totals[e.ActorID] += e.Points
	}
	m.mu.RUnlock()

	entries := make([]models.LeaderboardEntry, 0, len(totals))
	for actor, points := range totals {
		entries = append(entries, models.LeaderboardEntry{ActorID: actor, Points: points})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].ActorID < entries[j].ActorID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (m *MemoryStore) SaveNotification(ctx context.Context, n *models.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *n
	if n.ReportID != nil {
		id := *n.ReportID
		c.ReportID = &id
	}
	m.notifications = append(m.notifications, c)
	return nil
}

func (m *MemoryStore) HasUnreadNotification(ctx context.Context, recipientID, reportID string, notificationType models.NotificationType) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, n := range m.notifications {
		if n.RecipientID == recipientID && !n.Read && n.Type == notificationType &&
			n.ReportID != nil && *n.ReportID == reportID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) ListNotifications(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	var out []models.Notification
	for _, n := range m.notifications {
		if n.RecipientID != recipientID || (unreadOnly && n.Read) {
			continue
		}
		out = append(out, n)
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := notificationPriorityRank(out[i].Priority), notificationPriorityRank(out[j].Priority)
		if pi != pj {
			return pi < pj
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) MarkNotificationRead(ctx context.Context, recipientID, notificationID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.notifications {
		if m.notifications[i].NotificationID == notificationID && m.notifications[i].RecipientID == recipientID {
			m.notifications[i].Read = true
			return nil
		}
	}
	return fmt.Errorf("notification %s: %w", notificationID, models.ErrNotFound)
}

func (m *MemoryStore) CreateStaff(ctx context.Context, staff *models.Staff) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.staff {
		if strings.EqualFold(s.Email, staff.Email) {
			return fmt.Errorf("failed to create staff: email %s already registered", staff.Email)
		}
	}
	c := *staff
	c.Email = strings.ToLower(staff.Email)
	c.Skills = append([]string(nil), staff.Skills...)
	m.staff[staff.StaffID] = &c
	return nil
}

func (m *MemoryStore) GetStaffByEmail(ctx context.Context, email string) (*models.Staff, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.staff {
		if strings.EqualFold(s.Email, email) {
			c := *s
			return &c, nil
		}
	}
	return nil, fmt.Errorf("staff %s: %w", email, models.ErrNotFound)
}

func (m *MemoryStore) GetStaffByID(ctx context.Context, staffID string) (*models.Staff, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.staff[staffID]
	if !ok {
		return nil, fmt.Errorf("staff %s: %w", staffID, models.ErrNotFound)
	}
	c := *s
	return &c, nil
}

func containsStatus(list []models.ReportStatus, s models.ReportStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func notificationPriorityRank(p models.NotificationPriority) int {
	switch p {
	case models.NotificationPriorityUrgent:
		return 1
	case models.NotificationPriorityHigh:
		return 2
	case models.NotificationPriorityNormal:
		return 3
	}
	return 4
}
