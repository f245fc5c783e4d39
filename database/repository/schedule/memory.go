// File: database/repository/schedule/memory.go
package scheduleRepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roza-in/server/models"
)

type memoryScheduleRepo struct {
	mu        sync.Mutex
	schedules map[string]*models.WeeklySchedule
	overrides map[string]*models.ScheduleOverride // by override id
}

// NewMemoryScheduleRepo constructs an empty in-memory ScheduleRepository.
func NewMemoryScheduleRepo() ScheduleRepository {
	return &memoryScheduleRepo{
		schedules: make(map[string]*models.WeeklySchedule),
		overrides: make(map[string]*models.ScheduleOverride),
	}
}

func (r *memoryScheduleRepo) Create(ctx context.Context, ws models.WeeklySchedule) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ws.ID == "" {
		ws.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	ws.CreatedAt = now
	ws.UpdatedAt = now
	cp := ws
	r.schedules[cp.ID] = &cp
	return cp.ID, nil
}

func (r *memoryScheduleRepo) Update(ctx context.Context, ws models.WeeklySchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.schedules[ws.ID]
	if !ok {
		return ErrScheduleNotFound
	}
	ws.CreatedAt = existing.CreatedAt
	ws.UpdatedAt = time.Now().UTC()
	cp := ws
	r.schedules[cp.ID] = &cp
	return nil
}

func (r *memoryScheduleRepo) Deactivate(ctx context.Context, scheduleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ws, ok := r.schedules[scheduleID]
	if !ok {
		return ErrScheduleNotFound
	}
	ws.Active = false
	ws.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memoryScheduleRepo) GetByID(ctx context.Context, id string) (*models.WeeklySchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ws, ok := r.schedules[id]
	if !ok {
		return nil, ErrScheduleNotFound
	}
	cp := *ws
	return &cp, nil
}

func (r *memoryScheduleRepo) GetActiveByDoctor(ctx context.Context, doctorID string) ([]models.WeeklySchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.WeeklySchedule
	for _, ws := range r.schedules {
		if ws.DoctorID == doctorID && ws.Active {
			out = append(out, *ws)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].Start < out[j].Start
	})
	return out, nil
}

func (r *memoryScheduleRepo) ListActiveDoctorIDs(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool)
	var out []string
	for _, ws := range r.schedules {
		if ws.Active && !seen[ws.DoctorID] {
			seen[ws.DoctorID] = true
			out = append(out, ws.DoctorID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *memoryScheduleRepo) CreateOverride(ctx context.Context, ov models.ScheduleOverride) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.overrides {
		if existing.DoctorID == ov.DoctorID && existing.Date == ov.Date {
			return "", ErrOverrideExists
		}
	}
	if ov.ID == "" {
		ov.ID = uuid.New().String()
	}
	ov.CreatedAt = time.Now().UTC()
	cp := ov
	r.overrides[cp.ID] = &cp
	return cp.ID, nil
}

func (r *memoryScheduleRepo) DeleteOverride(ctx context.Context, overrideID string) (*models.ScheduleOverride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ov, ok := r.overrides[overrideID]
	if !ok {
		return nil, ErrOverrideNotFound
	}
	delete(r.overrides, overrideID)
	cp := *ov
	return &cp, nil
}

func (r *memoryScheduleRepo) GetOverride(ctx context.Context, doctorID, date string) (*models.ScheduleOverride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ov := range r.overrides {
		if ov.DoctorID == doctorID && ov.Date == date {
			cp := *ov
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memoryScheduleRepo) GetOverridesInRange(ctx context.Context, doctorID, fromDate, toDate string) ([]models.ScheduleOverride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.ScheduleOverride
	for _, ov := range r.overrides {
		if ov.DoctorID == doctorID && ov.Date >= fromDate && ov.Date <= toDate {
			out = append(out, *ov)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}
