package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"proteinid/models"

	"github.com/google/uuid"
)

// MemoryStore is a process-local Store used by tests and by STORE=memory
// development runs. Values are copied in and out so callers never share
// memory with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]models.User
	profiles map[string]models.UserProfile
	logs     map[string]models.LogEntry
	weights  map[string]models.WeightEntry
	devices  map[string]models.UserDevice
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]models.User),
		profiles: make(map[string]models.UserProfile),
		logs:     make(map[string]models.LogEntry),
		weights:  make(map[string]models.WeightEntry),
		devices:  make(map[string]models.UserDevice),
	}
}

// ---------- accounts ----------

func (s *MemoryStore) CreateAccount(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if strings.EqualFold(a.Email, u.Email) {
			return ErrConflict
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	s.accounts[u.ID] = *u
	return nil
}

func (s *MemoryStore) AccountByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if strings.EqualFold(a.Email, email) {
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) AccountByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (s *MemoryStore) AccountByResetToken(_ context.Context, token string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if token == "" {
		return nil, ErrNotFound
	}
	for _, a := range s.accounts {
		if a.ResetToken == token {
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) SaveAccount(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[u.ID]; !ok {
		return ErrNotFound
	}
	u.UpdatedAt = time.Now()
	s.accounts[u.ID] = *u
	return nil
}

// ---------- profiles ----------

func (s *MemoryStore) Profile(_ context.Context, userID string) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) SaveProfile(_ context.Context, p *models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if old, ok := s.profiles[p.UserID]; ok {
		p.CreatedAt = old.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	s.profiles[p.UserID] = *p
	return nil
}

// ---------- log entries ----------

func (s *MemoryStore) LogEntries(_ context.Context, userID, date string) ([]models.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.LogEntry, 0)
	for _, e := range s.logs {
		if e.UserID == userID && (date == "" || e.Date == date) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	return out, nil
}

func (s *MemoryStore) LogEntry(_ context.Context, userID, id string) (*models.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.logs[id]
	if !ok || e.UserID != userID {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (s *MemoryStore) CreateLogEntry(_ context.Context, e *models.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.logs[e.ID] = *e
	return nil
}

func (s *MemoryStore) UpdateLogEntry(_ context.Context, e *models.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.logs[e.ID]
	if !ok || old.UserID != e.UserID {
		return ErrNotFound
	}
	old.FoodName = e.FoodName
	old.ServingGrams = e.ServingGrams
	old.ProteinGrams = e.ProteinGrams
	old.Date = e.Date
	s.logs[e.ID] = old
	return nil
}

func (s *MemoryStore) DeleteLogEntry(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.logs[id]
	if !ok || e.UserID != userID {
		return ErrNotFound
	}
	delete(s.logs, id)
	return nil
}

// ---------- weight entries ----------

func (s *MemoryStore) WeightEntries(_ context.Context, userID, date string) ([]models.WeightEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.WeightEntry, 0)
	for _, e := range s.weights {
		if e.UserID == userID && (date == "" || e.Date == date) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (s *MemoryStore) WeightEntry(_ context.Context, userID, id string) (*models.WeightEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.weights[id]
	if !ok || e.UserID != userID {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (s *MemoryStore) UpsertWeightEntry(_ context.Context, e *models.WeightEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, old := range s.weights {
		if old.UserID == e.UserID && old.Date == e.Date {
			old.WeightKg = e.WeightKg
			old.RecordedAt = e.RecordedAt
			s.weights[id] = old
			*e = old
			return nil
		}
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.weights[e.ID] = *e
	return nil
}

func (s *MemoryStore) UpdateWeightEntry(_ context.Context, e *models.WeightEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.weights[e.ID]
	if !ok || old.UserID != e.UserID {
		return ErrNotFound
	}
	for id, other := range s.weights {
		if id != e.ID && other.UserID == e.UserID && other.Date == e.Date {
			return ErrConflict
		}
	}
	old.WeightKg = e.WeightKg
	old.Date = e.Date
	old.RecordedAt = e.RecordedAt
	s.weights[e.ID] = old
	return nil
}

func (s *MemoryStore) DeleteWeightEntry(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.weights[id]
	if !ok || e.UserID != userID {
		return ErrNotFound
	}
	delete(s.weights, id)
	return nil
}

// ---------- devices ----------

func (s *MemoryStore) SaveDevice(_ context.Context, d *models.UserDevice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
		d.CreatedAt = time.Now()
	}
	d.UpdatedAt = time.Now()
	s.devices[d.ID] = *d
	return nil
}

func (s *MemoryStore) DeviceByToken(_ context.Context, userID, tokenHash string) (*models.UserDevice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.devices {
		if d.UserID == userID && d.TokenHash == tokenHash {
			return &d, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) EnabledDevices(_ context.Context, userID string) ([]models.UserDevice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.UserDevice
	for _, d := range s.devices {
		if d.UserID == userID && d.Enabled {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *MemoryStore) SetDevicesEnabled(_ context.Context, userID string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, d := range s.devices {
		if d.UserID == userID {
			d.Enabled = enabled
			s.devices[id] = d
		}
	}
	return nil
}

var _ Store = (*MemoryStore)(nil)
var _ Store = (*GormStore)(nil)
