package storage

import (
	"sync"

	"github.com/mangeshr/parkseva-backend/internal/models"
)

// MemoryStore holds everything in memory. Used for tests and local
// experiments (USE_MEMORY_STORE=true), never for production.
type MemoryStore struct {
	mu       sync.RWMutex
	parkings []*models.ParkingRecord
	seasons  []*models.SeasonPass
	otps     map[string]*models.OTPEntry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		otps: make(map[string]*models.OTPEntry),
	}
}

func (m *MemoryStore) ListParkings() ([]*models.ParkingRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.ParkingRecord, len(m.parkings))
	copy(out, m.parkings)
	return out, nil
}

func (m *MemoryStore) AppendParking(rec *models.ParkingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.parkings = append(m.parkings, rec)
	return nil
}

func (m *MemoryStore) SaveParkings(recs []*models.ParkingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.parkings = append([]*models.ParkingRecord(nil), recs...)
	return nil
}

func (m *MemoryStore) ListSeasonPasses() ([]*models.SeasonPass, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.SeasonPass, len(m.seasons))
	copy(out, m.seasons)
	return out, nil
}

func (m *MemoryStore) ReplaceSeasonPass(pass *models.SeasonPass) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.seasons[:0]
	for _, s := range m.seasons {
		if s.VehicleNo != pass.VehicleNo {
			kept = append(kept, s)
		}
	}
	m.seasons = append(kept, pass)
	return nil
}

func (m *MemoryStore) GetSeasonPassByToken(token string) (*models.SeasonPass, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.seasons {
		if s.Token == token {
			return s, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) LoadOTPs() (map[string]*models.OTPEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]*models.OTPEntry, len(m.otps))
	for k, v := range m.otps {
		e := *v
		out[k] = &e
	}
	return out, nil
}

func (m *MemoryStore) SaveOTPs(entries map[string]*models.OTPEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.otps = make(map[string]*models.OTPEntry, len(entries))
	for k, v := range entries {
		e := *v
		m.otps[k] = &e
	}
	return nil
}
