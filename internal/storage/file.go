package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mangeshr/parkseva-backend/internal/models"
)

const (
	parkingsFile = "parkings.json"
	seasonFile   = "season.json"
	otpFile      = "otps.json"
)

// FileStore persists each collection as a JSON file under a data directory.
// This is the default backend: a single parking lot produces a handful of
// records a day, so rewriting the whole file per mutation is fine.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates the data directory if needed and seeds an empty
// parkings file so first reads succeed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	fs := &FileStore{dir: dir}
	path := filepath.Join(dir, parkingsFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
			return nil, fmt.Errorf("seed parkings file: %w", err)
		}
	}
	return fs, nil
}

func (f *FileStore) readJSON(name string, v interface{}) error {
	data, err := os.ReadFile(filepath.Join(f.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func (f *FileStore) writeJSON(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(f.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (f *FileStore) ListParkings() ([]*models.ParkingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var recs []*models.ParkingRecord
	if err := f.readJSON(parkingsFile, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (f *FileStore) AppendParking(rec *models.ParkingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var recs []*models.ParkingRecord
	if err := f.readJSON(parkingsFile, &recs); err != nil {
		return err
	}
	recs = append(recs, rec)
	return f.writeJSON(parkingsFile, recs)
}

func (f *FileStore) SaveParkings(recs []*models.ParkingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if recs == nil {
		recs = []*models.ParkingRecord{}
	}
	return f.writeJSON(parkingsFile, recs)
}

func (f *FileStore) ListSeasonPasses() ([]*models.SeasonPass, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var passes []*models.SeasonPass
	if err := f.readJSON(seasonFile, &passes); err != nil {
		return nil, err
	}
	return passes, nil
}

func (f *FileStore) ReplaceSeasonPass(pass *models.SeasonPass) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var passes []*models.SeasonPass
	if err := f.readJSON(seasonFile, &passes); err != nil {
		return err
	}
	kept := passes[:0]
	for _, s := range passes {
		if s.VehicleNo != pass.VehicleNo {
			kept = append(kept, s)
		}
	}
	return f.writeJSON(seasonFile, append(kept, pass))
}

func (f *FileStore) GetSeasonPassByToken(token string) (*models.SeasonPass, error) {
	passes, err := f.ListSeasonPasses()
	if err != nil {
		return nil, err
	}
	for _, s := range passes {
		if s.Token == token {
			return s, nil
		}
	}
	return nil, ErrNotFound
}

func (f *FileStore) LoadOTPs() (map[string]*models.OTPEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries := make(map[string]*models.OTPEntry)
	if err := f.readJSON(otpFile, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (f *FileStore) SaveOTPs(entries map[string]*models.OTPEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.writeJSON(otpFile, entries)
}
