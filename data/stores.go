package data

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/medperplexity/clinical-api/logging"
)

// PatientFileStore reads patient records from <dir>/patients.json.
// The file holds a map of patient id to record.
type PatientFileStore struct {
	dir string
}

// NewPatientFileStore creates a patient store rooted at the given data directory.
func NewPatientFileStore(dir string) *PatientFileStore {
	return &PatientFileStore{dir: dir}
}

// load reads and parses the patients file. Missing or malformed files
// return an empty map so callers degrade to not-found instead of erroring.
func (s *PatientFileStore) load() map[string]Patient {
	path := filepath.Join(s.dir, "patients.json")

	raw, err := os.ReadFile(path)
	if err != nil {
		logging.Warn("Patients file unavailable", "path", path, "error", err)
		return map[string]Patient{}
	}

	var patients map[string]Patient
	if err := json.Unmarshal(raw, &patients); err != nil {
		logging.Warn("Patients file is not valid JSON", "path", path, "error", err)
		return map[string]Patient{}
	}

	// Backfill ids for records keyed only by the map key
	for id, p := range patients {
		if p.ID == "" {
			p.ID = id
			patients[id] = p
		}
	}

	return patients
}

// GetPatient returns the patient record and whether it exists.
func (s *PatientFileStore) GetPatient(id string) (Patient, bool) {
	p, ok := s.load()[id]
	return p, ok
}

// ListByDoctor returns all patients assigned to the given doctor.
func (s *PatientFileStore) ListByDoctor(doctorID string) map[string]Patient {
	assigned := make(map[string]Patient)
	for id, p := range s.load() {
		if p.DoctorID == doctorID {
			assigned[id] = p
		}
	}
	return assigned
}

// Count returns how many patient records the store currently holds.
func (s *PatientFileStore) Count() int {
	return len(s.load())
}

// RoundFileStore reads morning-briefing entries from <dir>/daily_rounds.json.
type RoundFileStore struct {
	dir string
}

// NewRoundFileStore creates a rounds store rooted at the given data directory.
func NewRoundFileStore(dir string) *RoundFileStore {
	return &RoundFileStore{dir: dir}
}

// List returns all round entries, empty when the store is unavailable.
func (s *RoundFileStore) List() []Round {
	path := filepath.Join(s.dir, "daily_rounds.json")

	raw, err := os.ReadFile(path)
	if err != nil {
		logging.Warn("Daily rounds file unavailable", "path", path, "error", err)
		return []Round{}
	}

	var rounds []Round
	if err := json.Unmarshal(raw, &rounds); err != nil {
		logging.Warn("Daily rounds file is not valid JSON", "path", path, "error", err)
		return []Round{}
	}

	return rounds
}
