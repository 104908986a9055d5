// Package auth holds the doctor credential store, in-memory bearer sessions
// and the HTTP middleware that guards protected routes.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/medperplexity/clinical-api/logging"
)

const doctorsFile = "doctors.json"

// ErrEmailTaken is returned by Register when the email or username is
// already bound to an existing account.
var ErrEmailTaken = errors.New("email already registered")

// Doctor is one record in doctors.json. The file keys records by doctor id,
// so ID is backfilled from the map key on load. Older records store the
// bcrypt hash under password_hash instead of hashed_password; both names
// are accepted.
type Doctor struct {
	ID             string `json:"id,omitempty"`
	Email          string `json:"email"`
	Username       string `json:"username,omitempty"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	HashedPassword string `json:"hashed_password,omitempty"`
	PasswordHash   string `json:"password_hash,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
}

func (d Doctor) passwordHash() string {
	if d.HashedPassword != "" {
		return d.HashedPassword
	}
	return d.PasswordHash
}

// Sanitized returns a copy with the credential fields blanked, safe to send
// to clients.
func (d Doctor) Sanitized() Doctor {
	d.HashedPassword = ""
	d.PasswordHash = ""
	return d
}

// DoctorStore reads and writes the doctor credential file. Reads hit the
// file on every call so out-of-band edits show up without a restart; writes
// are serialized through mu.
type DoctorStore struct {
	dir string
	mu  sync.Mutex
}

func NewDoctorStore(dir string) *DoctorStore {
	return &DoctorStore{dir: dir}
}

func (s *DoctorStore) load() map[string]Doctor {
	path := filepath.Join(s.dir, doctorsFile)

	raw, err := os.ReadFile(path)
	if err != nil {
		logging.Warn("Doctor file unavailable", "path", path, "error", err)
		return map[string]Doctor{}
	}

	var doctors map[string]Doctor
	if err := json.Unmarshal(raw, &doctors); err != nil {
		logging.Warn("Doctor file is not valid JSON", "path", path, "error", err)
		return map[string]Doctor{}
	}

	for id, d := range doctors {
		if d.ID == "" {
			d.ID = id
			doctors[id] = d
		}
	}
	return doctors
}

func (s *DoctorStore) save(doctors map[string]Doctor) error {
	// The map key owns the id on disk
	onDisk := make(map[string]Doctor, len(doctors))
	for id, d := range doctors {
		d.ID = ""
		onDisk[id] = d
	}

	raw, err := json.MarshalIndent(onDisk, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding doctor file: %w", err)
	}

	path := filepath.Join(s.dir, doctorsFile)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing doctor file: %w", err)
	}
	return nil
}

// GetDoctor looks a doctor up by id.
func (s *DoctorStore) GetDoctor(id string) (Doctor, bool) {
	d, ok := s.load()[id]
	return d, ok
}

// FindByLogin matches a doctor by email or username, case-insensitively.
// Iteration is sorted by id so duplicate logins resolve the same way on
// every call.
func (s *DoctorStore) FindByLogin(login string) (Doctor, bool) {
	needle := strings.ToLower(strings.TrimSpace(login))
	doctors := s.load()

	ids := make([]string, 0, len(doctors))
	for id := range doctors {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		d := doctors[id]
		if strings.ToLower(d.Email) == needle {
			return d, true
		}
		if d.Username != "" && strings.ToLower(d.Username) == needle {
			return d, true
		}
	}
	return Doctor{}, false
}

// Authenticate verifies a login/password pair against the stored bcrypt
// hash. Unknown accounts and wrong passwords both come back as a plain
// false so callers cannot leak which one failed.
func (s *DoctorStore) Authenticate(login, password string) (Doctor, bool) {
	doctor, ok := s.FindByLogin(login)
	if !ok {
		logging.Warn("Login attempt for unknown account", "login", login)
		return Doctor{}, false
	}

	hash := doctor.passwordHash()
	if hash == "" {
		logging.Warn("Doctor record has no password hash", "doctor_id", doctor.ID)
		return Doctor{}, false
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return Doctor{}, false
	}
	return doctor, true
}

// Register creates a doctor record with the next sequential DOC-NNN id and
// a bcrypt password hash, then persists the updated file.
func (s *DoctorStore) Register(email, password, name, specialization string) (Doctor, error) {
	if specialization == "" {
		specialization = "General Medicine"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doctors := s.load()

	needle := strings.ToLower(strings.TrimSpace(email))
	for _, d := range doctors {
		if strings.ToLower(d.Email) == needle {
			return Doctor{}, ErrEmailTaken
		}
		if d.Username != "" && strings.ToLower(d.Username) == needle {
			return Doctor{}, ErrEmailTaken
		}
	}

	highest := 0
	for id := range doctors {
		var n int
		if _, err := fmt.Sscanf(id, "DOC-%d", &n); err == nil && n > highest {
			highest = n
		}
	}
	newID := fmt.Sprintf("DOC-%03d", highest+1)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Doctor{}, fmt.Errorf("hashing password: %w", err)
	}

	doctor := Doctor{
		ID:             newID,
		Email:          email,
		Name:           name,
		Specialization: specialization,
		HashedPassword: string(hash),
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
	}
	doctors[newID] = doctor

	if err := s.save(doctors); err != nil {
		return Doctor{}, err
	}

	logging.Info("Doctor registered", "doctor_id", newID, "email", email)
	return doctor, nil
}
