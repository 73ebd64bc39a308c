package mockserver

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/pharmalink/internal/common"
	"github.com/dmitrijs2005/pharmalink/internal/wire"
)

var (
	errBadCredentials  = errors.New("bad credentials")
	errRefreshInvalid  = errors.New("refresh token invalid")
	errRefreshExpired  = errors.New("refresh token expired")
	errMedicineExists  = errors.New("medicine exists")
	errMedicineMissing = errors.New("medicine not found")
)

type user struct {
	wire.User
	passwordHash []byte
}

type refreshRecord struct {
	userID  string
	expires time.Time
}

// store keeps the mock backend's state in memory.
type store struct {
	mu         sync.RWMutex
	users      map[string]user
	refresh    map[string]refreshRecord
	medicines  []wire.Medicine
	generation uint64
}

func newStore(seedEmail, seedPassword string) (*store, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	admin := user{
		User: wire.User{
			ID:    uuid.NewString(),
			Email: seedEmail,
			Name:  "Administrator",
			Role:  "admin",
		},
		passwordHash: hash,
	}

	now := time.Now().UTC()
	return &store{
		users:   map[string]user{strings.ToLower(seedEmail): admin},
		refresh: make(map[string]refreshRecord),
		medicines: []wire.Medicine{
			{ID: uuid.NewString(), Name: "Ibuprofen 200mg", Manufacturer: "Acme Pharma", Price: 4.99, Stock: 120, CreatedAt: now},
			{ID: uuid.NewString(), Name: "Amoxicillin 500mg", Manufacturer: "Medilab", Price: 12.5, Stock: 40, RequiresPrescription: true, CreatedAt: now},
			{ID: uuid.NewString(), Name: "Paracetamol 500mg", Manufacturer: "Acme Pharma", Price: 3.2, Stock: 300, CreatedAt: now},
		},
	}, nil
}

func (s *store) authenticate(email, password string) (wire.User, error) {
	s.mu.RLock()
	u, ok := s.users[strings.ToLower(strings.TrimSpace(email))]
	s.mu.RUnlock()
	if !ok {
		return wire.User{}, errBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)); err != nil {
		return wire.User{}, errBadCredentials
	}
	return u.User, nil
}

func (s *store) userByID(id string) (wire.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			return u.User, true
		}
	}
	return wire.User{}, false
}

func (s *store) issueRefresh(userID string, ttl time.Duration) (string, error) {
	token, err := common.MakeRandHexString(32)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.refresh[token] = refreshRecord{userID: userID, expires: time.Now().Add(ttl)}
	s.mu.Unlock()
	return token, nil
}

// rotate consumes token and returns its owner. A token can be used once.
func (s *store) rotate(token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.refresh[token]
	if !ok {
		return "", errRefreshInvalid
	}
	delete(s.refresh, token)
	if rec.expires.Before(time.Now()) {
		return "", errRefreshExpired
	}
	return rec.userID, nil
}

func (s *store) revokeRefresh(token string) {
	s.mu.Lock()
	delete(s.refresh, token)
	s.mu.Unlock()
}

func (s *store) revokeAllRefresh() {
	s.mu.Lock()
	clear(s.refresh)
	s.mu.Unlock()
}

func (s *store) currentGeneration() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

func (s *store) bumpGeneration() {
	s.mu.Lock()
	s.generation++
	s.mu.Unlock()
}

// listMedicines filters by a case-insensitive name search and pages the
// result. page starts at 1.
func (s *store) listMedicines(search string, page, limit int) ([]wire.Medicine, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search = strings.ToLower(search)
	var matched []wire.Medicine
	for _, m := range s.medicines {
		if search == "" || strings.Contains(strings.ToLower(m.Name), search) {
			matched = append(matched, m)
		}
	}

	total := len(matched)
	start := (page - 1) * limit
	if start >= total {
		return []wire.Medicine{}, total
	}
	end := min(start+limit, total)
	return slices.Clone(matched[start:end]), total
}

func (s *store) getMedicine(id string) (wire.Medicine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.medicines {
		if m.ID == id {
			return m, nil
		}
	}
	return wire.Medicine{}, errMedicineMissing
}

func (s *store) addMedicine(req wire.CreateMedicineRequest) (wire.Medicine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.medicines {
		if strings.EqualFold(m.Name, req.Name) {
			return wire.Medicine{}, errMedicineExists
		}
	}
	m := wire.Medicine{
		ID:                   uuid.NewString(),
		Name:                 req.Name,
		Manufacturer:         req.Manufacturer,
		Price:                req.Price,
		Stock:                req.Stock,
		RequiresPrescription: req.RequiresPrescription,
		CreatedAt:            time.Now().UTC(),
	}
	s.medicines = append(s.medicines, m)
	return m, nil
}

func (s *store) deleteMedicine(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.medicines, func(m wire.Medicine) bool { return m.ID == id })
	if i < 0 {
		return errMedicineMissing
	}
	s.medicines = slices.Delete(s.medicines, i, i+1)
	return nil
}
