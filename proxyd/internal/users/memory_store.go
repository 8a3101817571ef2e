package users

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/complyhq/comply"
)

type memoryStore struct {
	mu   sync.Mutex
	byID map[string]comply.UserProfile
}

func NewMemoryStore(seed []comply.UserProfile) Store {
	byID := make(map[string]comply.UserProfile, len(seed))
	for _, user := range seed {
		byID[user.ID] = user
	}
	return &memoryStore{byID: byID}
}

// SeedFromFile parses a JSON array of user profiles to seed the directory
// with.
func SeedFromFile(path string) ([]comply.UserProfile, error) {
	seedBytes, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading users file %s", path)
	}
	seed := []comply.UserProfile{}
	if err := json.Unmarshal(seedBytes, &seed); err != nil {
		return nil, errors.Wrapf(err, "error parsing users file %s", path)
	}
	return seed, nil
}

// DefaultSeed returns one user per role so every advisory and authoritative
// RBAC path can be exercised out of the box.
func DefaultSeed() []comply.UserProfile {
	return []comply.UserProfile{
		{
			ID:       "u-owner",
			Email:    "owner@fsp.test",
			RoleID:   "r-owner",
			RoleName: string(comply.RoleFSPOwner),
		},
		{
			ID:       "u-admin",
			Email:    "admin@fsp.test",
			RoleID:   "r-admin",
			RoleName: string(comply.RoleAdmin),
		},
		{
			ID:       "u-co",
			Email:    "co@fsp.test",
			RoleID:   "r-co",
			RoleName: string(comply.RoleComplianceOfficer),
		},
		{
			ID:       "u-ki",
			Email:    "ki@fsp.test",
			RoleID:   "r-ki",
			RoleName: string(comply.RoleKeyIndividual),
		},
		{
			ID:       "u-rep",
			Email:    "rep@fsp.test",
			RoleID:   "r-rep",
			RoleName: string(comply.RoleRepresentative),
		},
		{
			ID:       "u-staff",
			Email:    "staff@fsp.test",
			RoleID:   "r-staff",
			RoleName: string(comply.RoleAdministrativeStaff),
		},
		{
			ID:       "u-viewer",
			Email:    "viewer@fsp.test",
			RoleID:   "r-viewer",
			RoleName: string(comply.RoleViewer),
		},
	}
}

func (m *memoryStore) Get(
	_ context.Context,
	id string,
) (comply.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return comply.UserProfile{}, comply.NewErrNotFound("User", id)
	}
	return user, nil
}

func (m *memoryStore) GetByEmail(
	_ context.Context,
	email string,
) (comply.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.byID {
		if user.Email == email {
			return user, nil
		}
	}
	return comply.UserProfile{}, comply.NewErrNotFound("User", email)
}

func (m *memoryStore) List(_ context.Context) ([]comply.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]comply.UserProfile, 0, len(m.byID))
	for _, user := range m.byID {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].ID < users[j].ID
	})
	return users, nil
}

func (m *memoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return comply.NewErrNotFound("User", id)
	}
	delete(m.byID, id)
	return nil
}
