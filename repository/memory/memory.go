// Package memory provides in-process implementations of the repository
// interfaces. Filter semantics match the PostgreSQL repositories.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/padraicbc/racelog/models"
	"github.com/padraicbc/racelog/repository"
)

// RaceStore keeps races in a map keyed by id.
type RaceStore struct {
	mu    sync.RWMutex
	races map[uuid.UUID]models.Race
}

// NewRaceStore returns an empty RaceStore.
func NewRaceStore() *RaceStore {
	return &RaceStore{races: map[uuid.UUID]models.Race{}}
}

var _ repository.RaceRepository = (*RaceStore)(nil)

func (s *RaceStore) Create(_ context.Context, race *models.Race) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insert(race)
	return nil
}

func (s *RaceStore) CreateBatch(_ context.Context, races []*models.Race) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range races {
		s.insert(r)
	}
	return nil
}

func (s *RaceStore) insert(race *models.Race) {
	now := time.Now().UTC()
	if race.ID == uuid.Nil {
		race.ID = uuid.New()
	}
	if race.CreatedAt.IsZero() {
		race.CreatedAt = now
	}
	race.UpdatedAt = now
	s.races[race.ID] = *race
}

func (s *RaceStore) Get(_ context.Context, owner, id uuid.UUID) (*models.Race, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.races[id]
	if !ok || r.UserID != owner {
		return nil, models.ErrNotFound
	}
	return &r, nil
}

func (s *RaceStore) Update(_ context.Context, owner, id uuid.UUID, patch models.RacePatch) (*models.Race, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.races[id]
	if !ok || r.UserID != owner {
		return nil, models.ErrNotFound
	}
	if !patch.Empty() {
		patch.Apply(&r)
		r.UpdatedAt = time.Now().UTC()
		s.races[id] = r
	}
	return &r, nil
}

func (s *RaceStore) Delete(_ context.Context, owner, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.races[id]
	if !ok || r.UserID != owner {
		return models.ErrNotFound
	}
	delete(s.races, id)
	return nil
}

func (s *RaceStore) List(ctx context.Context, owner uuid.UUID, f repository.RaceFilter, p repository.Page, srt repository.Sort) ([]models.Race, int, error) {
	all, err := s.Find(ctx, owner, f, srt)
	if err != nil {
		return nil, 0, err
	}
	start := min(p.Offset(), len(all))
	end := min(start+p.Limit, len(all))
	return all[start:end], len(all), nil
}

func (s *RaceStore) Find(_ context.Context, owner uuid.UUID, f repository.RaceFilter, srt repository.Sort) ([]models.Race, error) {
	s.mu.RLock()
	out := []models.Race{}
	for _, r := range s.races {
		if r.UserID == owner && f.Match(&r) {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b models.Race) int {
		c := compareField(a, b, srt.Field)
		if c == 0 && (srt.Field == "date" || srt.Field == "") {
			c = strings.Compare(a.Time, b.Time)
		}
		if srt.Desc {
			c = -c
		}
		if c == 0 {
			c = strings.Compare(a.ID.String(), b.ID.String())
		}
		return c
	})
	return out, nil
}

func (s *RaceStore) Count(_ context.Context, owner uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.races {
		if r.UserID == owner {
			n++
		}
	}
	return n, nil
}

func compareField(a, b models.Race, field string) int {
	switch field {
	case "time":
		return strings.Compare(a.Time, b.Time)
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "price":
		return cmp.Compare(a.Price, b.Price)
	case "distance":
		return cmp.Compare(a.Distance, b.Distance)
	case "status":
		return strings.Compare(string(a.Status), string(b.Status))
	case "completionTime":
		return strings.Compare(a.CompletionTime, b.CompletionTime)
	case "createdAt":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "updatedAt":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return strings.Compare(a.Date, b.Date)
	}
}

// UserStore keeps users in memory. Races are consulted for race counts.
type UserStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]models.User
	races *RaceStore
}

// NewUserStore returns an empty UserStore; races may be nil.
func NewUserStore(races *RaceStore) *UserStore {
	return &UserStore{users: map[uuid.UUID]models.User{}, races: races}
}

var _ repository.UserRepository = (*UserStore)(nil)

func (s *UserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range s.users {
		if u.Email == user.Email {
			return models.ErrEmailTaken
		}
	}
	s.put(user)
	return nil
}

func (s *UserStore) put(user *models.User) {
	now := time.Now().UTC()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	s.users[user.ID] = *user
}

func (s *UserStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *UserStore) Save(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for id, u := range s.users {
		if u.Email == user.Email {
			user.ID = id
			user.CreatedAt = u.CreatedAt
		}
	}
	s.put(user)
	return nil
}

func (s *UserStore) List(ctx context.Context) ([]models.UserSummary, error) {
	s.mu.RLock()
	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	s.mu.RUnlock()

	slices.SortFunc(users, func(a, b models.User) int { return b.CreatedAt.Compare(a.CreatedAt) })

	out := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		sum := models.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt}
		if u.Avatar != "" {
			avatar := u.Avatar
			sum.Avatar = &avatar
		}
		if s.races != nil {
			n, err := s.races.Count(ctx, u.ID)
			if err != nil {
				return nil, err
			}
			sum.RaceCount = n
		}
		out = append(out, sum)
	}
	return out, nil
}

func (s *UserStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return models.ErrNotFound
	}
	delete(s.users, id)
	return nil
}
