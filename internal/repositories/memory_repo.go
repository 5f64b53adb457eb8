package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"leadbook/internal/common"
	"leadbook/internal/models"

	"github.com/google/uuid"
)

// MemoryStore keeps users and leads in process memory. It evaluates lead
// queries with LeadQuery.Matches and is used for local runs and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]models.User
	leads    map[uuid.UUID]models.Lead
	lastTime time.Time
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[uuid.UUID]models.User),
		leads: make(map[uuid.UUID]models.Lead),
		now:   time.Now,
	}
}

// Store wraps the memory backend in the common Store bundle
func (m *MemoryStore) Store() *Store {
	return &Store{
		Users:  memoryUsers{m},
		Leads:  memoryLeads{m},
		Pinger: m,
		Close:  func() {},
	}
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

// tick returns a timestamp strictly after the previous one so that
// insertion order and created_at order agree. Callers hold mu.
func (m *MemoryStore) tick() time.Time {
	now := m.now().UTC()
	if !now.After(m.lastTime) {
		now = m.lastTime.Add(time.Microsecond)
	}
	m.lastTime = now
	return now
}

type memoryUsers struct{ m *MemoryStore }

func (r memoryUsers) Create(_ context.Context, user *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, existing := range r.m.users {
		if existing.Email == user.Email {
			return &common.DuplicateKeyError{Field: "email"}
		}
	}
	now := r.m.tick()
	user.CreatedAt, user.UpdatedAt = now, now
	r.m.users[user.ID] = *user
	return nil
}

func (r memoryUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	user, ok := r.m.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &user, nil
}

func (r memoryUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	email = common.NormalizeEmail(email)
	for _, user := range r.m.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, common.ErrNotFound
}

type memoryLeads struct{ m *MemoryStore }

func (r memoryLeads) emailTaken(email string, except uuid.UUID) bool {
	for id, lead := range r.m.leads {
		if id != except && lead.Email == email {
			return true
		}
	}
	return false
}

func (r memoryLeads) Create(_ context.Context, lead *models.Lead) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, exists := r.m.leads[lead.ID]; exists {
		return &common.DuplicateKeyError{Field: "id"}
	}
	if r.emailTaken(lead.Email, lead.ID) {
		return &common.DuplicateKeyError{Field: "email"}
	}
	now := r.m.tick()
	lead.CreatedAt, lead.UpdatedAt = now, now
	r.m.leads[lead.ID] = *lead
	return nil
}

func (r memoryLeads) GetByID(_ context.Context, ownerID, id uuid.UUID) (*models.Lead, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	lead, ok := r.m.leads[id]
	if !ok || lead.CreatedBy != ownerID {
		return nil, common.ErrNotFound
	}
	return &lead, nil
}

func (r memoryLeads) Update(_ context.Context, lead *models.Lead) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	existing, ok := r.m.leads[lead.ID]
	if !ok || existing.CreatedBy != lead.CreatedBy {
		return common.ErrNotFound
	}
	if r.emailTaken(lead.Email, lead.ID) {
		return &common.DuplicateKeyError{Field: "email"}
	}
	lead.CreatedAt = existing.CreatedAt
	lead.UpdatedAt = r.m.tick()
	r.m.leads[lead.ID] = *lead
	return nil
}

func (r memoryLeads) Delete(_ context.Context, ownerID, id uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	lead, ok := r.m.leads[id]
	if !ok || lead.CreatedBy != ownerID {
		return common.ErrNotFound
	}
	delete(r.m.leads, id)
	return nil
}

func (r memoryLeads) matching(q *models.LeadQuery) []*models.Lead {
	var out []*models.Lead
	for _, lead := range r.m.leads {
		l := lead
		if q.Matches(&l) {
			out = append(out, &l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	return out
}

func (r memoryLeads) Find(_ context.Context, q *models.LeadQuery) ([]*models.Lead, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	all := r.matching(q)
	if q.Skip >= len(all) {
		return []*models.Lead{}, nil
	}
	end := q.Skip + q.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[q.Skip:end], nil
}

func (r memoryLeads) Count(_ context.Context, q *models.LeadQuery) (int64, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	var n int64
	for _, lead := range r.m.leads {
		l := lead
		if q.Matches(&l) {
			n++
		}
	}
	return n, nil
}
