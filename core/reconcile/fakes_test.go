package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ldap2moodle/core/model"

	"github.com/stretchr/testify/mock"
)

// fakeSource serves a fixed directory.
type fakeSource struct {
	entries []model.SourceRecord
	idsErr  error
	recErr  error
	// hiddenFromIDs are only visible to ListRecords, simulating a late addition.
	hiddenFromIDs map[string]struct{}

	sinceCalls []time.Time
}

func (s *fakeSource) ListIdentifiers(ctx context.Context) (map[string]struct{}, error) {
	if s.idsErr != nil {
		return nil, s.idsErr
	}
	ids := make(map[string]struct{}, len(s.entries))
	for _, e := range s.entries {
		if _, hidden := s.hiddenFromIDs[e.ID]; hidden {
			continue
		}
		ids[e.ID] = struct{}{}
	}
	return ids, nil
}

func (s *fakeSource) ListRecords(ctx context.Context, since time.Time) (*model.SourceIndex, error) {
	s.sinceCalls = append(s.sinceCalls, since)
	if s.recErr != nil {
		return nil, s.recErr
	}
	idx := model.NewSourceIndex()
	for _, e := range s.entries {
		idx.Put(e)
	}
	return idx, nil
}

func entry(id string, attrs ...string) model.SourceRecord {
	rec := model.NewSourceRecord(id, "uid="+id+",ou=people,dc=example,dc=org")
	for i := 0; i+1 < len(attrs); i += 2 {
		rec.Add(attrs[i], attrs[i+1])
	}
	return rec
}

// attrMapper copies attributes named like target fields.
type attrMapper struct {
	err   map[string]error
	panic map[string]bool
}

func (m attrMapper) Apply(mode model.Mode, shape *model.User, rec model.SourceRecord) error {
	if m.panic[rec.ID] {
		panic("boom")
	}
	if err := m.err[rec.ID]; err != nil {
		return err
	}
	for _, name := range rec.Names() {
		if custom, ok := strings.CutPrefix(name, model.CustomFieldPrefix); ok {
			shape.SetCustomField(custom, rec.Value(name))
			continue
		}
		if f, ok := model.LookupField(name); ok && f.Access == model.Managed {
			f.Set(shape, rec.Value(name))
		}
	}
	return nil
}

// memState is an in-memory watermark store that also records reports.
type memState struct {
	mu      sync.Mutex
	values  map[string]time.Time
	loadErr error
	saveErr error
	saves   int
	reports []*RunReport
}

func newMemState() *memState {
	return &memState{values: make(map[string]time.Time)}
}

func (s *memState) Load(ctx context.Context, domain string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return time.Time{}, s.loadErr
	}
	return s.values[domain], nil
}

func (s *memState) Save(ctx context.Context, domain string, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.values[domain] = ts
	return nil
}

func (s *memState) SaveReport(ctx context.Context, report *RunReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, report)
	return nil
}

// staticTarget returns a fixed user map.
type staticTarget struct {
	users map[string]*model.User
	err   error
}

func (t staticTarget) ListManagedUsers(ctx context.Context) (map[string]*model.User, error) {
	return t.users, t.err
}

// mockMutator is a testify mock for Mutator.
type mockMutator struct {
	mock.Mock
}

func (m *mockMutator) CreateUser(ctx context.Context, u *model.User) (*model.User, error) {
	args := m.Called(ctx, u)
	created, _ := args.Get(0).(*model.User)
	return created, args.Error(1)
}

func (m *mockMutator) UpdateUser(ctx context.Context, id int, patch *model.User) (*model.User, error) {
	args := m.Called(ctx, id, patch)
	updated, _ := args.Get(0).(*model.User)
	return updated, args.Error(1)
}

func (m *mockMutator) SuspendUser(ctx context.Context, current *model.User, reason string) error {
	args := m.Called(ctx, current, reason)
	return args.Error(0)
}

// fakeRemote is a stateful target that applies mutations to its own users.
type fakeRemote struct {
	users  map[string]*model.User
	nextID int
	calls  int
}

func newFakeRemote(users ...*model.User) *fakeRemote {
	r := &fakeRemote{users: make(map[string]*model.User), nextID: 100}
	for _, u := range users {
		r.users[model.NormalizeID(u.Login())] = u
	}
	return r
}

func (r *fakeRemote) ListManagedUsers(ctx context.Context) (map[string]*model.User, error) {
	out := make(map[string]*model.User, len(r.users))
	for k, u := range r.users {
		out[k] = u.Clone()
	}
	return out, nil
}

func (r *fakeRemote) CreateUser(ctx context.Context, u *model.User) (*model.User, error) {
	r.calls++
	created := u.Clone()
	r.nextID++
	created.ID = model.Int(r.nextID)
	r.users[model.NormalizeID(created.Login())] = created
	return created, nil
}

func (r *fakeRemote) UpdateUser(ctx context.Context, id int, patch *model.User) (*model.User, error) {
	r.calls++
	for _, u := range r.users {
		if got, ok := u.Identity(); ok && got == id {
			for _, f := range model.Fields {
				if v := f.Value(patch); v != nil && f.Access == model.Managed {
					f.Set(u, v)
				}
			}
			for k, v := range patch.CustomFields {
				u.SetCustomField(k, v)
			}
			return u.Clone(), nil
		}
	}
	return nil, fmt.Errorf("user %d not found", id)
}

func (r *fakeRemote) SuspendUser(ctx context.Context, current *model.User, reason string) error {
	r.calls++
	u, ok := r.users[model.NormalizeID(current.Login())]
	if !ok {
		return errors.New("not found")
	}
	u.Suspended = model.Bool(true)
	return nil
}

func targetUser(id int, login string, fields ...string) *model.User {
	u := &model.User{
		ID:        model.Int(id),
		Username:  model.String(login),
		Auth:      model.String("ldap"),
		Suspended: model.Bool(false),
	}
	for i := 0; i+1 < len(fields); i += 2 {
		if custom, ok := strings.CutPrefix(fields[i], model.CustomFieldPrefix); ok {
			u.SetCustomField(custom, fields[i+1])
			continue
		}
		f, _ := model.LookupField(fields[i])
		f.Set(u, fields[i+1])
	}
	return u
}
