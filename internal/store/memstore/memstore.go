// Package memstore is an in-memory core.Store used by the service and
// HTTP handler tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/qartha/idfportal/internal/core"
)

// Store keeps every record in maps guarded by one mutex. MutateIDF holds
// the mutex while fn runs, so edits are serialized like a row lock.
type Store struct {
	mu      sync.Mutex
	nextID  int64
	idfs    map[core.IDFKey]*core.IDF
	devices map[core.IDFKey][]core.Device
	users   map[int64]*core.User
}

var _ core.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		idfs:    make(map[core.IDFKey]*core.IDF),
		devices: make(map[core.IDFKey][]core.Device),
		users:   make(map[int64]*core.User),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) ListIDFs(_ context.Context, cluster, project string, opts core.ListOptions) ([]core.IDF, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(opts.Query)
	var out []core.IDF
	for k, idf := range s.idfs {
		if k.Cluster != cluster || k.Project != project {
			continue
		}
		if q != "" && !matches(idf, q) {
			continue
		}
		out = append(out, *cloneIDF(idf))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].Code < out[j].Code
	})

	if opts.Skip >= len(out) {
		return []core.IDF{}, nil
	}
	out = out[opts.Skip:]
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func matches(idf *core.IDF, q string) bool {
	for _, f := range []string{idf.Code, idf.Title, idf.Site, idf.Room} {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func (s *Store) GetIDF(_ context.Context, key core.IDFKey) (*core.IDF, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idf, ok := s.idfs[key]
	if !ok {
		return nil, core.ErrIDFNotFound
	}
	return cloneIDF(idf), nil
}

func (s *Store) CreateIDF(_ context.Context, idf *core.IDF) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := idf.Key()
	if _, ok := s.idfs[key]; ok {
		return core.ErrIDFExists
	}
	idf.ID = s.id()
	s.idfs[key] = cloneIDF(idf)
	return nil
}

func (s *Store) UpdateIDF(_ context.Context, idf *core.IDF) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := idf.Key()
	cur, ok := s.idfs[key]
	if !ok {
		return core.ErrIDFNotFound
	}
	next := cloneIDF(idf)
	next.ID = cur.ID
	s.idfs[key] = next
	return nil
}

func (s *Store) DeleteIDF(_ context.Context, key core.IDFKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.idfs[key]; !ok {
		return core.ErrIDFNotFound
	}
	delete(s.idfs, key)
	delete(s.devices, key)
	return nil
}

func (s *Store) MutateIDF(_ context.Context, key core.IDFKey, fn func(*core.IDF) error) (*core.IDF, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.idfs[key]
	if !ok {
		return nil, core.ErrIDFNotFound
	}
	work := cloneIDF(cur)
	if err := fn(work); err != nil {
		return nil, err
	}
	if work.Key() != key {
		return nil, fmt.Errorf("memstore: mutation changed key %s", key)
	}
	work.ID = cur.ID
	s.idfs[key] = work
	return cloneIDF(work), nil
}

func (s *Store) ReplaceDevices(_ context.Context, key core.IDFKey, devices []core.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.idfs[key]; !ok {
		return core.ErrIDFNotFound
	}
	stored := make([]core.Device, len(devices))
	for i, d := range devices {
		d.ID = s.id()
		d.Cluster, d.Project, d.IDFCode = key.Cluster, key.Project, key.Code
		d.CreatedAt = time.Now().UTC()
		stored[i] = d
	}
	s.devices[key] = stored
	return nil
}

func (s *Store) InsertDevices(_ context.Context, devices []core.Device) ([]core.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range devices {
		key := core.IDFKey{Cluster: d.Cluster, Project: d.Project, Code: d.IDFCode}
		if _, ok := s.idfs[key]; !ok {
			return nil, core.ErrIDFNotFound
		}
	}
	out := make([]core.Device, len(devices))
	for i, d := range devices {
		d.ID = s.id()
		d.CreatedAt = time.Now().UTC()
		key := core.IDFKey{Cluster: d.Cluster, Project: d.Project, Code: d.IDFCode}
		s.devices[key] = append(s.devices[key], d)
		out[i] = d
	}
	return out, nil
}

func (s *Store) ListDevices(_ context.Context, key core.IDFKey) ([]core.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Device, len(s.devices[key]))
	copy(out, s.devices[key])
	return out, nil
}

func (s *Store) CreateUser(_ context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return core.ErrUserExists
		}
	}
	u.ID = s.id()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, core.ErrUserNotFound
}

func (s *Store) UserByID(_ context.Context, id int64) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) RecordLogin(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return core.ErrUserNotFound
	}
	u.LastLoginAt = &at
	return nil
}

// SetUserActive flips an account's active flag.
func (s *Store) SetUserActive(id int64, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.Active = active
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func cloneIDF(in *core.IDF) *core.IDF {
	out := *in
	out.Images = cloneMedia(in.Images)
	out.Documents = cloneMedia(in.Documents)
	out.Diagrams = cloneMedia(in.Diagrams)
	out.DFO = cloneMedia(in.DFO)
	out.Location = cloneMedia(in.Location)
	if in.Logo != nil {
		logo := *in.Logo
		out.Logo = &logo
	}
	if in.Table != nil {
		t := in.Table.Clone()
		out.Table = &t
	}
	out.Health = nil
	return &out
}

func cloneMedia(in core.MediaList) core.MediaList {
	if in == nil {
		return nil
	}
	out := make(core.MediaList, len(in))
	copy(out, in)
	return out
}
