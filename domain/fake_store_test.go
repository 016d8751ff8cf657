package domain

import (
	"context"
	"errors"
	"sort"
	"strings"
)

type fakeStore struct {
	users    map[string]User
	projects map[string]Project
	tasks    map[string]Task
	err      error

	updatedProjects []ProjectUpdate
	updatedTasks    []TaskUpdate
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    map[string]User{},
		projects: map[string]Project{},
		tasks:    map[string]Task{},
	}
}

func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[email]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (f *fakeStore) InsertUser(ctx context.Context, u User) error {
	if f.err != nil {
		return f.err
	}
	if _, exists := f.users[u.Email]; exists {
		return ErrDuplicateEntity
	}
	f.users[u.Email] = u
	return nil
}

func (f *fakeStore) ListProjects(ctx context.Context, owner UserID) ([]Project, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []Project{}
	for _, p := range f.projects {
		if p.CreatorID == owner {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) GetProject(ctx context.Context, id string) (*Project, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.projects[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakeStore) InsertProject(ctx context.Context, p Project) error {
	if f.err != nil {
		return f.err
	}
	f.projects[p.ID] = p
	return nil
}

func (f *fakeStore) UpdateProject(ctx context.Context, upd ProjectUpdate) (Project, error) {
	p, ok := f.projects[upd.ID]
	if !ok {
		return Project{}, ErrNotFound
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	f.projects[upd.ID] = p
	f.updatedProjects = append(f.updatedProjects, upd)
	return p, nil
}

func (f *fakeStore) DeleteProject(ctx context.Context, p Project) error {
	if _, ok := f.projects[p.ID]; !ok {
		return ErrNotFound
	}
	delete(f.projects, p.ID)
	return nil
}

func (f *fakeStore) ListTasks(ctx context.Context, owner UserID, projectID string) ([]Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []Task{}
	for _, t := range f.tasks {
		if t.CreatorID == owner && t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return strings.Compare(out[i].ID, out[j].ID) < 0 })
	return out, nil
}

func (f *fakeStore) GetTask(ctx context.Context, id string) (*Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.tasks[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (f *fakeStore) InsertTask(ctx context.Context, t Task) error {
	if f.err != nil {
		return f.err
	}
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeStore) UpdateTask(ctx context.Context, upd TaskUpdate) (Task, error) {
	t, ok := f.tasks[upd.ID]
	if !ok {
		return Task{}, ErrNotFound
	}
	if upd.Name != nil {
		t.Name = *upd.Name
	}
	if upd.ProjectID != nil {
		t.ProjectID = *upd.ProjectID
	}
	if upd.State != nil {
		t.State = *upd.State
	}
	f.tasks[upd.ID] = t
	f.updatedTasks = append(f.updatedTasks, upd)
	return t, nil
}

func (f *fakeStore) DeleteTask(ctx context.Context, t Task) error {
	if _, ok := f.tasks[t.ID]; !ok {
		return ErrNotFound
	}
	delete(f.tasks, t.ID)
	return nil
}

// plainHasher stores passwords reversed so tests stay fast.
type plainHasher struct{ err error }

func (h plainHasher) HashPassword(password string) (string, error) {
	if h.err != nil {
		return "", h.err
	}
	r := []rune(password)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return "h:" + string(r), nil
}

func (h plainHasher) VerifyPassword(password, hashed string) bool {
	want, _ := h.HashPassword(password)
	return want == hashed
}

type stubIssuer struct{ issued []Identity }

func (s *stubIssuer) IssueToken(id Identity) (string, error) {
	s.issued = append(s.issued, id)
	return "token-for-" + id.ID.String(), nil
}

type recordingPublisher struct {
	events []Event
	err    error
}

func (r *recordingPublisher) Publish(ctx context.Context, ev Event) error {
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordingPublisher) types() []string {
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

var errBoom = errors.New("boom")

func asUser(id string) context.Context {
	return WithIdentity(context.Background(), Identity{ID: UserID(id), Email: id + "@x.com", Name: id})
}
