package graph

import (
	"context"
	"errors"
	"sort"

	"uptask-api/domain"
)

// memStore is an in-memory implementation of the three domain storages.
type memStore struct {
	users    map[string]domain.User
	projects map[string]domain.Project
	tasks    map[string]domain.Task
	err      error
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]domain.User{},
		projects: map[string]domain.Project{},
		tasks:    map[string]domain.Task{},
	}
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[email]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *memStore) InsertUser(_ context.Context, u domain.User) error {
	if _, ok := m.users[u.Email]; ok {
		return domain.ErrDuplicateEntity
	}
	m.users[u.Email] = u
	return nil
}

func (m *memStore) ListProjects(_ context.Context, owner domain.UserID) ([]domain.Project, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := []domain.Project{}
	for _, p := range m.projects {
		if p.CreatorID == owner {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) GetProject(_ context.Context, id string) (*domain.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memStore) InsertProject(_ context.Context, p domain.Project) error {
	m.projects[p.ID] = p
	return nil
}

func (m *memStore) UpdateProject(_ context.Context, upd domain.ProjectUpdate) (domain.Project, error) {
	p, ok := m.projects[upd.ID]
	if !ok {
		return domain.Project{}, domain.ErrNotFound
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	m.projects[p.ID] = p
	return p, nil
}

func (m *memStore) DeleteProject(_ context.Context, p domain.Project) error {
	if _, ok := m.projects[p.ID]; !ok {
		return domain.ErrNotFound
	}
	delete(m.projects, p.ID)
	return nil
}

func (m *memStore) ListTasks(_ context.Context, owner domain.UserID, projectID string) ([]domain.Task, error) {
	out := []domain.Task{}
	for _, t := range m.tasks {
		if t.CreatorID == owner && t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) GetTask(_ context.Context, id string) (*domain.Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *memStore) InsertTask(_ context.Context, t domain.Task) error {
	m.tasks[t.ID] = t
	return nil
}

func (m *memStore) UpdateTask(_ context.Context, upd domain.TaskUpdate) (domain.Task, error) {
	t, ok := m.tasks[upd.ID]
	if !ok {
		return domain.Task{}, domain.ErrNotFound
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
	m.tasks[t.ID] = t
	return t, nil
}

func (m *memStore) DeleteTask(_ context.Context, t domain.Task) error {
	if _, ok := m.tasks[t.ID]; !ok {
		return domain.ErrNotFound
	}
	delete(m.tasks, t.ID)
	return nil
}

var errStoreDown = errors.New("store unavailable")
