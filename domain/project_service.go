package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// ProjectStorage defines the persistence primitives used for projects.
type ProjectStorage interface {
	ListProjects(ctx context.Context, owner UserID) ([]Project, error)
	// GetProject returns nil when the project does not exist.
	GetProject(ctx context.Context, id string) (*Project, error)
	InsertProject(ctx context.Context, p Project) error
	UpdateProject(ctx context.Context, upd ProjectUpdate) (Project, error)
	DeleteProject(ctx context.Context, p Project) error
}

// ProjectService implements the project queries and mutations for the caller in ctx.
type ProjectService struct {
	st     ProjectStorage
	events Publisher
}

func NewProjectService(st ProjectStorage, events Publisher) ProjectService {
	return ProjectService{st: st, events: events}
}

// List returns the projects created by the caller.
func (s ProjectService) List(ctx context.Context) ([]Project, error) {
	id, err := RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := s.st.ListProjects(ctx, id.ID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// Create stores a new project owned by the caller.
func (s ProjectService) Create(ctx context.Context, in ProjectInput) (Project, error) {
	id, err := RequireIdentity(ctx)
	if err != nil {
		return Project{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Project{}, newError(ErrInvalidInput, "El nombre del proyecto es obligatorio")
	}
	p := Project{ID: uuid.NewString(), Name: name, CreatorID: id.ID}
	if err := s.st.InsertProject(ctx, p); err != nil {
		return Project{}, fmt.Errorf("insert project: %w", err)
	}
	publish(ctx, s.events, id.ID, "project", ProjectCreated, p.ID, projectEventData{Name: p.Name})
	return p, nil
}

// Update applies in to a project owned by the caller and returns the stored result.
func (s ProjectService) Update(ctx context.Context, projectID string, in ProjectInput) (Project, error) {
	p, err := s.owned(ctx, projectID, "editar")
	if err != nil {
		return Project{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Project{}, newError(ErrInvalidInput, "El nombre del proyecto es obligatorio")
	}
	updated, err := s.st.UpdateProject(ctx, ProjectUpdate{ID: p.ID, CreatorID: p.CreatorID, Name: &name})
	if err != nil {
		return Project{}, storageError(err, "Proyecto no encontrado", "update project")
	}
	publish(ctx, s.events, p.CreatorID, "project", ProjectUpdated, p.ID, projectEventData{Name: updated.Name})
	return updated, nil
}

// Delete removes a project owned by the caller. Its tasks are left in place.
func (s ProjectService) Delete(ctx context.Context, projectID string) (string, error) {
	p, err := s.owned(ctx, projectID, "eliminar")
	if err != nil {
		return "", err
	}
	if err := s.st.DeleteProject(ctx, *p); err != nil {
		return "", storageError(err, "Proyecto no encontrado", "delete project")
	}
	log.WithFields(log.Fields{"project": p.ID, "user": p.CreatorID.String()}).Debug("project deleted")
	publish(ctx, s.events, p.CreatorID, "project", ProjectDeleted, p.ID, projectEventData{})
	return "El proyecto se ha eliminado correctamente", nil
}

// owned loads a project and checks that the caller created it. verb completes
// the forbidden message.
func (s ProjectService) owned(ctx context.Context, projectID, verb string) (*Project, error) {
	id, err := RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	return ownedProject(ctx, s.st, id, projectID, verb)
}

func ownedProject(ctx context.Context, st ProjectStorage, id Identity, projectID, verb string) (*Project, error) {
	p, err := st.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if p == nil {
		return nil, newError(ErrNotFound, "Proyecto no encontrado")
	}
	if !p.CreatorID.Equal(id.ID) {
		return nil, newError(ErrForbidden, "No tienes las credenciales para "+verb)
	}
	return p, nil
}

// storageError maps a storage ErrNotFound raised between lookup and write
// (the entity was removed concurrently) to a caller-facing error.
func storageError(err error, notFound, op string) error {
	if errors.Is(err, ErrNotFound) {
		return newError(ErrNotFound, notFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
