package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// TaskStorage defines the persistence primitives used for tasks.
type TaskStorage interface {
	ListTasks(ctx context.Context, owner UserID, projectID string) ([]Task, error)
	// GetTask returns nil when the task does not exist.
	GetTask(ctx context.Context, id string) (*Task, error)
	InsertTask(ctx context.Context, t Task) error
	UpdateTask(ctx context.Context, upd TaskUpdate) (Task, error)
	DeleteTask(ctx context.Context, t Task) error
}

// TaskService implements the task queries and mutations for the caller in ctx.
type TaskService struct {
	st       TaskStorage
	projects ProjectStorage
	events   Publisher
}

func NewTaskService(st TaskStorage, projects ProjectStorage, events Publisher) TaskService {
	return TaskService{st: st, projects: projects, events: events}
}

// List returns the caller's tasks in the given project.
func (s TaskService) List(ctx context.Context, projectID string) ([]Task, error) {
	id, err := RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := s.st.ListTasks(ctx, id.ID, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// Create stores a new, not yet completed task in one of the caller's projects.
func (s TaskService) Create(ctx context.Context, in TaskInput) (Task, error) {
	id, err := RequireIdentity(ctx)
	if err != nil {
		return Task{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Task{}, newError(ErrInvalidInput, "El nombre de la tarea es obligatorio")
	}
	if in.ProjectID == nil || strings.TrimSpace(*in.ProjectID) == "" {
		return Task{}, newError(ErrInvalidInput, "El proyecto es obligatorio")
	}
	p, err := ownedProject(ctx, s.projects, id, strings.TrimSpace(*in.ProjectID), "agregar tareas")
	if err != nil {
		return Task{}, err
	}

	t := Task{ID: uuid.NewString(), Name: name, ProjectID: p.ID, CreatorID: id.ID}
	if err := s.st.InsertTask(ctx, t); err != nil {
		return Task{}, fmt.Errorf("insert task: %w", err)
	}
	publish(ctx, s.events, id.ID, "task", TaskCreated, t.ID, taskEventData{Name: t.Name, ProjectID: t.ProjectID})
	return t, nil
}

// Update applies in to a task owned by the caller. A non-nil state replaces
// the task state.
func (s TaskService) Update(ctx context.Context, taskID string, in TaskInput, state *bool) (Task, error) {
	id, err := RequireIdentity(ctx)
	if err != nil {
		return Task{}, err
	}
	t, err := s.owned(ctx, id, taskID, "editar")
	if err != nil {
		return Task{}, err
	}

	upd := TaskUpdate{ID: t.ID, CreatorID: t.CreatorID, State: state}
	if name := strings.TrimSpace(in.Name); name != "" {
		upd.Name = &name
	}
	if in.ProjectID != nil {
		pid := strings.TrimSpace(*in.ProjectID)
		if pid != "" && pid != t.ProjectID {
			if _, err := ownedProject(ctx, s.projects, id, pid, "editar"); err != nil {
				return Task{}, err
			}
			upd.ProjectID = &pid
		}
	}
	if upd.Name == nil && upd.ProjectID == nil && upd.State == nil {
		return *t, nil
	}

	updated, err := s.st.UpdateTask(ctx, upd)
	if err != nil {
		return Task{}, storageError(err, "Tarea no encontrada", "update task")
	}
	publish(ctx, s.events, t.CreatorID, "task", TaskUpdated, t.ID, taskEventData{Name: updated.Name, ProjectID: updated.ProjectID, State: updated.State})
	return updated, nil
}

// Delete removes a task owned by the caller.
func (s TaskService) Delete(ctx context.Context, taskID string) (string, error) {
	id, err := RequireIdentity(ctx)
	if err != nil {
		return "", err
	}
	t, err := s.owned(ctx, id, taskID, "eliminar")
	if err != nil {
		return "", err
	}
	if err := s.st.DeleteTask(ctx, *t); err != nil {
		return "", storageError(err, "Tarea no encontrada", "delete task")
	}
	publish(ctx, s.events, t.CreatorID, "task", TaskDeleted, t.ID, taskEventData{ProjectID: t.ProjectID, State: t.State})
	return "Tarea eliminada correctamente", nil
}

func (s TaskService) owned(ctx context.Context, id Identity, taskID, verb string) (*Task, error) {
	t, err := s.st.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if t == nil {
		return nil, newError(ErrNotFound, "Tarea no encontrada")
	}
	if !t.CreatorID.Equal(id.ID) {
		return nil, newError(ErrForbidden, "No tienes las credenciales para "+verb)
	}
	return t, nil
}
