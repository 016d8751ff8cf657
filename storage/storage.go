package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"uptask-api/domain"
)

// tableClient is the subset of *aztables.Client the store uses.
type tableClient interface {
	AddEntity(ctx context.Context, entity []byte, options *aztables.AddEntityOptions) (aztables.AddEntityResponse, error)
	GetEntity(ctx context.Context, partitionKey, rowKey string, options *aztables.GetEntityOptions) (aztables.GetEntityResponse, error)
	UpdateEntity(ctx context.Context, entity []byte, options *aztables.UpdateEntityOptions) (aztables.UpdateEntityResponse, error)
	DeleteEntity(ctx context.Context, partitionKey, rowKey string, options *aztables.DeleteEntityOptions) (aztables.DeleteEntityResponse, error)
	NewListEntitiesPager(options *aztables.ListEntitiesOptions) *runtime.Pager[aztables.ListEntitiesResponse]
}

// Storage persists users, projects and tasks in Azure Table Storage.
type Storage struct {
	userTable    tableClient
	projectTable tableClient
	taskTable    tableClient
}

// New creates a Storage instance from the given connection string.
func New(connStr, usersTable, projectsTable, tasksTable string) (*Storage, error) {
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute,
				RetryDelay:    time.Second,
				MaxRetryDelay: 15 * time.Second,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	return &Storage{
		userTable:    svc.NewClient(usersTable),
		projectTable: svc.NewClient(projectsTable),
		taskTable:    svc.NewClient(tasksTable),
	}, nil
}

type entity struct {
	PartitionKey string `json:"PartitionKey"`
	RowKey       string `json:"RowKey"`
}

// userEntity is keyed by userKey(email) so inserts enforce uniqueness.
type userEntity struct {
	entity
	ID       string `json:"ID"`
	Name     string `json:"Name"`
	Email    string `json:"Email"`
	Password string `json:"Password"`
}

// projectEntity is partitioned by creator.
type projectEntity struct {
	entity
	Name string `json:"Name"`
}

type projectUpdateEntity struct {
	entity
	Name *string `json:"Name,omitempty"`
}

// taskEntity is partitioned by creator.
type taskEntity struct {
	entity
	Name      string `json:"Name"`
	ProjectID string `json:"ProjectID"`
	State     bool   `json:"State"`
}

type taskUpdateEntity struct {
	entity
	Name      *string `json:"Name,omitempty"`
	ProjectID *string `json:"ProjectID,omitempty"`
	State     *bool   `json:"State,omitempty"`
}

func (e userEntity) toDomain() domain.User {
	return domain.User{ID: domain.UserID(e.ID), Name: e.Name, Email: e.Email, PasswordHash: e.Password}
}

func (e projectEntity) toDomain() domain.Project {
	return domain.Project{ID: e.RowKey, Name: e.Name, CreatorID: domain.UserID(e.PartitionKey)}
}

func (e taskEntity) toDomain() domain.Task {
	return domain.Task{
		ID:        e.RowKey,
		Name:      e.Name,
		ProjectID: e.ProjectID,
		State:     e.State,
		CreatorID: domain.UserID(e.PartitionKey),
	}
}

// GetUserByEmail returns the user registered under email, or nil.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var ent userEntity
	key := userKey(email)
	found, err := getEntity(ctx, s.userTable, key, key, &ent)
	if err != nil || !found {
		return nil, err
	}
	u := ent.toDomain()
	return &u, nil
}

// InsertUser stores a new user. A taken email yields domain.ErrDuplicateEntity.
func (s *Storage) InsertUser(ctx context.Context, u domain.User) error {
	key := userKey(u.Email)
	ent := userEntity{
		entity:   entity{PartitionKey: key, RowKey: key},
		ID:       u.ID.String(),
		Name:     u.Name,
		Email:    u.Email,
		Password: u.PasswordHash,
	}
	payload, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	if _, err := s.userTable.AddEntity(ctx, payload, nil); err != nil {
		if hasStatus(err, http.StatusConflict) {
			return domain.ErrDuplicateEntity
		}
		return fmt.Errorf("add user: %w", err)
	}
	return nil
}

// ListProjects returns all projects created by owner.
func (s *Storage) ListProjects(ctx context.Context, owner domain.UserID) ([]domain.Project, error) {
	projects := []domain.Project{}
	err := listEntities(ctx, s.projectTable, "PartitionKey eq "+odataString(owner.String()), 0, func(data []byte) error {
		var ent projectEntity
		if err := json.Unmarshal(data, &ent); err != nil {
			return err
		}
		projects = append(projects, ent.toDomain())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProject looks a project up by id across all creators.
func (s *Storage) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	var found *domain.Project
	err := listEntities(ctx, s.projectTable, "RowKey eq "+odataString(id), 1, func(data []byte) error {
		var ent projectEntity
		if err := json.Unmarshal(data, &ent); err != nil {
			return err
		}
		p := ent.toDomain()
		found = &p
		return errStopListing
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// InsertProject stores a new project.
func (s *Storage) InsertProject(ctx context.Context, p domain.Project) error {
	payload, err := json.Marshal(projectEntity{
		entity: entity{PartitionKey: p.CreatorID.String(), RowKey: p.ID},
		Name:   p.Name,
	})
	if err != nil {
		return err
	}
	if _, err := s.projectTable.AddEntity(ctx, payload, nil); err != nil {
		return fmt.Errorf("add project: %w", err)
	}
	return nil
}

// UpdateProject merges upd into the stored project and returns the result.
func (s *Storage) UpdateProject(ctx context.Context, upd domain.ProjectUpdate) (domain.Project, error) {
	key := entity{PartitionKey: upd.CreatorID.String(), RowKey: upd.ID}
	if err := mergeEntity(ctx, s.projectTable, projectUpdateEntity{entity: key, Name: upd.Name}); err != nil {
		return domain.Project{}, err
	}
	var ent projectEntity
	found, err := getEntity(ctx, s.projectTable, key.PartitionKey, key.RowKey, &ent)
	if err != nil {
		return domain.Project{}, err
	}
	if !found {
		return domain.Project{}, domain.ErrNotFound
	}
	return ent.toDomain(), nil
}

// DeleteProject removes p.
func (s *Storage) DeleteProject(ctx context.Context, p domain.Project) error {
	return deleteEntity(ctx, s.projectTable, p.CreatorID.String(), p.ID)
}

// ListTasks returns the tasks created by owner in the given project.
func (s *Storage) ListTasks(ctx context.Context, owner domain.UserID, projectID string) ([]domain.Task, error) {
	filter := "PartitionKey eq " + odataString(owner.String()) + " and ProjectID eq " + odataString(projectID)
	tasks := []domain.Task{}
	err := listEntities(ctx, s.taskTable, filter, 0, func(data []byte) error {
		var ent taskEntity
		if err := json.Unmarshal(data, &ent); err != nil {
			return err
		}
		tasks = append(tasks, ent.toDomain())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask looks a task up by id across all creators.
func (s *Storage) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	var found *domain.Task
	err := listEntities(ctx, s.taskTable, "RowKey eq "+odataString(id), 1, func(data []byte) error {
		var ent taskEntity
		if err := json.Unmarshal(data, &ent); err != nil {
			return err
		}
		t := ent.toDomain()
		found = &t
		return errStopListing
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// InsertTask stores a new task.
func (s *Storage) InsertTask(ctx context.Context, t domain.Task) error {
	payload, err := json.Marshal(taskEntity{
		entity:    entity{PartitionKey: t.CreatorID.String(), RowKey: t.ID},
		Name:      t.Name,
		ProjectID: t.ProjectID,
		State:     t.State,
	})
	if err != nil {
		return err
	}
	if _, err := s.taskTable.AddEntity(ctx, payload, nil); err != nil {
		return fmt.Errorf("add task: %w", err)
	}
	return nil
}

// UpdateTask merges upd into the stored task and returns the result.
func (s *Storage) UpdateTask(ctx context.Context, upd domain.TaskUpdate) (domain.Task, error) {
	key := entity{PartitionKey: upd.CreatorID.String(), RowKey: upd.ID}
	err := mergeEntity(ctx, s.taskTable, taskUpdateEntity{
		entity:    key,
		Name:      upd.Name,
		ProjectID: upd.ProjectID,
		State:     upd.State,
	})
	if err != nil {
		return domain.Task{}, err
	}
	var ent taskEntity
	found, err := getEntity(ctx, s.taskTable, key.PartitionKey, key.RowKey, &ent)
	if err != nil {
		return domain.Task{}, err
	}
	if !found {
		return domain.Task{}, domain.ErrNotFound
	}
	return ent.toDomain(), nil
}

// DeleteTask removes t.
func (s *Storage) DeleteTask(ctx context.Context, t domain.Task) error {
	return deleteEntity(ctx, s.taskTable, t.CreatorID.String(), t.ID)
}

var errStopListing = errors.New("stop listing")

// listEntities feeds every entity matching filter to fn until fn returns
// errStopListing. top limits the page size when positive.
func listEntities(ctx context.Context, table tableClient, filter string, top int32, fn func([]byte) error) error {
	opts := &aztables.ListEntitiesOptions{Filter: &filter}
	if top > 0 {
		opts.Top = &top
	}
	pager := table.NewListEntitiesPager(opts)
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("list entities: %w", err)
		}
		for _, e := range resp.Entities {
			if err := fn(e); err != nil {
				if errors.Is(err, errStopListing) {
					return nil
				}
				return err
			}
		}
	}
	return nil
}

func getEntity(ctx context.Context, table tableClient, pk, rk string, out any) (bool, error) {
	resp, err := table.GetEntity(ctx, pk, rk, nil)
	if err != nil {
		if hasStatus(err, http.StatusNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get entity: %w", err)
	}
	if err := json.Unmarshal(resp.Value, out); err != nil {
		return false, err
	}
	return true, nil
}

// mergeEntity applies a merge update without an etag check: last write wins.
func mergeEntity(ctx context.Context, table tableClient, ent any) error {
	payload, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	et := azcore.ETagAny
	_, err = table.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &et, UpdateMode: aztables.UpdateModeMerge})
	if err != nil {
		if hasStatus(err, http.StatusNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update entity: %w", err)
	}
	return nil
}

func deleteEntity(ctx context.Context, table tableClient, pk, rk string) error {
	if _, err := table.DeleteEntity(ctx, pk, rk, nil); err != nil {
		if hasStatus(err, http.StatusNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete entity: %w", err)
	}
	return nil
}

func hasStatus(err error, status int) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == status
}

// userKey maps a normalized email to a table key. Emails may contain
// characters that are not allowed in PartitionKey or RowKey ('/', '#', '?').
func userKey(email string) string {
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:])
}

// odataString quotes s as an OData string literal.
func odataString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
