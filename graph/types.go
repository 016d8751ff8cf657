package graph

import (
	"github.com/graph-gophers/graphql-go"

	"uptask-api/domain"
)

type tokenResolver struct {
	token string
}

func (t *tokenResolver) Token() string { return t.token }

type projectResolver struct {
	p domain.Project
}

func (r *projectResolver) ID() graphql.ID { return graphql.ID(r.p.ID) }

func (r *projectResolver) Nombre() string { return r.p.Name }

type taskResolver struct {
	t domain.Task
}

func (r *taskResolver) ID() graphql.ID { return graphql.ID(r.t.ID) }

func (r *taskResolver) Nombre() string { return r.t.Name }

func (r *taskResolver) Proyecto() string { return r.t.ProjectID }

func (r *taskResolver) Estado() bool { return r.t.State }

func projectResolvers(projects []domain.Project) []*projectResolver {
	out := make([]*projectResolver, len(projects))
	for i, p := range projects {
		out[i] = &projectResolver{p: p}
	}
	return out
}

func taskResolvers(tasks []domain.Task) []*taskResolver {
	out := make([]*taskResolver, len(tasks))
	for i, t := range tasks {
		out[i] = &taskResolver{t: t}
	}
	return out
}

type usuarioInput struct {
	Nombre   string
	Email    string
	Password string
}

type autenticarInput struct {
	Email    string
	Password string
}

type proyectoInput struct {
	Nombre string
}

type proyectoIDInput struct {
	Proyecto string
}

type tareaInput struct {
	Nombre   string
	Proyecto *string
}

func (in tareaInput) toDomain() domain.TaskInput {
	return domain.TaskInput{Name: in.Nombre, ProjectID: in.Proyecto}
}
