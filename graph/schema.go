package graph

import (
	_ "embed"

	"github.com/graph-gophers/graphql-go"

	"uptask-api/domain"
)

//go:embed schema.graphql
var schemaSDL string

const maxQueryDepth = 10

// Resolver is the root resolver for queries and mutations.
type Resolver struct {
	users    domain.UserService
	projects domain.ProjectService
	tasks    domain.TaskService
}

func NewResolver(users domain.UserService, projects domain.ProjectService, tasks domain.TaskService) *Resolver {
	return &Resolver{users: users, projects: projects, tasks: tasks}
}

// NewSchema parses the embedded schema and binds it to r. It panics if the
// resolver does not match the schema.
func NewSchema(r *Resolver) *graphql.Schema {
	return graphql.MustParseSchema(schemaSDL, r,
		graphql.MaxDepth(maxQueryDepth),
		graphql.Logger(panicLogger{}),
	)
}
