package graph

import (
	"context"

	"github.com/graph-gophers/graphql-go"

	"uptask-api/domain"
)

func (r *Resolver) ObtenerProyectos(ctx context.Context) ([]*projectResolver, error) {
	projects, err := r.projects.List(ctx)
	if err != nil {
		return nil, toGraphQLError(ctx, "obtenerProyectos", err)
	}
	return projectResolvers(projects), nil
}

func (r *Resolver) ObtenerTareas(ctx context.Context, args struct{ Input proyectoIDInput }) ([]*taskResolver, error) {
	tasks, err := r.tasks.List(ctx, args.Input.Proyecto)
	if err != nil {
		return nil, toGraphQLError(ctx, "obtenerTareas", err)
	}
	return taskResolvers(tasks), nil
}

func (r *Resolver) CrearUsuario(ctx context.Context, args struct{ Input usuarioInput }) (string, error) {
	msg, err := r.users.Register(ctx, domain.NewUser{
		Name:     args.Input.Nombre,
		Email:    args.Input.Email,
		Password: args.Input.Password,
	})
	if err != nil {
		return "", toGraphQLError(ctx, "crearUsuario", err)
	}
	return msg, nil
}

func (r *Resolver) AutenticarUsuario(ctx context.Context, args struct{ Input autenticarInput }) (*tokenResolver, error) {
	token, err := r.users.Authenticate(ctx, args.Input.Email, args.Input.Password)
	if err != nil {
		return nil, toGraphQLError(ctx, "autenticarUsuario", err)
	}
	return &tokenResolver{token: token}, nil
}

func (r *Resolver) NuevoProyecto(ctx context.Context, args struct{ Input proyectoInput }) (*projectResolver, error) {
	p, err := r.projects.Create(ctx, domain.ProjectInput{Name: args.Input.Nombre})
	if err != nil {
		return nil, toGraphQLError(ctx, "nuevoProyecto", err)
	}
	return &projectResolver{p: p}, nil
}

func (r *Resolver) ActualizarProyecto(ctx context.Context, args struct {
	ID    graphql.ID
	Input proyectoInput
}) (*projectResolver, error) {
	p, err := r.projects.Update(ctx, string(args.ID), domain.ProjectInput{Name: args.Input.Nombre})
	if err != nil {
		return nil, toGraphQLError(ctx, "actualizarProyecto", err)
	}
	return &projectResolver{p: p}, nil
}

func (r *Resolver) EliminarProyecto(ctx context.Context, args struct{ ID graphql.ID }) (string, error) {
	msg, err := r.projects.Delete(ctx, string(args.ID))
	if err != nil {
		return "", toGraphQLError(ctx, "eliminarProyecto", err)
	}
	return msg, nil
}

func (r *Resolver) NuevaTarea(ctx context.Context, args struct{ Input tareaInput }) (*taskResolver, error) {
	t, err := r.tasks.Create(ctx, args.Input.toDomain())
	if err != nil {
		return nil, toGraphQLError(ctx, "nuevaTarea", err)
	}
	return &taskResolver{t: t}, nil
}

func (r *Resolver) ActualizarTarea(ctx context.Context, args struct {
	ID     graphql.ID
	Input  tareaInput
	Estado *bool
}) (*taskResolver, error) {
	t, err := r.tasks.Update(ctx, string(args.ID), args.Input.toDomain(), args.Estado)
	if err != nil {
		return nil, toGraphQLError(ctx, "actualizarTarea", err)
	}
	return &taskResolver{t: t}, nil
}

func (r *Resolver) EliminarTarea(ctx context.Context, args struct{ ID graphql.ID }) (string, error) {
	msg, err := r.tasks.Delete(ctx, string(args.ID))
	if err != nil {
		return "", toGraphQLError(ctx, "eliminarTarea", err)
	}
	return msg, nil
}
