package domain

// User is a registered account.
type User struct {
	ID           UserID `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}

// Identity returns the claims a token is issued for.
func (u User) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email, Name: u.Name}
}

// Project groups tasks and is owned by its creator.
type Project struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatorID UserID `json:"creatorId"`
}

// Task is a unit of work inside a project.
type Task struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ProjectID string `json:"projectId"`
	State     bool   `json:"state"`
	CreatorID UserID `json:"creatorId"`
}

// NewUser is the registration input.
type NewUser struct {
	Name     string
	Email    string
	Password string
}

// ProjectInput carries the editable project fields.
type ProjectInput struct {
	Name string
}

// ProjectUpdate carries partial changes for a stored project.
type ProjectUpdate struct {
	ID        string
	CreatorID UserID
	Name      *string
}

// TaskInput carries the editable task fields.
type TaskInput struct {
	Name      string
	ProjectID *string
}

// TaskUpdate carries partial changes for a stored task.
type TaskUpdate struct {
	ID        string
	CreatorID UserID
	Name      *string
	ProjectID *string
	State     *bool
}
