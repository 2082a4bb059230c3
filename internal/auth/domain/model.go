package domain

// User is a demo identity. Its ID doubles as the billing customer id.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type LoginResult struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}
