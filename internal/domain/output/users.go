package output

// UserInfo is the public projection of a user.
type UserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
