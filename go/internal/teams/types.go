package teams

// CreateTeamRequest represents a request to create a new team
type CreateTeamRequest struct {
	Login        string `json:"login"`
	PasswordHash string `json:"-"`
	PasswordSalt string `json:"-"`
}
