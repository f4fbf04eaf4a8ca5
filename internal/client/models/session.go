package models

// Session is the client's authentication state.
//
// Authenticated is true iff both tokens are set and User is non-nil; the
// session store is the only writer and keeps that invariant.
type Session struct {
	AccessToken   string
	RefreshToken  string
	User          *User
	Authenticated bool
}

// Valid reports whether the invariant between Authenticated and the other
// fields holds.
func (s Session) Valid() bool {
	complete := s.AccessToken != "" && s.RefreshToken != "" && s.User != nil
	return s.Authenticated == complete
}

// TokenPair is the credential pair issued by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
}

// TokenResponse is returned by login, register and federated login.
type TokenResponse struct {
	TokenPair
	User User `json:"user"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type RegisterRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
}

type GoogleLoginRequest struct {
	Credential string `json:"credential" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
