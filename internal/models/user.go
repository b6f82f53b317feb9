package models

// LoginRequest is the access-gate credential payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the session token issued after a successful login.
type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}
