package models

// AccessToken is the login result: a bearer credential and its type marker.
type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
