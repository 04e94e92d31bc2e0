package domain

// TokenPair is what a successful login or refresh returns: a short-lived
// access token and a longer-lived refresh token, both HS256-signed JWTs.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"` // always "bearer"
	ExpiresIn    int    `json:"expires_in"` // seconds until the access token expires
}
