package domain

// TokenPair is returned once per successful login or refresh. It is never stored server-side.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
