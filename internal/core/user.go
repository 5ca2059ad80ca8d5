package core

// User is the signed-in identity as returned by the backend.
// Replaced wholesale on sign-in, cleared on sign-out.
type User struct {
	ID        string
	Login     string
	Name      string
	AvatarURL string
}

// DisplayName returns Name, falling back to Login.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Login
}
