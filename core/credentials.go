package core

// Credentials identify a storage endpoint plus the account used to open a
// handle against it. The full tuple acts as the connection fingerprint: a
// change in any field invalidates a cached handle.
type Credentials struct {
	Endpoint string
	Username string
	Password string
}

// Validate rejects empty fields before any dial attempt.
func (c Credentials) Validate() error {
	switch {
	case c.Endpoint == "":
		return Errorf(KindValidation, "credentials", "", "endpoint is required")
	case c.Username == "":
		return Errorf(KindValidation, "credentials", c.Endpoint, "username is required")
	case c.Password == "":
		return Errorf(KindValidation, "credentials", c.Endpoint, "password is required")
	}
	return nil
}

// Equal reports whether two credential tuples are identical.
func (c Credentials) Equal(o Credentials) bool { return c == o }
