package validation

// Registration is a validated registration payload.
type Registration struct {
	Name     string
	Email    string
	Username string
	Password string
}

// Login is a validated login payload.
type Login struct {
	LoginID  string
	Password string
}

// Username and password length bounds, inclusive.
const (
	MinCredentialLength = 3
	MaxCredentialLength = 20
)

// MsgPasswordLength is reported for a password outside the length bounds.
const MsgPasswordLength = "Password length should be 3-20"

// ValidateRegistration checks a registration payload.
func ValidateRegistration(p Payload) (Registration, error) {
	err := firstViolation([]rule{
		{func() bool { return allPresent(p, "name", "username", "email", "password") }, "Missing credentials"},
		{func() bool { return isString(p["name"]) }, "Name is not a string"},
		{func() bool { return isString(p["username"]) }, "Username is not a string"},
		{func() bool { return isString(p["email"]) }, "Email is not a string"},
		{func() bool { return isString(p["password"]) }, "Password is not a string"},
		{func() bool { return lengthBetween(p["username"], MinCredentialLength, MaxCredentialLength) }, "Username length should be 3-20"},
		{func() bool { return lengthBetween(p["password"], MinCredentialLength, MaxCredentialLength) }, MsgPasswordLength},
		{func() bool { return IsEmail(str(p["email"])) }, "Email format is incorrect"},
	})
	if err != nil {
		return Registration{}, err
	}
	return Registration{
		Name:     str(p["name"]),
		Email:    str(p["email"]),
		Username: str(p["username"]),
		Password: str(p["password"]),
	}, nil
}

// ValidateLogin checks a login payload.
func ValidateLogin(p Payload) (Login, error) {
	err := firstViolation([]rule{
		{func() bool { return allPresent(p, "loginId", "password") }, "Missing credentials"},
		{func() bool { return isString(p["loginId"]) }, "Username or Email is not a string"},
		{func() bool { return isString(p["password"]) }, "Password is not a string"},
	})
	if err != nil {
		return Login{}, err
	}
	return Login{LoginID: str(p["loginId"]), Password: str(p["password"])}, nil
}
