package token

import (
	"errors"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pizza-app/auth-service/models"
)

// Identity is the user data embedded in issued tokens
type Identity struct {
	UserID    int64
	Role      models.Role
	UserName  string
	FirstName string
	LastName  string
	Email     string
	Tenant    string
}

// IdentityFromUser builds the token identity of a stored user
func IdentityFromUser(u *models.User) Identity {
	return Identity{
		UserID:    u.ID,
		Role:      u.Role,
		UserName:  u.UserName,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Tenant:    u.TenantRef(),
	}
}

// AccessClaims is the payload of an RS256 access token
type AccessClaims struct {
	jwt.RegisteredClaims
	Role      models.Role `json:"role"`
	UserName  string      `json:"userName,omitempty"`
	FirstName string      `json:"firstName,omitempty"`
	LastName  string      `json:"lastName,omitempty"`
	Email     string      `json:"email,omitempty"`
	Tenant    string      `json:"tenant"`
}

// RefreshClaims is the payload of an HS256 refresh token. ID repeats the jti
// as a number so it survives clients that drop registered claims.
type RefreshClaims struct {
	jwt.RegisteredClaims
	Role     models.Role `json:"role"`
	UserName string      `json:"userName,omitempty"`
	ID       int64       `json:"id"`
}

// AuthContext is the verified identity attached to a request
type AuthContext struct {
	Subject   string
	UserID    int64
	Role      models.Role
	SessionID int64
	Tenant    string
	UserName  string
	Email     string
}

var errBadSubject = errors.New("subject is not a positive integer")

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadSubject
	}
	return id, nil
}

// AuthContext converts verified access claims to a request identity
func (c *AccessClaims) AuthContext() (AuthContext, error) {
	userID, err := parseID(c.Subject)
	if err != nil {
		return AuthContext{}, err
	}
	return AuthContext{
		Subject:  c.Subject,
		UserID:   userID,
		Role:     c.Role,
		Tenant:   c.Tenant,
		UserName: c.UserName,
		Email:    c.Email,
	}, nil
}

// AuthContext converts verified refresh claims to a request identity carrying the session id
func (c *RefreshClaims) AuthContext() (AuthContext, error) {
	userID, err := parseID(c.Subject)
	if err != nil {
		return AuthContext{}, err
	}
	return AuthContext{
		Subject:   c.Subject,
		UserID:    userID,
		Role:      c.Role,
		SessionID: c.ID,
		UserName:  c.UserName,
	}, nil
}
