package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/akademi-sis/akademi/internal/authz"
)

// TokenConfig defines how session tokens are issued and verified. It is
// passed explicitly at construction; nothing here reads ambient state.
type TokenConfig struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	Now    func() time.Time
}

// Tokens issues and verifies self-contained signed session tokens. The
// token embeds the principal, so verification needs no store lookup. No
// other component may parse raw token contents.
type Tokens struct {
	cfg TokenConfig
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Role      authz.Role `json:"role"`
	TeacherID int64      `json:"teacher_id,omitempty"`
	StudentID int64      `json:"student_id,omitempty"`
}

// NewTokens constructs a Tokens instance.
func NewTokens(cfg TokenConfig) *Tokens {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Tokens{cfg: cfg}
}

// Issue signs a token embedding the user's identity, role, issue and
// expiry timestamps.
func (t *Tokens) Issue(u *User) (string, error) {
	if len(t.cfg.Secret) == 0 {
		return "", errors.New("auth: token secret not configured")
	}
	now := t.cfg.Now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.cfg.Issuer,
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.cfg.TTL)),
		},
		Role:      u.Role,
		TeacherID: u.TeacherID,
		StudentID: u.StudentID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.cfg.Secret)
}

// Authenticate verifies signature and expiry and returns the embedded
// principal. Expiry is reported as ErrExpiredToken even when the signature
// is valid; every other failure collapses to ErrInvalidToken.
func (t *Tokens) Authenticate(raw string) (authz.Principal, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		return t.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(t.cfg.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return authz.Principal{}, ErrExpiredToken
		}
		return authz.Principal{}, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 || !claims.Role.Valid() {
		return authz.Principal{}, ErrInvalidToken
	}
	return authz.Principal{
		UserID:    userID,
		Role:      claims.Role,
		TeacherID: claims.TeacherID,
		StudentID: claims.StudentID,
	}, nil
}
