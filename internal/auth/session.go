package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"contributi/internal/core"
)

// DefaultCookieName is the cookie holding the signed session.
const DefaultCookieName = "contributi_session"

// Identity is the admin carried by a session.
type Identity struct {
	AdminID  int64
	Username string
}

type sessionClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// SessionConfig configures a SessionManager.
type SessionConfig struct {
	Secret     []byte
	TTL        time.Duration // zero means the session never expires
	CookieName string
	Secure     bool
}

// SessionManager stores the authenticated admin in an HS256 signed cookie.
type SessionManager struct {
	secret     []byte
	ttl        time.Duration
	cookieName string
	secure     bool
	now        func() time.Time
}

func NewSessionManager(cfg SessionConfig) (*SessionManager, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("session secret cannot be empty")
	}
	name := cfg.CookieName
	if name == "" {
		name = DefaultCookieName
	}
	return &SessionManager{
		secret:     cfg.Secret,
		ttl:        cfg.TTL,
		cookieName: name,
		secure:     cfg.Secure,
		now:        time.Now,
	}, nil
}

// RandomSecret returns 32 random bytes for use when no secret is configured.
// Sessions signed with it do not survive a restart.
func RandomSecret() ([]byte, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate session secret: %w", err)
	}
	return b, nil
}

// Login marks the client as authenticated for admin.
func (m *SessionManager) Login(w http.ResponseWriter, admin core.Admin) error {
	now := m.now()
	claims := sessionClaims{
		Username: admin.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  strconv.FormatInt(admin.ID, 10),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if m.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.ttl))
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}

	cookie := &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if m.ttl > 0 {
		cookie.Expires = now.Add(m.ttl)
	}
	http.SetCookie(w, cookie)
	return nil
}

// Logout clears the session cookie unconditionally.
func (m *SessionManager) Logout(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Current returns the identity stored in the request cookie, if any is valid.
func (m *SessionManager) Current(r *http.Request) (Identity, bool) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return Identity{}, false
	}
	id, err := m.parse(cookie.Value)
	if err != nil {
		return Identity{}, false
	}
	return id, true
}

func (m *SessionManager) parse(token string) (Identity, error) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Identity{}, err
	}

	adminID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || adminID <= 0 {
		return Identity{}, errors.New("invalid session subject")
	}
	return Identity{AdminID: adminID, Username: claims.Username}, nil
}

type contextKey string

const identityKey contextKey = "admin_identity"

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the identity put in ctx by RequireAdmin.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
