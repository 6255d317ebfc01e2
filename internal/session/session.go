// Package session issues and parses the signed cookie that carries a
// browser's authenticated identity between requests.
package session

import (
	"errors"
	"net/http"
	"time"

	"oneonone/agenda-service/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const CookieName = "agenda_session"

var ErrInvalidSession = errors.New("invalid session")

type Claims struct {
	jwt.RegisteredClaims
}

type Options struct {
	TTL    time.Duration
	Secure bool
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewManager(secret string, opts Options) *Manager {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		secure: opts.Secure,
		now:    time.Now,
	}
}

// Issue signs a new session for username.
func (m *Manager) Issue(username string) (string, models.Identity, error) {
	now := m.now().UTC()
	identity := models.Identity{
		Username:  username,
		SessionID: uuid.NewString(),
		ExpiresAt: now.Add(m.ttl),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Username,
			ID:        identity.SessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(identity.ExpiresAt),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", models.Identity{}, err
	}
	return signed, identity, nil
}

// Parse validates a signed session and returns its identity.
func (m *Manager) Parse(tokenString string) (models.Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return models.Identity{}, ErrInvalidSession
	}
	if claims.Subject == "" {
		return models.Identity{}, ErrInvalidSession
	}
	identity := models.Identity{Username: claims.Subject, SessionID: claims.ID}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}

// FromRequest reads and validates the session cookie.
func (m *Manager) FromRequest(r *http.Request) (models.Identity, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return models.Identity{}, ErrInvalidSession
	}
	return m.Parse(cookie.Value)
}

// Login issues a session for username and sets it as a cookie.
func (m *Manager) Login(w http.ResponseWriter, username string) (models.Identity, error) {
	token, identity, err := m.Issue(username)
	if err != nil {
		return models.Identity{}, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  identity.ExpiresAt,
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return identity, nil
}

// Logout expires the session cookie.
func (m *Manager) Logout(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
