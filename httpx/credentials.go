package httpx

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/oauth"
	"golang.org/x/crypto/bcrypt"

	"github.com/mbolis/survey-kiosk/config"
)

const refreshTokenTTL = 8760 * time.Hour

type issuedToken struct {
	credential string
	tokenID    string
	expiration time.Time
}

// credentialsVerifier checks the single admin account from the config.
// Refresh tokens live in memory: a restart logs the admin out.
type credentialsVerifier struct {
	user         string
	passwordHash []byte
	now          func() time.Time

	mu     sync.Mutex
	tokens map[string]issuedToken // by refresh token id
}

func CredentialsVerifier(cfg config.Config) oauth.CredentialsVerifier {
	return &credentialsVerifier{
		user:         cfg.AdminUser,
		passwordHash: []byte(cfg.AdminPasswordHash),
		now:          time.Now,
		tokens:       map[string]issuedToken{},
	}
}

func NewBearerServer(cfg config.Config) *oauth.BearerServer {
	return oauth.NewBearerServer(cfg.TokenSecret, cfg.TokenTTL, CredentialsVerifier(cfg), nil)
}

func (cs *credentialsVerifier) ValidateUser(username string, password string, scope string, r *http.Request) error {
	if subtle.ConstantTimeCompare([]byte(username), []byte(cs.user)) != 1 {
		return errors.New("invalid credentials")
	}
	return bcrypt.CompareHashAndPassword(cs.passwordHash, []byte(password))
}
func (cs *credentialsVerifier) StoreTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	now := cs.now()
	for id, t := range cs.tokens {
		if t.expiration.Before(now) {
			delete(cs.tokens, id)
		}
	}
	cs.tokens[refreshTokenID] = issuedToken{
		credential: credential,
		tokenID:    tokenID,
		expiration: now.Add(refreshTokenTTL),
	}
	return nil
}
func (cs *credentialsVerifier) ValidateTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	// refresh tokens are single use
	t, ok := cs.tokens[refreshTokenID]
	delete(cs.tokens, refreshTokenID)
	if !ok || t.credential != credential || t.tokenID != tokenID {
		return errors.New("could not refresh")
	}
	if t.expiration.Before(cs.now()) {
		return errors.New("could not refresh")
	}
	return nil
}
func (*credentialsVerifier) AddClaims(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	return map[string]string{"roles": "admin"}, nil
}
func (*credentialsVerifier) AddProperties(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	return map[string]string{}, nil
}
func (*credentialsVerifier) ValidateClient(clientID string, clientSecret string, scope string, r *http.Request) error {
	return errors.New("not supported")
}
