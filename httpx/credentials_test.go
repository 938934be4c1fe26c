package httpx

import (
	"testing"
	"time"

	"github.com/go-chi/oauth"
	"golang.org/x/crypto/bcrypt"

	"github.com/mbolis/survey-kiosk/config"
)

func testVerifier(t *testing.T) *credentialsVerifier {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return CredentialsVerifier(config.Config{
		AdminUser:         "admin",
		AdminPasswordHash: string(hash),
		TokenSecret:       "secret",
	}).(*credentialsVerifier)
}

func TestValidateUser(t *testing.T) {
	cs := testVerifier(t)

	if err := cs.ValidateUser("admin", "hunter2", "", nil); err != nil {
		t.Errorf("valid credentials rejected: %v", err)
	}
	if err := cs.ValidateUser("admin", "wrong", "", nil); err == nil {
		t.Error("wrong password accepted")
	}
	if err := cs.ValidateUser("root", "hunter2", "", nil); err == nil {
		t.Error("wrong user accepted")
	}
}

func TestRefreshTokenSingleUse(t *testing.T) {
	cs := testVerifier(t)

	cs.StoreTokenID(oauth.BearerToken, "admin", "t1", "r1")

	if err := cs.ValidateTokenID(oauth.BearerToken, "admin", "t1", "r2"); err == nil {
		t.Error("unknown refresh token accepted")
	}
	if err := cs.ValidateTokenID(oauth.BearerToken, "admin", "t1", "r1"); err != nil {
		t.Errorf("stored refresh token rejected: %v", err)
	}
	if err := cs.ValidateTokenID(oauth.BearerToken, "admin", "t1", "r1"); err == nil {
		t.Error("refresh token accepted twice")
	}
}

func TestRefreshTokenExpired(t *testing.T) {
	cs := testVerifier(t)
	now := time.Now()
	cs.now = func() time.Time { return now }

	cs.StoreTokenID(oauth.BearerToken, "admin", "t1", "r1")
	now = now.Add(refreshTokenTTL + time.Minute)

	if err := cs.ValidateTokenID(oauth.BearerToken, "admin", "t1", "r1"); err == nil {
		t.Error("expired refresh token accepted")
	}
}
