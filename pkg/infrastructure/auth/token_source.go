package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	httputil "github.com/mccedddy/EczApp/pkg/infrastructure/http"
)

// DefaultTokenURL is the Firebase secure token endpoint that exchanges a
// refresh token for a new ID token.
const DefaultTokenURL = "https://securetoken.googleapis.com/v1/token"

// ErrUnauthenticated means no principal is signed in, or the session can no longer be refreshed.
var ErrUnauthenticated = errors.New("unauthenticated")

// Secure token error codes that mean the session is gone for good.
var sessionEndedCodes = []string{"TOKEN_EXPIRED", "USER_DISABLED", "USER_NOT_FOUND", "INVALID_REFRESH_TOKEN"}

// Credential is the principal plus a bearer token for one remote call.
type Credential struct {
	PrincipalID string
	BearerToken string
}

// CredentialProvider supplies the signed-in principal.
// GetCredential always returns a freshly issued token.
type CredentialProvider interface {
	PrincipalID(ctx context.Context) (string, error)
	GetCredential(ctx context.Context) (Credential, error)
}

// Session is a signed-in Firebase user as held by the client.
type Session struct {
	UserID       string
	Email        string
	RefreshToken string
}

// principal prefers the email: documents and objects are keyed by it.
func (s *Session) principal() string {
	if s.Email != "" {
		return s.Email
	}
	return s.UserID
}

// SecureTokenSource mints Firebase ID tokens for the current session.
// It is safe for concurrent use by multiple goroutines.
type SecureTokenSource struct {
	apiKey   string
	tokenURL string
	client   *http.Client

	mu      sync.Mutex
	session *Session
}

func NewSecureTokenSource(apiKey string, client *http.Client) *SecureTokenSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &SecureTokenSource{
		apiKey:   apiKey,
		tokenURL: DefaultTokenURL,
		client:   client,
	}
}

// WithTokenURL points the source at a different endpoint (emulator or test server).
func (s *SecureTokenSource) WithTokenURL(u string) *SecureTokenSource {
	s.tokenURL = u
	return s
}

func (s *SecureTokenSource) SignIn(session Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = &session
}

func (s *SecureTokenSource) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
}

// PrincipalID returns the signed-in principal without contacting the network.
func (s *SecureTokenSource) PrincipalID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil || s.session.principal() == "" {
		return "", ErrUnauthenticated
	}
	return s.session.principal(), nil
}

// GetCredential force-refreshes the ID token. Nothing is cached between calls.
func (s *SecureTokenSource) GetCredential(ctx context.Context) (Credential, error) {
	tok, principal, err := s.refresh(ctx)
	if err != nil {
		return Credential{}, err
	}
	return Credential{PrincipalID: principal, BearerToken: tok.AccessToken}, nil
}

// ForceRefresh exchanges the refresh token for a new ID token.
func (s *SecureTokenSource) ForceRefresh(ctx context.Context) (*oauth2.Token, error) {
	tok, _, err := s.refresh(ctx)
	return tok, err
}

func (s *SecureTokenSource) refresh(ctx context.Context) (*oauth2.Token, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil || s.session.RefreshToken == "" {
		return nil, "", ErrUnauthenticated
	}

	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", s.session.RefreshToken)

	endpoint := s.tokenURL + "?key=" + url.QueryEscape(s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.ParseErrorResponse(resp); err != nil {
		var httpErr *httputil.HTTPError
		if errors.As(err, &httpErr) && sessionEnded(httpErr) {
			s.session = nil
			return nil, "", fmt.Errorf("%w: %s", ErrUnauthenticated, httpErr.Body)
		}
		return nil, "", fmt.Errorf("refresh failed: %w", err)
	}

	// expires_in arrives as a decimal string
	var result struct {
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    string `json:"expires_in"`
		TokenType    string `json:"token_type"`
		UserID       string `json:"user_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, "", fmt.Errorf("failed to decode refresh response: %w", err)
	}
	if result.IDToken == "" {
		return nil, "", errors.New("refresh response carried no id_token")
	}

	// Preserve the original refresh token if the endpoint didn't rotate it
	if result.RefreshToken != "" {
		s.session.RefreshToken = result.RefreshToken
	}
	if s.session.UserID == "" {
		s.session.UserID = result.UserID
	}

	expiry := time.Time{}
	if secs, err := strconv.Atoi(result.ExpiresIn); err == nil && secs > 0 {
		expiry = time.Now().Add(time.Duration(secs) * time.Second)
	}

	return &oauth2.Token{
		AccessToken:  result.IDToken,
		TokenType:    "Bearer",
		RefreshToken: s.session.RefreshToken,
		Expiry:       expiry,
	}, s.session.principal(), nil
}

func sessionEnded(e *httputil.HTTPError) bool {
	if e.StatusCode != http.StatusBadRequest && e.StatusCode != http.StatusUnauthorized && e.StatusCode != http.StatusForbidden {
		return false
	}
	for _, code := range sessionEndedCodes {
		if strings.Contains(e.Body, code) {
			return true
		}
	}
	return false
}
