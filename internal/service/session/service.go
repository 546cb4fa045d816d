package session

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/rakutentech/jwk-go/jwk"
	"golang.org/x/crypto/bcrypt"

	"github.com/DemioMAD/demiochatplus/internal/model"
)

const tokenLifetime = 7 * 24 * time.Hour

type UserStore interface {
	Create(user *model.User) error
	Fetch(userID model.UserID) (*model.User, error)
	FetchByEmail(email string) (*model.User, error)
	EmailExists(email string) (bool, error)
	TouchLogin(userID model.UserID) error
	Deactivate(userID model.UserID) error
}

type service struct {
	users      UserStore
	signingKey *ecdsa.PrivateKey
	keyID      string

	mu      sync.Mutex
	revoked map[string]struct{}
}

// New generates a fresh ES256 signing key; sessions do not survive a
// restart.
func New(users UserStore) (*service, error) {
	signingKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating signing key: %w", err)
	}

	return &service{
		users:      users,
		signingKey: signingKey,
		keyID:      model.CreateID(),
		revoked:    map[string]struct{}{},
	}, nil
}

func (s *service) SignUp(params *model.CreateUserParams) (string, *model.Principal, error) {
	if params.DisplayName == "" || params.Email == "" || params.Password == "" {
		return "", nil, model.ErrorInvalidEmailOrPassword
	}

	exists, err := s.users.EmailExists(params.Email)
	if err != nil {
		return "", nil, fmt.Errorf("checking email: %w", err)
	}
	if exists {
		return "", nil, model.ErrorDuplicateEmail
	}

	passwordBytes, err := bcrypt.GenerateFromPassword([]byte(params.Password), 10)
	if err != nil {
		return "", nil, fmt.Errorf("generating encoded password: %w", err)
	}

	user := &model.User{
		ID:          model.UserID(model.CreateID()),
		CreatedAt:   time.Now().UTC(),
		Status:      model.UserStatusActive,
		DisplayName: params.DisplayName,
		Email:       params.Email,
		Password:    base64.StdEncoding.EncodeToString(passwordBytes),
	}

	if err := s.users.Create(user); err != nil {
		return "", nil, fmt.Errorf("creating user: %w", err)
	}

	token, err := s.mintToken(user)
	if err != nil {
		return "", nil, err
	}

	return token, user.Principal(), nil
}

func (s *service) SignIn(email string, password string) (string, *model.Principal, error) {
	user, err := s.users.FetchByEmail(email)
	if err != nil {
		if errors.Is(err, model.ErrorUserNotFound) {
			return "", nil, model.ErrorInvalidEmailOrPassword
		}
		return "", nil, fmt.Errorf("fetching user: %w", err)
	}

	if user.Status == model.UserStatusDeactivated {
		return "", nil, model.ErrorAccountDeactivated
	}

	passwordBytes, err := base64.StdEncoding.DecodeString(user.Password)
	if err != nil {
		return "", nil, fmt.Errorf("decoding stored password: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(passwordBytes, []byte(password)); err != nil {
		return "", nil, model.ErrorInvalidEmailOrPassword
	}

	if err := s.users.TouchLogin(user.ID); err != nil {
		return "", nil, fmt.Errorf("recording login: %w", err)
	}

	token, err := s.mintToken(user)
	if err != nil {
		return "", nil, err
	}

	return token, user.Principal(), nil
}

func (s *service) SignOut(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[token] = struct{}{}
}

// Resolve validates a session token and loads its user. Deactivated
// accounts still resolve; callers inspect Principal.Deleted.
func (s *service) Resolve(token string) (*model.User, error) {
	if token == "" {
		return nil, model.ErrorInvalidEmailOrPassword
	}

	s.mu.Lock()
	_, revoked := s.revoked[token]
	s.mu.Unlock()
	if revoked {
		return nil, model.ErrorInvalidEmailOrPassword
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return &s.signingKey.PublicKey, nil
	})
	if err != nil || !parsed.Valid {
		return nil, model.ErrorInvalidEmailOrPassword
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, model.ErrorInvalidEmailOrPassword
	}
	subject, _ := claims["sub"].(string)
	if subject == "" {
		return nil, model.ErrorInvalidEmailOrPassword
	}

	user, err := s.users.Fetch(model.UserID(subject))
	if err != nil {
		return nil, fmt.Errorf("fetching user: %w", err)
	}
	return user, nil
}

func (s *service) CurrentPrincipal(token string) (*model.Principal, error) {
	user, err := s.Resolve(token)
	if err != nil {
		return nil, err
	}
	return user.Principal(), nil
}

// Deactivate soft-deletes the caller's account and revokes the session.
func (s *service) Deactivate(token string) error {
	user, err := s.Resolve(token)
	if err != nil {
		return err
	}
	if err := s.users.Deactivate(user.ID); err != nil {
		return fmt.Errorf("deactivating user: %w", err)
	}
	s.SignOut(token)
	return nil
}

// JWKS publishes the session verification key.
func (s *service) JWKS() (json.RawMessage, error) {
	ks := jwk.NewSpec(&s.signingKey.PublicKey)
	rawJWK, err := ks.ToJWK()
	if err != nil {
		return nil, fmt.Errorf("creating JWK: %w", err)
	}

	rawJWK.Use = "sig"
	rawJWK.Alg = "ES256"
	rawJWK.Kid = s.keyID

	keyData, err := rawJWK.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshalling JWK: %w", err)
	}

	sb := strings.Builder{}
	sb.WriteString(`{"keys":[`)
	sb.Write(keyData)
	sb.WriteString(`]}`)

	return json.RawMessage(sb.String()), nil
}

func (s *service) mintToken(user *model.User) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"sub": string(user.ID),
		"jti": model.CreateID(),
		"iat": now.Unix(),
		"exp": now.Add(tokenLifetime).Unix(),
	})
	token.Header["kid"] = s.keyID

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}
