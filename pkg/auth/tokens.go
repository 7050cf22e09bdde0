package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"stockwatch/models"
	"stockwatch/pkg/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind distinguishes access tokens from refresh tokens.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Identity is the authenticated principal carried by a token.
type Identity struct {
	UserID   uint
	Username string
}

// Claims is the JWT payload of both token kinds.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Kind     Kind   `json:"token_type"`
}

// RevocationStore persists refresh-token records. Access tokens are never recorded.
type RevocationStore interface {
	RecordRefreshToken(ctx context.Context, rt *models.RefreshToken) error
	// RevokeRefreshToken marks the jti revoked, creating the record if it is missing.
	RevokeRefreshToken(ctx context.Context, tokenID string, userID uint, expiresAt time.Time) error
	IsRefreshTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// TokenConfig configures a TokenService.
type TokenConfig struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Pair is the result of a login.
type Pair struct {
	Access           string
	AccessExpiresAt  time.Time
	Refresh          string
	RefreshExpiresAt time.Time
}

// TokenService issues, verifies, rotates and revokes HS256 session tokens.
type TokenService struct {
	secret      []byte
	issuer      string
	accessTTL   time.Duration
	refreshTTL  time.Duration
	revocations RevocationStore
	now         func() time.Time
}

func NewTokenService(cfg TokenConfig, revocations RevocationStore) *TokenService {
	return &TokenService{
		secret:      cfg.Secret,
		issuer:      cfg.Issuer,
		accessTTL:   cfg.AccessTTL,
		refreshTTL:  cfg.RefreshTTL,
		revocations: revocations,
		now:         time.Now,
	}
}

// Issue mints an access/refresh pair for id and records the refresh token for later revocation.
func (s *TokenService) Issue(ctx context.Context, id Identity) (Pair, error) {
	access, accessClaims, err := s.sign(id, KindAccess)
	if err != nil {
		return Pair{}, err
	}
	refresh, refreshClaims, err := s.sign(id, KindRefresh)
	if err != nil {
		return Pair{}, err
	}
	rec := &models.RefreshToken{
		UserID:    id.UserID,
		TokenID:   refreshClaims.ID,
		ExpiresAt: refreshClaims.ExpiresAt.Time,
	}
	if err := s.revocations.RecordRefreshToken(ctx, rec); err != nil {
		return Pair{}, err
	}
	return Pair{
		Access:           access,
		AccessExpiresAt:  accessClaims.ExpiresAt.Time,
		Refresh:          refresh,
		RefreshExpiresAt: refreshClaims.ExpiresAt.Time,
	}, nil
}

// Verify checks signature, issuer, expiry and kind; refresh tokens must also not be revoked.
func (s *TokenService) Verify(ctx context.Context, token string, kind Kind) (Identity, error) {
	claims, err := s.verify(ctx, token, kind)
	if err != nil {
		return Identity{}, err
	}
	return identityFromClaims(claims)
}

// Rotate exchanges a valid refresh token for a new access token bound to the same identity.
func (s *TokenService) Rotate(ctx context.Context, refresh string) (string, time.Time, error) {
	claims, err := s.verify(ctx, refresh, KindRefresh)
	if err != nil {
		return "", time.Time{}, err
	}
	id, err := identityFromClaims(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	access, accessClaims, err := s.sign(id, KindAccess)
	if err != nil {
		return "", time.Time{}, err
	}
	return access, accessClaims.ExpiresAt.Time, nil
}

// Revoke marks the refresh token revoked. Revoking an already revoked token is not an error.
// Access tokens issued before the revocation stay valid until they expire.
func (s *TokenService) Revoke(ctx context.Context, refresh string) error {
	claims, err := s.parse(refresh)
	if err != nil {
		return err
	}
	if claims.Kind != KindRefresh {
		return apperr.Unauthenticated("token has wrong type")
	}
	id, err := identityFromClaims(claims)
	if err != nil {
		return err
	}
	return s.revocations.RevokeRefreshToken(ctx, claims.ID, id.UserID, claims.ExpiresAt.Time)
}

func (s *TokenService) verify(ctx context.Context, token string, kind Kind) (*Claims, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}
	if claims.Kind != kind {
		return nil, apperr.Unauthenticated("token has wrong type")
	}
	if kind == KindRefresh {
		revoked, err := s.revocations.IsRefreshTokenRevoked(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, apperr.Unauthenticated("token is blacklisted")
		}
	}
	return claims, nil
}

func (s *TokenService) sign(id Identity, kind Kind) (string, *Claims, error) {
	ttl := s.accessTTL
	if kind == KindRefresh {
		ttl = s.refreshTTL
	}
	now := s.now().UTC()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(id.UserID), 10),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Username: id.Username,
		Kind:     kind,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

func (s *TokenService) parse(token string) (*Claims, error) {
	if token == "" {
		return nil, apperr.Unauthenticated("token missing")
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, s.key,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Unauthenticated("token expired")
		}
		return nil, apperr.Unauthenticated("token is invalid")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.ID == "" {
		return nil, apperr.Unauthenticated("token is invalid")
	}
	return claims, nil
}

func (s *TokenService) key(*jwt.Token) (interface{}, error) {
	return s.secret, nil
}

func identityFromClaims(c *Claims) (Identity, error) {
	uid, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || uid == 0 {
		return Identity{}, apperr.Unauthenticated("token subject is invalid")
	}
	return Identity{UserID: uint(uid), Username: c.Username}, nil
}
