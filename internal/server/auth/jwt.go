package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/placementtracker/internal/common"
	"github.com/dmitrijs2005/placementtracker/internal/server/models"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims is the JWT payload for both token kinds; TokenType tells them apart.
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"token_type"`
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	IsStaff   bool   `json:"is_staff"`
}

// TokenPair is a freshly minted access/refresh couple.
type TokenPair struct {
	Access           string
	Refresh          string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Refreshed is the result of exchanging a refresh token. Refresh is empty
// unless rotation was requested.
type Refreshed struct {
	Access           string
	Refresh          string
	RefreshExpiresAt time.Time
	Claims           *Claims
}

// TokenIssuer mints and validates HS256 tokens.
type TokenIssuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(secret []byte, issuer string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     secret,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (i *TokenIssuer) AccessTTL() time.Duration  { return i.accessTTL }
func (i *TokenIssuer) RefreshTTL() time.Duration { return i.refreshTTL }

func (i *TokenIssuer) IssuePair(u *models.User) (TokenPair, error) {
	id := identityClaims(u)

	access, accessExp, err := i.sign(id, TokenTypeAccess, i.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := i.sign(id, TokenTypeRefresh, i.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		Access:           access,
		Refresh:          refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (i *TokenIssuer) ParseAccess(token string) (*Claims, error) {
	return i.parse(token, TokenTypeAccess)
}

func (i *TokenIssuer) ParseRefresh(token string) (*Claims, error) {
	return i.parse(token, TokenTypeRefresh)
}

// Refresh validates old and mints a new access token for the same user.
// With rotate it also mints a replacement refresh token; persisting it is
// the caller's job.
func (i *TokenIssuer) Refresh(old string, rotate bool) (Refreshed, error) {
	claims, err := i.ParseRefresh(old)
	if err != nil {
		return Refreshed{}, err
	}

	access, _, err := i.sign(*claims, TokenTypeAccess, i.accessTTL)
	if err != nil {
		return Refreshed{}, err
	}
	out := Refreshed{Access: access, Claims: claims}

	if rotate {
		out.Refresh, out.RefreshExpiresAt, err = i.sign(*claims, TokenTypeRefresh, i.refreshTTL)
		if err != nil {
			return Refreshed{}, err
		}
	}

	return out, nil
}

func identityClaims(u *models.User) Claims {
	return Claims{
		UserID:   u.ID,
		Email:    u.Email,
		Username: u.Username,
		IsStaff:  u.IsStaff,
	}
}

func (i *TokenIssuer) sign(id Claims, tokenType string, ttl time.Duration) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    i.issuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		TokenType: tokenType,
		UserID:    id.UserID,
		Email:     id.Email,
		Username:  id.Username,
		IsStaff:   id.IsStaff,
	}

	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return s, exp, nil
}

func (i *TokenIssuer) parse(tokenString, tokenType string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.TokenType != tokenType || claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
