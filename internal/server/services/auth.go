// Package services contains server-side business logic: registration, login
// and the refresh-token session lifecycle (AuthService), the refresh token
// registry (TokenStore) and job application management (ApplicationService).
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/placementtracker/internal/common"
	"github.com/dmitrijs2005/placementtracker/internal/dbx"
	"github.com/dmitrijs2005/placementtracker/internal/logging"
	"github.com/dmitrijs2005/placementtracker/internal/server/auth"
	"github.com/dmitrijs2005/placementtracker/internal/server/models"
	"github.com/dmitrijs2005/placementtracker/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/placementtracker/internal/server/repositories/users"
)

const (
	MsgEmailTaken       = "A user with this email already exists."
	MsgUsernameTaken    = "A user with this username already exists."
	MsgPasswordMismatch = "Passwords don't match."
	MsgOldPassword      = "Old password is incorrect."
	MsgRefreshRequired  = "Refresh token is required"
)

// ClientInfo describes where a request came from. It is recorded on each
// refresh token and on the user at login.
type ClientInfo struct {
	IP        string
	UserAgent string
}

type RegisterInput struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
}

type ProfileInput struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type ChangePasswordInput struct {
	OldPassword     string `json:"old_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// CreateUserInput is the operator path: no token is issued and IsStaff may
// be set.
type CreateUserInput struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsStaff   bool   `json:"is_staff"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Tokens auth.TokenPair
	User   *models.User
}

// RefreshResult carries the new access token and, when rotation is on, the
// replacement refresh token.
type RefreshResult struct {
	Access  string
	Refresh string
}

// Session is the public view of a refresh token. The token string itself
// is never exposed after issuance.
type Session struct {
	ID         string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	DeviceInfo string
	IPAddress  string
	IsExpired  bool
}

// AuthService implements the session lifecycle:
// Anonymous -> Authenticated (Register, Login) -> Refreshing (Refresh)
// -> Revoked (Logout, ChangePassword, RevokeSession, expiry).
type AuthService struct {
	db          dbx.DB
	repomanager repomanager.RepositoryManager
	tokens      *TokenStore
	issuer      *auth.TokenIssuer
	hasher      auth.PasswordHasher
	rotate      bool
	logger      logging.Logger
	now         func() time.Time

	dummyHash func() string
}

func NewAuthService(
	db dbx.DB,
	m repomanager.RepositoryManager,
	issuer *auth.TokenIssuer,
	hasher auth.PasswordHasher,
	rotate bool,
	logger logging.Logger,
) *AuthService {
	s := &AuthService{
		db:          db,
		repomanager: m,
		tokens:      NewTokenStore(m),
		issuer:      issuer,
		hasher:      hasher,
		rotate:      rotate,
		logger:      logger.With("module", "auth"),
		now:         time.Now,
	}
	s.dummyHash = sync.OnceValue(func() string {
		h, _ := hasher.Hash("placeholder-password")
		return h
	})
	return s
}

// Register validates input, creates the user and stores its first refresh
// token in one transaction.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, client ClientInfo) (*AuthResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)

	err := validation.ValidateStruct(&in,
		validation.Field(&in.Email, emailRules...),
		validation.Field(&in.Username, usernameRules...),
		validation.Field(&in.Password, passwordRules...),
		validation.Field(&in.PasswordConfirm, validation.Required, equalTo(in.Password, MsgPasswordMismatch)),
		validation.Field(&in.FirstName, nameRules...),
		validation.Field(&in.LastName, nameRules...),
	)
	if err != nil {
		return nil, asValidationError(err)
	}

	if err := s.checkUnique(ctx, in.Email, in.Username, ""); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		IsActive:     true,
	}

	var res *AuthResult
	err = s.db.RunInTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := s.repomanager.Users(tx).Create(ctx, user)
		if err != nil {
			return mapUserConflict(err)
		}
		pair, err := s.issueAndStore(ctx, tx, u, client)
		if err != nil {
			return err
		}
		res = &AuthResult{Tokens: pair, User: u}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", res.User.ID, "ip", client.IP)
	return res, nil
}

// Login authenticates by email, falling back to username when no account
// has that email. The first match is the only candidate checked.
func (s *AuthService) Login(ctx context.Context, identifier, password string, client ClientInfo) (*AuthResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, common.ErrorUnauthorized
	}

	user, err := s.lookup(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.hasher.Verify(password, s.dummyHash())
		s.logger.Warn(ctx, "login failed", "reason", "unknown identifier", "ip", client.IP)
		return nil, common.ErrorUnauthorized
	}
	if !s.hasher.Verify(password, user.PasswordHash) || !user.IsActive {
		s.logger.Warn(ctx, "login failed", "user_id", user.ID, "ip", client.IP)
		return nil, common.ErrorUnauthorized
	}

	var pair auth.TokenPair
	err = s.db.RunInTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if pair, err = s.issueAndStore(ctx, tx, user, client); err != nil {
			return err
		}
		now := s.now()
		if err := s.repomanager.Users(tx).UpdateLogin(ctx, user.ID, now, client.IP); err != nil {
			return fmt.Errorf("error updating last login: %w", err)
		}
		user.LastLoginAt = &now
		user.LastLoginIP = client.IP

		if s.hasher.NeedsRehash(user.PasswordHash) {
			hash, err := s.hasher.Hash(password)
			if err != nil {
				return fmt.Errorf("error upgrading password hash: %w", err)
			}
			if err := s.repomanager.Users(tx).UpdatePassword(ctx, user.ID, hash); err != nil {
				return fmt.Errorf("error upgrading password hash: %w", err)
			}
			user.PasswordHash = hash
			s.logger.Info(ctx, "password hash upgraded", "user_id", user.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID, "ip", client.IP)
	return &AuthResult{Tokens: pair, User: user}, nil
}

// Refresh exchanges a stored refresh token for a new access token. With
// rotation enabled the stored row is updated in place with a new token.
func (s *AuthService) Refresh(ctx context.Context, token string) (*RefreshResult, error) {
	if token == "" {
		return nil, common.NewFieldError("refresh", MsgRefreshRequired)
	}

	rec, err := s.tokens.FindActive(ctx, s.db, token)
	if err != nil {
		return nil, err
	}

	refreshed, err := s.issuer.Refresh(token, s.rotate)
	if err != nil {
		return nil, err
	}
	if refreshed.Claims.UserID != rec.UserID {
		return nil, common.ErrInvalidToken
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	if !user.IsActive {
		return nil, common.ErrInvalidToken
	}

	out := &RefreshResult{Access: refreshed.Access}
	if s.rotate {
		if err := s.tokens.Rotate(ctx, s.db, rec, refreshed.Refresh, refreshed.RefreshExpiresAt); err != nil {
			return nil, err
		}
		out.Refresh = refreshed.Refresh
	}
	return out, nil
}

// Logout revokes token when it is a live token of userID. Without a token
// every live token of the user is revoked. Unknown or foreign tokens are
// ignored.
func (s *AuthService) Logout(ctx context.Context, userID, token string) error {
	if token == "" {
		n, err := s.tokens.RevokeAllForUser(ctx, s.db, userID)
		if err != nil {
			return err
		}
		s.logger.Info(ctx, "user logged out everywhere", "user_id", userID, "revoked", n)
		return nil
	}

	rec, err := s.repomanager.RefreshTokens(s.db).FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return fmt.Errorf("error searching refresh token: %w", err)
	}
	if rec.UserID != userID {
		return nil
	}
	if err := s.tokens.Revoke(ctx, s.db, rec); err != nil {
		return err
	}
	s.logger.Info(ctx, "user logged out", "user_id", userID)
	return nil
}

// ChangePassword verifies the old password, stores the new hash and revokes
// every refresh token of the user in one transaction.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, in ChangePasswordInput) error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.OldPassword, validation.Required),
		validation.Field(&in.NewPassword, passwordRules...),
		validation.Field(&in.ConfirmPassword, validation.Required, equalTo(in.NewPassword, "New passwords don't match.")),
	)
	if err != nil {
		return asValidationError(err)
	}

	user, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(in.OldPassword, user.PasswordHash) {
		return common.NewFieldError("old_password", MsgOldPassword)
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	err = s.db.RunInTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).UpdatePassword(ctx, userID, hash); err != nil {
			return fmt.Errorf("error updating password: %w", err)
		}
		_, err := s.tokens.RevokeAllForUser(ctx, tx, userID)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "password changed", "user_id", userID)
	return nil
}

func (s *AuthService) Profile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return user, nil
}

// UpdateProfile replaces email, username and names. Uniqueness is checked
// against every other account.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*models.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)

	err := validation.ValidateStruct(&in,
		validation.Field(&in.Email, emailRules...),
		validation.Field(&in.Username, usernameRules...),
		validation.Field(&in.FirstName, nameRules...),
		validation.Field(&in.LastName, nameRules...),
	)
	if err != nil {
		return nil, asValidationError(err)
	}

	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, in.Email, in.Username, userID); err != nil {
		return nil, err
	}

	user.Email = in.Email
	user.Username = in.Username
	user.FirstName = in.FirstName
	user.LastName = in.LastName
	if err := s.repomanager.Users(s.db).UpdateProfile(ctx, user); err != nil {
		return nil, mapUserConflict(err)
	}
	return user, nil
}

func (s *AuthService) ListSessions(ctx context.Context, userID string) ([]Session, error) {
	list, err := s.tokens.ListActiveForUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]Session, 0, len(list))
	for _, t := range list {
		out = append(out, Session{
			ID:         t.ID,
			CreatedAt:  t.CreatedAt,
			ExpiresAt:  t.ExpiresAt,
			DeviceInfo: t.DeviceInfo,
			IPAddress:  t.IPAddress,
			IsExpired:  t.Expired(now),
		})
	}
	return out, nil
}

// RevokeSession revokes one of the user's own live sessions. Absent,
// foreign and already revoked ids all give common.ErrorNotFound.
func (s *AuthService) RevokeSession(ctx context.Context, userID, id string) error {
	if uuid.Validate(id) != nil {
		return common.ErrorNotFound
	}
	rec, err := s.repomanager.RefreshTokens(s.db).FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error searching refresh token: %w", err)
	}
	if rec.UserID != userID || rec.IsRevoked {
		return common.ErrorNotFound
	}
	return s.tokens.Revoke(ctx, s.db, rec)
}

func (s *AuthService) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	username = strings.TrimSpace(username)
	if err := validation.Validate(username, usernameRules...); err != nil {
		return false, asValidationError(validation.Errors{"username": err})
	}
	taken, err := s.repomanager.Users(s.db).ExistsUsername(ctx, username, "")
	if err != nil {
		return false, err
	}
	return !taken, nil
}

func (s *AuthService) EmailAvailable(ctx context.Context, email string) (bool, error) {
	email = strings.TrimSpace(email)
	if err := validation.Validate(email, emailRules...); err != nil {
		return false, asValidationError(validation.Errors{"email": err})
	}
	taken, err := s.repomanager.Users(s.db).ExistsEmail(ctx, email, "")
	if err != nil {
		return false, err
	}
	return !taken, nil
}

// CreateUser creates an active account without issuing tokens.
func (s *AuthService) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)

	err := validation.ValidateStruct(&in,
		validation.Field(&in.Email, emailRules...),
		validation.Field(&in.Username, usernameRules...),
		validation.Field(&in.Password, passwordRules...),
		validation.Field(&in.FirstName, nameRules...),
		validation.Field(&in.LastName, nameRules...),
	)
	if err != nil {
		return nil, asValidationError(err)
	}
	if err := s.checkUnique(ctx, in.Email, in.Username, ""); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user, err := s.repomanager.Users(s.db).Create(ctx, &models.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		IsActive:     true,
		IsStaff:      in.IsStaff,
	})
	if err != nil {
		return nil, mapUserConflict(err)
	}

	s.logger.Info(ctx, "user created", "user_id", user.ID, "staff", in.IsStaff)
	return user, nil
}

// --- helpers below ---

func (s *AuthService) issueAndStore(ctx context.Context, tx dbx.DBTX, user *models.User, client ClientInfo) (auth.TokenPair, error) {
	pair, err := s.issuer.IssuePair(user)
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("error issuing tokens: %w", err)
	}
	_, err = s.tokens.Put(ctx, tx, &models.RefreshToken{
		UserID:     user.ID,
		Token:      pair.Refresh,
		ExpiresAt:  pair.RefreshExpiresAt,
		DeviceInfo: client.UserAgent,
		IPAddress:  client.IP,
	})
	if err != nil {
		return auth.TokenPair{}, err
	}
	return pair, nil
}

// lookup returns nil, nil when neither email nor username matches.
func (s *AuthService) lookup(ctx context.Context, identifier string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, identifier)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	user, err = repo.GetByUsername(ctx, identifier)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return nil, nil
}

func (s *AuthService) checkUnique(ctx context.Context, email, username, excludeID string) error {
	repo := s.repomanager.Users(s.db)
	fields := map[string]string{}

	taken, err := repo.ExistsEmail(ctx, email, excludeID)
	if err != nil {
		return fmt.Errorf("error checking email: %w", err)
	}
	if taken {
		fields["email"] = MsgEmailTaken
	}

	taken, err = repo.ExistsUsername(ctx, username, excludeID)
	if err != nil {
		return fmt.Errorf("error checking username: %w", err)
	}
	if taken {
		fields["username"] = MsgUsernameTaken
	}

	if len(fields) > 0 {
		return &common.ValidationError{Fields: fields}
	}
	return nil
}

// mapUserConflict turns a unique-index race into the same validation error
// the pre-check would have produced.
func mapUserConflict(err error) error {
	switch {
	case errors.Is(err, users.ErrEmailTaken):
		return common.NewFieldError("email", MsgEmailTaken)
	case errors.Is(err, users.ErrUsernameTaken):
		return common.NewFieldError("username", MsgUsernameTaken)
	case errors.Is(err, common.ErrorNotFound):
		return common.ErrorNotFound
	}
	return fmt.Errorf("error saving user: %w", err)
}
