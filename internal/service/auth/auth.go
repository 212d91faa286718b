package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/thera_backend/internal/domain"
	"github.com/Alijeyrad/thera_backend/internal/identity"
	"github.com/Alijeyrad/thera_backend/internal/store"
	"github.com/Alijeyrad/thera_backend/pkg/authorize"
	"github.com/Alijeyrad/thera_backend/pkg/email"
	pasetotoken "github.com/Alijeyrad/thera_backend/pkg/paseto"
	"github.com/Alijeyrad/thera_backend/pkg/redis"
	"github.com/Alijeyrad/thera_backend/pkg/util/otp"
	"github.com/Alijeyrad/thera_backend/pkg/util/password"
)

const (
	maxResetAttempts = 5
	maxLoginAttempts = 5
	accountLockMins  = 15
	defaultResetMins = 15
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type RegisterRequest struct {
	Email    string
	Password string
	FullName string
	Role     string
	Timezone string
}

type LoginRequest struct {
	Email    string
	Password string
}

type ResetPasswordRequest struct {
	Email       string
	Code        string
	NewPassword string
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	Role         string `json:"role"`
	Home         string `json:"home"`
}

type Config struct {
	ResetTTL        time.Duration
	DashboardURL    string
	DefaultTimezone string
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Store interface {
	CreateAccount(ctx context.Context, in store.NewAccount) (*store.Account, error)
	AccountByEmail(ctx context.Context, email string) (*store.Account, error)
	AccountByID(ctx context.Context, id uuid.UUID) (*store.Account, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
}

// KV is the Redis surface used for sessions, lockouts and reset codes.
type KV interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Del(ctx context.Context, keys ...string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

type TokenIssuer interface {
	IssueAccess(sub pasetotoken.Subject) (string, error)
	IssueRefresh(sub pasetotoken.Subject) (string, error)
	Verify(token string) (*pasetotoken.Claims, error)
	AccessTTL() time.Duration
	RefreshTTL() time.Duration
}

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthTokens, error)
	Login(ctx context.Context, req LoginRequest) (*AuthTokens, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthTokens, error)
	Logout(ctx context.Context, sessionID uuid.UUID) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type authService struct {
	store  Store
	kv     KV
	tokens TokenIssuer
	hasher *password.Hasher
	authz  authorize.IAuthorization
	mailer email.Sender
	cfg    Config
}

func New(
	st Store,
	kv KV,
	tokens TokenIssuer,
	hasher *password.Hasher,
	authz authorize.IAuthorization,
	mailer email.Sender,
	cfg Config,
) Service {
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = defaultResetMins * time.Minute
	}
	return &authService{
		store:  st,
		kv:     kv,
		tokens: tokens,
		hasher: hasher,
		authz:  authz,
		mailer: mailer,
		cfg:    cfg,
	}
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*AuthTokens, error) {
	addr, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.FullName)
	if name == "" {
		return nil, ErrInvalidName
	}
	role, err := identity.ParseRole(strings.ToLower(strings.TrimSpace(req.Role)))
	if err != nil {
		return nil, ErrInvalidRole
	}
	if err := password.CheckStrength(req.Password); err != nil {
		return nil, ErrPasswordTooShort
	}
	tz := strings.TrimSpace(req.Timezone)
	if tz == "" {
		tz = s.cfg.DefaultTimezone
	}
	if tz == "" {
		tz = domain.DefaultTimezone
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return nil, ErrInvalidTimezone
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	acct, err := s.store.CreateAccount(ctx, store.NewAccount{
		Email:        addr,
		PasswordHash: hash,
		FullName:     name,
		Role:         role,
		Timezone:     tz,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	if s.authz != nil {
		if err := authorize.AssignAccountRole(ctx, s.authz, acct.ID.String(), role.String()); err != nil {
			// The account exists; permission checks fail closed until the role is granted.
			slog.ErrorContext(ctx, "failed to grant policy role", "user_id", acct.ID, "role", role, "error", err)
		}
	}

	s.send(ctx, email.BuildWelcomeEmail(acct.Email, name, s.cfg.DashboardURL))

	return s.createSession(ctx, acct)
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthTokens, error) {
	addr, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	locked, err := s.kv.Exists(ctx, redis.LoginLockKey(addr))
	if err != nil {
		return nil, fmt.Errorf("check lockout: %w", err)
	}
	if locked {
		return nil, ErrAccountLocked
	}

	acct, err := s.store.AccountByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find account: %w", err)
	}

	if err := s.hasher.Verify(acct.PasswordHash, req.Password); err != nil {
		if s.recordFailedLogin(ctx, addr) {
			return nil, ErrAccountLocked
		}
		return nil, ErrInvalidCredentials
	}

	if _, err := s.kv.Del(ctx, redis.LoginFailuresKey(addr)); err != nil {
		slog.WarnContext(ctx, "failed to reset login failures", "error", err)
	}
	return s.createSession(ctx, acct)
}

// ---------------------------------------------------------------------------
// Refresh / Logout
// ---------------------------------------------------------------------------

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Type != pasetotoken.TokenTypeRefresh || claims.SessionID == nil {
		return nil, ErrInvalidToken
	}

	sessionKey := redis.SessionKey(claims.SessionID.String())
	ok, err := s.kv.Exists(ctx, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("check session: %w", err)
	}
	if !ok {
		return nil, ErrSessionNotFound
	}
	if err := s.kv.Expire(ctx, sessionKey, s.tokens.RefreshTTL()); err != nil {
		slog.WarnContext(ctx, "failed to extend session", "session_id", claims.SessionID, "error", err)
	}

	// The refresh token stays the same until logout.
	access, err := s.tokens.IssueAccess(pasetotoken.Subject{
		UserID:    claims.UserID,
		SessionID: *claims.SessionID,
		Role:      claims.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	return s.tokensFor(access, refreshToken, claims.Role), nil
}

func (s *authService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	deleted, err := s.kv.Del(ctx, redis.SessionKey(sessionID.String()))
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if deleted == 0 {
		slog.DebugContext(ctx, "logout: session already expired", "session_id", sessionID)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Password reset
// ---------------------------------------------------------------------------

func (s *authService) RequestPasswordReset(ctx context.Context, rawEmail string) error {
	addr, err := normalizeEmail(rawEmail)
	if err != nil {
		return err
	}

	acct, err := s.store.AccountByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// unknown addresses look the same as known ones
			return nil
		}
		return fmt.Errorf("find account: %w", err)
	}

	code, err := otp.GenerateDefault()
	if err != nil {
		return fmt.Errorf("generate reset code: %w", err)
	}
	if err := s.kv.Set(ctx, redis.ResetCodeKey(addr), otp.Hash(code), s.cfg.ResetTTL); err != nil {
		return fmt.Errorf("store reset code: %w", err)
	}
	if err := s.kv.Set(ctx, redis.ResetAttemptsKey(addr), "0", s.cfg.ResetTTL); err != nil {
		return fmt.Errorf("store reset attempts: %w", err)
	}

	s.send(ctx, email.BuildPasswordResetEmail(acct.Email, "", code, int(s.cfg.ResetTTL/time.Minute)))
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	addr, err := normalizeEmail(req.Email)
	if err != nil {
		return ErrResetCodeInvalid
	}
	if err := password.CheckStrength(req.NewPassword); err != nil {
		return ErrPasswordTooShort
	}

	codeHash, err := s.kv.Get(ctx, redis.ResetCodeKey(addr))
	if errors.Is(err, redis.ErrNotFound) {
		return ErrResetCodeInvalid
	}
	if err != nil {
		return fmt.Errorf("get reset code: %w", err)
	}

	attempts, err := s.kv.Incr(ctx, redis.ResetAttemptsKey(addr), s.cfg.ResetTTL)
	if err != nil {
		return fmt.Errorf("count reset attempts: %w", err)
	}
	if attempts > maxResetAttempts {
		return ErrResetMaxAttempts
	}
	if err := otp.Verify(codeHash, req.Code); err != nil {
		return ErrResetCodeInvalid
	}

	acct, err := s.store.AccountByEmail(ctx, addr)
	if err != nil {
		return fmt.Errorf("find account: %w", err)
	}
	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.UpdatePassword(ctx, acct.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if _, err := s.kv.Del(ctx,
		redis.ResetCodeKey(addr),
		redis.ResetAttemptsKey(addr),
		redis.LoginFailuresKey(addr),
		redis.LoginLockKey(addr),
	); err != nil {
		slog.WarnContext(ctx, "failed to clear reset keys", "error", err)
	}
	slog.InfoContext(ctx, "password reset", "user_id", acct.ID)
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *authService) createSession(ctx context.Context, acct *store.Account) (*AuthTokens, error) {
	sessionID := uuid.Must(uuid.NewV7())

	if err := s.kv.Set(ctx, redis.SessionKey(sessionID.String()), acct.ID.String(), s.tokens.RefreshTTL()); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	sub := pasetotoken.Subject{UserID: acct.ID, SessionID: sessionID, Role: acct.Role.String()}
	access, err := s.tokens.IssueAccess(sub)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefresh(sub)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return s.tokensFor(access, refresh, sub.Role), nil
}

func (s *authService) tokensFor(access, refresh, role string) *AuthTokens {
	r, _ := identity.ParseRole(role)
	return &AuthTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
		Role:         role,
		Home:         identity.New(uuid.Nil, uuid.Nil, r).Home(),
	}
}

// recordFailedLogin counts a failure and reports whether the account is now locked.
func (s *authService) recordFailedLogin(ctx context.Context, addr string) bool {
	lockTTL := accountLockMins * time.Minute
	n, err := s.kv.Incr(ctx, redis.LoginFailuresKey(addr), lockTTL)
	if err != nil {
		slog.WarnContext(ctx, "failed to record login failure", "error", err)
		return false
	}
	if n < maxLoginAttempts {
		return false
	}
	if err := s.kv.Set(ctx, redis.LoginLockKey(addr), "1", lockTTL); err != nil {
		slog.WarnContext(ctx, "failed to lock account", "error", err)
		return false
	}
	_, _ = s.kv.Del(ctx, redis.LoginFailuresKey(addr))
	slog.WarnContext(ctx, "account locked after repeated login failures", "email", addr)
	return true
}

func (s *authService) send(ctx context.Context, m email.Message) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.Send(ctx, m); err != nil {
		var disabled email.ErrDisabled
		if errors.As(err, &disabled) {
			slog.DebugContext(ctx, "email disabled, skipping", "subject", m.Subject)
			return
		}
		// Mail failures never block the auth flow.
		slog.WarnContext(ctx, "failed to send email", "subject", m.Subject, "error", err)
	}
}

func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}
