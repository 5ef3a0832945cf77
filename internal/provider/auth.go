package provider

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"
	platformerrors "github.com/jmgilman/go/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/harlequingg/todo-api/internal/apperr"
	"github.com/harlequingg/todo-api/internal/data"
)

const (
	MsgLoginInvalidPayload   = "Invalid payload. Username and Password should not be empty."
	MsgInvalidCredentials    = "Invalid credentials. Please check your username and password."
	MsgLoginSuccessful       = "Login successful"
	MsgNoSessionCookie       = "No jwt cookie found."
	MsgLogoutSuccessful      = "Logout successful."
	MsgInvalidPayload        = "Invalid payload."
	MsgUsernameTaken         = "Username is already taken"
	MsgEmailTaken            = "Email is already in use"
	MsgUserRegistered        = "User registered successfully."
	MsgInvalidConfirmToken   = "Invalid or expired token."
	MsgEmailConfirmed        = "Email confirmed successfully."
	MsgUnauthorized          = "Unauthorized"
	MsgUserRetrieved         = "User retrieved successfully."
	msgRegistrationConflicts = "Username or email is already taken"
)

// AuthResponse is the outcome of an auth operation. Rejections also return a
// non-nil error carrying the taxonomy code.
type AuthResponse struct {
	Success bool
	Message string
	User    *data.User
	Token   string
}

type LoginRequest struct {
	Username string
	Password string
}

type RegisterRequest struct {
	Username string
	Email    string
	Password string
}

// Confirmer sends the confirmation email after registration.
type Confirmer interface {
	SendVerification(ctx context.Context, u *data.User) error
}

type AuthProvider struct {
	users         *UserProvider
	store         Managers
	tokens        Tokens
	confirmations Confirmer
	logger        *zap.Logger
	bcryptCost    int
}

type AuthOption func(*AuthProvider)

// WithBcryptCost overrides bcrypt.DefaultCost.
func WithBcryptCost(cost int) AuthOption {
	return func(p *AuthProvider) {
		p.bcryptCost = cost
	}
}

func NewAuthProvider(users *UserProvider, store Managers, tokens Tokens, confirmations Confirmer, logger *zap.Logger, opts ...AuthOption) *AuthProvider {
	p := &AuthProvider{
		users:         users,
		store:         store,
		tokens:        tokens,
		confirmations: confirmations,
		logger:        logger,
		bcryptCost:    bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func rejected(msg string, err error) (AuthResponse, error) {
	return AuthResponse{Message: msg}, err
}

func (p *AuthProvider) Login(ctx context.Context, session Session, req LoginRequest) (AuthResponse, error) {
	if req.Username == "" || req.Password == "" {
		return rejected(MsgLoginInvalidPayload, apperr.ErrInvalidPayload)
	}

	u, err := p.users.ByUsername(ctx, req.Username)
	if err != nil {
		return AuthResponse{}, err
	}
	if u == nil {
		return rejected(MsgInvalidCredentials, apperr.ErrInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			p.logger.Warn("stored password hash is unusable", zap.String("user_id", u.ID.String()), zap.Error(err))
		}
		return rejected(MsgInvalidCredentials, apperr.ErrInvalidCredentials)
	}

	tok, err := p.tokens.Generate(u.ID.String(), u.Username)
	if err != nil {
		return AuthResponse{}, apperr.Internal(err, "issue session token")
	}
	session.SetToken(tok)

	p.logger.Info("user logged in", zap.String("user_id", u.ID.String()))
	return AuthResponse{Success: true, Message: MsgLoginSuccessful, User: u, Token: tok}, nil
}

func (p *AuthProvider) Logout(_ context.Context, session Session) (AuthResponse, error) {
	tok, ok := session.Token()
	if !ok || tok == "" {
		return rejected(MsgNoSessionCookie, apperr.ErrNoSessionCookie)
	}
	p.tokens.Revoke(tok)
	session.ClearToken()
	return AuthResponse{Success: true, Message: MsgLogoutSuccessful}, nil
}

func (p *AuthProvider) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	if req.Username == "" || req.Email == "" || req.Password == "" ||
		utf8.RuneCountInString(req.Username) > data.MaxUsernameLength {
		return rejected(MsgInvalidPayload, apperr.ErrInvalidPayload)
	}

	existing, err := p.users.ByUsername(ctx, req.Username)
	if err != nil {
		return AuthResponse{}, err
	}
	if existing != nil {
		return rejected(MsgUsernameTaken, apperr.ErrUsernameTaken)
	}
	existing, err = p.users.ByEmail(ctx, req.Email)
	if err != nil {
		return AuthResponse{}, err
	}
	if existing != nil {
		return rejected(MsgEmailTaken, apperr.ErrEmailTaken)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), p.bcryptCost)
	if err != nil {
		// Passwords longer than 72 bytes are rejected by bcrypt.
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return rejected(MsgInvalidPayload, apperr.ErrInvalidPayload)
		}
		return AuthResponse{}, apperr.Internal(err, "hash password")
	}

	u := &data.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
	}
	if err := p.users.Create(ctx, u); err != nil {
		// Lost a race with a concurrent registration.
		if apperr.Code(err) == platformerrors.CodeConflict {
			return rejected(msgRegistrationConflicts, err)
		}
		return AuthResponse{}, err
	}

	if p.confirmations != nil {
		if err := p.confirmations.SendVerification(ctx, u); err != nil {
			p.logger.Error("failed to send confirmation email", zap.String("user_id", u.ID.String()), zap.Error(err))
		}
	}

	return AuthResponse{Success: true, Message: MsgUserRegistered, User: u}, nil
}

// ConfirmEmail marks the user named by a confirmation token as confirmed.
func (p *AuthProvider) ConfirmEmail(ctx context.Context, tok string) (AuthResponse, error) {
	claims, err := p.tokens.Validate(tok)
	if err != nil {
		return rejected(MsgInvalidConfirmToken, apperr.ErrEmailNotConfirmed)
	}
	id, err := uuid.Parse(claims.UserID())
	if err != nil {
		return rejected(MsgInvalidConfirmToken, apperr.ErrEmailNotConfirmed)
	}

	m := p.store.NewManager()
	u, err := m.Users().FindByID(ctx, id, true)
	if err != nil {
		return AuthResponse{}, err
	}
	if u == nil || u.IsEmailConfirmed || u.Email != claims.Username {
		return rejected(MsgInvalidConfirmToken, apperr.ErrEmailNotConfirmed)
	}

	u.IsEmailConfirmed = true
	u.UpdateDate = p.users.now().UTC()
	m.Users().Update(ctx, u)
	if err := m.Save(ctx); err != nil {
		return AuthResponse{}, err
	}

	p.logger.Info("email confirmed", zap.String("user_id", u.ID.String()))
	return AuthResponse{Success: true, Message: MsgEmailConfirmed, User: u}, nil
}

// UserByToken loads the user behind the session cookie. Every failure is
// reported as ErrUnauthorized.
func (p *AuthProvider) UserByToken(ctx context.Context, session Session) (AuthResponse, error) {
	tok, ok := session.Token()
	if !ok || tok == "" {
		return rejected(MsgUnauthorized, apperr.ErrUnauthorized)
	}
	subject, err := p.tokens.UserID(tok)
	if err != nil {
		return rejected(MsgUnauthorized, apperr.ErrUnauthorized)
	}
	id, err := uuid.Parse(subject)
	if err != nil {
		return rejected(MsgUnauthorized, apperr.ErrUnauthorized)
	}
	u, err := p.users.ByID(ctx, id)
	if err != nil {
		p.logger.Warn("failed to load session user", zap.String("user_id", subject), zap.Error(err))
		return rejected(MsgUnauthorized, apperr.ErrUnauthorized)
	}
	if u == nil {
		return rejected(MsgUnauthorized, apperr.ErrUnauthorized)
	}
	return AuthResponse{Success: true, Message: MsgUserRetrieved, User: u}, nil
}
