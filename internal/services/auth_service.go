package services

import (
	"context"
	"strings"
	"time"

	"ideascentral/internal/config"
	"ideascentral/internal/models"
	"ideascentral/internal/observability"
	"ideascentral/internal/store"
	contextutils "ideascentral/internal/utils"

	"golang.org/x/crypto/bcrypt"
)

// AuthServiceInterface is the identity provider
type AuthServiceInterface interface {
	Authenticate(ctx context.Context, email, password string) (*models.Identity, error)
	Register(ctx context.Context, req models.NewUser) (*models.Identity, error)
	CreateUser(ctx context.Context, req models.NewUser) (*models.User, error)
	GetIdentity(ctx context.Context, userID string) (*models.Identity, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	SetPassword(ctx context.Context, email, password string) error
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
}

// AuthService checks bcrypt password hashes held in the store
type AuthService struct {
	store  store.Store
	cfg    *config.Config
	logger *observability.Logger
	cost   int
}

var _ AuthServiceInterface = (*AuthService)(nil)

// NewAuthService creates a new AuthService
func NewAuthService(st store.Store, cfg *config.Config, logger *observability.Logger) *AuthService {
	return &AuthService{store: st, cfg: cfg, logger: logger, cost: bcrypt.DefaultCost}
}

// Authenticate returns the identity for a matching email and password.
// Unknown emails and wrong passwords produce the same error.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (result0 *models.Identity, err error) {
	ctx, span := observability.TraceAuthFunction(ctx, "Authenticate")
	defer observability.FinishSpan(span, &err)

	invalid := contextutils.NewAppError(contextutils.ErrorCodeInvalidCredentials, contextutils.SeverityInfo, "invalid email or password", "")
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, invalid
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if contextutils.IsError(err, contextutils.ErrRecordNotFound) {
			return nil, invalid
		}
		return nil, contextutils.WrapError(err, "failed to look up user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info(ctx, "Password mismatch", map[string]interface{}{"user_id": user.ID})
		return nil, invalid
	}
	return models.IdentityFromUser(user), nil
}

// Register is self-service signup. It honours system.auth: signups can be disabled and
// restricted by email domain and role.
func (s *AuthService) Register(ctx context.Context, req models.NewUser) (result0 *models.Identity, err error) {
	ctx, span := observability.TraceAuthFunction(ctx, "Register")
	defer observability.FinishSpan(span, &err)

	if s.cfg.IsSignupDisabled() {
		return nil, contextutils.NewAppError(contextutils.ErrorCodeForbidden, contextutils.SeverityInfo, "signups are disabled", "")
	}
	req.Email = normalizeEmail(req.Email)
	if req.Role == "" {
		req.Role = models.RoleStudent
	}
	if !s.cfg.IsDomainAllowed(req.Email) {
		return nil, contextutils.NewAppError(contextutils.ErrorCodeForbidden, contextutils.SeverityInfo, "email domain is not allowed to sign up", "")
	}
	if !s.cfg.IsSignupRoleAllowed(string(req.Role)) {
		return nil, contextutils.NewAppError(contextutils.ErrorCodeForbidden, contextutils.SeverityInfo, "role is not open for signup", string(req.Role))
	}

	user, err := s.CreateUser(ctx, req)
	if err != nil {
		return nil, err
	}
	return models.IdentityFromUser(user), nil
}

// CreateUser stores a user with any role. Used by the admin CLI and Register.
func (s *AuthService) CreateUser(ctx context.Context, req models.NewUser) (result0 *models.User, err error) {
	ctx, span := observability.TraceAuthFunction(ctx, "CreateUser")
	defer observability.FinishSpan(span, &err)

	req.Email = normalizeEmail(req.Email)
	if req.Role == "" {
		req.Role = models.RoleStudent
	}
	if err := contextutils.ValidateStruct(req); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to hash password")
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           store.NewID(),
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         req.Role,
		Department:   req.Department,
		StudentID:    req.StudentID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.InsertUser(ctx, user); err != nil {
		return nil, contextutils.WrapError(err, "failed to create user")
	}

	s.logger.Info(ctx, "User created", map[string]interface{}{
		"user_id": user.ID,
		"role":    string(user.Role),
	})
	return user, nil
}

// GetIdentity resolves a session user id
func (s *AuthService) GetIdentity(ctx context.Context, userID string) (result0 *models.Identity, err error) {
	ctx, span := observability.TraceAuthFunction(ctx, "GetIdentity", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return models.IdentityFromUser(user), nil
}

// ListUsers returns every user ordered by email
func (s *AuthService) ListUsers(ctx context.Context) (result0 []*models.User, err error) {
	ctx, span := observability.TraceAuthFunction(ctx, "ListUsers")
	defer observability.FinishSpan(span, &err)

	return s.store.ListUsers(ctx)
}

// SetPassword replaces the password of the user with the given email. Used by the admin CLI.
func (s *AuthService) SetPassword(ctx context.Context, email, password string) (err error) {
	ctx, span := observability.TraceAuthFunction(ctx, "SetPassword")
	defer observability.FinishSpan(span, &err)

	user, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	return s.storePassword(ctx, user, password)
}

// ChangePassword lets a signed-in user pick a new password after proving the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) (err error) {
	ctx, span := observability.TraceAuthFunction(ctx, "ChangePassword", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return contextutils.NewAppError(contextutils.ErrorCodeInvalidCredentials, contextutils.SeverityInfo, "current password is incorrect", "")
	}
	return s.storePassword(ctx, user, newPassword)
}

func (s *AuthService) storePassword(ctx context.Context, user *models.User, password string) error {
	if err := contextutils.ValidateStruct(passwordInput{Password: password}); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return contextutils.WrapError(err, "failed to hash password")
	}
	if err := s.store.UpdateUserPassword(ctx, user.ID, string(hash), time.Now().UTC()); err != nil {
		return contextutils.WrapError(err, "failed to update password")
	}
	s.logger.Info(ctx, "Password updated", map[string]interface{}{"user_id": user.ID})
	return nil
}

// passwordInput carries the same password rules as models.NewUser
type passwordInput struct {
	Password string `validate:"required,min=8,max=72"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
