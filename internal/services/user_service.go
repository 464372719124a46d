package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/joshua-takyi/luwas/internal/helpers"
	"github.com/joshua-takyi/luwas/internal/models"
	"github.com/joshua-takyi/luwas/internal/storage"
)

const NoProfileMessage = "No LUWAS profile found"

type UserService struct {
	authRepo    models.AuthRepo
	profileRepo models.ProfileRepo
	blobs       storage.BlobStore
	logger      *slog.Logger
	now         func() time.Time
}

func NewUserService(authRepo models.AuthRepo, profileRepo models.ProfileRepo, blobs storage.BlobStore, logger *slog.Logger) *UserService {
	return &UserService{
		authRepo:    authRepo,
		profileRepo: profileRepo,
		blobs:       blobs,
		logger:      logger.With("component", "user_service"),
		now:         time.Now,
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", models.ValidationError{Field: "email", Msg: "email is required"}
	}
	if err := models.Validate.Var(email, "email"); err != nil {
		return "", models.ValidationError{Field: "email", Msg: "invalid email address", Err: err}
	}
	return email, nil
}

// Register checks every field locally before calling the identity provider,
// then creates the traveler profile.
func (us *UserService) Register(ctx context.Context, email, password, confirm string) (*models.AuthSession, *models.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, nil, err
	}
	if err := helpers.CheckPassword(password, confirm); err != nil {
		return nil, nil, err
	}

	session, err := us.authRepo.SignUp(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	user, err := us.ensureProfile(ctx, session.UserID, email)
	if err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

// Login refuses accounts that exist at the identity provider but have no profile.
func (us *UserService) Login(ctx context.Context, email, password string) (*models.AuthSession, *models.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, nil, err
	}
	if password == "" {
		return nil, nil, models.ValidationError{Field: "password", Msg: "password is required"}
	}

	session, err := us.authRepo.SignIn(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	user, err := us.profileRepo.GetProfile(ctx, session.UserID)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, nil, models.ForbiddenError{Msg: NoProfileMessage}
		}
		return nil, nil, err
	}
	return session, user, nil
}

func (us *UserService) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthSession, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("refresh token is required")
	}
	return us.authRepo.RefreshToken(ctx, refreshToken)
}

func (us *UserService) SocialAuthorize(ctx context.Context, provider string) (*models.SocialAuthorization, error) {
	p, err := models.ParseSocialProvider(provider)
	if err != nil {
		return nil, err
	}
	return us.authRepo.AuthorizeSocial(ctx, p)
}

// SocialCallback exchanges the provider code and registers the profile on first sign-in.
func (us *UserService) SocialCallback(ctx context.Context, code, verifier string) (*models.AuthSession, *models.User, error) {
	if strings.TrimSpace(code) == "" {
		return nil, nil, models.ValidationError{Field: "code", Msg: "authorization code is required"}
	}
	if verifier == "" {
		return nil, nil, models.ValidationError{Field: "verifier", Msg: "sign-in session expired, start again"}
	}
	session, err := us.authRepo.ExchangeCode(ctx, code, verifier)
	if err != nil {
		return nil, nil, err
	}
	user, err := us.ensureProfile(ctx, session.UserID, session.Email)
	if err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

func (us *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	return us.authRepo.RecoverPassword(ctx, email)
}

func (us *UserService) ensureProfile(ctx context.Context, uid, email string) (*models.User, error) {
	fields := map[string]interface{}{}
	if email != "" {
		fields["email"] = email
	}
	onInsert := map[string]interface{}{
		"role":      models.RoleTraveler,
		"createdAt": us.now(),
	}
	user, err := us.profileRepo.MergeProfile(ctx, uid, fields, onInsert)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return user, nil
}

func (us *UserService) GetProfile(ctx context.Context, uid string) (*models.User, error) {
	return us.profileRepo.GetProfile(ctx, uid)
}

// DisplayName never fails; a missing or unreadable profile reads as "Traveler".
func (us *UserService) DisplayName(ctx context.Context, uid string) string {
	user, err := us.profileRepo.GetProfile(ctx, uid)
	if err != nil {
		if !models.IsNotFound(err) {
			us.logger.Warn("profile read failed, using default name", "uid", uid, "error", err)
		}
		return models.DefaultDisplayName
	}
	return user.DisplayName()
}

func (us *UserService) UpdateProfile(ctx context.Context, id helpers.Identity, update models.ProfileUpdate) (*models.User, error) {
	if id.Anonymous {
		return nil, models.ForbiddenError{Msg: "sign in to edit your profile"}
	}
	if err := models.Validate.Struct(update); err != nil {
		return nil, models.ValidationError{Field: "profile", Msg: err.Error(), Err: err}
	}

	fields := update.Fields()
	if id.Email != "" {
		fields["email"] = id.Email
	}
	return us.profileRepo.MergeProfile(ctx, id.UID, fields, map[string]interface{}{
		"role":      models.RoleTraveler,
		"createdAt": us.now(),
	})
}

func AvatarPath(uid string) string {
	return fmt.Sprintf("avatars/%s.jpg", uid)
}

func (us *UserService) UploadAvatar(ctx context.Context, id helpers.Identity, image io.Reader) (*models.User, error) {
	if id.Anonymous {
		return nil, models.ForbiddenError{Msg: "sign in to change your avatar"}
	}
	url, err := us.blobs.Upload(ctx, AvatarPath(id.UID), image)
	if err != nil {
		return nil, models.UnavailableError{Op: "upload avatar", Err: err}
	}
	return us.profileRepo.MergeProfile(ctx, id.UID, map[string]interface{}{"avatarUrl": url}, nil)
}

func (us *UserService) WatchProfile(ctx context.Context, uid string) (<-chan models.Snapshot[*models.User], error) {
	return us.profileRepo.WatchProfile(ctx, uid)
}

// Identity resolves a verified token subject into the per-request identity.
// Profile read failures degrade to the default name and role.
func (us *UserService) Identity(ctx context.Context, uid, email, provider string) helpers.Identity {
	id := helpers.Identity{
		UID:         uid,
		Email:       email,
		Provider:    provider,
		DisplayName: models.DefaultDisplayName,
		Role:        models.RoleTraveler,
	}
	user, err := us.profileRepo.GetProfile(ctx, uid)
	if err != nil {
		if !models.IsNotFound(err) {
			us.logger.Warn("profile read failed while resolving identity", "uid", uid, "error", err)
		}
		return id
	}
	id.DisplayName = user.DisplayName()
	if user.Role != "" {
		id.Role = user.Role
	}
	if id.Email == "" {
		id.Email = user.Email
	}
	return id
}
