// Package service holds the business rules that sit between handlers and repositories.
package service

import (
	"context"
	"strings"

	"formstack/internal/models"
	"formstack/internal/repository"
	"formstack/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	userRepo   repository.UserRepository
	bcryptCost int
}

type RegisterInput struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
	Password2 string
}

type ChangePasswordInput struct {
	UserID       uint
	OldPassword  string
	NewPassword1 string
	NewPassword2 string
}

// UpdateProfileInput carries a partial profile update; nil fields are left unchanged.
type UpdateProfileInput struct {
	UserID    uint
	Email     *string
	Username  *string
	FirstName *string
	LastName  *string
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo, bcryptCost: bcrypt.DefaultCost}
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// CredentialVersion returns the version every token of the user must carry.
func (s *UserService) CredentialVersion(ctx context.Context, id uint) (uint, error) {
	return s.userRepo.GetCredentialVersion(ctx, id)
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := validation.NormalizeEmail(in.Email)
	username := strings.TrimSpace(in.Username)

	errs := map[string]string{}
	if err := validation.ValidateEmail(email); err != nil {
		errs["email"] = err.Error()
	}
	if err := validation.ValidateUsername(username); err != nil {
		errs["username"] = err.Error()
	}
	if err := validation.ValidateName(in.FirstName); err != nil {
		errs["first_name"] = "First name " + err.Error()
	}
	if err := validation.ValidateName(in.LastName); err != nil {
		errs["last_name"] = "Last name " + err.Error()
	}
	if in.Password == "" {
		errs["password"] = "password is required"
	} else if err := validation.ValidatePassword(in.Password); err != nil {
		errs["password"] = err.Error()
	}
	if in.Password2 == "" {
		errs["password2"] = "password2 is required"
	} else if in.Password != in.Password2 {
		errs["password"] = "Password fields didn't match."
	}
	if len(errs) > 0 {
		return nil, models.NewFieldValidationError(errs)
	}

	if err := s.checkIdentityAvailable(ctx, 0, email, username, errs); err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return nil, models.NewFieldValidationError(errs)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Email:             email,
		Username:          username,
		FirstName:         strings.TrimSpace(in.FirstName),
		LastName:          strings.TrimSpace(in.LastName),
		Password:          string(hash),
		CredentialVersion: 1,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies an email/password pair. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = validation.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, models.NewValidationError("Missing email or password")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

// ChangePassword stores the new hash and returns the user with its bumped
// credential version. Tokens issued before the change stop validating.
func (s *UserService) ChangePassword(ctx context.Context, in ChangePasswordInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.OldPassword)) != nil {
		return nil, models.NewFieldValidationError(map[string]string{
			"old_password": "Your old password was entered incorrectly.",
		})
	}
	if in.NewPassword1 != in.NewPassword2 {
		return nil, models.NewFieldValidationError(map[string]string{
			"new_password2": "The two password fields didn't match.",
		})
	}
	if err := validation.ValidatePassword(in.NewPassword1); err != nil {
		return nil, models.NewFieldValidationError(map[string]string{"new_password1": err.Error()})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword1), s.bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	version, err := s.userRepo.UpdatePassword(ctx, user.ID, string(hash))
	if err != nil {
		return nil, err
	}
	user.Password = string(hash)
	user.CredentialVersion = version
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	errs := map[string]string{}
	email, username := user.Email, user.Username
	if in.Email != nil {
		email = validation.NormalizeEmail(*in.Email)
		if err := validation.ValidateEmail(email); err != nil {
			errs["email"] = err.Error()
		}
	}
	if in.Username != nil {
		username = strings.TrimSpace(*in.Username)
		if err := validation.ValidateUsername(username); err != nil {
			errs["username"] = err.Error()
		}
	}
	if in.FirstName != nil {
		if err := validation.ValidateName(*in.FirstName); err != nil {
			errs["first_name"] = "First name " + err.Error()
		}
	}
	if in.LastName != nil {
		if err := validation.ValidateName(*in.LastName); err != nil {
			errs["last_name"] = "Last name " + err.Error()
		}
	}
	if len(errs) > 0 {
		return nil, models.NewFieldValidationError(errs)
	}

	if err := s.checkIdentityAvailable(ctx, user.ID, email, username, errs); err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return nil, models.NewFieldValidationError(errs)
	}

	user.Email = email
	user.Username = username
	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetAvatar records the stored avatar path on the user.
func (s *UserService) SetAvatar(ctx context.Context, userID uint, path string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Avatar = path
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// checkIdentityAvailable adds an entry to errs for each of email/username held
// by a user other than selfID.
func (s *UserService) checkIdentityAvailable(ctx context.Context, selfID uint, email, username string, errs map[string]string) error {
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != selfID {
		errs["email"] = "A user with that email already exists."
	}

	existing, err = s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != selfID {
		errs["username"] = "A user with that username already exists."
	}
	return nil
}
