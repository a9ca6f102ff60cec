package authentication

import (
	"context"
	"errors"
	"strings"

	"github.com/healthsync/healthsync-api/internal/model"
	"github.com/healthsync/healthsync-api/internal/repository"
	"github.com/healthsync/healthsync-api/internal/service"
	"github.com/healthsync/healthsync-api/internal/service/notification"
	"github.com/healthsync/healthsync-api/internal/validation"
	"github.com/healthsync/healthsync-api/pkg/auth"
	apperrors "github.com/healthsync/healthsync-api/pkg/errors"
	"github.com/healthsync/healthsync-api/pkg/logger"
	"github.com/healthsync/healthsync-api/pkg/security"
)

const (
	notFound         = "Authentication record not found"
	msgEmailTaken    = "Email already registered"
	msgPhoneTaken    = "Phone number already registered"
	msgUserTaken     = "User already registered"
	msgCredentials   = "Email and password required"
	msgNoAccount     = "No account for that email"
	msgWrongPassword = "Password is incorrect"
)

type AuthenticationService interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.Authentication, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)
	LookupByEmail(ctx context.Context, email string) (*model.UserRef, error)
	GetAuthentication(ctx context.Context, userID string) (*model.Authentication, error)
	ListAuthentication(ctx context.Context) ([]*model.Authentication, error)
	UpdateAuthentication(ctx context.Context, userID string, req *model.UpdateAuthenticationRequest) (*model.Authentication, error)
	DeleteAuthentication(ctx context.Context, userID string) error
}

type Service struct {
	repo      repository.AuthenticationRepository
	patients  repository.PatientRepository
	doctors   repository.DoctorRepository
	hasher    security.PasswordHasher
	tokens    auth.JWTService
	notifier  notification.Service
	validator *validation.Validator
	log       *logger.Logger
}

func NewService(
	repo repository.AuthenticationRepository,
	patients repository.PatientRepository,
	doctors repository.DoctorRepository,
	hasher security.PasswordHasher,
	tokens auth.JWTService,
	notifier notification.Service,
	validator *validation.Validator,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:      repo,
		patients:  patients,
		doctors:   doctors,
		hasher:    hasher,
		tokens:    tokens,
		notifier:  notifier,
		validator: validator,
		log:       log.With("authentication"),
	}
}

// Register stores credentials for an existing patient or doctor and
// sends the matching welcome notice.
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.Authentication, error) {
	if err := validation.RequireAll(
		validation.Str("user_id", req.UserID),
		validation.Str("user_type", req.UserType),
		validation.Str("phone_number", req.PhoneNumber),
		validation.Str("email", req.Email),
		validation.Str("password", req.Password),
	); err != nil {
		return nil, err
	}
	if err := s.validator.Field(validation.EntityAuthentication, "user_type", req.UserType); err != nil {
		return nil, err
	}

	userID := strings.TrimSpace(req.UserID)
	if err := s.userExists(ctx, req.UserType, userID); err != nil {
		return nil, err
	}

	record := &model.Authentication{
		UserID:      userID,
		UserType:    req.UserType,
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
		Email:       strings.TrimSpace(req.Email),
	}
	if err := validation.First(
		s.validator.Field(validation.EntityAuthentication, "email", record.Email),
		s.validator.Field(validation.EntityAuthentication, "phone_number", record.PhoneNumber),
	); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, record); err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.log.Error(err, "failed to hash password", "user_id", userID)
		return nil, apperrors.NewInternal(err)
	}
	record.PasswordDigest = digest

	if err := s.repo.Create(ctx, record); err != nil {
		if errors.Is(err, repository.ErrIDTaken) {
			return nil, apperrors.NewConflict(msgUserTaken, err)
		}
		err = service.MapRepoError(err, notFound)
		if apperrors.Is(err, apperrors.ErrInternal) {
			s.log.Error(err, "unexpected error creating authentication", "user_id", userID)
		}
		return nil, err
	}

	s.log.Info("user registered", "user_id", record.UserID, "user_type", record.UserType)
	registered := *record
	s.notifier.Email(ctx, "authentication.welcome", func(ctx context.Context) (model.Notification, error) {
		return s.welcome(ctx, &registered)
	})
	s.notifier.Publish(ctx, notification.EventUserRegistered, model.UserRef{UserID: record.UserID, UserType: record.UserType})
	return record, nil
}

// Login matches the email case-insensitively and returns a signed token.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	email := validation.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, apperrors.NewInvalidFormat(msgCredentials, nil)
	}

	record, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound(msgNoAccount, err)
		}
		return nil, apperrors.NewInternal(err)
	}
	if err := s.hasher.Compare(record.PasswordDigest, req.Password); err != nil {
		if errors.Is(err, security.ErrPasswordMismatch) {
			return nil, apperrors.NewUnauthorized(msgWrongPassword)
		}
		return nil, apperrors.NewInternal(err)
	}

	token, err := s.tokens.GenerateAccessToken(record.UserID, record.UserType)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	return &model.LoginResponse{
		UserID:      record.UserID,
		UserType:    record.UserType,
		AccessToken: token,
	}, nil
}

func (s *Service) LookupByEmail(ctx context.Context, email string) (*model.UserRef, error) {
	record, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, service.MapRepoError(err, notFound)
	}
	return &model.UserRef{UserID: record.UserID, UserType: record.UserType}, nil
}

func (s *Service) GetAuthentication(ctx context.Context, userID string) (*model.Authentication, error) {
	record, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, service.MapRepoError(err, notFound)
	}
	return record, nil
}

func (s *Service) ListAuthentication(ctx context.Context) ([]*model.Authentication, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, service.MapRepoError(err, notFound)
	}
	return records, nil
}

// UpdateAuthentication re-hashes a new password and re-checks email and
// phone uniqueness against other users.
func (s *Service) UpdateAuthentication(ctx context.Context, userID string, req *model.UpdateAuthenticationRequest) (*model.Authentication, error) {
	record, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, service.MapRepoError(err, notFound)
	}

	if req.UserType != nil {
		if err := s.validator.Field(validation.EntityAuthentication, "user_type", *req.UserType); err != nil {
			return nil, err
		}
		record.UserType = *req.UserType
	}
	if req.Email != nil {
		record.Email = strings.TrimSpace(*req.Email)
	}
	if req.PhoneNumber != nil {
		record.PhoneNumber = strings.TrimSpace(*req.PhoneNumber)
	}
	if err := validation.First(
		s.validator.Field(validation.EntityAuthentication, "email", record.Email),
		s.validator.Field(validation.EntityAuthentication, "phone_number", record.PhoneNumber),
	); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, record); err != nil {
		return nil, err
	}
	if req.Password != nil {
		if err := s.validator.Field(validation.EntityAuthentication, "password", *req.Password); err != nil {
			return nil, err
		}
		digest, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, apperrors.NewInternal(err)
		}
		record.PasswordDigest = digest
	}

	if err := s.repo.Update(ctx, record); err != nil {
		return nil, service.MapRepoError(err, notFound)
	}
	return record, nil
}

func (s *Service) DeleteAuthentication(ctx context.Context, userID string) error {
	if err := s.repo.Delete(ctx, userID); err != nil {
		return service.MapRepoError(err, notFound)
	}
	s.log.Info("authentication deleted", "user_id", userID)
	return nil
}

func (s *Service) userExists(ctx context.Context, userType, userID string) error {
	var err error
	switch userType {
	case model.UserTypePatient:
		_, err = s.patients.Get(ctx, userID)
	case model.UserTypeDoctor:
		_, err = s.doctors.Get(ctx, userID)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("Invalid user_id - "+userType+" not found", err)
	}
	if err != nil {
		return apperrors.NewInternal(err)
	}
	return nil
}

// checkUnique reports email and phone numbers held by another user. The
// unique indexes still catch concurrent registrations.
func (s *Service) checkUnique(ctx context.Context, record *model.Authentication) error {
	other, err := s.repo.GetByEmail(ctx, record.Email)
	switch {
	case err == nil && other.UserID != record.UserID:
		return apperrors.NewConflict(msgEmailTaken, nil)
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return apperrors.NewInternal(err)
	}

	other, err = s.repo.GetByPhone(ctx, record.PhoneNumber)
	switch {
	case err == nil && other.UserID != record.UserID:
		return apperrors.NewConflict(msgPhoneTaken, nil)
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return apperrors.NewInternal(err)
	}
	return nil
}

func (s *Service) welcome(ctx context.Context, record *model.Authentication) (model.Notification, error) {
	switch record.UserType {
	case model.UserTypePatient:
		patient, err := s.patients.Get(ctx, record.UserID)
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warn("patient not found for welcome email", "user_id", record.UserID)
			return model.Notification{}, notification.ErrSkip
		}
		if err != nil {
			return model.Notification{}, err
		}
		return notification.WelcomePatient(patient, record.Email), nil
	case model.UserTypeDoctor:
		doctor, err := s.doctors.Get(ctx, record.UserID)
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warn("doctor not found for welcome email", "user_id", record.UserID)
			return model.Notification{}, notification.ErrSkip
		}
		if err != nil {
			return model.Notification{}, err
		}
		return notification.WelcomeDoctor(doctor, record.Email), nil
	}
	return model.Notification{}, notification.ErrSkip
}
