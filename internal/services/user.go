package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/toteco/apiserver/internal/notify"
	"github.com/toteco/apiserver/internal/validation"
	"github.com/toteco/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

const (
	recoveryCodeMin = 10000
	recoveryCodeMax = 99999
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Save(ctx context.Context, user types.User) error
	Update(ctx context.Context, user types.User) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (types.User, error)
	FindAll(ctx context.Context) ([]types.User, error)
	FindByUsername(ctx context.Context, username string) ([]types.User, error)
	FindByEmail(ctx context.Context, email string) ([]types.User, error)
	Activate(ctx context.Context, id uuid.UUID, updated int64) (int64, error)
	Disable(ctx context.Context, id uuid.UUID, updated int64) (int64, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string, updated int64) (int64, error)
	UpdateRecoveryCode(ctx context.Context, id uuid.UUID, code *int64, updated int64) (int64, error)
	UpdateMoneySpent(ctx context.Context, id uuid.UUID) (int64, error)
	UpdatePublicationsNumber(ctx context.Context, id uuid.UUID) (int64, error)
}

// RecoveryNotifier hands recovery codes to the mail delivery pipeline.
type RecoveryNotifier interface {
	RecoveryCode(ctx context.Context, msg notify.RecoveryCodeMessage) error
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo     UserRepository
	notifier RecoveryNotifier
	logger   logrus.FieldLogger
}

func NewUserService(repo UserRepository, notifier RecoveryNotifier, logger logrus.FieldLogger) *UserService {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &UserService{repo: repo, notifier: notifier, logger: logger}
}

// Create registers a new account. Username and email are stored lower-cased
// and must not belong to another account.
func (s *UserService) Create(ctx context.Context, in types.UserInput) (types.User, error) {
	username := normalize(in.Username)
	email := normalize(in.Email)

	if err := s.ensureAvailable(ctx, uuid.Nil, username, email); err != nil {
		return types.User{}, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return types.User{}, err
	}

	code := newRecoveryCode()
	user := types.User{
		ID:           uuid.New(),
		Username:     username,
		Name:         in.Name,
		Surname:      in.Surname,
		BirthDate:    in.BirthDate.Int64(),
		Email:        email,
		Password:     hash,
		Created:      types.NowMillis(),
		Photo:        in.Photo,
		IsActive:     true,
		MoneySpent:   decimal.Zero,
		Role:         in.Role,
		RecoveryCode: &code,
	}
	if err := s.repo.Save(ctx, user); err != nil {
		return types.User{}, err
	}

	log := s.logger.WithField("user_id", user.ID)
	log.Info("user created")

	err = s.notifier.RecoveryCode(ctx, notify.RecoveryCodeMessage{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Code:     code,
	})
	if err != nil {
		log.WithError(err).Warn("failed to queue recovery code")
	}
	return user, nil
}

// ensureAvailable fails with ErrDuplicateUser when email or username belongs
// to an account other than self.
func (s *UserService) ensureAvailable(ctx context.Context, self uuid.UUID, username, email string) error {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if takenByOther(existing, self) {
		return ErrDuplicateUser
	}
	existing, err = s.repo.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if takenByOther(existing, self) {
		return ErrDuplicateUser
	}
	return nil
}

func takenByOther(users []types.User, self uuid.UUID) bool {
	for _, user := range users {
		if user.ID != self {
			return true
		}
	}
	return false
}

// Update replaces the client-owned fields of an existing account. Derived
// aggregates and the creation time are kept from the stored row.
func (s *UserService) Update(ctx context.Context, in types.UserUpdate) (int64, error) {
	current, err := s.repo.FindByID(ctx, in.ID)
	if err != nil {
		return 0, err
	}
	username := normalize(in.Username)
	email := normalize(in.Email)
	if err := s.ensureAvailable(ctx, in.ID, username, email); err != nil {
		return 0, err
	}

	hash := in.Password
	if !isPasswordHash(hash) {
		if hash, err = hashPassword(in.Password); err != nil {
			return 0, err
		}
	}

	now := types.NowMillis()
	current.Username = username
	current.Name = in.Name
	current.Surname = in.Surname
	current.BirthDate = in.BirthDate.Int64()
	current.Email = email
	current.Password = hash
	current.Photo = in.Photo
	current.Role = in.Role
	current.Updated = &now
	if in.IsActive != nil {
		current.IsActive = *in.IsActive
	}
	if in.RecoveryCode != nil {
		current.RecoveryCode = recoveryCodeValue(*in.RecoveryCode)
	}
	return s.repo.Update(ctx, current)
}

func (s *UserService) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	return affected(s.repo.Delete(ctx, id))
}

func (s *UserService) DeleteAll(ctx context.Context) (int64, error) {
	return s.repo.DeleteAll(ctx)
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (types.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]types.User, error) {
	return s.repo.FindAll(ctx)
}

func (s *UserService) FindByUsername(ctx context.Context, username string) ([]types.User, error) {
	return s.repo.FindByUsername(ctx, normalize(username))
}

func (s *UserService) FindByEmail(ctx context.Context, email string) ([]types.User, error) {
	return s.repo.FindByEmail(ctx, normalize(email))
}

// RecoverAccount returns the recovery view of the account registered under
// email, or nil when there is none.
func (s *UserService) RecoverAccount(ctx context.Context, email string) (*types.RecoverAccount, error) {
	users, err := s.repo.FindByEmail(ctx, normalize(email))
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	user := users[0]
	return &types.RecoverAccount{
		ID:           user.ID,
		Username:     user.Username,
		RecoveryCode: user.RecoveryCode,
	}, nil
}

func (s *UserService) Activate(ctx context.Context, id uuid.UUID) (int64, error) {
	return affected(s.repo.Activate(ctx, id, types.NowMillis()))
}

func (s *UserService) Disable(ctx context.Context, id uuid.UUID) (int64, error) {
	return affected(s.repo.Disable(ctx, id, types.NowMillis()))
}

func (s *UserService) UpdateMoneySpent(ctx context.Context, id uuid.UUID) (int64, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return 0, err
	}
	return s.repo.UpdateMoneySpent(ctx, id)
}

func (s *UserService) UpdatePublicationsNumber(ctx context.Context, id uuid.UUID) (int64, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return 0, err
	}
	return s.repo.UpdatePublicationsNumber(ctx, id)
}

// UpdateRecoveryCode stores code for the account. A zero code clears it.
func (s *UserService) UpdateRecoveryCode(ctx context.Context, id uuid.UUID, code int64) (int64, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return 0, err
	}
	return s.repo.UpdateRecoveryCode(ctx, id, recoveryCodeValue(code), types.NowMillis())
}

func (s *UserService) UpdatePassword(ctx context.Context, in types.PasswordUpdate) (int64, error) {
	if _, err := s.repo.FindByID(ctx, in.ID); err != nil {
		return 0, err
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return 0, err
	}
	return s.repo.UpdatePassword(ctx, in.ID, hash, types.NowMillis())
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", &validation.Error{
			Message: "password must be at most 72 bytes",
			Fields:  validation.Violations{"password": validation.ReasonType},
		}
	}
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func isPasswordHash(value string) bool {
	_, err := bcrypt.Cost([]byte(value))
	return err == nil
}

func newRecoveryCode() int64 {
	return recoveryCodeMin + rand.Int64N(recoveryCodeMax-recoveryCodeMin+1)
}

func recoveryCodeValue(code int64) *int64 {
	if code == 0 {
		return nil
	}
	return &code
}

