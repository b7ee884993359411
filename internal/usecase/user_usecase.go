package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/qrave1/peerlink/internal/domain/models"
	"github.com/qrave1/peerlink/internal/domain/output"
	"github.com/qrave1/peerlink/internal/infra/adapters/postgres/repository"
)

var (
	// ErrEmailTaken is returned when signing up with a known email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrUserNotFound is returned when the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

type UserUsecase interface {
	CreateUser(ctx context.Context, email, password string) (*models.User, error)

	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListUsers(ctx context.Context) ([]output.UserInfo, error)

	ValidateCredentials(ctx context.Context, email, password string) (*models.User, error)
	GenerateJWT(user *models.User) (string, error)

	SendCallRequest(ctx context.Context, senderID, recipientID uuid.UUID) (*models.CallRequest, error)
	ListCallRequests(ctx context.Context, recipientID uuid.UUID) ([]*models.CallRequest, error)
}

type userUsecase struct {
	jwtSecret []byte

	userRepo        repository.UserRepository
	callRequestRepo repository.CallRequestRepository
}

func NewUserUsecase(
	jwtSecret []byte,
	userRepo repository.UserRepository,
	callRequestRepo repository.CallRequestRepository,
) UserUsecase {
	return &userUsecase{
		jwtSecret:       jwtSecret,
		userRepo:        userRepo,
		callRequestRepo: callRequestRepo,
	}
}

func (uc *userUsecase) CreateUser(ctx context.Context, email, password string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.NewUser()
	user.Email = email
	user.Password = string(hashedPassword)

	if err = uc.userRepo.CreateUser(user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}

		return nil, err
	}

	user.Password = ""
	return user, nil
}

func (uc *userUsecase) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := uc.userRepo.GetUserByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	return user, nil
}

func (uc *userUsecase) ListUsers(ctx context.Context) ([]output.UserInfo, error) {
	users, err := uc.userRepo.ListUsers()
	if err != nil {
		return nil, err
	}

	result := make([]output.UserInfo, 0, len(users))

	for _, user := range users {
		result = append(result, output.UserInfo{
			ID:    user.ID.String(),
			Email: user.Email,
		})
	}

	return result, nil
}

func (uc *userUsecase) ValidateCredentials(ctx context.Context, email, password string) (*models.User, error) {
	user, err := uc.userRepo.GetUserByEmail(email)
	if err != nil {
		return nil, err
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, err
	}

	user.Password = ""
	return user, nil
}

func (uc *userUsecase) GenerateJWT(user *models.User) (string, error) {
	claims := &jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 72)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(uc.jwtSecret)
}

func (uc *userUsecase) SendCallRequest(ctx context.Context, senderID, recipientID uuid.UUID) (*models.CallRequest, error) {
	if _, err := uc.userRepo.GetUserByID(recipientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	req := models.NewCallRequest(senderID, recipientID)

	if err := uc.callRequestRepo.Create(ctx, req); err != nil {
		return nil, err
	}

	return req, nil
}

func (uc *userUsecase) ListCallRequests(ctx context.Context, recipientID uuid.UUID) ([]*models.CallRequest, error) {
	return uc.callRequestRepo.ListForRecipient(ctx, recipientID)
}
