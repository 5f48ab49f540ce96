package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	customjwt "github.com/kruglovdev/subscription-billing/internal/lib/jwt"
	"github.com/kruglovdev/subscription-billing/internal/lib/password"
	"github.com/kruglovdev/subscription-billing/internal/models"
	services "github.com/kruglovdev/subscription-billing/internal/services/auth"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) RegisterUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *UserRepoMock) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// Мок для jwt.Maker
type JwtMakerMock struct {
	mock.Mock
}

func (m *JwtMakerMock) GenerateToken(subject string) (string, error) {
	args := m.Called(subject)
	return args.String(0), args.Error(1)
}

func (m *JwtMakerMock) ParseToken(tokenStr string) (*customjwt.Claims, error) {
	args := m.Called(tokenStr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customjwt.Claims), args.Error(1)
}

func TestAuthService_Register(t *testing.T) {
	repo := new(UserRepoMock)
	maker := new(JwtMakerMock)
	svc := services.NewAuthService(repo, maker)

	repo.On("RegisterUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		// пароль никогда не сохраняется в открытом виде
		return u.Username == "alice" &&
			u.Email == "alice@example.com" &&
			u.PasswordHash != "password123" &&
			password.CompareHash(u.PasswordHash, "password123") == nil
	})).Return("uid-1", nil).Once()

	uid, err := svc.Register(context.Background(), "alice@example.com", "alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", uid)

	repo.AssertExpectations(t)
}

func TestAuthService_Login(t *testing.T) {
	hash, err := password.GetHash("password123")
	require.NoError(t, err)

	tests := []struct {
		name       string
		username   string
		rawPass    string
		setupMocks func(*UserRepoMock, *JwtMakerMock)
		wantToken  string
		wantErr    error
	}{
		{
			name:     "success",
			username: "alice",
			rawPass:  "password123",
			setupMocks: func(repo *UserRepoMock, maker *JwtMakerMock) {
				repo.On("GetUserByUsername", mock.Anything, "alice").
					Return(&models.User{Username: "alice", PasswordHash: hash}, nil).Once()
				maker.On("GenerateToken", "alice").Return("signed-token", nil).Once()
			},
			wantToken: "signed-token",
		},
		{
			name:     "unknown user",
			username: "ghost",
			rawPass:  "password123",
			setupMocks: func(repo *UserRepoMock, _ *JwtMakerMock) {
				repo.On("GetUserByUsername", mock.Anything, "ghost").
					Return(nil, errors.New("user not found")).Once()
			},
			wantErr: services.ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			username: "alice",
			rawPass:  "wrong-password",
			setupMocks: func(repo *UserRepoMock, _ *JwtMakerMock) {
				repo.On("GetUserByUsername", mock.Anything, "alice").
					Return(&models.User{Username: "alice", PasswordHash: hash}, nil).Once()
			},
			wantErr: services.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			maker := new(JwtMakerMock)
			tt.setupMocks(repo, maker)

			svc := services.NewAuthService(repo, maker)
			token, err := svc.Login(context.Background(), tt.username, tt.rawPass)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, token)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantToken, token)
			}

			repo.AssertExpectations(t)
			maker.AssertExpectations(t)
		})
	}
}
