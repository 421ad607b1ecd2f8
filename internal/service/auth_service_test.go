package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spiritschool/booking-api/internal/models"
	"github.com/spiritschool/booking-api/pkg/config"
	appErrors "github.com/spiritschool/booking-api/pkg/errors"
)

type userRepoStub struct {
	byEmail map[string]*models.User
	created []*models.User
}

func (s *userRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *userRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	for _, user := range s.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	user.ID = "u-new"
	s.created = append(s.created, user)
	return nil
}

func authServiceForTest(users *userRepoStub) *AuthService {
	return NewAuthService(users, config.JWTConfig{Secret: "test-secret", Expiration: time.Hour}, nil, nil)
}

func TestAuthServiceSignupAndVerify(t *testing.T) {
	users := &userRepoStub{byEmail: map[string]*models.User{}}
	svc := authServiceForTest(users)

	resp, err := svc.Signup(context.Background(), SignupRequest{
		Email:    "Ada@Example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	require.Len(t, users.created, 1)
	assert.Equal(t, "ada@example.com", users.created[0].Email)
	assert.Equal(t, models.RoleStudent, users.created[0].Role)
	assert.NotEmpty(t, resp.AccessToken)

	claims, err := svc.VerifyToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-new", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestAuthServiceSignupDuplicateEmail(t *testing.T) {
	users := &userRepoStub{byEmail: map[string]*models.User{
		"ada@example.com": {ID: "u-1", Email: "ada@example.com"},
	}}
	svc := authServiceForTest(users)

	_, err := svc.Signup(context.Background(), SignupRequest{Email: "ada@example.com", Password: "s3cret-pass"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict.Code))
}

func TestAuthServiceLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	users := &userRepoStub{byEmail: map[string]*models.User{
		"ada@example.com": {ID: "u-1", Email: "ada@example.com", PasswordHash: string(hash), Role: models.RoleStudent},
	}}
	svc := authServiceForTest(users)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "ada@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "u-1", resp.User.ID)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	users := &userRepoStub{byEmail: map[string]*models.User{
		"ada@example.com": {ID: "u-1", Email: "ada@example.com", PasswordHash: string(hash)},
	}}
	svc := authServiceForTest(users)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "ada@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidCredentials.Code))
}

func TestAuthServiceVerifyTokenRejectsGarbage(t *testing.T) {
	svc := authServiceForTest(&userRepoStub{byEmail: map[string]*models.User{}})

	_, err := svc.VerifyToken("not.a.token")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized.Code))
}
