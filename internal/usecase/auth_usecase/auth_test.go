package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"ecshop/internal/domain/model"
	"ecshop/internal/repository"
	auth "ecshop/internal/usecase/auth_usecase"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// =====================
// Mocks
// =====================

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepo) FindByID(ctx context.Context, userID string) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepo) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]model.User)
	return users, args.Error(1)
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

type fixedID struct{ id string }

func (g fixedID) NewID() string { return g.id }

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

var testNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newRegister(users *MockUserRepo, allowRoles bool) *auth.RegisterUserUsecase {
	return auth.NewRegisterUserUsecase(users, auth.NewBcryptPasswordHasher(bcrypt.MinCost), fixedID{"u-1"}, fixedClock{testNow}, allowRoles)
}

func validRegister() auth.RegisterUserInput {
	return auth.RegisterUserInput{
		FirstName: "Ana",
		LastName:  "Perez",
		Email:     "  Ana@Example.com ",
		Password:  "correct-horse-battery",
	}
}

// =====================
// Register
// =====================

func TestRegister_Success(t *testing.T) {
	users := new(MockUserRepo)
	users.On("FindByEmail", mock.Anything, "ana@example.com").Return(nil, repository.ErrUserNotFound).Once()
	users.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.ID == "u-1" &&
			u.Email == "ana@example.com" &&
			u.PasswordHash != "" && u.PasswordHash != "correct-horse-battery" &&
			len(u.Roles) == 1 && u.Roles[0] == model.RoleUser &&
			u.CreatedAt.Equal(testNow)
	})).Return(nil).Once()

	out, err := newRegister(users, false).Execute(context.Background(), validRegister())
	require.NoError(t, err)
	assert.Equal(t, "u-1", out.User.ID)
	assert.Equal(t, "Ana", out.User.FirstName)
	assert.Empty(t, out.User.PasswordHash)

	users.AssertExpectations(t)
}

func TestRegister_InputErrors(t *testing.T) {
	cases := []struct {
		name   string
		modify func(in *auth.RegisterUserInput)
		want   error
	}{
		{"missing name", func(in *auth.RegisterUserInput) { in.LastName = " " }, auth.ErrNameRequired},
		{"bad email", func(in *auth.RegisterUserInput) { in.Email = "not-an-email" }, auth.ErrInvalidEmailFormat},
		{"short password", func(in *auth.RegisterUserInput) { in.Password = "short" }, auth.ErrPasswordTooShort},
		{"weak password", func(in *auth.RegisterUserInput) { in.Password = "Password123" }, auth.ErrWeakPassword},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			users := new(MockUserRepo)
			in := validRegister()
			tc.modify(&in)

			_, err := newRegister(users, false).Execute(context.Background(), in)
			assert.ErrorIs(t, err, tc.want)
			users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestRegister_EmailTaken(t *testing.T) {
	users := new(MockUserRepo)
	users.On("FindByEmail", mock.Anything, "ana@example.com").Return(&model.User{ID: "u-0"}, nil).Once()

	_, err := newRegister(users, false).Execute(context.Background(), validRegister())
	assert.ErrorIs(t, err, auth.ErrEmailAlreadyExists)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_ConcurrentInsertConflict(t *testing.T) {
	users := new(MockUserRepo)
	users.On("FindByEmail", mock.Anything, "ana@example.com").Return(nil, repository.ErrUserNotFound).Once()
	users.On("Create", mock.Anything, mock.Anything).Return(repository.ErrConflict).Once()

	_, err := newRegister(users, false).Execute(context.Background(), validRegister())
	assert.ErrorIs(t, err, auth.ErrEmailAlreadyExists)
}

func TestRegister_RolesIgnoredUnlessAllowed(t *testing.T) {
	users := new(MockUserRepo)
	users.On("FindByEmail", mock.Anything, mock.Anything).Return(nil, repository.ErrUserNotFound).Once()
	users.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return len(u.Roles) == 1 && u.Roles[0] == model.RoleUser
	})).Return(nil).Once()

	in := validRegister()
	in.Roles = []string{"admin"}
	_, err := newRegister(users, false).Execute(context.Background(), in)
	require.NoError(t, err)
	users.AssertExpectations(t)
}

func TestRegister_RolesHonoredWhenAllowed(t *testing.T) {
	users := new(MockUserRepo)
	users.On("FindByEmail", mock.Anything, mock.Anything).Return(nil, repository.ErrUserNotFound).Once()
	users.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return assert.ObjectsAreEqual([]model.Role{model.RoleAdmin, model.RoleUser}, u.Roles)
	})).Return(nil).Once()

	in := validRegister()
	in.Roles = []string{" ADMIN ", "user", "admin"}
	_, err := newRegister(users, true).Execute(context.Background(), in)
	require.NoError(t, err)
	users.AssertExpectations(t)
}

func TestRegister_UnknownRole(t *testing.T) {
	users := new(MockUserRepo)

	in := validRegister()
	in.Roles = []string{"superuser"}
	_, err := newRegister(users, true).Execute(context.Background(), in)
	assert.ErrorIs(t, err, auth.ErrUnknownRole)
}

// =====================
// Login
// =====================

func newLogin(t *testing.T, users *MockUserRepo) *auth.LoginUsecase {
	t.Helper()
	issuer, err := auth.NewJWTIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	return auth.NewLoginUsecase(users, auth.NewBcryptPasswordVerifier(), issuer, fixedClock{time.Now()})
}

func storedUser(t *testing.T, password string) *model.User {
	t.Helper()
	hash, err := auth.NewBcryptPasswordHasher(bcrypt.MinCost).Hash(password)
	require.NoError(t, err)
	return &model.User{
		ID:           "u-1",
		Email:        "ana@example.com",
		PasswordHash: hash,
		FirstName:    "Ana",
		LastName:     "Perez",
		Roles:        []model.Role{model.RoleUser},
	}
}

func TestLogin_Success(t *testing.T) {
	users := new(MockUserRepo)
	users.On("FindByEmail", mock.Anything, "ana@example.com").Return(storedUser(t, "correct-horse-battery"), nil).Once()

	out, err := newLogin(t, users).Execute(context.Background(), auth.LoginInput{
		Email:    "ANA@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)
	assert.Equal(t, "u-1", out.User.ID)
	assert.Empty(t, out.User.PasswordHash)
	require.NotEmpty(t, out.Token)

	tok, err := jwt.Parse(out.Token, func(*jwt.Token) (interface{}, error) { return []byte("test-secret"), nil })
	require.NoError(t, err)
	claims := tok.Claims.(jwt.MapClaims)
	assert.Equal(t, "u-1", claims["sub"])
	assert.Equal(t, float64(out.ExpiresAt.Unix()), claims["exp"])
}

func TestLogin_UnknownEmail(t *testing.T) {
	users := new(MockUserRepo)
	users.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, repository.ErrUserNotFound).Once()

	_, err := newLogin(t, users).Execute(context.Background(), auth.LoginInput{Email: "nobody@example.com", Password: "whatever-123"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLogin_WrongPassword(t *testing.T) {
	users := new(MockUserRepo)
	users.On("FindByEmail", mock.Anything, "ana@example.com").Return(storedUser(t, "correct-horse-battery"), nil).Once()

	_, err := newLogin(t, users).Execute(context.Background(), auth.LoginInput{Email: "ana@example.com", Password: "wrong-horse-battery"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLogin_RepositoryError(t *testing.T) {
	users := new(MockUserRepo)
	boom := errors.New("db gone")
	users.On("FindByEmail", mock.Anything, "ana@example.com").Return(nil, boom).Once()

	_, err := newLogin(t, users).Execute(context.Background(), auth.LoginInput{Email: "ana@example.com", Password: "x"})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, auth.ErrInvalidCredentials)
}

// =====================
// JWTIssuer
// =====================

func TestJWTIssuer_Config(t *testing.T) {
	_, err := auth.NewJWTIssuer("", time.Hour)
	assert.Error(t, err)

	_, err = auth.NewJWTIssuer("secret", 0)
	assert.Error(t, err)
}

func TestJWTIssuer_ExpiredTokenRejected(t *testing.T) {
	issuer, err := auth.NewJWTIssuer("secret", time.Minute)
	require.NoError(t, err)

	signed, expiresAt, err := issuer.Issue("u-1", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, expiresAt.Before(time.Now()))

	_, err = jwt.Parse(signed, func(*jwt.Token) (interface{}, error) { return []byte("secret"), nil })
	assert.Error(t, err)
}
