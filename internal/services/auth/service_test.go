package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"linkregistry/internal/domain/models"
	"linkregistry/internal/mocks"
	"linkregistry/internal/repository/inmemory"
	"linkregistry/internal/services/password"
	"linkregistry/internal/services/token"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T, storage UserStorage) (*Service, *clock) {
	t.Helper()

	hasher, err := password.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := token.NewService(testSecret, token.DefaultTTL)
	require.NoError(t, err)

	svc, err := NewService(storage, hasher, tokens, nil)
	require.NoError(t, err)

	clk := &clock{now: time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)}
	svc.now = clk.Now
	return svc, clk
}

func registerUser(t *testing.T, svc *Service, role models.Role) models.User {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Иван",
		Email:    "  Ivan@Example.com ",
		Password: "correct-horse",
	}, role)
	require.NoError(t, err)
	return user
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, inmemory.NewStorage())

	user := registerUser(t, svc, models.RoleMain)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "ivan@example.com", user.Email)
	assert.Equal(t, models.RoleMain, user.Role)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)

	_, err := svc.Register(ctx, RegisterInput{Name: "Другой", Email: "IVAN@example.com", Password: "x"}, models.RoleSub)
	assert.ErrorIs(t, err, models.ErrDuplicate)

	tests := []struct {
		name  string
		input RegisterInput
		role  models.Role
	}{
		{name: "Пустое имя", input: RegisterInput{Email: "a@b.c", Password: "p"}, role: models.RoleSub},
		{name: "Пустой пароль", input: RegisterInput{Name: "a", Email: "a@b.c"}, role: models.RoleSub},
		{name: "Email без @", input: RegisterInput{Name: "a", Email: "abc", Password: "p"}, role: models.RoleSub},
		{name: "Неизвестная роль", input: RegisterInput{Name: "a", Email: "a@b.c", Password: "p"}, role: "admin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.input, tt.role)
			assert.ErrorIs(t, err, models.ErrInvalidData)
		})
	}
}

func TestService_Login_Success(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, inmemory.NewStorage())
	user := registerUser(t, svc, models.RoleSub)

	res, err := svc.Login(ctx, "IVAN@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, models.RoleSub, res.Role)
	assert.NotEmpty(t, res.Token)

	id, err := svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id.UserID)
	assert.Equal(t, models.RoleSub, id.Role)
}

func TestService_Login_UnknownUser(t *testing.T) {
	svc, _ := newTestService(t, inmemory.NewStorage())

	_, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestService_Login_LockoutAfterFiveFailures(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewStorage()
	svc, clk := newTestService(t, store)
	user := registerUser(t, svc, models.RoleMain)

	for want := 4; want >= 1; want-- {
		_, err := svc.Login(ctx, user.Email, "wrong")
		var credErr *models.CredentialsError
		require.ErrorAs(t, err, &credErr)
		assert.Equal(t, want, credErr.AttemptsRemaining)
		clk.Advance(time.Minute)
	}

	_, err := svc.Login(ctx, user.Email, "wrong")
	var lockErr *models.LockedError
	require.ErrorAs(t, err, &lockErr)
	assert.Equal(t, 24, lockErr.HoursRemaining())

	stored, err := store.UserGetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Login.FailedAttempts)
	require.NotNil(t, stored.Login.BlockedUntil)

	// шестая попытка с верным паролем тоже отклоняется, состояние не меняется
	clk.Advance(time.Hour)
	_, err = svc.Login(ctx, user.Email, "correct-horse")
	require.ErrorAs(t, err, &lockErr)
	assert.Equal(t, 23, lockErr.HoursRemaining())

	after, err := store.UserGetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.Login.Version, after.Login.Version)

	clk.Advance(LockoutDuration)
	_, err = svc.Login(ctx, user.Email, "correct-horse")
	require.NoError(t, err)

	after, err = store.UserGetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, after.Login.BlockedUntil)
	assert.Nil(t, after.Login.LastFailedAt)
	assert.Equal(t, 0, after.Login.FailedAttempts)
}

func TestService_Login_SuccessResetsCounter(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, inmemory.NewStorage())
	user := registerUser(t, svc, models.RoleMain)

	for i := 0; i < 3; i++ {
		_, err := svc.Login(ctx, user.Email, "wrong")
		require.ErrorIs(t, err, models.ErrInvalidCredentials)
	}

	_, err := svc.Login(ctx, user.Email, "correct-horse")
	require.NoError(t, err)

	_, err = svc.Login(ctx, user.Email, "wrong")
	var credErr *models.CredentialsError
	require.ErrorAs(t, err, &credErr)
	assert.Equal(t, 4, credErr.AttemptsRemaining)
}

func TestService_Login_CounterResetsNextDay(t *testing.T) {
	ctx := context.Background()
	svc, clk := newTestService(t, inmemory.NewStorage())
	user := registerUser(t, svc, models.RoleMain)

	clk.Advance(13 * time.Hour) // 23:00
	for i := 0; i < 4; i++ {
		_, err := svc.Login(ctx, user.Email, "wrong")
		require.ErrorIs(t, err, models.ErrInvalidCredentials)
	}

	clk.Advance(2 * time.Hour) // 01:00 следующего дня
	_, err := svc.Login(ctx, user.Email, "wrong")
	var credErr *models.CredentialsError
	require.ErrorAs(t, err, &credErr)
	assert.Equal(t, 4, credErr.AttemptsRemaining)
}

func TestService_Login_ConcurrentFailures(t *testing.T) {
	const workers = 10
	store := inmemory.NewStorage()
	svc, _ := newTestService(t, store)
	user := registerUser(t, svc, models.RoleMain)

	var (
		mu        sync.Mutex
		remaining = map[int]int{}
		locks     int
	)

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			_, err := svc.Login(context.Background(), user.Email, "wrong")

			mu.Lock()
			defer mu.Unlock()

			var credErr *models.CredentialsError
			switch {
			case errors.As(err, &credErr):
				remaining[credErr.AttemptsRemaining]++
			case errors.Is(err, models.ErrAccountLocked):
				locks++
			case errors.Is(err, models.ErrConflict):
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	// каждое значение счетчика наблюдалось не больше одного раза
	for value, count := range remaining {
		assert.Equal(t, 1, count, "attempts remaining %d reported twice", value)
	}

	stored, err := store.UserGetByID(context.Background(), user.ID)
	require.NoError(t, err)
	if len(remaining) == MaxFailedAttempts-1 {
		assert.NotNil(t, stored.Login.BlockedUntil)
		assert.GreaterOrEqual(t, locks, 1)
	}
}

func TestService_Login_RetriesOnConcurrentUpdate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStorage := mocks.NewMockUserStorage(ctrl)
	svc, _ := newTestService(t, mockStorage)

	digest, err := svc.hasher.Hash("secret")
	require.NoError(t, err)
	user := models.User{ID: "u1", Email: "a@b.c", PasswordHash: digest, Role: models.RoleMain}

	stale := user
	stale.Login = models.LoginState{Version: 1}
	fresh := user
	fresh.Login = models.LoginState{FailedAttempts: 2, LastFailedAt: ptr(svc.now().Add(-time.Minute)), Version: 2}

	gomock.InOrder(
		mockStorage.EXPECT().UserGetByEmail(gomock.Any(), "a@b.c").Return(stale, nil),
		mockStorage.EXPECT().UserCompareAndSetLoginState(gomock.Any(), "u1", int64(1), gomock.Any()).Return(false, nil),
		mockStorage.EXPECT().UserGetByEmail(gomock.Any(), "a@b.c").Return(fresh, nil),
		mockStorage.EXPECT().
			UserCompareAndSetLoginState(gomock.Any(), "u1", int64(2), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, _ int64, next models.LoginState) (bool, error) {
				assert.Equal(t, 3, next.FailedAttempts)
				return true, nil
			}),
	)

	_, err = svc.Login(context.Background(), "a@b.c", "wrong")
	var credErr *models.CredentialsError
	require.ErrorAs(t, err, &credErr)
	assert.Equal(t, 2, credErr.AttemptsRemaining)
}

func TestService_Login_StorageError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStorage := mocks.NewMockUserStorage(ctrl)
	svc, _ := newTestService(t, mockStorage)

	mockStorage.EXPECT().UserGetByEmail(gomock.Any(), "a@b.c").Return(models.User{}, errors.New("connection refused"))

	_, err := svc.Login(context.Background(), "a@b.c", "secret")
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestService_Authenticate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStorage := mocks.NewMockUserStorage(ctrl)
	svc, _ := newTestService(t, mockStorage)

	valid, _, err := svc.tokens.Issue("u1", models.RoleSub)
	require.NoError(t, err)
	deleted, _, err := svc.tokens.Issue("gone", models.RoleMain)
	require.NoError(t, err)

	tests := []struct {
		name      string
		token     string
		mockSetup func()
		wantID    models.Identity
		wantErr   error
	}{
		{
			name:  "Роль берется из хранилища",
			token: valid,
			mockSetup: func() {
				mockStorage.EXPECT().UserGetByID(gomock.Any(), "u1").
					Return(models.User{ID: "u1", Name: "A", Email: "a@b.c", Role: models.RoleMain}, nil)
			},
			wantID: models.Identity{UserID: "u1", Name: "A", Email: "a@b.c", Role: models.RoleMain},
		},
		{
			name:    "Мусор вместо токена",
			token:   "not-a-token",
			wantErr: models.ErrInvalidToken,
		},
		{
			name:  "Пользователь удален",
			token: deleted,
			mockSetup: func() {
				mockStorage.EXPECT().UserGetByID(gomock.Any(), "gone").Return(models.User{}, models.ErrUnfound)
			},
			wantErr: models.ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.mockSetup != nil {
				tt.mockSetup()
			}

			id, err := svc.Authenticate(context.Background(), tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
		})
	}
}
