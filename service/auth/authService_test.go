package authsvc

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"librarium/model"
	userrepo "librarium/repository/user"
	"librarium/util/apperr"
	"librarium/util/hash"
	jwtutil "librarium/util/jwt"
)

const testSecret = "unit-test-secret"

type userRepoMock struct {
	userrepo.Repo
	create       func(u *model.User) error
	byEmail      func(email string) (*model.User, error)
	byID         func(id uuid.UUID) (*model.User, error)
	setTwoFactor func(id uuid.UUID, secret *string, enabled bool) error
}

func (m *userRepoMock) Create(_ context.Context, u *model.User) error { return m.create(u) }

func (m *userRepoMock) ByEmail(_ context.Context, email string) (*model.User, error) {
	return m.byEmail(email)
}

func (m *userRepoMock) ByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	return m.byID(id)
}

func (m *userRepoMock) SetTwoFactor(_ context.Context, id uuid.UUID, secret *string, enabled bool) error {
	return m.setTwoFactor(id, secret, enabled)
}

func activeUser(t *testing.T, password string) *model.User {
	t.Helper()
	hashed, err := hash.HashPassword(password)
	require.NoError(t, err)
	return &model.User{
		ID:           uuid.New(),
		Email:        "student@example.edu",
		PasswordHash: hashed,
		Role:         model.RoleStudent,
		IsActive:     true,
	}
}

func TestRegister(t *testing.T) {
	ur := &userRepoMock{
		create: func(u *model.User) error {
			u.ID = uuid.New()
			u.IsActive = true
			return nil
		},
	}
	svc := New(ur, testSecret)

	u, token, err := svc.Register(context.Background(), model.RegisterReq{
		Email:     "student@example.edu",
		Password:  "hunter22",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.NoError(t, err)
	require.Equal(t, model.RoleStudent, u.Role)
	require.True(t, hash.Check(u.PasswordHash, "hunter22"))

	claims, err := jwtutil.ParseAuth(token, testSecret)
	require.NoError(t, err)
	require.Equal(t, u.ID.String(), claims["sub"])
	require.Equal(t, string(model.RoleStudent), claims["role"])
}

func TestLogin(t *testing.T) {
	t.Run("valid credentials", func(t *testing.T) {
		u := activeUser(t, "hunter22")
		ur := &userRepoMock{
			byEmail: func(string) (*model.User, error) { return u, nil },
		}
		got, token, err := New(ur, testSecret).Login(context.Background(), model.LoginReq{
			Email:    u.Email,
			Password: "hunter22",
		})
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
		require.NotEmpty(t, token)
	})

	t.Run("wrong password", func(t *testing.T) {
		u := activeUser(t, "hunter22")
		ur := &userRepoMock{
			byEmail: func(string) (*model.User, error) { return u, nil },
		}
		_, _, err := New(ur, testSecret).Login(context.Background(), model.LoginReq{
			Email:    u.Email,
			Password: "wrong",
		})
		require.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	})

	t.Run("unknown email", func(t *testing.T) {
		ur := &userRepoMock{
			byEmail: func(string) (*model.User, error) { return nil, nil },
		}
		_, _, err := New(ur, testSecret).Login(context.Background(), model.LoginReq{
			Email:    "nobody@example.edu",
			Password: "hunter22",
		})
		require.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	})

	t.Run("deactivated account", func(t *testing.T) {
		u := activeUser(t, "hunter22")
		u.IsActive = false
		ur := &userRepoMock{
			byEmail: func(string) (*model.User, error) { return u, nil },
		}
		_, _, err := New(ur, testSecret).Login(context.Background(), model.LoginReq{
			Email:    u.Email,
			Password: "hunter22",
		})
		require.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	})

	t.Run("2fa enabled requires a code", func(t *testing.T) {
		u := activeUser(t, "hunter22")
		secret := "JBSWY3DPEHPK3PXP"
		u.TwoFactorEnabled = true
		u.TwoFactorSecret = &secret
		ur := &userRepoMock{
			byEmail: func(string) (*model.User, error) { return u, nil },
		}
		_, _, err := New(ur, testSecret).Login(context.Background(), model.LoginReq{
			Email:    u.Email,
			Password: "hunter22",
		})
		require.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
		require.EqualError(t, err, "totp code required")
	})

	t.Run("2fa with a valid code", func(t *testing.T) {
		u := activeUser(t, "hunter22")
		key, err := totp.Generate(totp.GenerateOpts{Issuer: "test", AccountName: u.Email})
		require.NoError(t, err)
		secret := key.Secret()
		u.TwoFactorEnabled = true
		u.TwoFactorSecret = &secret

		code, err := totp.GenerateCode(secret, time.Now())
		require.NoError(t, err)

		ur := &userRepoMock{
			byEmail: func(string) (*model.User, error) { return u, nil },
		}
		_, token, err := New(ur, testSecret).Login(context.Background(), model.LoginReq{
			Email:    u.Email,
			Password: "hunter22",
			TOTPCode: code,
		})
		require.NoError(t, err)
		require.NotEmpty(t, token)
	})
}

func TestTwoFactorEnrolment(t *testing.T) {
	u := activeUser(t, "hunter22")

	t.Run("enable stores the secret but keeps 2fa off", func(t *testing.T) {
		var storedSecret *string
		var storedEnabled bool
		ur := &userRepoMock{
			byID: func(uuid.UUID) (*model.User, error) { return u, nil },
			setTwoFactor: func(_ uuid.UUID, secret *string, enabled bool) error {
				storedSecret = secret
				storedEnabled = enabled
				return nil
			},
		}
		secret, url, err := New(ur, testSecret).Enable2FA(context.Background(), u.ID)
		require.NoError(t, err)
		require.NotEmpty(t, secret)
		require.Contains(t, url, "otpauth://")
		require.NotNil(t, storedSecret)
		require.Equal(t, secret, *storedSecret)
		require.False(t, storedEnabled)
	})

	t.Run("verify flips 2fa on with a valid code", func(t *testing.T) {
		key, err := totp.Generate(totp.GenerateOpts{Issuer: "test", AccountName: u.Email})
		require.NoError(t, err)
		secret := key.Secret()
		enrolled := *u
		enrolled.TwoFactorSecret = &secret

		var storedEnabled bool
		ur := &userRepoMock{
			byID: func(uuid.UUID) (*model.User, error) { return &enrolled, nil },
			setTwoFactor: func(_ uuid.UUID, _ *string, enabled bool) error {
				storedEnabled = enabled
				return nil
			},
		}

		code, err := totp.GenerateCode(secret, time.Now())
		require.NoError(t, err)
		require.NoError(t, New(ur, testSecret).Verify2FA(context.Background(), u.ID, code))
		require.True(t, storedEnabled)
	})

	t.Run("verify without enrolment", func(t *testing.T) {
		ur := &userRepoMock{
			byID: func(uuid.UUID) (*model.User, error) { return u, nil },
		}
		err := New(ur, testSecret).Verify2FA(context.Background(), u.ID, "123456")
		require.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
	})

	t.Run("verify with a bad code", func(t *testing.T) {
		secret := "JBSWY3DPEHPK3PXP"
		enrolled := *u
		enrolled.TwoFactorSecret = &secret
		ur := &userRepoMock{
			byID: func(uuid.UUID) (*model.User, error) { return &enrolled, nil },
		}
		err := New(ur, testSecret).Verify2FA(context.Background(), u.ID, "000000")
		require.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	})
}
