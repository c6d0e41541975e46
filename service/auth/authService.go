package authsvc

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"

	"librarium/model"
	userrepo "librarium/repository/user"
	"librarium/util/apperr"
	"librarium/util/hash"
	jwtutil "librarium/util/jwt"
)

const tokenTTL = 24 * time.Hour

type Service interface {
	Register(ctx context.Context, req model.RegisterReq) (*model.User, string, error)
	Login(ctx context.Context, req model.LoginReq) (*model.User, string, error)
	Profile(ctx context.Context, userID uuid.UUID) (*model.User, error)

	// Enable2FA starts TOTP enrolment: a secret is stored but 2FA stays
	// off until Verify2FA confirms a valid code.
	Enable2FA(ctx context.Context, userID uuid.UUID) (secret, otpauthURL string, err error)
	Verify2FA(ctx context.Context, userID uuid.UUID, code string) error
}

type service struct {
	ur     userrepo.Repo
	secret string
}

func New(ur userrepo.Repo, jwtSecret string) Service {
	return &service{ur: ur, secret: jwtSecret}
}

func (s *service) Register(ctx context.Context, req model.RegisterReq) (*model.User, string, error) {
	hashed, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}

	u := &model.User{
		Email:        req.Email,
		PasswordHash: hashed,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         model.RoleStudent,
		Phone:        req.Phone,
		Address:      req.Address,
	}
	if err := s.ur.Create(ctx, u); err != nil {
		return nil, "", apperr.FromPg(err, "email already registered")
	}

	token, err := jwtutil.Issue(s.secret, u.ID, u.Email, u.Role, tokenTTL)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *service) Login(ctx context.Context, req model.LoginReq) (*model.User, string, error) {
	u, err := s.ur.ByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", err
	}
	if u == nil || !u.IsActive {
		return nil, "", apperr.Unauthorized("invalid credentials")
	}
	if !hash.Check(u.PasswordHash, req.Password) {
		return nil, "", apperr.Unauthorized("invalid credentials")
	}

	if u.TwoFactorEnabled {
		if u.TwoFactorSecret == nil {
			return nil, "", apperr.InvalidState("two-factor state is inconsistent")
		}
		if req.TOTPCode == "" {
			return nil, "", apperr.Unauthorized("totp code required")
		}
		if !totp.Validate(req.TOTPCode, *u.TwoFactorSecret) {
			return nil, "", apperr.Unauthorized("invalid totp code")
		}
	}

	token, err := jwtutil.Issue(s.secret, u.ID, u.Email, u.Role, tokenTTL)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *service) Profile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	u, err := s.ur.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFound("user not found")
	}
	return u, nil
}

func (s *service) Enable2FA(ctx context.Context, userID uuid.UUID) (string, string, error) {
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return "", "", err
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "librarium",
		AccountName: u.Email,
	})
	if err != nil {
		return "", "", err
	}

	secret := key.Secret()
	if err := s.ur.SetTwoFactor(ctx, userID, &secret, false); err != nil {
		return "", "", err
	}
	return secret, key.URL(), nil
}

func (s *service) Verify2FA(ctx context.Context, userID uuid.UUID, code string) error {
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}
	if u.TwoFactorSecret == nil {
		return apperr.InvalidState("two-factor enrolment not started")
	}
	if !totp.Validate(code, *u.TwoFactorSecret) {
		return apperr.Unauthorized("invalid totp code")
	}
	return s.ur.SetTwoFactor(ctx, userID, u.TwoFactorSecret, true)
}
