package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yamdb/yamdb/database"
	"github.com/yamdb/yamdb/database/model"
	"github.com/yamdb/yamdb/logger"
	"github.com/yamdb/yamdb/util/common"
	"github.com/yamdb/yamdb/util/crypto"
	"github.com/yamdb/yamdb/util/metrics"
	"github.com/yamdb/yamdb/util/validate"
	"github.com/yamdb/yamdb/web/access"
	"github.com/yamdb/yamdb/web/entity"
	"github.com/yamdb/yamdb/web/locale"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const accessTokenType = "access"

type AuthConfig struct {
	Secret   string
	TokenTTL time.Duration
	CodeTTL  time.Duration
}

// AccessClaims is the payload of an access token.
type AccessClaims struct {
	TokenType string `json:"token_type"`
	UserID    int    `json:"user_id"`
	Username  string `json:"username"`
	jwt.RegisteredClaims
}

// AuthService runs signup by emailed confirmation code and issues the
// bearer tokens that identify API callers.
type AuthService struct {
	secret   []byte
	tokenTTL time.Duration
	codes    *crypto.CodeGenerator
	mailer   Mailer
}

func NewAuthService(cfg AuthConfig, mailer Mailer) *AuthService {
	return &AuthService{
		secret:   []byte(cfg.Secret),
		tokenTTL: cfg.TokenTTL,
		codes:    crypto.NewCodeGenerator(cfg.Secret, cfg.CodeTTL),
		mailer:   mailer,
	}
}

// Signup registers the (username, email) pair, or finds it when it already
// exists, and mails a fresh confirmation code. The newest code replaces any
// earlier one.
func (s *AuthService) Signup(ctx context.Context, in entity.Signup) (entity.Signup, error) {
	if err := validate.Struct(in, false); err != nil {
		return entity.Signup{}, err
	}

	db := conn(ctx)
	user, err := s.getOrCreate(db, in)
	if err != nil {
		return entity.Signup{}, err
	}

	code := s.codes.MakeCode(user.StateFingerprint())
	hash, err := crypto.HashPasswordAsBcrypt(code)
	if err != nil {
		return entity.Signup{}, fmt.Errorf("hash confirmation code: %w", err)
	}
	if err := db.Model(user).UpdateColumn("confirmation_code", hash).Error; err != nil {
		return entity.Signup{}, fmt.Errorf("store confirmation code: %w", err)
	}
	metrics.ConfirmationCodesIssued.Inc()

	if err := s.mailer.Send(ctx, confirmationMail(user, code)); err != nil {
		return entity.Signup{}, fmt.Errorf("send confirmation code: %w", err)
	}
	logger.Debugf("confirmation code issued for %s", user.Username)
	return entity.Signup{Username: user.Username, Email: user.Email}, nil
}

func (s *AuthService) getOrCreate(db *gorm.DB, in entity.Signup) (*model.User, error) {
	var matches []model.User
	if err := db.Where("username = ? OR email = ?", in.Username, in.Email).Find(&matches).Error; err != nil {
		return nil, fmt.Errorf("lookup signup: %w", err)
	}
	v := common.NewValidationError()
	for i := range matches {
		u := &matches[i]
		if u.Username == in.Username && u.Email == in.Email {
			return u, nil
		}
		if u.Email == in.Email {
			v.Add("email", "email.mismatch")
		}
		if u.Username == in.Username {
			v.Add("username", "username.mismatch")
		}
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	user := &model.User{Username: in.Username, Email: in.Email, Role: model.RoleUser}
	if err := db.Create(user).Error; err != nil {
		if !database.IsDuplicateKey(err) {
			return nil, fmt.Errorf("create user: %w", err)
		}
		// lost a race with a concurrent signup of the same pair
		existing := &model.User{}
		if err := db.Where("username = ? AND email = ?", in.Username, in.Email).First(existing).Error; err != nil {
			return nil, common.Invalid("username", "username.taken")
		}
		return existing, nil
	}
	return user, nil
}

func confirmationMail(user *model.User, code string) Message {
	l := locale.NewLocalizer()
	data := map[string]any{"Username": user.Username, "Code": code}
	body := locale.Translate(l, "mail.body", data)
	if !strings.Contains(body, code) {
		body += "\n\n" + code
	}
	return Message{
		To:      user.Email,
		Subject: locale.Translate(l, "mail.subject", nil),
		Body:    body,
	}
}

// ObtainToken exchanges a confirmation code for an access token. The code
// is consumed on success.
func (s *AuthService) ObtainToken(ctx context.Context, in entity.TokenRequest) (entity.TokenResponse, error) {
	if err := validate.Struct(in, false); err != nil {
		return entity.TokenResponse{}, err
	}

	db := conn(ctx)
	user := &model.User{}
	if err := db.Where("username = ?", in.Username).First(user).Error; err != nil {
		if database.IsNotFound(err) {
			return entity.TokenResponse{}, common.NotFoundField("user", "username")
		}
		return entity.TokenResponse{}, fmt.Errorf("load user: %w", err)
	}

	invalid := func() (entity.TokenResponse, error) {
		metrics.FailedTokenAttempts.Inc()
		return entity.TokenResponse{}, common.Invalid("confirmation_code", "code.invalid")
	}
	if !crypto.CheckPasswordHash(user.ConfirmationCode, in.ConfirmationCode) ||
		!s.codes.CheckCode(user.StateFingerprint(), in.ConfirmationCode) {
		return invalid()
	}

	// only one concurrent exchange of the same code can clear it
	res := db.Model(&model.User{}).
		Where("id = ? AND confirmation_code = ?", user.Id, user.ConfirmationCode).
		UpdateColumn("confirmation_code", "")
	if res.Error != nil {
		return entity.TokenResponse{}, fmt.Errorf("consume confirmation code: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return invalid()
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return entity.TokenResponse{}, err
	}
	metrics.TokensIssued.Inc()
	return entity.TokenResponse{Token: token}, nil
}

// IssueToken signs an access token for the user.
func (s *AuthService) IssueToken(user *model.User) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		TokenType: accessTokenType,
		UserID:    user.Id,
		Username:  user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Authenticate verifies a bearer token and resolves its user. Any failure,
// including a deleted account, is common.ErrInvalidToken.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*access.Actor, error) {
	claims := &AccessClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		logger.Debug("rejected token:", err)
		return nil, common.ErrInvalidToken
	}
	if claims.TokenType != accessTokenType || claims.UserID == 0 {
		return nil, common.ErrInvalidToken
	}

	user := &model.User{}
	if err := conn(ctx).First(user, claims.UserID).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("load token user: %w", err)
	}
	return access.NewActor(user), nil
}
