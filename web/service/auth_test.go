package service

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yamdb/yamdb/database"
	"github.com/yamdb/yamdb/database/model"
	"github.com/yamdb/yamdb/util/common"
	"github.com/yamdb/yamdb/web/entity"
)

var codeRe = regexp.MustCompile(`[0-9a-z]+-[0-9a-f]{20}`)

func newAuth(t *testing.T) (*AuthService, *MemoryMailer) {
	t.Helper()
	mailer := &MemoryMailer{}
	return NewAuthService(AuthConfig{
		Secret:   "test-secret",
		TokenTTL: time.Hour,
		CodeTTL:  time.Hour,
	}, mailer), mailer
}

func mailedCode(t *testing.T, mailer *MemoryMailer, addr string) string {
	t.Helper()
	msg, ok := mailer.Last(addr)
	require.True(t, ok, "no mail sent to %s", addr)
	code := codeRe.FindString(msg.Body)
	require.NotEmpty(t, code, "no code in %q", msg.Body)
	return code
}

func TestSignupIsIdempotent(t *testing.T) {
	setup(t)
	auth, mailer := newAuth(t)
	ctx := t.Context()
	in := entity.Signup{Username: "bob", Email: "bob@example.com"}

	out, err := auth.Signup(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	_, err = auth.Signup(ctx, in)
	require.NoError(t, err)

	var n int64
	require.NoError(t, database.GetDB().Model(&model.User{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
	assert.Len(t, mailer.Outbox(), 2)

	msg, _ := mailer.Last("bob@example.com")
	assert.Equal(t, "YaMDb confirmation code", msg.Subject)
	assert.Contains(t, msg.Body, "bob")
}

func TestSignupValidation(t *testing.T) {
	setup(t)
	auth, mailer := newAuth(t)
	ctx := t.Context()
	_, err := auth.Signup(ctx, entity.Signup{Username: "bob", Email: "bob@example.com"})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   entity.Signup
		want map[string][]string
	}{
		{"empty", entity.Signup{}, map[string][]string{
			"username": {"validation.required"},
			"email":    {"validation.required"},
		}},
		{"reserved", entity.Signup{Username: "me", Email: "me@example.com"}, map[string][]string{
			"username": {"username.reserved"},
		}},
		{"bad email", entity.Signup{Username: "eve", Email: "not an email"}, map[string][]string{
			"email": {"email.invalid"},
		}},
		{"email of another user", entity.Signup{Username: "eve", Email: "bob@example.com"}, map[string][]string{
			"email": {"email.mismatch"},
		}},
		{"username with another email", entity.Signup{Username: "bob", Email: "eve@example.com"}, map[string][]string{
			"username": {"username.mismatch"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Signup(ctx, tt.in)
			assert.Equal(t, tt.want, fieldErrors(t, err))
		})
	}
	assert.Len(t, mailer.Outbox(), 1)
}

func TestSignupMailFailure(t *testing.T) {
	setup(t)
	auth, mailer := newAuth(t)
	mailer.Err = errors.New("smtp down")

	_, err := auth.Signup(t.Context(), entity.Signup{Username: "bob", Email: "bob@example.com"})
	require.Error(t, err)
	assert.False(t, common.IsValidation(err))
	assert.ErrorIs(t, err, mailer.Err)
}

func TestObtainToken(t *testing.T) {
	setup(t)
	auth, mailer := newAuth(t)
	ctx := t.Context()
	_, err := auth.Signup(ctx, entity.Signup{Username: "bob", Email: "bob@example.com"})
	require.NoError(t, err)
	code := mailedCode(t, mailer, "bob@example.com")

	_, err = auth.ObtainToken(ctx, entity.TokenRequest{})
	assert.Equal(t, map[string][]string{
		"username":          {"validation.required"},
		"confirmation_code": {"validation.required"},
	}, fieldErrors(t, err))

	_, err = auth.ObtainToken(ctx, entity.TokenRequest{Username: "nobody", ConfirmationCode: code})
	var nf *common.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "username", nf.Field)

	_, err = auth.ObtainToken(ctx, entity.TokenRequest{Username: "bob", ConfirmationCode: "0-00000000000000000000"})
	assert.Equal(t, map[string][]string{"confirmation_code": {"code.invalid"}}, fieldErrors(t, err))

	out, err := auth.ObtainToken(ctx, entity.TokenRequest{Username: "bob", ConfirmationCode: code})
	require.NoError(t, err)
	require.NotEmpty(t, out.Token)

	actor, err := auth.Authenticate(ctx, out.Token)
	require.NoError(t, err)
	assert.Equal(t, "bob", actor.Username)
	assert.EqualValues(t, model.RoleUser, actor.Role)

	_, err = auth.ObtainToken(ctx, entity.TokenRequest{Username: "bob", ConfirmationCode: code})
	assert.Equal(t, map[string][]string{"confirmation_code": {"code.invalid"}}, fieldErrors(t, err))
}

func TestCodeInvalidatedByProfileChange(t *testing.T) {
	setup(t)
	auth, mailer := newAuth(t)
	ctx := t.Context()
	_, err := auth.Signup(ctx, entity.Signup{Username: "bob", Email: "bob@example.com"})
	require.NoError(t, err)
	code := mailedCode(t, mailer, "bob@example.com")

	require.NoError(t, database.GetDB().Model(&model.User{}).Where("username = ?", "bob").
		UpdateColumn("bio", "changed").Error)

	_, err = auth.ObtainToken(ctx, entity.TokenRequest{Username: "bob", ConfirmationCode: code})
	assert.Equal(t, map[string][]string{"confirmation_code": {"code.invalid"}}, fieldErrors(t, err))
}

func TestAuthenticateRejects(t *testing.T) {
	setup(t)
	auth, _ := newAuth(t)
	ctx := t.Context()
	user := &model.User{Username: "bob", Email: "bob@example.com", Role: model.RoleUser}
	require.NoError(t, database.GetDB().Create(user).Error)

	other := NewAuthService(AuthConfig{Secret: "other-secret", TokenTTL: time.Hour}, &MemoryMailer{})
	foreign, err := other.IssueToken(user)
	require.NoError(t, err)

	expired := NewAuthService(AuthConfig{Secret: "test-secret", TokenTTL: -time.Minute}, &MemoryMailer{})
	stale, err := expired.IssueToken(user)
	require.NoError(t, err)

	refresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		TokenType: "refresh",
		UserID:    user.Id,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": foreign,
		"expired":      stale,
		"wrong type":   refresh,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := auth.Authenticate(ctx, token)
			assert.ErrorIs(t, err, common.ErrInvalidToken)
		})
	}

	valid, err := auth.IssueToken(user)
	require.NoError(t, err)
	require.NoError(t, database.GetDB().Delete(user).Error)
	_, err = auth.Authenticate(ctx, valid)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}
