// Package crypto provides password-style hashing and confirmation code issuing.
package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// HashPasswordAsBcrypt generates a bcrypt hash of the given secret.
func HashPasswordAsBcrypt(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

// CheckPasswordHash verifies if the given secret matches the bcrypt hash.
func CheckPasswordHash(hash, password string) bool {
	if hash == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CodeGenerator issues confirmation codes of the form "<ts36>-<mac>". The MAC
// covers an account state fingerprint, so a code stops verifying as soon as
// the account changes.
type CodeGenerator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewCodeGenerator(secret string, ttl time.Duration) *CodeGenerator {
	return &CodeGenerator{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock replaces the time source.
func (g *CodeGenerator) WithClock(now func() time.Time) *CodeGenerator {
	g.now = now
	return g
}

// MakeCode returns a fresh code for the given account state.
func (g *CodeGenerator) MakeCode(state string) string {
	return g.makeAt(state, g.now().Unix())
}

// CheckCode reports whether code was issued for state and has not expired.
func (g *CodeGenerator) CheckCode(state, code string) bool {
	tsPart, _, ok := strings.Cut(code, "-")
	if !ok {
		return false
	}
	ts, err := strconv.ParseInt(tsPart, 36, 64)
	if err != nil || ts < 0 {
		return false
	}
	if !hmac.Equal([]byte(g.makeAt(state, ts)), []byte(code)) {
		return false
	}
	return g.now().Sub(time.Unix(ts, 0)) <= g.ttl
}

func (g *CodeGenerator) makeAt(state string, ts int64) string {
	stamp := strconv.FormatInt(ts, 36)
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(state))
	mac.Write([]byte{0})
	mac.Write([]byte(stamp))
	return stamp + "-" + hex.EncodeToString(mac.Sum(nil))[:20]
}
