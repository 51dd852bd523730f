package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)
	assert.True(t, CheckPassword(hash, "s3cret-pass"))
	assert.False(t, CheckPassword(hash, "s3cret-pasS"))
	assert.False(t, CheckPassword("not-a-hash", "s3cret-pass"))
	assert.False(t, PasswordNeedsRehash(hash))
	assert.True(t, PasswordNeedsRehash("not-a-hash"))

	_, err = HashPassword(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestTokenRoundTrip(t *testing.T) {
	token, expiresAt, err := GenerateToken(42, "ada")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(TokenTTL()), expiresAt, time.Minute)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, claims.UserID)
	assert.Equal(t, "ada", claims.Username)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, tokenIssuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenTTLDefault(t *testing.T) {
	assert.Equal(t, defaultTokenTTL, TokenTTL())
}

func TestTokenRejected(t *testing.T) {
	_, _, err := signToken(0, "nobody", time.Now(), time.Hour)
	assert.Error(t, err)

	expired, _, err := signToken(1, "ada", time.Now().Add(-2*time.Hour), time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(expired)
	assert.Error(t, err)

	valid, _, err := GenerateToken(1, "ada")
	require.NoError(t, err)
	parts := strings.Split(valid, ".")
	require.Len(t, parts, 3)
	_, err = ParseToken(parts[0] + "." + parts[1] + ".AAAA")
	assert.Error(t, err)

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("utils-test-secret"))
	require.NoError(t, err)
	_, err = ParseToken(foreign)
	assert.Error(t, err)

	mismatched, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "2",
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("utils-test-secret"))
	require.NoError(t, err)
	_, err = ParseToken(mismatched)
	assert.Error(t, err)
}

func TestBlacklistInMemory(t *testing.T) {
	SetRedis(nil)

	BlacklistToken("tok-a", time.Now().Add(time.Hour))
	BlacklistToken("tok-expired", time.Now().Add(-time.Second))

	assert.True(t, IsTokenBlacklisted("tok-a"))
	assert.False(t, IsTokenBlacklisted("tok-expired"))
	assert.False(t, IsTokenBlacklisted("tok-b"))
}

func TestBlacklistReadsRedis(t *testing.T) {
	mock := withRedisMock(t)
	mock.ExpectExists(revokedTokenPrefix + "tok-r").SetVal(1)

	assert.True(t, IsTokenBlacklisted("tok-r"))
}

func TestRegistrationThrottle(t *testing.T) {
	mock := withRedisMock(t)

	mock.ExpectExists("reg:ban:10.0.0.1").SetVal(1)
	mock.ExpectSetNX("reg:cooldown:10.0.0.2", "1", 10*time.Second).SetVal(false)
	mock.ExpectGet("reg:succday:10.0.0.3:" + time.Now().Format("20060102")).SetVal("5")

	assert.True(t, RegistrationIsBanned("10.0.0.1"))
	assert.False(t, RegistrationCooldownTry("10.0.0.2"))
	assert.False(t, RegistrationDailyLimitCheck("10.0.0.3"))
}

func TestRegistrationFailsOpenWithoutRedis(t *testing.T) {
	SetRedis(nil)

	assert.False(t, RegistrationIsBanned("10.0.0.1"))
	assert.True(t, RegistrationCooldownTry("10.0.0.1"))
	assert.True(t, RegistrationDailyLimitCheck("10.0.0.1"))
	RegistrationFailRecord("10.0.0.1")
	RegistrationDailyIncrement("10.0.0.1")
}

func TestCaptchaRedisStore(t *testing.T) {
	mock := withRedisMock(t)
	mock.ExpectGetDel("captcha:abc").SetVal("31415")
	mock.ExpectGetDel("captcha:abc").RedisNil()

	assert.True(t, redisStore.Verify("abc", "31415", true))
	assert.False(t, redisStore.Verify("abc", "31415", true))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "<b>bold</b>", Sanitize(`<b>bold</b><script>alert(1)</script>`))
	assert.Equal(t, "Optics 101", SanitizePlain(`  <i>Optics</i> 101 `))
}
