package session

import (
	"crypto/sha256"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/securecookie"
)

const CookieName = "session_id"

// CookieCodec signs and encrypts the session token carried in the
// session_id cookie.
type CookieCodec struct {
	codec  *securecookie.SecureCookie
	maxAge int
	secure bool
}

// NewCookieCodec derives the HMAC and AES keys from secret. secure marks the
// cookie Secure, which production deployments need behind TLS.
func NewCookieCodec(secret []byte, maxAge time.Duration, secure bool) *CookieCodec {
	hashKey := sha256.Sum256(append([]byte("inkwell-session-hash:"), secret...))
	blockKey := sha256.Sum256(append([]byte("inkwell-session-block:"), secret...))

	seconds := int(maxAge / time.Second)
	codec := securecookie.New(hashKey[:], blockKey[:])
	codec.MaxAge(seconds)

	return &CookieCodec{codec: codec, maxAge: seconds, secure: secure}
}

// Read returns the session token from the request, or "" when the cookie is
// missing or was not produced by this codec.
func (cc *CookieCodec) Read(c *gin.Context) string {
	raw, err := c.Cookie(CookieName)
	if err != nil || raw == "" {
		return ""
	}

	var token string
	if err := cc.codec.Decode(CookieName, raw, &token); err != nil {
		return ""
	}

	return token
}

func (cc *CookieCodec) Write(c *gin.Context, token string) error {
	encoded, err := cc.codec.Encode(CookieName, token)
	if err != nil {
		return err
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, encoded, cc.maxAge, "/", "", cc.secure, true)
	return nil
}

func (cc *CookieCodec) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, "", -1, "/", "", cc.secure, true)
}
