package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
)

// CookieSigner HMAC-signs cookie values so a tampered or forged cookie
// reads as absent. The token cookie is the only session-like state the
// server hands out; signing it is what makes it a capability.
type CookieSigner struct {
	secret []byte
}

func NewCookieSigner(secret string) *CookieSigner {
	return &CookieSigner{secret: []byte(secret)}
}

func (c *CookieSigner) sign(value string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(value))
	sig := mac.Sum(nil)
	return base64.RawURLEncoding.EncodeToString([]byte(value)) + "." + base64.RawURLEncoding.EncodeToString(sig)
}

func (c *CookieSigner) verify(signed string) (string, bool) {
	encValue, encSig, ok := strings.Cut(signed, ".")
	if !ok {
		return "", false
	}
	value, err := base64.RawURLEncoding.DecodeString(encValue)
	if err != nil {
		return "", false
	}
	sig, err := base64.RawURLEncoding.DecodeString(encSig)
	if err != nil {
		return "", false
	}
	mac := hmac.New(sha256.New, c.secret)
	mac.Write(value)
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return "", false
	}
	return string(value), true
}

// Set writes a signed, HTTP-only cookie.
func (c *CookieSigner) Set(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    c.sign(value),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read returns the verified value of the named cookie, or false when
// the cookie is missing, unsigned, or tampered with.
func (c *CookieSigner) Read(r *http.Request, name string) (string, bool) {
	cookie, err := r.Cookie(name)
	if err != nil {
		return "", false
	}
	return c.verify(cookie.Value)
}

// Clear expires the named cookie.
func (c *CookieSigner) Clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
