package security

import (
	"net/http"
	"time"
)

// CookieCarrier moves the session token between client and server. Set and
// Clear build their cookies from the same attributes so browsers match them.
type CookieCarrier struct {
	Name     string
	SameSite http.SameSite
	Secure   bool
	MaxAge   time.Duration
}

func (c CookieCarrier) cookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	}
}

func (c CookieCarrier) Set(w http.ResponseWriter, token string) {
	ck := c.cookie(token)
	ck.MaxAge = int(c.MaxAge / time.Second)
	ck.Expires = time.Now().Add(c.MaxAge)
	http.SetCookie(w, ck)
}

func (c CookieCarrier) Clear(w http.ResponseWriter) {
	ck := c.cookie("")
	ck.MaxAge = -1
	ck.Expires = time.Unix(0, 0)
	http.SetCookie(w, ck)
}

// Token returns the carried token, or "" when the request has none.
func (c CookieCarrier) Token(r *http.Request) string {
	ck, err := r.Cookie(c.Name)
	if err != nil {
		return ""
	}
	return ck.Value
}
