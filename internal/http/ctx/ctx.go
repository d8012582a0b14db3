package ctx

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/valyala/fasthttp"

	dbpkg "flightdash/internal/db"
)

const (
	UserKey          = "user"
	SessionCookieKey = "session_user"
)

func SetUser(ctx *fasthttp.RequestCtx, user *dbpkg.User) {
	ctx.SetUserValue(UserKey, user)
}

func UserFromCtx(ctx *fasthttp.RequestCtx) (*dbpkg.User, bool) {
	v := ctx.UserValue(UserKey)
	if v == nil {
		return nil, false
	}
	u, ok := v.(*dbpkg.User)
	return u, ok && u != nil
}

// SignSession returns the cookie value for username: "<username>.<hex hmac>".
func SignSession(secret, username string) string {
	return username + "." + sessionMAC(secret, username)
}

// VerifySession returns the username carried by a cookie value produced by
// SignSession with the same secret.
func VerifySession(secret, value string) (string, bool) {
	i := strings.LastIndexByte(value, '.')
	if i <= 0 || i == len(value)-1 {
		return "", false
	}
	username, mac := value[:i], value[i+1:]
	if !hmac.Equal([]byte(mac), []byte(sessionMAC(secret, username))) {
		return "", false
	}
	return username, true
}

func sessionMAC(secret, username string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(username))
	return hex.EncodeToString(h.Sum(nil))
}
