package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newContext(cookies ...*http.Cookie) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	c.Request = req
	return c, rec
}

func TestSessionValid(t *testing.T) {
	require.False(t, Session{}.Valid())
	require.False(t, Session{UserID: "demo_user"}.Valid())
	require.True(t, Session{UserID: "demo_user", DocumentID: "doc"}.Valid())
}

func TestCookieStoreRoundTrip(t *testing.T) {
	store := NewCookieStore(CookieOptions{Secret: []byte("secret")})
	c, rec := newContext()
	require.NoError(t, store.Save(c, Session{UserID: "demo_user", DocumentID: "doc-1"}))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "legalqa_session", cookies[0].Name)
	require.True(t, cookies[0].HttpOnly)

	next, _ := newContext(cookies[0])
	sess := store.Load(next)
	require.Equal(t, Session{UserID: "demo_user", DocumentID: "doc-1"}, sess)
}

func TestCookieStoreMissingCookie(t *testing.T) {
	store := NewCookieStore(CookieOptions{Secret: []byte("secret")})
	c, _ := newContext()
	require.False(t, store.Load(c).Valid())
}

func TestCookieStoreRejectsForeignSignature(t *testing.T) {
	issuer := NewCookieStore(CookieOptions{Secret: []byte("one")})
	c, rec := newContext()
	require.NoError(t, issuer.Save(c, Session{UserID: "demo_user", DocumentID: "doc-1"}))

	verifier := NewCookieStore(CookieOptions{Secret: []byte("two")})
	next, _ := newContext(rec.Result().Cookies()[0])
	require.Equal(t, Session{}, verifier.Load(next))
}

func TestCookieStoreExpired(t *testing.T) {
	store := NewCookieStore(CookieOptions{Secret: []byte("secret"), TTL: time.Nanosecond})
	c, rec := newContext()
	require.NoError(t, store.Save(c, Session{UserID: "demo_user", DocumentID: "doc-1"}))
	time.Sleep(1100 * time.Millisecond)

	next, _ := newContext(rec.Result().Cookies()[0])
	require.False(t, store.Load(next).Valid())
}

func TestCookieStoreClear(t *testing.T) {
	store := NewCookieStore(CookieOptions{Secret: []byte("secret")})
	c, rec := newContext()
	store.Clear(c)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "", cookies[0].Value)
	require.True(t, cookies[0].MaxAge < 0)
}
