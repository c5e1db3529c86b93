package session

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/legalqa/internal/pkg/jwt"
)

// Session ties a browser to the document it most recently uploaded.
type Session struct {
	UserID     string
	DocumentID string
}

func (s Session) Valid() bool {
	return s.UserID != "" && s.DocumentID != ""
}

type Store interface {
	Load(c *gin.Context) Session
	Save(c *gin.Context, s Session) error
	Clear(c *gin.Context)
}

type CookieOptions struct {
	Name   string
	Secret []byte
	TTL    time.Duration
	Secure bool
}

// CookieStore keeps the session in a signed, HttpOnly cookie.
type CookieStore struct {
	opts CookieOptions
}

func NewCookieStore(opts CookieOptions) *CookieStore {
	if opts.Name == "" {
		opts.Name = "legalqa_session"
	}
	if opts.TTL <= 0 {
		opts.TTL = 14 * 24 * time.Hour
	}
	return &CookieStore{opts: opts}
}

// Load returns an empty session when the cookie is missing, tampered with or expired.
func (s *CookieStore) Load(c *gin.Context) Session {
	raw, err := c.Cookie(s.opts.Name)
	if err != nil || raw == "" {
		return Session{}
	}
	claims, err := jwt.ParseToken(raw, s.opts.Secret)
	if err != nil {
		return Session{}
	}
	return Session{UserID: claims.UserID, DocumentID: claims.DocumentID}
}

func (s *CookieStore) Save(c *gin.Context, sess Session) error {
	token, err := jwt.GenerateToken(sess.UserID, sess.DocumentID, s.opts.Secret, s.opts.TTL)
	if err != nil {
		return err
	}
	s.write(c, token, int(s.opts.TTL/time.Second))
	return nil
}

func (s *CookieStore) Clear(c *gin.Context) {
	s.write(c, "", -1)
}

func (s *CookieStore) write(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.opts.Name, value, maxAge, "/", "", s.opts.Secure, true)
}
