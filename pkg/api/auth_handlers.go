package api

import (
	"net/http"
	"time"

	"stockwatch/pkg/apperr"
	"stockwatch/pkg/auth"

	"github.com/gin-gonic/gin"
)

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) registerHandler(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.bindError(c, err)
		return
	}
	if _, err := s.accounts.Register(c.Request.Context(), req.Username, req.Password); err != nil {
		s.respondError(c, err)
		return
	}
	success(c, http.StatusCreated, nil)
}

func (s *Server) loginHandler(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.bindError(c, err)
		return
	}
	ctx := c.Request.Context()
	user, err := s.accounts.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	pair, err := s.tokens.Issue(ctx, auth.Identity{UserID: user.ID, Username: user.Username})
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.setCookie(c, accessCookie, pair.Access, pair.AccessExpiresAt)
	s.setCookie(c, refreshCookie, pair.Refresh, pair.RefreshExpiresAt)
	success(c, http.StatusOK, nil)
}

// refreshHandler exchanges the refresh cookie for a new access cookie.
func (s *Server) refreshHandler(c *gin.Context) {
	refresh, _ := c.Cookie(refreshCookie)
	if refresh == "" {
		s.respondError(c, apperr.Unauthenticated("refresh token is required"))
		return
	}
	access, exp, err := s.tokens.Rotate(c.Request.Context(), refresh)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.setCookie(c, accessCookie, access, exp)
	success(c, http.StatusOK, nil)
}

// logoutHandler revokes the refresh token. Both cookies are cleared whatever the outcome.
func (s *Server) logoutHandler(c *gin.Context) {
	s.clearCookie(c, accessCookie)
	s.clearCookie(c, refreshCookie)

	refresh, _ := c.Cookie(refreshCookie)
	if refresh == "" {
		s.respondError(c, apperr.Unauthenticated("refresh token not found"))
		return
	}
	if err := s.tokens.Revoke(c.Request.Context(), refresh); err != nil {
		s.respondError(c, err)
		return
	}
	success(c, http.StatusResetContent, nil)
}

func (s *Server) userInfoHandler(c *gin.Context) {
	success(c, http.StatusOK, gin.H{"username": identity(c).Username})
}

func (s *Server) setCookie(c *gin.Context, name, value string, expires time.Time) {
	maxAge := int(time.Until(expires).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", s.cookies.Domain, s.cookies.Secure, true)
}

func (s *Server) clearCookie(c *gin.Context, name string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, "", -1, "/", s.cookies.Domain, s.cookies.Secure, true)
}
