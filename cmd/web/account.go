package main

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"dormweb/pkg/apperrors"
	"dormweb/pkg/services"
	"dormweb/pkg/session"
	"dormweb/pkg/view"
)

const (
	newsPageSize = 9

	msgLoginFailed     = "Đăng nhập thất bại. Vui lòng thử lại."
	msgRegisterFailed  = "Đăng ký thất bại. Vui lòng thử lại."
	msgRegistered      = "Đăng ký thành công! Vui lòng đăng nhập."
	msgProfileUpdated  = "Cập nhật thông tin thành công"
	msgProfileFailed   = "Không thể cập nhật thông tin"
	msgNotificationsKO = "Không thể tải thông báo"
	msgPostMissing     = "Không tìm thấy bài viết"
)

type loginForm struct {
	Email       string `form:"email"`
	Password    string `form:"password"`
	CallbackURL string `form:"callbackUrl"`
}

func (s *server) loginPageHandler(c *gin.Context) {
	data := gin.H{"Title": "Đăng nhập", "CallbackURL": safeRedirect(c.DefaultQuery("callbackUrl", "/"))}
	if c.Query("registered") != "" {
		data["Notice"] = msgRegistered
	}
	s.render(c, http.StatusOK, "login.tmpl", data)
}

func (s *server) loginHandler(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		s.logger.Debug("login form bind failed", slog.Any("error", err))
	}
	callback := safeRedirect(form.CallbackURL)

	token, user, err := s.users.Login(c.Request.Context(), services.LoginInput{Email: form.Email, Password: form.Password})
	if err != nil {
		s.render(c, statusFor(err), "login.tmpl", gin.H{
			"Title":       "Đăng nhập",
			"Email":       form.Email,
			"CallbackURL": callback,
			"Error":       apperrors.UserMessage(err, msgLoginFailed),
		})
		return
	}

	st, err := s.sessions.SignIn(c.Request.Context(), token, user)
	if err != nil {
		s.logger.Error("failed to store session", slog.Any("error", err))
		s.renderError(c, http.StatusInternalServerError, msgLoginFailed, "/login")
		return
	}
	session.SetCookie(c, s.cookie, st)
	c.Redirect(http.StatusSeeOther, callback)
}

type registerForm struct {
	Name     string `form:"name"`
	Email    string `form:"email"`
	Password string `form:"password"`
	Phone    string `form:"phone"`
}

func (s *server) registerPageHandler(c *gin.Context) {
	s.render(c, http.StatusOK, "register.tmpl", gin.H{"Title": "Đăng ký"})
}

func (s *server) registerHandler(c *gin.Context) {
	var form registerForm
	if err := c.ShouldBind(&form); err != nil {
		s.logger.Debug("register form bind failed", slog.Any("error", err))
	}
	err := s.users.Register(c.Request.Context(), services.RegisterInput{
		Name:     form.Name,
		Email:    form.Email,
		Password: form.Password,
		Phone:    form.Phone,
	})
	if err != nil {
		s.render(c, statusFor(err), "register.tmpl", gin.H{
			"Title": "Đăng ký",
			"Form":  form,
			"Error": apperrors.UserMessage(err, msgRegisterFailed),
		})
		return
	}
	c.Redirect(http.StatusSeeOther, "/login?registered=1")
}

func (s *server) logoutHandler(c *gin.Context) {
	if err := s.sessions.SignOut(c.Request.Context(), session.Current(c)); err != nil {
		s.logger.Error("failed to delete session", slog.Any("error", err))
	}
	session.ClearCookie(c, s.cookie)
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *server) profileHandler(c *gin.Context) {
	user, err := s.sessions.Refresh(c.Request.Context())
	data := gin.H{"Title": "Hồ sơ cá nhân", "User": user}
	if err != nil {
		data["User"] = session.Current(c).User()
		data["Error"] = session.Current(c).Err()
	}
	if c.Query("updated") != "" {
		data["Notice"] = msgProfileUpdated
	}
	s.render(c, http.StatusOK, "profile.tmpl", data)
}

type profileForm struct {
	Name      string `form:"name"`
	Phone     string `form:"phone"`
	Address   string `form:"address"`
	StudentID string `form:"studentId"`
}

func (s *server) updateProfileHandler(c *gin.Context) {
	var form profileForm
	if err := c.ShouldBind(&form); err != nil {
		s.logger.Debug("profile form bind failed", slog.Any("error", err))
	}
	ctx := c.Request.Context()
	user, err := s.users.UpdateProfile(ctx, session.Current(c).AccessToken(), services.ProfileInput{
		Name:      form.Name,
		Phone:     form.Phone,
		Address:   form.Address,
		StudentID: form.StudentID,
	})
	if err != nil {
		s.render(c, statusFor(err), "profile.tmpl", gin.H{
			"Title": "Hồ sơ cá nhân",
			"User":  session.Current(c).User(),
			"Error": apperrors.UserMessage(err, msgProfileFailed),
		})
		return
	}
	if err := s.sessions.SetUser(ctx, user); err != nil {
		s.logger.Error("failed to store updated profile", slog.Any("error", err))
	}
	c.Redirect(http.StatusSeeOther, "/profile?updated=1")
}

func (s *server) notificationsHandler(c *gin.Context) {
	list, err := s.users.Notifications(c.Request.Context(), session.Current(c).AccessToken())
	if err != nil {
		s.render(c, statusFor(err), "notifications.tmpl", gin.H{
			"Title":    "Thông báo",
			"Error":    apperrors.UserMessage(err, msgNotificationsKO),
			"RetryURL": c.Request.URL.RequestURI(),
		})
		return
	}
	unread := 0
	for _, n := range list {
		if !n.Read {
			unread++
		}
	}
	s.render(c, http.StatusOK, "notifications.tmpl", gin.H{
		"Title":         "Thông báo",
		"Notifications": list,
		"Unread":        unread,
	})
}

func (s *server) markNotificationReadHandler(c *gin.Context) {
	err := s.users.MarkNotificationRead(c.Request.Context(), c.Param("id"), session.Current(c).AccessToken())
	if err != nil {
		s.renderError(c, statusFor(err), apperrors.UserMessage(err, msgNotificationsKO), "/notifications")
		return
	}
	c.Redirect(http.StatusSeeOther, "/notifications")
}

func (s *server) newsHandler(c *gin.Context) {
	ctx := c.Request.Context()
	data := gin.H{"Title": "Tin tức"}

	page, err := s.posts.List(ctx, queryInt(c, "page", 1), newsPageSize)
	if err != nil {
		data["Error"] = apperrors.UserMessage(err, msgNewsFailed)
		data["RetryURL"] = c.Request.URL.RequestURI()
		s.render(c, statusFor(err), "news.tmpl", data)
		return
	}
	data["Posts"] = page.Posts
	data["Pagination"] = view.Paginate("/news", page.Meta.Page, page.Meta.TotalPages, c.Request.URL.Query())

	if categories, err := s.posts.Categories(ctx); err == nil {
		data["Categories"] = categories
	} else {
		s.logger.Warn("post categories unavailable", slog.Any("error", err))
	}
	s.render(c, http.StatusOK, "news.tmpl", data)
}

func (s *server) postHandler(c *gin.Context) {
	ctx := c.Request.Context()
	post, err := s.posts.BySlug(ctx, c.Param("slug"))
	if err != nil {
		if apperrors.IsNotFound(err) {
			s.renderError(c, http.StatusNotFound, msgPostMissing, "")
			return
		}
		s.renderError(c, statusFor(err), apperrors.UserMessage(err, msgNewsFailed), c.Request.URL.RequestURI())
		return
	}
	recent, err := s.posts.Recent(ctx)
	if err != nil {
		s.logger.Warn("recent posts unavailable", slog.Any("error", err))
	}
	s.render(c, http.StatusOK, "post.tmpl", gin.H{
		"Title":  post.Title,
		"Post":   post,
		"Recent": recent,
	})
}
