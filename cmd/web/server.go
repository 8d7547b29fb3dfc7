package main

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"dormweb/pkg/apperrors"
	"dormweb/pkg/config"
	"dormweb/pkg/database"
	"dormweb/pkg/logging"
	"dormweb/pkg/payment"
	"dormweb/pkg/services"
	"dormweb/pkg/session"
	"dormweb/pkg/view"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

type server struct {
	cfg    *config.AppConfig
	logger *slog.Logger
	db     *gorm.DB

	rooms     *services.RoomService
	buildings *services.BuildingService
	bookings  *services.BookingService
	reviews   *services.ReviewService
	posts     *services.PostService
	users     *services.UserService

	sessions *session.Provider
	payments *payment.ReturnHandler
	cookie   session.CookieConfig
}

func loadTemplates() (*template.Template, error) {
	return template.New("").Funcs(view.FuncMap()).ParseFS(templatesFS, "templates/*.tmpl")
}

func (s *server) router() (*gin.Engine, error) {
	tmpl, err := loadTemplates()
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery(), logging.Middleware(s.logger))
	r.SetHTMLTemplate(tmpl)

	r.GET("/manage/health", s.healthCheck)

	pages := r.Group("/", session.Middleware(s.sessions, s.cookie))
	pages.GET("/", s.homeHandler)
	pages.GET("/buildings", s.buildingsHandler)
	pages.GET("/buildings/:id", s.buildingHandler)
	pages.GET("/rooms/:id", s.roomHandler)
	pages.POST("/rooms/:id/book", s.bookRoomHandler)
	pages.GET("/news", s.newsHandler)
	pages.GET("/news/:slug", s.postHandler)
	pages.GET("/login", s.loginPageHandler)
	pages.POST("/login", s.loginHandler)
	pages.GET("/register", s.registerPageHandler)
	pages.POST("/register", s.registerHandler)
	pages.POST("/logout", s.logoutHandler)
	pages.GET("/payment/vnpay-return", s.vnpayReturnHandler)
	pages.GET("/payment/success", s.paymentSuccessHandler)
	pages.GET("/payment/failed", s.paymentFailedHandler)

	private := pages.Group("/", session.RequireAuth("/login"))
	private.GET("/bookings", s.bookingsHandler)
	private.POST("/rooms/:id/reviews", s.createReviewHandler)
	private.GET("/profile", s.profileHandler)
	private.POST("/profile", s.updateProfileHandler)
	private.GET("/notifications", s.notificationsHandler)
	private.POST("/notifications/:id/read", s.markNotificationReadHandler)

	apiGroup := r.Group("/api", cors.New(s.corsConfig()), session.Middleware(s.sessions, s.cookie))
	apiGroup.GET("/rooms/:id", s.apiRoomHandler)
	apiGroup.POST("/upload/image", s.apiUploadImageHandler)

	r.NoRoute(session.Middleware(s.sessions, s.cookie), func(c *gin.Context) {
		s.renderError(c, http.StatusNotFound, "Không tìm thấy trang bạn yêu cầu.", "")
	})
	return r, nil
}

func (s *server) corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	if len(s.cfg.CORSOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.cfg.CORSOrigins
		cfg.AllowCredentials = true
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", "X-Request-ID")
	cfg.MaxAge = 12 * time.Hour
	return cfg
}

func (s *server) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := database.Ping(ctx, s.db); err != nil {
		s.logger.Error("health check failed", slog.Any("error", err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

// render adds the signed-in user to every page.
func (s *server) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	st := session.Current(c)
	data["CurrentUser"] = st.User()
	data["Authenticated"] = st.IsAuthenticated()
	data["RequestURI"] = c.Request.URL.RequestURI()
	c.HTML(status, name, data)
}

func (s *server) renderError(c *gin.Context, status int, message, retryURL string) {
	s.render(c, status, "error.tmpl", gin.H{
		"Title":    "Lỗi",
		"Message":  message,
		"RetryURL": retryURL,
	})
}

// statusFor picks the response code for a page that failed on err.
func statusFor(err error) int {
	appErr, ok := apperrors.As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch appErr.Kind {
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindValidation:
		if appErr.Status >= 400 && appErr.Status < 500 {
			return appErr.Status
		}
		return http.StatusBadRequest
	case apperrors.KindNetwork:
		return http.StatusBadGateway
	}
	if appErr.Status >= 500 && appErr.Status < 600 {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func queryInt(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 1 {
		return def
	}
	return n
}

// safeRedirect keeps callback URLs on this site.
func safeRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	return target
}
