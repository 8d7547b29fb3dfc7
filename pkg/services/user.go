package services

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"dormweb/pkg/api"
	"dormweb/pkg/apperrors"
	"dormweb/pkg/logging"
	"dormweb/pkg/mapper"
	"dormweb/pkg/models"
)

type LoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

var loginMessages = map[string]string{
	"Email.required":    "Email is required",
	"Email.email":       "Email is invalid",
	"Password.required": "Password is required",
}

type RegisterInput struct {
	Name     string `validate:"required,max=100"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
	Phone    string `validate:"omitempty,numeric,min=9,max=12"`
}

var registerMessages = map[string]string{
	"Name":           "Name is required",
	"Email.required": "Email is required",
	"Email.email":    "Email is invalid",
	"Password":       "Password must be at least 6 characters",
	"Phone":          "Phone number is invalid",
}

type ProfileInput struct {
	Name      string `validate:"required,max=100"`
	Phone     string `validate:"omitempty,numeric,min=9,max=12"`
	Address   string `validate:"max=255"`
	StudentID string `validate:"max=32"`
}

var profileMessages = map[string]string{
	"Name":      "Name is required",
	"Phone":     "Phone number is invalid",
	"Address":   "Address is too long",
	"StudentID": "Student ID is too long",
}

type UserService struct {
	client *api.Client
	logger *slog.Logger
}

func NewUserService(client *api.Client, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &UserService{client: client, logger: logger.With(slog.String("component", "user"))}
}

// Login exchanges credentials for a bearer token and loads the profile the
// token belongs to.
func (s *UserService) Login(ctx context.Context, in LoginInput) (string, *models.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validateStruct(in, loginMessages); err != nil {
		return "", nil, err
	}
	raw, err := s.client.Login(ctx, api.LoginRequest{Email: in.Email, Password: in.Password})
	if err != nil {
		return "", nil, apperrors.Translate(err, "User", "signing in")
	}
	token := mapper.AccessToken(mapper.DecodeEnvelope(raw))
	if token == "" {
		return "", nil, apperrors.Validation("Invalid email or password")
	}
	user, err := s.GetProfile(ctx, token)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) error {
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(in, registerMessages); err != nil {
		return err
	}
	_, err := s.client.Register(ctx, api.RegisterRequest{Email: in.Email, Password: in.Password, Name: in.Name, Phone: in.Phone})
	if err != nil {
		return apperrors.Translate(err, "User", "registering")
	}
	return nil
}

func (s *UserService) GetProfile(ctx context.Context, token string) (*models.User, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	raw, err := s.client.GetProfile(ctx, token)
	if err != nil {
		return nil, apperrors.Translate(err, "User", "fetching profile")
	}
	user := mapper.MapUser(mapper.DecodeEnvelope(raw).First())
	if user == nil {
		return nil, apperrors.NotFound("User", "")
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, token string, in ProfileInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(in, profileMessages); err != nil {
		return nil, err
	}
	if err := requireToken(token); err != nil {
		return nil, err
	}
	raw, err := s.client.UpdateProfile(ctx, token, api.ProfileUpdate{
		Name:      in.Name,
		Phone:     strings.TrimSpace(in.Phone),
		Address:   strings.TrimSpace(in.Address),
		StudentID: strings.TrimSpace(in.StudentID),
	})
	if err != nil {
		return nil, apperrors.Translate(err, "User", "updating profile")
	}
	if user := mapper.MapUser(mapper.DecodeEnvelope(raw).First()); user != nil && user.ID != "" {
		return user, nil
	}
	return s.GetProfile(ctx, token)
}

func (s *UserService) Notifications(ctx context.Context, token string) ([]models.Notification, error) {
	if strings.TrimSpace(token) == "" {
		return []models.Notification{}, nil
	}
	raw, err := s.client.GetNotifications(ctx, token)
	if err != nil {
		return nil, apperrors.Translate(err, "Notification", "fetching notifications")
	}
	return mapper.MapNotifications(mapper.DecodeEnvelope(raw)), nil
}

func (s *UserService) MarkNotificationRead(ctx context.Context, id, token string) error {
	if err := requireID(id, "Notification ID is required"); err != nil {
		return err
	}
	if err := requireToken(token); err != nil {
		return err
	}
	if _, err := s.client.MarkNotificationRead(ctx, id, token); err != nil {
		return apperrors.Translate(err, "Notification", "marking notification "+id+" as read")
	}
	return nil
}

// UploadImage stores an image on the backend and returns its public URL.
func (s *UserService) UploadImage(ctx context.Context, token, fileName, contentType string, content io.Reader) (string, error) {
	if err := requireToken(token); err != nil {
		return "", err
	}
	if strings.TrimSpace(fileName) == "" {
		return "", apperrors.Validation("Image file is required")
	}
	raw, err := s.client.UploadImage(ctx, token, fileName, contentType, content)
	if err != nil {
		return "", apperrors.Translate(err, "Image", "uploading image")
	}
	record := mapper.DecodeEnvelope(raw).First()
	url := record.Str("url", "secure_url", "imageUrl")
	if url == "" {
		return "", apperrors.Server("Invalid response format: missing image url", 502)
	}
	return url, nil
}
