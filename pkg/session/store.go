package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"dormweb/pkg/models"
)

var ErrNotFound = errors.New("session not found")

// Store persists sessions in the database.
type Store struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

func NewStore(db *gorm.DB, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{db: db, ttl: ttl, now: time.Now}
}

// TokenClaims reads the expiry and subject of a bearer token without checking
// its signature. The backend owns the signing key; the values only decide how
// long this process keeps the session.
func TokenClaims(token string) (exp time.Time, subject string, ok bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, "", false
	}
	if v, found := claims["exp"]; found {
		switch n := v.(type) {
		case float64:
			exp = time.Unix(int64(n), 0)
		case int64:
			exp = time.Unix(n, 0)
		}
	}
	for _, key := range []string{"sub", "userId", "id"} {
		if s, isStr := claims[key].(string); isStr && s != "" {
			subject = s
			break
		}
	}
	return exp, subject, true
}

func (s *Store) expiry(token string) time.Time {
	if exp, _, ok := TokenClaims(token); ok && !exp.IsZero() {
		return exp
	}
	return s.now().Add(s.ttl)
}

// Create stores a new session for token and the user it belongs to.
func (s *Store) Create(ctx context.Context, token string, user *models.User) (*models.Session, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("access token is required")
	}
	sess := &models.Session{
		ID:          uuid.NewString(),
		AccessToken: token,
		ExpiresAt:   s.expiry(token).UTC(),
	}
	if user != nil {
		applyUser(sess, user)
	}
	if sess.UserID == "" {
		if _, sub, ok := TokenClaims(token); ok {
			sess.UserID = sub
		}
	}
	if err := s.db.WithContext(ctx).Create(sess).Error; err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// Get returns a live session. Expired rows are removed and reported as ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*models.Session, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	var sess models.Session
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if !sess.ExpiresAt.After(s.now()) {
		_ = s.Delete(ctx, id)
		return nil, ErrNotFound
	}
	return &sess, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Session{}).Error; err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes every session past its expiry and returns how many went.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", s.now().UTC()).Delete(&models.Session{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// UpdateUser refreshes the identity columns of a session.
func (s *Store) UpdateUser(ctx context.Context, id string, user *models.User) error {
	var sess models.Session
	applyUser(&sess, user)
	err := s.db.WithContext(ctx).Model(&models.Session{}).Where("id = ?", id).Updates(map[string]interface{}{
		"user_id": sess.UserID,
		"email":   sess.Email,
		"name":    sess.Name,
		"role":    sess.Role,
	}).Error
	if err != nil {
		return fmt.Errorf("update session user: %w", err)
	}
	return nil
}

func applyUser(sess *models.Session, user *models.User) {
	sess.UserID = user.ID
	sess.Email = user.Email
	sess.Name = user.Name
	sess.Role = user.Role.Name
}
