package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dormweb/pkg/apperrors"
	"dormweb/pkg/database"
	"dormweb/pkg/models"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	return NewStore(db, time.Hour)
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

var student = &models.User{ID: "u1", Email: "an@dorm.vn", Name: "An", Role: models.Role{Name: "STUDENT"}}

func TestTokenClaims(t *testing.T) {
	exp := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	token := signedToken(t, jwt.MapClaims{"exp": exp.Unix(), "sub": "u42"})

	got, sub, ok := TokenClaims(token)

	require.True(t, ok)
	assert.True(t, exp.Equal(got))
	assert.Equal(t, "u42", sub)

	_, _, ok = TokenClaims("opaque-token")
	assert.False(t, ok)
}

func TestStoreCreateAndGet(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	sess, err := store.Create(ctx, "opaque-token", student)
	require.NoError(t, err)
	assert.Len(t, sess.ID, 36)
	assert.WithinDuration(t, time.Now().Add(time.Hour), sess.ExpiresAt, time.Minute)

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", got.AccessToken)
	assert.Equal(t, "STUDENT", got.Role)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Create(ctx, " ", student)
	assert.Error(t, err)
}

func TestStoreExpiryFromToken(t *testing.T) {
	store := setupStore(t)
	exp := time.Now().Add(10 * time.Minute).Truncate(time.Second)

	sess, err := store.Create(context.Background(), signedToken(t, jwt.MapClaims{"exp": exp.Unix(), "sub": "u9"}), nil)

	require.NoError(t, err)
	assert.True(t, exp.Equal(sess.ExpiresAt))
	assert.Equal(t, "u9", sess.UserID)
}

func TestStoreExpiredSessions(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	now := time.Now()
	store.now = func() time.Time { return now }

	live, err := store.Create(ctx, "a", student)
	require.NoError(t, err)
	stale, err := store.Create(ctx, "b", student)
	require.NoError(t, err)
	require.NoError(t, store.db.Model(&models.Session{}).Where("id = ?", stale.ID).
		Update("expires_at", now.Add(-time.Minute).UTC()).Error)

	_, err = store.Get(ctx, stale.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Create(ctx, "c", student)
	require.NoError(t, err)
	store.now = func() time.Time { return now.Add(2 * time.Hour) }

	n, err := store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	_, err = store.Get(ctx, live.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreUpdateUserAndDelete(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	sess, err := store.Create(ctx, "tok", student)
	require.NoError(t, err)

	require.NoError(t, store.UpdateUser(ctx, sess.ID, &models.User{ID: "u1", Name: "An Nguyễn", Role: models.Role{Name: "ADMIN"}}))
	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "An Nguyễn", got.Name)
	assert.Equal(t, "ADMIN", got.Role)

	require.NoError(t, store.Delete(ctx, sess.ID))
	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

// blockingLoader returns its user only when released, or fails when ctx is cancelled.
type blockingLoader struct {
	started chan string
	release map[string]chan *models.User
}

func newBlockingLoader(tokens ...string) *blockingLoader {
	l := &blockingLoader{started: make(chan string, len(tokens)), release: map[string]chan *models.User{}}
	for _, tok := range tokens {
		l.release[tok] = make(chan *models.User, 1)
	}
	return l
}

func (l *blockingLoader) GetProfile(ctx context.Context, token string) (*models.User, error) {
	l.started <- token
	select {
	case u := <-l.release[token]:
		return u, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestRefreshCancelsInFlight(t *testing.T) {
	store := setupStore(t)
	loader := newBlockingLoader("tok")
	p := NewProvider(store, loader, nil)

	st, err := p.SignIn(context.Background(), "tok", student)
	require.NoError(t, err)
	ctx := WithState(context.Background(), st)

	first := make(chan error, 1)
	go func() {
		_, err := p.Refresh(ctx)
		first <- err
	}()
	<-loader.started

	second := make(chan error, 1)
	go func() {
		_, err := p.Refresh(ctx)
		second <- err
	}()

	assert.ErrorIs(t, <-first, ErrSuperseded)
	<-loader.started
	loader.release["tok"] <- &models.User{ID: "u1", Name: "Mới", Role: models.Role{Name: "STUDENT"}}
	require.NoError(t, <-second)

	assert.Equal(t, "Mới", p.User(ctx).Name)
	assert.True(t, p.IsAuthenticated(ctx))
	assert.Equal(t, "tok", p.AccessToken(ctx))

	sess, err := store.Get(context.Background(), st.SessionID())
	require.NoError(t, err)
	assert.Equal(t, "Mới", sess.Name)
}

func TestSignOutAbortsRefresh(t *testing.T) {
	store := setupStore(t)
	loader := newBlockingLoader("tok")
	p := NewProvider(store, loader, nil)
	st, err := p.SignIn(context.Background(), "tok", student)
	require.NoError(t, err)
	ctx := WithState(context.Background(), st)

	done := make(chan error, 1)
	go func() {
		_, err := p.Refresh(ctx)
		done <- err
	}()
	<-loader.started

	require.NoError(t, p.SignOut(context.Background(), st))

	assert.ErrorIs(t, <-done, ErrSuperseded)
	assert.Nil(t, st.User())
	_, err = store.Get(context.Background(), st.SessionID())
	assert.ErrorIs(t, err, ErrNotFound)
}

type failingLoader struct{ err error }

func (f failingLoader) GetProfile(context.Context, string) (*models.User, error) { return nil, f.err }

func TestRefreshFailureClearsUser(t *testing.T) {
	p := NewProvider(setupStore(t), failingLoader{err: apperrors.Network("Network error: Unable to connect to server")}, nil)
	st, err := p.SignIn(context.Background(), "tok", student)
	require.NoError(t, err)
	ctx := WithState(context.Background(), st)

	_, err = p.Refresh(ctx)

	require.Error(t, err)
	assert.False(t, p.IsAuthenticated(ctx))
	assert.Equal(t, "Network error: Unable to connect to server", st.Err())

	p = NewProvider(setupStore(t), failingLoader{err: errors.New("")}, nil)
	st, err = p.SignIn(context.Background(), "tok", student)
	require.NoError(t, err)
	_, _ = p.Refresh(WithState(context.Background(), st))
	assert.Equal(t, ProfileErrorMessage, st.Err())
}

func TestRefreshAnonymous(t *testing.T) {
	p := NewProvider(setupStore(t), failingLoader{err: errors.New("unused")}, nil)

	user, err := p.Refresh(context.Background())

	assert.NoError(t, err)
	assert.Nil(t, user)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	p := NewProvider(setupStore(t), failingLoader{}, nil)
	cookie := CookieConfig{Name: "dormweb_session"}
	st, err := p.SignIn(context.Background(), "tok", student)
	require.NoError(t, err)

	r := gin.New()
	r.Use(Middleware(p, cookie))
	r.GET("/whoami", func(c *gin.Context) {
		if u := p.User(c.Request.Context()); u != nil {
			c.String(http.StatusOK, u.Name)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})
	r.GET("/private", RequireAuth("/login"), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "dormweb_session", Value: st.SessionID()})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "An", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "dormweb_session", Value: "stale"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "anonymous", w.Body.String())
	assert.Contains(t, w.Header().Get("Set-Cookie"), "Max-Age=0")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/private?tab=PENDING", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login?callbackUrl=%2Fprivate%3Ftab%3DPENDING", w.Header().Get("Location"))
}

func TestSetUserDropsInFlightRefresh(t *testing.T) {
	store := setupStore(t)
	loader := newBlockingLoader("tok")
	p := NewProvider(store, loader, nil)
	st, err := p.SignIn(context.Background(), "tok", student)
	require.NoError(t, err)
	ctx := WithState(context.Background(), st)

	done := make(chan error, 1)
	go func() {
		_, err := p.Refresh(ctx)
		done <- err
	}()
	<-loader.started

	require.NoError(t, p.SetUser(ctx, &models.User{ID: "u1", Name: "Đã sửa"}))

	assert.ErrorIs(t, <-done, ErrSuperseded)
	assert.Equal(t, "Đã sửa", st.User().Name)
}

func TestSetUserWritesOutsideProviderLock(t *testing.T) {
	store := setupStore(t)
	p := NewProvider(store, newBlockingLoader(), nil)
	st, err := p.SignIn(context.Background(), "tok", student)
	require.NoError(t, err)
	ctx := WithState(context.Background(), st)

	// Hold the write path so SetUser stops right before touching the store.
	p.persistMu.Lock()
	done := make(chan error, 1)
	go func() { done <- p.SetUser(ctx, &models.User{ID: "u1", Name: "Bình"}) }()
	assert.Eventually(t, func() bool { return st.User() != nil && st.User().Name == "Bình" }, time.Second, 5*time.Millisecond)

	signedOut := make(chan error, 1)
	go func() { signedOut <- p.SignOut(context.Background(), st) }()
	select {
	case err := <-signedOut:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sign out blocked behind a pending profile write")
	}

	p.persistMu.Unlock()
	require.NoError(t, <-done)
	_, err = store.Get(context.Background(), st.SessionID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStaleProfileWriteIsSkipped(t *testing.T) {
	store := setupStore(t)
	p := NewProvider(store, newBlockingLoader(), nil)
	st, err := p.SignIn(context.Background(), "tok", student)
	require.NoError(t, err)
	ctx := WithState(context.Background(), st)

	require.NoError(t, p.SetUser(ctx, &models.User{ID: "u1", Name: "Mới"}))
	p.mu.Lock()
	p.seq++
	older := p.seq
	p.seq++
	p.latest[st.SessionID()] = p.seq
	p.mu.Unlock()

	require.NoError(t, p.persist(ctx, st.SessionID(), older, &models.User{ID: "u1", Name: "Cũ"}))

	got, err := store.Get(ctx, st.SessionID())
	require.NoError(t, err)
	assert.Equal(t, "Mới", got.Name)
}
