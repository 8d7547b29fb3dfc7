package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"dormweb/pkg/apperrors"
	"dormweb/pkg/logging"
	"dormweb/pkg/models"
)

var ErrSuperseded = errors.New("profile refresh superseded")

const ProfileErrorMessage = "Không thể tải thông tin người dùng"

// State is the request-scoped view of the signed-in user.
type State struct {
	mu      sync.RWMutex
	session *models.Session
	user    *models.User
	err     string
}

func newState(sess *models.Session) *State {
	st := &State{session: sess}
	if sess != nil && sess.UserID != "" {
		st.user = &models.User{
			ID:    sess.UserID,
			Email: sess.Email,
			Name:  sess.Name,
			Role:  models.Role{Name: sess.Role},
		}
	}
	return st
}

func (s *State) SessionID() string {
	if s == nil || s.session == nil {
		return ""
	}
	return s.session.ID
}

func (s *State) AccessToken() string {
	if s == nil || s.session == nil {
		return ""
	}
	return s.session.AccessToken
}

func (s *State) ExpiresAt() time.Time {
	if s == nil || s.session == nil {
		return time.Time{}
	}
	return s.session.ExpiresAt
}

func (s *State) User() *models.User {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Err is the message of the last failed profile refresh, if any.
func (s *State) Err() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *State) IsAuthenticated() bool {
	return s.User() != nil && s.AccessToken() != ""
}

func (s *State) set(user *models.User, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	s.err = errMsg
}

type stateKey struct{}

func WithState(ctx context.Context, st *State) context.Context {
	return context.WithValue(ctx, stateKey{}, st)
}

// FromContext returns the request's state, or an anonymous one.
func FromContext(ctx context.Context) *State {
	if st, ok := ctx.Value(stateKey{}).(*State); ok && st != nil {
		return st
	}
	return &State{}
}

type ProfileLoader interface {
	GetProfile(ctx context.Context, token string) (*models.User, error)
}

type inflight struct {
	cancel context.CancelFunc
	seq    uint64
}

// Provider is the one place handlers ask who is signed in.
type Provider struct {
	store  *Store
	users  ProfileLoader
	logger *slog.Logger

	mu       sync.Mutex
	seq      uint64
	inflight map[string]inflight
	latest   map[string]uint64 // seq of the newest user committed per session

	persistMu sync.Mutex
}

func NewProvider(store *Store, users ProfileLoader, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Provider{
		store:    store,
		users:    users,
		logger:   logger.With(slog.String("component", "session")),
		inflight: make(map[string]inflight),
		latest:   make(map[string]uint64),
	}
}

func (p *Provider) Store() *Store { return p.store }

func (p *Provider) User(ctx context.Context) *models.User {
	return FromContext(ctx).User()
}

func (p *Provider) AccessToken(ctx context.Context) string {
	return FromContext(ctx).AccessToken()
}

func (p *Provider) IsAuthenticated(ctx context.Context) bool {
	return FromContext(ctx).IsAuthenticated()
}

// Load builds the state for a session id; unknown or expired ids give an anonymous state.
func (p *Provider) Load(ctx context.Context, id string) *State {
	sess, err := p.store.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			p.logger.Error("failed to load session", slog.Any("error", err))
		}
		return &State{}
	}
	return newState(sess)
}

// SignIn stores a session for a freshly issued token.
func (p *Provider) SignIn(ctx context.Context, token string, user *models.User) (*State, error) {
	sess, err := p.store.Create(ctx, token, user)
	if err != nil {
		return nil, err
	}
	st := newState(sess)
	if user != nil {
		st.set(user, "")
	}
	p.logger.Info("signed in", slog.String("user_id", sess.UserID))
	return st, nil
}

// SignOut aborts any refresh for the session and deletes it.
func (p *Provider) SignOut(ctx context.Context, st *State) error {
	id := st.SessionID()
	if id == "" {
		return nil
	}
	p.mu.Lock()
	if cur, ok := p.inflight[id]; ok {
		cur.cancel()
		delete(p.inflight, id)
	}
	delete(p.latest, id)
	p.mu.Unlock()
	st.set(nil, "")
	return p.store.Delete(ctx, id)
}

// Refresh reloads the profile for the session in ctx. Starting a refresh
// cancels the one already running for the same session, and a cancelled
// refresh never writes its result.
func (p *Provider) Refresh(ctx context.Context) (*models.User, error) {
	st := FromContext(ctx)
	id, token := st.SessionID(), st.AccessToken()
	if id == "" || token == "" {
		st.set(nil, "")
		return nil, nil
	}

	rctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.mu.Lock()
	if prev, ok := p.inflight[id]; ok {
		prev.cancel()
	}
	p.seq++
	seq := p.seq
	p.inflight[id] = inflight{cancel: cancel, seq: seq}
	p.mu.Unlock()

	user, err := p.users.GetProfile(rctx, token)

	p.mu.Lock()
	cur, ok := p.inflight[id]
	if !ok || cur.seq != seq || rctx.Err() != nil {
		p.mu.Unlock()
		return nil, ErrSuperseded
	}
	delete(p.inflight, id)
	if err != nil {
		st.set(nil, apperrors.UserMessage(err, ProfileErrorMessage))
		p.mu.Unlock()
		p.logger.Warn("profile refresh failed", slog.String("session_id", id), slog.Any("error", err))
		return nil, err
	}
	p.latest[id] = seq
	st.set(user, "")
	p.mu.Unlock()

	if err := p.persist(ctx, id, seq, user); err != nil {
		p.logger.Error("failed to persist refreshed user", slog.String("session_id", id), slog.Any("error", err))
	}
	return user, nil
}

// SetUser records a profile the caller already holds, such as the response
// of a profile update. A refresh still in flight is dropped.
func (p *Provider) SetUser(ctx context.Context, user *models.User) error {
	st := FromContext(ctx)
	id := st.SessionID()
	if id == "" || user == nil {
		return nil
	}
	p.mu.Lock()
	if cur, ok := p.inflight[id]; ok {
		cur.cancel()
		delete(p.inflight, id)
	}
	p.seq++
	seq := p.seq
	p.latest[id] = seq
	st.set(user, "")
	p.mu.Unlock()

	return p.persist(ctx, id, seq, user)
}

// persist writes user to the store unless a newer user was committed for the
// session meanwhile. Writes are ordered by persistMu, not by p.mu.
func (p *Provider) persist(ctx context.Context, id string, seq uint64, user *models.User) error {
	p.persistMu.Lock()
	defer p.persistMu.Unlock()

	p.mu.Lock()
	stale := p.latest[id] != seq
	p.mu.Unlock()
	if stale {
		return nil
	}
	if err := p.store.UpdateUser(ctx, id, user); err != nil {
		return err
	}
	p.mu.Lock()
	if p.latest[id] == seq {
		delete(p.latest, id)
	}
	p.mu.Unlock()
	return nil
}

// Sweep deletes expired sessions; it is run on a ticker.
func (p *Provider) Sweep(ctx context.Context) {
	n, err := p.store.DeleteExpired(ctx)
	if err != nil {
		p.logger.Error("session sweep failed", slog.Any("error", err))
		return
	}
	if n > 0 {
		p.logger.Info("expired sessions removed", slog.Int64("count", n))
	}
}
