package shipping

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"freightchat/pkg/events"
	"freightchat/pkg/freightapi"
	"freightchat/pkg/store"

	"github.com/golang-jwt/jwt/v5"
)

// Fixed storage keys for the cached identity.
const (
	StorageTokenKey = "freightchat_token"
	StorageUserKey  = "freightchat_user"
)

// StoredSession is the raw cached identity: the token and the JSON-encoded user.
type StoredSession struct {
	Token string
	User  []byte
}

// SessionStore is ephemeral storage for the cached identity. Load returns
// (nil, nil) when nothing is stored.
type SessionStore interface {
	Save(ctx context.Context, s StoredSession) error
	Load(ctx context.Context) (*StoredSession, error)
	Clear(ctx context.Context) error
}

// AuthInput is the login/registration form.
type AuthInput struct {
	Mode   freightapi.AuthMode
	UserID string
	Name   string
	Email  string
}

// sessionRefreshTasks run after every authentication or restore.
var sessionRefreshTasks = []RefreshTask{RefreshProfile, RefreshDocuments, RefreshShipments, RefreshMetadata}

// Authenticate logs in or registers. Secondary fetches are scheduled and never
// affect the result.
func (c *Controller) Authenticate(ctx context.Context, in AuthInput) (*store.Session, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	mode := in.Mode
	if mode != freightapi.ModeRegister {
		mode = freightapi.ModeLogin
	}

	c.mu.Lock()
	if err := c.acquireLocked(store.LaneAuth); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	epoch := c.st.epoch
	c.mu.Unlock()

	res, err := c.backend.Authenticate(ctx, mode, freightapi.AuthRequest{
		UserID: userID,
		Name:   strings.TrimSpace(in.Name),
		Email:  strings.TrimSpace(in.Email),
	})

	c.mu.Lock()
	if !c.releaseLocked(store.LaneAuth, epoch) {
		c.mu.Unlock()
		return nil, fmt.Errorf("authenticate: %w", ErrSessionRequired)
	}
	if err == nil && res.Token == "" {
		err = &freightapi.APIError{StatusCode: 200, Message: ""}
	}
	if err != nil {
		opErr, evt := c.failLocked("authenticate", NoticeAuthFailed, err)
		c.mu.Unlock()
		c.logger.Warn(module, "Authentication failed", map[string]interface{}{"user_id": userID, "error": err.Error()})
		c.emit(evt)
		return nil, opErr
	}

	if c.st.session.Authenticated && c.st.session.User.UserID != res.User.UserID {
		c.resetLocked()
	}
	c.st.session = store.Session{User: res.User, Token: res.Token, Authenticated: true}
	session := c.st.session
	evts := []events.Event{
		c.event(events.TypeSessionAuthenticated, map[string]interface{}{"mode": string(mode)}),
		c.noticeLocked(store.SeveritySuccess, fmt.Sprintf("Welcome %s!", res.User.Name)),
	}
	c.mu.Unlock()

	c.persist(ctx, session)
	c.logger.Info(module, "Session authenticated", map[string]interface{}{"user_id": session.User.UserID, "mode": string(mode)})
	c.emit(evts...)
	c.scheduler.Schedule(0, sessionRefreshTasks...)
	return &session, nil
}

func (c *Controller) persist(ctx context.Context, s store.Session) {
	if c.storage == nil {
		return
	}
	user, err := json.Marshal(s.User)
	if err == nil {
		err = c.storage.Save(ctx, StoredSession{Token: s.Token, User: user})
	}
	if err != nil {
		c.logger.Warn(module, "Failed to cache session", map[string]interface{}{"error": err.Error()})
	}
}

// resetLocked drops everything owned by the current session. The epoch is
// advanced so in-flight results are discarded.
func (c *Controller) resetLocked() {
	c.st = newState(c.st.epoch + 1)
}

// Logout is client-local and idempotent.
func (c *Controller) Logout(ctx context.Context) {
	c.mu.Lock()
	userID := c.st.session.User.UserID
	c.resetLocked()
	evts := []events.Event{
		c.event(events.TypeSessionLoggedOut, map[string]interface{}{"previous_user_id": userID}),
		c.noticeLocked(store.SeveritySuccess, "Logged out successfully"),
	}
	c.mu.Unlock()

	if c.storage != nil {
		if err := c.storage.Clear(ctx); err != nil {
			c.logger.Warn(module, "Failed to clear cached session", map[string]interface{}{"error": err.Error()})
		}
	}
	c.logger.Info(module, "Session logged out", map[string]interface{}{"user_id": userID})
	c.emit(evts...)
}

// RestoreFromStorage rehydrates a cached session. Absent, malformed or expired
// entries leave the controller unauthenticated.
func (c *Controller) RestoreFromStorage(ctx context.Context) bool {
	if c.storage == nil {
		return false
	}
	stored, err := c.storage.Load(ctx)
	if err != nil {
		c.logger.Warn(module, "Failed to read cached session", map[string]interface{}{"error": err.Error()})
		return false
	}
	if stored == nil {
		return false
	}

	var user store.User
	if stored.Token == "" || json.Unmarshal(stored.User, &user) != nil || user.UserID == "" {
		c.logger.Warn(module, "Discarding malformed cached session", nil)
		c.discard(ctx)
		return false
	}
	if tokenExpired(stored.Token, c.now()) {
		c.logger.Info(module, "Discarding expired cached session", map[string]interface{}{"user_id": user.UserID})
		c.discard(ctx)
		return false
	}

	c.mu.Lock()
	c.resetLocked()
	c.st.session = store.Session{User: user, Token: stored.Token, Authenticated: true}
	evt := c.event(events.TypeSessionRestored, nil)
	c.mu.Unlock()

	c.logger.Info(module, "Session restored", map[string]interface{}{"user_id": user.UserID})
	c.emit(evt)
	c.scheduler.Schedule(0, sessionRefreshTasks...)
	return true
}

func (c *Controller) discard(ctx context.Context) {
	if err := c.storage.Clear(ctx); err != nil {
		c.logger.Warn(module, "Failed to clear cached session", map[string]interface{}{"error": err.Error()})
	}
}

// tokenExpired reads the exp claim without verifying the signature. Tokens
// that are not JWTs, or carry no exp, are treated as live.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}
