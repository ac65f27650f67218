package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jaekwang-park/taskapp/internal/credential"
	"github.com/jaekwang-park/taskapp/internal/locale"
	"github.com/jaekwang-park/taskapp/internal/model"
	"github.com/jaekwang-park/taskapp/internal/repository"
	"github.com/jaekwang-park/taskapp/internal/session"
	"github.com/jaekwang-park/taskapp/internal/token"
)

// GlobalErrorTTL is how long a global error stays visible unless replaced
// or dismissed.
const GlobalErrorTTL = 5 * time.Second

type Phase int

const (
	PhaseUnknown Phase = iota
	PhaseRestoring
	PhaseLoggedIn
	PhaseLoggedOut
)

func (p Phase) String() string {
	switch p {
	case PhaseRestoring:
		return "restoring"
	case PhaseLoggedIn:
		return "logged-in"
	case PhaseLoggedOut:
		return "logged-out"
	}
	return "unknown"
}

// State is a snapshot of the controller. Snapshots are never mutated after
// they are handed out.
type State struct {
	User        *model.SessionUser
	LoggedIn    bool
	AuthLoading bool
	GlobalError string
	IsRegister  bool
	Phase       Phase
	// Busy is set while Restore, Login or Register is running.
	Busy bool
}

type Credentials struct {
	Username string
	Password string
}

type Registration struct {
	Username string
	Password string
	Email    string
}

type AuthConfig struct {
	Users     repository.UserRepository
	Session   *session.Manager
	Tokens    token.Issuer
	Passwords credential.Scheme
	Catalog   locale.Catalog
	Logger    *slog.Logger
	Now       func() time.Time
	Scheduler Scheduler
	NewID     func() (string, error)
}

type listener struct {
	id int
	fn func(State)
}

// AuthController owns the session state of the client: who is logged in,
// whether restoration is still running, and the auto-expiring global error.
type AuthController struct {
	users     repository.UserRepository
	session   *session.Manager
	tokens    token.Issuer
	passwords credential.Scheme
	catalog   locale.Catalog
	logger    *slog.Logger
	now       func() time.Time
	scheduler Scheduler
	newID     func() (string, error)

	mu           sync.Mutex
	state        State
	errTimer     Timer
	errGen       uint64
	networkError bool
	listeners    []listener
	nextListener int
	closed       bool
}

func NewAuthController(cfg AuthConfig) *AuthController {
	c := &AuthController{
		users:     cfg.Users,
		session:   cfg.Session,
		tokens:    cfg.Tokens,
		passwords: cfg.Passwords,
		catalog:   cfg.Catalog,
		logger:    cfg.Logger,
		now:       cfg.Now,
		scheduler: cfg.Scheduler,
		newID:     cfg.NewID,
	}
	if c.tokens == nil {
		c.tokens = token.NewPlaceholder(cfg.Now)
	}
	if c.passwords == nil {
		c.passwords = credential.Plain{}
	}
	if c.catalog.Tag == "" {
		c.catalog = locale.EN
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.scheduler == nil {
		c.scheduler = clockScheduler{}
	}
	if c.newID == nil {
		c.newID = newUUIDv7
	}
	return c
}

func newUUIDv7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// State returns the current snapshot.
func (c *AuthController) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every state change.
// The returned func removes the subscription.
func (c *AuthController) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextListener
	c.nextListener++
	c.listeners = append(c.listeners, listener{id: id, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, l := range c.listeners {
			if l.id == id {
				c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

func (c *AuthController) snapshotLocked() State {
	s := c.state
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// update applies fn under the lock and notifies subscribers outside it.
func (c *AuthController) update(fn func(s *State)) {
	c.mu.Lock()
	fn(&c.state)
	c.unlockAndNotify()
}

// unlockAndNotify releases c.mu and hands the current snapshot to every
// subscriber.
func (c *AuthController) unlockAndNotify() {
	snap := c.snapshotLocked()
	fns := c.listenerFuncsLocked()
	c.mu.Unlock()

	for _, f := range fns {
		f(snap)
	}
}

func (c *AuthController) listenerFuncsLocked() []func(State) {
	if c.closed {
		return nil
	}
	fns := make([]func(State), len(c.listeners))
	for i, l := range c.listeners {
		fns[i] = l.fn
	}
	return fns
}

func (c *AuthController) begin() error {
	c.mu.Lock()
	if c.state.Busy {
		c.mu.Unlock()
		return ErrOperationInProgress
	}
	c.state.Busy = true
	c.unlockAndNotify()
	return nil
}

// Restore loads the saved session and keeps it only if it still verifies.
// Restoration failures are logged and end logged out; the returned error
// only reports misuse.
func (c *AuthController) Restore(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.state.Busy:
		c.mu.Unlock()
		return ErrOperationInProgress
	case c.state.Phase != PhaseUnknown:
		c.mu.Unlock()
		return ErrAlreadyRestored
	}
	c.state.Busy = true
	c.state.AuthLoading = true
	c.state.Phase = PhaseRestoring
	c.unlockAndNotify()

	var restored *model.SessionUser
	defer func() {
		c.update(func(s *State) {
			s.AuthLoading = false
			s.Busy = false
			if restored != nil {
				s.User = restored
				s.LoggedIn = true
				s.Phase = PhaseLoggedIn
				return
			}
			s.User = nil
			s.LoggedIn = false
			s.Phase = PhaseLoggedOut
		})
	}()

	saved, err := c.session.Load(ctx)
	switch {
	case errors.Is(err, session.ErrNoSession):
		return nil
	case err != nil:
		c.discardSession(ctx, fmt.Errorf("%w: %w", ErrSessionInvalid, err))
		return nil
	}

	if !c.VerifySession(ctx, saved.User, saved.Token) {
		c.discardSession(ctx, ErrSessionInvalid)
		return nil
	}

	restored = &saved.User
	c.logger.InfoContext(ctx, "session restored", "user_id", saved.User.ID)
	return nil
}

func (c *AuthController) discardSession(ctx context.Context, reason error) {
	c.logger.WarnContext(ctx, "discarding saved session", "reason", reason)
	if err := c.session.Clear(ctx); err != nil {
		c.logger.ErrorContext(ctx, "failed to clear saved session", "error", err)
	}
}

// VerifySession reports whether the saved token still checks out and the
// user record still exists. Any failure, network errors included, is false.
func (c *AuthController) VerifySession(ctx context.Context, user model.SessionUser, tok string) bool {
	if err := c.tokens.Verify(ctx, user, tok); err != nil {
		c.logger.DebugContext(ctx, "session token rejected", "user_id", user.ID, "error", err)
		return false
	}
	if _, err := c.users.GetByID(ctx, user.ID); err != nil {
		c.logger.DebugContext(ctx, "session user lookup failed", "user_id", user.ID, "error", err)
		return false
	}
	return true
}

func (c *AuthController) Login(ctx context.Context, cred Credentials) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.update(func(s *State) { s.Busy = false })

	users, err := c.users.FindByUsername(ctx, cred.Username)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	var match *model.User
	for i := range users {
		if users[i].Username == cred.Username && c.passwords.Match(users[i].Password, cred.Password) {
			match = &users[i]
			break
		}
	}
	if match == nil {
		return ErrInvalidCredentials
	}

	if err := c.signIn(ctx, match.SessionUser(), cred.Password); err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "logged in", "user_id", match.ID)
	return nil
}

// Register creates the account after both uniqueness checks pass and logs
// it in. No record is created when a check fails.
func (c *AuthController) Register(ctx context.Context, reg Registration) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.update(func(s *State) { s.Busy = false })

	taken, err := c.users.FindByUsername(ctx, reg.Username)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	if len(taken) > 0 {
		return ErrDuplicateUsername
	}

	taken, err = c.users.FindByEmail(ctx, reg.Email)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	if len(taken) > 0 {
		return ErrDuplicateEmail
	}

	id, err := c.newID()
	if err != nil {
		return fmt.Errorf("failed to generate user id: %w", err)
	}
	stored, err := c.passwords.Hash(reg.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user := model.User{
		ID:        id,
		Username:  reg.Username,
		Password:  stored,
		Email:     reg.Email,
		CreatedAt: c.now().UTC(),
	}

	if enroller, ok := c.tokens.(token.Enroller); ok {
		if err := enroller.Enroll(ctx, c.subject(user.SessionUser(), reg.Password)); err != nil {
			return fmt.Errorf("failed to enroll account: %w", err)
		}
	}

	created, err := c.users.Create(ctx, user)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	if created.ID == "" {
		created = user
	}

	if err := c.signIn(ctx, created.SessionUser(), reg.Password); err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "registered", "user_id", created.ID)
	return nil
}

func (c *AuthController) subject(u model.SessionUser, password string) token.Subject {
	return token.Subject{
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
		Password: password,
	}
}

// signIn issues and saves the session, then switches to logged in.
func (c *AuthController) signIn(ctx context.Context, user model.SessionUser, password string) error {
	tok, err := c.tokens.Issue(ctx, c.subject(user, password))
	if err != nil {
		if errors.Is(err, token.ErrRejected) {
			return fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
		return fmt.Errorf("failed to issue session token: %w", err)
	}
	if err := c.session.Save(ctx, user, tok); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	c.mu.Lock()
	c.clearGlobalErrorLocked()
	c.state.User = &user
	c.state.LoggedIn = true
	c.state.Phase = PhaseLoggedIn
	c.state.IsRegister = false
	c.unlockAndNotify()
	return nil
}

// Logout always ends logged out. A failure to clear the saved session is
// reported on the global error channel and returned; on success any
// pending global error is cleared.
func (c *AuthController) Logout(ctx context.Context) error {
	err := c.session.Clear(ctx)

	c.mu.Lock()
	c.state.User = nil
	c.state.LoggedIn = false
	c.state.Phase = PhaseLoggedOut
	if err == nil {
		c.clearGlobalErrorLocked()
	}
	c.unlockAndNotify()

	if err != nil {
		c.logger.ErrorContext(ctx, "failed to clear session on logout", "error", err)
		c.ReportGlobalError(c.catalog.LogoutError)
		return fmt.Errorf("failed to clear session: %w", err)
	}
	c.logger.InfoContext(ctx, "logged out")
	return nil
}

func (c *AuthController) ShowRegister() {
	c.update(func(s *State) { s.IsRegister = true })
}

func (c *AuthController) ShowLogin() {
	c.update(func(s *State) { s.IsRegister = false })
}

// ReportGlobalError shows msg for GlobalErrorTTL. A newer error replaces
// it and restarts the countdown.
func (c *AuthController) ReportGlobalError(msg string) {
	c.setGlobalError(msg, c.isNetworkMessage(msg))
}

// isNetworkMessage reports whether msg is one of the catalog's
// connectivity messages, which Online clears.
func (c *AuthController) isNetworkMessage(msg string) bool {
	switch msg {
	case c.catalog.Offline, c.catalog.NetworkError, c.catalog.NetworkRegister:
		return msg != ""
	}
	return false
}

func (c *AuthController) DismissGlobalError() {
	c.mu.Lock()
	c.clearGlobalErrorLocked()
	c.unlockAndNotify()
}

// Offline raises the connectivity-lost error.
func (c *AuthController) Offline() {
	c.setGlobalError(c.catalog.Offline, true)
}

// Online clears the global error only when it is a network error.
func (c *AuthController) Online() {
	c.mu.Lock()
	if !c.networkError || c.state.GlobalError == "" {
		c.mu.Unlock()
		return
	}
	c.clearGlobalErrorLocked()
	c.unlockAndNotify()
}

// Close stops the pending global error timer and drops subscribers.
func (c *AuthController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.stopTimerLocked()
	c.listeners = nil
}

func (c *AuthController) setGlobalError(msg string, network bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.stopTimerLocked()
	c.errGen++
	gen := c.errGen
	c.state.GlobalError = msg
	c.networkError = network
	c.errTimer = c.scheduler.AfterFunc(GlobalErrorTTL, func() { c.expireGlobalError(gen) })
	c.unlockAndNotify()
}

// expireGlobalError clears the error that was current when the timer for
// generation gen was armed, and nothing newer.
func (c *AuthController) expireGlobalError(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.errGen || c.state.GlobalError == "" {
		c.mu.Unlock()
		return
	}
	c.errTimer = nil
	c.state.GlobalError = ""
	c.networkError = false
	c.unlockAndNotify()
}

func (c *AuthController) clearGlobalErrorLocked() {
	c.stopTimerLocked()
	c.errGen++
	c.state.GlobalError = ""
	c.networkError = false
}

func (c *AuthController) stopTimerLocked() {
	if c.errTimer != nil {
		c.errTimer.Stop()
		c.errTimer = nil
	}
}
