package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jaekwang-park/taskapp/internal/credential"
	"github.com/jaekwang-park/taskapp/internal/locale"
	"github.com/jaekwang-park/taskapp/internal/model"
	"github.com/jaekwang-park/taskapp/internal/repository"
	"github.com/jaekwang-park/taskapp/internal/service"
	"github.com/jaekwang-park/taskapp/internal/session"
	"github.com/jaekwang-park/taskapp/internal/token"
)

// mockUserRepo implements repository.UserRepository for testing
type mockUserRepo struct {
	getByIDFn        func(ctx context.Context, id string) (model.User, error)
	findByUsernameFn func(ctx context.Context, username string) ([]model.User, error)
	findByEmailFn    func(ctx context.Context, email string) ([]model.User, error)
	createFn         func(ctx context.Context, user model.User) (model.User, error)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	return m.getByIDFn(ctx, id)
}
func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) ([]model.User, error) {
	return m.findByUsernameFn(ctx, username)
}
func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) ([]model.User, error) {
	return m.findByEmailFn(ctx, email)
}
func (m *mockUserRepo) Create(ctx context.Context, user model.User) (model.User, error) {
	return m.createFn(ctx, user)
}

// userTable backs a mockUserRepo with a slice, the way the document store
// filters by exact field equality.
type userTable struct {
	mu      sync.Mutex
	users   []model.User
	creates int
}

func (t *userTable) repo() *mockUserRepo {
	return &mockUserRepo{
		getByIDFn: func(ctx context.Context, id string) (model.User, error) {
			t.mu.Lock()
			defer t.mu.Unlock()
			for _, u := range t.users {
				if u.ID == id {
					return u, nil
				}
			}
			return model.User{}, repository.ErrNotFound
		},
		findByUsernameFn: func(ctx context.Context, username string) ([]model.User, error) {
			return t.filter(func(u model.User) bool { return u.Username == username }), nil
		},
		findByEmailFn: func(ctx context.Context, email string) ([]model.User, error) {
			return t.filter(func(u model.User) bool { return u.Email == email }), nil
		},
		createFn: func(ctx context.Context, user model.User) (model.User, error) {
			t.mu.Lock()
			defer t.mu.Unlock()
			t.creates++
			t.users = append(t.users, user)
			return user, nil
		},
	}
}

func (t *userTable) filter(keep func(model.User) bool) []model.User {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := []model.User{}
	for _, u := range t.users {
		if keep(u) {
			out = append(out, u)
		}
	}
	return out
}

var alice = model.User{ID: "1", Username: "alice", Password: "secret1", Email: "a@x.com"}

// fakeScheduler runs timers when the test advances its clock.
type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	s       *fakeScheduler
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) service.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{s: s, at: s.now + d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due []func()
	for _, t := range s.timers {
		if !t.stopped && !t.fired && t.at <= s.now {
			t.fired = true
			due = append(due, t.f)
		}
	}
	s.mu.Unlock()

	for _, f := range due {
		f()
	}
}

func (s *fakeScheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// mockIssuer implements token.Issuer (and token.Enroller when enrollFn is set).
type mockIssuer struct {
	issueFn  func(ctx context.Context, sub token.Subject) (string, error)
	verifyFn func(ctx context.Context, user model.SessionUser, tok string) error
}

func (m *mockIssuer) Issue(ctx context.Context, sub token.Subject) (string, error) {
	return m.issueFn(ctx, sub)
}
func (m *mockIssuer) Verify(ctx context.Context, user model.SessionUser, tok string) error {
	return m.verifyFn(ctx, user, tok)
}

type mockEnrollingIssuer struct {
	mockIssuer
	enrollFn func(ctx context.Context, sub token.Subject) error
}

func (m *mockEnrollingIssuer) Enroll(ctx context.Context, sub token.Subject) error {
	return m.enrollFn(ctx, sub)
}

// flakyStore fails removals on demand.
type flakyStore struct {
	*session.MemoryStore
	removeErr error
}

func (f *flakyStore) Remove(ctx context.Context, key string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	return f.MemoryStore.Remove(ctx, key)
}

var fixedNow = time.Date(2025, 1, 1, 9, 30, 0, 0, time.UTC)

type fixture struct {
	ctrl  *service.AuthController
	store *session.MemoryStore
	sched *fakeScheduler
}

func newFixture(t *testing.T, users repository.UserRepository, opts ...func(*service.AuthConfig)) fixture {
	t.Helper()
	store := session.NewMemoryStore()
	return newFixtureWithStore(t, users, store, store, opts...)
}

func newFixtureWithStore(t *testing.T, users repository.UserRepository, mem *session.MemoryStore, store session.Store, opts ...func(*service.AuthConfig)) fixture {
	t.Helper()
	sched := &fakeScheduler{}
	cfg := service.AuthConfig{
		Users:     users,
		Session:   session.NewManager(store),
		Catalog:   locale.EN,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:       func() time.Time { return fixedNow },
		Scheduler: sched,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	ctrl := service.NewAuthController(cfg)
	t.Cleanup(ctrl.Close)
	return fixture{ctrl: ctrl, store: mem, sched: sched}
}

func saveSession(t *testing.T, store session.Store, user model.SessionUser, tok string) {
	t.Helper()
	if err := session.NewManager(store).Save(context.Background(), user, tok); err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}
}

func TestRestore(t *testing.T) {
	networkDown := func(ctx context.Context, id string) (model.User, error) {
		return model.User{}, fmt.Errorf("dial tcp: connection refused")
	}

	tests := []struct {
		name         string
		seed         func(t *testing.T, s *session.MemoryStore)
		getByID      func(ctx context.Context, id string) (model.User, error)
		verifyErr    error
		wantLoggedIn bool
		wantEntries  int
	}{
		{
			name:         "no saved session",
			seed:         func(t *testing.T, s *session.MemoryStore) {},
			wantLoggedIn: false,
			wantEntries:  0,
		},
		{
			name: "valid session",
			seed: func(t *testing.T, s *session.MemoryStore) {
				saveSession(t, s, alice.SessionUser(), "token_1_1")
			},
			wantLoggedIn: true,
			wantEntries:  2,
		},
		{
			name: "user no longer exists",
			seed: func(t *testing.T, s *session.MemoryStore) {
				saveSession(t, s, model.SessionUser{ID: "gone", Username: "bob"}, "token_gone_1")
			},
			wantLoggedIn: false,
			wantEntries:  0,
		},
		{
			name: "backend unreachable",
			seed: func(t *testing.T, s *session.MemoryStore) {
				saveSession(t, s, alice.SessionUser(), "token_1_1")
			},
			getByID:      networkDown,
			wantLoggedIn: false,
			wantEntries:  0,
		},
		{
			name: "token without user",
			seed: func(t *testing.T, s *session.MemoryStore) {
				s.Set(context.Background(), session.TokenKey, "token_1_1")
			},
			wantLoggedIn: false,
			wantEntries:  0,
		},
		{
			name: "user without token",
			seed: func(t *testing.T, s *session.MemoryStore) {
				s.Set(context.Background(), session.UserKey, `{"id":"1","username":"alice","email":"a@x.com"}`)
			},
			wantLoggedIn: false,
			wantEntries:  0,
		},
		{
			name: "corrupt user entry",
			seed: func(t *testing.T, s *session.MemoryStore) {
				s.Set(context.Background(), session.UserKey, `{"id":`)
				s.Set(context.Background(), session.TokenKey, "token_1_1")
			},
			wantLoggedIn: false,
			wantEntries:  0,
		},
		{
			name: "token rejected by issuer",
			seed: func(t *testing.T, s *session.MemoryStore) {
				saveSession(t, s, alice.SessionUser(), "forged")
			},
			verifyErr:    token.ErrInvalidToken,
			wantLoggedIn: false,
			wantEntries:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := &userTable{users: []model.User{alice}}
			repo := table.repo()
			if tt.getByID != nil {
				repo.getByIDFn = tt.getByID
			}
			issuer := &mockIssuer{
				issueFn: func(ctx context.Context, sub token.Subject) (string, error) { return "t", nil },
				verifyFn: func(ctx context.Context, user model.SessionUser, tok string) error {
					return tt.verifyErr
				},
			}
			f := newFixture(t, repo, func(c *service.AuthConfig) { c.Tokens = issuer })
			tt.seed(t, f.store)

			var sawLoading bool
			f.ctrl.Subscribe(func(s service.State) {
				if s.AuthLoading && s.Phase == service.PhaseRestoring {
					sawLoading = true
				}
			})

			if err := f.ctrl.Restore(context.Background()); err != nil {
				t.Fatalf("Restore() error = %v", err)
			}

			st := f.ctrl.State()
			if !sawLoading {
				t.Error("expected a loading snapshot while restoring")
			}
			if st.AuthLoading || st.Busy {
				t.Errorf("loading not cleared: %+v", st)
			}
			if st.LoggedIn != tt.wantLoggedIn {
				t.Errorf("LoggedIn = %v, want %v", st.LoggedIn, tt.wantLoggedIn)
			}
			wantPhase := service.PhaseLoggedOut
			if tt.wantLoggedIn {
				wantPhase = service.PhaseLoggedIn
				if st.User == nil || st.User.ID != alice.ID {
					t.Errorf("unexpected user %+v", st.User)
				}
			} else if st.User != nil {
				t.Errorf("expected no user, got %+v", st.User)
			}
			if st.Phase != wantPhase {
				t.Errorf("Phase = %v, want %v", st.Phase, wantPhase)
			}
			if got := f.store.Len(); got != tt.wantEntries {
				t.Errorf("store holds %d entries, want %d", got, tt.wantEntries)
			}
		})
	}
}

func TestRestore_ClearsLoadingOnPanic(t *testing.T) {
	table := &userTable{users: []model.User{alice}}
	repo := table.repo()
	repo.getByIDFn = func(ctx context.Context, id string) (model.User, error) {
		panic("boom")
	}
	f := newFixture(t, repo)
	saveSession(t, f.store, alice.SessionUser(), "token_1_1")

	func() {
		defer func() { _ = recover() }()
		f.ctrl.Restore(context.Background())
	}()

	st := f.ctrl.State()
	if st.AuthLoading || st.Busy {
		t.Errorf("loading not cleared after panic: %+v", st)
	}
	if st.Phase != service.PhaseLoggedOut {
		t.Errorf("Phase = %v, want logged-out", st.Phase)
	}
}

func TestRestore_OnlyOnce(t *testing.T) {
	f := newFixture(t, (&userTable{}).repo())

	if err := f.ctrl.Restore(context.Background()); err != nil {
		t.Fatalf("first Restore() error = %v", err)
	}
	if err := f.ctrl.Restore(context.Background()); !errors.Is(err, service.ErrAlreadyRestored) {
		t.Errorf("second Restore() error = %v, want ErrAlreadyRestored", err)
	}
}

func TestVerifySession(t *testing.T) {
	table := &userTable{users: []model.User{alice}}
	f := newFixture(t, table.repo())

	if !f.ctrl.VerifySession(context.Background(), alice.SessionUser(), "token_1_1") {
		t.Error("expected existing user to verify")
	}
	if f.ctrl.VerifySession(context.Background(), model.SessionUser{ID: "2"}, "token_2_1") {
		t.Error("expected unknown user to fail verification")
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name     string
		cred     service.Credentials
		findErr  error
		issueErr error
		wantErr  error
	}{
		{
			name: "success",
			cred: service.Credentials{Username: "alice", Password: "secret1"},
		},
		{
			name:    "wrong password",
			cred:    service.Credentials{Username: "alice", Password: "secret2"},
			wantErr: service.ErrInvalidCredentials,
		},
		{
			name:    "unknown user",
			cred:    service.Credentials{Username: "bob", Password: "secret1"},
			wantErr: service.ErrInvalidCredentials,
		},
		{
			name:    "password case matters",
			cred:    service.Credentials{Username: "alice", Password: "SECRET1"},
			wantErr: service.ErrInvalidCredentials,
		},
		{
			name:    "lookup fails",
			cred:    service.Credentials{Username: "alice", Password: "secret1"},
			findErr: fmt.Errorf("connection refused"),
			wantErr: service.ErrNetwork,
		},
		{
			name:     "issuer rejects",
			cred:     service.Credentials{Username: "alice", Password: "secret1"},
			issueErr: fmt.Errorf("cognito: %w", token.ErrRejected),
			wantErr:  service.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := &userTable{users: []model.User{alice}}
			repo := table.repo()
			if tt.findErr != nil {
				repo.findByUsernameFn = func(ctx context.Context, username string) ([]model.User, error) {
					return nil, tt.findErr
				}
			}
			var issuer token.Issuer = token.NewPlaceholder(func() time.Time { return fixedNow })
			if tt.issueErr != nil {
				issuer = &mockIssuer{
					issueFn: func(ctx context.Context, sub token.Subject) (string, error) { return "", tt.issueErr },
				}
			}
			f := newFixture(t, repo, func(c *service.AuthConfig) { c.Tokens = issuer })

			err := f.ctrl.Login(context.Background(), tt.cred)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Login() error = %v, want %v", err, tt.wantErr)
				}
				if f.store.Len() != 0 {
					t.Errorf("expected storage unchanged, got %d entries", f.store.Len())
				}
				if st := f.ctrl.State(); st.LoggedIn || st.Busy {
					t.Errorf("unexpected state %+v", st)
				}
				return
			}
			if err != nil {
				t.Fatalf("Login() unexpected error: %v", err)
			}

			rawUser, _, _ := f.store.Get(context.Background(), session.UserKey)
			if rawUser != `{"id":"1","username":"alice","email":"a@x.com"}` {
				t.Errorf("saved user = %s", rawUser)
			}
			if strings.Contains(rawUser, "secret1") {
				t.Error("password must never be persisted")
			}
			tok, _, _ := f.store.Get(context.Background(), session.TokenKey)
			if want := fmt.Sprintf("token_1_%d", fixedNow.UnixMilli()); tok != want {
				t.Errorf("saved token = %q, want %q", tok, want)
			}

			st := f.ctrl.State()
			if !st.LoggedIn || st.Phase != service.PhaseLoggedIn || st.User == nil || st.User.Username != "alice" {
				t.Errorf("unexpected state %+v", st)
			}
		})
	}
}

func TestLogin_ClearsGlobalError(t *testing.T) {
	f := newFixture(t, (&userTable{users: []model.User{alice}}).repo())
	f.ctrl.ReportGlobalError("something broke")

	if err := f.ctrl.Login(context.Background(), service.Credentials{Username: "alice", Password: "secret1"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if got := f.ctrl.State().GlobalError; got != "" {
		t.Errorf("GlobalError = %q, want empty", got)
	}
	if f.sched.pending() != 0 {
		t.Error("expected the pending clear to be cancelled")
	}
}

func TestLogin_Bcrypt(t *testing.T) {
	scheme := credential.Bcrypt{Cost: 4}
	hashed, err := scheme.Hash("secret1")
	if err != nil {
		t.Fatal(err)
	}
	stored := alice
	stored.Password = hashed
	f := newFixture(t, (&userTable{users: []model.User{stored}}).repo(), func(c *service.AuthConfig) {
		c.Passwords = scheme
	})

	if err := f.ctrl.Login(context.Background(), service.Credentials{Username: "alice", Password: "secret1"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
}

func TestLogin_SeededBackendRecords(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		wantID string
	}{
		{
			name:   "date-only createdAt",
			body:   `[{"id":"1","username":"alice","password":"secret1","email":"a@x.com","createdAt":"2024-01-15"}]`,
			wantID: "1",
		},
		{
			name:   "numeric id",
			body:   `[{"id":1,"username":"alice","password":"secret1","email":"a@x.com","createdAt":"2024-01-15T00:00:00Z"}]`,
			wantID: "1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()
			users := repository.NewHTTPUser(repository.NewClient(srv.URL, srv.Client(), nil))
			f := newFixture(t, users)

			if err := f.ctrl.Login(context.Background(), service.Credentials{Username: "alice", Password: "secret1"}); err != nil {
				t.Fatalf("Login() error = %v", err)
			}
			if st := f.ctrl.State(); !st.LoggedIn || st.User == nil || st.User.ID != tt.wantID {
				t.Errorf("state = %+v, want user %s", st, tt.wantID)
			}
		})
	}
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name       string
		reg        service.Registration
		mutate     func(repo *mockUserRepo)
		wantErr    error
		wantCreate bool
	}{
		{
			name:       "success",
			reg:        service.Registration{Username: "bob", Password: "hunter22", Email: "b@x.com"},
			wantCreate: true,
		},
		{
			name:    "duplicate username",
			reg:     service.Registration{Username: "alice", Password: "hunter22", Email: "new@x.com"},
			wantErr: service.ErrDuplicateUsername,
		},
		{
			name:    "duplicate email",
			reg:     service.Registration{Username: "bob", Password: "hunter22", Email: "a@x.com"},
			wantErr: service.ErrDuplicateEmail,
		},
		{
			name: "username check fails",
			reg:  service.Registration{Username: "bob", Password: "hunter22", Email: "b@x.com"},
			mutate: func(repo *mockUserRepo) {
				repo.findByUsernameFn = func(ctx context.Context, username string) ([]model.User, error) {
					return nil, fmt.Errorf("timeout")
				}
			},
			wantErr: service.ErrNetwork,
		},
		{
			name: "create fails",
			reg:  service.Registration{Username: "bob", Password: "hunter22", Email: "b@x.com"},
			mutate: func(repo *mockUserRepo) {
				repo.createFn = func(ctx context.Context, user model.User) (model.User, error) {
					return model.User{}, &repository.StatusError{Method: "POST", Path: "/users", Code: 500}
				}
			},
			wantErr: service.ErrNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := &userTable{users: []model.User{alice}}
			repo := table.repo()
			if tt.mutate != nil {
				tt.mutate(repo)
			}
			f := newFixture(t, repo, func(c *service.AuthConfig) {
				c.NewID = func() (string, error) { return "new-id", nil }
			})
			f.ctrl.ShowRegister()

			err := f.ctrl.Register(context.Background(), tt.reg)

			if (table.creates > 0) != tt.wantCreate {
				t.Errorf("create calls = %d, wantCreate %v", table.creates, tt.wantCreate)
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Register() error = %v, want %v", err, tt.wantErr)
				}
				if f.store.Len() != 0 {
					t.Errorf("expected no session, got %d entries", f.store.Len())
				}
				if !f.ctrl.State().IsRegister {
					t.Error("expected to stay on the register view")
				}
				return
			}
			if err != nil {
				t.Fatalf("Register() unexpected error: %v", err)
			}

			created := table.users[len(table.users)-1]
			if created.ID != "new-id" || !created.CreatedAt.Equal(fixedNow) || created.Password != tt.reg.Password {
				t.Errorf("unexpected created user %+v", created)
			}
			st := f.ctrl.State()
			if !st.LoggedIn || st.IsRegister || st.User == nil || st.User.ID != "new-id" {
				t.Errorf("unexpected state %+v", st)
			}
		})
	}
}

func TestRegister_ThenRestart(t *testing.T) {
	table := &userTable{users: []model.User{alice}}
	store := session.NewMemoryStore()

	first := newFixtureWithStore(t, table.repo(), store, store)
	reg := service.Registration{Username: "carol", Password: "hunter22", Email: "c@x.com"}
	if err := first.ctrl.Register(context.Background(), reg); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	want := first.ctrl.State().User
	first.ctrl.Close()

	second := newFixtureWithStore(t, table.repo(), store, store)
	if err := second.ctrl.Restore(context.Background()); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	st := second.ctrl.State()
	if !st.LoggedIn || st.User == nil || *st.User != *want {
		t.Errorf("restored user %+v, want %+v", st.User, want)
	}
}

func TestRegister_Enrolls(t *testing.T) {
	var enrolled token.Subject
	issuer := &mockEnrollingIssuer{
		mockIssuer: mockIssuer{
			issueFn: func(ctx context.Context, sub token.Subject) (string, error) { return "id-token", nil },
		},
		enrollFn: func(ctx context.Context, sub token.Subject) error {
			enrolled = sub
			return nil
		},
	}
	f := newFixture(t, (&userTable{}).repo(), func(c *service.AuthConfig) { c.Tokens = issuer })

	if err := f.ctrl.Register(context.Background(), service.Registration{Username: "dave", Password: "hunter22", Email: "d@x.com"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if enrolled.Username != "dave" || enrolled.Password != "hunter22" || enrolled.Email != "d@x.com" {
		t.Errorf("unexpected enrolled subject %+v", enrolled)
	}
}

func TestRegister_EnrollFailureCreatesNothing(t *testing.T) {
	table := &userTable{}
	issuer := &mockEnrollingIssuer{
		enrollFn: func(ctx context.Context, sub token.Subject) error { return fmt.Errorf("password policy") },
	}
	f := newFixture(t, table.repo(), func(c *service.AuthConfig) { c.Tokens = issuer })

	err := f.ctrl.Register(context.Background(), service.Registration{Username: "dave", Password: "hunter22", Email: "d@x.com"})
	if err == nil {
		t.Fatal("expected error")
	}
	if table.creates != 0 {
		t.Errorf("expected no create, got %d", table.creates)
	}
}

func TestLogout(t *testing.T) {
	tests := []struct {
		name      string
		pending   string
		removeErr error
		wantErr   bool
		wantError string
	}{
		{name: "clean", wantError: ""},
		{name: "clean clears pending error", pending: "something broke", wantError: ""},
		{name: "store failure", removeErr: fmt.Errorf("disk full"), wantErr: true, wantError: locale.EN.LogoutError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := session.NewMemoryStore()
			store := &flakyStore{MemoryStore: mem}
			f := newFixtureWithStore(t, (&userTable{users: []model.User{alice}}).repo(), mem, store)
			if err := f.ctrl.Login(context.Background(), service.Credentials{Username: "alice", Password: "secret1"}); err != nil {
				t.Fatal(err)
			}
			if tt.pending != "" {
				f.ctrl.ReportGlobalError(tt.pending)
			}
			store.removeErr = tt.removeErr

			err := f.ctrl.Logout(context.Background())

			if (err != nil) != tt.wantErr {
				t.Errorf("Logout() error = %v, wantErr %v", err, tt.wantErr)
			}
			st := f.ctrl.State()
			if st.LoggedIn || st.User != nil || st.Phase != service.PhaseLoggedOut {
				t.Errorf("expected logged out, got %+v", st)
			}
			if st.GlobalError != tt.wantError {
				t.Errorf("GlobalError = %q, want %q", st.GlobalError, tt.wantError)
			}
			if tt.pending != "" && f.sched.pending() != 0 {
				t.Error("expected the pending clear to be cancelled")
			}
			if tt.removeErr == nil && mem.Len() != 0 {
				t.Errorf("expected empty store, got %d entries", mem.Len())
			}
		})
	}
}

func TestGlobalError_ExpiresAfterTTL(t *testing.T) {
	f := newFixture(t, (&userTable{}).repo())

	f.ctrl.ReportGlobalError("first")
	f.sched.Advance(service.GlobalErrorTTL - time.Millisecond)
	if got := f.ctrl.State().GlobalError; got != "first" {
		t.Fatalf("GlobalError = %q before expiry", got)
	}

	f.sched.Advance(time.Millisecond)
	if got := f.ctrl.State().GlobalError; got != "" {
		t.Errorf("GlobalError = %q after expiry, want empty", got)
	}
}

func TestGlobalError_NewErrorRestartsCountdown(t *testing.T) {
	f := newFixture(t, (&userTable{}).repo())

	f.ctrl.ReportGlobalError("first")
	f.sched.Advance(2 * time.Second)
	f.ctrl.ReportGlobalError("second")

	f.sched.Advance(3 * time.Second) // 5s after the first error
	if got := f.ctrl.State().GlobalError; got != "second" {
		t.Fatalf("GlobalError = %q at 5s, want second", got)
	}

	f.sched.Advance(2 * time.Second) // 5s after the second error
	if got := f.ctrl.State().GlobalError; got != "" {
		t.Errorf("GlobalError = %q at 7s, want empty", got)
	}
}

func TestGlobalError_Dismiss(t *testing.T) {
	f := newFixture(t, (&userTable{}).repo())

	f.ctrl.ReportGlobalError("oops")
	f.ctrl.DismissGlobalError()

	if got := f.ctrl.State().GlobalError; got != "" {
		t.Errorf("GlobalError = %q, want empty", got)
	}
	if f.sched.pending() != 0 {
		t.Error("expected timer to be stopped")
	}
}

func TestOnlineOffline(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(c *service.AuthController)
		wantLeft string
	}{
		{
			name:     "online clears offline error",
			setup:    func(c *service.AuthController) { c.Offline() },
			wantLeft: "",
		},
		{
			name:     "online clears reported network error",
			setup:    func(c *service.AuthController) { c.ReportGlobalError(locale.EN.NetworkError) },
			wantLeft: "",
		},
		{
			name:     "online clears register network error",
			setup:    func(c *service.AuthController) { c.ReportGlobalError(locale.EN.NetworkRegister) },
			wantLeft: "",
		},
		{
			name:     "online keeps unrelated error",
			setup:    func(c *service.AuthController) { c.ReportGlobalError(locale.EN.LogoutError) },
			wantLeft: locale.EN.LogoutError,
		},
		{
			name: "unrelated error replaces offline",
			setup: func(c *service.AuthController) {
				c.Offline()
				c.ReportGlobalError(locale.EN.LogoutError)
			},
			wantLeft: locale.EN.LogoutError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, (&userTable{}).repo())
			tt.setup(f.ctrl)

			f.ctrl.Online()

			if got := f.ctrl.State().GlobalError; got != tt.wantLeft {
				t.Errorf("GlobalError = %q, want %q", got, tt.wantLeft)
			}
		})
	}
}

func TestOffline_SetsMessage(t *testing.T) {
	f := newFixture(t, (&userTable{}).repo(), func(c *service.AuthConfig) { c.Catalog = locale.VI })

	f.ctrl.Offline()

	if got := f.ctrl.State().GlobalError; got != locale.VI.Offline {
		t.Errorf("GlobalError = %q, want %q", got, locale.VI.Offline)
	}
}

func TestClose_StopsTimer(t *testing.T) {
	f := newFixture(t, (&userTable{}).repo())
	var calls int
	f.ctrl.Subscribe(func(service.State) { calls++ })

	f.ctrl.ReportGlobalError("oops")
	f.ctrl.Close()
	before := calls
	f.sched.Advance(service.GlobalErrorTTL)

	if f.sched.pending() != 0 {
		t.Error("expected no pending timers after Close")
	}
	if calls != before {
		t.Errorf("subscriber called after Close")
	}
}

func TestSingleFlight(t *testing.T) {
	table := &userTable{users: []model.User{alice}}
	repo := table.repo()
	entered := make(chan struct{})
	release := make(chan struct{})
	repo.findByUsernameFn = func(ctx context.Context, username string) ([]model.User, error) {
		close(entered)
		<-release
		return []model.User{alice}, nil
	}
	f := newFixture(t, repo)

	done := make(chan error, 1)
	go func() {
		done <- f.ctrl.Login(context.Background(), service.Credentials{Username: "alice", Password: "secret1"})
	}()
	<-entered

	if !f.ctrl.State().Busy {
		t.Error("expected Busy while login is in flight")
	}
	if err := f.ctrl.Login(context.Background(), service.Credentials{Username: "alice", Password: "secret1"}); !errors.Is(err, service.ErrOperationInProgress) {
		t.Errorf("overlapping Login() error = %v, want ErrOperationInProgress", err)
	}
	if err := f.ctrl.Register(context.Background(), service.Registration{Username: "x", Password: "y", Email: "z"}); !errors.Is(err, service.ErrOperationInProgress) {
		t.Errorf("overlapping Register() error = %v, want ErrOperationInProgress", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first Login() error = %v", err)
	}
	if f.ctrl.State().Busy {
		t.Error("expected Busy cleared")
	}
}

func TestSubscribe(t *testing.T) {
	f := newFixture(t, (&userTable{}).repo())
	var got []bool
	unsubscribe := f.ctrl.Subscribe(func(s service.State) { got = append(got, s.IsRegister) })

	f.ctrl.ShowRegister()
	f.ctrl.ShowLogin()
	unsubscribe()
	f.ctrl.ShowRegister()

	if len(got) != 2 || got[0] != true || got[1] != false {
		t.Errorf("unexpected notifications %v", got)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"invalid credentials", service.ErrInvalidCredentials, locale.EN.InvalidCredentials},
		{"wrapped network", fmt.Errorf("%w: refused", service.ErrNetwork), locale.EN.NetworkError},
		{"duplicate username", service.ErrDuplicateUsername, locale.EN.DuplicateUsername},
		{"duplicate email", service.ErrDuplicateEmail, locale.EN.DuplicateEmail},
		{"busy", service.ErrOperationInProgress, locale.EN.Busy},
		{"unknown", fmt.Errorf("boom"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := service.UserMessage(tt.err, locale.EN); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
