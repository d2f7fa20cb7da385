package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/goliatone/go-retail-dashboard/components/dashboard/notify"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/persist"
)

// StorageKey holds the signed-in user record.
const StorageKey = "datacue_user"

// Redirect targets after login and logout.
const (
	HomePath  = "/dashboard"
	LoginPath = "/login"
)

var (
	ErrInvalidCredentials = errors.New("session: invalid credentials")
	ErrNotAuthenticated   = errors.New("session: not authenticated")
)

// User is the signed-in analyst.
type User struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Email            string   `json:"email"`
	Categories       []string `json:"categories"`
	Role             string   `json:"role"`
	SubscriptionPlan string   `json:"subscriptionPlan"`
}

// Credentials is the single accepted login.
type Credentials struct {
	Email    string `yaml:"email" json:"email"`
	Password string `yaml:"password" json:"password"`
}

// DemoCredentials is the default login.
var DemoCredentials = Credentials{Email: "demo@datacue.com", Password: "password"}

// DemoUser is returned for a successful demo login.
func DemoUser() User {
	return User{
		ID:               "1",
		Name:             "Demo User",
		Email:            DemoCredentials.Email,
		Categories:       []string{"Beverages", "Snacks"},
		Role:             "analyst",
		SubscriptionPlan: "Premium",
	}
}

// Options configures a Manager.
type Options struct {
	Backend     persist.Backend
	Notifier    notify.Notifier
	Logger      *slog.Logger
	Credentials Credentials
	// User builds the record stored on login.
	User func() User
}

// Manager is the mocked authentication state.
type Manager struct {
	opts Options

	mu   sync.RWMutex
	user *User
}

// NewManager builds a signed-out manager.
func NewManager(opts Options) *Manager {
	if opts.Backend == nil {
		opts.Backend = persist.NewMemoryBackend()
	}
	opts.Notifier = notify.Normalize(opts.Notifier)
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Credentials.Email == "" {
		opts.Credentials = DemoCredentials
	}
	if opts.User == nil {
		opts.User = DemoUser
	}
	return &Manager{opts: opts}
}

// Restore reloads the stored user. A corrupt record is deleted.
func (m *Manager) Restore(ctx context.Context) (User, bool) {
	raw, found, err := m.opts.Backend.Get(ctx, StorageKey)
	if err != nil {
		m.opts.Logger.Error("failed to read session", "error", err)
		return User{}, false
	}
	if !found {
		return User{}, false
	}
	var user User
	if err := json.Unmarshal(raw, &user); err != nil || user.ID == "" {
		m.opts.Logger.Warn("dropping corrupt session record", "error", err)
		if err := m.opts.Backend.Delete(ctx, StorageKey); err != nil {
			m.opts.Logger.Error("failed to clear session", "error", err)
		}
		return User{}, false
	}
	m.mu.Lock()
	m.user = &user
	m.mu.Unlock()
	return user, true
}

// Login checks the credentials and stores the user. It returns the path to
// redirect to.
func (m *Manager) Login(ctx context.Context, email, password string) (User, string, error) {
	if !strings.EqualFold(strings.TrimSpace(email), m.opts.Credentials.Email) || password != m.opts.Credentials.Password {
		m.opts.Logger.Info("login rejected", "email", email)
		notify.Error(ctx, m.opts.Notifier, "", "Invalid credentials")
		return User{}, LoginPath, ErrInvalidCredentials
	}
	user := m.opts.User()
	raw, err := json.Marshal(user)
	if err != nil {
		notify.Error(ctx, m.opts.Notifier, "", "Login failed")
		return User{}, LoginPath, err
	}
	if err := m.opts.Backend.Set(ctx, StorageKey, raw); err != nil {
		m.opts.Logger.Error("failed to store session", "error", err)
	}
	m.mu.Lock()
	m.user = &user
	m.mu.Unlock()
	m.opts.Logger.Info("user logged in", "user_id", user.ID)
	notify.Success(ctx, m.opts.Notifier, "", "Logged in successfully")
	return user, HomePath, nil
}

// Logout clears the user and returns the login path.
func (m *Manager) Logout(ctx context.Context) string {
	m.mu.Lock()
	m.user = nil
	m.mu.Unlock()
	if err := m.opts.Backend.Delete(ctx, StorageKey); err != nil {
		m.opts.Logger.Error("failed to clear session", "error", err)
	}
	notify.Info(ctx, m.opts.Notifier, "", "Logged out")
	return LoginPath
}

// Current returns the signed-in user.
func (m *Manager) Current() (User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return User{}, false
	}
	out := *m.user
	out.Categories = slices.Clone(m.user.Categories)
	return out, true
}

// IsAuthenticated reports whether a user is signed in.
func (m *Manager) IsAuthenticated() bool {
	_, ok := m.Current()
	return ok
}

// HasCategoryAccess reports whether the user may see category. An empty
// category is always visible.
func (u User) HasCategoryAccess(category string) bool {
	if category == "" {
		return true
	}
	for _, c := range u.Categories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

// HasCategoryAccess checks the signed-in user.
func (m *Manager) HasCategoryAccess(category string) bool {
	user, ok := m.Current()
	return ok && user.HasCategoryAccess(category)
}
