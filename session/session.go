// Package session owns the active user identity.
//
// The Manager keeps the credential table and the current-user pointer in
// storage. Every identity change is persisted and published first, and only
// then pushed to the registered Scoped stores, so a store never reloads from
// the previous user's namespace.
package session

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"

	"github.com/itsneelabh/pizzeria/core"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 4

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9]{3,20}$`)

// Scoped is a store whose contents belong to one user at a time.
type Scoped interface {
	// LoadUser replaces the store contents with user's persisted data.
	LoadUser(ctx context.Context, user string)
	// Reset empties the store in memory without touching storage.
	Reset(ctx context.Context)
}

// Navigator receives navigation requests, e.g. a redirect to the login page.
type Navigator interface {
	Navigate(route string, params map[string]string)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(route string, params map[string]string)

// Navigate calls f
func (f NavigatorFunc) Navigate(route string, params map[string]string) {
	f(route, params)
}

type noopNavigator struct{}

func (noopNavigator) Navigate(string, map[string]string) {}

// Manager tracks the current user and the credential table
type Manager struct {
	storage   core.Storage
	logger    core.Logger
	navigator Navigator
	scoped    []Scoped
	cost      int

	mu      sync.Mutex
	current *core.Subject[string]
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the logger
func WithLogger(logger core.Logger) Option {
	return func(m *Manager) { m.logger = core.OrNoOp(logger) }
}

// WithNavigator sets where navigation requests go
func WithNavigator(n Navigator) Option {
	return func(m *Manager) {
		if n != nil {
			m.navigator = n
		}
	}
}

// WithScoped registers stores that follow the current user, in reload order.
func WithScoped(stores ...Scoped) Option {
	return func(m *Manager) { m.scoped = append(m.scoped, stores...) }
}

// WithPasswordCost sets the bcrypt cost for new accounts
func WithPasswordCost(cost int) Option {
	return func(m *Manager) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			m.cost = cost
		}
	}
}

// NewManager restores the persisted current user and loads every scoped
// store for it (the guest namespace when nobody was logged in).
func NewManager(ctx context.Context, storage core.Storage, opts ...Option) *Manager {
	m := &Manager{
		storage:   storage,
		logger:    &core.NoOpLogger{},
		navigator: noopNavigator{},
		cost:      bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(m)
	}

	user, err := storage.Get(ctx, core.KeyCurrentUser)
	if err != nil {
		m.logger.Warn("Failed to read current user, starting anonymous", map[string]interface{}{
			"error": err.Error(),
		})
		user = ""
	}
	m.current = core.NewSubject(user)
	m.cascade(ctx, user)

	m.logger.Info("Session restored", map[string]interface{}{
		"logged_in": user != "",
		"user":      user,
	})
	return m
}

// IsLoggedIn reports whether a user is active
func (m *Manager) IsLoggedIn() bool {
	return m.current.Value() != ""
}

// CurrentUser returns the active username, "" when anonymous
func (m *Manager) CurrentUser() string {
	return m.current.Value()
}

// Subscribe registers fn for identity changes, starting with the current one.
func (m *Manager) Subscribe(fn func(user string)) (unsubscribe func()) {
	return m.current.Subscribe(fn)
}

// Signup creates an account and logs it in. Checks run in a fixed order:
// duplicate username, username format, password length.
func (m *Manager) Signup(ctx context.Context, username, password string) error {
	const op = "session.Signup"

	m.mu.Lock()
	defer m.mu.Unlock()

	users := m.loadUsers(ctx)
	if _, ok := findUser(users, username); ok {
		return core.Errorf(op, core.KindAuth, core.ErrDuplicateUser, "Username already exists")
	}
	if !usernamePattern.MatchString(username) {
		return core.Errorf(op, core.KindValidation, core.ErrInvalidUsername,
			"Username must be 3-20 characters (letters and numbers only)")
	}
	if len(password) < MinPasswordLength {
		return core.Errorf(op, core.KindValidation, core.ErrWeakPassword,
			"Password must be at least %d characters", MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return core.Errorf(op, core.KindValidation, core.ErrWeakPassword,
				"Password must be at most 72 bytes")
		}
		return core.NewError(op, core.KindAuth, err)
	}

	users = append(users, core.User{Username: username, Password: string(hash)})
	if err := core.WriteJSON(ctx, m.storage, core.KeyUsers, users, 0); err != nil {
		m.logger.Warn("Failed to persist users", map[string]interface{}{
			"error": err.Error(),
		})
	}

	m.logger.Info("User signed up", map[string]interface{}{
		"user": username,
	})
	m.setCurrentUserLocked(ctx, username)
	return nil
}

// Login activates the account matching username case-insensitively.
// The session takes the username's stored casing.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	const op = "session.Login"

	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := findUser(m.loadUsers(ctx), username)
	if !ok || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		m.logger.Info("Login rejected", map[string]interface{}{
			"user": username,
		})
		return core.Errorf(op, core.KindAuth, core.ErrInvalidCredentials, "Invalid username or password")
	}

	m.setCurrentUserLocked(ctx, user.Username)
	return nil
}

// Logout clears the identity, empties every scoped store in memory and
// navigates to the menu. Persisted carts and favorites are kept.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	previous := m.current.Value()
	if err := m.storage.Delete(ctx, core.KeyCurrentUser); err != nil {
		m.logger.Warn("Failed to remove current user", map[string]interface{}{
			"error": err.Error(),
		})
	}
	m.current.Publish("")
	for _, s := range m.scoped {
		s.Reset(ctx)
	}

	m.logger.Info("User logged out", map[string]interface{}{
		"user": previous,
	})
	m.navigator.Navigate(core.RouteMenu, nil)
}

// RequireAuth returns true when a user is logged in. Otherwise it asks the
// navigator for the login page, carrying returnURL, and returns false.
func (m *Manager) RequireAuth(returnURL string) bool {
	if m.IsLoggedIn() {
		return true
	}
	params := map[string]string{}
	if returnURL != "" {
		params[core.ReturnURLParam] = returnURL
	}
	m.navigator.Navigate(core.RouteAuth, params)
	return false
}

// setCurrentUserLocked persists and publishes user, then reloads the scoped
// stores; m.mu must be held.
func (m *Manager) setCurrentUserLocked(ctx context.Context, user string) {
	if err := m.storage.Set(ctx, core.KeyCurrentUser, user, 0); err != nil {
		m.logger.Warn("Failed to persist current user", map[string]interface{}{
			"error": err.Error(),
		})
	}
	m.current.Publish(user)
	m.cascade(ctx, user)

	m.logger.Info("User logged in", map[string]interface{}{
		"user": user,
	})
}

func (m *Manager) cascade(ctx context.Context, user string) {
	for _, s := range m.scoped {
		s.LoadUser(ctx, user)
	}
}

func (m *Manager) loadUsers(ctx context.Context) []core.User {
	var users []core.User
	if !core.ReadJSON(ctx, m.storage, core.KeyUsers, &users, m.logger) {
		return nil
	}
	return users
}

func findUser(users []core.User, username string) (core.User, bool) {
	for _, u := range users {
		if strings.EqualFold(u.Username, username) {
			return u, true
		}
	}
	return core.User{}, false
}
