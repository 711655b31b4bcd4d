// Package accounts registers users and manages their login sessions.
package accounts

import (
	"context"
	stderrors "errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/R3E-Network/todo_service/internal/app/domain/user"
	"github.com/R3E-Network/todo_service/internal/app/storage"
	"github.com/R3E-Network/todo_service/internal/errors"
	"github.com/R3E-Network/todo_service/internal/logging"
	"github.com/R3E-Network/todo_service/internal/metrics"
	"github.com/R3E-Network/todo_service/internal/session"
	"github.com/R3E-Network/todo_service/internal/validation"
)

// Messages reported to clients.
const (
	MsgEmailExists    = "Email already Exist"
	MsgUsernameExists = "Username already Exist"
	MsgUserNotFound   = "User not found, please try again"
	MsgBadPassword    = "Password in not Valid"
	MsgDatabaseError  = "Database error"
	MsgLogoutFailed   = "Logout unsuccessfull"
)

// Service handles registration, login and logout.
type Service struct {
	users    storage.UserStore
	sessions *session.Manager
	cost     int
	log      *logging.Logger
	metrics  *metrics.Metrics
}

// New constructs an accounts service. cost is the bcrypt work factor.
func New(users storage.UserStore, sessions *session.Manager, cost int, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDiscard()
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Service{users: users, sessions: sessions, cost: cost, log: log}
}

// WithMetrics attaches a metrics recorder.
func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

// Register validates p, rejects a taken email and then a taken username, and
// stores the user with a bcrypt password digest.
func (s *Service) Register(ctx context.Context, p validation.Payload) (created user.User, err error) {
	defer func() { s.metrics.RecordAuthEvent("register", err == nil) }()

	reg, err := validation.ValidateRegistration(p)
	if err != nil {
		return user.User{}, err
	}

	if err := s.ensureFree(ctx, reg.Email, s.users.GetUserByEmail, MsgEmailExists); err != nil {
		return user.User{}, err
	}
	if err := s.ensureFree(ctx, reg.Username, s.users.GetUserByUsername, MsgUsernameExists); err != nil {
		return user.User{}, err
	}

	hash, err := hashPassword(reg.Password, s.cost)
	if err != nil {
		return user.User{}, err
	}

	created, err = s.users.CreateUser(ctx, user.User{
		Name:     reg.Name,
		Email:    reg.Email,
		Username: reg.Username,
		Password: hash,
	})
	if err != nil {
		s.log.WithContext(ctx).WithError(err).Error("create user failed")
		return user.User{}, errors.Persistence(MsgDatabaseError, err)
	}
	s.log.WithContext(ctx).WithField("user_id", created.ID).Info("user registered")
	return created, nil
}

// hashPassword reports bcrypt's 72-byte input limit as a length violation.
func hashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if stderrors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", errors.Validation(validation.MsgPasswordLength)
	}
	if err != nil {
		return "", errors.Internal(MsgDatabaseError, err)
	}
	return string(hash), nil
}

func (s *Service) ensureFree(ctx context.Context, value string, lookup func(context.Context, string) (user.User, error), takenMsg string) error {
	_, err := lookup(ctx, value)
	switch {
	case err == nil:
		return errors.Duplicate(takenMsg)
	case stderrors.Is(err, storage.ErrNotFound):
		return nil
	default:
		s.log.WithContext(ctx).WithError(err).Error("user lookup failed")
		return errors.Persistence(MsgDatabaseError, err)
	}
}

// Login verifies the credentials in p and opens a session. loginId is
// treated as an email when it parses as one, otherwise as a username.
func (s *Service) Login(ctx context.Context, p validation.Payload) (token string, st session.State, err error) {
	defer func() { s.metrics.RecordAuthEvent("login", err == nil) }()

	creds, err := validation.ValidateLogin(p)
	if err != nil {
		return "", session.State{}, err
	}

	lookup := s.users.GetUserByUsername
	if validation.IsEmail(creds.LoginID) {
		lookup = s.users.GetUserByEmail
	}
	u, err := lookup(ctx, creds.LoginID)
	if stderrors.Is(err, storage.ErrNotFound) {
		s.log.LogSecurityEvent(ctx, "login_unknown_user", map[string]interface{}{"login_id": creds.LoginID})
		return "", session.State{}, errors.BadCredentials(MsgUserNotFound)
	}
	if err != nil {
		s.log.WithContext(ctx).WithError(err).Error("user lookup failed")
		return "", session.State{}, errors.Persistence(MsgDatabaseError, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(creds.Password)); err != nil {
		s.log.LogSecurityEvent(ctx, "login_bad_password", map[string]interface{}{"user_id": u.ID})
		return "", session.State{}, errors.BadCredentials(MsgBadPassword)
	}

	token, rec, err := s.sessions.Create(ctx, u.Summary())
	if err != nil {
		s.log.WithContext(ctx).WithError(err).Error("create session failed")
		return "", session.State{}, errors.Persistence(MsgDatabaseError, err)
	}

	s.log.WithContext(ctx).WithField("user_id", u.ID).Info("user logged in")
	return token, session.State{
		Authenticated: rec.Authenticated,
		User:          rec.User,
		Token:         token,
		ExpiresAt:     rec.ExpiresAt,
	}, nil
}

// Logout destroys the caller's session.
func (s *Service) Logout(ctx context.Context, st session.State) (err error) {
	defer func() { s.metrics.RecordAuthEvent("logout", err == nil) }()

	if err := s.sessions.Destroy(ctx, st.Token); err != nil {
		s.log.WithContext(ctx).WithError(err).Error("destroy session failed")
		return errors.Persistence(MsgLogoutFailed, err)
	}
	return nil
}

// LogoutAll destroys every session held by the caller's email, including
// the current one.
func (s *Service) LogoutAll(ctx context.Context, st session.State) (removed int64, err error) {
	defer func() { s.metrics.RecordAuthEvent("logout_all", err == nil) }()

	removed, err = s.sessions.DestroyAllForEmail(ctx, st.User.Email)
	if err != nil {
		s.log.WithContext(ctx).WithError(err).Error("destroy sessions failed")
		return 0, errors.Persistence(MsgDatabaseError, err)
	}
	s.log.LogSecurityEvent(ctx, "logout_all_devices", map[string]interface{}{"sessions_removed": removed})
	return removed, nil
}
