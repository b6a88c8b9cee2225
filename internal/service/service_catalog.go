package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/MKhiriev/go-proc-box/internal/app"
	"github.com/MKhiriev/go-proc-box/internal/config"
	"github.com/MKhiriev/go-proc-box/internal/logger"
	"github.com/MKhiriev/go-proc-box/internal/session"
	"github.com/MKhiriev/go-proc-box/internal/store"
	"github.com/MKhiriev/go-proc-box/internal/utils"
	"github.com/MKhiriev/go-proc-box/models"
)

const (
	counterMaxRetries = 10
	counterRetryDelay = 10 * time.Millisecond
)

// catalogService is the concrete implementation of CatalogService.
// Passwords are stored as HMAC-SHA256 digests; user IDs come from a shared
// counter advanced by compare-and-swap.
type catalogService struct {
	users    store.UserRepository
	counters store.CounterRepository

	// hashKey is the HMAC secret applied to passwords.
	hashKey string

	tokenSignKey  string
	tokenIssuer   string
	tokenDuration time.Duration

	defaultAdminEmail    string
	defaultAdminPassword string

	// counterBackoff builds a fresh backoff for every ID allocation.
	counterBackoff func() retry.Backoff

	logger *logger.Logger
}

// NewCatalogService constructs a CatalogService over the given repositories.
func NewCatalogService(users store.UserRepository, counters store.CounterRepository, cfg config.App, logger *logger.Logger) CatalogService {
	return &catalogService{
		users:                users,
		counters:             counters,
		hashKey:              cfg.PasswordHashKey,
		tokenSignKey:         cfg.TokenSignKey,
		tokenIssuer:          cfg.TokenIssuer,
		tokenDuration:        cfg.TokenDuration,
		defaultAdminEmail:    cfg.DefaultAdminEmail,
		defaultAdminPassword: cfg.DefaultAdminPassword,
		counterBackoff: func() retry.Backoff {
			return retry.WithMaxRetries(counterMaxRetries, retry.NewConstant(counterRetryDelay))
		},
		logger: logger,
	}
}

// Setup is idempotent. The bootstrap administrator always gets sequence
// number 0, so the counter starts at 1.
func (c *catalogService) Setup(ctx context.Context) error {
	created, err := c.counters.InitCounter(ctx, models.NextUserIDEntry, 1)
	if err != nil {
		return fmt.Errorf("error initialising user id counter: %w", err)
	}
	if created {
		c.logger.Info().Msg("user id counter created")
	}

	admin := models.User{
		ID:             defaultAdminID(),
		Email:          c.defaultAdminEmail,
		HashedPassword: c.hashPassword(c.defaultAdminPassword),
		IsAdmin:        true,
	}
	err = c.users.CreateUser(ctx, admin)
	switch {
	case errors.Is(err, store.ErrUserAlreadyExists):
		return nil
	case err != nil:
		return fmt.Errorf("error creating default admin: %w", err)
	}

	c.logger.Info().Str("email", admin.Email).Msg("default admin created")
	return nil
}

func (c *catalogService) Login(ctx context.Context, sess *session.Session, email, password string) error {
	log := logger.FromContext(ctx)

	email = strings.TrimSpace(email)
	if email == "" {
		return app.RequiredArgument("email")
	}
	if password == "" {
		return app.RequiredArgument("password")
	}

	user, err := c.users.FindUserByCredentials(ctx, email, c.hashPassword(password))
	switch {
	case errors.Is(err, store.ErrNoUserWasFound):
		log.Info().Str("email", email).Msg("login rejected")
		return app.ErrNoSuchUser
	case err != nil:
		log.Err(err).Str("email", email).Msg("user search by credentials failed")
		return fmt.Errorf("user search by credentials failed: %w", err)
	}

	sess.Login(user.ID, user.IsAdmin)
	return nil
}

func (c *catalogService) Logout(sess *session.Session) {
	sess.Logout()
}

func (c *catalogService) AddUser(ctx context.Context, sess *session.Session, email, password string, isAdmin bool) (models.User, error) {
	if err := sess.RequireAdmin(); err != nil {
		return models.User{}, err
	}

	email = strings.TrimSpace(email)
	if email == "" {
		return models.User{}, app.RequiredArgument("email")
	}
	if password == "" {
		return models.User{}, app.RequiredArgument("password")
	}

	log := logger.FromContext(ctx)

	_, err := c.users.FindUserByEmail(ctx, email)
	switch {
	case err == nil:
		return models.User{}, app.ErrUserAlreadyExists
	case !errors.Is(err, store.ErrNoUserWasFound):
		log.Err(err).Str("email", email).Msg("user search by email failed")
		return models.User{}, fmt.Errorf("user search by email failed: %w", err)
	}

	seq, err := c.nextUserSeq(ctx)
	if err != nil {
		log.Err(err).Msg("user id allocation failed")
		return models.User{}, err
	}

	user := models.User{
		ID:             models.NewUserID(isAdmin, seq),
		Email:          email,
		HashedPassword: c.hashPassword(password),
		IsAdmin:        isAdmin,
	}
	err = c.users.CreateUser(ctx, user)
	switch {
	case errors.Is(err, store.ErrUserAlreadyExists):
		return models.User{}, app.ErrUserAlreadyExists
	case err != nil:
		log.Err(err).Str("id", user.ID).Msg("user creation ended with error")
		return models.User{}, fmt.Errorf("user creation ended with error: %w", err)
	}

	log.Info().Str("id", user.ID).Bool("is_admin", isAdmin).Msg("user created")
	return user, nil
}

// nextUserSeq reads the counter and advances it with compare-and-swap,
// re-reading on contention.
func (c *catalogService) nextUserSeq(ctx context.Context) (int64, error) {
	seq, err := retry.DoValue(ctx, c.counterBackoff(), func(ctx context.Context) (int64, error) {
		current, err := c.counters.GetCounter(ctx, models.NextUserIDEntry)
		if err != nil {
			return 0, err
		}

		swapped, err := c.counters.CompareAndSwapCounter(ctx, models.NextUserIDEntry, current, current+1)
		if err != nil {
			return 0, err
		}
		if !swapped {
			return 0, retry.RetryableError(ErrCounterContention)
		}

		return current, nil
	})
	if err != nil {
		return 0, fmt.Errorf("error allocating user id: %w", err)
	}
	return seq, nil
}

func (c *catalogService) DeleteUser(ctx context.Context, sess *session.Session, email string) error {
	if err := sess.RequireAdmin(); err != nil {
		return err
	}

	email = strings.TrimSpace(email)
	if email == "" {
		return app.RequiredArgument("email")
	}
	if email == c.defaultAdminEmail {
		return app.ErrCannotDeleteUser
	}

	log := logger.FromContext(ctx)

	user, err := c.users.FindUserByEmail(ctx, email)
	switch {
	case errors.Is(err, store.ErrNoUserWasFound):
		return app.ErrUserNotFound
	case err != nil:
		log.Err(err).Str("email", email).Msg("user search by email failed")
		return fmt.Errorf("user search by email failed: %w", err)
	case user.ID == defaultAdminID():
		return app.ErrCannotDeleteUser
	}

	deleted, err := c.users.DeleteUserByEmail(ctx, email)
	if err != nil {
		log.Err(err).Str("email", email).Msg("user deletion failed")
		return fmt.Errorf("user deletion failed: %w", err)
	}
	if !deleted {
		return app.ErrUserNotFound
	}

	log.Info().Str("id", user.ID).Msg("user deleted")
	return nil
}

func (c *catalogService) GetAdminEmails(ctx context.Context, sess *session.Session) ([]string, error) {
	return c.listEmails(ctx, sess, true)
}

func (c *catalogService) GetCommonEmails(ctx context.Context, sess *session.Session) ([]string, error) {
	return c.listEmails(ctx, sess, false)
}

func (c *catalogService) listEmails(ctx context.Context, sess *session.Session, admins bool) ([]string, error) {
	if err := sess.RequireAdmin(); err != nil {
		return nil, err
	}

	emails, err := c.users.ListEmails(ctx, admins)
	if err != nil {
		logger.FromContext(ctx).Err(err).Bool("admins", admins).Msg("listing emails failed")
		return nil, fmt.Errorf("listing emails failed: %w", err)
	}
	return emails, nil
}

// CreateToken issues a signed JWT for the session's user, carrying the user
// ID as subject and the role in the "adm" claim.
func (c *catalogService) CreateToken(ctx context.Context, sess *session.Session) (models.Token, error) {
	userID, isAdmin, loggedIn := sess.Snapshot()
	if !loggedIn {
		return models.Token{}, app.ErrLoginRequired
	}

	token, err := utils.GenerateJWTToken(c.tokenIssuer, userID, isAdmin, c.tokenDuration, c.tokenSignKey)
	if err != nil {
		return models.Token{}, fmt.Errorf("%w: %w", ErrTokenCreationFailed, err)
	}

	return token, nil
}

// ParseToken normalises every verification failure (expired, wrong issuer,
// malformed) to ErrTokenIsExpiredOrInvalid.
func (c *catalogService) ParseToken(ctx context.Context, tokenString string) (*session.Session, error) {
	token, err := utils.ValidateAndParseJWTToken(tokenString, c.tokenSignKey, c.tokenIssuer)
	if err != nil {
		logger.FromContext(ctx).Debug().Err(err).Msg("token rejected")
		return nil, ErrTokenIsExpiredOrInvalid
	}

	return session.FromUser(token.UserID, token.IsAdmin), nil
}

func (c *catalogService) hashPassword(password string) string {
	return utils.HashString(password, c.hashKey)
}

func defaultAdminID() string {
	return models.NewUserID(true, 0)
}
