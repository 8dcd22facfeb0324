package users

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/caseshelf/caseshelf/pkg/auth"
	"github.com/caseshelf/caseshelf/pkg/errcodes"
	"github.com/caseshelf/caseshelf/pkg/mailer"
	"github.com/caseshelf/caseshelf/pkg/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

// InviteExpiry is how long an invite token stays usable.
const InviteExpiry = 7 * 24 * time.Hour

type RetrieveUserOptions struct {
	ID          *int
	Email       *string
	InviteToken *string
}

type ListUsersOptions struct {
	Limit  *int
	Offset *int
	Search *string

	includeTotal bool
}

type UpdateUserOptions struct {
	Columns []string
}

type Service struct {
	db       *bun.DB
	notifier mailer.Notifier
}

func NewService(db *bun.DB, notifier mailer.Notifier) *Service {
	return &Service{db, notifier}
}

// CreateUser inserts a new user. With a password the account is active
// immediately; without one an invite token is generated and emailed, and the
// account stays inactive until the invite is accepted.
func (svc *Service) CreateUser(ctx context.Context, user *models.User, password *string) error {
	existing, err := svc.RetrieveUser(ctx, RetrieveUserOptions{Email: &user.Email})
	if err == nil && existing != nil {
		return errcodes.Conflict("A user with this email already exists")
	}
	if err != nil && !errors.Is(err, errcodes.NotFound("User")) {
		return err
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if password != nil {
		hash, err := auth.HashPassword(*password)
		if err != nil {
			return err
		}
		user.PasswordHash = hash
		user.IsActive = true
	} else {
		token := uuid.NewString()
		expires := now.Add(InviteExpiry)
		user.InviteToken = &token
		user.InviteExpiresAt = &expires
		user.IsActive = false
	}

	_, err = svc.db.
		NewInsert().
		Model(user).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	if user.InviteToken != nil {
		body := "<p>Hi " + user.Name + ",</p><p>You've been invited to Caseshelf. Use this token to set your password: <code>" + *user.InviteToken + "</code></p>"
		if err := svc.notifier.Send(ctx, user.Email, "You're invited to Caseshelf", body); err != nil {
			// The user row and token exist either way; the invite can be
			// resent, so a mail failure must not fail the create.
			logger.FromContext(ctx).Err(err).Data(logger.Data{"user_id": user.ID}).Error("failed to send invite email")
		}
	}

	return nil
}

func (svc *Service) RetrieveUser(ctx context.Context, opts RetrieveUserOptions) (*models.User, error) {
	user := &models.User{}

	q := svc.db.
		NewSelect().
		Model(user).
		Relation("Permissions")

	if opts.ID != nil {
		q = q.Where("u.id = ?", *opts.ID)
	}
	if opts.Email != nil {
		q = q.Where("u.email = ? COLLATE NOCASE", *opts.Email)
	}
	if opts.InviteToken != nil {
		q = q.Where("u.invite_token = ?", *opts.InviteToken)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("User")
		}
		return nil, errors.WithStack(err)
	}

	return user, nil
}

func (svc *Service) ListUsersWithTotal(ctx context.Context, opts ListUsersOptions) ([]*models.User, int, error) {
	opts.includeTotal = true
	return svc.listUsersWithTotal(ctx, opts)
}

func (svc *Service) listUsersWithTotal(ctx context.Context, opts ListUsersOptions) ([]*models.User, int, error) {
	var users []*models.User
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&users).
		Relation("Permissions").
		Order("u.name ASC")

	if opts.Search != nil && *opts.Search != "" {
		search := "%" + strings.ToLower(*opts.Search) + "%"
		q = q.Where("(LOWER(u.name) LIKE ? OR LOWER(u.email) LIKE ?)", search, search)
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return users, total, nil
}

func (svc *Service) UpdateUser(ctx context.Context, user *models.User, opts UpdateUserOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	now := time.Now()
	user.UpdatedAt = now
	columns := append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(user).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errcodes.NotFound("User")
		}
		return errors.WithStack(err)
	}
	return nil
}

// ReplacePermissions swaps the user's explicit grants for the given set.
// Grants already covered by the role defaults are stored anyway so they
// survive a later role downgrade.
func (svc *Service) ReplacePermissions(ctx context.Context, userID int, perms []models.Permission) error {
	for _, p := range perms {
		if !models.InCatalog(p) {
			return errcodes.ValidationError("\"" + string(p) + "\" is not a permission defined in the catalog")
		}
	}

	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*models.UserPermission)(nil)).
			Where("user_id = ?", userID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		if len(perms) == 0 {
			return nil
		}

		grants := make([]*models.UserPermission, 0, len(perms))
		for _, p := range perms {
			grants = append(grants, &models.UserPermission{UserID: userID, Permission: p})
		}
		_, err = tx.NewInsert().Model(&grants).Exec(ctx)
		return errors.WithStack(err)
	})
}

// DeleteUser removes a user and its grants.
func (svc *Service) DeleteUser(ctx context.Context, userID int) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*models.UserPermission)(nil)).
			Where("user_id = ?", userID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		res, err := tx.NewDelete().
			Model((*models.User)(nil)).
			Where("id = ?", userID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errcodes.NotFound("User")
		}
		return nil
	})
}

// SetPassword replaces the user's password hash.
func (svc *Service) SetPassword(ctx context.Context, userID int, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	res, err := svc.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("password_hash = ?", hash).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errcodes.NotFound("User")
	}
	return nil
}

// AcceptInvite activates an invited account. The token is single-use and
// expires after InviteExpiry.
func (svc *Service) AcceptInvite(ctx context.Context, token, password string) (*models.User, error) {
	user, err := svc.RetrieveUser(ctx, RetrieveUserOptions{InviteToken: &token})
	if err != nil {
		return nil, errcodes.Unauthorized("Invalid or expired invite token")
	}
	if user.InviteExpiresAt == nil || time.Now().After(*user.InviteExpiresAt) {
		return nil, errcodes.Unauthorized("Invalid or expired invite token")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	_, err = svc.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("password_hash = ?", hash).
		Set("is_active = ?", true).
		Set("invite_token = NULL").
		Set("invite_expires_at = NULL").
		Set("updated_at = ?", time.Now()).
		Where("id = ?", user.ID).
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return svc.RetrieveUser(ctx, RetrieveUserOptions{ID: &user.ID})
}
