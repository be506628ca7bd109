package slack

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/notifyhub/slackbridge/internal/models"
	"github.com/notifyhub/slackbridge/internal/slackapi"
	"gorm.io/gorm"
)

// UserDirectory is the host-application identity lookup the resolver
// consumes.
type UserDirectory interface {
	// FindByEmail returns the account with the given email, or
	// gorm.ErrRecordNotFound when none exists.
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// GormUserDirectory implements UserDirectory over the users table.
type GormUserDirectory struct {
	db *gorm.DB
}

// NewGormUserDirectory constructs a GormUserDirectory.
func NewGormUserDirectory(db *gorm.DB) *GormUserDirectory {
	return &GormUserDirectory{db: db}
}

// FindByEmail implements UserDirectory.
func (d *GormUserDirectory) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	errFind := d.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errFind != nil {
		return nil, errFind
	}
	return &user, nil
}

// IdentityResolver maps a Slack user to the host account whose email matches
// the Slack profile.
type IdentityResolver struct {
	users  UserDirectory
	client slackapi.Client
}

// NewIdentityResolver constructs an IdentityResolver.
func NewIdentityResolver(users UserDirectory, client slackapi.Client) *IdentityResolver {
	return &IdentityResolver{users: users, client: client}
}

// ResolveOwner fetches the Slack profile for slackUserID with the user-scoped
// token and returns the id of the host account sharing its email. It fails
// with ErrIdentityNotFound when no account matches, or ErrUpstream when the
// profile lookup fails.
func (r *IdentityResolver) ResolveOwner(ctx context.Context, slackUserID, userToken string) (uint64, error) {
	profile, errInfo := r.client.UserIdentity(ctx, userToken, slackUserID)
	if errInfo != nil {
		return 0, fmt.Errorf("%w: users.info: %v", ErrUpstream, errInfo)
	}
	email := strings.TrimSpace(profile.Email)
	if email == "" {
		return 0, ErrIdentityNotFound
	}

	user, errFind := r.users.FindByEmail(ctx, email)
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return 0, ErrIdentityNotFound
		}
		return 0, errFind
	}
	return user.ID, nil
}
