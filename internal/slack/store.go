package slack

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/notifyhub/slackbridge/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InstallationStore provides CRUD over workspace-installation records. It is
// the only shared mutable state across requests; the upsert is atomic with
// respect to the (slack_team_id, slack_user_id) uniqueness key.
type InstallationStore struct {
	db *gorm.DB
}

// NewInstallationStore constructs an InstallationStore.
func NewInstallationStore(db *gorm.DB) *InstallationStore {
	return &InstallationStore{db: db}
}

// InstallationParams holds the fields written by the OAuth linker.
type InstallationParams struct {
	UserID        uint64
	SlackTeamID   string
	SlackTeamName string
	SlackUserID   string
	BotToken      string
	UserToken     string
}

// Upsert inserts an installation or, when (slack_team_id, slack_user_id)
// already exists, refreshes its tokens, team name and activation in place.
// The owner and creation timestamp of an existing row are never touched.
func (s *InstallationStore) Upsert(ctx context.Context, params InstallationParams) (*models.SlackInstallation, error) {
	now := time.Now().UTC()
	row := models.SlackInstallation{
		ID:            uuid.NewString(),
		UserID:        params.UserID,
		SlackTeamID:   params.SlackTeamID,
		SlackTeamName: params.SlackTeamName,
		SlackUserID:   params.SlackUserID,
		BotToken:      params.BotToken,
		UserToken:     params.UserToken,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	errCreate := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "slack_team_id"}, {Name: "slack_user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"slack_team_name": params.SlackTeamName,
			"bot_token":       params.BotToken,
			"user_token":      params.UserToken,
			"is_active":       true,
			"updated_at":      now,
		}),
	}).Create(&row).Error
	if errCreate != nil {
		return nil, errCreate
	}

	// The conflict path keeps the existing id; re-read the canonical row.
	var saved models.SlackInstallation
	errFind := s.db.WithContext(ctx).
		Where("slack_team_id = ? AND slack_user_id = ?", params.SlackTeamID, params.SlackUserID).
		First(&saved).Error
	if errFind != nil {
		return nil, errFind
	}
	return &saved, nil
}

// ActiveByOwner returns the installation used for sends on behalf of a host
// user. When the owner has several active installations the most recently
// updated wins, with id as a total-order tiebreak.
func (s *InstallationStore) ActiveByOwner(ctx context.Context, userID uint64) (*models.SlackInstallation, error) {
	var row models.SlackInstallation
	errFind := s.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("updated_at DESC, id ASC").
		First(&row).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveInstallation
		}
		return nil, errFind
	}
	return &row, nil
}

// ActiveByTeam returns the active installation for a Slack workspace. Inbound
// slash commands carry only team context, not an owner id.
func (s *InstallationStore) ActiveByTeam(ctx context.Context, teamID string) (*models.SlackInstallation, error) {
	var row models.SlackInstallation
	errFind := s.db.WithContext(ctx).
		Where("slack_team_id = ? AND is_active = ?", teamID, true).
		Order("updated_at DESC, id ASC").
		First(&row).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveInstallation
		}
		return nil, errFind
	}
	return &row, nil
}

// Workspace is the secret-free projection returned to owners. Tokens are
// never exposed through listing.
type Workspace struct {
	ID            string    `json:"id"`
	SlackTeamID   string    `json:"slackTeamId"`
	SlackTeamName string    `json:"slackTeamName"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ListByOwner returns all installations owned by a host user.
func (s *InstallationStore) ListByOwner(ctx context.Context, userID uint64) ([]Workspace, error) {
	var rows []models.SlackInstallation
	errFind := s.db.WithContext(ctx).
		Select("id", "slack_team_id", "slack_team_name", "is_active", "created_at", "updated_at").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if errFind != nil {
		return nil, errFind
	}
	out := make([]Workspace, 0, len(rows))
	for _, row := range rows {
		out = append(out, Workspace{
			ID:            row.ID,
			SlackTeamID:   row.SlackTeamID,
			SlackTeamName: row.SlackTeamName,
			IsActive:      row.IsActive,
			CreatedAt:     row.CreatedAt,
			UpdatedAt:     row.UpdatedAt,
		})
	}
	return out, nil
}

// SetActiveOwned updates the activation flag of an installation scoped to
// (id, owner). A miss returns ErrNotFound whether the row does not exist or
// belongs to another owner; callers cannot tell the two apart.
func (s *InstallationStore) SetActiveOwned(ctx context.Context, id string, userID uint64, isActive bool) (time.Time, error) {
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).Model(&models.SlackInstallation{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{
			"is_active":  isActive,
			"updated_at": now,
		})
	if res.Error != nil {
		return time.Time{}, res.Error
	}
	if res.RowsAffected == 0 {
		return time.Time{}, ErrNotFound
	}
	return now, nil
}

// DeleteOwned removes an installation scoped to (id, owner), with the same
// not-found semantics as SetActiveOwned.
func (s *InstallationStore) DeleteOwned(ctx context.Context, id string, userID uint64) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.SlackInstallation{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
