package models

import "time"

// SlackInstallation links one host account to one Slack workspace and holds
// the tokens needed to act as that workspace's bot.
type SlackInstallation struct {
	ID string `gorm:"type:text;primaryKey"` // Opaque UUID, generated on creation.

	UserID uint64 `gorm:"not null;index"`        // Owning host account. Set once at creation.
	User   *User  `gorm:"foreignKey:UserID"`     // Associated user record.

	SlackTeamID   string `gorm:"type:text;not null;uniqueIndex:ux_slack_team_user,priority:1"` // Workspace id; join key for inbound webhooks.
	SlackTeamName string `gorm:"type:text;not null"`                                           // Workspace display name.
	SlackUserID   string `gorm:"type:text;not null;uniqueIndex:ux_slack_team_user,priority:2"` // Slack user that authorized the install.

	BotToken  string `gorm:"type:text;not null"` // Workspace-scoped token for outbound bot calls.
	UserToken string `gorm:"type:text;not null"` // User-scoped token, used only for identity resolution at link time.

	IsActive bool `gorm:"not null;default:true"` // Eligibility for outbound sends and webhook flows.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
