package models

import (
	"strings"
	"time"

	id "familyshare/pkg/domain"
	dErrors "familyshare/pkg/domain-errors"
)

// DefaultReaction is used when a reaction is added without a type.
const DefaultReaction = "like"

const (
	maxTitleLength        = 200
	maxCommentLength      = 2000
	maxActivityTypeLength = 50
	maxReactionLength     = 32
)

// Activity is a feed entry posted by a member.
type Activity struct {
	ID           id.ActivityID  `json:"id"`
	GroupID      id.GroupID     `json:"group_id"`
	UserID       id.UserID      `json:"user_id"`
	ActivityType string         `json:"activity_type"`
	Title        string         `json:"title"`
	Description  string         `json:"description,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	IsVisible    bool           `json:"is_visible"`
	CreatedAt    time.Time      `json:"created_at"`
}

// NewActivity validates and builds a visible activity.
func NewActivity(groupID id.GroupID, userID id.UserID, activityType, title, description string, metadata map[string]any, now time.Time) (*Activity, error) {
	activityType = strings.TrimSpace(activityType)
	title = strings.TrimSpace(title)
	if activityType == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "activity_type is required")
	}
	if len(activityType) > maxActivityTypeLength {
		return nil, dErrors.New(dErrors.CodeValidation, "activity_type must be at most 50 characters")
	}
	if title == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if len(title) > maxTitleLength {
		return nil, dErrors.New(dErrors.CodeValidation, "title must be at most 200 characters")
	}
	return &Activity{
		ID:           id.NewActivityID(),
		GroupID:      groupID,
		UserID:       userID,
		ActivityType: activityType,
		Title:        title,
		Description:  strings.TrimSpace(description),
		Metadata:     metadata,
		IsVisible:    true,
		CreatedAt:    now,
	}, nil
}

// Comment is a member's comment on an activity.
type Comment struct {
	ID         id.CommentID  `json:"id"`
	ActivityID id.ActivityID `json:"activity_id"`
	UserID     id.UserID     `json:"user_id"`
	Content    string        `json:"content"`
	IsEdited   bool          `json:"is_edited"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

func NewComment(activityID id.ActivityID, userID id.UserID, content string, now time.Time) (*Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "comment content is required")
	}
	if len(content) > maxCommentLength {
		return nil, dErrors.New(dErrors.CodeValidation, "comment must be at most 2000 characters")
	}
	return &Comment{
		ID:         id.NewCommentID(),
		ActivityID: activityID,
		UserID:     userID,
		Content:    content,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Reaction is at most one row per (ActivityID, UserID); ReactionType changes in place.
type Reaction struct {
	ID           id.ReactionID `json:"id"`
	ActivityID   id.ActivityID `json:"activity_id"`
	UserID       id.UserID     `json:"user_id"`
	ReactionType string        `json:"reaction_type"`
	CreatedAt    time.Time     `json:"created_at"`
}

// NormalizeReaction defaults an empty type to "like" and bounds its length.
func NormalizeReaction(reactionType string) (string, error) {
	reactionType = strings.ToLower(strings.TrimSpace(reactionType))
	if reactionType == "" {
		return DefaultReaction, nil
	}
	if len(reactionType) > maxReactionLength {
		return "", dErrors.New(dErrors.CodeValidation, "reaction_type must be at most 32 characters")
	}
	return reactionType, nil
}

// ActivityWithInteractions is an activity enriched for the feed.
type ActivityWithInteractions struct {
	*Activity
	Comments  []*Comment  `json:"comments"`
	Reactions []*Reaction `json:"reactions"`
}
