package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"familyshare/internal/audit"
	"familyshare/internal/group/models"
	id "familyshare/pkg/domain"
	dErrors "familyshare/pkg/domain-errors"
	"familyshare/pkg/platform/sentinel"
)

// CreateActivity posts a visible activity on behalf of a member.
func (s *Service) CreateActivity(ctx context.Context, groupID id.GroupID, userID id.UserID, activityType, title, description string, metadata map[string]any) (_ *models.Activity, err error) {
	ctx, finish := s.startSpan(ctx, "CreateActivity",
		attribute.String("group_id", groupID.String()),
		attribute.String("activity_type", activityType))
	defer func() { finish(err) }()

	if _, err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	activity, err := models.NewActivity(groupID, userID, activityType, title, description, metadata, s.now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.feed.CreateActivity(ctx, activity); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create activity")
	}
	s.metrics.IncActivitiesCreated()
	return activity, nil
}

// GetGroupActivities returns a page of visible activities, newest first, each with its
// comments (oldest first) and reactions.
func (s *Service) GetGroupActivities(ctx context.Context, groupID id.GroupID, userID id.UserID, limit, offset int) (_ []*models.ActivityWithInteractions, err error) {
	ctx, finish := s.startSpan(ctx, "GetGroupActivities", attribute.String("group_id", groupID.String()))
	defer func() { finish(err) }()

	if _, err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)

	activities, err := s.feed.ListActivities(ctx, groupID, limit, offset)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list activities")
	}

	out := make([]*models.ActivityWithInteractions, len(activities))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)
	for i, activity := range activities {
		g.Go(func() error {
			comments, err := s.feed.ListComments(gctx, activity.ID)
			if err != nil {
				return err
			}
			reactions, err := s.feed.ListReactions(gctx, activity.ID)
			if err != nil {
				return err
			}
			out[i] = &models.ActivityWithInteractions{
				Activity:  activity,
				Comments:  nonNil(comments),
				Reactions: nonNil(reactions),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load activity interactions")
	}
	return out, nil
}

// AddComment comments on an activity. Membership is checked against the activity's group
// on every call.
func (s *Service) AddComment(ctx context.Context, activityID id.ActivityID, userID id.UserID, content string) (_ *models.Comment, err error) {
	ctx, finish := s.startSpan(ctx, "AddComment", attribute.String("activity_id", activityID.String()))
	defer func() { finish(err) }()

	activity, err := s.loadActivity(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireMember(ctx, activity.GroupID, userID); err != nil {
		return nil, err
	}
	comment, err := models.NewComment(activityID, userID, content, s.now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.feed.CreateComment(ctx, comment); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to add comment")
	}

	s.logAudit(ctx, audit.Record{
		GroupID:      activity.GroupID,
		UserID:       userID,
		Action:       audit.ActionCommentAdded,
		ResourceType: audit.ResourceComment,
		ResourceID:   comment.ID.String(),
		NewValues:    map[string]any{"activity_id": activityID.String(), "length": len(comment.Content)},
	})
	s.metrics.IncCommentsAdded()
	return comment, nil
}

// AddReaction sets the caller's reaction on an activity. Reacting again replaces the
// previous type; a user never holds two reactions on one activity.
func (s *Service) AddReaction(ctx context.Context, activityID id.ActivityID, userID id.UserID, reactionType string) (_ *models.Reaction, err error) {
	ctx, finish := s.startSpan(ctx, "AddReaction", attribute.String("activity_id", activityID.String()))
	defer func() { finish(err) }()

	reactionType, err = models.NormalizeReaction(reactionType)
	if err != nil {
		return nil, err
	}
	activity, err := s.loadActivity(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireMember(ctx, activity.GroupID, userID); err != nil {
		return nil, err
	}
	stored, err := s.feed.UpsertReaction(ctx, &models.Reaction{
		ID:           id.NewReactionID(),
		ActivityID:   activityID,
		UserID:       userID,
		ReactionType: reactionType,
		CreatedAt:    s.now(ctx),
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save reaction")
	}
	s.metrics.IncReactionsUpserted()
	return stored, nil
}

// loadActivity treats hidden activities as absent.
func (s *Service) loadActivity(ctx context.Context, activityID id.ActivityID) (*models.Activity, error) {
	activity, err := s.feed.FindActivity(ctx, activityID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "activity not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load activity")
	}
	if !activity.IsVisible {
		return nil, dErrors.New(dErrors.CodeNotFound, "activity not found")
	}
	return activity, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
