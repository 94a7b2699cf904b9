package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"familyshare/internal/group/models"
	id "familyshare/pkg/domain"
	"familyshare/pkg/platform/sentinel"
	"familyshare/pkg/platform/tx"
)

type FeedStore struct {
	db *sql.DB
}

func NewFeedStore(db *sql.DB) *FeedStore {
	return &FeedStore{db: db}
}

func (s *FeedStore) CreateActivity(ctx context.Context, a *models.Activity) error {
	var metadata []byte
	if a.Metadata != nil {
		raw, err := json.Marshal(a.Metadata)
		if err != nil {
			return fmt.Errorf("marshal activity metadata: %w", err)
		}
		metadata = raw
	}
	query := `
		INSERT INTO group_activities (id, group_id, user_id, activity_type, title, description, metadata, is_visible, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(a.ID),
		uuid.UUID(a.GroupID),
		uuid.UUID(a.UserID),
		a.ActivityType,
		a.Title,
		a.Description,
		metadata,
		a.IsVisible,
		a.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

const activityColumns = `id, group_id, user_id, activity_type, title, description, metadata, is_visible, created_at`

func (s *FeedStore) FindActivity(ctx context.Context, activityID id.ActivityID) (*models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM group_activities WHERE id = $1`
	a, err := scanActivity(tx.Exec(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(activityID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find activity: %w", err)
	}
	return a, nil
}

func (s *FeedStore) ListActivities(ctx context.Context, groupID id.GroupID, limit, offset int) ([]*models.Activity, error) {
	query := `SELECT ` + activityColumns + `
		FROM group_activities
		WHERE group_id = $1 AND is_visible
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, query, uuid.UUID(groupID), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Activity, 0)
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}
	return out, nil
}

func (s *FeedStore) CreateComment(ctx context.Context, c *models.Comment) error {
	query := `
		INSERT INTO activity_comments (id, activity_id, user_id, content, is_edited, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(c.ID),
		uuid.UUID(c.ActivityID),
		uuid.UUID(c.UserID),
		c.Content,
		c.IsEdited,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (s *FeedStore) ListComments(ctx context.Context, activityID id.ActivityID) ([]*models.Comment, error) {
	query := `
		SELECT id, activity_id, user_id, content, is_edited, created_at, updated_at
		FROM activity_comments
		WHERE activity_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, query, uuid.UUID(activityID))
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Comment, 0)
	for rows.Next() {
		var (
			c             models.Comment
			cID, aID, uID uuid.UUID
		)
		if err := rows.Scan(&cID, &aID, &uID, &c.Content, &c.IsEdited, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		c.ID = id.CommentID(cID)
		c.ActivityID = id.ActivityID(aID)
		c.UserID = id.UserID(uID)
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return out, nil
}

// UpsertReaction relies on the (activity_id, user_id) unique constraint; a repeat
// reaction only changes reaction_type.
func (s *FeedStore) UpsertReaction(ctx context.Context, r *models.Reaction) (*models.Reaction, error) {
	query := `
		INSERT INTO activity_likes (id, activity_id, user_id, reaction_type, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (activity_id, user_id) DO UPDATE SET reaction_type = EXCLUDED.reaction_type
		RETURNING id, created_at
	`
	var (
		stored   = *r
		storedID uuid.UUID
	)
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx, query,
		uuid.UUID(r.ID),
		uuid.UUID(r.ActivityID),
		uuid.UUID(r.UserID),
		r.ReactionType,
		r.CreatedAt,
	).Scan(&storedID, &stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert reaction: %w", err)
	}
	stored.ID = id.ReactionID(storedID)
	return &stored, nil
}

func (s *FeedStore) ListReactions(ctx context.Context, activityID id.ActivityID) ([]*models.Reaction, error) {
	query := `
		SELECT id, activity_id, user_id, reaction_type, created_at
		FROM activity_likes
		WHERE activity_id = $1
		ORDER BY created_at ASC
	`
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, query, uuid.UUID(activityID))
	if err != nil {
		return nil, fmt.Errorf("query reactions: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Reaction, 0)
	for rows.Next() {
		var (
			r             models.Reaction
			rID, aID, uID uuid.UUID
		)
		if err := rows.Scan(&rID, &aID, &uID, &r.ReactionType, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reaction: %w", err)
		}
		r.ID = id.ReactionID(rID)
		r.ActivityID = id.ActivityID(aID)
		r.UserID = id.UserID(uID)
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reactions: %w", err)
	}
	return out, nil
}

func scanActivity(row rowScanner) (*models.Activity, error) {
	var (
		a             models.Activity
		aID, gID, uID uuid.UUID
		metadata      []byte
	)
	if err := row.Scan(&aID, &gID, &uID, &a.ActivityType, &a.Title, &a.Description, &metadata, &a.IsVisible, &a.CreatedAt); err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &a.Metadata); err != nil {
			return nil, fmt.Errorf("decode activity metadata: %w", err)
		}
	}
	a.ID = id.ActivityID(aID)
	a.GroupID = id.GroupID(gID)
	a.UserID = id.UserID(uID)
	return &a, nil
}
