package memory

import (
	"context"
	"maps"
	"sort"
	"sync"

	"familyshare/internal/group/models"
	id "familyshare/pkg/domain"
	"familyshare/pkg/platform/sentinel"
)

type reactionKey struct {
	activity id.ActivityID
	user     id.UserID
}

type FeedStore struct {
	mu         sync.RWMutex
	activities map[id.ActivityID]*models.Activity
	comments   map[id.ActivityID][]*models.Comment
	reactions  map[reactionKey]*models.Reaction
}

func NewFeedStore() *FeedStore {
	return &FeedStore{
		activities: make(map[id.ActivityID]*models.Activity),
		comments:   make(map[id.ActivityID][]*models.Comment),
		reactions:  make(map[reactionKey]*models.Reaction),
	}
}

func (s *FeedStore) CreateActivity(_ context.Context, activity *models.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.activities[activity.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.activities[activity.ID] = copyActivity(activity)
	return nil
}

func (s *FeedStore) FindActivity(_ context.Context, activityID id.ActivityID) (*models.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.activities[activityID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyActivity(a), nil
}

func (s *FeedStore) ListActivities(_ context.Context, groupID id.GroupID, limit, offset int) ([]*models.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]*models.Activity, 0)
	for _, a := range s.activities {
		if a.GroupID == groupID && a.IsVisible {
			matched = append(matched, copyActivity(a))
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.String() > matched[j].ID.String()
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if offset >= len(matched) {
		return []*models.Activity{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (s *FeedStore) CreateComment(_ context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.activities[comment.ActivityID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *comment
	s.comments[comment.ActivityID] = append(s.comments[comment.ActivityID], &cp)
	return nil
}

// ListComments returns comments in insertion order, which is oldest first.
func (s *FeedStore) ListComments(_ context.Context, activityID id.ActivityID) ([]*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.comments[activityID]
	out := make([]*models.Comment, 0, len(stored))
	for _, c := range stored {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

// UpsertReaction keeps the first row's ID and CreatedAt and replaces the type.
func (s *FeedStore) UpsertReaction(_ context.Context, reaction *models.Reaction) (*models.Reaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.activities[reaction.ActivityID]; !ok {
		return nil, sentinel.ErrNotFound
	}
	key := reactionKey{reaction.ActivityID, reaction.UserID}
	if existing, ok := s.reactions[key]; ok {
		existing.ReactionType = reaction.ReactionType
		cp := *existing
		return &cp, nil
	}
	cp := *reaction
	s.reactions[key] = &cp
	out := cp
	return &out, nil
}

func (s *FeedStore) ListReactions(_ context.Context, activityID id.ActivityID) ([]*models.Reaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Reaction, 0)
	for key, r := range s.reactions {
		if key.activity == activityID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// copyActivity detaches the metadata map so neither the caller nor the store sees the
// other's later writes.
func copyActivity(a *models.Activity) *models.Activity {
	cp := *a
	cp.Metadata = maps.Clone(a.Metadata)
	return &cp
}
