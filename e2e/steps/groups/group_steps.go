package groups

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Do(method, path, user string, body any) error
	ResponseField(path string) (any, error)
	LastStatus() int
	LastBody() []byte
	UserID(name string) string
	Save(key, value string)
	Saved(key string) (string, error)
}

// RegisterSteps registers group, invitation, membership and feed step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &groupSteps{tc: tc}

	// Group lifecycle
	ctx.Step(`^"([^"]*)" creates a family group named "([^"]*)"$`, steps.createGroup)
	ctx.Step(`^"([^"]*)" views the group$`, steps.viewGroup)
	ctx.Step(`^"([^"]*)" deactivates the group$`, steps.deactivateGroup)

	// Invitations
	ctx.Step(`^"([^"]*)" invites "([^"]*)" as "([^"]*)"$`, steps.invite)
	ctx.Step(`^"([^"]*)" accepts the invitation$`, steps.accept)
	ctx.Step(`^"([^"]*)" accepts the invitation token "([^"]*)"$`, steps.acceptToken)

	// Membership
	ctx.Step(`^"([^"]*)" lists the group members$`, steps.listMembers)
	ctx.Step(`^the group should have (\d+) members$`, steps.memberCount)
	ctx.Step(`^"([^"]*)" removes "([^"]*)" from the group$`, steps.removeMember)
	ctx.Step(`^"([^"]*)" leaves the group$`, steps.leave)

	// Feed and audit
	ctx.Step(`^"([^"]*)" posts an activity titled "([^"]*)"$`, steps.postActivity)
	ctx.Step(`^"([^"]*)" comments "([^"]*)" on the activity$`, steps.comment)
	ctx.Step(`^"([^"]*)" views the group audit trail$`, steps.viewAudit)
	ctx.Step(`^the audit trail should include "([^"]*)"$`, steps.auditIncludes)
}

type groupSteps struct {
	tc TestContext
}

func (s *groupSteps) groupPath(suffix string) (string, error) {
	groupID, err := s.tc.Saved("group_id")
	if err != nil {
		return "", err
	}
	return "/groups/" + groupID + suffix, nil
}

// saveField copies a response field into scenario state once the call succeeded.
func (s *groupSteps) saveField(expectedStatus int, field, key string) error {
	if s.tc.LastStatus() != expectedStatus {
		return fmt.Errorf("expected status %d, got %d: %s", expectedStatus, s.tc.LastStatus(), s.tc.LastBody())
	}
	v, err := s.tc.ResponseField(field)
	if err != nil {
		return err
	}
	s.tc.Save(key, fmt.Sprint(v))
	return nil
}

func (s *groupSteps) createGroup(ctx context.Context, user, name string) error {
	body := map[string]any{
		"child_id": s.tc.UserID("child of " + user),
		"name":     name,
	}
	if err := s.tc.Do(http.MethodPost, "/groups", user, body); err != nil {
		return err
	}
	return s.saveField(http.StatusCreated, "id", "group_id")
}

func (s *groupSteps) viewGroup(ctx context.Context, user string) error {
	path, err := s.groupPath("")
	if err != nil {
		return err
	}
	return s.tc.Do(http.MethodGet, path, user, nil)
}

func (s *groupSteps) deactivateGroup(ctx context.Context, user string) error {
	path, err := s.groupPath("")
	if err != nil {
		return err
	}
	return s.tc.Do(http.MethodDelete, path, user, nil)
}

func (s *groupSteps) invite(ctx context.Context, inviter, invitee, role string) error {
	path, err := s.groupPath("/invitations")
	if err != nil {
		return err
	}
	body := map[string]any{
		"email": invitee + "@e2e.familyshare.test",
		"role":  role,
	}
	if err := s.tc.Do(http.MethodPost, path, inviter, body); err != nil {
		return err
	}
	if s.tc.LastStatus() != http.StatusCreated {
		return nil
	}
	return s.saveField(http.StatusCreated, "token", "invitation_token")
}

func (s *groupSteps) accept(ctx context.Context, user string) error {
	token, err := s.tc.Saved("invitation_token")
	if err != nil {
		return err
	}
	return s.acceptToken(ctx, user, token)
}

func (s *groupSteps) acceptToken(ctx context.Context, user, token string) error {
	return s.tc.Do(http.MethodPost, "/invitations/accept", user, map[string]any{"token": token})
}

func (s *groupSteps) listMembers(ctx context.Context, user string) error {
	path, err := s.groupPath("/members")
	if err != nil {
		return err
	}
	return s.tc.Do(http.MethodGet, path, user, nil)
}

func (s *groupSteps) memberCount(ctx context.Context, expected int) error {
	v, err := s.tc.ResponseField("members")
	if err != nil {
		return err
	}
	members, ok := v.([]any)
	if !ok {
		return fmt.Errorf("members is not a list: %v", v)
	}
	if len(members) != expected {
		return fmt.Errorf("expected %d members, got %d", expected, len(members))
	}
	return nil
}

func (s *groupSteps) removeMember(ctx context.Context, actor, target string) error {
	path, err := s.groupPath("/members/" + s.tc.UserID(target))
	if err != nil {
		return err
	}
	return s.tc.Do(http.MethodDelete, path, actor, nil)
}

func (s *groupSteps) leave(ctx context.Context, user string) error {
	path, err := s.groupPath("/leave")
	if err != nil {
		return err
	}
	return s.tc.Do(http.MethodPost, path, user, nil)
}

func (s *groupSteps) postActivity(ctx context.Context, user, title string) error {
	path, err := s.groupPath("/activities")
	if err != nil {
		return err
	}
	body := map[string]any{"activity_type": "milestone", "title": title}
	if err := s.tc.Do(http.MethodPost, path, user, body); err != nil {
		return err
	}
	return s.saveField(http.StatusCreated, "id", "activity_id")
}

func (s *groupSteps) comment(ctx context.Context, user, content string) error {
	activityID, err := s.tc.Saved("activity_id")
	if err != nil {
		return err
	}
	return s.tc.Do(http.MethodPost, "/activities/"+activityID+"/comments", user, map[string]any{"content": content})
}

func (s *groupSteps) viewAudit(ctx context.Context, user string) error {
	path, err := s.groupPath("/audit")
	if err != nil {
		return err
	}
	return s.tc.Do(http.MethodGet, path, user, nil)
}

func (s *groupSteps) auditIncludes(ctx context.Context, action string) error {
	v, err := s.tc.ResponseField("entries")
	if err != nil {
		return err
	}
	entries, _ := v.([]any)
	for _, e := range entries {
		if entry, ok := e.(map[string]any); ok && entry["action"] == action {
			return nil
		}
	}
	return fmt.Errorf("audit trail has no %q entry: %s", action, s.tc.LastBody())
}
