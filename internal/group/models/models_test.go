package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "familyshare/pkg/domain"
	dErrors "familyshare/pkg/domain-errors"
)

func TestNewGroup(t *testing.T) {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	g, err := NewGroup(id.NewGroupID(), id.NewChildID(), "  Smith Family ", " grandparents + aunts ", "ABCDEFGHJK", now)
	require.NoError(t, err)
	assert.Equal(t, "Smith Family", g.Name)
	assert.Equal(t, "grandparents + aunts", g.Description)
	assert.True(t, g.IsActive)

	_, err = NewGroup(id.NewGroupID(), id.NewChildID(), "   ", "", "X", now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = NewGroup(id.NewGroupID(), id.ChildID{}, "Smith", "", "X", now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = NewGroup(id.NewGroupID(), id.NewChildID(), strings.Repeat("a", 101), "", "X", now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestGroupDeactivate(t *testing.T) {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	g, err := NewGroup(id.NewGroupID(), id.NewChildID(), "Smith Family", "", "X", now)
	require.NoError(t, err)

	later := now.Add(time.Hour)
	require.NoError(t, g.Deactivate(later))
	assert.False(t, g.IsActive)
	assert.Equal(t, later, g.UpdatedAt)

	assert.True(t, dErrors.HasCode(g.Deactivate(later), dErrors.CodeConflict))
}

func TestInvitationCheckRedeemable(t *testing.T) {
	created := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	inv := &Invitation{CreatedAt: created, ExpiresAt: created.Add(7 * 24 * time.Hour)}

	assert.NoError(t, inv.CheckRedeemable(inv.ExpiresAt.Add(-time.Second)))
	assert.NoError(t, inv.CheckRedeemable(inv.ExpiresAt))
	assert.True(t, dErrors.HasCode(inv.CheckRedeemable(inv.ExpiresAt.Add(time.Second)), dErrors.CodeInvitationExpired))
	assert.Equal(t, InvitationPending, inv.Status(created))

	accepted := created.Add(time.Hour)
	inv.AcceptedAt = &accepted
	assert.True(t, dErrors.HasCode(inv.CheckRedeemable(created.Add(2*time.Hour)), dErrors.CodeAlreadyAccepted))
	// expiry is reported before prior acceptance
	assert.True(t, dErrors.HasCode(inv.CheckRedeemable(inv.ExpiresAt.Add(time.Second)), dErrors.CodeInvitationExpired))
	assert.Equal(t, InvitationAccepted, inv.Status(inv.ExpiresAt.Add(time.Hour)))
}

func TestNewActivityAndComment(t *testing.T) {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	a, err := NewActivity(id.NewGroupID(), id.NewUserID(), "milestone", " First steps ", "", map[string]any{"age_months": 11}, now)
	require.NoError(t, err)
	assert.True(t, a.IsVisible)
	assert.Equal(t, "First steps", a.Title)

	_, err = NewActivity(id.NewGroupID(), id.NewUserID(), "", "title", "", nil, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	c, err := NewComment(a.ID, id.NewUserID(), " so proud ", now)
	require.NoError(t, err)
	assert.Equal(t, "so proud", c.Content)
	assert.False(t, c.IsEdited)

	_, err = NewComment(a.ID, id.NewUserID(), "  ", now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestNormalizeReaction(t *testing.T) {
	r, err := NormalizeReaction("")
	require.NoError(t, err)
	assert.Equal(t, DefaultReaction, r)

	r, err = NormalizeReaction(" LOVE ")
	require.NoError(t, err)
	assert.Equal(t, "love", r)

	_, err = NormalizeReaction(strings.Repeat("x", 33))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
