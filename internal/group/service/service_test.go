package service_test

//go:generate mockgen -destination=mocks/mocks.go -package=mocks familyshare/internal/group/service Notifier,RedemptionLimiter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"familyshare/internal/audit"
	auditmemory "familyshare/internal/audit/store/memory"
	"familyshare/internal/group/metrics"
	"familyshare/internal/group/models"
	"familyshare/internal/group/service"
	"familyshare/internal/group/service/mocks"
	"familyshare/internal/group/store/memory"
	"familyshare/internal/permission"
	"familyshare/internal/token"
	id "familyshare/pkg/domain"
	dErrors "familyshare/pkg/domain-errors"
	"familyshare/pkg/platform/sentinel"
)

type ServiceSuite struct {
	suite.Suite
	ctx        context.Context
	ctrl       *gomock.Controller
	notifier   *mocks.MockNotifier
	auditStore *auditmemory.InMemoryStore
	members    *memory.MemberStore
	metrics    *metrics.Metrics
	now        time.Time
	service    *service.Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.notifier = mocks.NewMockNotifier(s.ctrl)
	s.auditStore = auditmemory.New()
	s.members = memory.NewMemberStore()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	s.service = s.newService()
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) clock() time.Time {
	return s.now
}

func (s *ServiceSuite) newService(opts ...service.Option) *service.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	base := []service.Option{
		service.WithLogger(logger),
		service.WithClock(s.clock),
		service.WithNotifier(s.notifier),
		service.WithMetrics(s.metrics),
		service.WithAuditLogger(audit.NewLogger(s.auditStore,
			audit.WithLogger(logger),
			audit.WithClock(s.clock),
		)),
	}
	return service.New(service.Stores{
		Groups:      memory.NewGroupStore(),
		Members:     s.members,
		Invitations: memory.NewInvitationStore(),
		Feed:        memory.NewFeedStore(),
	}, append(base, opts...)...)
}

func (s *ServiceSuite) requireCode(err error, code dErrors.Code) {
	s.T().Helper()
	s.Require().Error(err)
	s.Require().Truef(dErrors.HasCode(err, code), "expected %s, got %v", code, err)
}

func (s *ServiceSuite) createGroup(owner id.UserID) *models.Group {
	s.T().Helper()
	g, err := s.service.CreateGroup(s.ctx, id.NewChildID(), owner, "Smith Family", "Baby Emma's circle")
	s.Require().NoError(err)
	return g
}

func (s *ServiceSuite) invite(groupID id.GroupID, inviter id.UserID, email string, role permission.Role, override *permission.Override) *models.IssuedInvitation {
	s.T().Helper()
	s.notifier.EXPECT().SendInvitation(gomock.Any(), email, gomock.Any(), gomock.Any()).Return(nil)
	issued, err := s.service.InviteMember(s.ctx, groupID, inviter, email, role, override)
	s.Require().NoError(err)
	return issued
}

// join invites a fresh user with role and redeems the invitation for them.
func (s *ServiceSuite) join(groupID id.GroupID, inviter id.UserID, role permission.Role) id.UserID {
	s.T().Helper()
	user := id.NewUserID()
	issued := s.invite(groupID, inviter, fmt.Sprintf("%s@example.com", role), role, nil)
	_, err := s.service.AcceptInvitation(s.ctx, issued.Token, user)
	s.Require().NoError(err)
	return user
}

func (s *ServiceSuite) auditEntries(groupID id.GroupID) []audit.Entry {
	s.T().Helper()
	entries, err := s.auditStore.ListByGroup(s.ctx, groupID, 0)
	s.Require().NoError(err)
	return entries
}

func (s *ServiceSuite) entriesFor(groupID id.GroupID, action audit.Action) []audit.Entry {
	var out []audit.Entry
	for _, e := range s.auditEntries(groupID) {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

func (s *ServiceSuite) TestSmithFamilyScenario() {
	userA, userB := id.NewUserID(), id.NewUserID()
	childC := id.NewChildID()

	group, err := s.service.CreateGroup(s.ctx, childC, userA, "Smith Family", "")
	s.Require().NoError(err)
	s.Equal(childC, group.ChildID)

	var emailed string
	s.notifier.EXPECT().
		SendInvitation(gomock.Any(), "bob@example.com", gomock.Any(), "Smith Family").
		DoAndReturn(func(_ context.Context, _, tok, _ string) error {
			emailed = tok
			return nil
		})
	_, err = s.service.InviteMember(s.ctx, group.ID, userA, "bob@example.com", permission.RoleContributor, nil)
	s.Require().NoError(err)
	s.Require().NotEmpty(emailed)

	member, err := s.service.AcceptInvitation(s.ctx, emailed, userB)
	s.Require().NoError(err)
	s.Equal(permission.RoleContributor, member.Role)
	s.False(member.Permissions.ViewMedical)
	s.True(member.Permissions.AddData)

	role, ok, err := s.service.GetUserRole(s.ctx, group.ID, userB)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(permission.RoleContributor, role)

	_, err = s.service.CreateActivity(s.ctx, group.ID, userB, "milestone", "Emma rolled over", "", nil)
	s.Require().NoError(err)

	momPost, err := s.service.CreateActivity(s.ctx, group.ID, userA, "photo", "Bath time", "", nil)
	s.Require().NoError(err)
	_, err = s.service.AddComment(s.ctx, momPost.ID, userB, "Adorable!")
	s.Require().NoError(err)

	_, err = s.service.UpdateMemberPermissions(s.ctx, group.ID, userA, userB, permission.Permissions{})
	s.requireCode(err, dErrors.CodePermissionDenied)
}

func (s *ServiceSuite) TestCreateGroup() {
	s.Run("creator becomes the single owner", func() {
		owner := id.NewUserID()
		g := s.createGroup(owner)
		s.True(g.IsActive)
		s.Len(g.InviteCode, 10)

		members, err := s.service.ListMembers(s.ctx, g.ID, owner)
		s.Require().NoError(err)
		s.Require().Len(members, 1)
		s.Equal(owner, members[0].UserID)
		s.Equal(permission.RoleOwner, members[0].Role)
		ownerDefaults, err := permission.Defaults(permission.RoleOwner)
		s.Require().NoError(err)
		s.Equal(ownerDefaults, members[0].Permissions)

		created := s.entriesFor(g.ID, audit.ActionGroupCreated)
		s.Require().Len(created, 1)
		s.Equal("Smith Family", created[0].NewValues["name"])
		s.Equal(audit.Unknown, created[0].IPAddress)
	})

	s.Run("rejects an empty name without side effects", func() {
		before := len(s.auditStore.ListAll())
		_, err := s.service.CreateGroup(s.ctx, id.NewChildID(), id.NewUserID(), "   ", "")
		s.requireCode(err, dErrors.CodeValidation)
		s.Len(s.auditStore.ListAll(), before)
	})

	s.Run("allows several groups per child", func() {
		child := id.NewChildID()
		_, err := s.service.CreateGroup(s.ctx, child, id.NewUserID(), "Maternal side", "")
		s.Require().NoError(err)
		_, err = s.service.CreateGroup(s.ctx, child, id.NewUserID(), "Paternal side", "")
		s.Require().NoError(err)
	})
}

type scriptedCodes struct {
	token.CryptoGenerator
	codes []string
	next  int
}

func (g *scriptedCodes) InviteCode(int) (string, error) {
	if g.next >= len(g.codes) {
		return g.codes[len(g.codes)-1], nil
	}
	code := g.codes[g.next]
	g.next++
	return code, nil
}

func (s *ServiceSuite) TestCreateGroupRetriesInviteCodeCollision() {
	gen := &scriptedCodes{codes: []string{"TAKENCODE1", "TAKENCODE1", "FRESHCODE1"}}
	svc := s.newService(service.WithTokenGenerator(gen))

	_, err := svc.CreateGroup(s.ctx, id.NewChildID(), id.NewUserID(), "First", "")
	s.Require().NoError(err)
	second, err := svc.CreateGroup(s.ctx, id.NewChildID(), id.NewUserID(), "Second", "")
	s.Require().NoError(err)
	s.Equal("FRESHCODE1", second.InviteCode)

	exhausted := s.newService(service.WithTokenGenerator(&scriptedCodes{codes: []string{"TAKENCODE1"}}))
	_, err = exhausted.CreateGroup(s.ctx, id.NewChildID(), id.NewUserID(), "Third", "")
	s.Require().NoError(err)
	_, err = exhausted.CreateGroup(s.ctx, id.NewChildID(), id.NewUserID(), "Fourth", "")
	s.requireCode(err, dErrors.CodeInternal)
}

func (s *ServiceSuite) TestGetAndDeactivateGroup() {
	owner := id.NewUserID()
	g := s.createGroup(owner)
	viewer := s.join(g.ID, owner, permission.RoleViewer)

	got, err := s.service.GetGroup(s.ctx, g.ID, viewer)
	s.Require().NoError(err)
	s.Equal(g.ID, got.ID)

	_, err = s.service.GetGroup(s.ctx, g.ID, id.NewUserID())
	s.requireCode(err, dErrors.CodePermissionDenied)

	_, err = s.service.DeactivateGroup(s.ctx, g.ID, viewer)
	s.requireCode(err, dErrors.CodePermissionDenied)

	deactivated, err := s.service.DeactivateGroup(s.ctx, g.ID, owner)
	s.Require().NoError(err)
	s.False(deactivated.IsActive)
	s.Len(s.entriesFor(g.ID, audit.ActionGroupDeactivated), 1)

	_, err = s.service.DeactivateGroup(s.ctx, g.ID, owner)
	s.requireCode(err, dErrors.CodeConflict)

	_, err = s.service.InviteMember(s.ctx, g.ID, owner, "late@example.com", permission.RoleViewer, nil)
	s.requireCode(err, dErrors.CodeConflict)
}

func (s *ServiceSuite) TestInviteMemberRequiresInviteCapability() {
	owner := id.NewUserID()
	g := s.createGroup(owner)

	for _, role := range []permission.Role{permission.RoleViewer, permission.RoleContributor} {
		user := s.join(g.ID, owner, role)
		_, err := s.service.InviteMember(s.ctx, g.ID, user, "someone@example.com", permission.RoleViewer, nil)
		s.requireCode(err, dErrors.CodePermissionDenied)
	}

	_, err := s.service.InviteMember(s.ctx, g.ID, id.NewUserID(), "someone@example.com", permission.RoleViewer, nil)
	s.requireCode(err, dErrors.CodePermissionDenied)

	admin := s.join(g.ID, owner, permission.RoleAdmin)
	s.invite(g.ID, admin, "cousin@example.com", permission.RoleViewer, nil)
}

func (s *ServiceSuite) TestInviteMemberStoresOnlyTheTokenHash() {
	owner := id.NewUserID()
	g := s.createGroup(owner)

	s.notifier.EXPECT().SendInvitation(gomock.Any(), "grandma@example.com", gomock.Any(), "Smith Family").Return(nil)
	issued, err := s.service.InviteMember(s.ctx, g.ID, owner, "  Grandma@Example.com ", permission.RoleViewer, nil)
	s.Require().NoError(err)

	inv := issued.Invitation
	s.NotEmpty(issued.Token)
	s.NotEqual(issued.Token, inv.TokenHash)
	s.Equal(token.Hash(issued.Token), inv.TokenHash)
	s.Equal("grandma@example.com", inv.Email)
	s.Equal(s.now.Add(service.InvitationTTL), inv.ExpiresAt)
	s.Equal(models.InvitationPending, inv.Status(s.now))

	invited := s.entriesFor(g.ID, audit.ActionMemberInvited)
	s.Require().Len(invited, 1)
	s.Equal(map[string]any{"email": "grandma@example.com", "role": "viewer"}, invited[0].NewValues)

	pending, err := s.service.ListPendingInvitations(s.ctx, g.ID, owner)
	s.Require().NoError(err)
	s.Len(pending, 1)
}

func (s *ServiceSuite) TestInviteMemberValidation() {
	owner := id.NewUserID()
	g := s.createGroup(owner)

	_, err := s.service.InviteMember(s.ctx, g.ID, owner, "not-an-email", permission.RoleViewer, nil)
	s.requireCode(err, dErrors.CodeValidation)

	_, err = s.service.InviteMember(s.ctx, g.ID, owner, "x@example.com", permission.Role("superuser"), nil)
	s.requireCode(err, dErrors.CodeInvalidRole)

	_, err = s.service.InviteMember(s.ctx, g.ID, owner, "x@example.com", permission.RoleOwner, nil)
	s.requireCode(err, dErrors.CodeOwnerProtected)

	s.Empty(s.entriesFor(g.ID, audit.ActionMemberInvited))
}

func (s *ServiceSuite) TestInviteMemberAppliesOverride() {
	owner := id.NewUserID()
	g := s.createGroup(owner)

	issued := s.invite(g.ID, owner, "nanny@example.com", permission.RoleContributor, &permission.Override{
		ViewMedical: permission.Bool(true),
		AddData:     permission.Bool(false),
	})
	s.True(issued.Invitation.Permissions.ViewMedical)
	s.False(issued.Invitation.Permissions.AddData)
	s.True(issued.Invitation.Permissions.ViewSleep)

	nanny := id.NewUserID()
	member, err := s.service.AcceptInvitation(s.ctx, issued.Token, nanny)
	s.Require().NoError(err)
	s.Equal(issued.Invitation.Permissions, member.Permissions)
	s.True(s.service.HasPermission(s.ctx, g.ID, nanny, permission.ViewMedical))
}

func (s *ServiceSuite) TestInviteMemberSwallowsNotifierFailure() {
	owner := id.NewUserID()
	g := s.createGroup(owner)

	s.notifier.EXPECT().SendInvitation(gomock.Any(), "bob@example.com", gomock.Any(), gomock.Any()).
		Return(errors.New("smtp timeout"))
	issued, err := s.service.InviteMember(s.ctx, g.ID, owner, "bob@example.com", permission.RoleViewer, nil)
	s.Require().NoError(err)
	s.NotEmpty(issued.Token)
	s.Len(s.entriesFor(g.ID, audit.ActionMemberInvited), 1)
}

func (s *ServiceSuite) TestAcceptInvitationExpiryBoundary() {
	owner := id.NewUserID()
	g := s.createGroup(owner)
	created := s.now

	late := s.invite(g.ID, owner, "late@example.com", permission.RoleViewer, nil)
	onTime := s.invite(g.ID, owner, "ontime@example.com", permission.RoleViewer, nil)
	exact := s.invite(g.ID, owner, "exact@example.com", permission.RoleViewer, nil)

	s.now = created.Add(7*24*time.Hour - time.Second)
	_, err := s.service.AcceptInvitation(s.ctx, onTime.Token, id.NewUserID())
	s.Require().NoError(err)

	s.now = created.Add(7 * 24 * time.Hour)
	_, err = s.service.AcceptInvitation(s.ctx, exact.Token, id.NewUserID())
	s.Require().NoError(err)

	s.now = created.Add(7*24*time.Hour + time.Second)
	_, err = s.service.AcceptInvitation(s.ctx, late.Token, id.NewUserID())
	s.requireCode(err, dErrors.CodeInvitationExpired)

	pending, err := s.service.ListPendingInvitations(s.ctx, g.ID, owner)
	s.Require().NoError(err)
	s.Empty(pending)
}

func (s *ServiceSuite) TestAcceptInvitationIsSingleUse() {
	owner := id.NewUserID()
	g := s.createGroup(owner)
	issued := s.invite(g.ID, owner, "bob@example.com", permission.RoleContributor, nil)
	bob := id.NewUserID()

	_, err := s.service.AcceptInvitation(s.ctx, issued.Token, bob)
	s.Require().NoError(err)

	_, err = s.service.AcceptInvitation(s.ctx, issued.Token, bob)
	s.requireCode(err, dErrors.CodeAlreadyAccepted)

	_, err = s.service.AcceptInvitation(s.ctx, issued.Token, id.NewUserID())
	s.requireCode(err, dErrors.CodeAlreadyAccepted)

	s.Len(s.entriesFor(g.ID, audit.ActionInvitationAccepted), 1)
}

func (s *ServiceSuite) TestAcceptInvitationRejections() {
	owner := id.NewUserID()
	g := s.createGroup(owner)

	_, err := s.service.AcceptInvitation(s.ctx, "no-such-token", id.NewUserID())
	s.requireCode(err, dErrors.CodeInvalidToken)

	_, err = s.service.AcceptInvitation(s.ctx, "   ", id.NewUserID())
	s.requireCode(err, dErrors.CodeInvalidToken)

	issued := s.invite(g.ID, owner, "self@example.com", permission.RoleViewer, nil)
	_, err = s.service.AcceptInvitation(s.ctx, issued.Token, owner)
	s.requireCode(err, dErrors.CodeAlreadyMember)

	pending, err := s.service.ListPendingInvitations(s.ctx, g.ID, owner)
	s.Require().NoError(err)
	s.Len(pending, 1, "a rejected redemption leaves the invitation pending")
}

func (s *ServiceSuite) TestAcceptInvitationAfterDeactivation() {
	owner := id.NewUserID()
	g := s.createGroup(owner)
	issued := s.invite(g.ID, owner, "aunt@example.com", permission.RoleAdmin, nil)

	_, err := s.service.DeactivateGroup(s.ctx, g.ID, owner)
	s.Require().NoError(err)

	pending, err := s.service.ListPendingInvitations(s.ctx, g.ID, owner)
	s.Require().NoError(err)
	s.Empty(pending)

	aunt := id.NewUserID()
	_, err = s.service.AcceptInvitation(s.ctx, issued.Token, aunt)
	s.requireCode(err, dErrors.CodeConflict)

	_, err = s.members.Find(s.ctx, g.ID, aunt)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.Empty(s.entriesFor(g.ID, audit.ActionInvitationAccepted))

	s.Run("expiry and prior acceptance are still reported first", func() {
		s.now = s.now.Add(service.InvitationTTL + time.Second)
		_, err := s.service.AcceptInvitation(s.ctx, issued.Token, aunt)
		s.requireCode(err, dErrors.CodeInvitationExpired)
	})
}

func (s *ServiceSuite) TestAcceptInvitationConcurrentRedemptions() {
	owner := id.NewUserID()
	g := s.createGroup(owner)
	issued := s.invite(g.ID, owner, "race@example.com", permission.RoleViewer, nil)

	const callers = 10
	results := make(chan error, callers)
	start := make(chan struct{})
	for range callers {
		go func() {
			<-start
			_, err := s.service.AcceptInvitation(s.ctx, issued.Token, id.NewUserID())
			results <- err
		}()
	}
	close(start)

	var successes, alreadyAccepted int
	for range callers {
		err := <-results
		switch {
		case err == nil:
			successes++
		case dErrors.HasCode(err, dErrors.CodeAlreadyAccepted):
			alreadyAccepted++
		}
	}
	s.Equal(1, successes)
	s.Equal(callers-1, alreadyAccepted)

	members, err := s.service.ListMembers(s.ctx, g.ID, owner)
	s.Require().NoError(err)
	s.Len(members, 2)
}

func (s *ServiceSuite) TestAcceptInvitationRedemptionLimiter() {
	limiter := mocks.NewMockRedemptionLimiter(s.ctrl)
	svc := s.newService(service.WithRedemptionLimiter(limiter))
	user := id.NewUserID()

	limiter.EXPECT().Allow(gomock.Any(), user.String()).Return(false, nil)
	_, err := svc.AcceptInvitation(s.ctx, "whatever", user)
	s.requireCode(err, dErrors.CodeTooManyRequests)

	limiter.EXPECT().Allow(gomock.Any(), user.String()).Return(false, errors.New("redis down"))
	_, err = svc.AcceptInvitation(s.ctx, "whatever", user)
	s.requireCode(err, dErrors.CodeInvalidToken)
}

func (s *ServiceSuite) TestUpdateMemberPermissions() {
	owner := id.NewUserID()
	g := s.createGroup(owner)
	admin := s.join(g.ID, owner, permission.RoleAdmin)
	contributor := s.join(g.ID, owner, permission.RoleContributor)

	s.False(s.service.HasPermission(s.ctx, g.ID, contributor, permission.ViewMedical))

	granted, err := permission.Defaults(permission.RoleContributor)
	s.Require().NoError(err)
	granted.ViewMedical = true
	updated, err := s.service.UpdateMemberPermissions(s.ctx, g.ID, contributor, admin, granted)
	s.Require().NoError(err)
	s.Equal(granted, updated.Permissions)
	s.True(s.service.HasPermission(s.ctx, g.ID, contributor, permission.ViewMedical))

	entries := s.entriesFor(g.ID, audit.ActionPermissionsUpdated)
	s.Require().Len(entries, 1)
	s.Equal(false, entries[0].OldValues["view_medical"])
	s.Equal(true, entries[0].NewValues["view_medical"])
	s.Equal(admin, entries[0].UserID)

	_, err = s.service.UpdateMemberPermissions(s.ctx, g.ID, admin, contributor, granted)
	s.requireCode(err, dErrors.CodePermissionDenied)

	_, err = s.service.UpdateMemberPermissions(s.ctx, g.ID, owner, admin, permission.Permissions{})
	s.requireCode(err, dErrors.CodeOwnerProtected)

	_, err = s.service.UpdateMemberPermissions(s.ctx, g.ID, id.NewUserID(), admin, granted)
	s.requireCode(err, dErrors.CodeNotFound)
}

func (s *ServiceSuite) TestUpdateMemberRole() {
	owner := id.NewUserID()
	g := s.createGroup(owner)
	contributor := s.join(g.ID, owner, permission.RoleContributor)

	updated, err := s.service.UpdateMemberRole(s.ctx, g.ID, contributor, owner, permission.RoleViewer)
	s.Require().NoError(err)
	s.Equal(permission.RoleViewer, updated.Role)
	s.False(updated.Permissions.AddData)
	s.Len(s.entriesFor(g.ID, audit.ActionRoleUpdated), 1)

	_, err = s.service.UpdateMemberRole(s.ctx, g.ID, contributor, owner, permission.RoleOwner)
	s.requireCode(err, dErrors.CodeOwnerProtected)

	_, err = s.service.UpdateMemberRole(s.ctx, g.ID, contributor, owner, permission.Role("boss"))
	s.requireCode(err, dErrors.CodeInvalidRole)

	_, err = s.service.UpdateMemberRole(s.ctx, g.ID, owner, owner, permission.RoleAdmin)
	s.requireCode(err, dErrors.CodeOwnerProtected)
}

func (s *ServiceSuite) TestRemoveMember() {
	owner := id.NewUserID()
	g := s.createGroup(owner)
	admin := s.join(g.ID, owner, permission.RoleAdmin)
	viewer := s.join(g.ID, owner, permission.RoleViewer)

	s.Run("owner is protected from a manager", func() {
		s.requireCode(s.service.RemoveMember(s.ctx, g.ID, owner, admin), dErrors.CodeOwnerProtected)
	})

	s.Run("owner cannot remove themselves", func() {
		s.requireCode(s.service.RemoveMember(s.ctx, g.ID, owner, owner), dErrors.CodeOwnerProtected)
	})

	s.Run("owner is protected even from a member without manageGroup", func() {
		s.requireCode(s.service.RemoveMember(s.ctx, g.ID, owner, viewer), dErrors.CodeOwnerProtected)
		s.True(s.service.HasPermission(s.ctx, g.ID, owner, permission.ManageGroup))
	})

	s.Run("non-manager is denied", func() {
		s.requireCode(s.service.RemoveMember(s.ctx, g.ID, admin, viewer), dErrors.CodePermissionDenied)
	})

	s.Run("outsider is denied before any owner check", func() {
		s.requireCode(s.service.RemoveMember(s.ctx, g.ID, owner, id.NewUserID()), dErrors.CodePermissionDenied)
	})

	s.Run("non-manager is denied for an unknown target", func() {
		s.requireCode(s.service.RemoveMember(s.ctx, g.ID, id.NewUserID(), viewer), dErrors.CodePermissionDenied)
	})

	s.Run("manager removes a member and access ends immediately", func() {
		s.Require().NoError(s.service.RemoveMember(s.ctx, g.ID, viewer, admin))

		removed := s.entriesFor(g.ID, audit.ActionMemberRemoved)
		s.Require().Len(removed, 1)
		s.Equal(map[string]any{"user_id": viewer.String(), "role": "viewer"}, removed[0].OldValues)
		s.Equal(map[string]any{"removed_by": admin.String()}, removed[0].NewValues)

		s.False(s.service.HasPermission(s.ctx, g.ID, viewer, permission.ViewPhotos))
		_, err := s.service.CreateActivity(s.ctx, g.ID, viewer, "photo", "Still here?", "", nil)
		s.requireCode(err, dErrors.CodePermissionDenied)
	})

	s.Run("missing target is not found", func() {
		s.requireCode(s.service.RemoveMember(s.ctx, g.ID, viewer, admin), dErrors.CodeNotFound)
	})
}

func (s *ServiceSuite) TestLeaveGroup() {
	owner := id.NewUserID()
	g := s.createGroup(owner)
	viewer := s.join(g.ID, owner, permission.RoleViewer)

	s.Require().NoError(s.service.LeaveGroup(s.ctx, g.ID, viewer))
	s.Len(s.entriesFor(g.ID, audit.ActionMemberLeft), 1)
	_, ok, err := s.service.GetUserRole(s.ctx, g.ID, viewer)
	s.Require().NoError(err)
	s.False(ok)

	s.requireCode(s.service.LeaveGroup(s.ctx, g.ID, viewer), dErrors.CodeNotFound)
	s.requireCode(s.service.LeaveGroup(s.ctx, g.ID, owner), dErrors.CodeOwnerProtected)
}

func (s *ServiceSuite) TestMembershipQueries() {
	owner := id.NewUserID()
	g := s.createGroup(owner)
	viewer := s.join(g.ID, owner, permission.RoleViewer)

	s.True(s.service.HasPermission(s.ctx, g.ID, viewer, permission.ViewPhotos))
	s.False(s.service.HasPermission(s.ctx, g.ID, viewer, permission.AddData))
	s.False(s.service.HasPermission(s.ctx, g.ID, id.NewUserID(), permission.ViewPhotos))

	me, err := s.service.GetMembership(s.ctx, g.ID, viewer)
	s.Require().NoError(err)
	s.Equal(permission.RoleViewer, me.Role)
	s.Require().NotNil(me.InvitedBy)
	s.Equal(owner, *me.InvitedBy)

	_, err = s.service.GetMembership(s.ctx, g.ID, id.NewUserID())
	s.requireCode(err, dErrors.CodeNotFound)

	_, err = s.service.ListMembers(s.ctx, g.ID, id.NewUserID())
	s.requireCode(err, dErrors.CodePermissionDenied)

	_, err = s.service.ListPendingInvitations(s.ctx, g.ID, viewer)
	s.requireCode(err, dErrors.CodePermissionDenied)
}

func (s *ServiceSuite) TestActivityFeed() {
	owner := id.NewUserID()
	g := s.createGroup(owner)
	contributor := s.join(g.ID, owner, permission.RoleContributor)

	first, err := s.service.CreateActivity(s.ctx, g.ID, owner, "photo", "Park day", "", nil)
	s.Require().NoError(err)
	s.now = s.now.Add(time.Minute)
	second, err := s.service.CreateActivity(s.ctx, g.ID, contributor, "milestone", "First tooth", "", map[string]any{"age_months": 6})
	s.Require().NoError(err)

	_, err = s.service.AddComment(s.ctx, first.ID, contributor, "Lovely")
	s.Require().NoError(err)
	s.now = s.now.Add(time.Minute)
	_, err = s.service.AddComment(s.ctx, first.ID, owner, "Thanks!")
	s.Require().NoError(err)
	_, err = s.service.AddReaction(s.ctx, first.ID, contributor, "")
	s.Require().NoError(err)

	feed, err := s.service.GetGroupActivities(s.ctx, g.ID, contributor, 0, -5)
	s.Require().NoError(err)
	s.Require().Len(feed, 2)
	s.Equal(second.ID, feed[0].ID)
	s.Equal(first.ID, feed[1].ID)
	s.Empty(feed[0].Comments)
	s.Require().Len(feed[1].Comments, 2)
	s.Equal("Lovely", feed[1].Comments[0].Content)
	s.Equal("Thanks!", feed[1].Comments[1].Content)
	s.Require().Len(feed[1].Reactions, 1)
	s.Equal(models.DefaultReaction, feed[1].Reactions[0].ReactionType)

	page, err := s.service.GetGroupActivities(s.ctx, g.ID, contributor, 1, 1)
	s.Require().NoError(err)
	s.Require().Len(page, 1)
	s.Equal(first.ID, page[0].ID)

	_, err = s.service.GetGroupActivities(s.ctx, g.ID, id.NewUserID(), 10, 0)
	s.requireCode(err, dErrors.CodePermissionDenied)

	_, err = s.service.CreateActivity(s.ctx, g.ID, contributor, "photo", "", "", nil)
	s.requireCode(err, dErrors.CodeValidation)
}

func (s *ServiceSuite) TestCommentChecks() {
	owner := id.NewUserID()
	g := s.createGroup(owner)
	post, err := s.service.CreateActivity(s.ctx, g.ID, owner, "photo", "Beach", "", nil)
	s.Require().NoError(err)

	_, err = s.service.AddComment(s.ctx, id.NewActivityID(), owner, "hello")
	s.requireCode(err, dErrors.CodeNotFound)

	_, err = s.service.AddComment(s.ctx, post.ID, id.NewUserID(), "let me in")
	s.requireCode(err, dErrors.CodePermissionDenied)

	_, err = s.service.AddComment(s.ctx, post.ID, owner, "  ")
	s.requireCode(err, dErrors.CodeValidation)

	s.Empty(s.entriesFor(g.ID, audit.ActionCommentAdded))
}

func (s *ServiceSuite) TestAddReactionUpserts() {
	owner := id.NewUserID()
	g := s.createGroup(owner)
	post, err := s.service.CreateActivity(s.ctx, g.ID, owner, "photo", "Beach", "", nil)
	s.Require().NoError(err)

	first, err := s.service.AddReaction(s.ctx, post.ID, owner, "like")
	s.Require().NoError(err)
	second, err := s.service.AddReaction(s.ctx, post.ID, owner, "love")
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)

	feed, err := s.service.GetGroupActivities(s.ctx, g.ID, owner, 10, 0)
	s.Require().NoError(err)
	s.Require().Len(feed, 1)
	s.Require().Len(feed[0].Reactions, 1)
	s.Equal("love", feed[0].Reactions[0].ReactionType)

	_, err = s.service.AddReaction(s.ctx, post.ID, id.NewUserID(), "like")
	s.requireCode(err, dErrors.CodePermissionDenied)
}

func (s *ServiceSuite) TestEachMutationWritesOneAuditEntry() {
	owner := id.NewUserID()
	g := s.createGroup(owner)

	issued := s.invite(g.ID, owner, "bob@example.com", permission.RoleContributor, nil)
	bob := id.NewUserID()
	_, err := s.service.AcceptInvitation(s.ctx, issued.Token, bob)
	s.Require().NoError(err)

	perms, err := permission.Defaults(permission.RoleViewer)
	s.Require().NoError(err)
	_, err = s.service.UpdateMemberPermissions(s.ctx, g.ID, bob, owner, perms)
	s.Require().NoError(err)

	post, err := s.service.CreateActivity(s.ctx, g.ID, bob, "photo", "Hello", "", nil)
	s.Require().NoError(err)
	_, err = s.service.AddComment(s.ctx, post.ID, owner, "Welcome")
	s.Require().NoError(err)

	s.Require().NoError(s.service.RemoveMember(s.ctx, g.ID, bob, owner))

	counts := map[audit.Action]int{}
	for _, e := range s.auditEntries(g.ID) {
		counts[e.Action]++
		s.NotEmpty(e.NewValues, "action %s", e.Action)
		s.Equal(g.ID, e.GroupID)
		switch e.Action {
		case audit.ActionPermissionsUpdated, audit.ActionMemberRemoved:
			s.NotEmpty(e.OldValues, "action %s", e.Action)
		}
	}
	s.Equal(map[audit.Action]int{
		audit.ActionGroupCreated:       1,
		audit.ActionMemberInvited:      1,
		audit.ActionInvitationAccepted: 1,
		audit.ActionPermissionsUpdated: 1,
		audit.ActionCommentAdded:       1,
		audit.ActionMemberRemoved:      1,
	}, counts)
}

func (s *ServiceSuite) TestListGroupAudit() {
	owner := id.NewUserID()
	g := s.createGroup(owner)
	viewer := s.join(g.ID, owner, permission.RoleViewer)

	entries, err := s.service.ListGroupAudit(s.ctx, g.ID, owner, 2)
	s.Require().NoError(err)
	s.Len(entries, 2)

	all, err := s.service.ListGroupAudit(s.ctx, g.ID, owner, 0)
	s.Require().NoError(err)
	s.Len(all, 3)

	_, err = s.service.ListGroupAudit(s.ctx, g.ID, viewer, 10)
	s.requireCode(err, dErrors.CodePermissionDenied)
}
