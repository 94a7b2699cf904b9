// Package permission defines group member roles, the capability set each role grants by
// default, and the sparse per-member overrides layered on top of those defaults.
package permission

import (
	"strings"

	dErrors "familyshare/pkg/domain-errors"
)

// Role is the closed set of membership roles.
type Role string

const (
	RoleOwner       Role = "owner"
	RoleAdmin       Role = "admin"
	RoleContributor Role = "contributor"
	RoleViewer      Role = "viewer"
)

// Roles lists every role from most to least privileged.
var Roles = []Role{RoleOwner, RoleAdmin, RoleContributor, RoleViewer}

// ParseRole normalizes s and rejects anything outside the closed role set.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidRole, "unknown role: "+s)
	}
	return r, nil
}

func (r Role) IsValid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleContributor, RoleViewer:
		return true
	default:
		return false
	}
}

func (r Role) String() string { return string(r) }

// Capability names one boolean in Permissions.
type Capability string

const (
	ViewPhotos    Capability = "view_photos"
	ViewMedical   Capability = "view_medical"
	ViewFeeding   Capability = "view_feeding"
	ViewSleep     Capability = "view_sleep"
	ViewDiapers   Capability = "view_diapers"
	AddData       Capability = "add_data"
	InviteMembers Capability = "invite_members"
	ManageGroup   Capability = "manage_group"
)

// Capabilities lists every capability in declaration order.
var Capabilities = []Capability{
	ViewPhotos, ViewMedical, ViewFeeding, ViewSleep, ViewDiapers, AddData, InviteMembers, ManageGroup,
}

func (c Capability) IsValid() bool {
	switch c {
	case ViewPhotos, ViewMedical, ViewFeeding, ViewSleep, ViewDiapers, AddData, InviteMembers, ManageGroup:
		return true
	default:
		return false
	}
}

// Permissions is a member's effective capability set.
type Permissions struct {
	ViewPhotos    bool `json:"view_photos"`
	ViewMedical   bool `json:"view_medical"`
	ViewFeeding   bool `json:"view_feeding"`
	ViewSleep     bool `json:"view_sleep"`
	ViewDiapers   bool `json:"view_diapers"`
	AddData       bool `json:"add_data"`
	InviteMembers bool `json:"invite_members"`
	ManageGroup   bool `json:"manage_group"`
}

// Allows reports whether the capability is granted. Unknown capabilities are never granted.
func (p Permissions) Allows(c Capability) bool {
	switch c {
	case ViewPhotos:
		return p.ViewPhotos
	case ViewMedical:
		return p.ViewMedical
	case ViewFeeding:
		return p.ViewFeeding
	case ViewSleep:
		return p.ViewSleep
	case ViewDiapers:
		return p.ViewDiapers
	case AddData:
		return p.AddData
	case InviteMembers:
		return p.InviteMembers
	case ManageGroup:
		return p.ManageGroup
	default:
		return false
	}
}

// Includes reports whether p grants every capability other grants.
func (p Permissions) Includes(other Permissions) bool {
	for _, c := range Capabilities {
		if other.Allows(c) && !p.Allows(c) {
			return false
		}
	}
	return true
}

// Snapshot renders the set as a plain map for audit old/new values.
func (p Permissions) Snapshot() map[string]any {
	out := make(map[string]any, len(Capabilities))
	for _, c := range Capabilities {
		out[string(c)] = p.Allows(c)
	}
	return out
}

// Override is a sparse set of capability values. Nil fields fall through to the role
// default.
type Override struct {
	ViewPhotos    *bool `json:"view_photos,omitempty"`
	ViewMedical   *bool `json:"view_medical,omitempty"`
	ViewFeeding   *bool `json:"view_feeding,omitempty"`
	ViewSleep     *bool `json:"view_sleep,omitempty"`
	ViewDiapers   *bool `json:"view_diapers,omitempty"`
	AddData       *bool `json:"add_data,omitempty"`
	InviteMembers *bool `json:"invite_members,omitempty"`
	ManageGroup   *bool `json:"manage_group,omitempty"`
}

// Apply returns base with every set override field replacing the base value.
func (o *Override) Apply(base Permissions) Permissions {
	if o == nil {
		return base
	}
	out := base
	set := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	set(&out.ViewPhotos, o.ViewPhotos)
	set(&out.ViewMedical, o.ViewMedical)
	set(&out.ViewFeeding, o.ViewFeeding)
	set(&out.ViewSleep, o.ViewSleep)
	set(&out.ViewDiapers, o.ViewDiapers)
	set(&out.AddData, o.AddData)
	set(&out.InviteMembers, o.InviteMembers)
	set(&out.ManageGroup, o.ManageGroup)
	return out
}

var defaults = map[Role]Permissions{
	RoleOwner: {
		ViewPhotos: true, ViewMedical: true, ViewFeeding: true, ViewSleep: true,
		ViewDiapers: true, AddData: true, InviteMembers: true, ManageGroup: true,
	},
	RoleAdmin: {
		ViewPhotos: true, ViewMedical: true, ViewFeeding: true, ViewSleep: true,
		ViewDiapers: true, AddData: true, InviteMembers: true, ManageGroup: true,
	},
	RoleContributor: {
		ViewPhotos: true, ViewMedical: false, ViewFeeding: true, ViewSleep: true,
		ViewDiapers: true, AddData: true, InviteMembers: false, ManageGroup: false,
	},
	RoleViewer: {
		ViewPhotos: true, ViewMedical: false, ViewFeeding: true, ViewSleep: true,
		ViewDiapers: true, AddData: false, InviteMembers: false, ManageGroup: false,
	},
}

// Defaults returns the role's default capability set.
func Defaults(role Role) (Permissions, error) {
	p, ok := defaults[role]
	if !ok {
		return Permissions{}, dErrors.New(dErrors.CodeInvalidRole, "unknown role: "+string(role))
	}
	return p, nil
}

// Effective overlays override onto the role defaults.
func Effective(role Role, override *Override) (Permissions, error) {
	base, err := Defaults(role)
	if err != nil {
		return Permissions{}, err
	}
	return override.Apply(base), nil
}

// Bool returns a pointer to v for building overrides.
func Bool(v bool) *bool { return &v }
