package entitlements

import (
	"github.com/google/uuid"

	"github.com/global-academic-forum/backend/internal/models"
)

// Viewer is the requesting identity as supplied by the auth layer. A nil
// *Viewer means an anonymous request.
type Viewer struct {
	UserID        uuid.UUID
	Role          models.Role
	InstitutionID *uuid.UUID
}

// Capability names an action a role may perform. The capability table
// replaces per-page role checks scattered through the UI layer.
type Capability string

const (
	CapHostEvents          Capability = "host_events"
	CapManageInstitution   Capability = "manage_institution"
	CapManagePlatform      Capability = "manage_platform"
	CapModerateLiveRoom    Capability = "moderate_live_room"
	CapViewMemberAnalytics Capability = "view_member_analytics"
)

var roleCapabilities = map[models.Role]map[Capability]bool{
	models.RoleHost: {
		CapHostEvents:       true,
		CapModerateLiveRoom: true,
	},
	models.RoleInstitutionAdmin: {
		CapManageInstitution:   true,
		CapViewMemberAnalytics: true,
	},
	models.RolePlatformAdmin: {
		CapHostEvents:          true,
		CapManageInstitution:   true,
		CapManagePlatform:      true,
		CapModerateLiveRoom:    true,
		CapViewMemberAnalytics: true,
	},
}

// Can reports whether a role holds a capability.
func Can(role models.Role, cap Capability) bool {
	return roleCapabilities[role][cap]
}

// CanView decides whether a viewer may access an event.
//
// Open events need no entitlement at all. Registered-only events need a
// signed-in identity but no paid plan. Institution-only events need the
// viewer's affiliation to match the hosting institution; platform admins
// override. A missing or dangling institution reference on the event fails
// closed.
func CanView(event *models.Event, viewer *Viewer, ent Entitlement) bool {
	switch event.AccessLevel {
	case models.AccessOpen:
		return true
	case models.AccessRegisteredOnly:
		return viewer != nil
	case models.AccessInstitutionOnly:
		if viewer == nil {
			return false
		}
		if viewer.Role == models.RolePlatformAdmin {
			return true
		}
		if event.InstitutionID == nil || viewer.InstitutionID == nil {
			return false
		}
		return *viewer.InstitutionID == *event.InstitutionID
	}
	return false
}

// CanViewRecording decides whether a viewer may play back the recorded
// artifact of an event. The artifact check comes first: an event with no
// recording is never viewable as a recording, whatever the entitlement.
// Registered-only recordings additionally require an active plan (attending
// live is free, the archive is not); institution-only recordings follow the
// same membership rule as the live event.
func CanViewRecording(event *models.Event, viewer *Viewer, ent Entitlement) bool {
	if !event.HasRecording {
		return false
	}
	if !CanView(event, viewer, ent) {
		return false
	}
	if event.AccessLevel == models.AccessRegisteredOnly {
		return ent.HasActivePlan
	}
	return true
}
