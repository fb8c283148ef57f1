package entitlements

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/global-academic-forum/backend/internal/models"
)

func openEvent() *models.Event {
	return &models.Event{ID: uuid.New(), AccessLevel: models.AccessOpen, Status: models.EventLive}
}

func activeEntitlement() Entitlement {
	return Entitlement{HasActivePlan: true}
}

func TestCanViewOpenEvent(t *testing.T) {
	event := openEvent()

	assert.True(t, CanView(event, nil, Entitlement{}), "open events need no identity and no entitlement")
	assert.True(t, CanView(event, &Viewer{UserID: uuid.New(), Role: models.RoleParticipant}, Entitlement{}))
	assert.True(t, CanView(event, &Viewer{UserID: uuid.New(), Role: models.RoleParticipant}, activeEntitlement()))
}

func TestCanViewRegisteredOnly(t *testing.T) {
	event := &models.Event{ID: uuid.New(), AccessLevel: models.AccessRegisteredOnly, Status: models.EventLive}

	assert.False(t, CanView(event, nil, Entitlement{}), "anonymous viewers are rejected")
	assert.True(t, CanView(event, &Viewer{UserID: uuid.New(), Role: models.RoleParticipant}, Entitlement{}),
		"identity alone suffices to attend, no paid plan needed")
}

func TestCanViewInstitutionOnly(t *testing.T) {
	hostInst := uuid.New()
	otherInst := uuid.New()
	event := &models.Event{ID: uuid.New(), AccessLevel: models.AccessInstitutionOnly, InstitutionID: &hostInst}

	tests := []struct {
		name   string
		viewer *Viewer
		want   bool
	}{
		{name: "anonymous", viewer: nil, want: false},
		{name: "member of hosting institution", viewer: &Viewer{UserID: uuid.New(), Role: models.RoleParticipant, InstitutionID: &hostInst}, want: true},
		{name: "member of another institution", viewer: &Viewer{UserID: uuid.New(), Role: models.RoleParticipant, InstitutionID: &otherInst}, want: false},
		{name: "no affiliation", viewer: &Viewer{UserID: uuid.New(), Role: models.RoleParticipant}, want: false},
		{name: "platform admin override", viewer: &Viewer{UserID: uuid.New(), Role: models.RolePlatformAdmin, InstitutionID: &otherInst}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanView(event, tt.viewer, activeEntitlement()))
		})
	}
}

func TestCanViewInstitutionOnlyDanglingReferenceFailsClosed(t *testing.T) {
	inst := uuid.New()
	event := &models.Event{ID: uuid.New(), AccessLevel: models.AccessInstitutionOnly, InstitutionID: nil}
	viewer := &Viewer{UserID: uuid.New(), Role: models.RoleParticipant, InstitutionID: &inst}

	assert.False(t, CanView(event, viewer, activeEntitlement()),
		"an event with no institution reference denies restricted access")
}

func TestCanViewRecordingRequiresArtifact(t *testing.T) {
	event := &models.Event{
		ID:           uuid.New(),
		AccessLevel:  models.AccessRegisteredOnly,
		Status:       models.EventCompleted,
		HasRecording: false,
	}
	viewer := &Viewer{UserID: uuid.New(), Role: models.RoleParticipant}

	assert.False(t, CanViewRecording(event, viewer, activeEntitlement()),
		"no artifact means no playback, active plan notwithstanding")
}

func TestCanViewRecordingRegisteredOnlyNeedsActivePlan(t *testing.T) {
	event := &models.Event{
		ID:           uuid.New(),
		AccessLevel:  models.AccessRegisteredOnly,
		Status:       models.EventCompleted,
		HasRecording: true,
	}
	viewer := &Viewer{UserID: uuid.New(), Role: models.RoleParticipant}

	assert.False(t, CanViewRecording(event, viewer, Entitlement{}), "archive access is paid")
	assert.True(t, CanViewRecording(event, viewer, activeEntitlement()))
	assert.False(t, CanViewRecording(event, nil, activeEntitlement()), "identity still required")
}

func TestCanViewRecordingOpenEvent(t *testing.T) {
	event := openEvent()
	event.Status = models.EventCompleted
	event.HasRecording = true

	assert.True(t, CanViewRecording(event, nil, Entitlement{}), "open recordings stay open")
}

func TestCanViewRecordingInstitutionOnlyFollowsMembership(t *testing.T) {
	inst := uuid.New()
	event := &models.Event{
		ID:            uuid.New(),
		AccessLevel:   models.AccessInstitutionOnly,
		InstitutionID: &inst,
		Status:        models.EventCompleted,
		HasRecording:  true,
	}
	member := &Viewer{UserID: uuid.New(), Role: models.RoleParticipant, InstitutionID: &inst}
	outsider := &Viewer{UserID: uuid.New(), Role: models.RoleParticipant}

	assert.True(t, CanViewRecording(event, member, Entitlement{}))
	assert.False(t, CanViewRecording(event, outsider, activeEntitlement()))
}

func TestRoleCapabilities(t *testing.T) {
	assert.True(t, Can(models.RoleHost, CapHostEvents))
	assert.False(t, Can(models.RoleHost, CapManagePlatform))
	assert.True(t, Can(models.RoleInstitutionAdmin, CapManageInstitution))
	assert.False(t, Can(models.RoleParticipant, CapModerateLiveRoom))
	assert.True(t, Can(models.RolePlatformAdmin, CapManagePlatform))
	assert.True(t, Can(models.RolePlatformAdmin, CapManageInstitution))
}
