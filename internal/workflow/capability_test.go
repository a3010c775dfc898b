package workflow

import (
	"testing"

	"adflow/internal/models"
)

func TestAllowedTransitionByRole(t *testing.T) {
	tests := []struct {
		name string
		role models.Role
		from models.Status
		to   models.Status
		want bool
	}{
		{"producer submits", models.RoleProducer, models.StatusOpen, models.StatusComplianceReview, true},
		{"producer cannot approve", models.RoleProducer, models.StatusComplianceReview, models.StatusApproved, false},
		{"producer cannot hand back", models.RoleProducer, models.StatusComplianceReview, models.StatusProductReview, false},
		{"producer resubmits", models.RoleProducer, models.StatusProductReview, models.StatusComplianceReview, true},
		{"producer publishes", models.RoleProducer, models.StatusApproved, models.StatusPublished, true},
		{"producer closes internal", models.RoleProducer, models.StatusPublished, models.StatusClosedInternal, true},
		{"producer cannot close exchange", models.RoleProducer, models.StatusPublished, models.StatusClosedExchange, false},
		{"compliance approves", models.RoleCompliance, models.StatusComplianceReview, models.StatusApproved, true},
		{"compliance hands back", models.RoleCompliance, models.StatusComplianceReview, models.StatusProductReview, true},
		{"compliance cannot submit", models.RoleCompliance, models.StatusOpen, models.StatusComplianceReview, false},
		{"compliance cannot publish", models.RoleCompliance, models.StatusApproved, models.StatusPublished, false},
		{"compliance closes exchange", models.RoleCompliance, models.StatusApproved, models.StatusClosedExchange, true},
		{"admin approves", models.RoleAdmin, models.StatusComplianceReview, models.StatusApproved, true},
		{"admin publishes", models.RoleAdmin, models.StatusApproved, models.StatusPublished, true},
		{"admin cannot skip review", models.RoleAdmin, models.StatusOpen, models.StatusApproved, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AllowedTransition(tt.role, tt.from, tt.to); got != tt.want {
				t.Errorf("AllowedTransition(%s, %s, %s) = %v, want %v", tt.role, tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestNoRoleReachesExpired(t *testing.T) {
	roles := []models.Role{models.RoleProducer, models.RoleCompliance, models.RoleAdmin}
	for _, role := range roles {
		for _, from := range models.AllStatuses {
			if AllowedTransition(role, from, models.StatusExpired) {
				t.Errorf("%s may move %s -> EXPIRED", role, from)
			}
		}
	}
}

func TestGrantsNeverExceedLifecycleTable(t *testing.T) {
	for from, tos := range transitionGrants {
		for to := range tos {
			if !CanTransition(from, to) {
				t.Errorf("grant exists for %s -> %s but the lifecycle table forbids it", from, to)
			}
		}
	}
}

func TestCanUploadVersion(t *testing.T) {
	task := &models.Task{ProducerIDs: []string{"65f0000000000000000000b1"}}
	assigned := models.Actor{ID: "65f0000000000000000000b1", Role: models.RoleProducer}
	outsider := models.Actor{ID: "65f0000000000000000000b2", Role: models.RoleProducer}
	reviewer := models.Actor{ID: "65f0000000000000000000c1", Role: models.RoleCompliance}
	admin := models.Actor{ID: "65f0000000000000000000d1", Role: models.RoleAdmin}

	if !CanUploadVersion(assigned, task) {
		t.Error("assigned producer denied")
	}
	if CanUploadVersion(outsider, task) {
		t.Error("unassigned producer allowed")
	}
	if CanUploadVersion(reviewer, task) {
		t.Error("reviewer allowed to upload content")
	}
	if !CanUploadVersion(admin, task) {
		t.Error("admin denied")
	}
}
