package engine

import (
	"context"
	"testing"

	"adflow/internal/models"
)

func TestExpiryScanClosesPastDueTasks(t *testing.T) {
	env := newTestEngine(t)
	producer := env.addUser(hexID(101), models.RoleProducer, true)
	reviewer := env.addUser(hexID(301), models.RoleCompliance, true)

	pastApproved := env.addTask(hexID(901), models.StatusApproved, reviewer.ID, producer.ID)
	pastPublished := env.addTask(hexID(902), models.StatusPublished, reviewer.ID, producer.ID)
	dueToday := env.addTask(hexID(903), models.StatusApproved, reviewer.ID, producer.ID)
	open := env.addTask(hexID(904), models.StatusOpen, reviewer.ID, producer.ID)
	for id, expiry := range map[string]string{
		pastApproved.ID:  "2026-03-09",
		pastPublished.ID: "2026-02-01",
		dueToday.ID:      "2026-03-10",
	} {
		tk := env.store.tasks[id]
		tk.ExpiryDate = expiry
		env.store.tasks[id] = tk
	}

	rep, err := env.eng.ExpiryScan(context.Background())
	if err != nil {
		t.Fatalf("ExpiryScan: %v", err)
	}
	if rep.Scanned != 3 || rep.Expired != 2 || rep.Failed != 0 {
		t.Errorf("report = %+v, want scanned 3, expired 2", rep)
	}

	for _, id := range []string{pastApproved.ID, pastPublished.ID} {
		tk := env.store.tasks[id]
		if tk.Status != models.StatusExpired {
			t.Errorf("task %s status = %s, want EXPIRED", id, tk.Status)
		}
		if tk.ClosedAt != fixedNow.UnixMilli() {
			t.Errorf("task %s closure not stamped", id)
		}
	}
	if env.store.tasks[dueToday.ID].Status != models.StatusApproved {
		t.Error("task expiring today was closed; expiry day itself is still valid")
	}
	if env.store.tasks[open.ID].Status != models.StatusOpen {
		t.Error("open task touched by expiry scan")
	}

	if got := len(env.store.auditsByAction(models.ActionTaskExpired)); got != 2 {
		t.Errorf("task_expired audits = %d, want 2", got)
	}
	// Producers and the reviewer hear about each expiry by email.
	if got := len(env.store.notesFor(producer.ID)); got != 2 {
		t.Errorf("producer notifications = %d, want 2", got)
	}
	for _, rec := range env.store.auditsByAction(models.ActionTaskExpired) {
		if rec.ActorID != models.SystemActorID {
			t.Errorf("expiry audit actor = %s, want system", rec.ActorID)
		}
	}
}

func TestExpiryScanIdempotent(t *testing.T) {
	env := newTestEngine(t)
	producer := env.addUser(hexID(101), models.RoleProducer, true)
	reviewer := env.addUser(hexID(301), models.RoleCompliance, true)
	task := env.addTask(hexID(901), models.StatusApproved, reviewer.ID, producer.ID)
	tk := env.store.tasks[task.ID]
	tk.ExpiryDate = "2026-03-01"
	env.store.tasks[task.ID] = tk

	if _, err := env.eng.ExpiryScan(context.Background()); err != nil {
		t.Fatalf("first scan: %v", err)
	}
	closedAt := env.store.tasks[task.ID].ClosedAt

	rep, err := env.eng.ExpiryScan(context.Background())
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if rep.Expired != 0 {
		t.Errorf("second scan expired %d tasks, want 0", rep.Expired)
	}
	if got := env.store.tasks[task.ID].ClosedAt; got != closedAt {
		t.Errorf("closure timestamp moved on rerun: %d -> %d", closedAt, got)
	}
	if got := len(env.store.auditsByAction(models.ActionTaskExpired)); got != 1 {
		t.Errorf("task_expired audits = %d, want 1 after two runs", got)
	}
}

func TestReassignmentScanMovesAllActiveTasks(t *testing.T) {
	env := newTestEngine(t)
	producer := env.addUser(hexID(101), models.RoleProducer, true)
	away := env.addUser(hexID(301), models.RoleCompliance, true)
	cover := env.addUser(hexID(302), models.RoleCompliance, true)
	env.store.absences["a1"] = models.Absence{
		ID: "a1", UserID: away.ID, FromDate: "2026-03-10", ToDate: "2026-03-12",
	}

	active := []models.Task{
		env.addTask(hexID(901), models.StatusOpen, away.ID, producer.ID),
		env.addTask(hexID(902), models.StatusOpen, away.ID, producer.ID),
		env.addTask(hexID(903), models.StatusComplianceReview, away.ID, producer.ID),
	}
	approved := env.addTask(hexID(904), models.StatusApproved, away.ID, producer.ID)

	rep, err := env.eng.ReassignmentScan(context.Background())
	if err != nil {
		t.Fatalf("ReassignmentScan: %v", err)
	}
	if rep.AbsentReviewers != 1 || rep.Reassigned != 3 || len(rep.Uncovered) != 0 {
		t.Errorf("report = %+v, want 3 reassignments for 1 absent reviewer", rep)
	}
	for _, tk := range active {
		if got := env.store.tasks[tk.ID].ComplianceID; got != cover.ID {
			t.Errorf("task %s reviewer = %s, want %s", tk.ID, got, cover.ID)
		}
	}
	if got := env.store.tasks[approved.ID].ComplianceID; got != away.ID {
		t.Errorf("APPROVED task moved to %s; approved work stays put", got)
	}

	if got := len(env.store.auditsByAction(models.ActionReviewerReassigned)); got != 3 {
		t.Errorf("reviewer_reassigned audits = %d, want 3", got)
	}
	notes := env.store.notesFor(cover.ID)
	if len(notes) != 3 {
		t.Fatalf("replacement notifications = %d, want 3", len(notes))
	}
	for _, n := range notes {
		if n.Kind != models.NoticeReassignment || !n.ViaEmail {
			t.Errorf("notification = %+v, want emailed reassignment", n)
		}
	}
}

func TestReassignmentScanNoReplacementIsObservable(t *testing.T) {
	env := newTestEngine(t)
	producer := env.addUser(hexID(101), models.RoleProducer, true)
	away := env.addUser(hexID(301), models.RoleCompliance, true)
	env.store.absences["a1"] = models.Absence{
		ID: "a1", UserID: away.ID, FromDate: "2026-03-10", ToDate: "2026-03-12",
	}
	task := env.addTask(hexID(901), models.StatusOpen, away.ID, producer.ID)

	rep, err := env.eng.ReassignmentScan(context.Background())
	if err != nil {
		t.Fatalf("ReassignmentScan: %v", err)
	}
	if len(rep.Uncovered) != 1 || rep.Uncovered[0] != away.ID {
		t.Errorf("Uncovered = %v, want [%s]", rep.Uncovered, away.ID)
	}
	if rep.Reassigned != 0 {
		t.Errorf("Reassigned = %d, want 0", rep.Reassigned)
	}
	if got := env.store.tasks[task.ID].ComplianceID; got != away.ID {
		t.Errorf("task moved to %s with nobody to take it", got)
	}
}

func TestReassignmentScanIgnoresNonReviewerAbsences(t *testing.T) {
	env := newTestEngine(t)
	producer := env.addUser(hexID(101), models.RoleProducer, true)
	env.store.absences["a1"] = models.Absence{
		ID: "a1", UserID: producer.ID, FromDate: "2026-03-10", ToDate: "2026-03-12",
	}

	rep, err := env.eng.ReassignmentScan(context.Background())
	if err != nil {
		t.Fatalf("ReassignmentScan: %v", err)
	}
	if rep.AbsentReviewers != 0 || rep.Reassigned != 0 {
		t.Errorf("report = %+v, want nothing counted for a producer absence", rep)
	}
}

func TestCleanupScanPurgesOldAbsences(t *testing.T) {
	env := newTestEngine(t)
	reviewer := env.addUser(hexID(301), models.RoleCompliance, true)
	env.store.absences["old"] = models.Absence{
		ID: "old", UserID: reviewer.ID, FromDate: "2025-10-01", ToDate: "2025-10-15",
	}
	env.store.absences["recent"] = models.Absence{
		ID: "recent", UserID: reviewer.ID, FromDate: "2026-01-10", ToDate: "2026-01-15",
	}

	rep, err := env.eng.CleanupScan(context.Background(), 90)
	if err != nil {
		t.Fatalf("CleanupScan: %v", err)
	}
	if rep.Purged != 1 || rep.Failed != 0 {
		t.Errorf("report = %+v, want exactly the old absence purged", rep)
	}
	if _, ok := env.store.absences["old"]; ok {
		t.Error("old absence survived the purge")
	}
	if _, ok := env.store.absences["recent"]; !ok {
		t.Error("recent absence purged; it is inside the retention window")
	}
	if got := len(env.store.auditsByAction(models.ActionAbsencePurged)); got != 1 {
		t.Errorf("absence_purged audits = %d, want 1", got)
	}
}
