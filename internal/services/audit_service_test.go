package services

import (
	"testing"

	"erario/internal/models"
	"erario/internal/testutil"
)

func TestAuditLog(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAuditService(db)

	svc.Log(testutil.TestActorID, "PAY_TRANSACTION", "transaction", "tx-1", "127.0.0.1", map[string]any{
		"payment_ref": "PAG-1",
	})
	svc.Log(testutil.TestActorID, "CLOSE_BUDGET", "budget", "b-1", "127.0.0.1", nil)

	var entries []models.AuditLog
	if err := db.Order("action DESC").Find(&entries).Error; err != nil {
		t.Fatalf("failed to read audit log: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Changes != `{"payment_ref":"PAG-1"}` {
		t.Errorf("unexpected changes %q", entries[0].Changes)
	}
	if entries[1].Changes != "" {
		t.Errorf("expected empty changes, got %q", entries[1].Changes)
	}
	if entries[0].ActorID != testutil.TestActorID {
		t.Errorf("expected actor %s, got %s", testutil.TestActorID, entries[0].ActorID)
	}
}
