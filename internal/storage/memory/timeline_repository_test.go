package memory_test

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/perfumery/internal/domain"
	"github.com/vladislavdragonenkov/perfumery/internal/storage/memory"
)

func TestTimelineRepository_ChronologicalOrder(t *testing.T) {
	repo := memory.NewTimelineRepository()
	base := time.Now().UTC()

	_ = repo.Append(domain.TimelineEvent{InvoiceNumber: "FAC-000001", Type: domain.TimelineInvoicePaid, Occurred: base.Add(time.Minute)})
	_ = repo.Append(domain.TimelineEvent{InvoiceNumber: "FAC-000001", Type: domain.TimelineInvoiceIssued, Occurred: base})
	_ = repo.Append(domain.TimelineEvent{InvoiceNumber: "FAC-000002", Type: domain.TimelineInvoiceIssued, Occurred: base})

	events, err := repo.List("FAC-000001")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(events) != 2 || events[0].Type != domain.TimelineInvoiceIssued || events[1].Type != domain.TimelineInvoicePaid {
		t.Fatalf("unexpected events %+v", events)
	}

	empty, _ := repo.List("FAC-000404")
	if len(empty) != 0 {
		t.Fatalf("expected no events, got %+v", empty)
	}
}
