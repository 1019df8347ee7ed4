package partners

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
)

func newMockRepo(t *testing.T) (sqlmock.Sqlmock, *Repository) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return mock, NewRepository(db)
}

func partnerRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "company_name", "contact_name", "contact_email", "contact_phone",
		"territories", "status", "notes", "created_at", "updated_at",
	})
}

func TestCreatePartner(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectExec("INSERT INTO partners").
		WithArgs(sqlmock.AnyArg(), "Acme Leads", "Jordan", "jordan@acme.example", "5551234567",
			pq.Array([]string{"north", "west"}), "pending", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO partner_events").
		WithArgs(sqlmock.AnyArg(), "registered", "Acme Leads", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	p, err := repo.Create(context.Background(), CreatePartnerRequest{
		CompanyName:  "Acme Leads",
		ContactName:  "Jordan",
		ContactEmail: "jordan@acme.example",
		ContactPhone: "5551234567",
		Territories:  []string{"north", "west"},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.ID == "" || p.Status != StatusPending {
		t.Errorf("unexpected partner: %+v", p)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetPartnerWithTimeline(t *testing.T) {
	mock, repo := newMockRepo(t)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM partners WHERE id").
		WithArgs("p-1").
		WillReturnRows(partnerRows().AddRow(
			"p-1", "Acme Leads", "Jordan", "jordan@acme.example", "5551234567",
			pq.Array([]string{"north"}), "approved", "good fit", now, now))
	mock.ExpectQuery("SELECT (.+) FROM partner_events").
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "partner_id", "event", "detail", "created_at"}).
			AddRow(int64(2), "p-1", "status_approved", "docs verified", now).
			AddRow(int64(1), "p-1", "registered", "Acme Leads", now.Add(-time.Hour)))

	p, err := repo.Get(context.Background(), "p-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p.Status != StatusApproved || len(p.Timeline) != 2 {
		t.Errorf("unexpected partner: %+v", p)
	}
	if p.Timeline[0].Event != "status_approved" {
		t.Errorf("timeline must be newest-first, got %+v", p.Timeline)
	}
	if len(p.Territories) != 1 || p.Territories[0] != "north" {
		t.Errorf("territories not scanned: %v", p.Territories)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetPartnerNotFound(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM partners WHERE id").
		WithArgs("nope").
		WillReturnRows(partnerRows())

	_, err := repo.Get(context.Background(), "nope")
	if !errors.Is(err, ErrPartnerNotFound) {
		t.Errorf("expected ErrPartnerNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSetStatus(t *testing.T) {
	mock, repo := newMockRepo(t)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM partners WHERE id").
		WithArgs("p-1").
		WillReturnRows(partnerRows().AddRow(
			"p-1", "Acme Leads", "Jordan", "jordan@acme.example", "",
			pq.Array([]string{}), "pending", "", now, now))
	mock.ExpectQuery("SELECT (.+) FROM partner_events").
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "partner_id", "event", "detail", "created_at"}))
	mock.ExpectExec("UPDATE partners SET status").
		WithArgs("p-1", "approved", sqlmock.AnyArg(), "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO partner_events").
		WithArgs("p-1", "status_approved", "docs verified", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))

	p, err := repo.SetStatus(context.Background(), "p-1", StatusApproved, "docs verified")
	if err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if p.Status != StatusApproved {
		t.Errorf("expected approved, got %s", p.Status)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSetStatusInvalidTransition(t *testing.T) {
	mock, repo := newMockRepo(t)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM partners WHERE id").
		WithArgs("p-1").
		WillReturnRows(partnerRows().AddRow(
			"p-1", "Acme Leads", "Jordan", "jordan@acme.example", "",
			pq.Array([]string{}), "rejected", "", now, now))
	mock.ExpectQuery("SELECT (.+) FROM partner_events").
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "partner_id", "event", "detail", "created_at"}))

	_, err := repo.SetStatus(context.Background(), "p-1", StatusActive, "")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPartnerTransitions(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusPending, StatusApproved},
		{StatusPending, StatusRejected},
		{StatusApproved, StatusActive},
		{StatusApproved, StatusRejected},
		{StatusActive, StatusSuspended},
		{StatusSuspended, StatusActive},
	}
	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	denied := []struct{ from, to Status }{
		{StatusRejected, StatusPending},
		{StatusRejected, StatusActive},
		{StatusActive, StatusRejected},
		{StatusSuspended, StatusRejected},
		{StatusPending, StatusActive},
	}
	for _, tc := range denied {
		if CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be denied", tc.from, tc.to)
		}
	}
}
