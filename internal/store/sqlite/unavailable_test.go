package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/listkeep/listkeep-server/internal/domain"
	"github.com/listkeep/listkeep-server/internal/store"
)

var errDiskIO = errors.New("disk I/O error")

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db, nil), mock
}

func TestStore_DriverErrorsPassThrough(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT .* FROM shared_lists l").WillReturnError(errDiskIO)

	_, err := s.GetSharedListByToken(context.Background(), "tok")
	if !errors.Is(err, errDiskIO) {
		t.Fatalf("expected driver error, got %v", err)
	}
	if errors.Is(err, store.ErrNotFound) {
		t.Fatal("driver failures must not look like not-found")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestStore_UpdateRollsBackOnFailure(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM shared_list_items i").WillReturnError(errDiskIO)
	mock.ExpectRollback()

	called := false
	_, err := s.UpdateSharedListItem(context.Background(), "l1", "i1", func(*domain.SharedListItem) error {
		called = true
		return nil
	})
	if !errors.Is(err, errDiskIO) {
		t.Fatalf("expected driver error, got %v", err)
	}
	if called {
		t.Error("mutate must not run when the read fails")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestStore_AppendHistoryFailure(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO edit_history").WillReturnError(errDiskIO)

	err := s.AppendHistory(context.Background(), &domain.EditHistoryRecord{ID: "h1", SharedListID: "l1"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestStore_IncrementViewCountUsesSingleStatement(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`UPDATE shared_lists SET view_count = view_count \+ 1`).
		WithArgs("l1").
		WillReturnRows(sqlmock.NewRows([]string{"view_count"}).AddRow(7))

	n, err := s.IncrementViewCount(context.Background(), "l1")
	if err != nil || n != 7 {
		t.Fatalf("increment: %d %v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
