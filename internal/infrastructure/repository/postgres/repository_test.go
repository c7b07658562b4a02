package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/document-insight-engine/internal/core/domain"
)

func TestDocumentRepositoryGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "filename", "mime_type", "storage_path", "status", "error_message", "created_at", "updated_at",
	}).AddRow("d1", "a.pdf", "application/pdf", "d1_a.pdf", "ready", "", now, now)

	mock.ExpectQuery("SELECT (.+) FROM documents").WithArgs("d1").WillReturnRows(rows)

	repo := NewDocumentRepository(db)
	doc, err := repo.GetByID(context.Background(), "d1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if doc.Status != domain.StatusReady {
		t.Fatalf("status = %v, want ready", doc.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDocumentRepositoryGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM documents").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewDocumentRepository(db)
	if _, err := repo.GetByID(context.Background(), "missing"); !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("error = %v, want ErrDocumentNotFound", err)
	}
}

func TestReplaceSectionsRunsInOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	sections := []domain.Section{
		{Title: "One", Content: "first", PageNumber: 1, SectionIndex: 0, SourceDocument: "a.pdf", Embedding: []float32{1, 0}},
		{Title: "Two", Content: "second", PageNumber: 2, SectionIndex: 1, SourceDocument: "a.pdf"},
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM document_sections").
		WithArgs("d1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO document_sections").
		WithArgs("d1", 0, "One", "first", 1, "a.pdf", []byte("[1,0]")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO document_sections").
		WithArgs("d1", 1, "Two", "second", 2, "a.pdf", []byte("null")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewSectionRepository(db)
	if err := repo.ReplaceSections(context.Background(), "d1", sections); err != nil {
		t.Fatalf("ReplaceSections() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReplaceSectionsRollsBackOnInsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM document_sections").
		WithArgs("d1").
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	repo := NewSectionRepository(db)
	if err := repo.ReplaceSections(context.Background(), "d1", nil); err == nil {
		t.Fatal("expected error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListByDocumentRestoresEmbeddings(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"section_index", "title", "content", "page_number", "source_document", "embedding",
	}).
		AddRow(0, "One", "first", 1, "a.pdf", []byte("[0.5,0.25]")).
		AddRow(1, "Two", "second", 2, "a.pdf", []byte("[]"))

	mock.ExpectQuery("SELECT (.+) FROM document_sections").WithArgs("d1").WillReturnRows(rows)

	repo := NewSectionRepository(db)
	sections, err := repo.ListByDocument(context.Background(), "d1")
	if err != nil {
		t.Fatalf("ListByDocument() error = %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(sections))
	}
	if !sections[0].HasEmbedding() {
		t.Fatal("first section lost its embedding")
	}
	if sections[1].HasEmbedding() {
		t.Fatal("empty embedding decoded as present")
	}
}
