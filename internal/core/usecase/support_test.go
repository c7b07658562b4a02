package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/kirillkom/document-insight-engine/internal/core/domain"
)

type fakeEmbedder struct {
	ready      bool
	vectors    map[string][]float32
	fallback   []float32
	embedCalls int
	err        error
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{
		ready:    true,
		vectors:  make(map[string][]float32),
		fallback: []float32{1, 0, 0},
	}
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.embedCalls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := f.vectors[t]; ok {
			out[i] = v
		} else {
			out[i] = f.fallback
		}
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (f *fakeEmbedder) Ready() bool { return f.ready }

type fakeDocRepo struct {
	docs      map[string]*domain.Document
	statusLog []domain.DocumentStatus
	lastError string
	updateErr error
}

func newFakeDocRepo(docs ...*domain.Document) *fakeDocRepo {
	repo := &fakeDocRepo{docs: make(map[string]*domain.Document)}
	for _, d := range docs {
		repo.docs[d.ID] = d
	}
	return repo
}

func (f *fakeDocRepo) Create(_ context.Context, doc *domain.Document) error {
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeDocRepo) GetByID(_ context.Context, id string) (*domain.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", errors.New("id="+id))
	}
	return doc, nil
}

func (f *fakeDocRepo) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.statusLog = append(f.statusLog, status)
	f.lastError = errMessage
	if doc, ok := f.docs[id]; ok {
		doc.Status = status
		doc.Error = errMessage
	}
	return nil
}

type fakeSectionRepo struct {
	byDoc        map[string][]domain.Section
	replaceCalls int
	replaceErr   error
}

func newFakeSectionRepo() *fakeSectionRepo {
	return &fakeSectionRepo{byDoc: make(map[string][]domain.Section)}
}

func (f *fakeSectionRepo) ReplaceSections(_ context.Context, documentID string, sections []domain.Section) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.replaceCalls++
	f.byDoc[documentID] = sections
	return nil
}

func (f *fakeSectionRepo) ListByDocument(_ context.Context, documentID string) ([]domain.Section, error) {
	return f.byDoc[documentID], nil
}

type fakeStorage struct {
	files map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{files: make(map[string][]byte)}
}

func (f *fakeStorage) Save(_ context.Context, key string, data io.Reader) error {
	content, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.files[key] = content
	return nil
}

func (f *fakeStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	content, ok := f.files[key]
	if !ok {
		return nil, errors.New("no such file: " + key)
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

type fakeSegmenter struct {
	sections []domain.Section
	calls    int
	err      error
}

func (f *fakeSegmenter) Segment(_ context.Context, _ string, _ io.ReaderAt, _ int64) ([]domain.Section, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.sections, nil
}

type fakeQueue struct {
	published []string
	err       error
}

func (f *fakeQueue) PublishDocumentUploaded(_ context.Context, documentID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, documentID)
	return nil
}

func (f *fakeQueue) SubscribeDocumentUploaded(context.Context, func(context.Context, string) error) error {
	return nil
}

type fakeObserver struct {
	statuses []string
	sections int
}

func (f *fakeObserver) ObserveProcessed(status string, _ time.Duration) {
	f.statuses = append(f.statuses, status)
}

func (f *fakeObserver) AddSectionsIndexed(n int) {
	f.sections += n
}

func storedDocument(id, filename string, storage *fakeStorage, content []byte) *domain.Document {
	key := id + "_" + filename
	storage.files[key] = content
	return &domain.Document{
		ID:          id,
		Filename:    filename,
		MimeType:    "application/pdf",
		StoragePath: key,
		Status:      domain.StatusUploaded,
	}
}
