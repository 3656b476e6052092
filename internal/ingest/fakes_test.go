package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"photogallery/internal/apperr"
	"photogallery/internal/domain"
	"photogallery/internal/infrastructure/events"
)

type fakeRepo struct {
	mu      sync.Mutex
	nextID  int64
	images  []*domain.ImageRecord
	slugs   map[string]bool

	createErr      error
	createFailures int
	countErr       error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{nextID: 1, slugs: map[string]bool{}}
}

func (r *fakeRepo) CreateWithRenditions(ctx context.Context, image *domain.ImageRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.createFailures > 0 {
		r.createFailures--
		err := r.createErr
		if r.createFailures == 0 {
			r.createErr = nil
		}
		return err
	}
	if r.createErr != nil {
		return r.createErr
	}
	if r.slugs[slugKey(image.UserID, image.Slug)] {
		return domain.ErrSlugTaken
	}

	image.ID = r.nextID
	r.nextID++
	now := time.Now()
	image.CreatedAt = now
	image.UpdatedAt = now
	for i := range image.Renditions {
		image.Renditions[i].ID = r.nextID
		image.Renditions[i].ImageID = image.ID
		r.nextID++
	}
	r.slugs[slugKey(image.UserID, image.Slug)] = true
	r.images = append(r.images, image)
	return nil
}

func (r *fakeRepo) FindByID(ctx context.Context, id int64) (*domain.ImageRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, img := range r.images {
		if img.ID == id {
			return img, nil
		}
	}
	return nil, domain.ErrImageNotFound
}

func (r *fakeRepo) List(ctx context.Context, filter domain.ListFilter) ([]*domain.ImageRecord, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.images, len(r.images), nil
}

func (r *fakeRepo) CountSlugPrefix(ctx context.Context, userID int64, base string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.countErr != nil {
		return 0, r.countErr
	}
	count := 0
	prefix := slugKey(userID, base)
	for key := range r.slugs {
		if strings.HasPrefix(key, prefix) {
			count++
		}
	}
	return count, nil
}

func (r *fakeRepo) UpdateMetadata(ctx context.Context, id int64, update domain.MetadataUpdate) error {
	return nil
}

func (r *fakeRepo) SetPublished(ctx context.Context, id int64, published bool) error { return nil }
func (r *fakeRepo) SetFeatured(ctx context.Context, id int64, featured bool) error   { return nil }
func (r *fakeRepo) Delete(ctx context.Context, id int64) error                       { return nil }

func slugKey(userID int64, slug string) string {
	return fmt.Sprintf("%d/%s", userID, slug)
}

// memStore is an in-memory write-once object store. failContains makes
// Save fail for filenames containing that substring, so rendition writes
// can be failed while the original write succeeds.
type memStore struct {
	mu           sync.Mutex
	objects      map[string][]byte
	saveErr      error
	failContains string
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (s *memStore) Save(ctx context.Context, filename string, reader io.Reader) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	if s.failContains != "" && strings.Contains(filename, s.failContains) {
		return errors.New("simulated write failure")
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.objects[filename] = data
	return nil
}

func (s *memStore) Get(ctx context.Context, filename string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[filename]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memStore) Delete(ctx context.Context, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, filename)
	return nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

func (s *memStore) has(filename string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[filename]
	return ok
}

// stubCaptioner returns a fixed result, or the fallback plus an error.
type stubCaptioner struct {
	enrichment domain.EnrichmentMetadata
	err        *apperr.Error
	fallback   func(filename string) domain.EnrichmentMetadata
}

func (s *stubCaptioner) Analyze(ctx context.Context, req domain.CaptionRequest) (domain.EnrichmentMetadata, *apperr.Error) {
	if s.err != nil {
		return s.fallback(req.Filename), s.err
	}
	return s.enrichment, nil
}

type stubExtractor struct {
	meta domain.DerivedMetadata
}

func (s *stubExtractor) Extract(data []byte) domain.DerivedMetadata {
	return s.meta
}

type capturePublisher struct {
	mu     sync.Mutex
	events []events.ImageIngested
}

func (p *capturePublisher) PublishIngested(ctx context.Context, ev events.ImageIngested) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}
