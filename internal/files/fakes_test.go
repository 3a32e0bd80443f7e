package files

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"file-drop/internal/models"
)

type memBlob struct {
	data        []byte
	contentType string
	modified    time.Time
}

type memBlobs struct {
	mu        sync.Mutex
	objects   map[string]memBlob
	putErr    error
	deleteErr map[string]error
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: map[string]memBlob{}, deleteErr: map[string]error{}}
}

func (m *memBlobs) Exists(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[name]
	return ok, nil
}

func (m *memBlobs) Put(_ context.Context, name string, r io.Reader, _ int64, contentType string) (models.BlobInfo, error) {
	if m.putErr != nil {
		return models.BlobInfo{}, m.putErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return models.BlobInfo{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.objects[name] = memBlob{data: b, contentType: contentType, modified: now}
	return m.info(name), nil
}

func (m *memBlobs) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.deleteErr[name]; err != nil {
		return err
	}
	delete(m.objects, name)
	return nil
}

func (m *memBlobs) List(_ context.Context) ([]models.BlobInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.BlobInfo
	for name := range m.objects {
		out = append(out, m.info(name))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memBlobs) info(name string) models.BlobInfo {
	o := m.objects[name]
	return models.BlobInfo{
		Name:         name,
		ContentType:  o.contentType,
		Size:         int64(len(o.data)),
		LastModified: o.modified,
		URI:          "mem://bucket/" + name,
	}
}

func (m *memBlobs) add(name string, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[name] = memBlob{data: []byte(body), contentType: "text/plain"}
}

type memRecords struct {
	mu        sync.Mutex
	files     []models.StoredFile
	users     map[uuid.UUID]bool
	insertErr error
	updateErr error
}

func newMemRecords(users ...uuid.UUID) *memRecords {
	m := &memRecords{users: map[uuid.UUID]bool{}}
	for _, u := range users {
		m.users[u] = true
	}
	return m
}

func (m *memRecords) InsertFile(_ context.Context, f *models.StoredFile) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files = append(m.files, *f)
	return nil
}

func (m *memRecords) ActiveFilesByOwner(_ context.Context, owner uuid.UUID) ([]models.StoredFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.StoredFile
	for _, f := range m.files {
		if f.OwnerID == owner && !f.IsDeleted {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out, nil
}

func (m *memRecords) latest(match func(models.StoredFile) bool) (*models.StoredFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *models.StoredFile
	for i := range m.files {
		f := m.files[i]
		if !match(f) {
			continue
		}
		if best == nil || f.UploadedAt.After(best.UploadedAt) {
			best = &f
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	return best, nil
}

func (m *memRecords) LatestFileByOwner(_ context.Context, name string, owner uuid.UUID) (*models.StoredFile, error) {
	return m.latest(func(f models.StoredFile) bool { return f.BlobName == name && f.OwnerID == owner })
}

func (m *memRecords) LatestActiveFile(_ context.Context, name string) (*models.StoredFile, error) {
	return m.latest(func(f models.StoredFile) bool { return f.BlobName == name && !f.IsDeleted })
}

func (m *memRecords) MarkFileDeleted(_ context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.files {
		if m.files[i].ID == id {
			m.files[i].MarkDeleted(at)
			return nil
		}
	}
	return ErrNotFound
}

func (m *memRecords) UpdateFileOwner(_ context.Context, id, owner uuid.UUID) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.files {
		if m.files[i].ID == id {
			m.files[i].OwnerID = owner
			return nil
		}
	}
	return ErrNotFound
}

func (m *memRecords) ActiveFiles(_ context.Context) ([]models.StoredFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.StoredFile
	for _, f := range m.files {
		if !f.IsDeleted {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memRecords) AllFiles(_ context.Context) ([]models.StoredFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.StoredFile(nil), m.files...), nil
}

func (m *memRecords) DeleteFilesByBlobName(_ context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.files[:0]
	var n int64
	for _, f := range m.files {
		if f.BlobName == name {
			n++
			continue
		}
		kept = append(kept, f)
	}
	m.files = kept
	return n, nil
}

func (m *memRecords) UserExists(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id], nil
}

func (m *memRecords) add(f models.StoredFile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	m.files = append(m.files, f)
}

func (m *memRecords) count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, f := range m.files {
		if f.BlobName == name {
			n++
		}
	}
	return n
}

var errBoom = errors.New("boom")

func upload(name, body string, owner uuid.UUID) UploadInput {
	return UploadInput{
		Body:         bytes.NewReader([]byte(body)),
		Size:         int64(len(body)),
		ContentType:  "text/plain",
		OriginalName: name,
		OwnerID:      owner,
	}
}
