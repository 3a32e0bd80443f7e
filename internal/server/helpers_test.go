package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"file-drop/internal/auth"
	"file-drop/internal/files"
	"file-drop/internal/models"
)

type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string]models.BlobInfo
}

func (f *fakeBlobs) Exists(_ context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[name]
	return ok, nil
}

func (f *fakeBlobs) Put(_ context.Context, name string, r io.Reader, _ int64, ct string) (models.BlobInfo, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return models.BlobInfo{}, err
	}
	info := models.BlobInfo{Name: name, ContentType: ct, Size: int64(len(b)), LastModified: time.Now().UTC(), URI: "mem://uploads/" + name}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[name] = info
	return info, nil
}

func (f *fakeBlobs) Delete(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, name)
	return nil
}

func (f *fakeBlobs) List(_ context.Context) ([]models.BlobInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.BlobInfo{}
	for _, o := range f.objects {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// fakeStore backs both the record store and the user store.
type fakeStore struct {
	mu    sync.Mutex
	files []models.StoredFile
	users map[string]*models.User
}

func (f *fakeStore) InsertFile(_ context.Context, sf *models.StoredFile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files = append(f.files, *sf)
	return nil
}

func (f *fakeStore) filter(keep func(models.StoredFile) bool) []models.StoredFile {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.StoredFile
	for _, sf := range f.files {
		if keep(sf) {
			out = append(out, sf)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out
}

func (f *fakeStore) ActiveFilesByOwner(_ context.Context, owner uuid.UUID) ([]models.StoredFile, error) {
	return f.filter(func(sf models.StoredFile) bool { return sf.OwnerID == owner && !sf.IsDeleted }), nil
}

func (f *fakeStore) LatestFileByOwner(_ context.Context, name string, owner uuid.UUID) (*models.StoredFile, error) {
	list := f.filter(func(sf models.StoredFile) bool { return sf.BlobName == name && sf.OwnerID == owner })
	if len(list) == 0 {
		return nil, files.ErrNotFound
	}
	return &list[0], nil
}

func (f *fakeStore) LatestActiveFile(_ context.Context, name string) (*models.StoredFile, error) {
	list := f.filter(func(sf models.StoredFile) bool { return sf.BlobName == name && !sf.IsDeleted })
	if len(list) == 0 {
		return nil, files.ErrNotFound
	}
	return &list[0], nil
}

func (f *fakeStore) update(id uuid.UUID, fn func(*models.StoredFile)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.files {
		if f.files[i].ID == id {
			fn(&f.files[i])
			return nil
		}
	}
	return files.ErrNotFound
}

func (f *fakeStore) MarkFileDeleted(_ context.Context, id uuid.UUID, at time.Time) error {
	return f.update(id, func(sf *models.StoredFile) { sf.MarkDeleted(at) })
}

func (f *fakeStore) UpdateFileOwner(_ context.Context, id, owner uuid.UUID) error {
	return f.update(id, func(sf *models.StoredFile) { sf.OwnerID = owner })
}

func (f *fakeStore) ActiveFiles(_ context.Context) ([]models.StoredFile, error) {
	return f.filter(func(sf models.StoredFile) bool { return !sf.IsDeleted }), nil
}

func (f *fakeStore) AllFiles(_ context.Context) ([]models.StoredFile, error) {
	return f.filter(func(models.StoredFile) bool { return true }), nil
}

func (f *fakeStore) DeleteFilesByBlobName(_ context.Context, name string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.files[:0]
	var n int64
	for _, sf := range f.files {
		if sf.BlobName == name {
			n++
			continue
		}
		kept = append(kept, sf)
	}
	f.files = kept
	return n, nil
}

func (f *fakeStore) UserExists(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateUser(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.Username]; ok {
		return files.ErrConflict
	}
	f.users[u.Username] = u
	return nil
}

func (f *fakeStore) UserByUsername(_ context.Context, name string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[name]
	if !ok {
		return nil, files.ErrNotFound
	}
	return u, nil
}

type fakeActivity struct {
	mu      sync.Mutex
	entries []models.ActivityEntry
}

func (f *fakeActivity) Record(_ context.Context, e models.ActivityEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeActivity) Recent(_ context.Context, action models.ActivityAction, limit int) ([]models.ActivityEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.ActivityEntry{}
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if action == "" || f.entries[i].Action == action {
			out = append(out, f.entries[i])
		}
	}
	return out, nil
}

func (f *fakeActivity) actions() []models.ActivityAction {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ActivityAction
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

type testEnv struct {
	srv      *Server
	handler  http.Handler
	blobs    *fakeBlobs
	store    *fakeStore
	activity *fakeActivity
	accounts *auth.Accounts
	tokens   *auth.Issuer
}

func newTestEnv(t *testing.T, mutate ...func(*Config, *Deps)) *testEnv {
	t.Helper()
	env := &testEnv{
		blobs:    &fakeBlobs{objects: map[string]models.BlobInfo{}},
		store:    &fakeStore{users: map[string]*models.User{}},
		activity: &fakeActivity{},
		tokens:   auth.NewIssuer("test-secret-test-secret-test-secret", time.Hour, "file-drop-test"),
	}
	env.accounts = auth.NewAccounts(env.store, env.tokens)

	cfg := Config{Addr: ":0", Build: BuildInfo{Version: "test", Commit: "abc"}}
	deps := Deps{
		Files:    files.NewService(env.blobs, env.store, nil),
		Accounts: env.accounts,
		Tokens:   env.tokens,
		Activity: env.activity,
	}
	for _, m := range mutate {
		m(&cfg, &deps)
	}
	env.srv = New(cfg, deps)
	env.handler = env.srv.Handler()
	return env
}

// user registers an account and returns it with a bearer token.
func (e *testEnv) user(t *testing.T, name string, role models.Role) (*models.User, string) {
	t.Helper()
	u, err := e.accounts.Register(context.Background(), name, "password1", role)
	require.NoError(t, err)
	tok, _, err := e.tokens.Issue(u)
	require.NoError(t, err)
	return u, tok
}

func (e *testEnv) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.RemoteAddr = "192.0.2.1:1234"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	return e.do(t, method, path, token, body, "application/json")
}

func (e *testEnv) upload(t *testing.T, token, filename, contentType, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, filename, contentType, content)
	return e.do(t, http.MethodPost, "/api/storage/upload", token, body, ct)
}

func multipartBody(t *testing.T, filename, contentType, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func newRequest(method, path string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "192.0.2.1:1234"
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}
