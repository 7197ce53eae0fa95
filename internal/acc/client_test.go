package acc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SvN-Architects-Planners/WWP-Revit-BIM-Tools/internal/session"
)

type fakeRefresher struct {
	calls int32
	fail  bool
}

func (f *fakeRefresher) Refresh(ctx context.Context, s *session.Session) error {
	atomic.AddInt32(&f.calls, 1)
	if f.fail {
		return errors.New("refresh failed")
	}
	s.Apply("new-access", "new-refresh", 3600)
	return nil
}

func freshSession() *session.Session {
	return &session.Session{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
}

func testDataClient(handler http.Handler, sess *session.Session, refresher TokenRefresher) (*Client, *httptest.Server) {
	ts := httptest.NewServer(handler)
	c := New(Config{
		BaseURL:   ts.URL,
		Session:   sess,
		Refresher: refresher,
	})
	return c, ts
}

func TestEnsureFreshRefreshesExpiringToken(t *testing.T) {
	refresher := &fakeRefresher{}
	sess := freshSession()
	sess.ExpiresAt = time.Now().Add(time.Minute) // inside the 2m margin

	c, ts := testDataClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	}), sess, refresher)
	defer ts.Close()

	if _, err := c.ListHubs(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&refresher.calls); got != 1 {
		t.Errorf("expected exactly 1 refresh, got %d", got)
	}

	// The refresh pushed the expiry out, so the next call must not refresh.
	if _, err := c.ListHubs(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&refresher.calls); got != 1 {
		t.Errorf("expected no further refresh, got %d total", got)
	}
}

func TestEnsureFreshSkipsFreshToken(t *testing.T) {
	refresher := &fakeRefresher{}
	c, ts := testDataClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	}), freshSession(), refresher)
	defer ts.Close()

	if _, err := c.ListHubs(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&refresher.calls); got != 0 {
		t.Errorf("fresh token must not trigger a refresh, got %d", got)
	}
}

func TestEnsureFreshPropagatesRefreshFailure(t *testing.T) {
	refresher := &fakeRefresher{fail: true}
	sess := freshSession()
	sess.ExpiresAt = time.Now().Add(-time.Minute)

	c, ts := testDataClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no API call may be issued when the refresh fails")
	}), sess, refresher)
	defer ts.Close()

	if _, err := c.ListHubs(context.Background()); err == nil {
		t.Fatal("expected refresh failure to propagate")
	}
}

func TestListHubs(t *testing.T) {
	c, ts := testDataClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/project/v1/hubs" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer access-token" {
			t.Errorf("unexpected auth header %q", got)
		}
		if got := r.Header.Get("Accept"); !strings.Contains(got, "application/vnd.api+json") {
			t.Errorf("expected JSON:API accept header, got %q", got)
		}
		fmt.Fprint(w, `{"data":[
			{"type":"hubs","id":"hub-1","attributes":{"name":"Alpha"}},
			{"type":"hubs","id":"hub-2","attributes":{"name":"Beta"}}
		]}`)
	}), freshSession(), &fakeRefresher{})
	defer ts.Close()

	hubs, err := c.ListHubs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hubs) != 2 {
		t.Fatalf("expected 2 hubs, got %d", len(hubs))
	}
	if hubs[0].ID != "hub-1" || hubs[0].Name != "Alpha" {
		t.Errorf("unexpected first hub %+v", hubs[0])
	}
	if hubs[1].ID != "hub-2" || hubs[1].Name != "Beta" {
		t.Errorf("unexpected second hub %+v", hubs[1])
	}
}

func TestListHubsApiErrorKeepsBody(t *testing.T) {
	c, ts := testDataClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"errors":[{"detail":"insufficient scope"}]}`)
	}), freshSession(), &fakeRefresher{})
	defer ts.Close()

	_, err := c.ListHubs(context.Background())
	var apiErr *ApiError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected ApiError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", apiErr.StatusCode)
	}
	if !strings.Contains(apiErr.Body, "insufficient scope") {
		t.Errorf("expected raw body preserved, got %q", apiErr.Body)
	}
}

func TestListTopFoldersSeedsPlaceholders(t *testing.T) {
	c, ts := testDataClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/project/v1/hubs/hub-1/projects/p1/topFolders" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"data":[
			{"type":"folders","id":"f-root","attributes":{"name":"Project Files"}}
		]}`)
	}), freshSession(), &fakeRefresher{})
	defer ts.Close()

	folders, err := c.ListTopFolders(context.Background(), "hub-1", "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(folders) != 1 {
		t.Fatalf("expected 1 folder, got %d", len(folders))
	}
	if len(folders[0].Children) != 1 || !folders[0].Children[0].Placeholder {
		t.Error("top folders must carry a placeholder child for lazy expansion")
	}
}

func TestListFolderChildrenKeepsFoldersOnly(t *testing.T) {
	c, ts := testDataClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[
			{"type":"folders","id":"f-1","attributes":{"name":"Drawings"}},
			{"type":"items","id":"i-1","attributes":{"displayName":"SheetA.dwg"}},
			{"type":"FOLDERS","id":"f-2","attributes":{"name":"Specs"}},
			{"type":"commands","id":"x-1"}
		]}`)
	}), freshSession(), &fakeRefresher{})
	defer ts.Close()

	folders, err := c.ListFolderChildren(context.Background(), "p1", "f-root")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(folders) != 2 {
		t.Fatalf("expected 2 folders (type matched case-insensitively), got %d", len(folders))
	}
	if folders[0].ID != "f-1" || folders[1].ID != "f-2" {
		t.Errorf("unexpected folder order: %s, %s", folders[0].ID, folders[1].ID)
	}
}

func TestListFilesInFolderPagination(t *testing.T) {
	var calls int32
	mux := http.NewServeMux()
	var ts *httptest.Server

	page := func(items string, next string) string {
		if next == "" {
			return fmt.Sprintf(`{"data":[%s]}`, items)
		}
		return fmt.Sprintf(`{"data":[%s],"links":{"next":{"href":"%s"}}}`, items, next)
	}

	mux.HandleFunc("/data/v1/projects/p1/folders/f1/contents", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, page(
			`{"type":"items","id":"i-1","attributes":{"displayName":"SheetA.dwg","extension":{"type":"items:autodesk.bim360:File"}}},
			 {"type":"folders","id":"f-sub","attributes":{"name":"Sub"}}`,
			ts.URL+"/page2"))
	})
	mux.HandleFunc("/page2", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, page(
			`{"type":"items","id":"i-2","attributes":{"displayName":"SheetB.dwg","extension":{"type":"items:autodesk.bim360:Document"}}}`,
			ts.URL+"/page3"))
	})
	mux.HandleFunc("/page3", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, page(
			`{"type":"items","id":"i-3","attributes":{"displayName":"SheetC.dwg","extension":{"type":"ITEMS:AUTODESK.BIM360:FILE"}}},
			 {"type":"attachments","id":"x-1"}`,
			""))
	})

	c, server := testDataClient(mux, freshSession(), &fakeRefresher{})
	ts = server
	defer server.Close()

	files, err := c.ListFilesInFolder(context.Background(), "p1", "f1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected exactly 3 page fetches, got %d", got)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 files across pages, got %d", len(files))
	}
	for i, want := range []string{"i-1", "i-2", "i-3"} {
		if files[i].ID != want {
			t.Errorf("file %d: expected %s, got %s", i, want, files[i].ID)
		}
	}
	if !files[0].CanUpdateDescription {
		t.Error("recognized extension type must allow description updates")
	}
	if files[1].CanUpdateDescription {
		t.Error("unrecognized extension type must be read-only")
	}
	if !files[2].CanUpdateDescription {
		t.Error("extension type must be matched case-insensitively")
	}
}

func TestUpdateFileDescription(t *testing.T) {
	var gotBody string
	var gotMethod string
	c, ts := testDataClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		if r.URL.Path != "/data/v1/projects/p1/items/i-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "application/vnd.api+json" {
			t.Errorf("unexpected content type %q", got)
		}
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.WriteHeader(http.StatusOK)
	}), freshSession(), &fakeRefresher{})
	defer ts.Close()

	err := c.UpdateFileDescription(context.Background(), "p1", "i-1", "a\"b\\c\r\nd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotMethod != "PATCH" {
		t.Errorf("expected PATCH, got %s", gotMethod)
	}

	want := `{"jsonapi":{"version":"1.0"},"data":{"type":"items","id":"i-1","attributes":{"description":"a\"b\\c\r\nd"}}}`
	if gotBody != want {
		t.Errorf("unexpected body:\n got: %s\nwant: %s", gotBody, want)
	}
}

func TestUpdateFileDescriptionError(t *testing.T) {
	c, ts := testDataClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{"errors":[{"detail":"item is locked"}]}`)
	}), freshSession(), &fakeRefresher{})
	defer ts.Close()

	err := c.UpdateFileDescription(context.Background(), "p1", "i-1", "desc")
	var updateErr *UpdateError
	if !errors.As(err, &updateErr) {
		t.Fatalf("expected UpdateError, got %v", err)
	}
	if updateErr.ItemID != "i-1" || updateErr.StatusCode != http.StatusConflict {
		t.Errorf("unexpected error fields: %+v", updateErr)
	}
	if !strings.Contains(updateErr.Body, "item is locked") {
		t.Errorf("expected raw body preserved, got %q", updateErr.Body)
	}
}
