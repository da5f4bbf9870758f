// SPDX-License-Identifier: EPL-2.0

package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ik5/wavdac/playlist"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakePlaylist struct {
	calls  []string
	volume int
	err    error
}

func (f *fakePlaylist) record(call string) error {
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakePlaylist) Files() []string { return []string{"a.wav", "b.wav"} }
func (f *fakePlaylist) Status() playlist.Status {
	return playlist.Status{State: "idle", Files: 2}
}
func (f *fakePlaylist) Play() error                 { return f.record("play") }
func (f *fakePlaylist) PlayIndex(i int) error       { return f.record(fmt.Sprintf("index %d", i)) }
func (f *fakePlaylist) PlayName(n string) error     { return f.record("name " + n) }
func (f *fakePlaylist) PlayRandom() error           { return f.record("random") }
func (f *fakePlaylist) Pause() error                { return f.record("pause") }
func (f *fakePlaylist) SetIntroIndex(i int) error   { return f.record(fmt.Sprintf("intro %d", i)) }
func (f *fakePlaylist) SetIntroName(n string) error { return f.record("intro " + n) }
func (f *fakePlaylist) ClearIntro()                 { f.record("clear intro") }
func (f *fakePlaylist) SetVolume(v int) error {
	f.volume = v
	return f.record(fmt.Sprintf("volume %d", v))
}

func newRouter(pl Playlist) *gin.Engine {
	return NewRouter(NewHandler(pl, "test", slog.New(slog.NewTextHandler(io.Discard, nil))), nil)
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRoutes_Read(t *testing.T) {
	t.Parallel()

	router := newRouter(&fakePlaylist{})

	w := do(t, router, http.MethodGet, "/api/v1/health", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"healthy"`) {
		t.Errorf("health = %d %s", w.Code, w.Body)
	}

	w = do(t, router, http.MethodGet, "/api/v1/files", "")
	var files FilesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &files); err != nil {
		t.Fatal(err)
	}
	if files.Count != 2 || files.Files[1] != "b.wav" {
		t.Errorf("files = %+v", files)
	}

	w = do(t, router, http.MethodGet, "/api/v1/status", "")
	var st playlist.Status
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if st.State != "idle" || st.Files != 2 {
		t.Errorf("status = %+v", st)
	}
}

func TestRoutes_Mutating(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		call   string
	}{
		{"play selection", http.MethodPost, "/api/v1/play", "", http.StatusOK, "play"},
		{"play index", http.MethodPost, "/api/v1/play", `{"index":0}`, http.StatusOK, "index 0"},
		{"play name", http.MethodPost, "/api/v1/play", `{"name":"b.wav"}`, http.StatusOK, "name b.wav"},
		{"play random", http.MethodPost, "/api/v1/play", `{"random":true}`, http.StatusOK, "random"},
		{"play bad json", http.MethodPost, "/api/v1/play", `{`, http.StatusBadRequest, ""},
		{"pause", http.MethodPost, "/api/v1/pause", "", http.StatusOK, "pause"},
		{"resume", http.MethodPost, "/api/v1/resume", "", http.StatusOK, "play"},
		{"volume", http.MethodPut, "/api/v1/volume", `{"volume":0}`, http.StatusOK, "volume 0"},
		{"volume missing", http.MethodPut, "/api/v1/volume", `{}`, http.StatusBadRequest, ""},
		{"intro index", http.MethodPut, "/api/v1/intro", `{"index":1}`, http.StatusOK, "intro 1"},
		{"intro name", http.MethodPut, "/api/v1/intro", `{"name":"a.wav"}`, http.StatusOK, "intro a.wav"},
		{"intro clear", http.MethodPut, "/api/v1/intro", `{"clear":true}`, http.StatusOK, "clear intro"},
		{"intro empty", http.MethodPut, "/api/v1/intro", `{}`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pl := &fakePlaylist{}
			w := do(t, newRouter(pl), tt.method, tt.path, tt.body)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.status, w.Body)
			}

			var resp Response
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Success != (tt.status == http.StatusOK) {
				t.Errorf("success = %v", resp.Success)
			}
			if _, err := uuid.Parse(resp.RequestID); err != nil {
				t.Errorf("request_id %q: %v", resp.RequestID, err)
			}
			if w.Header().Get(requestIDHeader) != resp.RequestID {
				t.Error("header and body request ids differ")
			}

			if tt.call == "" {
				if len(pl.calls) != 0 {
					t.Errorf("calls = %v, want none", pl.calls)
				}
				return
			}
			if len(pl.calls) != 1 || pl.calls[0] != tt.call {
				t.Errorf("calls = %v, want [%s]", pl.calls, tt.call)
			}
		})
	}
}

func TestRoutes_ErrorStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: index 9", playlist.ErrNoSuchEntry), http.StatusNotFound},
		{playlist.ErrNothingSelected, http.StatusConflict},
		{playlist.ErrVolumeRange, http.StatusBadRequest},
		{playlist.ErrClosed, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		w := do(t, newRouter(&fakePlaylist{err: tt.err}), http.MethodPost, "/api/v1/play", `{"index":9}`)
		if w.Code != tt.want {
			t.Errorf("%v: status = %d, want %d", tt.err, w.Code, tt.want)
		}
		if !strings.Contains(w.Body.String(), tt.err.Error()) {
			t.Errorf("%v: body %s lacks the error", tt.err, w.Body)
		}
	}
}

func TestRequestID_Reused(t *testing.T) {
	t.Parallel()

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pause", nil)
	req.Header.Set(requestIDHeader, id)
	w := httptest.NewRecorder()
	newRouter(&fakePlaylist{}).ServeHTTP(w, req)

	if got := w.Header().Get(requestIDHeader); got != id {
		t.Errorf("request id = %q, want %q", got, id)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/pause", nil)
	req.Header.Set(requestIDHeader, "not-a-uuid")
	w = httptest.NewRecorder()
	newRouter(&fakePlaylist{}).ServeHTTP(w, req)
	if got := w.Header().Get(requestIDHeader); got == "not-a-uuid" {
		t.Error("invalid client request id was reused")
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()

	router := NewRouter(NewHandler(&fakePlaylist{}, "test", nil), []string{"http://panel.local"})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/volume", nil)
	req.Header.Set("Origin", "http://panel.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://panel.local" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestServe_Shutdown(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- Serve(ctx, "127.0.0.1:0", http.NotFoundHandler(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}
