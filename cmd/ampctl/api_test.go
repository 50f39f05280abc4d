package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/speters/ampctl/pkg/bridge"
	"github.com/speters/ampctl/pkg/fbv"
	"github.com/speters/ampctl/pkg/kemper"
	"github.com/speters/ampctl/pkg/link/linktest"
)

func newTestAPI(t *testing.T) (*api, *linktest.Pipe) {
	t.Helper()
	amp := &linktest.Pipe{}
	b := bridge.NewKemper(fbv.New(&linktest.Pipe{}), kemper.New(amp))
	now := time.Date(2015, 10, 8, 20, 0, 0, 0, time.UTC)
	if err := b.Start(now); err != nil {
		t.Fatalf("start: %v", err)
	}
	amp.Take()
	return &api{
		bridge: b,
		now:    func() time.Time { return now },
		ports:  func() ([]string, error) { return []string{"/dev/ttyUSB0"}, nil },
	}, amp
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) bridge.State {
	t.Helper()
	var st bridge.State
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return st
}

func TestAPIState(t *testing.T) {
	a, _ := newTestAPI(t)
	rec := do(t, a.router(), "GET", "/state")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if st := decodeState(t, rec); st.Mode != bridge.ModeKemper {
		t.Fatalf("mode %q", st.Mode)
	}
}

func TestAPIProgram(t *testing.T) {
	a, amp := newTestAPI(t)
	rec := do(t, a.router(), "POST", "/program/3")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	if st := decodeState(t, rec); st.Program != 3 {
		t.Fatalf("program %d", st.Program)
	}
	if got := amp.Take(); !bytes.HasPrefix(got, kemper.ProgramChangeFrames(3)) {
		t.Fatalf("amp got % x", got)
	}

	if rec := do(t, a.router(), "POST", "/program/x"); rec.Code != http.StatusNotFound {
		t.Fatalf("non numeric program: status %d", rec.Code)
	}
	if rec := do(t, a.router(), "GET", "/program/3"); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET program: status %d", rec.Code)
	}
}

func TestAPIKey(t *testing.T) {
	a, amp := newTestAPI(t)
	rec := do(t, a.router(), "POST", "/key/mod")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	if st := decodeState(t, rec); !st.Effects["mod"] {
		t.Fatalf("effects %v", st.Effects)
	}
	if got := amp.Take(); !bytes.Equal(got, []byte{0xB0, kemper.CCStompMod, 0x01}) {
		t.Fatalf("amp got % x", got)
	}

	if rec := do(t, a.router(), "POST", "/key/wahwah"); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown key: status %d", rec.Code)
	}
}

func TestAPIPorts(t *testing.T) {
	a, _ := newTestAPI(t)
	rec := do(t, a.router(), "GET", "/ports")
	var ports []string
	if err := json.NewDecoder(rec.Body).Decode(&ports); err != nil || len(ports) != 1 {
		t.Fatalf("ports %v, err %v", ports, err)
	}

	a.ports = func() ([]string, error) { return nil, errors.New("no serial support") }
	if rec := do(t, a.router(), "GET", "/ports"); rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestAPIVersion(t *testing.T) {
	a, _ := newTestAPI(t)
	rec := do(t, a.router(), "GET", "/version")
	var v struct {
		Version string `json:"version"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil || v.Version != buildVersion {
		t.Fatalf("version %+v, err %v", v, err)
	}
}
