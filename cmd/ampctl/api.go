package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/speters/ampctl/pkg/bridge"
	"github.com/speters/ampctl/pkg/fbv"
	"github.com/speters/ampctl/pkg/link"
)

// To be set via go build -ldflags "-X main.buildVersion=$(git describe --dirty) -X main.buildDate=$(date -u +%FT%TZ)"
var buildVersion = "unspecified"
var buildDate = "unknown"

type api struct {
	bridge *bridge.Bridge
	now    func() time.Time
	ports  func() ([]string, error)
}

func newRouter(b *bridge.Bridge) *mux.Router {
	a := &api{bridge: b, now: time.Now, ports: link.ListPorts}
	return a.router()
}

func (a *api) router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/version", versionInfo).Methods("GET")
	router.HandleFunc("/state", a.getState).Methods("GET")
	router.HandleFunc("/ports", a.getPorts).Methods("GET")
	router.HandleFunc("/program/{n:[0-9]+}", a.setProgram).Methods("POST")
	router.HandleFunc("/key/{name}", a.pressKey).Methods("POST")
	return router
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(http.StatusOK)
	e := json.NewEncoder(w)
	e.SetIndent("", "    ")
	if err := e.Encode(v); err != nil {
		log.Error(err)
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "text/plain; charset=UTF-8")
	w.WriteHeader(code)
	w.Write([]byte(err.Error()))
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, struct {
		Version   string `json:"version"`
		BuildDate string `json:"build_date"`
	}{Version: buildVersion, BuildDate: buildDate})
}

func (a *api) getState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, a.bridge.State())
}

func (a *api) getPorts(w http.ResponseWriter, r *http.Request) {
	ports, err := a.ports()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, ports)
}

func (a *api) setProgram(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.ParseUint(mux.Vars(r)["n"], 10, 16)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.bridge.SelectProgram(uint(n)); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, a.bridge.State())
}

func (a *api) pressKey(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	k, err := fbv.ParseKey(name)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("No such key %v", name))
		return
	}
	if err := a.bridge.Press(k, a.now()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, a.bridge.State())
}
