package journal

import (
	"encoding/json"
	"net/http"
	"strconv"

	gmux "github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// APIRouter serves the journal's records over a read-mostly HTTP API.
type APIRouter struct {
	*gmux.Router
	journal *Journal
}

func APIRouterOf(journal *Journal) *APIRouter {
	ret := &APIRouter{
		journal: journal,
	}
	ret.registerMux()
	return ret
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}

func (ar *APIRouter) registerMux() {
	ar.Router = gmux.NewRouter()
	ar.HandleFunc("/streams", ar.listAllStreamsHlr).Methods("GET")
	ar.HandleFunc("/streams/{streamID}", ar.getStreamInfoHlr).Methods("GET")
	ar.HandleFunc("/streams/{streamID}", ar.deleteStreamHlr).Methods("DELETE")
	ar.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", "GET,DELETE,OPTIONS")
	})
	ar.Use(corsMiddleware)
}

func streamIDOfRequest(r *http.Request) (uint32, error) {
	sid, err := strconv.ParseUint(gmux.Vars(r)["streamID"], 10, 32)
	return uint32(sid), err
}

func (ar *APIRouter) listAllStreamsHlr(w http.ResponseWriter, r *http.Request) {
	infos, err := ar.journal.ListAllStreams()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	resp, err := json.Marshal(infos)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(resp)
}

func (ar *APIRouter) getStreamInfoHlr(w http.ResponseWriter, r *http.Request) {
	sid, err := streamIDOfRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	info, err := ar.journal.GetStreamInfo(sid)
	if err == ErrStreamNotFound {
		http.Error(w, ErrStreamNotFound.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	resp, err := json.Marshal(info)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(resp)
}

func (ar *APIRouter) deleteStreamHlr(w http.ResponseWriter, r *http.Request) {
	sid, err := streamIDOfRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = ar.journal.DeleteStream(sid)
	if err == ErrStreamNotFound {
		http.Error(w, ErrStreamNotFound.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("deleting stream %d from journal: %v", sid, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
