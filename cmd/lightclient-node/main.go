// Command lightclient-node wraps pkg/lightclient's State in a small JSON
// RPC surface, the same way the teacher wraps its consensus core inside
// an application object with mutex-guarded handler methods and a
// bracket-prefixed logger, one handler per state-machine transition.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gear-tech/gear-bridges-sub000/pkg/bridgelog"
	"github.com/gear-tech/gear-bridges-sub000/pkg/lightclient"
)

// app is the light client's stateful JSON-RPC front end: one State
// instance behind a mutex, since State's methods are not safe for
// concurrent use on their own.
type app struct {
	logger *log.Logger
	mu     sync.Mutex
	state  *lightclient.State
}

func newApp(fork lightclient.ForkSchedule, checkpointCapacity int) *app {
	return &app{
		logger: bridgelog.New("LightClientNode"),
		state:  lightclient.New(fork, checkpointCapacity),
	}
}

type initRequest struct {
	Bootstrap     lightclient.Bootstrap `json:"bootstrap"`
	InitialUpdate lightclient.SyncUpdate `json:"initialUpdate"`
}

func (a *app) handleInit(w http.ResponseWriter, r *http.Request) {
	var req initRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	a.mu.Lock()
	err := a.state.Init(req.Bootstrap, req.InitialUpdate)
	a.mu.Unlock()

	if err != nil {
		a.logger.Printf("init failed: %v", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	a.logger.Printf("initialized at slot %d", req.Bootstrap.Header.Slot)
	writeJSON(w, http.StatusOK, a.stateSnapshot())
}

type syncUpdateRequest struct {
	Update lightclient.SyncUpdate `json:"update"`
}

func (a *app) handleSyncUpdate(w http.ResponseWriter, r *http.Request) {
	var req syncUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	a.mu.Lock()
	result, err := a.state.ApplySyncUpdate(req.Update)
	a.mu.Unlock()

	if err != nil {
		if replay, ok := err.(lightclient.ReplayBackRequired); ok {
			a.logger.Printf("replay-back required: last proved slot %d, checkpoint slot %d",
				replay.LastProvedSlot, replay.CheckpointSlot)
			writeJSON(w, http.StatusConflict, map[string]interface{}{
				"error":          replay.Error(),
				"lastProvedSlot": replay.LastProvedSlot,
				"checkpointSlot": replay.CheckpointSlot,
			})
			return
		}
		a.logger.Printf("sync update rejected: %v", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if result.Rotated {
		a.logger.Printf("sync committee rotated at slot %d", req.Update.FinalizedHeader.Slot)
	}
	writeJSON(w, http.StatusOK, result)
}

type replayBackStartRequest struct {
	Update  lightclient.SyncUpdate `json:"update"`
	Headers []lightclient.Header   `json:"headers"`
}

func (a *app) handleReplayBackStart(w http.ResponseWriter, r *http.Request) {
	var req replayBackStartRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	a.mu.Lock()
	err := a.state.ApplyReplayBackStart(req.Update, req.Headers)
	a.mu.Unlock()

	if err != nil {
		a.logger.Printf("replay-back start rejected: %v", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "in_process"})
}

type replayBackContinueRequest struct {
	Headers []lightclient.Header `json:"headers"`
}

func (a *app) handleReplayBackContinue(w http.ResponseWriter, r *http.Request) {
	var req replayBackContinueRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	a.mu.Lock()
	err := a.state.ApplyReplayBackContinue(req.Headers)
	status := a.state.ReplayBackStatus()
	a.mu.Unlock()

	if err != nil {
		a.logger.Printf("replay-back continue rejected: %v", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if status == lightclient.ReplayBackFinished {
		a.logger.Printf("replay-back finished")
	}
	writeJSON(w, http.StatusOK, map[string]int{"status": int(status)})
}

func (a *app) handleState(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	snapshot := a.stateSnapshot()
	a.mu.Unlock()
	writeJSON(w, http.StatusOK, snapshot)
}

func (a *app) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// stateSnapshot must be called with a.mu held.
func (a *app) stateSnapshot() map[string]interface{} {
	finalized, initialized := a.state.State()
	return map[string]interface{}{
		"initialized":     initialized,
		"finalizedHeader": finalized,
		"replayBackState": int(a.state.ReplayBackStatus()),
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request body: %w", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func main() {
	logger := bridgelog.New("lightclient-node")

	fork := lightclient.AltairForkSchedule
	if getEnv("FORK_SCHEDULE", "altair") == "electra" {
		fork = lightclient.ElectraForkSchedule
	}
	checkpointCapacity := getEnvInt("CHECKPOINT_CAPACITY", 8192)
	listenAddr := getEnv("LISTEN_ADDR", "0.0.0.0:8081")

	a := newApp(fork, checkpointCapacity)

	mux := http.NewServeMux()
	mux.HandleFunc("/init", a.handleInit)
	mux.HandleFunc("/sync_update", a.handleSyncUpdate)
	mux.HandleFunc("/replay_back/start", a.handleReplayBackStart)
	mux.HandleFunc("/replay_back/continue", a.handleReplayBackContinue)
	mux.HandleFunc("/state", a.handleState)
	mux.HandleFunc("/health", a.handleHealth)

	server := &http.Server{Addr: listenAddr, Handler: mux}

	go func() {
		logger.Printf("listening on %s (fork schedule: finalized index %d, next committee index %d)",
			listenAddr, fork.FinalizedRootIndex, fork.NextSyncCommitteeIndex)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("shutdown error: %v", err)
	}
	logger.Printf("stopped")
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}
