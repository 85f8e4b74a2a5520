// Package monitoring serves a running model over HTTP so that its blocks and
// published slots can be inspected, and written, between steps.
package monitoring

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strings"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/rs/xid"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/ecibridge/blocks"
	"github.com/sarchlab/ecibridge/eci"
	"github.com/sarchlab/ecibridge/monitoring/web"
	"github.com/sarchlab/ecibridge/slot"
)

// Target is the model a monitor serves.
type Target interface {
	CurrentStep() uint64
	Step()
	Pause()
	Continue()
	IsPaused() bool
	Blocks() []blocks.Block
	Slots() *slot.Registry
	BetweenSteps(fn func())
	ECITable() (*eci.Table, error)
}

// Monitor can turn a simulation into a server and allows external monitoring
// controlling of the simulation.
type Monitor struct {
	target     Target
	portNumber int
	stepping   bool

	server   *http.Server
	listener net.Listener

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithStepping lets clients run steps through POST /api/step.
func (m *Monitor) WithStepping() *Monitor {
	m.stepping = true
	return m
}

// RegisterTarget registers the model to serve.
func (m *Monitor) RegisterTarget(t Target) {
	m.target = t
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        xid.New().String(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Handler returns the HTTP handler of the monitor.
func (m *Monitor) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pause)
	r.HandleFunc("/api/continue", m.continueSim)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/step", m.step).Methods(http.MethodPost)
	r.HandleFunc("/api/list_blocks", m.listBlocks)
	r.HandleFunc("/api/block/{name}", m.blockDetails)
	r.HandleFunc("/api/slots", m.listSlots)
	r.HandleFunc("/api/slot/{addr}", m.readSlot).Methods(http.MethodGet)
	r.HandleFunc("/api/slot/{addr}", m.writeSlot).Methods(http.MethodPut)
	r.HandleFunc("/api/eci_table", m.eciTable)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts the monitor as a web server with a custom port if wanted.
func (m *Monitor) StartServer() {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = fmt.Sprintf(":%d", m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	m.listener = listener
	m.server = &http.Server{
		Handler:           m.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", m.URL())

	go func() {
		err := m.server.Serve(listener)
		if !errors.Is(err, http.ErrServerClosed) {
			dieOnErr(err)
		}
	}()
}

// URL returns the address of the running server, or "" if it is not
// running.
func (m *Monitor) URL() string {
	if m.listener == nil {
		return ""
	}

	return fmt.Sprintf("http://localhost:%d",
		m.listener.Addr().(*net.TCPAddr).Port)
}

// StopServer shuts the server down.
func (m *Monitor) StopServer(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	err := m.server.Shutdown(ctx)
	m.server = nil
	m.listener = nil

	return err
}

func (m *Monitor) pause(w http.ResponseWriter, _ *http.Request) {
	m.target.Pause()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) continueSim(w http.ResponseWriter, _ *http.Request) {
	m.target.Continue()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintf(w, "{\"now\":%d}", m.target.CurrentStep())
}

func (m *Monitor) step(w http.ResponseWriter, _ *http.Request) {
	if !m.stepping {
		http.Error(w, "stepping is driven by the simulation",
			http.StatusForbidden)
		return
	}

	if m.target.IsPaused() {
		http.Error(w, "simulation is paused", http.StatusConflict)
		return
	}

	m.target.Step()
	m.now(w, nil)
}

type blockRsp struct {
	Name   string         `json:"name"`
	Kind   string         `json:"kind"`
	State  string         `json:"state"`
	Params []blocks.Param `json:"params"`
}

func (m *Monitor) listBlocks(w http.ResponseWriter, _ *http.Request) {
	var rsp []blockRsp

	m.target.BetweenSteps(func() {
		rsp = make([]blockRsp, 0, len(m.target.Blocks()))
		for _, b := range m.target.Blocks() {
			rsp = append(rsp, blockRsp{
				Name:   b.Name(),
				Kind:   b.Kind().String(),
				State:  b.State().String(),
				Params: b.Params(),
			})
		}
	})

	writeJSON(w, rsp)
}

func (m *Monitor) blockDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	block := m.findBlockOr404(w, name)
	if block == nil {
		return
	}

	var buf bytes.Buffer

	m.target.BetweenSteps(func() {
		serializer := goseth.NewSerializer()
		serializer.SetRoot(block)
		serializer.SetMaxDepth(1)
		dieOnErr(serializer.Serialize(&buf))
	})

	_, err := w.Write(buf.Bytes())
	dieOnErr(err)
}

func (m *Monitor) findBlockOr404(
	w http.ResponseWriter,
	name string,
) blocks.Block {
	for _, b := range m.target.Blocks() {
		if b.Name() == name {
			return b
		}
	}

	http.Error(w, "Block not found", http.StatusNotFound)

	return nil
}

func (m *Monitor) listSlots(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, m.target.Slots().Published())
}

// SlotValue is the content of a published slot.
type SlotValue struct {
	Info   slot.Info `json:"info"`
	Hex    string    `json:"hex"`
	Values []any     `json:"values"`
}

func (m *Monitor) readSlot(w http.ResponseWriter, r *http.Request) {
	addr, err := slot.ParseAddress(mux.Vars(r)["addr"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var (
		info slot.Info
		data []byte
	)

	m.target.BetweenSteps(func() {
		info, err = m.target.Slots().Lookup(addr)
		if err == nil {
			data, err = m.target.Slots().Read(addr)
		}
	})

	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	writeJSON(w, SlotValue{
		Info:   info,
		Hex:    hex.EncodeToString(data),
		Values: slot.Decode(info.Type, data),
	})
}

func (m *Monitor) writeSlot(w http.ResponseWriter, r *http.Request) {
	addr, err := slot.ParseAddress(mux.Vars(r)["addr"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 2*slot.MaxSlotBytes+2))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := hex.DecodeString(strings.TrimSpace(string(body)))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m.target.BetweenSteps(func() {
		err = m.target.Slots().Write(addr, data)
	})

	switch {
	case errors.Is(err, slot.ErrUnknownAddress):
		http.Error(w, err.Error(), http.StatusNotFound)
	case err != nil:
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (m *Monitor) eciTable(w http.ResponseWriter, _ *http.Request) {
	t, err := m.target.ECITable()
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	dieOnErr(t.WriteJSON(w))
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	writeJSON(w, m.progressBars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")

	_, err = w.Write(data)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
