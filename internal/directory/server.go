package directory

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"moltspeak/internal/crypto"
	"moltspeak/internal/domain"
	"moltspeak/internal/message"
	"moltspeak/internal/metrics"
)

const (
	defaultLimit = 20
	maxLimit     = 100
	maxBodySize  = 64 << 10
)

// Server is an in-memory directory. State is lost on exit; it exists for
// local development and tests, not as a production registry.
type Server struct {
	mu      sync.RWMutex
	agents  map[domain.DirectoryID]domain.AgentRecord
	now     func() time.Time
	log     zerolog.Logger
	limiter *ipLimiter
}

// ServerOption configures a Server.
type ServerOption func(*Server)

func WithServerLogger(l zerolog.Logger) ServerOption {
	return func(s *Server) { s.log = l }
}

func WithServerClock(now func() time.Time) ServerOption {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRateLimit allows each client address r requests per second with the
// given burst. Excess requests get 429 and a Retry-After header.
func WithRateLimit(r rate.Limit, burst int) ServerOption {
	return func(s *Server) { s.limiter = newIPLimiter(r, burst) }
}

// NewServer returns an empty directory.
func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		agents: make(map[domain.DirectoryID]domain.AgentRecord),
		now:    time.Now,
		log:    zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the routed HTTP API, including /health and /metrics.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(recordMetrics)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(chimw.Recoverer)
	if s.limiter != nil {
		r.Use(s.limiter.middleware)
	}

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/agents", func(r chi.Router) {
		r.Post("/", s.register)
		r.Get("/", s.search)
		r.Get("/{id}", s.get)
		r.Post("/{id}/heartbeat", s.heartbeat)
		r.Delete("/{id}", s.deregister)
	})
	return r
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var reg domain.AgentRegistration
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(&reg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := normalizeRegistration(&reg); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UnixMilli()
	for id, rec := range s.agents {
		if rec.AgentName != reg.AgentName || rec.Org != reg.Org {
			continue
		}
		if rec.PublicKey != reg.PublicKey {
			writeError(w, http.StatusConflict, "agent already registered with a different key")
			return
		}
		rec.AgentRegistration = reg
		rec.LastSeen = now
		s.agents[id] = rec
		writeJSON(w, http.StatusOK, map[string]domain.DirectoryID{"id": id})
		return
	}

	id := domain.DirectoryID(uuid.NewString())
	s.agents[id] = domain.AgentRecord{ID: id, AgentRegistration: reg, RegisteredAt: now, LastSeen: now}
	metrics.AgentsRegistered.Set(float64(len(s.agents)))
	s.log.Info().Str("id", id.String()).Str("agent", reg.AgentName+"@"+reg.Org).Msg("agent registered")
	writeJSON(w, http.StatusCreated, map[string]domain.DirectoryID{"id": id})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := defaultLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxLimit)
	}
	capability, org := q.Get("capability"), q.Get("org")
	text := strings.ToLower(q.Get("q"))

	s.mu.RLock()
	matched := make([]domain.AgentRecord, 0)
	for _, rec := range s.agents {
		if org != "" && rec.Org != org {
			continue
		}
		if capability != "" && !hasCapability(rec.Capabilities, capability) {
			continue
		}
		if text != "" &&
			!strings.Contains(strings.ToLower(rec.AgentName), text) &&
			!strings.Contains(strings.ToLower(rec.Description), text) {
			continue
		}
		matched = append(matched, rec)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].LastSeen != matched[j].LastSeen {
			return matched[i].LastSeen > matched[j].LastSeen
		}
		return matched[i].AgentName < matched[j].AgentName
	})
	total := len(matched)
	if len(matched) > limit {
		matched = matched[:limit]
	}
	writeJSON(w, http.StatusOK, domain.AgentList{Agents: matched, Total: total})
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id := domain.DirectoryID(chi.URLParam(r, "id"))
	s.mu.RLock()
	rec, ok := s.agents[id]
	s.mu.RUnlock()
	if !ok {
		writeError(w, http.StatusNotFound, ErrNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) heartbeat(w http.ResponseWriter, r *http.Request) {
	id := domain.DirectoryID(chi.URLParam(r, "id"))
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.agents[id]
	if !ok {
		writeError(w, http.StatusNotFound, ErrNotFound.Error())
		return
	}
	rec.LastSeen = s.now().UnixMilli()
	s.agents[id] = rec
	writeJSON(w, http.StatusOK, domain.Heartbeat{ID: id, LastSeen: rec.LastSeen})
}

func (s *Server) deregister(w http.ResponseWriter, r *http.Request) {
	id := domain.DirectoryID(chi.URLParam(r, "id"))
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.agents[id]; !ok {
		writeError(w, http.StatusNotFound, ErrNotFound.Error())
		return
	}
	delete(s.agents, id)
	metrics.AgentsRegistered.Set(float64(len(s.agents)))
	s.log.Info().Str("id", id.String()).Msg("agent deregistered")
	w.WriteHeader(http.StatusNoContent)
}

// normalizeRegistration validates reg and rewrites its keys in prefixed form.
func normalizeRegistration(reg *domain.AgentRegistration) error {
	if err := message.ValidateName("agent_name", reg.AgentName); err != nil {
		return err
	}
	if err := message.ValidateName("org", reg.Org); err != nil {
		return err
	}
	if reg.PublicKey == "" {
		return errors.New("public_key is required")
	}
	pub, err := crypto.ParseSigningKey(reg.PublicKey)
	if err != nil {
		return err
	}
	reg.PublicKey = crypto.EncodeSigningKey(pub)
	if reg.EncryptionKey != "" {
		enc, err := crypto.ParseEncryptionKey(reg.EncryptionKey)
		if err != nil {
			return err
		}
		reg.EncryptionKey = crypto.EncodeEncryptionKey(enc)
	}
	for _, c := range reg.Capabilities {
		if strings.TrimSpace(c) == "" {
			return errors.New("capability names must not be empty")
		}
	}
	return nil
}

func hasCapability(caps []string, want string) bool {
	for _, c := range caps {
		if c == want {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
