// Package devserver is a local stand-in for the remote assistant endpoints.
// Its answers are deterministic so the chat client works offline.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/julianstephens/mono/internal/chat"
	"github.com/julianstephens/mono/internal/constants"
	"github.com/julianstephens/mono/internal/logger"
	"github.com/julianstephens/mono/internal/models"
)

type Server struct {
	router *mux.Router
	now    func() time.Time
}

func New() *Server {
	s := &Server{now: time.Now}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(cors, requestLog)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)
	api.HandleFunc("/completion", s.handleCompletion).Methods(http.MethodPost)
	api.HandleFunc("/challenges", s.handleChallenges).Methods(http.MethodPost)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		next.ServeHTTP(w, r)
	})
}

func requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("Handled request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func badRequest(w http.ResponseWriter, msg string) {
	http.Error(w, msg, http.StatusBadRequest)
}

func startStream(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Vercel-AI-Data-Stream", "v1")
	w.WriteHeader(http.StatusOK)
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// streamWords writes text as one delta per word so clients see it arrive
// incrementally.
func streamWords(w http.ResponseWriter, text string) error {
	words := strings.SplitAfter(text, " ")
	for _, word := range words {
		if word == "" {
			continue
		}
		if err := chat.WriteText(w, word); err != nil {
			return err
		}
		flush(w)
	}
	return nil
}

type chatBody struct {
	Messages []models.Message `json:"messages"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var body chatBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	var last string
	for i := len(body.Messages) - 1; i >= 0; i-- {
		if body.Messages[i].Role == models.RoleUser {
			last = strings.TrimSpace(body.Messages[i].Content)
			break
		}
	}
	if last == "" {
		badRequest(w, "no user message")
		return
	}

	startStream(w)
	if strings.HasPrefix(last, "/time") {
		now := s.now().Format(time.RFC3339)
		chat.WriteToolCall(w, "call-1", "currentTime", map[string]string{})
		chat.WriteToolResult(w, "call-1", now)
		flush(w)
		streamWords(w, "It is "+now+".")
	} else {
		streamWords(w, "You said: "+last)
	}
	chat.WriteFinish(w, "stop")
}

type promptBody struct {
	Prompt string `json:"prompt"`
}

func decodePrompt(w http.ResponseWriter, r *http.Request) (string, bool) {
	var body promptBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid JSON body")
		return "", false
	}
	prompt := strings.TrimSpace(body.Prompt)
	if prompt == "" {
		badRequest(w, "prompt is required")
		return "", false
	}
	return prompt, true
}

func (s *Server) handleCompletion(w http.ResponseWriter, r *http.Request) {
	prompt, ok := decodePrompt(w, r)
	if !ok {
		return
	}
	startStream(w)
	streamWords(w, "Echo: "+prompt)
	chat.WriteFinish(w, "stop")
}

// Plan builds the deterministic 30-day plan served for prompt.
func Plan(prompt string) []models.ChallengeDay {
	days := make([]models.ChallengeDay, constants.ChallengeLength)
	for i := range days {
		n := i + 1
		days[i] = models.ChallengeDay{
			Day:         n,
			Title:       fmt.Sprintf("%s, day %d", prompt, n),
			Description: fmt.Sprintf("Spend %d minutes on %s.", 5+n, prompt),
		}
	}
	return days
}

type planDay struct {
	Day         int    `json:"day"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (s *Server) handleChallenges(w http.ResponseWriter, r *http.Request) {
	prompt, ok := decodePrompt(w, r)
	if !ok {
		return
	}

	plan := Plan(prompt)
	out := make([]planDay, len(plan))
	for i, d := range plan {
		out[i] = planDay{Day: d.Day, Title: d.Title, Description: d.Description}
	}
	doc, err := json.Marshal(out)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	const chunk = 256
	for len(doc) > 0 {
		n := min(chunk, len(doc))
		if _, err := w.Write(doc[:n]); err != nil {
			return
		}
		flush(w)
		doc = doc[n:]
	}
}

// Run serves until ctx is cancelled. onListen, when set, receives the bound
// address, which matters when addr uses port 0.
func (s *Server) Run(ctx context.Context, addr string, onListen func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	if onListen != nil {
		onListen(ln.Addr())
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Development server listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
