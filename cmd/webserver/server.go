package main

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"docquiz"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/gorilla/sessions"
)

const (
	sessionName    = "docquiz-session"
	maxUploadBytes = 32 << 20
)

func init() {
	gob.Register(docquiz.Session{})
	gob.Register(docquiz.CategoryScore{})
}

// QuizStore is the persistence the server needs; *docquiz.DB implements it.
type QuizStore interface {
	SaveQuiz(ctx context.Context, quiz *docquiz.Quiz, st *docquiz.Structure) error
	GetQuiz(ctx context.Context, id string) (*docquiz.Quiz, *docquiz.Structure, error)
	GetQuizzes(ctx context.Context, limit int) ([]docquiz.DBQuiz, error)
}

type Server struct {
	db        QuizStore
	generator *docquiz.QuizGenerator
	store     sessions.Store
}

func NewServer(db QuizStore, generator *docquiz.QuizGenerator, store sessions.Store) *Server {
	return &Server{db: db, generator: generator, store: store}
}

// Routes builds the HTTP handler.
func (s *Server) Routes(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok")) })

	r.Route("/api/quizzes", func(r chi.Router) {
		r.Post("/", s.handleCreateQuiz)
		r.Get("/", s.handleListQuizzes)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetQuiz)
			r.Get("/structure", s.handleStructure)
			r.Post("/start", s.handleStart)
			r.Get("/question", s.handleQuestion)
			r.Post("/answer", s.handleAnswer)
			r.Get("/results", s.handleResults)
			r.Get("/results.pdf", s.handleResultsPDF)
		})
	})
	return r
}

type createQuizResp struct {
	ID         string `json:"id"`
	Source     string `json:"source"`
	Questions  int    `json:"questions"`
	Requested  int    `json:"requested"`
	Incomplete bool   `json:"incomplete"`
	TOCEntries int    `json:"toc_entries"`
	Elements   int    `json:"elements"`
}

// handleCreateQuiz accepts a multipart upload in field "file" and generates a quiz from it.
func (s *Server) handleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Failed to parse upload", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "File is required", http.StatusBadRequest)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read upload", http.StatusBadRequest)
		return
	}

	format := docquiz.Format(r.FormValue("format"))
	if format == "" {
		format, err = docquiz.DetectFormat(header.Filename)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnsupportedMediaType)
			return
		}
	}

	req := docquiz.GenerationRequest{
		Source:         header.Filename,
		Format:         format,
		Categories:     docquiz.ParseCategories(r.FormValue("categories")),
		SeedCategories: r.FormValue("seed") == "true",
	}
	if n, err := strconv.Atoi(r.FormValue("questions")); err == nil && n > 0 {
		req.NumQuestions = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()
	quiz, st, err := s.generator.GenerateQuiz(ctx, data, req, nil)
	if err != nil {
		log.Printf("Failed to generate quiz for %s: %v", header.Filename, err)
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	if err := s.db.SaveQuiz(r.Context(), quiz, st); err != nil {
		log.Printf("Failed to store quiz %s: %v", quiz.ID, err)
		http.Error(w, "Failed to store quiz", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, http.StatusCreated, createQuizResp{
		ID:         quiz.ID,
		Source:     quiz.Source,
		Questions:  len(quiz.Questions),
		Requested:  quiz.Requested,
		Incomplete: quiz.Incomplete,
		TOCEntries: len(st.TOC),
		Elements:   len(st.Elements),
	})
}

func (s *Server) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := s.db.GetQuizzes(r.Context(), 0)
	if err != nil {
		log.Printf("Failed to get quizzes: %v", err)
		http.Error(w, "Failed to get quizzes", http.StatusInternalServerError)
		return
	}
	if quizzes == nil {
		quizzes = []docquiz.DBQuiz{}
	}
	writeJSON(w, quizzes)
}

// publicQuestion is a question as shown to a player, without its answer.
type publicQuestion struct {
	Number   int      `json:"number"`
	Total    int      `json:"total"`
	Question string   `json:"question"`
	Choices  []string `json:"choices"`
	Category string   `json:"category"`
}

func (s *Server) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, _, ok := s.loadQuiz(w, r)
	if !ok {
		return
	}
	questions := make([]publicQuestion, len(quiz.Questions))
	for i, q := range quiz.Questions {
		questions[i] = publicQuestion{Number: i + 1, Total: len(quiz.Questions), Question: q.Question, Choices: q.Choices, Category: q.Category}
	}
	writeJSON(w, map[string]interface{}{
		"id":         quiz.ID,
		"source":     quiz.Source,
		"requested":  quiz.Requested,
		"incomplete": quiz.Incomplete,
		"created_at": quiz.CreatedAt,
		"questions":  questions,
	})
}

func (s *Server) handleStructure(w http.ResponseWriter, r *http.Request) {
	_, st, ok := s.loadQuiz(w, r)
	if !ok {
		return
	}
	writeJSON(w, st)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	quiz, _, ok := s.loadQuiz(w, r)
	if !ok {
		return
	}
	session, _ := s.store.Get(r, sessionName)
	session.Values["game"] = *docquiz.NewSession(quiz)
	if err := session.Save(r, w); err != nil {
		log.Printf("Session save error: %v", err)
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}
	s.writeCurrent(w, quiz, docquiz.NewSession(quiz))
}

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	quiz, _, ok := s.loadQuiz(w, r)
	if !ok {
		return
	}
	game, _, ok := s.loadGame(w, r, quiz)
	if !ok {
		return
	}
	s.writeCurrent(w, quiz, game)
}

func (s *Server) writeCurrent(w http.ResponseWriter, quiz *docquiz.Quiz, game *docquiz.Session) {
	q, ok := game.Current(quiz)
	if !ok {
		writeJSON(w, map[string]bool{"done": true})
		return
	}
	writeJSON(w, publicQuestion{
		Number:   game.Index + 1,
		Total:    len(quiz.Questions),
		Question: q.Question,
		Choices:  q.Choices,
		Category: q.Category,
	})
}

type answerReq struct {
	Choice string `json:"choice"`
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	quiz, _, ok := s.loadQuiz(w, r)
	if !ok {
		return
	}
	game, session, ok := s.loadGame(w, r, quiz)
	if !ok {
		return
	}

	var req answerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	res, err := game.Answer(quiz, req.Choice)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, docquiz.ErrQuizFinished) {
			status = http.StatusConflict
		}
		http.Error(w, err.Error(), status)
		return
	}

	session.Values["game"] = *game
	if err := session.Save(r, w); err != nil {
		log.Printf("Session save error: %v", err)
	}
	writeJSON(w, res)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	quiz, _, ok := s.loadQuiz(w, r)
	if !ok {
		return
	}
	game, _, ok := s.loadGame(w, r, quiz)
	if !ok {
		return
	}
	writeJSON(w, game.Results(quiz))
}

func (s *Server) handleResultsPDF(w http.ResponseWriter, r *http.Request) {
	quiz, _, ok := s.loadQuiz(w, r)
	if !ok {
		return
	}
	game, _, ok := s.loadGame(w, r, quiz)
	if !ok {
		return
	}
	pdf, err := docquiz.ResultsPDF(game.Results(quiz), time.Now())
	if err != nil {
		log.Printf("Failed to render results for %s: %v", quiz.ID, err)
		http.Error(w, "Failed to render report", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="quiz-%s.pdf"`, quiz.ID))
	w.Write(pdf)
}

func (s *Server) loadQuiz(w http.ResponseWriter, r *http.Request) (*docquiz.Quiz, *docquiz.Structure, bool) {
	quiz, st, err := s.db.GetQuiz(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, docquiz.ErrQuizNotFound) {
			http.NotFound(w, r)
		} else {
			log.Printf("Failed to get quiz: %v", err)
			http.Error(w, "Failed to get quiz", http.StatusInternalServerError)
		}
		return nil, nil, false
	}
	return quiz, st, true
}

// loadGame returns the player's session for quiz. A missing or foreign session is a 409:
// the client has to POST /start first.
func (s *Server) loadGame(w http.ResponseWriter, r *http.Request, quiz *docquiz.Quiz) (*docquiz.Session, *sessions.Session, bool) {
	session, _ := s.store.Get(r, sessionName)
	game, ok := session.Values["game"].(docquiz.Session)
	if !ok || game.QuizID != quiz.ID {
		http.Error(w, "Quiz not started", http.StatusConflict)
		return nil, nil, false
	}
	return &game, session, true
}

// statusFor maps generation errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, docquiz.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case docquiz.IsFatal(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
