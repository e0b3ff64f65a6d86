package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"docquiz"

	"github.com/gorilla/sessions"
)

func main() {
	cfg := docquiz.FromEnv()
	docquiz.SetVerbose(cfg.Verbose)

	if cfg.OpenAIKey == "" {
		log.Printf("OPENAI_API_KEY not set, content categories are disabled")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := docquiz.OpenDB(ctx, cfg.DBDriver, cfg.DBDSN)
	cancel()
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.CloseDB()

	store := sessions.NewCookieStore([]byte(cfg.SessionKey))
	store.Options = &sessions.Options{Path: "/", MaxAge: 86400 * 7, HttpOnly: true, SameSite: http.SameSiteLaxMode}

	server := NewServer(db, docquiz.NewQuizGenerator(cfg), store)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Routes(cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("Starting server on %s", cfg.HTTPAddr)
	log.Fatal(srv.ListenAndServe())
}
