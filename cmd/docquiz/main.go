package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docquiz"
)

func main() {
	var (
		inputFile      = flag.String("input", "", "Document to build the quiz from (pdf, docx, epub, html, txt)")
		format         = flag.String("format", "", "Document format (default: detected from the file extension)")
		numQuestions   = flag.Int("questions", 0, "Number of questions to generate (default from DOCQUIZ_QUESTIONS or 10)")
		categories     = flag.String("categories", "", "Comma separated categories, e.g. kapitel_seite,abbildung,fachwissen")
		seed           = flag.Int64("seed", 0, "Random seed for reproducible quizzes (0: time based)")
		seedCategories = flag.Bool("seed-categories", false, "Try every category once before drawing at random")
		outputFile     = flag.String("output", "", "Output file for quiz JSON (default: stdout)")
		loadFile       = flag.String("load", "", "Load a quiz saved with -output instead of generating one")
		playMode       = flag.Bool("play", false, "Play the quiz interactively")
		reportFile     = flag.String("report", "", "Write a PDF results report after playing")
		showStructure  = flag.Bool("structure", false, "Print the recovered TOC and element catalog")
		dbDSN          = flag.String("db", "", "Also store the quiz in this database (sqlite file or postgres DSN)")
		apiKey         = flag.String("api-key", "", "OpenAI API key for content categories (or set OPENAI_API_KEY env var)")
		verbose        = flag.Bool("verbose", false, "Enable verbose debugging output")
	)

	flag.Parse()

	cfg := docquiz.FromEnv()
	if *apiKey != "" {
		cfg.OpenAIKey = *apiKey
	}
	if *verbose {
		cfg.Verbose = true
	}
	docquiz.SetVerbose(cfg.Verbose)

	var (
		quiz *docquiz.Quiz
		st   *docquiz.Structure
	)
	switch {
	case *loadFile != "":
		qf, err := docquiz.LoadQuizFile(*loadFile, cfg.Choices)
		if err != nil {
			log.Fatalf("Failed to load quiz: %v", err)
		}
		quiz, st = qf.Quiz, qf.Structure
		log.Printf("Loaded %d questions from %s", len(quiz.Questions), *loadFile)
	case *inputFile != "":
		var err error
		quiz, st, err = generate(cfg, *inputFile, *format, *numQuestions, *categories, *seed, *seedCategories)
		if err != nil {
			log.Printf("Failed to generate quiz: %v", err)
			os.Exit(exitCode(err))
		}
	default:
		log.Fatalf("Either -input or -load is required. Supported formats: %s",
			strings.Join(docquiz.SupportedFormats(), "; "))
	}

	if *showStructure && st != nil {
		printStructure(st)
	}

	if *dbDSN != "" {
		if err := store(cfg, *dbDSN, quiz, st); err != nil {
			log.Fatalf("Failed to store quiz: %v", err)
		}
	}

	if *playMode {
		results, err := playQuiz(quiz)
		if err != nil {
			log.Fatalf("Failed to run quiz: %v", err)
		}
		if *reportFile != "" {
			if err := writeReport(*reportFile, results); err != nil {
				log.Fatalf("Failed to write report: %v", err)
			}
			log.Printf("Report saved to: %s", *reportFile)
		}
		if *outputFile == "" {
			return
		}
	}

	if *outputFile != "" {
		if err := docquiz.SaveQuizFile(*outputFile, quiz, st); err != nil {
			log.Fatalf("Failed to save quiz: %v", err)
		}
		log.Printf("Quiz saved to: %s", *outputFile)
		return
	}

	output, err := json.MarshalIndent(quiz, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal quiz: %v", err)
	}
	fmt.Println(string(output))
}

func generate(cfg docquiz.Config, path, format string, n int, categories string, seed int64, seedCategories bool) (*docquiz.Quiz, *docquiz.Structure, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	f := docquiz.Format(strings.ToLower(format))
	if f == "" {
		if f, err = docquiz.DetectFormat(path); err != nil {
			return nil, nil, err
		}
	}

	req := docquiz.GenerationRequest{
		Source:         filepath.Base(path),
		Format:         f,
		NumQuestions:   n,
		Categories:     docquiz.ParseCategories(categories),
		SeedCategories: seedCategories,
	}

	var rng docquiz.Rand
	if seed != 0 {
		rng = rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	}

	generator := docquiz.NewQuizGenerator(cfg)
	generator.SetLogDir(".")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	quiz, st, err := generator.GenerateQuiz(ctx, data, req, rng)
	if err != nil {
		return nil, st, err
	}
	if quiz.Incomplete {
		log.Printf("Warning: only %d of %d questions could be generated", len(quiz.Questions), quiz.Requested)
	}
	return quiz, st, nil
}

// exitCode separates unusable documents (2) from other failures (1).
func exitCode(err error) int {
	if docquiz.IsFatal(err) || errors.Is(err, docquiz.ErrUnsupportedFormat) {
		return 2
	}
	return 1
}

func store(cfg docquiz.Config, dsn string, quiz *docquiz.Quiz, st *docquiz.Structure) error {
	driver := cfg.DBDriver
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver = "pgx"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := docquiz.OpenDB(ctx, driver, dsn)
	if err != nil {
		return err
	}
	defer db.CloseDB()

	if st == nil {
		st = &docquiz.Structure{}
	}
	if err := db.SaveQuiz(ctx, quiz, st); err != nil {
		return err
	}
	log.Printf("Quiz %s stored in %s", quiz.ID, dsn)
	return nil
}

func printStructure(st *docquiz.Structure) {
	fmt.Printf("Inhaltsverzeichnis (%d Einträge, Seitenversatz %d):\n", len(st.TOC), st.PageOffset)
	for _, c := range st.TOC {
		indent := strings.Repeat("  ", c.Level())
		fmt.Printf("  %s%s ... %d\n", indent, c.Heading(), c.Page)
	}
	fmt.Printf("\nElemente (%d):\n", len(st.Elements))
	for _, e := range st.Elements {
		page := "-"
		if e.Page > 0 {
			page = fmt.Sprint(e.Page)
		}
		fmt.Printf("  %-14s %-60s S. %s\n", e.Name(), e.Title, page)
	}
	fmt.Println()
}

func writeReport(path string, results docquiz.Results) error {
	pdf, err := docquiz.ResultsPDF(results, time.Now())
	if err != nil {
		return err
	}
	return os.WriteFile(path, pdf, 0644)
}
