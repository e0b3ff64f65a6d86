package docquiz

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the tunables of the extraction and generation pipeline.
type Config struct {
	QuestionsTotal int
	Categories     []string
	Choices        int // options per question, k

	// TOC location heuristics, counted in pages.
	TOCMarkerPages   int
	TOCScanPages     int
	TOCFallbackPages int

	// Flowed formats are cut into synthetic pages of this many lines for the TOC heuristics.
	FlowLinesPerPage int

	MinParagraphLength int
	PassageMaxLength   int

	Retry RetryPolicy

	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string

	DBDriver string
	DBDSN    string

	HTTPAddr    string
	SessionKey  string
	CORSOrigins []string

	Verbose bool
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		QuestionsTotal:     10,
		Categories:         append([]string(nil), StructuralCategories...),
		Choices:            4,
		TOCMarkerPages:     8,
		TOCScanPages:       6,
		TOCFallbackPages:   12,
		FlowLinesPerPage:   40,
		MinParagraphLength: 30,
		PassageMaxLength:   300,
		Retry:              DefaultRetryPolicy(),
		OpenAIModel:        "gpt-4o",
		DBDriver:           "sqlite3",
		DBDSN:              "./quiz.db",
		HTTPAddr:           ":8180",
		CORSOrigins:        []string{"http://localhost:5173"},
	}
}

// FromEnv overlays environment variables on DefaultConfig.
func FromEnv() Config {
	cfg := DefaultConfig()
	cfg.QuestionsTotal = envInt("DOCQUIZ_QUESTIONS", cfg.QuestionsTotal)
	if cats := ParseCategories(os.Getenv("DOCQUIZ_CATEGORIES")); len(cats) > 0 {
		cfg.Categories = cats
	}
	cfg.Choices = envInt("DOCQUIZ_CHOICES", cfg.Choices)
	cfg.Retry.MaxAttempts = envInt("DOCQUIZ_RETRIES", cfg.Retry.MaxAttempts)
	if d, err := time.ParseDuration(os.Getenv("DOCQUIZ_RETRY_DELAY")); err == nil {
		cfg.Retry.Delay = d
	}
	cfg.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAIModel = envOr("OPENAI_MODEL", cfg.OpenAIModel)
	cfg.OpenAIBaseURL = os.Getenv("OPENAI_BASE_URL")
	cfg.DBDriver = envOr("DB_DRIVER", cfg.DBDriver)
	cfg.DBDSN = envOr("DB_DSN", cfg.DBDSN)
	cfg.HTTPAddr = envOr("HTTP_ADDR", cfg.HTTPAddr)
	cfg.SessionKey = envOr("SESSION_KEY", "docquiz-dev-session-key")
	cfg.CORSOrigins = csvOr("CORS_ORIGINS", strings.Join(cfg.CORSOrigins, ","))
	cfg.Verbose = envBool("DOCQUIZ_VERBOSE", false)
	return cfg
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	n, err := strconv.Atoi(os.Getenv(k))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
