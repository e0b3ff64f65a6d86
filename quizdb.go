package docquiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "github.com/mattn/go-sqlite3"
)

// ErrQuizNotFound is returned when a quiz ID is unknown to the database.
var ErrQuizNotFound = errors.New("quiz not found")

// DB represents a quiz database connection
type DB struct {
	db       *sql.DB
	postgres bool
}

// DBQuiz is the summary row of a stored quiz
type DBQuiz struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	NumQuestions int       `json:"num_questions"`
	Requested    int       `json:"requested"`
	Incomplete   bool      `json:"incomplete"`
	CreatedAt    time.Time `json:"created_at"`
}

// OpenDB opens the database for driver ("sqlite3" or "postgres"/"pgx") and creates the
// tables if they don't exist.
func OpenDB(ctx context.Context, driver, dsn string) (*DB, error) {
	var drvName string
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite", "sqlite3":
		drvName = "sqlite3"
		if dsn == "" {
			dsn = "./quiz.db"
		}
	case "postgres", "pg", "pgx":
		drvName = "pgx"
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	sqlDB, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{db: sqlDB, postgres: drvName == "pgx"}
	if err := db.CreateTables(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// CloseDB closes the database connection
func (db *DB) CloseDB() error {
	return db.db.Close()
}

// CreateTables creates the necessary tables if they don't exist
func (db *DB) CreateTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS quizzes (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			requested INTEGER NOT NULL,
			attempts INTEGER NOT NULL,
			incomplete INTEGER NOT NULL DEFAULT 0,
			structure_json TEXT NOT NULL,
			created_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS questions (
			quiz_id TEXT NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
			question_num INTEGER NOT NULL,
			question TEXT NOT NULL,
			choices_json TEXT NOT NULL,
			answer TEXT NOT NULL,
			category TEXT NOT NULL,
			PRIMARY KEY (quiz_id, question_num)
		)`,
	}
	for _, query := range queries {
		if _, err := db.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute %s: %w", query, err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (db *DB) rebind(query string) string {
	if !db.postgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// SaveQuiz stores a quiz with its questions and the structure it was built from.
func (db *DB) SaveQuiz(ctx context.Context, quiz *Quiz, st *Structure) error {
	structureJSON, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal structure: %w", err)
	}

	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	incomplete := 0
	if quiz.Incomplete {
		incomplete = 1
	}
	_, err = tx.ExecContext(ctx,
		db.rebind("INSERT INTO quizzes (id, source, requested, attempts, incomplete, structure_json, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)"),
		quiz.ID, quiz.Source, quiz.Requested, quiz.Attempts, incomplete, string(structureJSON), quiz.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create quiz: %w", err)
	}

	for i, q := range quiz.Questions {
		choicesJSON, err := ChoicesToJSON(q.Choices)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			db.rebind("INSERT INTO questions (quiz_id, question_num, question, choices_json, answer, category) VALUES (?, ?, ?, ?, ?, ?)"),
			quiz.ID, i+1, q.Question, choicesJSON, q.Answer, q.Category,
		)
		if err != nil {
			return fmt.Errorf("failed to create question %d: %w", i+1, err)
		}
	}
	return tx.Commit()
}

// GetQuiz loads a quiz and its structure by ID.
func (db *DB) GetQuiz(ctx context.Context, id string) (*Quiz, *Structure, error) {
	var (
		quiz          Quiz
		incomplete    int
		structureJSON string
		createdAt     int64
	)
	err := db.db.QueryRowContext(ctx,
		db.rebind("SELECT id, source, requested, attempts, incomplete, structure_json, created_at FROM quizzes WHERE id = ?"),
		id,
	).Scan(&quiz.ID, &quiz.Source, &quiz.Requested, &quiz.Attempts, &incomplete, &structureJSON, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, fmt.Errorf("%w: %s", ErrQuizNotFound, id)
		}
		return nil, nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	quiz.Incomplete = incomplete != 0
	quiz.CreatedAt = time.Unix(createdAt, 0)

	var st Structure
	if err := json.Unmarshal([]byte(structureJSON), &st); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal structure: %w", err)
	}

	quiz.Questions, err = db.GetQuestions(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return &quiz, &st, nil
}

// GetQuestions retrieves all questions for a quiz in presentation order
func (db *DB) GetQuestions(ctx context.Context, quizID string) ([]QuestionRecord, error) {
	rows, err := db.db.QueryContext(ctx,
		db.rebind("SELECT question, choices_json, answer, category FROM questions WHERE quiz_id = ? ORDER BY question_num"),
		quizID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	defer rows.Close()

	var questions []QuestionRecord
	for rows.Next() {
		var q QuestionRecord
		var choicesJSON string
		if err := rows.Scan(&q.Question, &choicesJSON, &q.Answer, &q.Category); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		if q.Choices, err = JSONToChoices(choicesJSON); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating questions: %w", err)
	}
	return questions, nil
}

// GetQuizzes retrieves all quizzes newest first, optionally limited by count
func (db *DB) GetQuizzes(ctx context.Context, limit int) ([]DBQuiz, error) {
	query := `SELECT q.id, q.source, q.requested, q.incomplete, q.created_at,
		(SELECT COUNT(*) FROM questions WHERE quiz_id = q.id)
		FROM quizzes q ORDER BY q.created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get quizzes: %w", err)
	}
	defer rows.Close()

	var quizzes []DBQuiz
	for rows.Next() {
		var (
			quiz       DBQuiz
			incomplete int
			createdAt  int64
		)
		if err := rows.Scan(&quiz.ID, &quiz.Source, &quiz.Requested, &incomplete, &createdAt, &quiz.NumQuestions); err != nil {
			return nil, fmt.Errorf("failed to scan quiz: %w", err)
		}
		quiz.Incomplete = incomplete != 0
		quiz.CreatedAt = time.Unix(createdAt, 0)
		quizzes = append(quizzes, quiz)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quizzes: %w", err)
	}
	return quizzes, nil
}

// ChoicesToJSON converts a choices slice to a JSON string
func ChoicesToJSON(choices []string) (string, error) {
	data, err := json.Marshal(choices)
	if err != nil {
		return "", fmt.Errorf("failed to marshal choices: %w", err)
	}
	return string(data), nil
}

// JSONToChoices converts a JSON string to a choices slice
func JSONToChoices(choicesJSON string) ([]string, error) {
	var choices []string
	if err := json.Unmarshal([]byte(choicesJSON), &choices); err != nil {
		return nil, fmt.Errorf("failed to unmarshal choices: %w", err)
	}
	return choices, nil
}
