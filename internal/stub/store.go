// Package stub is a self-contained local backend for development: the
// paper CRUD API and the static view fragments, backed by SQLite. It
// speaks the same wire surface the production backend does.
package stub

import (
	"database/sql"
	"fmt"

	"paperbank/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS papers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		subject TEXT NOT NULL DEFAULT '',
		exam_year INTEGER NOT NULL DEFAULT 0,
		upload_date TEXT NOT NULL DEFAULT '',
		total_questions INTEGER NOT NULL DEFAULT 0,
		total_marks INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		paper_id INTEGER NOT NULL,
		question TEXT NOT NULL,
		marks INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (paper_id) REFERENCES papers(id)
	);

	CREATE INDEX IF NOT EXISTS idx_papers_user ON papers(user_id);
	CREATE INDEX IF NOT EXISTS idx_questions_paper ON questions(paper_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// InsertPaper stores a submission and its questions in one transaction.
// The stored totals are recomputed from the question rows, not trusted
// from the submission.
func (s *Store) InsertPaper(sub model.PaperSubmission) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	totalMarks := 0
	for _, q := range sub.Questions {
		totalMarks += q.Marks
	}

	res, err := tx.Exec(
		`INSERT INTO papers (user_id, title, subject, exam_year, upload_date, total_questions, total_marks)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sub.UserID, sub.Title, sub.Subject, sub.ExamYear, sub.UploadDate, len(sub.Questions), totalMarks,
	)
	if err != nil {
		return 0, err
	}
	paperID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, q := range sub.Questions {
		if _, err := tx.Exec(
			`INSERT INTO questions (paper_id, question, marks) VALUES (?, ?, ?)`,
			paperID, q.Question, q.Marks,
		); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return paperID, nil
}

// ListPapers returns all papers for a user, most recent first.
func (s *Store) ListPapers(userID string) ([]model.QuestionPaper, error) {
	rows, err := s.db.Query(
		`SELECT id, title, subject, exam_year, upload_date, total_questions, total_marks
		 FROM papers WHERE user_id = ? ORDER BY id DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	papers := []model.QuestionPaper{}
	for rows.Next() {
		var p model.QuestionPaper
		if err := rows.Scan(&p.ID, &p.Title, &p.Subject, &p.ExamYear, &p.UploadDate, &p.TotalQuestions, &p.TotalMarks); err != nil {
			return nil, err
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// QuestionsForPaper returns a paper's questions in insertion order.
func (s *Store) QuestionsForPaper(paperID int64) ([]model.Question, error) {
	rows, err := s.db.Query(
		`SELECT question, marks FROM questions WHERE paper_id = ? ORDER BY id`, paperID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	questions := []model.Question{}
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.Question, &q.Marks); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
