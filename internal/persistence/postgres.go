package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // Postgres driver

	"blogforge/internal/core"
)

// PostgresDB bundles the repositories over one connection pool.
type PostgresDB struct {
	db       *sql.DB
	posts    BlogPostRepository
	keywords KeywordRepository
}

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(connectionString string) (*PostgresDB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresDB{
		db:       db,
		posts:    NewBlogPostRepository(db),
		keywords: NewKeywordRepository(db),
	}, nil
}

// Posts returns the blog post repository.
func (p *PostgresDB) Posts() BlogPostRepository { return p.posts }

// Keywords returns the keyword queue repository.
func (p *PostgresDB) Keywords() KeywordRepository { return p.keywords }

// Close closes the underlying connection pool.
func (p *PostgresDB) Close() error { return p.db.Close() }

// Migrate creates the tables if they do not exist.
func (p *PostgresDB) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS blog_posts (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			slug TEXT NOT NULL,
			meta_title TEXT,
			meta_description TEXT,
			excerpt TEXT,
			content TEXT,
			faq TEXT,
			tags TEXT,
			reading_time_minutes INTEGER,
			primary_keyword TEXT,
			category TEXT,
			quality_score INTEGER,
			status TEXT NOT NULL,
			scheduled_for TIMESTAMPTZ,
			model_used TEXT,
			date_generated TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS blog_keywords (
			id TEXT PRIMARY KEY,
			keyword TEXT NOT NULL,
			secondary_keywords TEXT,
			target_audience TEXT,
			service_category TEXT,
			priority INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'pending',
			last_error TEXT,
			date_added TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}

type postgresBlogPostRepo struct {
	db *sql.DB
}

// NewBlogPostRepository creates a BlogPostRepository over an existing pool.
func NewBlogPostRepository(db *sql.DB) BlogPostRepository {
	return &postgresBlogPostRepo{db: db}
}

func (r *postgresBlogPostRepo) Create(ctx context.Context, record *core.BlogPostRecord) (string, error) {
	id := record.ID
	if id == "" {
		id = uuid.NewString()
	}

	faqJSON, err := json.Marshal(record.FAQ)
	if err != nil {
		return "", fmt.Errorf("failed to marshal faq: %w", err)
	}
	tagsJSON, err := json.Marshal(record.Tags)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tags: %w", err)
	}

	query := `
	INSERT INTO blog_posts
	(id, title, slug, meta_title, meta_description, excerpt, content, faq, tags,
	 reading_time_minutes, primary_keyword, category, quality_score, status,
	 scheduled_for, model_used, date_generated)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	RETURNING id`

	var returnedID string
	err = r.db.QueryRowContext(ctx, query,
		id,
		record.Title,
		record.Slug,
		record.MetaTitle,
		record.MetaDescription,
		record.Excerpt,
		record.Content,
		string(faqJSON),
		string(tagsJSON),
		record.ReadingTimeMinutes,
		record.PrimaryKeyword,
		record.Category,
		record.QualityScore,
		record.Status,
		record.ScheduledFor,
		record.ModelUsed,
		record.DateGenerated,
	).Scan(&returnedID)
	if err != nil {
		return "", fmt.Errorf("failed to insert blog post: %w", err)
	}

	record.ID = returnedID
	return returnedID, nil
}

type postgresKeywordRepo struct {
	db *sql.DB
}

// NewKeywordRepository creates a KeywordRepository over an existing pool.
func NewKeywordRepository(db *sql.DB) KeywordRepository {
	return &postgresKeywordRepo{db: db}
}

func (r *postgresKeywordRepo) Enqueue(ctx context.Context, record *core.KeywordRecord) (string, error) {
	id := record.ID
	if id == "" {
		id = uuid.NewString()
	}
	if record.DateAdded.IsZero() {
		record.DateAdded = time.Now().UTC()
	}

	secondaryJSON, err := json.Marshal(record.SecondaryKeywords)
	if err != nil {
		return "", fmt.Errorf("failed to marshal secondary keywords: %w", err)
	}

	query := `
	INSERT INTO blog_keywords
	(id, keyword, secondary_keywords, target_audience, service_category, priority, status, date_added)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id`

	var returnedID string
	err = r.db.QueryRowContext(ctx, query,
		id,
		record.Keyword,
		string(secondaryJSON),
		record.TargetAudience,
		record.ServiceCategory,
		record.Priority,
		core.KeywordStatusPending,
		record.DateAdded,
	).Scan(&returnedID)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue keyword: %w", err)
	}

	record.ID = returnedID
	record.Status = core.KeywordStatusPending
	return returnedID, nil
}

func (r *postgresKeywordRepo) NextPending(ctx context.Context) (*core.KeywordRecord, error) {
	query := `
	SELECT id, keyword, secondary_keywords, target_audience, service_category, priority, status, date_added
	FROM blog_keywords
	WHERE status IN ('pending', 'failed')
	ORDER BY priority DESC, date_added ASC
	LIMIT 1`

	row := r.db.QueryRowContext(ctx, query)

	var record core.KeywordRecord
	var secondaryJSON string
	err := row.Scan(
		&record.ID,
		&record.Keyword,
		&secondaryJSON,
		&record.TargetAudience,
		&record.ServiceCategory,
		&record.Priority,
		&record.Status,
		&record.DateAdded,
	)
	if err == sql.ErrNoRows {
		return nil, nil // queue empty
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan keyword: %w", err)
	}

	if err := json.Unmarshal([]byte(secondaryJSON), &record.SecondaryKeywords); err != nil {
		record.SecondaryKeywords = nil
	}
	return &record, nil
}

func (r *postgresKeywordRepo) MarkGenerating(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, core.KeywordStatusGenerating, "")
}

func (r *postgresKeywordRepo) MarkUsed(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, core.KeywordStatusUsed, "")
}

func (r *postgresKeywordRepo) MarkFailed(ctx context.Context, id string, reason string) error {
	return r.setStatus(ctx, id, core.KeywordStatusFailed, reason)
}

func (r *postgresKeywordRepo) setStatus(ctx context.Context, id string, status core.KeywordStatus, lastError string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE blog_keywords SET status = $1, last_error = $2 WHERE id = $3`,
		status, lastError, id)
	if err != nil {
		return fmt.Errorf("failed to update keyword status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("keyword %s not found", id)
	}
	return nil
}
