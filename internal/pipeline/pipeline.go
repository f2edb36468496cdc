// Package pipeline orchestrates one blog-generation run: claim a keyword,
// generate and parse the article, resolve illustrations, score, persist,
// and transition the keyword record.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"blogforge/internal/core"
	"blogforge/internal/images"
	"blogforge/internal/logger"
	"blogforge/internal/parse"
	"blogforge/internal/persistence"
	"blogforge/internal/prompt"
	"blogforge/internal/retry"
	"blogforge/internal/score"
	"blogforge/internal/textgen"
)

// ErrQueueEmpty is returned when no pending keyword record exists.
var ErrQueueEmpty = errors.New("keyword queue is empty")

// TextGenerator produces raw article text for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, opts textgen.Options) (string, error)
}

// SlotResolver resolves image slots to durable URLs.
type SlotResolver interface {
	ResolveSlots(ctx context.Context, slots []core.ImageSlot) []core.ImageSlot
}

// Config tunes one Runner.
type Config struct {
	Model            string
	MaxTokens        int
	Temperature      float64
	MaxAttempts      int           // total text-generation attempts, including the first
	RetryBaseDelay   time.Duration // first backoff delay, doubled per attempt
	PublishThreshold int           // minimum score for automatic scheduling
	ImageSlots       int           // illustration slots per post
	ScheduleDelay    time.Duration // how far in the future scheduled posts are dated
}

// DefaultConfig returns the standard pipeline tuning.
func DefaultConfig() Config {
	return Config{
		MaxTokens:        8192,
		Temperature:      0.7,
		MaxAttempts:      3,
		RetryBaseDelay:   time.Second,
		PublishThreshold: 50,
		ImageSlots:       5,
		ScheduleDelay:    24 * time.Hour,
	}
}

// Runner executes generation runs. One logical run per invocation; no state
// is shared across runs.
type Runner struct {
	textGen  TextGenerator
	resolver SlotResolver
	posts    persistence.BlogPostRepository
	keywords persistence.KeywordRepository
	cfg      Config
	now      func() time.Time
}

// NewRunner wires a pipeline together.
func NewRunner(textGen TextGenerator, resolver SlotResolver, posts persistence.BlogPostRepository, keywords persistence.KeywordRepository, cfg Config) *Runner {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Runner{
		textGen:  textGen,
		resolver: resolver,
		posts:    posts,
		keywords: keywords,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Run consumes one keyword record and produces one persisted blog post.
// Generation failure after retries and persistence failure both abort the
// run and mark the keyword failed; a degraded parse or missing images do
// not.
func (r *Runner) Run(ctx context.Context) (*core.BlogPostRecord, error) {
	keyword, err := r.keywords.NextPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read keyword queue: %w", err)
	}
	if keyword == nil {
		return nil, ErrQueueEmpty
	}

	if err := r.keywords.MarkGenerating(ctx, keyword.ID); err != nil {
		return nil, fmt.Errorf("failed to claim keyword %s: %w", keyword.ID, err)
	}

	logger.Info("starting generation run", "keyword", keyword.Keyword, "keyword_id", keyword.ID)

	record, err := r.generate(ctx, keyword)
	if err != nil {
		if markErr := r.keywords.MarkFailed(ctx, keyword.ID, err.Error()); markErr != nil {
			logger.Error("failed to mark keyword failed", markErr, "keyword_id", keyword.ID)
		}
		return nil, err
	}

	if err := r.keywords.MarkUsed(ctx, keyword.ID); err != nil {
		logger.Error("failed to mark keyword used", err, "keyword_id", keyword.ID)
	}

	logger.Info("generation run complete",
		"post_id", record.ID,
		"status", string(record.Status),
		"score", record.QualityScore)
	return record, nil
}

// generate runs the content pipeline for one claimed keyword.
func (r *Runner) generate(ctx context.Context, keyword *core.KeywordRecord) (*core.BlogPostRecord, error) {
	req := requestFromKeyword(keyword)
	articlePrompt := prompt.BuildArticlePrompt(req)

	opts := textgen.Options{
		Model:       r.cfg.Model,
		MaxTokens:   r.cfg.MaxTokens,
		Temperature: r.cfg.Temperature,
	}

	raw, err := retry.Do(ctx, r.cfg.MaxAttempts, r.cfg.RetryBaseDelay, func() (string, error) {
		return r.textGen.Generate(ctx, articlePrompt, opts)
	})
	if err != nil {
		return nil, fmt.Errorf("text generation failed after %d attempts: %w", r.cfg.MaxAttempts, err)
	}

	doc := parse.Document(raw)
	applyFallbacks(doc)

	slots := images.BuildSlots(req, doc.ImageDescriptions, r.cfg.ImageSlots)
	resolved := r.resolver.ResolveSlots(ctx, slots)
	doc.Content = images.SubstitutePlaceholders(doc.Content, resolved)

	report := score.Evaluate(doc, req.PrimaryKeyword)
	if len(report.Issues) > 0 {
		logger.Debug("quality issues", "score", report.Score, "issues", strings.Join(report.Issues, "; "))
	}

	record := r.assembleRecord(doc, keyword, report)
	if _, err := r.posts.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist blog post: %w", err)
	}
	return record, nil
}

func requestFromKeyword(keyword *core.KeywordRecord) core.GenerationRequest {
	return core.GenerationRequest{
		PrimaryKeyword:    keyword.Keyword,
		SecondaryKeywords: keyword.SecondaryKeywords,
		TargetAudience:    keyword.TargetAudience,
		ServiceCategory:   keyword.ServiceCategory,
		Category:          string(keyword.ServiceCategory),
	}
}

// readingSpeed is the assumed reading pace in words per minute.
const readingSpeed = 200

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// applyFallbacks fills fields the model omitted with values derived from the
// ones it produced. A missing or parser-defaulted reading time is re-estimated
// from the body when one exists.
func applyFallbacks(doc *core.GeneratedDocument) {
	if doc.MetaTitle == "" {
		doc.MetaTitle = doc.Title
	}
	if doc.MetaDescription == "" {
		doc.MetaDescription = doc.Excerpt
	}
	if doc.ReadingTimeMinutes <= 0 || doc.ReadingTimeMinutes == parse.DefaultReadingTime {
		if est := estimateReadingTime(doc.Content); est > 0 {
			doc.ReadingTimeMinutes = est
		} else if doc.ReadingTimeMinutes <= 0 {
			doc.ReadingTimeMinutes = parse.DefaultReadingTime
		}
	}
}

// estimateReadingTime counts words in the body with markup stripped and
// divides by the reading pace, with a one minute floor. Returns 0 for an
// empty body.
func estimateReadingTime(content string) int {
	text := htmlTagPattern.ReplaceAllString(content, " ")
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	minutes := words / readingSpeed
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

func (r *Runner) assembleRecord(doc *core.GeneratedDocument, keyword *core.KeywordRecord, report core.QualityReport) *core.BlogPostRecord {
	now := r.now().UTC()

	record := &core.BlogPostRecord{
		Title:              doc.Title,
		Slug:               core.Slugify(doc.Title),
		MetaTitle:          doc.MetaTitle,
		MetaDescription:    doc.MetaDescription,
		Excerpt:            doc.Excerpt,
		Content:            doc.Content,
		FAQ:                doc.FAQ,
		Tags:               doc.Tags,
		ReadingTimeMinutes: doc.ReadingTimeMinutes,
		PrimaryKeyword:     keyword.Keyword,
		Category:           string(keyword.ServiceCategory),
		QualityScore:       report.Score,
		Status:             core.PostStatusDraft,
		ModelUsed:          r.cfg.Model,
		DateGenerated:      now,
	}

	if report.Score >= r.cfg.PublishThreshold {
		record.Status = core.PostStatusScheduled
		scheduledFor := now.Add(r.cfg.ScheduleDelay)
		record.ScheduledFor = &scheduledFor
	}
	return record
}
