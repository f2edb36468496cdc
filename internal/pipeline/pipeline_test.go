package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"blogforge/internal/core"
	"blogforge/internal/textgen"
)

// stubTextGen returns a canned response, or fails every call.
type stubTextGen struct {
	response string
	err      error
	calls    int
}

func (s *stubTextGen) Generate(ctx context.Context, prompt string, opts textgen.Options) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

// stubResolver resolves only the listed positions.
type stubResolver struct {
	resolve map[int]string
}

func (s *stubResolver) ResolveSlots(ctx context.Context, slots []core.ImageSlot) []core.ImageSlot {
	out := make([]core.ImageSlot, len(slots))
	copy(out, slots)
	for i := range out {
		if url, ok := s.resolve[out[i].Position]; ok {
			out[i].ResolvedURL = url
		}
	}
	return out
}

// memPostRepo records inserts.
type memPostRepo struct {
	created []*core.BlogPostRecord
	err     error
}

func (m *memPostRepo) Create(ctx context.Context, record *core.BlogPostRecord) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	record.ID = "post-1"
	m.created = append(m.created, record)
	return record.ID, nil
}

// memKeywordRepo is an in-memory single-record queue.
type memKeywordRepo struct {
	record   *core.KeywordRecord
	statuses []core.KeywordStatus
	lastErr  string
}

func (m *memKeywordRepo) Enqueue(ctx context.Context, record *core.KeywordRecord) (string, error) {
	m.record = record
	return "kw-1", nil
}

func (m *memKeywordRepo) NextPending(ctx context.Context) (*core.KeywordRecord, error) {
	if m.record == nil {
		return nil, nil
	}
	return m.record, nil
}

func (m *memKeywordRepo) MarkGenerating(ctx context.Context, id string) error {
	m.statuses = append(m.statuses, core.KeywordStatusGenerating)
	return nil
}

func (m *memKeywordRepo) MarkUsed(ctx context.Context, id string) error {
	m.statuses = append(m.statuses, core.KeywordStatusUsed)
	return nil
}

func (m *memKeywordRepo) MarkFailed(ctx context.Context, id string, reason string) error {
	m.statuses = append(m.statuses, core.KeywordStatusFailed)
	m.lastErr = reason
	return nil
}

func (m *memKeywordRepo) finalStatus() core.KeywordStatus {
	if len(m.statuses) == 0 {
		return ""
	}
	return m.statuses[len(m.statuses)-1]
}

func testKeyword() *core.KeywordRecord {
	return &core.KeywordRecord{
		ID:                "kw-1",
		Keyword:           "홈페이지 제작 비용",
		SecondaryKeywords: []string{"웹사이트 제작"},
		TargetAudience:    "사업주",
		ServiceCategory:   core.ServiceHomepage,
		Status:            core.KeywordStatusPending,
	}
}

func minimalResponse(t *testing.T) string {
	t.Helper()
	doc := core.GeneratedDocument{
		Title:           "홈페이지 제작 비용, 얼마가 적정할까?",
		MetaDescription: strings.Repeat("홈페이지 제작 비용 안내. ", 5),
		Excerpt:         "홈페이지 제작 비용 기준을 정리했습니다.",
		Content: `<h2>개요</h2><img src="IMAGE_PLACEHOLDER_1" alt=""><p>본문</p>` +
			`<img src="IMAGE_PLACEHOLDER_2" alt=""><h2>비교</h2><img src="IMAGE_PLACEHOLDER_3" alt="">` +
			`<img src="IMAGE_PLACEHOLDER_4" alt=""><h2>정리</h2><img src="IMAGE_PLACEHOLDER_5" alt="">`,
		FAQ: []core.FAQItem{
			{Question: "q1", Answer: "a1"}, {Question: "q2", Answer: "a2"},
			{Question: "q3", Answer: "a3"}, {Question: "q4", Answer: "a4"},
			{Question: "q5", Answer: "a5"},
		},
		Tags:               []string{"홈페이지", "비용", "제작"},
		ReadingTimeMinutes: 6,
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("failed to marshal response fixture: %v", err)
	}
	return string(raw)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryBaseDelay = time.Millisecond
	cfg.Model = "test-model"
	return cfg
}

func TestRun_EndToEnd(t *testing.T) {
	gen := &stubTextGen{response: minimalResponse(t)}
	resolver := &stubResolver{resolve: map[int]string{
		1: "https://storage.example.com/one.png",
		3: "https://storage.example.com/three.png",
	}}
	posts := &memPostRepo{}
	keywords := &memKeywordRepo{record: testKeyword()}

	runner := NewRunner(gen, resolver, posts, keywords, testConfig())
	record, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if strings.Contains(record.Content, "IMAGE_PLACEHOLDER_") {
		t.Errorf("content still contains placeholders: %q", record.Content)
	}
	if imgs := strings.Count(record.Content, "<img"); imgs != 2 {
		t.Errorf("content has %d img tags, want exactly 2", imgs)
	}

	wantScheduled := record.QualityScore >= testConfig().PublishThreshold
	if (record.Status == core.PostStatusScheduled) != wantScheduled {
		t.Errorf("Status = %q with score %d and threshold %d",
			record.Status, record.QualityScore, testConfig().PublishThreshold)
	}
	if record.Status == core.PostStatusScheduled && record.ScheduledFor == nil {
		t.Error("scheduled post must carry a scheduled_for timestamp")
	}
	if record.Status == core.PostStatusDraft && record.ScheduledFor != nil {
		t.Error("draft post must not carry a scheduled_for timestamp")
	}

	if keywords.finalStatus() != core.KeywordStatusUsed {
		t.Errorf("keyword final status = %q, want used", keywords.finalStatus())
	}
	if len(posts.created) != 1 {
		t.Errorf("persisted %d records, want 1", len(posts.created))
	}
	if record.Slug == "" || record.Slug == "post" {
		t.Errorf("Slug = %q, want one derived from the title", record.Slug)
	}
}

func TestRun_RetryExhaustion(t *testing.T) {
	providerErr := &textgen.ProviderError{StatusCode: 529, Body: "overloaded"}
	gen := &stubTextGen{err: providerErr}
	posts := &memPostRepo{}
	keywords := &memKeywordRepo{record: testKeyword()}

	cfg := testConfig()
	runner := NewRunner(gen, &stubResolver{}, posts, keywords, cfg)

	_, err := runner.Run(context.Background())
	if err == nil {
		t.Fatal("expected the run to fail")
	}

	var pe *textgen.ProviderError
	if !errors.As(err, &pe) {
		t.Errorf("error should wrap the provider error, got %v", err)
	}
	if gen.calls != cfg.MaxAttempts {
		t.Errorf("generator called %d times, want exactly %d", gen.calls, cfg.MaxAttempts)
	}
	if len(posts.created) != 0 {
		t.Errorf("persisted %d records, want none on generation failure", len(posts.created))
	}
	if keywords.finalStatus() != core.KeywordStatusFailed {
		t.Errorf("keyword final status = %q, want failed", keywords.finalStatus())
	}
}

func TestRun_PersistenceFailureMarksKeywordFailed(t *testing.T) {
	gen := &stubTextGen{response: minimalResponse(t)}
	posts := &memPostRepo{err: errors.New("connection refused")}
	keywords := &memKeywordRepo{record: testKeyword()}

	runner := NewRunner(gen, &stubResolver{}, posts, keywords, testConfig())
	_, err := runner.Run(context.Background())
	if err == nil {
		t.Fatal("expected the run to fail")
	}
	if keywords.finalStatus() != core.KeywordStatusFailed {
		t.Errorf("keyword final status = %q, want failed", keywords.finalStatus())
	}
	if keywords.lastErr == "" {
		t.Error("failure reason should be recorded on the keyword")
	}
}

func TestRun_EstimatesReadingTimeFromBody(t *testing.T) {
	// A response that omits reading_time_minutes but carries a full body gets
	// an estimate at 200 words per minute, not the parser default.
	doc := core.GeneratedDocument{
		Title:           "홈페이지 제작 비용, 얼마가 적정할까?",
		MetaDescription: strings.Repeat("홈페이지 제작 비용 안내. ", 5),
		Excerpt:         "홈페이지 제작 비용 기준을 정리했습니다.",
		Content:         "<h2>개요</h2><p>" + strings.TrimSpace(strings.Repeat("비용 ", 600)) + "</p>",
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("failed to marshal response fixture: %v", err)
	}

	gen := &stubTextGen{response: string(raw)}
	posts := &memPostRepo{}
	keywords := &memKeywordRepo{record: testKeyword()}

	runner := NewRunner(gen, &stubResolver{}, posts, keywords, testConfig())
	record, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if record.ReadingTimeMinutes != 3 {
		t.Errorf("ReadingTimeMinutes = %d, want 3 (600 words at 200 wpm)", record.ReadingTimeMinutes)
	}
}

func TestRun_EmptyQueue(t *testing.T) {
	runner := NewRunner(&stubTextGen{}, &stubResolver{}, &memPostRepo{}, &memKeywordRepo{}, testConfig())

	_, err := runner.Run(context.Background())
	if !errors.Is(err, ErrQueueEmpty) {
		t.Errorf("err = %v, want ErrQueueEmpty", err)
	}
}

func TestRun_DegradedParseStillPersists(t *testing.T) {
	// Unparseable output is not an error: the run proceeds to scoring and
	// persistence with a defaults document and a low score.
	gen := &stubTextGen{response: "I cannot write that article."}
	posts := &memPostRepo{}
	keywords := &memKeywordRepo{record: testKeyword()}

	runner := NewRunner(gen, &stubResolver{}, posts, keywords, testConfig())
	record, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if record.Status != core.PostStatusDraft {
		t.Errorf("Status = %q, want draft for a defaults document", record.Status)
	}
	if record.ReadingTimeMinutes != 9 {
		t.Errorf("ReadingTimeMinutes = %d, want the documented default 9", record.ReadingTimeMinutes)
	}
	if keywords.finalStatus() != core.KeywordStatusUsed {
		t.Errorf("keyword final status = %q, want used", keywords.finalStatus())
	}
}
