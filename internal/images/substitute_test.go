package images

import (
	"strings"
	"testing"

	"blogforge/internal/core"
)

func resolvedSlots() []core.ImageSlot {
	return []core.ImageSlot{
		{Position: 1, AltText: "slot one alt", ResolvedURL: "https://cdn.example.com/one.png"},
		{Position: 2, AltText: "slot two alt"}, // unresolved
		{Position: 3, AltText: "slot three alt", ResolvedURL: "https://cdn.example.com/three.png"},
	}
}

func TestSubstitutePlaceholders_ResolvedAndStripped(t *testing.T) {
	content := `<p>intro</p>` +
		`<img src="IMAGE_PLACEHOLDER_1" alt="hand-written alt">` +
		`<p>middle</p>` +
		`<img src="IMAGE_PLACEHOLDER_2" alt="will be stripped">` +
		`IMAGE_PLACEHOLDER_3` +
		`<p>end</p>`

	got := SubstitutePlaceholders(content, resolvedSlots())

	if strings.Contains(got, "IMAGE_PLACEHOLDER_") {
		t.Errorf("leftover placeholder in output: %q", got)
	}
	if !strings.Contains(got, `<img src="https://cdn.example.com/one.png" alt="hand-written alt">`) {
		t.Errorf("slot 1 should keep hand-authored alt text, got %q", got)
	}
	if !strings.Contains(got, `<img src="https://cdn.example.com/three.png" alt="slot three alt">`) {
		t.Errorf("bare token should become a full img tag with the slot alt, got %q", got)
	}
	if strings.Contains(got, "will be stripped") {
		t.Errorf("unresolved slot 2 tag should be removed entirely, got %q", got)
	}
	if imgs := strings.Count(got, "<img"); imgs != 2 {
		t.Errorf("got %d img tags, want 2", imgs)
	}
}

func TestSubstitutePlaceholders_Idempotent(t *testing.T) {
	content := `<img src="IMAGE_PLACEHOLDER_1"><p>x</p>IMAGE_PLACEHOLDER_2 IMAGE_PLACEHOLDER_3`
	slots := resolvedSlots()

	once := SubstitutePlaceholders(content, slots)
	twice := SubstitutePlaceholders(once, slots)
	if once != twice {
		t.Errorf("substitution is not idempotent:\nonce  %q\ntwice %q", once, twice)
	}
}

func TestSubstitutePlaceholders_EmptyAltFallsBackToSlot(t *testing.T) {
	content := `<img src="IMAGE_PLACEHOLDER_1" alt="">`

	got := SubstitutePlaceholders(content, resolvedSlots())
	if !strings.Contains(got, `alt="slot one alt"`) {
		t.Errorf("empty alt attribute should fall back to slot alt, got %q", got)
	}
}

func TestBuildSlots_DescriptionsWinOverFallbacks(t *testing.T) {
	req := core.GenerationRequest{PrimaryKeyword: "홈페이지 제작 비용"}
	descs := []core.ImageDescription{
		{Position: 2, AltText: "custom alt", ImagePrompt: "custom prompt"},
		{Position: 9, AltText: "out of range", ImagePrompt: "ignored"},
	}

	slots := BuildSlots(req, descs, 5)
	if len(slots) != 5 {
		t.Fatalf("got %d slots, want 5", len(slots))
	}

	if slots[1].Prompt != "custom prompt" || slots[1].AltText != "custom alt" {
		t.Errorf("slot 2 should use the model's description, got %+v", slots[1])
	}
	for _, i := range []int{0, 2, 3, 4} {
		if slots[i].Prompt == "" {
			t.Errorf("slot %d should have a fallback prompt", i+1)
		}
		if !strings.Contains(slots[i].Prompt, "홈페이지 제작 비용") {
			t.Errorf("fallback prompt for slot %d should mention the keyword", i+1)
		}
	}
	for i, s := range slots {
		if s.Position != i+1 {
			t.Errorf("slot index %d has position %d", i, s.Position)
		}
	}
}

func TestBuildSlots_CountClamped(t *testing.T) {
	req := core.GenerationRequest{PrimaryKeyword: "kw"}

	if got := BuildSlots(req, nil, 12); len(got) != MaxSlots {
		t.Errorf("got %d slots, want %d", len(got), MaxSlots)
	}
	if got := BuildSlots(req, nil, 0); got != nil {
		t.Errorf("got %v, want nil for zero count", got)
	}
}
