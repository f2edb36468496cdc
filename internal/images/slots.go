package images

import (
	"fmt"

	"blogforge/internal/core"
)

// MaxSlots is the number of illustration placeholders an article can carry.
const MaxSlots = 5

// fallbackPrompts describes each slot's narrative role when the model did
// not supply an image description for that position. Indexed by position-1.
var fallbackPrompts = [MaxSlots]string{
	"A confused business owner surrounded by floating question marks and mismatched website quotes, flat vector illustration, warm colors",
	"A friendly consultant explaining a website project plan on a whiteboard with clear diagrams, flat vector illustration",
	"A side-by-side comparison of website packages shown as tidy pricing cards on a desk, flat vector illustration",
	"A step-by-step production process shown as a horizontal timeline with icons for design, build and launch, flat vector illustration",
	"A satisfied business owner celebrating a successful website launch with rising charts in the background, flat vector illustration",
}

// fallbackAlts are the matching alt texts for fallback prompts.
var fallbackAlts = [MaxSlots]string{
	"고민하는 사업주 일러스트",
	"제작 과정을 설명하는 컨설턴트 일러스트",
	"웹사이트 패키지 비교 일러스트",
	"제작 단계 타임라인 일러스트",
	"성공적인 런칭을 축하하는 일러스트",
}

// BuildSlots produces up to count slots for one article. A description at a
// position wins over the canned fallback; the request keyword is appended so
// generated art stays on topic.
func BuildSlots(req core.GenerationRequest, descs []core.ImageDescription, count int) []core.ImageSlot {
	if count <= 0 {
		return nil
	}
	if count > MaxSlots {
		count = MaxSlots
	}

	byPosition := make(map[int]core.ImageDescription, len(descs))
	for _, d := range descs {
		if d.Position >= 1 && d.Position <= MaxSlots {
			byPosition[d.Position] = d
		}
	}

	slots := make([]core.ImageSlot, 0, count)
	for pos := 1; pos <= count; pos++ {
		slot := core.ImageSlot{Position: pos}
		if d, ok := byPosition[pos]; ok && d.ImagePrompt != "" {
			slot.Prompt = d.ImagePrompt
			slot.AltText = d.AltText
		} else {
			slot.Prompt = fmt.Sprintf("%s, illustrating an article about %q", fallbackPrompts[pos-1], req.PrimaryKeyword)
			slot.AltText = fallbackAlts[pos-1]
		}
		slots = append(slots, slot)
	}
	return slots
}
