package domain

import "github.com/samber/lo"

// Provider tags identify which upstream API a model belongs to. The tag is
// fixed at submission time and must stay consistent for the life of a job.
const (
	ProviderOpenAI = "openai"
	ProviderGoogle = "google"
	ProviderRunway = "runway"
	ProviderKling  = "kling"
)

// ModelInfo describes one of the supported video generation models.
type ModelInfo struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Provider         string   `json:"provider"`
	ProviderTag      string   `json:"-"`
	Description      string   `json:"description"`
	MaxDuration      int      `json:"maxDuration"`
	Resolutions      []string `json:"supportedResolutions"`
	AspectRatios     []string `json:"supportedAspectRatios"`
	CreditsPerSecond int      `json:"creditsPerSecond"`
	Badge            string   `json:"badge,omitempty"`
}

// Models is the catalog of selectable video models.
var Models = []ModelInfo{
	{
		ID:               "sora-2-pro",
		Name:             "Sora 2 Pro",
		Provider:         "OpenAI",
		ProviderTag:      ProviderOpenAI,
		Description:      "Highest quality for photorealistic and creative videos up to 60s.",
		MaxDuration:      60,
		Resolutions:      []string{"720p", "1080p", "4K"},
		AspectRatios:     []string{"16:9", "9:16", "1:1"},
		CreditsPerSecond: 3,
		Badge:            "Popular",
	},
	{
		ID:               "veo-3.1",
		Name:             "Veo 3.1",
		Provider:         "Google DeepMind",
		ProviderTag:      ProviderGoogle,
		Description:      "Google's latest model with excellent scene coherence and audio generation.",
		MaxDuration:      30,
		Resolutions:      []string{"720p", "1080p", "4K"},
		AspectRatios:     []string{"16:9", "9:16", "1:1"},
		CreditsPerSecond: 4,
		Badge:            "New",
	},
	{
		ID:               "runway-gen4",
		Name:             "Runway Gen-4",
		Provider:         "Runway",
		ProviderTag:      ProviderRunway,
		Description:      "Strong character consistency and creative transitions between scenes.",
		MaxDuration:      20,
		Resolutions:      []string{"720p", "1080p"},
		AspectRatios:     []string{"16:9", "9:16", "1:1"},
		CreditsPerSecond: 2,
	},
	{
		ID:               "kling-2",
		Name:             "Kling 2.0",
		Provider:         "Kuaishou",
		ProviderTag:      ProviderKling,
		Description:      "Fast generation with good quality, ideal for iteration and experiments.",
		MaxDuration:      15,
		Resolutions:      []string{"720p", "1080p"},
		AspectRatios:     []string{"16:9", "1:1"},
		CreditsPerSecond: 1,
	},
}

// ModelByID looks up a catalog entry by its model identifier.
func ModelByID(id string) (ModelInfo, bool) {
	return lo.Find(Models, func(m ModelInfo) bool { return m.ID == id })
}

// ProviderTags lists the known provider tags.
func ProviderTags() []string {
	return lo.Uniq(lo.Map(Models, func(m ModelInfo, _ int) string { return m.ProviderTag }))
}

// Cost returns the advisory credit cost for a generation. 4K renders are
// billed at twice the per-second rate.
func (m ModelInfo) Cost(durationSeconds int, resolution string) int {
	multiplier := 1
	if resolution == "4K" {
		multiplier = 2
	}
	return m.CreditsPerSecond * durationSeconds * multiplier
}

// PromptSuggestions are served to the prompt editor as starting points.
var PromptSuggestions = []string{
	"A majestic dragon flying over snow-capped mountains at sunset",
	"Macro shot of a dew-covered butterfly wing in morning light",
	"Futuristic city at night with neon lights and flying cars",
	"Timelapse of a flower blooming inside an abandoned building",
	"Underwater scene with bioluminescent jellyfish in the deep ocean",
	"Astronaut drifting through a surreal galaxy full of colorful nebulae",
}
