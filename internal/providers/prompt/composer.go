package prompt

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// styleDescriptions enrich the raw prompt with a visual direction per
// style tag.
var styleDescriptions = map[string]string{
	"cinematic":  "Cinematic style, film-like color grading, dramatic lighting, shallow depth of field.",
	"realistic":  "Photorealistic, natural lighting, true to life, documentary-style.",
	"anime":      "Anime style, Japanese animation aesthetic, vibrant colors, expressive characters.",
	"abstract":   "Abstract art style, surreal, creative visual effects, non-representational.",
	"3d-render":  "3D rendered, CGI quality, polished surfaces, studio lighting.",
	"watercolor": "Watercolor painting aesthetic, soft blended colors, artistic brush strokes.",
}

const referenceImageHint = "[CRITICAL INSTRUCTION: The user has provided a reference image. Explicitly describe that the video should start from or heavily feature the visual elements of the provided reference image.]"

const defaultModel = openai.GPT4oMini

// ComposeRequest carries everything needed to build the final prompt text
// sent to a video provider.
type ComposeRequest struct {
	Prompt             string
	NegativePrompt     string
	Style              string
	HasReferenceImages bool
	APIKey             string
}

// Options configures a Composer.
type Options struct {
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	OnFallback func(reason string, err error)
}

// Composer builds the final text sent to a provider. The primary path
// rewrites the user's prompt through a chat model; any failure falls back
// to deterministic template assembly, so Compose never fails.
type Composer struct {
	model      string
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	onFallback func(reason string, err error)
}

// NewComposer constructs a composer with sane defaults.
func NewComposer(opts Options) *Composer {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Composer{
		model:      model,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		timeout:    timeout,
		onFallback: opts.OnFallback,
	}
}

// Compose returns the enriched prompt, or the deterministic assembly when
// the enrichment call fails, times out, or returns a degenerate result.
// The caller's key authorizes the enrichment call.
func (c *Composer) Compose(ctx context.Context, req ComposeRequest) string {
	if strings.TrimSpace(req.APIKey) == "" {
		return c.fallback(req, "missing_api_key", nil)
	}

	cfg := openai.DefaultConfig(req.APIKey)
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
	}
	if c.httpClient != nil {
		cfg.HTTPClient = c.httpClient
	}
	client := openai.NewClientWithConfig(cfg)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   300,
		Temperature: 0.7,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.instruction(req)},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
	})
	if err != nil {
		return c.fallback(req, "chat_request", err)
	}
	if len(resp.Choices) == 0 {
		return c.fallback(req, "empty_choices", nil)
	}
	optimized := strings.TrimSpace(resp.Choices[0].Message.Content)
	if len(optimized) <= 10 {
		return c.fallback(req, "degenerate_result", nil)
	}
	return optimized
}

// instruction renders the fixed rewrite template for the enrichment model.
func (c *Composer) instruction(req ComposeRequest) string {
	var b strings.Builder
	b.WriteString("You are a video prompt engineer for AI video generation (Sora, Veo, Runway).\n")
	b.WriteString("Your job: take the user's video description (in any language) and rewrite it as a detailed, English video generation prompt.\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- ALWAYS output in English, no matter the input language\n")
	b.WriteString("- Be very specific about: camera angle, movement, lighting, subject actions, environment, mood\n")
	b.WriteString("- Include the visual style: " + StyleDescription(req.Style) + "\n")
	if strings.TrimSpace(req.NegativePrompt) != "" {
		b.WriteString("- The video must NOT contain: " + req.NegativePrompt + "\n")
	}
	if req.HasReferenceImages {
		b.WriteString("- The video must start from or heavily feature the provided reference image\n")
	}
	b.WriteString("- Keep it under 500 characters\n")
	b.WriteString("- Output ONLY the prompt, nothing else")
	return b.String()
}

func (c *Composer) fallback(req ComposeRequest, reason string, err error) string {
	if c.onFallback != nil {
		c.onFallback(reason, err)
	}
	return c.Assemble(req)
}

// Assemble deterministically concatenates the raw prompt with the style
// description, the negative constraint, and a reference-image hint. The
// output always contains the raw prompt.
func (c *Composer) Assemble(req ComposeRequest) string {
	enhanced := req.Prompt
	if hint := StyleDescription(req.Style); hint != "" {
		enhanced += "\n\nVisual style: " + hint
	}
	if negative := strings.TrimSpace(req.NegativePrompt); negative != "" {
		enhanced += "\n\nAvoid the following: " + negative
	}
	if req.HasReferenceImages {
		enhanced += "\n\n" + referenceImageHint
	}
	return enhanced
}

// StyleDescription resolves a style tag to its visual direction sentence.
// Unknown non-empty tags fall back to a title-cased rendering of the tag
// itself so the style intent still reaches the provider.
func StyleDescription(tag string) string {
	if desc, ok := styleDescriptions[tag]; ok {
		return desc
	}
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	return fmt.Sprintf("%s style.", cases.Title(language.English).String(strings.ReplaceAll(tag, "-", " ")))
}
