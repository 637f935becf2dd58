// Package gemini talks to the Google generative text API to estimate
// the macros of a free-text meal description and to produce a short
// dietitian-style comment. Every failure mode degrades to unknown
// values; callers persist the meal regardless.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"dietario/internal/core"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-2.5-flash"
	defaultTimeout = 20 * time.Second
)

// ErrUnavailable marks any estimator failure: transport errors,
// non-success status, unparsable content. Callers treat them all the
// same way.
var ErrUnavailable = errors.New("nutrition estimator unavailable")

type (
	// Nutrition is the typed estimate for one meal description.
	Nutrition struct {
		Calories core.Nutrient
		Proteins core.Nutrient
		Carbs    core.Nutrient
		Fats     core.Nutrient
	}

	// Estimator is the boundary the rest of the application depends on.
	Estimator interface {
		Estimate(ctx context.Context, description string) (Nutrition, error)
		Comment(ctx context.Context, summary string) (string, error)
	}

	Config struct {
		APIKey  string
		Model   string
		Timeout time.Duration
		BaseURL string // overridable for tests
	}

	Client struct {
		http   *resty.Client
		apiKey string
		model  string
	}
)

// Unavailable is the all-unknown estimate substituted on failure.
func Unavailable() Nutrition {
	return Nutrition{
		Calories: core.UnknownNutrient(),
		Proteins: core.UnknownNutrient(),
		Carbs:    core.UnknownNutrient(),
		Fats:     core.UnknownNutrient(),
	}
}

func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Client{
		http:   resty.New().SetBaseURL(cfg.BaseURL).SetTimeout(cfg.Timeout),
		apiKey: cfg.APIKey,
		model:  cfg.Model,
	}
}

type (
	generateRequest struct {
		Contents []content `json:"contents"`
	}
	content struct {
		Parts []part `json:"parts"`
	}
	part struct {
		Text string `json:"text"`
	}
	generateResponse struct {
		Candidates []struct {
			Content struct {
				Parts []part `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
)

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("%w: missing API key", ErrUnavailable)
	}

	var out generateResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}}).
		SetResult(&out).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", c.model))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode())
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrUnavailable)
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

// Estimate asks the model for a JSON object with the four macro fields
// and coerces whatever comes back; fields the model omitted or mangled
// come out unknown.
func (c *Client) Estimate(ctx context.Context, description string) (Nutrition, error) {
	prompt := "Fornisci solo un oggetto JSON con i seguenti campi: " +
		"calorie (in kcal), proteine (in grammi), carboidrati (in grammi), grassi (in grammi). " +
		`Esempio: {"calorie": 250, "proteine": 10, "carboidrati": 20, "grassi": 5}. ` +
		"Descrizione del pasto: " + description

	text, err := c.generate(ctx, prompt)
	if err != nil {
		return Unavailable(), err
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &fields); err != nil {
		return Unavailable(), fmt.Errorf("%w: decode estimate: %v", ErrUnavailable, err)
	}
	return Nutrition{
		Calories: nutrientFrom(fields["calorie"]),
		Proteins: nutrientFrom(fields["proteine"]),
		Carbs:    nutrientFrom(fields["carboidrati"]),
		Fats:     nutrientFrom(fields["grassi"]),
	}, nil
}

// Comment asks for a one-paragraph dietitian note on a meal or on a
// period summary. An empty string is a valid degraded result.
func (c *Client) Comment(ctx context.Context, summary string) (string, error) {
	prompt := "Sei un dietologo. Scrivi un breve commento (massimo due frasi, " +
		"senza formattazione) su questo: " + summary

	text, err := c.generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// nutrientFrom coerces a decoded JSON value into a Nutrient: numbers
// pass through, numeric strings are parsed, anything else is unknown.
func nutrientFrom(v any) core.Nutrient {
	switch val := v.(type) {
	case float64:
		return core.KnownNutrient(val)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return core.KnownNutrient(f)
		}
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return core.KnownNutrient(f)
		}
	}
	return core.UnknownNutrient()
}
