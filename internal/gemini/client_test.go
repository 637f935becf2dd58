package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"```json\n{\"calorie\": 250}\n```", `{"calorie": 250}`},
		{"Ecco la risposta:\n```json\n{\"calorie\": 1}\n```\ngrazie", `{"calorie": 1}`},
		{`{"calorie": 250}`, `{"calorie": 250}`},
		{"  {\"calorie\": 250}  \n", `{"calorie": 250}`},
	}
	for i, tc := range cases {
		if got := ExtractJSON(tc.in); got != tc.want {
			t.Fatalf("case %d: got %q, want %q", i, got, tc.want)
		}
	}
}

func fakeGemini(t *testing.T, status int, answer string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") == "" {
			t.Errorf("missing key query parameter")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		resp := map[string]any{
			"candidates": []any{
				map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": answer}}}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestEstimate(t *testing.T) {
	srv := fakeGemini(t, 200, "```json\n{\"calorie\": 450, \"proteine\": \"22\", \"carboidrati\": 80.5, \"grassi\": null}\n```")
	defer srv.Close()

	c := NewClient(Config{APIKey: "test", BaseURL: srv.URL})
	got, err := c.Estimate(context.Background(), "pasta al pomodoro")
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if !got.Calories.Known || got.Calories.Value != 450 {
		t.Fatalf("calories = %+v", got.Calories)
	}
	if !got.Proteins.Known || got.Proteins.Value != 22 {
		t.Fatalf("proteins = %+v (numeric string should parse)", got.Proteins)
	}
	if !got.Carbs.Known || got.Carbs.Value != 80.5 {
		t.Fatalf("carbs = %+v", got.Carbs)
	}
	if got.Fats.Known {
		t.Fatalf("fats = %+v, want unknown for null", got.Fats)
	}
}

func TestEstimateDegradesOnErrorStatus(t *testing.T) {
	srv := fakeGemini(t, 500, "")
	defer srv.Close()

	c := NewClient(Config{APIKey: "test", BaseURL: srv.URL})
	got, err := c.Estimate(context.Background(), "pasta")
	if err == nil {
		t.Fatalf("expected error")
	}
	if got.Calories.Known || got.Fats.Known {
		t.Fatalf("expected all-unknown estimate, got %+v", got)
	}
}

func TestEstimateDegradesOnGarbage(t *testing.T) {
	srv := fakeGemini(t, 200, "mi dispiace, non posso aiutarti")
	defer srv.Close()

	c := NewClient(Config{APIKey: "test", BaseURL: srv.URL})
	if _, err := c.Estimate(context.Background(), "pasta"); err == nil {
		t.Fatalf("expected error for unparsable answer")
	}
}

func TestEstimateWithoutAPIKey(t *testing.T) {
	c := NewClient(Config{})
	got, err := c.Estimate(context.Background(), "pasta")
	if err == nil {
		t.Fatalf("expected error without API key")
	}
	if got.Calories.Known {
		t.Fatalf("expected unknown estimate, got %+v", got)
	}
}

func TestComment(t *testing.T) {
	srv := fakeGemini(t, 200, "  Ottimo pasto, continua così.  ")
	defer srv.Close()

	c := NewClient(Config{APIKey: "test", BaseURL: srv.URL})
	got, err := c.Comment(context.Background(), "pranzo: pasta, 450 kcal")
	if err != nil {
		t.Fatalf("Comment: %v", err)
	}
	if got != "Ottimo pasto, continua così." {
		t.Fatalf("comment = %q", got)
	}
}

func TestCommentDegrades(t *testing.T) {
	srv := fakeGemini(t, 503, "")
	defer srv.Close()

	c := NewClient(Config{APIKey: "test", BaseURL: srv.URL})
	got, err := c.Comment(context.Background(), "x")
	if err == nil {
		t.Fatalf("expected error")
	}
	if got != "" {
		t.Fatalf("degraded comment must be empty, got %q", got)
	}
}
