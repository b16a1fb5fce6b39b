package compose

import (
	"context"
	"testing"

	config "vigil0/app/configs"
	"vigil0/app/core/persona"
)

func TestNewOpenAIRequiresKey(t *testing.T) {
	t.Setenv("VIGIL_TEST_COMPOSER_KEY", "")
	_, err := NewOpenAI(config.ComposerConfig{APIKeyEnv: "VIGIL_TEST_COMPOSER_KEY"})
	if err == nil {
		t.Fatal("expected error when the key env is unset")
	}
}

func TestNewOpenAIDefaults(t *testing.T) {
	t.Setenv("VIGIL_TEST_COMPOSER_KEY", "test-key")
	c, err := NewOpenAI(config.ComposerConfig{APIKeyEnv: "VIGIL_TEST_COMPOSER_KEY"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if c.model != "gpt-4o-mini" {
		t.Fatalf("model = %q, want gpt-4o-mini", c.model)
	}
	if c.timeout.Seconds() != 60 {
		t.Fatalf("timeout = %v, want 60s", c.timeout)
	}
}

func TestStaticComposer(t *testing.T) {
	text, err := Static{}.Compose(context.Background(),
		[]string{"Battery at 12%.", "Charger not connected."}, persona.Style{Name: "focused"})
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if text != "Battery at 12%. Charger not connected." {
		t.Fatalf("text = %q", text)
	}
	if _, err := (Static{}).Compose(context.Background(), nil, persona.Style{}); err == nil {
		t.Fatal("expected error for empty facts")
	}
}
