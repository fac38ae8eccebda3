package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig_GeminiTiers(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, ProviderGemini, config.Provider)
	assert.Equal(t, "gemini-2.5-flash-lite", config.GetModel(TierLite))
	assert.Equal(t, "gemini-2.5-flash", config.GetModel(TierStandard))
	assert.Equal(t, "gemini-2.5-pro", config.GetModel(TierAdvanced))
}

func TestGetModel_FallsBackToStandard(t *testing.T) {
	config := &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierStandard: "standard-model",
			TierLite:     "lite-model",
		},
	}

	assert.Equal(t, "standard-model", config.GetModel(TierAdvanced))
}

func TestGetModel_FallsBackToLite(t *testing.T) {
	config := &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite: "lite-model",
		},
	}

	assert.Equal(t, "lite-model", config.GetModel("unknown"))
}

func TestGetModel_NoModelsConfigured(t *testing.T) {
	config := &Config{
		Provider: ProviderGemini,
		Models:   map[ModelTier]string{},
	}

	assert.Equal(t, "", config.GetModel(TierAdvanced))
}

func TestWithModel_DoesNotMutateOriginal(t *testing.T) {
	config := DefaultConfig()
	custom := config.WithModel(TierAdvanced, "custom-model")

	assert.Equal(t, "gemini-2.5-pro", config.GetModel(TierAdvanced))
	assert.Equal(t, "custom-model", custom.GetModel(TierAdvanced))

	// Untouched tiers carry over
	assert.Equal(t, "gemini-2.5-flash-lite", custom.GetModel(TierLite))
}

func TestWithModel_Chained(t *testing.T) {
	custom := DefaultConfig().
		WithModel(TierLite, "lite-override").
		WithModel(TierAdvanced, "advanced-override")

	assert.Equal(t, "lite-override", custom.GetModel(TierLite))
	assert.Equal(t, "gemini-2.5-flash", custom.GetModel(TierStandard))
	assert.Equal(t, "advanced-override", custom.GetModel(TierAdvanced))
}

func TestTierAndProviderValues(t *testing.T) {
	assert.Equal(t, ModelTier("lite"), TierLite)
	assert.Equal(t, ModelTier("standard"), TierStandard)
	assert.Equal(t, ModelTier("advanced"), TierAdvanced)

	assert.Equal(t, Provider("gemini"), ProviderGemini)
	assert.Equal(t, Provider("openai"), ProviderOpenAI)
	assert.Equal(t, Provider("anthropic"), ProviderAnthropic)
}
