package constants

// Provider identifiers accepted in AI_PROVIDER_PREFERENCE.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderVertex = "vertex"

	// ProviderNone disables every remote provider when it appears in the preference list.
	ProviderNone = "none"
)

// DefaultProviderPreference is used when no preference is configured.
const DefaultProviderPreference = "gemini,openai,vertex"
