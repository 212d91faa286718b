package codes

import "github.com/Alijeyrad/thera_backend/config"

// Config holds token generation settings
type Config struct {
	// TokenByteLength is the number of random bytes for tokens
	TokenByteLength int

	// URLSafeTokens selects base64url over hex
	URLSafeTokens bool
}

// DefaultConfig returns sensible defaults for token generation
func DefaultConfig() Config {
	return Config{
		TokenByteLength: DefaultTokenByteLength,
		URLSafeTokens:   true,
	}
}

// FromCentralConfig converts central config.CodesConfig to package Config
func FromCentralConfig(c config.CodesConfig) Config {
	return Config{
		TokenByteLength: c.TokenByteLength,
		URLSafeTokens:   c.URLSafeTokens,
	}
}
