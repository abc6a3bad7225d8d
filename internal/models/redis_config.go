package models

// RedisConfig shares stream admission counters across instances (optional)
type RedisConfig struct {
	URL       string `json:"url,omitzero" yaml:"url"`
	SlotTTLMs int    `json:"slot_ttl_ms,omitzero" yaml:"slot_ttl_ms"` // Expiry of a held slot if a release is lost
}
