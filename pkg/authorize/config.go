package authorize

import "github.com/Alijeyrad/thera_backend/config"

type Config struct {
	// CasbinModelPath overrides the embedded model when set.
	CasbinModelPath string

	EnableAudit      bool
	SuperadminBypass bool

	// PolicySyncEnabled attaches the Postgres LISTEN/NOTIFY watcher.
	PolicySyncEnabled bool
}

func FromCentralConfig(c config.AuthorizationConfig) Config {
	return Config{
		CasbinModelPath:   c.CasbinModelPath,
		EnableAudit:       c.EnableAudit,
		SuperadminBypass:  c.SuperadminBypass,
		PolicySyncEnabled: c.PolicySyncEnabled,
	}
}
