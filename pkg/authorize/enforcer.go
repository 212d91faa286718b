package authorize

import (
	"context"
	_ "embed"
	"log/slog"
	"sync/atomic"

	psqlwatcher "github.com/IguteChung/casbin-psql-watcher"
	casbin "github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
	entadapter "github.com/casbin/ent-adapter"
)

//go:embed model.conf
var defaultModel string

const policyChannel = "casbin_policy_update"

// policyLoadHealthy is false after a watcher-triggered reload fails.
var policyLoadHealthy atomic.Bool

func init() {
	policyLoadHealthy.Store(true)
}

// IsPolicyHealthy backs the readiness probe.
func IsPolicyHealthy() bool {
	return policyLoadHealthy.Load()
}

type CleanupFunc func(ctx context.Context)

// LoadModel returns the model at path, or the embedded model when path is empty.
func LoadModel(path string) (model.Model, error) {
	if path == "" {
		return model.NewModelFromString(defaultModel)
	}
	return model.NewModelFromFile(path)
}

// NewEnforcerWithAdapter builds a DistributedEnforcer over any persist adapter.
func NewEnforcerWithAdapter(cfg Config, a persist.Adapter) (*casbin.DistributedEnforcer, error) {
	m, err := LoadModel(cfg.CasbinModelPath)
	if err != nil {
		return nil, err
	}
	e, err := casbin.NewDistributedEnforcer(m, a)
	if err != nil {
		return nil, err
	}
	e.EnableAutoSave(true)
	e.EnableEnforce(true)
	return e, nil
}

// NewEnforcer creates a DistributedEnforcer persisted in Postgres. With policy
// sync enabled, a LISTEN/NOTIFY watcher reloads policy on every change made by
// another instance. The returned cleanup closes the watcher.
func NewEnforcer(cfg Config, dsn string) (*casbin.DistributedEnforcer, CleanupFunc, error) {
	a, err := entadapter.NewAdapter("postgres", dsn)
	if err != nil {
		return nil, nil, err
	}

	e, err := NewEnforcerWithAdapter(cfg, a)
	if err != nil {
		return nil, nil, err
	}

	if !cfg.PolicySyncEnabled {
		return e, func(context.Context) {}, nil
	}

	w, err := psqlwatcher.NewWatcherWithConnString(context.Background(), dsn, psqlwatcher.Option{
		Channel: policyChannel,
	})
	if err != nil {
		return nil, nil, err
	}

	err = w.SetUpdateCallback(func(msg string) {
		slog.Debug("casbin policy update received", "message", msg)
		if err := e.LoadPolicy(); err != nil {
			slog.Error("failed to reload policy after watcher notification", "error", err)
			policyLoadHealthy.Store(false)
			return
		}
		policyLoadHealthy.Store(true)
	})
	if err != nil {
		return nil, nil, err
	}

	if err := e.SetWatcher(w); err != nil {
		return nil, nil, err
	}

	cleanup := func(context.Context) {
		slog.Debug("closing casbin policy watcher")
		w.Close()
	}

	return e, cleanup, nil
}
