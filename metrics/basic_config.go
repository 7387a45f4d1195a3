package metrics

type basicProviderConfig struct {
	// when false, remove per-key mutex entries from `inits` after initialization to
	// allow GC of mutexes for many ephemeral instrument names. Default: false.
	doNotCleanupInits bool
	logger            Logger
}

// BasicProviderOption configures a BasicProvider constructed by NewBasicProvider.
type BasicProviderOption func(*basicProviderConfig)

// WithInitCleanupDisabled keeps per-key init mutex entries in the provider's
// internal `inits` map after initialization. Init cleanup is enabled by default.
func WithInitCleanupDisabled() BasicProviderOption {
	return func(cfg *basicProviderConfig) { cfg.doNotCleanupInits = true }
}

// WithBasicProviderLogger routes invariant violations to l.
func WithBasicProviderLogger(l Logger) BasicProviderOption {
	return func(cfg *basicProviderConfig) { cfg.logger = l }
}
