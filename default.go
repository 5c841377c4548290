package autowire

var (
	// defaultResolver holds the package default Resolver.
	defaultResolver *Resolver
)

// SetDefault sets the default Resolver used by code that wants a
// process-wide wiring root. This is similar to slog.SetDefault.
// Pass nil to remove the default resolver.
func SetDefault(r *Resolver) {
	defaultResolver = r
}

// Default returns the current default Resolver.
// Returns nil if no default resolver has been set.
func Default() *Resolver {
	return defaultResolver
}
