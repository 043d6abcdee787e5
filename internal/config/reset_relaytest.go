//go:build relaytest

package config

// Reset discards the frozen singleton so a subsequent Load re-resolves
// against the environment. Compiled only under the relaytest build tag —
// production code has no runtime path that can re-create the registry.
func Reset() {
	singletonMu.Lock()
	defer singletonMu.Unlock()
	singleton = nil
}
