//go:build !darwin

package platform

// SetActivationPolicy is a no-op outside macOS
func SetActivationPolicy() {}

// ActivateApp is a no-op outside macOS
func ActivateApp() {}
