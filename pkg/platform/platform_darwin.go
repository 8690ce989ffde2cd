//go:build darwin

// Package platform wraps the few macOS calls a tray-only app needs.
package platform

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa -framework AppKit
#import <Cocoa/Cocoa.h>
#import <AppKit/AppKit.h>

void setAccessoryPolicy() {
    [NSApp setActivationPolicy:NSApplicationActivationPolicyAccessory];
}

void activateApp() {
    [NSApp activateIgnoringOtherApps:YES];
}
*/
import "C"

// SetActivationPolicy hides the dock icon so the app lives in the tray only
func SetActivationPolicy() {
	C.setAccessoryPolicy()
}

// ActivateApp brings the application to the front, needed after opening a
// window from the tray
func ActivateApp() {
	C.activateApp()
}
