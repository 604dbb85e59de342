// Package screen models panels (named collections of buttons) and the
// per-device panel stack.
//
// Panels exist in two forms mirroring buttons: a self-contained RawPanel
// for persistence/export, and a live *Panel holding shared button handles
// for the running device. Conversion is deep-copy on export and deep-wrap
// on load.
//
// The Stack is strictly LIFO with a never-empty invariant while a device
// is connected; see Stack.Pop vs Stack.ForcePop.
package screen
