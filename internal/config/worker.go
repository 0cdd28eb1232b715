package config

import "maps"

// WorkerSetting is the configuration entry of one worker. It is either a
// toggle or a mapping of option values, never both.
type WorkerSetting struct {
	enabled *bool
	options map[string]any
}

// SetEnabled turns the entry into a toggle, discarding any options.
func (w *WorkerSetting) SetEnabled(enabled bool) {
	w.enabled = &enabled
	w.options = nil
}

// Disable is SetEnabled(false).
func (w *WorkerSetting) Disable() {
	w.SetEnabled(false)
}

// EnsureOptions turns the entry into an option mapping if it is not one
// already. Existing options are kept.
func (w *WorkerSetting) EnsureOptions() {
	if w.options == nil {
		w.options = make(map[string]any)
		w.enabled = nil
	}
}

// Set stores an option value. EnsureOptions must have been called.
func (w *WorkerSetting) Set(name string, value any) {
	if w.options == nil {
		panic("config: Set on worker entry without options; call EnsureOptions first")
	}
	w.options[name] = value
}

// Enabled reports whether the worker should run. Only an explicit false
// toggle disables it.
func (w *WorkerSetting) Enabled() bool {
	return w == nil || w.enabled == nil || *w.enabled
}

// IsToggle reports whether the entry is a plain on/off switch.
func (w *WorkerSetting) IsToggle() bool {
	return w != nil && w.enabled != nil
}

// Options returns a copy of the configured option values.
func (w *WorkerSetting) Options() map[string]any {
	if w == nil {
		return nil
	}
	return maps.Clone(w.options)
}
