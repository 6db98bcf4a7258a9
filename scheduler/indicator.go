package scheduler

import "sync/atomic"

// Indicator gates the shared "network busy" signal behind a host-level
// setting. The scheduler reports every busy/idle transition through Notify;
// the show callback only fires while the indicator is enabled, so the host's
// settings panel controls visibility without touching the scheduler.
type Indicator struct {
	enabled atomic.Bool
	show    func(bool)
}

// NewIndicator creates an Indicator driving show. The indicator starts
// disabled.
func NewIndicator(show func(bool)) *Indicator {
	return &Indicator{show: show}
}

// SetEnabled toggles visibility. Disabling a currently shown indicator hides
// it immediately.
func (i *Indicator) SetEnabled(enabled bool) {
	wasEnabled := i.enabled.Swap(enabled)
	if wasEnabled && !enabled && i.show != nil {
		i.show(false)
	}
}

// Notify forwards a busy/idle transition to the host when enabled. Wire this
// as the scheduler's OnBusy callback.
func (i *Indicator) Notify(busy bool) {
	if i.show == nil || !i.enabled.Load() {
		return
	}
	i.show(busy)
}
