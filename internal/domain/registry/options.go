package registry

import "log/slog"

// Option defines a functional configuration type for the Hub.
type Option func(*Hub)

// WithConnBuffer sets how many frames a session may have queued before a
// broadcast treats it as dead.
func WithConnBuffer(size int) Option {
	return func(h *Hub) {
		if size > 0 {
			h.config.connBuffer = size
		}
	}
}

// WithDedupWindow enables the per-session window of recently seen event ids.
// Zero keeps duplicate delivery.
func WithDedupWindow(size int) Option {
	return func(h *Hub) {
		h.config.dedupWindow = size
	}
}

func WithInstanceID(id string) Option {
	return func(h *Hub) {
		h.config.instanceID = id
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}
