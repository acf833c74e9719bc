package port

import "context"

// Notifier broadcasts domain events. Delivery is best effort: failures are
// logged by the implementation and never reported to the caller.
type Notifier interface {
	Publish(ctx context.Context, event string, payload any)
}
