package service

import "context"

// Presenter is an injected handle for a shared overlay, owned by the
// navigation root and passed explicitly to any component that needs to
// trigger presentation. Open activates the overlay's refresh lifecycle;
// Close tears it down.
type Presenter interface {
	Open(ctx context.Context)
	Close()
}
