// Package gateway defines the backend-agnostic persistence contract for the
// synchronized user document. All remote store access goes through this
// interface; commands and the state store never import a backend SDK
// directly.
package gateway

import (
	"context"

	"rota/internal/model"
)

// DocumentKey addresses the single document that holds one user's data.
type DocumentKey struct {
	Namespace string
	UserID    string
}

// UserDocument returns the key for a user's document in a namespace.
func UserDocument(namespace, userID string) DocumentKey {
	return DocumentKey{Namespace: namespace, UserID: userID}
}

// Path renders the fixed storage path for the key:
// artifacts/<namespace>/users/<userID>/tasksAndRoutines/user_data.
func (k DocumentKey) Path() string {
	return "artifacts/" + k.Namespace + "/users/" + k.UserID + "/tasksAndRoutines/user_data"
}

// Update is one push notification for a subscribed document. Exists is
// false when the document is absent from the remote store.
type Update struct {
	Doc    model.UserDocument
	Exists bool
}

// Subscription is a live feed of document snapshots. Updates delivers
// pushes in arrival order until the subscription terminates; the channel
// closes on error or Close. The feed cannot be restarted.
type Subscription interface {
	// Updates returns the push channel. An initial snapshot, present or
	// absent, is delivered promptly after subscribing.
	Updates() <-chan Update

	// Err returns the terminal error after Updates closes, or nil when the
	// subscription ended by Close.
	Err() error

	// Close releases the subscription. It is idempotent, and no update is
	// delivered after it returns.
	Close()
}

// Gateway is the remote document store contract. Delivery is at-least-once
// and writes resolve last-write-wins; every successful Write eventually
// triggers a notification to all active subscribers, including the writer.
type Gateway interface {
	// Read fetches the document once. A missing document is not an error;
	// it reports exists=false.
	Read(ctx context.Context, key DocumentKey) (doc model.UserDocument, exists bool, err error)

	// Write replaces the entire document.
	Write(ctx context.Context, key DocumentKey, doc model.UserDocument) error

	// Subscribe opens a live snapshot feed for the document.
	Subscribe(ctx context.Context, key DocumentKey) (Subscription, error)
}
