// Package channel defines the delivery targets a reading can be sent to,
// plus the concrete MQTT and ledger adapters. The delivery path depends only
// on the interfaces so tests can substitute fakes.
package channel

import "context"

// Publisher is the message-channel capability: a broker connection and a
// fixed-topic publish.
type Publisher interface {
	Connect(ctx context.Context) error
	Connected() bool
	Publish(ctx context.Context, payload []byte) error
	Disconnect()
}

// Ledger is the transaction-channel capability: readings ride as the data
// field of zero-value transfers.
type Ledger interface {
	Connected(ctx context.Context) bool
	Send(ctx context.Context, payload []byte) (txID string, err error)
	Close()
}
