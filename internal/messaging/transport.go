// Package messaging defines the outbound message boundary. The core only
// ever sends a text or a named template; rendering and provider routing live
// behind the transport.
package messaging

import "context"

// Transport delivers outbound messages for a tenant. Implementations return
// the provider's message id.
type Transport interface {
	SendText(ctx context.Context, tenantID, recipient, body string) (string, error)
	SendTemplate(ctx context.Context, tenantID, recipient, templateName string, params map[string]string) (string, error)
}
