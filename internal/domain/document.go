package domain

import "time"

// Document is a file attached to an invoice. It is owned exclusively by
// its invoice and is removed when the invoice is deleted. Locator is the
// storage key understood by the document store.
type Document struct {
	ID         int64
	InvoiceID  int64
	Name       string
	MediaType  string
	Locator    string
	UploadedAt time.Time
}
