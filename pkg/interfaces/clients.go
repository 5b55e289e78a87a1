package interfaces

import (
	"context"
	"io"

	"github.com/medaid/platform/pkg/types"
)

// Notifier delivers a single message to one recipient. Implementations carry
// no per-subscription state between calls; everything needed for delivery is
// passed in explicitly.
type Notifier interface {
	Send(ctx context.Context, recipient, message string) error
	Channel() types.ReminderChannel
}

// OCRClient extracts structured prescription data from an uploaded image
type OCRClient interface {
	ParsePrescription(ctx context.Context, image io.Reader, mimeType string) (*types.Prescription, error)
}

// IndexSearcher queries one hosted autocomplete index
type IndexSearcher interface {
	Search(ctx context.Context, index, query string, limit int) ([]string, error)
}
