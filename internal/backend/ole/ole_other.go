//go:build !windows

package ole

import (
	"context"
	"fmt"

	"github.com/teemow/outlookctl/internal/outlook"
)

// Open fails: Outlook automation is only available on Windows.
func (b *Backend) Open(ctx context.Context) (outlook.Store, error) {
	return nil, fmt.Errorf("%w: the %s backend requires Windows, use the fixture backend instead", outlook.ErrExternalFault, Name)
}
