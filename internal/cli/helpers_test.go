package cli

import (
	"context"
	"testing"
)

func cmdContext(t *testing.T) context.Context {
	t.Helper()
	return context.Background()
}
