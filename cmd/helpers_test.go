package cmd

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/karolswdev/promptforge/internal/library"
	"github.com/karolswdev/promptforge/internal/schema"
)

func newTestStore(t *testing.T) *library.Store {
	t.Helper()
	store, err := library.Open(context.Background(), library.NewMemoryPersister(), library.Options{
		Schema: schema.Default(),
		Now:    func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return store
}

// newOutputCmd returns a bare command carrying the --output flag, writing to
// the returned buffer.
func newOutputCmd(format string) (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	c := &cobra.Command{Use: "test"}
	c.Flags().StringP("output", "o", "text", "")
	_ = c.Flags().Set("output", format)
	c.SetOut(&out)
	c.SetErr(&out)
	c.SetContext(context.Background())
	return c, &out
}
