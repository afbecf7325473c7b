//go:build unix

package tcp

import (
	"context"
	"io"
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bft-labs/fileship/internal/adapters/fs"
	"github.com/bft-labs/fileship/internal/domain"
)

func TestSender_SourceTruncatedMidSend(t *testing.T) {
	// A peer that reads nothing until told to, so the frame stalls in flight.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	drain := make(chan struct{})
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		<-drain
		io.Copy(io.Discard, conn)
	}()

	tr := writeSource(t, t.TempDir(), "growing.log", randomBytes(t, 32<<20))
	sender := newTestSender(t, ln.Addr(), SenderConfig{})

	type result struct {
		receipt domain.Receipt
		err     error
	}
	done := make(chan result, 1)
	go func() {
		r, err := sender.Send(context.Background(), tr)
		done <- result{r, err}
	}()

	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.Truncate(tr.Path, 0))
	close(drain)

	select {
	case r := <-done:
		require.ErrorIs(t, r.err, fs.ErrSourceChanged)
		require.NotErrorIs(t, r.err, domain.ErrConnection)
		require.Equal(t, 1, r.receipt.Attempts)
	case <-time.After(10 * time.Second):
		t.Fatal("Send did not return after the source was truncated")
	}
}
