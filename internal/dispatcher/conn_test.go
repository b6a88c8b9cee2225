package dispatcher

import (
	"io"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipe(t *testing.T, maxLine int) (*lineConn, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() {
		_ = server.Close()
		_ = client.Close()
	})
	return newLineConn(server, 0, maxLine), client
}

func TestLineConn_ReadLine(t *testing.T) {
	lc, client := pipe(t, 32)

	go func() {
		_, _ = io.WriteString(client, "first\r\nsecond\nlast")
		_ = client.Close()
	}()

	for _, want := range []string{"first", "second", "last"} {
		got, err := lc.readLine()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := lc.readLine()
	assert.ErrorIs(t, err, io.EOF)
}

func TestLineConn_LongLineSpanningBuffer(t *testing.T) {
	// Longer than the bufio default buffer, so it arrives in several chunks.
	long := strings.Repeat("a", 5000)
	lc, client := pipe(t, 6000)

	go func() { _, _ = io.WriteString(client, long+"\n") }()

	got, err := lc.readLine()
	require.NoError(t, err)
	assert.Equal(t, long, got)
}

func TestLineConn_RejectsOversizedLine(t *testing.T) {
	lc, client := pipe(t, 8)

	go func() { _, _ = io.WriteString(client, "0123456789\n") }()

	_, err := lc.readLine()
	assert.ErrorIs(t, err, ErrLineTooLong)
}

func TestLineConn_WriteLines(t *testing.T) {
	lc, client := pipe(t, 8)

	go func() {
		_ = lc.writeLines("2", "a", "b")
		_ = lc.writeKO("tool not found")
	}()

	buf := make([]byte, 0, 64)
	want := "2\na\nb\nKO tool not found\n"
	for len(buf) < len(want) {
		chunk := make([]byte, 64)
		n, err := client.Read(chunk)
		require.NoError(t, err)
		buf = append(buf, chunk[:n]...)
	}
	assert.Equal(t, want, string(buf))
}
