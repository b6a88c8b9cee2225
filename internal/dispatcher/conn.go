package dispatcher

import (
	"bufio"
	"net"
	"strings"
	"time"
)

const (
	okReply = "OK"
	koReply = "KO"
)

// lineConn reads and writes newline-terminated lines with per-line deadlines.
type lineConn struct {
	conn    net.Conn
	r       *bufio.Reader
	w       *bufio.Writer
	idle    time.Duration
	maxLine int
}

func newLineConn(conn net.Conn, idle time.Duration, maxLine int) *lineConn {
	return &lineConn{
		conn:    conn,
		r:       bufio.NewReader(conn),
		w:       bufio.NewWriter(conn),
		idle:    idle,
		maxLine: maxLine,
	}
}

// readLine returns the next line without its terminator. A trailing "\r" is
// dropped as well.
func (c *lineConn) readLine() (string, error) {
	if c.idle > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.idle)); err != nil {
			return "", err
		}
	}

	var sb strings.Builder
	for {
		chunk, isPrefix, err := c.r.ReadLine()
		if err != nil {
			return "", err
		}
		if sb.Len()+len(chunk) > c.maxLine {
			return "", ErrLineTooLong
		}
		sb.Write(chunk)
		if !isPrefix {
			return sb.String(), nil
		}
	}
}

func (c *lineConn) writeLines(lines ...string) error {
	if c.idle > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.idle)); err != nil {
			return err
		}
	}

	for _, line := range lines {
		if _, err := c.w.WriteString(line); err != nil {
			return err
		}
		if err := c.w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return c.w.Flush()
}

func (c *lineConn) writeKO(reason string) error {
	return c.writeLines(koReply + " " + reason)
}

func (c *lineConn) Close() error {
	return c.conn.Close()
}
