package adapter

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/MKhiriev/go-proc-box/internal/config"
	"github.com/MKhiriev/go-proc-box/internal/logger"
	"github.com/MKhiriev/go-proc-box/models"
)

const (
	dispatchOK = "OK"
	dispatchKO = "KO"
)

// DispatchClient is one dispatch protocol connection. It is not safe for
// concurrent use. After any [RejectedError] the server has closed the
// connection and the client must be discarded.
type DispatchClient struct {
	conn    net.Conn
	r       *bufio.Reader
	timeout time.Duration
	logger  *logger.Logger
}

// DialDispatch connects to cfg.DispatchAddress. cfg.RequestTimeout, when
// set, bounds every single exchange.
func DialDispatch(ctx context.Context, cfg config.ClientAdapter, logger *logger.Logger) (*DispatchClient, error) {
	if strings.TrimSpace(cfg.DispatchAddress) == "" {
		return nil, fmt.Errorf("invalid adapter dispatch address: %w", errEmptyAddress)
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", cfg.DispatchAddress)
	if err != nil {
		return nil, fmt.Errorf("dial dispatch server: %w", err)
	}

	return &DispatchClient{
		conn:    conn,
		r:       bufio.NewReader(conn),
		timeout: cfg.RequestTimeout,
		logger:  logger.WithStr("remote", conn.RemoteAddr().String()),
	}, nil
}

// Authenticate sends the credentials and waits for OK.
func (c *DispatchClient) Authenticate(email, password string) error {
	if err := c.send(email, password); err != nil {
		return err
	}

	reply, err := c.recv()
	if err != nil {
		return err
	}
	if reply != dispatchOK {
		return rejection(reply)
	}
	return nil
}

// OfferFile names a stored file and returns the tools applicable to
// contentType.
func (c *DispatchClient) OfferFile(contentType, uri string) ([]models.ToolDescriptor, error) {
	if err := c.send(contentType, uri); err != nil {
		return nil, err
	}

	reply, err := c.recv()
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(reply)
	if err != nil {
		return nil, rejection(reply)
	}

	descriptors := make([]models.ToolDescriptor, 0, n)
	for range n {
		line, err := c.recv()
		if err != nil {
			return nil, err
		}
		d, err := models.ParseToolDescriptor(line)
		if err != nil {
			return nil, fmt.Errorf("decode tool descriptor: %w", err)
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

// Process applies toolName to the offered file and returns the output
// address. It may be called again for another tool on the same file.
func (c *DispatchClient) Process(toolName string) (string, error) {
	if err := c.send(toolName); err != nil {
		return "", err
	}

	reply, err := c.recv()
	if err != nil {
		return "", err
	}
	if reply == dispatchKO || strings.HasPrefix(reply, dispatchKO+" ") {
		return "", rejection(reply)
	}
	return reply, nil
}

func (c *DispatchClient) Close() error {
	return c.conn.Close()
}

func (c *DispatchClient) send(lines ...string) error {
	if c.timeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return fmt.Errorf("set write deadline: %w", err)
		}
	}

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	if _, err := c.conn.Write([]byte(b.String())); err != nil {
		return fmt.Errorf("dispatch write: %w", err)
	}
	return nil
}

func (c *DispatchClient) recv() (string, error) {
	if c.timeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return "", fmt.Errorf("set read deadline: %w", err)
		}
	}

	line, err := c.r.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("dispatch read: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func rejection(reply string) error {
	reason, ok := strings.CutPrefix(reply, dispatchKO)
	if !ok {
		return fmt.Errorf("unexpected dispatch reply %q", reply)
	}
	return &RejectedError{Reason: strings.TrimSpace(reason)}
}
