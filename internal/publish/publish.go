package publish

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/vk/appmodel/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Event is the name of the event emitted for each generated application.
const Event = "modules_generated"

// DefaultTimeout bounds how long Dial waits for the connection.
const DefaultTimeout = 15 * time.Second

// ErrNotConnected is returned by Publish after Close.
var ErrNotConnected = errors.New("publisher is not connected")

// Options configures a Publisher.
type Options struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// Module is a single generated module as announced on the wire.
type Module struct {
	ID    string `json:"id"`
	Class string `json:"class"`
}

// Announcement is the payload of an Event.
type Announcement struct {
	Session string   `json:"session"`
	App     string   `json:"app"`
	Class   string   `json:"class"`
	File    string   `json:"file,omitempty"`
	Modules []Module `json:"modules"`
}

// Publisher emits announcements over a connected socket.io client.
type Publisher struct {
	io *socket.Socket
}

// Dial connects to the socket.io server at opts.URL and waits until the
// namespace is joined, the connection fails or ctx is done.
func Dial(ctx context.Context, opts Options) (*Publisher, error) {
	logger := ctxlog.FromContext(ctx).With("url", opts.URL, "namespace", opts.Namespace)

	parsedURL, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("URL %q must include a scheme and host", opts.URL)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	namespace := opts.Namespace
	if namespace == "" {
		namespace = "/"
	}

	sockOpts := socket.DefaultOptions()
	sockOpts.SetPath(parsedURL.Path)
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		sockOpts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	sockOpts.SetTransports(types.NewSet(transports.WebSocket))
	sockOpts.SetReconnection(false)

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, sockOpts)
	io := manager.Socket(namespace, sockOpts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Publisher connected.", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			} else {
				err = fmt.Errorf("%v", errs[0])
			}
		}
		logger.Debug("Publisher connection failed.", "error", err)
		connectChan <- err
	})

	logger.Debug("Connecting publisher...")
	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return &Publisher{io: io}, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}
}

// Publish emits one announcement.
func (p *Publisher) Publish(ctx context.Context, a Announcement) error {
	if p.io == nil {
		return ErrNotConnected
	}
	ctxlog.FromContext(ctx).Debug("Publishing modules.", "event", Event, "app", a.App, "modules", len(a.Modules))
	return p.io.Emit(Event, a)
}

// Close disconnects the client. Calling it twice is harmless.
func (p *Publisher) Close() error {
	if p.io != nil {
		p.io.Disconnect()
		p.io = nil
	}
	return nil
}
