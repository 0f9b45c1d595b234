// Package events pushes viewer change records to the downstream
// event-ingestion service over a websocket. Delivery is best effort: a
// handler enqueues and moves on, and a full queue or broken connection
// drops the event rather than blocking a request.
package events

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/relayview-io/relayview/internal/models"
	"github.com/relayview-io/relayview/internal/util"
)

// Notifier fans out a change event. Implementations must not block.
type Notifier interface {
	Send(event models.Event)
}

// NoopNotifier drops every event. It serves the services that have no
// ingestion endpoint configured.
type NoopNotifier struct{}

func (NoopNotifier) Send(models.Event) {}

const defaultQueueSize = 256

// SocketNotifier maintains one outbound websocket to the ingestion
// service. The connection is redialed with a fresh bearer token on a
// fixed interval and whenever a write fails; the token source caches and
// refreshes the service's own client-credentials token independently of
// any request.
type SocketNotifier struct {
	logger          *zap.SugaredLogger
	url             string
	tokens          oauth2.TokenSource
	refreshInterval time.Duration
	queue           chan models.Event
	reconnect       chan struct{}
}

func NewSocketNotifier(logger *zap.SugaredLogger, url string, tokens oauth2.TokenSource, refreshInterval time.Duration) *SocketNotifier {
	return &SocketNotifier{
		logger:          logger,
		url:             url,
		tokens:          oauth2.ReuseTokenSource(nil, tokens),
		refreshInterval: refreshInterval,
		queue:           make(chan models.Event, defaultQueueSize),
		reconnect:       make(chan struct{}, 1),
	}
}

// Start runs the sender and the periodic reconnect timer until ctx is
// done. Callers track shutdown through wg.
func (n *SocketNotifier) Start(ctx context.Context, wg *sync.WaitGroup) {
	util.GoWithWaitGroup(wg, func() {
		n.run(ctx)
	})
	util.GoWithWaitGroup(wg, func() {
		util.RunPeriodically(ctx, n.refreshInterval, func() {
			select {
			case n.reconnect <- struct{}{}:
			default:
			}
		})
	})
}

// Send enqueues the event and returns immediately. Events are dropped
// when the queue is full.
func (n *SocketNotifier) Send(event models.Event) {
	select {
	case n.queue <- event:
	default:
		n.logger.Warnw("event queue full, dropping event", "event", event.Name, "viewer_id", event.ViewerID)
	}
}

func (n *SocketNotifier) run(ctx context.Context) {
	var conn *websocket.Conn
	closeConn := func() {
		if conn != nil {
			util.IgnoreError(conn.Close)
			conn = nil
		}
	}
	defer closeConn()

	for {
		select {
		case <-ctx.Done():
			return
		case <-n.reconnect:
			closeConn()
		case event := <-n.queue:
			if conn == nil {
				var err error
				conn, err = n.dial(ctx)
				if err != nil {
					n.logger.Warnw("failed to connect to event service, dropping event",
						"event", event.Name, "viewer_id", event.ViewerID, "error", err)
					continue
				}
			}
			if err := conn.WriteJSON(event); err != nil {
				n.logger.Warnw("failed to send event",
					"event", event.Name, "viewer_id", event.ViewerID, "error", err)
				closeConn()
			}
		}
	}
}

func (n *SocketNotifier) dial(ctx context.Context) (*websocket.Conn, error) {
	token, err := n.tokens.Token()
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	token.SetAuthHeader(&http.Request{Header: header})

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, n.url, header)
	if resp != nil && resp.Body != nil {
		util.IgnoreError(resp.Body.Close)
	}
	if err != nil {
		return nil, err
	}
	n.logger.Debugw("connected to event service", "url", n.url)
	return conn, nil
}
