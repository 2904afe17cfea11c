package fastview

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 1 * time.Second

	// The minimum interval between publications. The producer is expected to coalesce
	// updates while the client waits.
	pubResolution  = time.Millisecond * 100
	pingResolution = time.Millisecond * 200
	// The number of lost pings tolerated before the peer is considered gone.
	pongWait = pingResolution * 4

	sockOpDeadline   = time.Second
	closeGracePeriod = 500 * time.Millisecond
)

var upgrader = websocket.Upgrader{}

// Client publishes updates unidirectionally to a single web page over a websocket.
type Client[T any] struct {
	updates <-chan T
	ws      *websock
	rootCtx context.Context
}

// NewClient upgrades the request to a websocket. Items are published at most once per
// pubResolution; reads from updates are delayed, not dropped, when they arrive faster.
func NewClient[T any](
	updates <-chan T,
	w http.ResponseWriter,
	r *http.Request,
) (*Client[T], error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied to the client.
		return nil, err
	}

	return &Client[T]{
		updates: updates,
		ws:      newWebsock(ws),
		rootCtx: r.Context(),
	}, nil
}

// Sync publishes updates until the client disconnects, the updates chan closes, or the
// request context ends. It returns nil for a normal disconnect.
func (cli *Client[T]) Sync() error {
	group, groupCtx := errgroup.WithContext(cli.rootCtx)
	group.Go(func() error {
		// Closing the connection is what unblocks a pending read.
		<-groupCtx.Done()
		cli.ws.Close()
		return nil
	})
	group.Go(func() error {
		return cli.readMessages(groupCtx)
	})
	group.Go(func() error {
		return cli.pingPong(groupCtx)
	})
	group.Go(func() error {
		// Returning nil here would leave the other routines running, so a finished
		// publisher reports closure to tear down the group.
		if err := cli.publish(groupCtx); err != nil {
			return err
		}
		return errPublisherDone
	})

	if err := group.Wait(); err != nil && !errors.Is(err, errPublisherDone) && !isClosure(err) {
		return err
	}
	return nil
}

var errPublisherDone = errors.New("publisher done")

// ErrPongDeadlineExceeded is returned when the peer stops answering pings.
var ErrPongDeadlineExceeded error = errors.New("client disconnect, pong deadline exceeded")

// pingPong runs the liveness check. The pong handler is only invoked while
// readMessages is running.
func (cli *Client[T]) pingPong(ctx context.Context) error {
	pong := make(chan struct{}, 1)
	cli.ws.Conn().SetPongHandler(func(_ string) error {
		select {
		case pong <- struct{}{}:
		default:
		}
		return nil
	})

	pinger := channerics.NewTicker(ctx.Done(), pingResolution)
	lastPong := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pinger:
			if time.Since(lastPong) > pongWait {
				return ErrPongDeadlineExceeded
			}
			if err := cli.ping(ctx); err != nil {
				return err
			}
		case <-pong:
			lastPong = time.Now()
		}
	}
}

func (cli *Client[T]) ping(ctx context.Context) error {
	return cli.ws.Write(
		ctx,
		func(ws *websocket.Conn) error {
			err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			if isError(err) {
				return fmt.Errorf("ping failed: %w", err)
			}
			return err
		})
}

// readMessages drains client messages. Errors returned by websocket reads are
// permanent, so any error tears the client down.
func (cli *Client[T]) readMessages(ctx context.Context) error {
	for {
		err := cli.ws.Read(
			ctx,
			func(ws *websocket.Conn) (readErr error) {
				_, _, readErr = ws.ReadMessage()
				return
			})
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (cli *Client[T]) publish(ctx context.Context) error {
	var lastSync time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case updates, ok := <-cli.updates:
			if !ok {
				return nil
			}
			if wait := pubResolution - time.Since(lastSync); wait > 0 {
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(wait):
				}
			}

			lastSync = time.Now()
			err := cli.ws.Write(
				ctx,
				func(ws *websocket.Conn) error {
					if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
						return fmt.Errorf("failed to set deadline: %w", err)
					}
					err := ws.WriteJSON(updates)
					if isError(err) {
						return fmt.Errorf("publish failed: %w", err)
					}
					return err
				})
			if err != nil {
				return err
			}
		}
	}
}

func isError(err error) bool {
	return err != nil && websocket.IsUnexpectedCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}

func isClosure(err error) bool {
	return err != nil && websocket.IsCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}

// ErrSockCongestion indicates there are too many waiters on the socket for a given op.
var ErrSockCongestion = errors.New("sock op failed due to congestion")

// websock serializes reads and writes to the websocket, which permits only one
// concurrent reader and one concurrent writer.
type websock struct {
	readSem   chan struct{}
	writeSem  chan struct{}
	ws        *websocket.Conn
	closeOnce sync.Once
}

func newWebsock(ws *websocket.Conn) *websock {
	return &websock{
		readSem:  make(chan struct{}, 1),
		writeSem: make(chan struct{}, 1),
		ws:       ws,
	}
}

// Conn returns the underlying websocket, for non-concurrent setup such as adding handlers.
func (sock *websock) Conn() *websocket.Conn {
	return sock.ws
}

// Close sends a close frame and closes the connection, once. Only the write side is
// serialized since closing the connection unblocks a pending read.
func (sock *websock) Close() {
	sock.closeOnce.Do(func() {
		sock.writeSem <- struct{}{}
		defer func() { <-sock.writeSem }()

		_ = sock.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		time.Sleep(closeGracePeriod)
		sock.ws.Close()
	})
}

// Read serializes read operations on the websocket.
func (sock *websock) Read(
	ctx context.Context,
	readFn func(*websocket.Conn) error,
) error {
	select {
	case <-ctx.Done():
		return nil
	case sock.readSem <- struct{}{}:
		defer func() { <-sock.readSem }()
		return readFn(sock.ws)
	case <-time.After(sockOpDeadline):
		return ErrSockCongestion
	}
}

// Write serializes write operations on the websocket.
func (sock *websock) Write(
	ctx context.Context,
	writeFn func(*websocket.Conn) error,
) error {
	select {
	case <-ctx.Done():
		return nil
	case sock.writeSem <- struct{}{}:
		defer func() { <-sock.writeSem }()
		return writeFn(sock.ws)
	case <-time.After(sockOpDeadline):
		return ErrSockCongestion
	}
}
