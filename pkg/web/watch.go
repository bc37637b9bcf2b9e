package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/teslashibe/go-drowsy/internal/httpc"
	"github.com/teslashibe/go-drowsy/pkg/eventlog"
)

// StatusURL turns a dashboard address (":8080", "host:8080" or a full
// http/ws URL) into its /ws/status endpoint.
func StatusURL(addr string) (string, error) {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	if !strings.Contains(addr, "://") {
		addr = "ws://" + addr
	}

	u, err := url.Parse(addr)
	if err != nil {
		return "", fmt.Errorf("parse dashboard address: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws/status"
	return u.String(), nil
}

// Watch streams dashboard snapshots to fn until ctx is done or the
// server closes the connection.
func Watch(ctx context.Context, statusURL string, fn func(State)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, statusURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", statusURL, err)
	}
	defer conn.Close()

	// Unblock ReadMessage on cancel
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read status: %w", err)
		}

		var st State
		if err := json.Unmarshal(data, &st); err != nil {
			return fmt.Errorf("decode status: %w", err)
		}
		fn(st)
	}
}

// APIURL turns a dashboard address into the base http URL of its REST API.
func APIURL(addr string) (string, error) {
	ws, err := StatusURL(addr)
	if err != nil {
		return "", err
	}
	u, _ := url.Parse(ws)
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	}
	u.Path = "/api"
	return u.String(), nil
}

// FetchStatus reads one snapshot from a running dashboard.
func FetchStatus(ctx context.Context, addr string) (State, error) {
	var st State
	base, err := APIURL(addr)
	if err != nil {
		return st, err
	}
	err = httpc.GetJSON(ctx, base+"/status", &st)
	return st, err
}

// FetchEvents reads the n most recent events from a running dashboard.
func FetchEvents(ctx context.Context, addr string, n int) ([]eventlog.Event, error) {
	base, err := APIURL(addr)
	if err != nil {
		return nil, err
	}
	var events []eventlog.Event
	err = httpc.GetJSON(ctx, fmt.Sprintf("%s/events?n=%d", base, n), &events)
	return events, err
}

// FetchHistory reads a stored session from a running dashboard.
// "current" selects the dashboard's own run.
func FetchHistory(ctx context.Context, addr, session string) ([]eventlog.Event, error) {
	base, err := APIURL(addr)
	if err != nil {
		return nil, err
	}
	var events []eventlog.Event
	err = httpc.GetJSON(ctx, base+"/events?session="+url.QueryEscape(session), &events)
	return events, err
}

// FetchSessions lists the sessions a running dashboard has stored.
func FetchSessions(ctx context.Context, addr string) ([]string, error) {
	base, err := APIURL(addr)
	if err != nil {
		return nil, err
	}
	var ids []string
	err = httpc.GetJSON(ctx, base+"/sessions", &ids)
	return ids, err
}
