package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/voicechat-server/internal/core"
	"github.com/vovakirdan/voicechat-server/internal/proto"
	"github.com/vovakirdan/voicechat-server/internal/utils"
)

var errClientDropped = errors.New("client dropped by hub")

// WSOptions bounds what a single connection may do.
type WSOptions struct {
	MaxMessageBytes    int64
	RateLimitPerMinute int
	ClientBuffer       int
}

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	hub  *core.Hub
	opts WSOptions
	log  *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, opts WSOptions, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, opts: opts, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.CloseNow()
	if h.opts.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.opts.MaxMessageBytes)
	}

	client := core.NewClient(utils.NewID(), h.opts.ClientBuffer)
	if !h.hub.RegisterClient(client) {
		conn.Close(websocket.StatusTryAgainLater, "server shutting down")
		return
	}
	defer h.hub.UnregisterClient(client)
	h.log.Info().Str("conn_id", client.ID).Str("remote", r.RemoteAddr).Msg("ws connected")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status, reason := closeStatus(err)
	if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
		h.log.Warn().Err(err).Str("conn_id", client.ID).Int("status", int(status)).Msg("ws connection closed with error")
	} else {
		h.log.Info().Str("conn_id", client.ID).Msg("ws disconnected")
	}
	conn.Close(status, reason)
}

func closeStatus(err error) (websocket.StatusCode, string) {
	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.Is(err, io.EOF):
		return websocket.StatusNormalClosure, "closing"
	case errors.Is(err, errClientDropped):
		return websocket.StatusTryAgainLater, "too slow"
	}
	if s := websocket.CloseStatus(err); s != -1 {
		return s, "closing"
	}
	return websocket.StatusInternalError, "internal error"
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	limiter := newRateLimiter(h.opts.RateLimitPerMinute)
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		if !limiter.allow() {
			h.log.Warn().Str("conn_id", client.ID).Msg("rate limit exceeded")
			if err := writeError(ctx, conn, &proto.Error{Code: core.ErrCodeRateLimited, Msg: "too many messages"}); err != nil {
				return err
			}
			continue
		}

		var inbound proto.Inbound
		if err := json.Unmarshal(data, &inbound); err != nil {
			h.log.Warn().Err(err).Str("conn_id", client.ID).Msg("malformed ws frame dropped")
			continue
		}

		cmd, protoErr, err := inboundToCommand(inbound)
		if err != nil {
			h.log.Warn().Err(err).Str("conn_id", client.ID).Str("event", inbound.Type).Msg("malformed request dropped")
			continue
		}
		if protoErr != nil {
			if err := writeError(ctx, conn, protoErr); err != nil {
				return err
			}
			continue
		}

		select {
		case client.Commands <- cmd:
		case <-client.Done():
			return errClientDropped
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event := <-client.Events:
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("conn_id", client.ID).Msg("write ws event")
				return err
			}
		case <-client.Done():
			return errClientDropped
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func writeError(ctx context.Context, conn *websocket.Conn, perr *proto.Error) error {
	return wsjson.Write(ctx, conn, proto.Outbound{Type: proto.OutboundTypeError, Error: perr})
}
