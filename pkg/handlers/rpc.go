package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/blogic/udrone/pkg/errno"
	"github.com/blogic/udrone/pkg/registry"
	"github.com/blogic/udrone/pkg/wire"
)

const defaultRPCTimeout = 2 * time.Second

// RPC returns the handler for the rpc command, this rewrite's analogue of
// the original's ubus_invoke call in cmd_ubus.c: "path" and "method" form the
// NATS subject "path.method", "param" the request payload, and "timeout"
// (milliseconds) bounds the wait for a responder.
//
// The original marked handler_ubus UDRONE_HANDLER_ATOMIC despite blocking on
// ubus_invoke with a timeout, which conflicts with this protocol's rule that
// atomic handlers must not block the event loop for meaningful time. This
// handler is registered non-atomic instead.
func RPC(nc *nats.Conn) registry.Descriptor {
	return registry.Descriptor{
		Type:      "rpc",
		Atomicity: registry.NonAtomic,
		Handler:   rpcHandler(nc),
	}
}

func rpcHandler(nc *nats.Conn) registry.HandlerFunc {
	return func(ctx context.Context, args *wire.Table, out *wire.Table) int {
		path, ok := args.GetString("path")
		if !ok {
			return -errno.EINVAL
		}
		method, ok := args.GetString("method")
		if !ok {
			return -errno.EINVAL
		}
		subject := path + "." + method

		timeout := defaultRPCTimeout
		if ms, ok := args.GetUint32("timeout"); ok {
			timeout = time.Duration(ms) * time.Millisecond
		}

		var param *wire.Table
		if p, ok := args.GetTable("param"); ok {
			param = p
		} else {
			param = wire.NewTable()
		}

		payload, err := param.MarshalJSON()
		if err != nil {
			return -errno.EINVAL
		}

		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		resp, err := nc.RequestWithContext(reqCtx, subject, payload)
		if err == nats.ErrNoResponders || err == nats.ErrTimeout || errors.Is(err, context.DeadlineExceeded) {
			return -errno.ENOENT
		}
		if err != nil {
			return -errno.EIO
		}

		result := wire.NewTable()
		if err := result.UnmarshalJSON(resp.Data); err != nil {
			return -errno.EIO
		}
		for _, k := range result.Keys() {
			v, _ := result.Get(k)
			out.Set(k, v)
		}

		return wire.DataReply
	}
}
