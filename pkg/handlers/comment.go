package handlers

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/blogic/udrone/pkg/errno"
	"github.com/blogic/udrone/pkg/registry"
	"github.com/blogic/udrone/pkg/wire"
)

// Comment returns the handler for the comment command: a status-only
// no-op that just logs its string argument, matching the original's
// handler_comment printf.
func Comment(log logrus.FieldLogger) registry.Descriptor {
	return registry.Descriptor{
		Type:      "comment",
		Atomicity: registry.Atomic,
		Handler: func(_ context.Context, args *wire.Table, _ *wire.Table) int {
			text, ok := args.GetString("__scalar__")
			if !ok {
				return -errno.EINVAL
			}
			log.WithField("comment", text).Info("received comment")
			return 0
		},
	}
}
