// Copyright 2026 The Driftwood Authors
// SPDX-License-Identifier: Apache-2.0

package mudlog

import (
	"context"
	"errors"
	"log/slog"
)

// fanoutHandler is a slog.Handler that delivers every record to each
// of its children. A record is enabled if any child wants it; children
// below the record's level drop it individually in Handle.
type fanoutHandler struct {
	children []slog.Handler
}

// fanout returns a handler fanning out to all of children. A single
// child is returned unwrapped.
func fanout(children []slog.Handler) slog.Handler {
	if len(children) == 1 {
		return children[0]
	}
	return &fanoutHandler{children: children}
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, child := range h.children {
		if child.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, child := range h.children {
		if !child.Enabled(ctx, record.Level) {
			continue
		}
		if err := child.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	children := make([]slog.Handler, len(h.children))
	for i, child := range h.children {
		children[i] = child.WithAttrs(attrs)
	}
	return &fanoutHandler{children: children}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	children := make([]slog.Handler, len(h.children))
	for i, child := range h.children {
		children[i] = child.WithGroup(name)
	}
	return &fanoutHandler{children: children}
}
