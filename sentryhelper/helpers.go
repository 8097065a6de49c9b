// Package sentryhelper provides utilities for Sentry transaction and scope management.
// It keeps breadcrumbs and context isolated per top-level action.
package sentryhelper

import (
	"context"
	"fmt"

	sentry "github.com/getsentry/sentry-go"
)

type contextKey string

const hubContextKey contextKey = "sentry_hub"

// StartActionTransaction creates a transaction on a cloned hub for one user action
// (a download, a search). Returns the context carrying both, plus the transaction span.
func StartActionTransaction(ctx context.Context, action string, reference string) (context.Context, *sentry.Span) {
	hub := sentry.CurrentHub().Clone()
	ctx = sentry.SetHubOnContext(ctx, hub)
	ctx = context.WithValue(ctx, hubContextKey, hub)

	transaction := sentry.StartTransaction(ctx, fmt.Sprintf("tunedl.%s", action),
		sentry.WithOpName("tunedl.action"),
		sentry.WithTransactionSource(sentry.SourceTask),
	)
	transaction.SetTag("action", action)
	transaction.SetTag("reference", reference)

	hub.Scope().SetSpan(transaction)

	return transaction.Context(), transaction
}

// HubFromContext retrieves the cloned hub from context, falling back to CurrentHub.
func HubFromContext(ctx context.Context) *sentry.Hub {
	if ctx == nil {
		return sentry.CurrentHub()
	}
	if hub, ok := ctx.Value(hubContextKey).(*sentry.Hub); ok && hub != nil {
		return hub
	}
	return sentry.CurrentHub()
}

func AddBreadcrumb(ctx context.Context, breadcrumb *sentry.Breadcrumb) {
	HubFromContext(ctx).AddBreadcrumb(breadcrumb, nil)
}

func CaptureException(ctx context.Context, err error) *sentry.EventID {
	return HubFromContext(ctx).CaptureException(err)
}

// FinishAction closes an action transaction. A non-nil err marks it failed and
// is reported on the action's hub.
func FinishAction(ctx context.Context, transaction *sentry.Span, err error) {
	if err != nil {
		transaction.Status = sentry.SpanStatusInternalError
		CaptureException(ctx, err)
	} else {
		transaction.Status = sentry.SpanStatusOK
	}
	transaction.Finish()
}
