package logger

import (
	"context"

	"github.com/ncobase/pubsub/bus"
	"github.com/sirupsen/logrus"
)

// RecoverHandler returns a bus.RecoverHandler that logs recovered handler
// panics at error level.
func (l *Logger) RecoverHandler() bus.RecoverHandler {
	return l.RecoverHandlerContext(context.Background())
}

// RecoverHandlerContext is RecoverHandler with the trace id and other
// context fields of ctx attached to every entry.
func (l *Logger) RecoverHandlerContext(ctx context.Context) bus.RecoverHandler {
	return func(eventName, subscriberID string, recovered any) {
		l.EntryWithFields(ctx, logrus.Fields{
			EventKey:      eventName,
			SubscriberKey: subscriberID,
		}).Errorf("panic in event handler: %v", recovered)
	}
}
