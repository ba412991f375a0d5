// Package ingest orchestrates one incoming message: validate, dedup,
// resolve contact and conversation, persist, score, notify. One routine
// serves all channels; the differences live in per-channel strategies.
package ingest

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/priorityhub/inbox-platform/internal/model"
	"github.com/priorityhub/inbox-platform/internal/priority"
	"github.com/priorityhub/inbox-platform/internal/store"
	"github.com/priorityhub/inbox-platform/pkg/logger"
	"github.com/priorityhub/inbox-platform/pkg/metrics"
)

// Pipeline ingests messages into the store and keeps conversation
// priorities current.
type Pipeline struct {
	store  *store.Store
	logger *logger.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// New creates an ingestion pipeline on top of the given store.
func New(st *store.Store, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.NewNop()
	}
	return &Pipeline{
		store:  st,
		logger: log,
		tracer: otel.Tracer("ingest"),
		now:    time.Now,
	}
}

// Ingest runs one message through the pipeline. The dedup check happens
// before any mutation, so a retried delivery returns DUPLICATE_MESSAGE and
// leaves every entity untouched. Message creation is the last mutating
// step before scoring, so a failure never leaves an orphaned reference.
func (p *Pipeline) Ingest(ctx context.Context, channel model.Channel, req *model.IngestRequest) (*model.IngestResult, error) {
	_, span := p.tracer.Start(ctx, "ingest.message", trace.WithAttributes(
		attribute.String("channel", string(channel)),
		attribute.String("user_id", req.UserID),
	))
	defer span.End()

	strat, ok := strategies[channel]
	if !ok {
		return nil, model.ValidationError("unsupported channel %q", channel)
	}

	if err := validateRequest(req, strat); err != nil {
		return nil, err
	}

	user, err := p.store.GetUser(req.UserID)
	if err != nil {
		return nil, err
	}

	if _, exists := p.store.FindMessageByExternalID(req.ExternalMessageID); exists {
		metrics.DuplicateMessages.WithLabelValues(string(channel)).Inc()
		p.logger.Infow("duplicate message ignored",
			"channel", channel,
			"external_message_id", req.ExternalMessageID,
			"user_id", user.ID,
		)
		return nil, model.DuplicateMessageError(req.ExternalMessageID)
	}

	contact, err := p.store.FindOrCreateContact(user.ID, strat.contactEmail(req), strat.contactName(req), channel)
	if err != nil {
		return nil, err
	}

	conv, isNew, err := p.store.FindOrCreateConversation(user.ID, contact.ID, req.ExternalConversationID, channel, strat.title(req))
	if err != nil {
		return nil, err
	}
	if isNew {
		metrics.ConversationsCreated.WithLabelValues(string(channel)).Inc()
	}

	receivedAt := p.now()
	if req.ReceivedAt != nil {
		receivedAt = *req.ReceivedAt
	}

	msg, err := p.store.CreateMessage(conv.ID, req.ExternalMessageID, channel, req.Text(), strat.shapeMetadata(req), receivedAt)
	if err != nil {
		return nil, err
	}

	score := priority.Calculate(priority.Input{
		Channel:         channel,
		Content:         msg.Content,
		LastMessageAt:   msg.CreatedAt,
		ContactPriority: contact.Priority,
		Metadata:        msg.Metadata,
		Now:             p.now(),
	})

	if _, err := p.store.UpdateConversationPriority(conv.ID, score, msg.CreatedAt); err != nil {
		return nil, model.InternalError(err)
	}

	metrics.RecordIngest(string(channel), score)
	span.SetAttributes(attribute.Int("priority", score))
	p.logger.Infow("message ingested",
		"channel", channel,
		"message_id", msg.ID,
		"conversation_id", conv.ID,
		"contact_id", contact.ID,
		"priority", score,
		"new_conversation", isNew,
	)

	return &model.IngestResult{
		MessageID:      msg.ID,
		ConversationID: conv.ID,
		ContactID:      contact.ID,
		Priority:       score,
	}, nil
}

func validateRequest(req *model.IngestRequest, strat strategy) error {
	switch {
	case req.UserID == "":
		return model.ValidationError("userId is required")
	case req.ExternalMessageID == "":
		return model.ValidationError("externalMessageId is required")
	case req.ExternalConversationID == "":
		return model.ValidationError("externalConversationId is required")
	}
	return strat.validateSender(req)
}
