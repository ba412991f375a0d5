package ingest

import (
	"fmt"
	"strings"

	"github.com/priorityhub/inbox-platform/internal/model"
)

// strategy captures the only parts of ingestion that differ per channel:
// which sender identity fields are required, how the contact email is
// derived, how the conversation title is derived, and how the metadata bag
// is shaped. The orchestration around it is shared.
type strategy struct {
	validateSender func(*model.IngestRequest) error
	contactEmail   func(*model.IngestRequest) string
	contactName    func(*model.IngestRequest) string
	title          func(*model.IngestRequest) string
	shapeMetadata  func(*model.IngestRequest) map[string]any
}

var strategies = map[model.Channel]strategy{
	model.ChannelEmail: {
		validateSender: requireSenderEmail,
		contactEmail:   senderEmail,
		contactName:    senderName,
		title: func(r *model.IngestRequest) string {
			if subject := metaString(r.Metadata, "subject"); subject != "" {
				return subject
			}
			return "Conversation with " + displayName(r)
		},
		shapeMetadata: passthroughMetadata,
	},

	model.ChannelChat: {
		validateSender: requireSenderEmail,
		contactEmail:   senderEmail,
		contactName:    senderName,
		title: func(r *model.IngestRequest) string {
			if name := metaString(r.Metadata, "channel_name"); name != "" {
				return "#" + strings.TrimPrefix(name, "#")
			}
			return "DM with " + displayName(r)
		},
		shapeMetadata: passthroughMetadata,
	},

	model.ChannelMessaging: {
		validateSender: func(r *model.IngestRequest) error {
			if r.From.Phone == "" && r.From.Email == "" {
				return model.ValidationError("from.phone or from.email is required")
			}
			return nil
		},
		// Phone-centric senders often have no email; a placeholder address
		// derived from the number keeps the (user, email) contact key
		// uniform across channels.
		contactEmail: func(r *model.IngestRequest) string {
			if r.From.Email != "" {
				return r.From.Email
			}
			return placeholderEmail(r.From.Phone)
		},
		contactName: func(r *model.IngestRequest) string {
			if r.From.Name != "" {
				return r.From.Name
			}
			return r.From.Phone
		},
		title: func(r *model.IngestRequest) string {
			if metaBool(r.Metadata, "is_group") {
				if name := metaString(r.Metadata, "group_name"); name != "" {
					return name
				}
				return "Group chat"
			}
			return displayName(r)
		},
		shapeMetadata: func(r *model.IngestRequest) map[string]any {
			meta := passthroughMetadata(r)
			if r.From.Phone != "" {
				meta["phone"] = r.From.Phone
			}
			return meta
		},
	},

	model.ChannelNetwork: {
		validateSender: requireSenderEmail,
		contactEmail:   senderEmail,
		contactName:    senderName,
		title: func(r *model.IngestRequest) string {
			if metaBool(r.Metadata, "is_inmail") {
				return "InMail from " + displayName(r)
			}
			return "Conversation with " + displayName(r)
		},
		shapeMetadata: passthroughMetadata,
	},
}

func requireSenderEmail(r *model.IngestRequest) error {
	if r.From.Email == "" {
		return model.ValidationError("from.email is required")
	}
	return nil
}

func senderEmail(r *model.IngestRequest) string {
	return r.From.Email
}

func senderName(r *model.IngestRequest) string {
	if r.From.Name != "" {
		return r.From.Name
	}
	return r.From.Email
}

func displayName(r *model.IngestRequest) string {
	switch {
	case r.From.Name != "":
		return r.From.Name
	case r.From.Email != "":
		return r.From.Email
	default:
		return r.From.Phone
	}
}

func passthroughMetadata(r *model.IngestRequest) map[string]any {
	meta := make(map[string]any, len(r.Metadata))
	for k, v := range r.Metadata {
		meta[k] = v
	}
	return meta
}

// placeholderEmail synthesizes a stable contact address from a phone
// number: digits only, reserved domain.
func placeholderEmail(phone string) string {
	var digits strings.Builder
	for _, c := range phone {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
		}
	}
	return fmt.Sprintf("%s@messaging.invalid", digits.String())
}

func metaString(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func metaBool(m map[string]any, key string) bool {
	if b, ok := m[key].(bool); ok {
		return b
	}
	return false
}
