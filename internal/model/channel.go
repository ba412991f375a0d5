// Package model defines data structures for the inbox platform.
package model

// Channel identifies the external messaging platform a message arrived from.
type Channel string

const (
	// ChannelEmail is classic email.
	ChannelEmail Channel = "email"
	// ChannelChat is real-time workspace chat.
	ChannelChat Channel = "chat"
	// ChannelMessaging is the phone-centric messaging app.
	ChannelMessaging Channel = "messaging"
	// ChannelNetwork is professional-network messaging.
	ChannelNetwork Channel = "network"
)

// Channels lists every supported channel.
var Channels = []Channel{ChannelEmail, ChannelChat, ChannelMessaging, ChannelNetwork}

// ParseChannel maps a URL slug to a Channel.
func ParseChannel(s string) (Channel, bool) {
	switch Channel(s) {
	case ChannelEmail, ChannelChat, ChannelMessaging, ChannelNetwork:
		return Channel(s), true
	}
	return "", false
}
