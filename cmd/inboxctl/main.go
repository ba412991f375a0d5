// Package main implements inboxctl, a small client for injecting messages
// into a running API server and seeding demo data. It talks plain HTTP;
// none of the engine logic lives here.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	apiURL string

	injectChannel    string
	injectUser       string
	injectMessageID  string
	injectConvID     string
	injectFromEmail  string
	injectFromName   string
	injectFromPhone  string
	injectContent    string
	injectMetadata   []string
	injectReceivedAt string

	seedUserEmail string
	seedUserName  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "inboxctl",
		Short: "Client for the inbox platform API",
	}
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "http://localhost:8080", "base URL of the API server")

	injectCmd := &cobra.Command{
		Use:   "inject",
		Short: "Inject one message into the ingestion endpoint",
		RunE:  runInject,
	}
	injectCmd.Flags().StringVar(&injectChannel, "channel", "email", "channel: email, chat, messaging, network")
	injectCmd.Flags().StringVar(&injectUser, "user", "", "owning user id (required)")
	injectCmd.Flags().StringVar(&injectMessageID, "message-id", "", "external message id (required)")
	injectCmd.Flags().StringVar(&injectConvID, "conversation-id", "", "external conversation id (required)")
	injectCmd.Flags().StringVar(&injectFromEmail, "from-email", "", "sender email")
	injectCmd.Flags().StringVar(&injectFromName, "from-name", "", "sender display name")
	injectCmd.Flags().StringVar(&injectFromPhone, "from-phone", "", "sender phone number")
	injectCmd.Flags().StringVar(&injectContent, "content", "", "message content")
	injectCmd.Flags().StringArrayVar(&injectMetadata, "meta", nil, "metadata flag as key=value (repeatable)")
	injectCmd.Flags().StringVar(&injectReceivedAt, "received-at", "", "RFC-3339 timestamp, defaults to now")
	injectCmd.MarkFlagRequired("user")
	injectCmd.MarkFlagRequired("message-id")
	injectCmd.MarkFlagRequired("conversation-id")

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a demo user and sample messages on every channel",
		RunE:  runSeed,
	}
	seedCmd.Flags().StringVar(&seedUserEmail, "email", "demo@example.com", "demo user email")
	seedCmd.Flags().StringVar(&seedUserName, "name", "Demo User", "demo user name")

	rootCmd.AddCommand(injectCmd, seedCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runInject(cmd *cobra.Command, args []string) error {
	payload := map[string]any{
		"userId":                 injectUser,
		"externalMessageId":      injectMessageID,
		"externalConversationId": injectConvID,
		"content":                injectContent,
		"from": map[string]string{
			"email": injectFromEmail,
			"name":  injectFromName,
			"phone": injectFromPhone,
		},
	}

	if injectReceivedAt != "" {
		if _, err := time.Parse(time.RFC3339, injectReceivedAt); err != nil {
			return fmt.Errorf("invalid --received-at: %w", err)
		}
		payload["receivedAt"] = injectReceivedAt
	}

	if len(injectMetadata) > 0 {
		meta := make(map[string]any, len(injectMetadata))
		for _, pair := range injectMetadata {
			key, value, found := strings.Cut(pair, "=")
			if !found {
				return fmt.Errorf("invalid --meta %q, expected key=value", pair)
			}
			// Booleans pass through typed so channel flags work.
			switch value {
			case "true":
				meta[key] = true
			case "false":
				meta[key] = false
			default:
				meta[key] = value
			}
		}
		payload["metadata"] = meta
	}

	body, status, err := post(fmt.Sprintf("%s/api/v1/messages/%s", apiURL, injectChannel), payload)
	if err != nil {
		return err
	}
	fmt.Printf("%d %s\n", status, body)
	if status != http.StatusCreated {
		return fmt.Errorf("ingestion failed with status %d", status)
	}
	return nil
}

type seedMessage struct {
	channel  string
	convID   string
	from     map[string]string
	content  string
	metadata map[string]any
}

func runSeed(cmd *cobra.Command, args []string) error {
	body, status, err := post(apiURL+"/api/v1/users", map[string]any{
		"email": seedUserEmail,
		"name":  seedUserName,
	})
	if err != nil {
		return err
	}
	if status != http.StatusCreated {
		return fmt.Errorf("creating demo user failed: %d %s", status, body)
	}

	var user struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(body), &user); err != nil {
		return fmt.Errorf("decoding user response: %w", err)
	}
	fmt.Printf("created user %s\n", user.ID)

	samples := []seedMessage{
		{
			channel: "email", convID: "seed-thread-1",
			from:     map[string]string{"email": "cfo@acme.example", "name": "Morgan Reyes"},
			content:  "Urgent: board deck numbers needed asap before Thursday",
			metadata: map[string]any{"importance": "high", "subject": "Board deck numbers"},
		},
		{
			channel: "email", convID: "seed-thread-2",
			from:     map[string]string{"email": "newsletter@vendor.example", "name": "Vendor Weekly"},
			content:  "No rush, here is our weekly roundup",
			metadata: map[string]any{"importance": "low", "subject": "Weekly roundup"},
		},
		{
			channel: "chat", convID: "seed-dm-1",
			from:     map[string]string{"email": "pat@acme.example", "name": "Pat Chen"},
			content:  "quick question about the deploy window",
			metadata: map[string]any{"is_direct_message": true},
		},
		{
			channel: "chat", convID: "seed-ch-general",
			from:     map[string]string{"email": "sam@acme.example", "name": "Sam Ortiz"},
			content:  "posting the lunch menu",
			metadata: map[string]any{"channel_name": "general"},
		},
		{
			channel: "messaging", convID: "seed-wa-1",
			from:    map[string]string{"phone": "+15550100001", "name": "Alex"},
			content: "call me when you can",
		},
		{
			channel: "messaging", convID: "seed-wa-group",
			from:     map[string]string{"phone": "+15550100002", "name": "Jordan"},
			content:  "forwarding this to the group",
			metadata: map[string]any{"is_group": true, "is_forwarded": true, "group_name": "Weekend plans"},
		},
		{
			channel: "network", convID: "seed-in-1",
			from:     map[string]string{"email": "recruiter@talent.example", "name": "Riley Fox"},
			content:  "Time-sensitive opportunity at a stealth startup",
			metadata: map[string]any{"is_inmail": true},
		},
	}

	for i, sample := range samples {
		payload := map[string]any{
			"userId":                 user.ID,
			"externalMessageId":      fmt.Sprintf("seed-msg-%d", i+1),
			"externalConversationId": sample.convID,
			"from":                   sample.from,
			"content":                sample.content,
		}
		if sample.metadata != nil {
			payload["metadata"] = sample.metadata
		}

		body, status, err := post(fmt.Sprintf("%s/api/v1/messages/%s", apiURL, sample.channel), payload)
		if err != nil {
			return err
		}
		if status != http.StatusCreated {
			return fmt.Errorf("seeding %s message failed: %d %s", sample.channel, status, body)
		}
		fmt.Printf("seeded %s message into %s\n", sample.channel, sample.convID)
	}

	fmt.Printf("done; list with: GET %s/api/v1/conversations?userId=%s\n", apiURL, user.ID)
	return nil
}

func post(url string, payload any) (string, int, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", 0, err
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		return "", 0, fmt.Errorf("POST %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, err
	}
	return strings.TrimSpace(string(body)), resp.StatusCode, nil
}
