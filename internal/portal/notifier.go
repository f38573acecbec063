package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/user/release-portal/internal/logger"
	"github.com/user/release-portal/pkg/portal"
)

// Notifier posts approval notifications to a webhook. With no webhook URL
// configured it degrades to logging the message, which keeps local setups
// working without a mail relay.
type Notifier struct {
	log          zerolog.Logger
	webhookURL   string
	managerEmail string
	httpClient   *http.Client
}

func NewNotifier(webhookURL, managerEmail string) *Notifier {
	return &Notifier{
		log:          logger.Component("notifier"),
		webhookURL:   webhookURL,
		managerEmail: managerEmail,
		httpClient:   &http.Client{},
	}
}

type notification struct {
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	Recipients []string `json:"recipients"`
}

// SendApprovalNotification announces the release-level approval to the
// release manager, every team DL, and each product owner.
func (n *Notifier) SendApprovalNotification(ctx context.Context, release portal.Release) error {
	msg := notification{
		Subject:    fmt.Sprintf("Release %s %s approved", release.Name, release.Version),
		Body:       fmt.Sprintf("Release %s (version %s, target date %s) has received overall application owner sign-off.", release.Name, release.Version, release.ReleaseDate),
		Recipients: n.recipients(release),
	}

	if n.webhookURL == "" {
		n.log.Info().
			Str("release_id", release.ID).
			Strs("recipients", msg.Recipients).
			Msg("approval notification (no webhook configured)")
		return nil
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification webhook returned %d", resp.StatusCode)
	}

	n.log.Info().
		Str("release_id", release.ID).
		Int("recipients", len(msg.Recipients)).
		Msg("sent approval notification")
	return nil
}

// recipients gathers the release manager, team DLs, and product-owner
// addresses, deduplicated and sorted for stable output.
func (n *Notifier) recipients(release portal.Release) []string {
	seen := make(map[string]struct{})
	add := func(addr string) {
		if addr == "" {
			return
		}
		seen[addr] = struct{}{}
	}

	add(n.managerEmail)
	for _, team := range release.Teams {
		add(team.TeamDL)
		add(ownerEmail(team.ProductOwner))
	}

	out := make([]string, 0, len(seen))
	for addr := range seen {
		out = append(out, addr)
	}
	sort.Strings(out)
	return out
}

// ownerEmail derives an address from a product owner's display name, e.g.
// "Jane Doe" becomes "jane.doe@example.com".
func ownerEmail(name string) string {
	fields := strings.Fields(strings.ToLower(name))
	if len(fields) == 0 {
		return ""
	}
	return strings.Join(fields, ".") + "@example.com"
}
