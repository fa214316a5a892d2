package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/five82/tally/internal/state"
	"github.com/five82/tally/internal/votenode"
)

// Stream names shared with the poller so health lines up with the header.
const (
	StreamPolls = "polls"
	StreamNode  = "node"
)

// renderHeader renders the status bar: node identity, stream health and
// mirror size.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()

	node := m.nodeID
	if node == "" {
		node = "?"
	}
	parts := []string{
		styles.Logo.Render("tally"),
		styles.MutedText.Render("node ") + styles.Text.Render(sanitize(node)),
		m.renderStream(styles, StreamPolls),
		m.renderStream(styles, StreamNode),
		styles.MutedText.Render(fmt.Sprintf("%d polls", m.polls.Len())),
	}
	if m.apiBind != "" {
		parts = append(parts, styles.FaintText.Render(m.apiBind))
	}
	return styles.Header.Width(m.width).Render(strings.Join(parts, "  "))
}

func (m Model) renderStream(styles Styles, name string) string {
	h := m.streams.Stream(name)
	label := name + " "
	switch {
	case h.LastAttempt.IsZero():
		return styles.MutedText.Render(label) + styles.WarningText.Render("connecting")
	case h.IsOffline():
		return styles.MutedText.Render(label) + styles.DangerText.Render(classifyConnectionError(h.LastError))
	case h.ConsecutiveFailures > 0:
		return styles.MutedText.Render(label) + styles.WarningText.Render("retrying")
	default:
		return styles.MutedText.Render(label) + styles.SuccessText.Render("ok")
	}
}

// classifyConnectionError turns a poll failure into a short header label.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	if votenode.IsMalformed(err) {
		return "BAD PAYLOAD"
	}
	var statusErr *votenode.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("HTTP %d", statusErr.Code)
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		return "TIMEOUT"
	default:
		return "ERROR"
	}
}

// streamsSummary is the one-line health text used when the view is too
// narrow for the header.
func streamsSummary(snap state.Snapshot) string {
	var parts []string
	for _, name := range snap.Names() {
		h := snap.Stream(name)
		status := "ok"
		if h.IsOffline() {
			status = strings.ToLower(classifyConnectionError(h.LastError))
		}
		parts = append(parts, name+"="+status)
	}
	return strings.Join(parts, " ")
}
