package watch

import (
	"fmt"
	"strings"

	"github.com/SatelliteQE/rendezvous/internal/sharedresource"
	"github.com/SatelliteQE/rendezvous/internal/tui/styles"
)

// View renders the watch screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.Header.Render("rendezvous · " + m.name))
	b.WriteString("\n")

	switch {
	case m.gone:
		b.WriteString(styles.Secondary.Render("State file removed: every watcher finished."))
		b.WriteString("\n")
	case m.err != nil:
		b.WriteString(styles.Error.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	case m.state == nil:
		b.WriteString(m.spinner.View())
		b.WriteString(styles.Muted.Render(" waiting for the first participant..."))
		b.WriteString("\n")
	default:
		spin := ""
		if busy(m.state.MainStatus) {
			spin = m.spinner.View()
		}
		b.WriteString(RenderState(m.state, spin))
	}

	if !m.updated.IsZero() {
		b.WriteString(styles.Muted.Render("updated " + m.updated.Format("15:04:05")))
		b.WriteString("\n")
	}
	b.WriteString(styles.HelpBar.Render(styles.HelpKey.Render("r") + " refresh  " + styles.HelpKey.Render("q") + " quit"))
	b.WriteString("\n")
	return b.String()
}

func busy(s sharedresource.MainStatus) bool {
	return s == sharedresource.MainActing || s == sharedresource.MainRecovering
}

// RenderState renders a state document as a status block followed by one
// line per watcher. spin, when not empty, is shown next to the leader
// status.
func RenderState(st *sharedresource.State, spin string) string {
	var b strings.Builder

	status := styles.Status(string(st.MainStatus))
	if spin != "" {
		status = spin + " " + status
	}
	fmt.Fprintf(&b, "%s%s\n", styles.Label.Render("leader status"), status)
	fmt.Fprintf(&b, "%s%s\n", styles.Label.Render("leader"), st.MainWatcher)

	counts := st.Counts()
	var parts []string
	for _, s := range []sharedresource.WatcherStatus{
		sharedresource.StatusPending,
		sharedresource.StatusReady,
		sharedresource.StatusDone,
		sharedresource.StatusError,
	} {
		if counts[s] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[s], s))
		}
	}
	fmt.Fprintf(&b, "%s%d (%s)\n\n", styles.Label.Render("watchers"), len(st.Watchers), strings.Join(parts, ", "))

	for _, id := range st.Watchers {
		mark := "  "
		if id == st.MainWatcher {
			mark = styles.LeaderMark.Render("★ ")
		}
		fmt.Fprintf(&b, "%s%-36s  %s\n", mark, id, styles.Status(string(st.StatusOf(id))))
	}
	b.WriteString("\n")
	return b.String()
}
