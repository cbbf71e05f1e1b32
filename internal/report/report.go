package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Versifine/mcprobe/internal/protocol"
	"github.com/Versifine/mcprobe/internal/session"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Printer writes human-readable session output. It implements
// session.Observer.
type Printer struct {
	w     io.Writer
	color bool

	title lipgloss.Style
	key   lipgloss.Style
	good  lipgloss.Style
	bad   lipgloss.Style
	dim   lipgloss.Style

	expectedUUID string
}

var _ session.Observer = (*Printer)(nil)

func New(w io.Writer, color bool) *Printer {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Printer{
		w:     w,
		color: color,
		title: r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		key:   r.NewStyle().Foreground(lipgloss.Color("241")),
		good:  r.NewStyle().Foreground(lipgloss.Color("42")),
		bad:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		dim:   r.NewStyle().Faint(true),
	}
}

// ColorEnabled resolves an output.color mode against f.
func ColorEnabled(mode string, f *os.File) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		return term.IsTerminal(int(f.Fd()))
	}
}

func (p *Printer) line(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *Printer) field(name string, value any) {
	p.line("  %s %v", p.key.Render(name+":"), value)
}

// Status prints a status query result. An undecodable JSON document is
// printed verbatim.
func (p *Printer) Status(addr string, res *session.StatusResult) {
	p.line("%s", p.title.Render("Server "+addr))
	st, err := ParseStatus(res.JSON)
	if err != nil {
		p.field("status", res.JSON)
	} else {
		p.field("version", fmt.Sprintf("%s (protocol %d)", st.Version.Name, st.Version.Protocol))
		p.field("players", fmt.Sprintf("%d/%d", st.Players.Online, st.Players.Max))
		if len(st.Players.Sample) > 0 {
			names := make([]string, 0, len(st.Players.Sample))
			for _, s := range st.Players.Sample {
				names = append(names, s.Name)
			}
			p.field("online", strings.Join(names, ", "))
		}
		p.field("motd", strings.TrimSpace(st.Description.ClearString()))
	}
	p.line("  %s", p.key.Render(res.Ping.String()))
}

// ExpectUsername records the name being logged in so the offline UUID can be
// compared with the one the server assigns.
func (p *Printer) ExpectUsername(username string) {
	p.expectedUUID = protocol.OfflineUUID(username).String()
}

func (p *Printer) CompressionEnabled(threshold int) {
	p.line("%s", p.dim.Render(fmt.Sprintf("compression enabled, threshold %d bytes", threshold)))
}

func (p *Printer) LoginSucceeded(success *protocol.LoginSuccess) {
	p.line("%s", p.good.Render("Logged in as "+success.Username))
	id := success.UUID.String()
	if p.expectedUUID != "" && id == p.expectedUUID {
		id += " " + p.dim.Render("(offline)")
	}
	p.field("uuid", id)
	for _, prop := range success.Properties {
		signed := ""
		if prop.Signature != nil {
			signed = " " + p.dim.Render("(signed)")
		}
		p.field("property", prop.Name+signed)
	}
}

func (p *Printer) EntitySpawned(e *protocol.SpawnEntity) {
	p.line("+ entity %-6d %-16s at (%.2f, %.2f, %.2f) pitch %d yaw %d head %d data %d velocity (%d, %d, %d)",
		e.EntityID, e.TypeName, e.X, e.Y, e.Z, e.Pitch, e.Yaw, e.HeadYaw, e.Data, e.VelocityX, e.VelocityY, e.VelocityZ)
}

func (p *Printer) PlayerSpawned(pl *protocol.SpawnPlayer) {
	p.line("+ player %-6d %s at (%.2f, %.2f, %.2f) yaw %d pitch %d",
		pl.EntityID, pl.PlayerUUID, pl.X, pl.Y, pl.Z, pl.Yaw, pl.Pitch)
}

func (p *Printer) EntityAnimated(a *protocol.EntityAnimation) {
	p.line("%s", p.dim.Render(fmt.Sprintf("~ entity %d: %s", a.EntityID, a.Name)))
}

// UnknownPacket prints only the first sighting of each ID.
func (p *Printer) UnknownPacket(state protocol.State, packetID int32, count int) {
	if count != 1 {
		return
	}
	p.line("%s", p.dim.Render(fmt.Sprintf("? unknown %s packet 0x%02x", state, packetID)))
}

func (p *Printer) Summary(sum session.Summary) {
	p.line("%s", p.title.Render("Session summary"))
	p.field("entities", sum.Entities)
	p.field("players", sum.Players)
	p.field("animations", sum.Animations)
	p.field("keep alives", sum.KeepAlives)
	p.field("unknown packets", fmt.Sprintf("%d (%d distinct IDs)", sum.UnknownPackets, sum.UnknownIDs))
}

// Error prints err; server disconnects show the decoded reason.
func (p *Printer) Error(err error) {
	var disconnect *protocol.DisconnectError
	if errors.As(err, &disconnect) {
		p.line("%s %s", p.bad.Render("Disconnected during "+disconnect.State.String()+":"), PlainText(disconnect.Reason))
		return
	}
	p.line("%s %v", p.bad.Render("Error:"), err)
}
