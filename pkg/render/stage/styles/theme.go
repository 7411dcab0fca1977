package styles

import (
	"bytes"
	"fmt"
)

// palette is a flat colour theme shared by the built-in styles.
type palette struct {
	name        string
	background  string
	ring        string
	card        string
	cardStroke  string
	text        string
	dimmed      string
	winner      string
	winnerText  string
	spotlight   string
	statusColor string
}

// Light is a white theme for print.
func Light() Style {
	return palette{
		name:        "light",
		background:  "#ffffff",
		ring:        "#d0d7de",
		card:        "#f6f8fa",
		cardStroke:  "#57606a",
		text:        "#24292f",
		dimmed:      "#d8dee4",
		winner:      "#ffd33d",
		winnerText:  "#24292f",
		spotlight:   "#bf8700",
		statusColor: "#24292f",
	}
}

// Dark is the stage theme used for live displays.
func Dark() Style {
	return palette{
		name:        "dark",
		background:  "#0d1117",
		ring:        "#30363d",
		card:        "#161b22",
		cardStroke:  "#8b949e",
		text:        "#e6edf3",
		dimmed:      "#21262d",
		winner:      "#f2cc60",
		winnerText:  "#0d1117",
		spotlight:   "#f2cc60",
		statusColor: "#e6edf3",
	}
}

func (p palette) Name() string { return p.name }

func (p palette) RenderDefs(buf *bytes.Buffer, width, height float64) {
	fmt.Fprintf(buf, `  <defs>
    <filter id="glow" x="-50%%" y="-50%%" width="200%%" height="200%%">
      <feGaussianBlur stdDeviation="6" result="blur"/>
      <feMerge><feMergeNode in="blur"/><feMergeNode in="SourceGraphic"/></feMerge>
    </filter>
  </defs>
  <rect class="background" x="0" y="0" width="%.1f" height="%.1f" fill="%s"/>
`, width, height, p.background)
}

func (p palette) RenderRing(buf *bytes.Buffer, r Ring) {
	fmt.Fprintf(buf, `  <circle class="ring" data-ring="%d" cx="%.2f" cy="%.2f" r="%.2f" fill="none" stroke="%s" stroke-dasharray="4 6"/>`+"\n",
		r.Index, r.CX, r.CY, r.Radius, p.ring)
}

func (p palette) RenderCard(buf *bytes.Buffer, c Card) {
	fill, stroke, opacity, class := p.card, p.cardStroke, 1.0, "card"
	switch c.State {
	case CardEliminated:
		fill, stroke, opacity, class = p.dimmed, p.dimmed, 0.35, "card eliminated"
	case CardWinner:
		fill, stroke, class = p.winner, p.spotlight, "card winner"
	}
	rx := c.W * 0.12
	fmt.Fprintf(buf, `  <rect id="card-%s" class="%s" data-slot="%d" x="%.2f" y="%.2f" width="%.2f" height="%.2f" rx="%.2f" fill="%s" stroke="%s" stroke-width="2" opacity="%.2f"`,
		EscapeXML(c.ID), class, c.Slot, c.X, c.Y, c.W, c.H, rx, fill, stroke, opacity)
	if c.State == CardWinner {
		buf.WriteString(` filter="url(#glow)"`)
	}
	buf.WriteString("/>\n")
}

func (p palette) RenderText(buf *bytes.Buffer, c Card) {
	color, opacity := p.text, 1.0
	switch c.State {
	case CardEliminated:
		opacity = 0.35
	case CardWinner:
		color = p.winnerText
	}
	size := FontSize(c)
	fmt.Fprintf(buf, `  <text class="initials" x="%.2f" y="%.2f" font-family="sans-serif" font-size="%.1f" font-weight="bold" text-anchor="middle" fill="%s" opacity="%.2f">%s</text>`+"\n",
		c.CX, c.CY-size*0.2, size*1.6, color, opacity, EscapeXML(Initials(c.Label)))
	fmt.Fprintf(buf, `  <text class="card-label" data-card="%s" x="%.2f" y="%.2f" font-family="sans-serif" font-size="%.1f" text-anchor="middle" fill="%s" opacity="%.2f">%s</text>`+"\n",
		EscapeXML(c.ID), c.CX, c.Y+c.H-size, size, color, opacity, EscapeXML(TruncateLabel(c)))
}

func (p palette) RenderSpotlight(buf *bytes.Buffer, c Card) {
	r := max(c.W, c.H) * 0.75
	fmt.Fprintf(buf, `  <circle class="spotlight" data-slot="%d" cx="%.2f" cy="%.2f" r="%.2f" fill="%s" fill-opacity="0.15" stroke="%s" stroke-width="3" filter="url(#glow)"/>`+"\n",
		c.Slot, c.CX, c.CY, r, p.spotlight, p.spotlight)
}

func (p palette) RenderStatus(buf *bytes.Buffer, text string, width float64) {
	fmt.Fprintf(buf, `  <text class="status" x="%.2f" y="32" font-family="sans-serif" font-size="22" text-anchor="middle" fill="%s">%s</text>`+"\n",
		width/2, p.statusColor, EscapeXML(text))
}
