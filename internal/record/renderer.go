package record

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
)

// Renderer serializes a Payload for display.
type Renderer interface {
	Render(p *Payload) ([]byte, error)
}

// JSONRenderer renders a Payload as indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(p *Payload) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// TextRenderer renders a Payload as an aligned key/value block.
type TextRenderer struct{}

func (r *TextRenderer) Render(p *Payload) ([]byte, error) {
	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"Start", p.StartTimestamp},
		{"Stop", p.StopTimestamp},
		{"Elapsed", p.ElapsedFormatted},
		{"Description", orDash(p.Description)},
		{"Notes", orDash(p.Notes)},
		{"Project", orDash(p.ProjectName)},
		{"Project No.", orDash(p.ProjectNumber)},
	}
	for _, row := range rows {
		fmt.Fprintf(tw, "%s:\t%s\n", row[0], row[1])
	}
	if err := tw.Flush(); err != nil {
		return nil, fmt.Errorf("render record: %w", err)
	}
	return []byte(sb.String()), nil
}

// Parse decodes a JSON-encoded Payload, as stored in the ledger.
func Parse(data []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse record payload: %w", err)
	}
	return &p, nil
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
