package amqp

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"catreport/internal/report"
)

// Format is the file a worker writes next to the HTML page.
type Format string

const (
	FormatHTML Format = "html" // page plus PNG chart
	FormatXLSX Format = "xlsx" // page plus spreadsheet export
)

// ParseFormat accepts "html" or "xlsx"; empty means html.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatHTML, nil
	case FormatHTML, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}

// ReportRequest asks a worker to render one report to disk.
type ReportRequest struct {
	ID          uuid.UUID `json:"id"`
	Kind        string    `json:"kind"`
	Preset      string    `json:"preset"`
	Format      Format    `json:"format"`
	RequestedAt time.Time `json:"requested_at"`
}

func NewReportRequest(def report.Definition, format Format) *ReportRequest {
	if format == "" {
		format = FormatHTML
	}
	return &ReportRequest{
		ID:          uuid.New(),
		Kind:        def.Kind.Slug(),
		Preset:      def.Preset.String(),
		Format:      format,
		RequestedAt: time.Now().UTC(),
	}
}

// Definition validates the kind and preset.
func (m *ReportRequest) Definition() (report.Definition, error) {
	return report.ParseDefinition(m.Kind, m.Preset)
}

func (m *ReportRequest) Validate() error {
	if m.ID == uuid.Nil {
		return fmt.Errorf("missing request id")
	}
	switch m.Format {
	case FormatHTML, FormatXLSX:
	default:
		return fmt.Errorf("unknown format %q", m.Format)
	}
	_, err := m.Definition()
	return err
}

func (m *ReportRequest) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportRequestFromJSON decodes and validates a request.
func ReportRequestFromJSON(data []byte) (*ReportRequest, error) {
	var msg ReportRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
