package notebook

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// imageOutputPlaceholder stands in for rendered image output in OutputText.
const imageOutputPlaceholder = "[Image output]"

// rawNotebook is the subset of nbformat 4 that the tutor reads.
type rawNotebook struct {
	NBFormat int       `json:"nbformat"`
	Cells    []rawCell `json:"cells"`
}

type rawCell struct {
	ID       string          `json:"id"`
	CellType string          `json:"cell_type"`
	Source   json.RawMessage `json:"source"`
	Metadata rawCellMetadata `json:"metadata"`
	Outputs  []rawOutput     `json:"outputs,omitempty"`
}

type rawCellMetadata struct {
	Editable *bool    `json:"editable,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

type rawOutput struct {
	OutputType string                     `json:"output_type"`
	Name       string                     `json:"name,omitempty"`
	Text       json.RawMessage            `json:"text,omitempty"`
	Data       map[string]json.RawMessage `json:"data,omitempty"`
	EName      string                     `json:"ename,omitempty"`
	EValue     string                     `json:"evalue,omitempty"`
}

// LoadFile reads and parses an .ipynb file. The returned notebook's Path is
// set to path.
func LoadFile(path string) (*Notebook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	nb, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing notebook %s: %w", path, err)
	}
	nb.Path = path
	return nb, nil
}

// Parse decodes an nbformat 4 document into an ordered cell sequence.
func Parse(r io.Reader) (*Notebook, error) {
	var raw rawNotebook
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding notebook JSON: %w", err)
	}
	if raw.NBFormat != 0 && raw.NBFormat < 4 {
		return nil, fmt.Errorf("unsupported nbformat %d (need 4+)", raw.NBFormat)
	}

	nb := &Notebook{Cells: make([]Cell, 0, len(raw.Cells))}
	for i, rc := range raw.Cells {
		cell, err := convertCell(rc, i)
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		nb.Cells = append(nb.Cells, cell)
	}
	return nb, nil
}

func convertCell(rc rawCell, position int) (Cell, error) {
	src, err := parseMultiline(rc.Source)
	if err != nil {
		return Cell{}, fmt.Errorf("source: %w", err)
	}

	kind := KindUnknown
	switch rc.CellType {
	case "code":
		kind = KindCode
	case "markdown":
		kind = KindMarkdown
	}

	editable := true
	if rc.Metadata.Editable != nil {
		editable = *rc.Metadata.Editable
	}

	cell := Cell{
		ID:       rc.ID,
		Kind:     kind,
		Text:     src,
		Tags:     uniqueTags(rc.Metadata.Tags),
		Editable: editable,
		Position: position,
	}

	if kind == KindMarkdown {
		cell.Links, cell.ImageSources = extractLinksAndImages(src)
	}

	if kind == KindCode && len(rc.Outputs) > 0 {
		parts := make([]string, 0, len(rc.Outputs))
		for j, out := range rc.Outputs {
			rendered, images, isErr, err := renderOutput(out)
			if err != nil {
				return Cell{}, fmt.Errorf("output %d: %w", j, err)
			}
			if isErr {
				cell.HasError = true
			}
			cell.ImageSources = append(cell.ImageSources, images...)
			parts = append(parts, rendered)
		}
		cell.OutputText = StrPtr(strings.Join(parts, "\n"))
	}

	return cell, nil
}

// renderOutput turns one output bundle into text, mirroring the precedence
// image > html > plain > raw JSON.
func renderOutput(out rawOutput) (text string, images []string, isErr bool, err error) {
	switch out.OutputType {
	case "error":
		return fmt.Sprintf("%s: %s", out.EName, out.EValue), nil, true, nil
	case "stream":
		s, err := parseMultiline(out.Text)
		if err != nil {
			return "", nil, false, err
		}
		return s, nil, false, nil
	}

	for _, mime := range []string{"image/png", "image/jpeg", "image/gif"} {
		if raw, ok := out.Data[mime]; ok {
			payload, err := parseMultiline(raw)
			if err != nil {
				return "", nil, false, err
			}
			payload = strings.Join(strings.Fields(payload), "")
			return imageOutputPlaceholder, []string{"data:" + mime + ";base64," + payload}, false, nil
		}
	}
	for _, mime := range []string{"text/html", "text/plain"} {
		if raw, ok := out.Data[mime]; ok {
			s, err := parseMultiline(raw)
			if err != nil {
				return "", nil, false, err
			}
			return s, nil, false, nil
		}
	}
	if len(out.Data) == 0 {
		return "", nil, false, nil
	}

	// Unknown bundle: encoding/json sorts map keys, so this is stable.
	b, err := json.Marshal(out.Data)
	if err != nil {
		return "", nil, false, err
	}
	return string(b), nil, false, nil
}

// parseMultiline decodes an nbformat multiline string, which may be either
// a single string or a list of lines.
func parseMultiline(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}

	// Try array first
	var lines []string
	if err := json.Unmarshal(raw, &lines); err == nil {
		return strings.Join(lines, ""), nil
	}

	var single string
	if err := json.Unmarshal(raw, &single); err != nil {
		return "", err
	}
	return single, nil
}

func uniqueTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
