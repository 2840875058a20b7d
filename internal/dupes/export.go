package dupes

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// exported is the JSON shape of one group. Other tools read this format, so
// fields are only ever added.
type exported struct {
	Size  int64    `json:"size"`
	Paths []string `json:"paths"`
}

// WriteJSON writes groups as a JSON array in the given order. No groups
// are written as [].
func WriteJSON(w io.Writer, groups []Group) error {
	out := make([]exported, 0, len(groups))
	for _, g := range groups {
		out = append(out, exported{Size: g.Size, Paths: g.Paths})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal groups: %w", err)
	}
	data = append(data, '\n')

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write groups: %w", err)
	}
	return nil
}

// SaveJSON writes groups to the file at path.
func SaveJSON(path string, groups []Group) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := WriteJSON(f, groups); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// LoadJSON reads groups saved by SaveJSON. Only sizes and paths survive the
// round trip.
func LoadJSON(path string) ([]Group, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var in []exported
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("failed to unmarshal groups: %w", err)
	}

	groups := make([]Group, 0, len(in))
	for _, e := range in {
		groups = append(groups, Group{Size: e.Size, Paths: e.Paths})
	}
	return groups, nil
}
