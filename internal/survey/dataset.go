// Package survey holds the in-memory survey dataset and the query engine over it.
package survey

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

//go:embed data/responses.json
var bundledResponses []byte

// Response is one respondent's answers keyed by question text.
type Response map[string]any

// Dataset is an ordered, read-only list of responses. It is built once at
// start-up and shared by every request.
type Dataset struct {
	responses []Response
}

type datasetFile struct {
	Responses []Response `json:"responses"`
}

// NewDataset copies responses into a new Dataset.
func NewDataset(responses []Response) *Dataset {
	cp := make([]Response, len(responses))
	copy(cp, responses)
	return &Dataset{responses: cp}
}

// Len returns the number of responses.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.responses)
}

// Responses returns the underlying records. Callers must not modify them.
func (d *Dataset) Responses() []Response {
	if d == nil {
		return nil
	}
	return d.responses
}

// LoadJSON reads a dataset in the {"responses": [...]} shape.
func LoadJSON(r io.Reader) (*Dataset, error) {
	var f datasetFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode survey dataset: %w", err)
	}
	return &Dataset{responses: f.Responses}, nil
}

// LoadFile reads a dataset from a JSON file on disk.
func LoadFile(path string) (*Dataset, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return LoadJSON(fh)
}

// Bundled returns the dataset compiled into the binary.
func Bundled() (*Dataset, error) {
	var f datasetFile
	if err := json.Unmarshal(bundledResponses, &f); err != nil {
		return nil, fmt.Errorf("decode bundled survey dataset: %w", err)
	}
	return &Dataset{responses: f.Responses}, nil
}
