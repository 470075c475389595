// Package modelfile implements the on-disk model file header, the engine registry, and the
// factory-path-string grammar used to construct a model.Model from a path spec (spec §4.7, §6).
package modelfile

import (
	"encoding/binary"
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/gozero/infercore/internal/board"
	"github.com/gozero/infercore/internal/features"
)

// magic is the 8-byte ASCII header tag every model file must start with.
const magic = "<minigo>"

// headerFixedSize is the byte length of the fixed-size header fields (magic, version,
// file_size, metadata_sz), before the variable-length JSON metadata block.
const headerFixedSize = 32

// fileVersion is the only header version this package understands.
const fileVersion = uint64(1)

// Metadata holds the header's required JSON keys (spec §6).
type Metadata struct {
	Engine        string `json:"engine"`
	InputFeatures string `json:"input_features"`
	InputLayout  string `json:"input_layout"`
	BoardSize     uint64 `json:"board_size"`
	InputType     string `json:"input_type,omitempty"`
	NumReplicas   uint64 `json:"num_replicas,omitempty"`
}

// Definition is a parsed model file: its metadata and the opaque backend-specific payload
// that follows the header, matching the spec's ModelDefinition entity (§3, §4.7).
type Definition struct {
	Path     string
	Metadata Metadata
	Bytes    []byte
}

// FeatureDescriptor builds the features.Descriptor implied by d's metadata.
func (d *Definition) FeatureDescriptor() (*features.Descriptor, error) {
	var layout features.Layout
	switch d.Metadata.InputLayout {
	case "nhwc":
		layout = features.NHWC
	case "nchw":
		layout = features.NCHW
	default:
		return nil, errors.Errorf("modelfile: unknown input_layout %q", d.Metadata.InputLayout)
	}
	switch d.Metadata.InputFeatures {
	case "agz":
		return features.NewAGZDescriptor(layout), nil
	case "mlperf07":
		return features.NewMLPerf07Descriptor(layout), nil
	default:
		return nil, errors.Errorf("modelfile: unknown input_features %q", d.Metadata.InputFeatures)
	}
}

// ReadDefinition parses a model file header and metadata from r, leaving the opaque model
// bytes in Definition.Bytes. path is stored for diagnostics only; it need not be openable
// (callers may read from an already-open handle, e.g. inside an archive).
func ReadDefinition(path string, r io.Reader) (*Definition, error) {
	fixed := make([]byte, headerFixedSize)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return nil, errors.Wrap(err, "modelfile: reading header")
	}
	if string(fixed[0:8]) != magic {
		return nil, errors.Errorf("modelfile: bad magic %q, want %q", fixed[0:8], magic)
	}
	version := binary.LittleEndian.Uint64(fixed[8:16])
	if version != fileVersion {
		return nil, errors.Errorf("modelfile: unsupported version %d", version)
	}
	fileSize := binary.LittleEndian.Uint64(fixed[16:24])
	metadataSize := binary.LittleEndian.Uint64(fixed[24:32])

	metadataBytes := make([]byte, metadataSize)
	if _, err := io.ReadFull(r, metadataBytes); err != nil {
		return nil, errors.Wrap(err, "modelfile: reading metadata")
	}
	var md Metadata
	if err := json.Unmarshal(metadataBytes, &md); err != nil {
		return nil, errors.Wrap(err, "modelfile: parsing metadata JSON")
	}
	if md.BoardSize != uint64(board.N) {
		return nil, errors.Errorf("modelfile: board_size %d does not match compiled-in board size %d", md.BoardSize, board.N)
	}
	if md.Engine == "" {
		return nil, errors.New("modelfile: metadata missing required key \"engine\"")
	}

	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "modelfile: reading model payload")
	}
	_ = fileSize // advisory only; we trust what we actually read

	return &Definition{Path: path, Metadata: md, Bytes: payload}, nil
}

// WriteDefinition serializes d in the on-disk header format, for use by tests and by
// tooling that produces synthetic model files.
func WriteDefinition(w io.Writer, d *Definition) error {
	metadataBytes, err := json.Marshal(d.Metadata)
	if err != nil {
		return errors.Wrap(err, "modelfile: marshaling metadata")
	}
	header := make([]byte, headerFixedSize)
	copy(header[0:8], magic)
	binary.LittleEndian.PutUint64(header[8:16], fileVersion)
	binary.LittleEndian.PutUint64(header[16:24], uint64(headerFixedSize+len(metadataBytes)+len(d.Bytes)))
	binary.LittleEndian.PutUint64(header[24:32], uint64(len(metadataBytes)))
	if _, err := w.Write(header); err != nil {
		return errors.Wrap(err, "modelfile: writing header")
	}
	if _, err := w.Write(metadataBytes); err != nil {
		return errors.Wrap(err, "modelfile: writing metadata")
	}
	_, err = w.Write(d.Bytes)
	return errors.Wrap(err, "modelfile: writing payload")
}
