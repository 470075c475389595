package modelfile

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gozero/infercore/internal/board"
	"github.com/gozero/infercore/internal/model"
)

func sampleDefinition() *Definition {
	return &Definition{
		Path: "test.model",
		Metadata: Metadata{
			Engine:        "fake",
			InputFeatures: "agz",
			InputLayout:  "nhwc",
			BoardSize:     uint64(board.N),
		},
		Bytes: []byte{1, 2, 3, 4},
	}
}

func TestWriteThenReadDefinitionRoundTrips(t *testing.T) {
	def := sampleDefinition()
	var buf bytes.Buffer
	require.NoError(t, WriteDefinition(&buf, def))

	got, err := ReadDefinition("test.model", &buf)
	require.NoError(t, err)
	require.Equal(t, def.Metadata, got.Metadata)
	require.Equal(t, def.Bytes, got.Bytes)
}

func TestReadDefinitionRejectsBadMagic(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("notmagic!")
	buf.Write(make([]byte, 32-9))
	_, err := ReadDefinition("x", &buf)
	require.Error(t, err)
}

func TestReadDefinitionRejectsWrongBoardSize(t *testing.T) {
	def := sampleDefinition()
	def.Metadata.BoardSize = 19
	var buf bytes.Buffer
	require.NoError(t, WriteDefinition(&buf, def))
	_, err := ReadDefinition("test.model", &buf)
	require.Error(t, err)
}

func TestFeatureDescriptorFromMetadata(t *testing.T) {
	def := sampleDefinition()
	d, err := def.FeatureDescriptor()
	require.NoError(t, err)
	require.Equal(t, 17, d.PlaneCount)
}

func TestParseSpecEngineDevicePath(t *testing.T) {
	p, err := parseSpec("accelerator:0,/models/gen42.bin")
	require.NoError(t, err)
	require.Equal(t, "accelerator", p.engine)
	require.Equal(t, "0", p.device)
	require.Equal(t, "/models/gen42.bin", p.rest)
}

func TestParseSpecRejectsMissingComma(t *testing.T) {
	_, err := parseSpec("accelerator:0")
	require.Error(t, err)
}

func TestNewFromSpecRandomEngine(t *testing.T) {
	m, err := NewFromSpec("random:42,1.0:0.5")
	require.NoError(t, err)
	require.NotNil(t, m)
	defer m.Close()
}

func TestNewFromSpecUnregisteredEngineFails(t *testing.T) {
	_, err := NewFromSpec("nonexistent-engine,/some/path")
	require.Error(t, err)
}

func TestRegisteredEngineSpecFailsWithoutModelFile(t *testing.T) {
	RegisterFactory("test-engine-for-registry", func(def *Definition, device string) (model.Model, error) {
		return model.NewFakeModel("fake", nil, board.ModelOutput{}), nil
	})
	m, err := NewFromSpec("test-engine-for-registry,/nonexistent/path")
	require.Error(t, err)
	require.Nil(t, m)
}

func TestRegisteredEnginesIncludesRegisteredEngine(t *testing.T) {
	RegisterFactory("test-engine-for-listing", func(def *Definition, device string) (model.Model, error) {
		return nil, nil
	})
	require.Contains(t, RegisteredEngines(), "test-engine-for-listing")
}
