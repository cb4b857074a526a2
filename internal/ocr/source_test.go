package ocr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	name string
	args []string
}

// scriptedRunner fakes pdftoppm by writing the expected PNG and tesseract
// by returning canned text.
type scriptedRunner struct {
	calls     []call
	ocrOut    string
	renderErr error
}

func (r *scriptedRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	r.calls = append(r.calls, call{name: name, args: args})
	switch name {
	case "pdftoppm":
		if r.renderErr != nil {
			return nil, []byte("syntax error"), r.renderErr
		}
		prefix := args[len(args)-1]
		if err := os.WriteFile(prefix+".png", []byte("png"), 0o644); err != nil {
			return nil, nil, err
		}
		return nil, nil, nil
	case "tesseract":
		return []byte(r.ocrOut), nil, nil
	}
	return nil, nil, errors.New("unexpected command " + name)
}

func TestConfigDPIFollowsZoom(t *testing.T) {
	assert.Equal(t, 216, Config{}.DPI())
	assert.Equal(t, 144, Config{Zoom: 2}.DPI())
}

func TestOCRPageInvokesRendererAndTesseract(t *testing.T) {
	runner := &scriptedRunner{ocrOut: "GSTIN 29ABCDE1234F1Z5"}
	s := &PDFSource{
		cfg:    Config{TessdataDir: "/opt/tessdata", WorkDir: t.TempDir()}.withDefaults(),
		runner: runner,
		logger: quietLogger(),
		path:   "/data/in.pdf",
	}

	text, err := s.ocrPage(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "GSTIN 29ABCDE1234F1Z5", text)

	require.Len(t, runner.calls, 2)
	render := runner.calls[0]
	assert.Equal(t, "pdftoppm", render.name)
	assert.Equal(t, []string{"-r", "216", "-f", "3", "-l", "3", "-png", "-singlefile", "/data/in.pdf"}, render.args[:9])

	tess := runner.calls[1]
	assert.Equal(t, "tesseract", tess.name)
	assert.Equal(t, "stdout", tess.args[1])
	assert.Equal(t, []string{"-l", "eng", "--tessdata-dir", "/opt/tessdata"}, tess.args[2:])
	assert.Equal(t, ".png", filepath.Ext(tess.args[0]))

	_, statErr := os.Stat(filepath.Dir(tess.args[0]))
	assert.True(t, os.IsNotExist(statErr), "scratch dir removed")
}

func TestOCRPageRenderFailureIsReturned(t *testing.T) {
	s := &PDFSource{
		cfg:    Config{WorkDir: t.TempDir()}.withDefaults(),
		runner: &scriptedRunner{renderErr: errors.New("exit status 1")},
		logger: quietLogger(),
		path:   "/data/in.pdf",
	}
	_, err := s.ocrPage(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "render")
	assert.Contains(t, err.Error(), "syntax error")
}

func TestOpenPDFRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o644))
	_, err := OpenPDF(path, Config{}, &scriptedRunner{}, quietLogger())
	assert.Error(t, err)
}
