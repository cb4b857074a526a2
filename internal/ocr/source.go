package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/ledongthuc/pdf"
)

// PageSource yields, for one 1-based page, the embedded text layer and an
// OCR reading of the rendered page. An error is fatal to the document.
type PageSource interface {
	PageCount() int
	RenderAndExtract(ctx context.Context, page int) (native, ocrText string, err error)
}

// pdfBaseDPI is the resolution at which a zoom factor of 1 renders.
const pdfBaseDPI = 72

type Config struct {
	Pdftoppm      string  // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract     string  // binary name or absolute path; if empty -> "tesseract"
	TesseractLang string  // default "eng"
	TessdataDir   string
	Zoom          float64 // render upscaling over 72 DPI, default 3.0
	DisableOCR    bool    // native text only
	WorkDir       string  // scratch space for rendered pages; default os.TempDir()
}

func (c Config) withDefaults() Config {
	if c.Pdftoppm == "" {
		c.Pdftoppm = "pdftoppm"
	}
	if c.Tesseract == "" {
		c.Tesseract = "tesseract"
	}
	if c.TesseractLang == "" {
		c.TesseractLang = "eng"
	}
	if c.Zoom <= 0 {
		c.Zoom = 3.0
	}
	return c
}

// DPI is the pdftoppm resolution implied by Zoom.
func (c Config) DPI() int {
	return int(c.withDefaults().Zoom * pdfBaseDPI)
}

// PDFSource reads native text with a pure-Go PDF parser and OCRs pages by
// rasterizing with pdftoppm and reading them with tesseract.
type PDFSource struct {
	cfg    Config
	runner Runner
	logger *slog.Logger

	path   string
	file   *os.File
	reader *pdf.Reader
	mu     sync.Mutex // guards reader
}

// OpenPDF opens path for page-wise extraction. Close releases the file.
func OpenPDF(path string, cfg Config, runner Runner, logger *slog.Logger) (*PDFSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ExecRunner{Logger: logger}
	}
	f, r, err := pdf.Open(path)
	if err != nil {
		if f != nil {
			_ = f.Close()
		}
		return nil, fmt.Errorf("open pdf %s: %w", filepath.Base(path), err)
	}
	return &PDFSource{
		cfg:    cfg.withDefaults(),
		runner: runner,
		logger: logger,
		path:   path,
		file:   f,
		reader: r,
	}, nil
}

func (s *PDFSource) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

func (s *PDFSource) PageCount() int {
	return s.reader.NumPage()
}

func (s *PDFSource) RenderAndExtract(ctx context.Context, page int) (string, string, error) {
	native := s.nativeText(page)
	if s.cfg.DisableOCR {
		return native, "", nil
	}
	ocrText, err := s.ocrPage(ctx, page)
	if err != nil {
		return native, "", fmt.Errorf("page %d: %w", page, err)
	}
	return native, ocrText, nil
}

// nativeText returns the page's text layer. A page without a usable text
// layer reads as empty; that is the normal case for scans.
func (s *PDFSource) nativeText(page int) (text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("ocr.native_text.panic", "page", page, "recovered", fmt.Sprint(r))
			text = ""
		}
	}()

	p := s.reader.Page(page)
	if p.V.IsNull() {
		return ""
	}
	txt, err := p.GetPlainText(nil)
	if err != nil {
		s.logger.Warn("ocr.native_text.failed", "page", page, "error", err)
		return ""
	}
	return txt
}

func (s *PDFSource) ocrPage(ctx context.Context, page int) (string, error) {
	tmpDir, err := os.MkdirTemp(s.cfg.WorkDir, "it-page-*")
	if err != nil {
		return "", err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			s.logger.Warn("ocr.tempdir.cleanup_failed", "dir", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	n := strconv.Itoa(page)
	// pdftoppm -r <dpi> -f n -l n -png -singlefile <in.pdf> <tmp/page>
	_, errb, err := s.runner.Run(ctx, s.cfg.Pdftoppm,
		"-r", strconv.Itoa(s.cfg.DPI()), "-f", n, "-l", n, "-png", "-singlefile", s.path, prefix)
	if err != nil {
		return "", fmt.Errorf("render: %w: %s", err, truncate(string(errb), 512))
	}
	img := prefix + ".png"
	if _, statErr := os.Stat(img); statErr != nil {
		return "", fmt.Errorf("render produced no image: %w", statErr)
	}

	args := []string{img, "stdout", "-l", s.cfg.TesseractLang}
	if s.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", s.cfg.TessdataDir)
	}
	out, errb, err := s.runner.Run(ctx, s.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}
	return string(out), nil
}
