package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/common"
	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
	"github.com/joseph-ayodele/invoice-tracker/internal/extract"
	"github.com/joseph-ayodele/invoice-tracker/internal/llm"
	"github.com/joseph-ayodele/invoice-tracker/internal/ocr"
	"github.com/joseph-ayodele/invoice-tracker/internal/repository"
	"github.com/joseph-ayodele/invoice-tracker/internal/storage"
	"github.com/joseph-ayodele/invoice-tracker/internal/validation"
)

// blankPDF builds a valid PDF whose pages carry no text layer, like a scan.
func blankPDF(pages int) []byte {
	var b bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, b.Len())
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}
	b.WriteString("%PDF-1.4\n")
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	kids := make([]string, pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages))
	for i := 0; i < pages; i++ {
		obj("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return b.Bytes()
}

// scannerRunner fakes pdftoppm by writing the PNG it would produce and
// tesseract by returning page-numbered text.
type scannerRunner struct {
	mu    sync.Mutex
	pages int
}

func (r *scannerRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	switch name {
	case "pdftoppm":
		prefix := args[len(args)-1]
		return nil, nil, os.WriteFile(prefix+".png", []byte("png"), 0o644)
	case "tesseract":
		r.mu.Lock()
		r.pages++
		r.mu.Unlock()
		return []byte("TAX INVOICE\nAcme Traders\nGSTIN 27ABCDE1234F2Z5\n"), nil, nil
	}
	return nil, nil, errors.New("unexpected command " + name)
}

type fakeExtractor struct {
	out  llm.RawExtraction
	err  error
	text string
}

func (f *fakeExtractor) Extract(_ context.Context, _ []string, text string) (llm.RawExtraction, error) {
	f.text = text
	return f.out, f.err
}

type stallingText struct{}

func (stallingText) ExtractText(ctx context.Context, _, _ string) (ocr.DocumentText, error) {
	<-ctx.Done()
	return ocr.DocumentText{}, ctx.Err()
}

type harness struct {
	ctx      context.Context
	proc     *Processor
	invoices repository.InvoiceRepository
	audit    repository.AuditRepository
	files    *storage.LocalStore
	root     string
	runner   *scannerRunner

	site     *entity.User
	outsider *entity.User
	hr       *entity.User
	siteDept uuid.UUID
	farDept  uuid.UUID
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHarness(t *testing.T, fe llm.FieldExtractor) *harness {
	t.Helper()
	ctx := context.Background()
	logger := quietLogger()

	db, err := repository.OpenSQLite(ctx, "file:"+uuid.NewString()+"?mode=memory&cache=shared", logger)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.EnsureSchema(ctx))

	root := t.TempDir()
	files, err := storage.NewLocalStore(root)
	require.NoError(t, err)

	users := repository.NewUserRepository(db, logger)
	site := &entity.Department{Name: "Site"}
	far := &entity.Department{Name: "Head Office"}
	require.NoError(t, users.CreateDepartment(ctx, site))
	require.NoError(t, users.CreateDepartment(ctx, far))

	mk := func(name string, role constants.Role, dept uuid.UUID) *entity.User {
		u := &entity.User{Username: name, Role: role, IsActive: true, DepartmentID: uuid.NullUUID{UUID: dept, Valid: true}}
		require.NoError(t, users.Create(ctx, u))
		return u
	}

	h := &harness{
		ctx:      ctx,
		invoices: repository.NewInvoiceRepository(db, logger),
		audit:    repository.NewAuditRepository(db, logger),
		files:    files,
		root:     root,
		runner:   &scannerRunner{},
		site:     mk("site-engineer", constants.RoleSite, site.ID),
		outsider: mk("buyer", constants.RoleProcurement, far.ID),
		hr:       mk("hr", constants.RoleHR, site.ID),
		siteDept: site.ID,
		farDept:  far.ID,
	}

	text := NewOCRStage(ocr.Config{WorkDir: t.TempDir()}, h.runner, ocr.NewAcquirer(logger, ocr.WithPageWorkers(2)), logger)
	parse := NewParseStage(logger, fe, extract.NewReconciler(validation.NewGSTINValidator("AAECS5013J"), logger))
	h.proc = NewProcessor(Config{}, Deps{
		Text:     text,
		Parse:    parse,
		Files:    files,
		Tx:       db,
		Invoices: h.invoices,
		Audit:    h.audit,
		Users:    users,
	}, logger)
	return h
}

func (h *harness) storedFiles(t *testing.T) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(h.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			out = append(out, p)
		}
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestValidateUpload(t *testing.T) {
	pdf := blankPDF(1)
	tests := []struct {
		name     string
		filename string
		data     []byte
		max      int64
		wantErr  string
	}{
		{"ok", "invoice.PDF", pdf, 0, ""},
		{"no name", "  ", pdf, 0, "No file provided"},
		{"empty", "a.pdf", nil, 0, "Empty file"},
		{"too large", "a.pdf", pdf, 10, "File too large"},
		{"extension", "a.txt", pdf, 0, "Only PDF files are allowed"},
		{"mime", "a.pdf", []byte("hello, plain text"), 0, "Expected PDF"},
		{"corrupt", "a.pdf", []byte("%PDF-1.4\nnot really a pdf"), 0, "corrupted"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpload(tt.filename, tt.data, tt.max)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, common.ErrFileValidation)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestUploadScannedInvoice(t *testing.T) {
	fe := &fakeExtractor{out: llm.RawExtraction{
		Header: map[string]string{
			constants.FieldInvoiceNumber: "INV/2024/118",
			constants.FieldVendorName:    "Acme Traders",
			constants.FieldGSTNumber:     "27ABCDE1234F2Z5",
			constants.FieldInvoiceDate:   "05/03/2024",
		},
		LineItems: []map[string]string{
			{constants.FieldLineItem: "Cement", constants.FieldBasicAmount: "1000", constants.FieldCGSTAmount: "90", constants.FieldSGSTAmount: "90", constants.FieldTotalAmount: "1180"},
			{constants.FieldLineItem: "Sand", constants.FieldTotalAmount: "500"},
		},
	}}
	h := newHarness(t, fe)

	inv, err := h.proc.Upload(h.ctx, h.site.ID, UploadRequest{Filename: "scan 01.pdf", Data: blankPDF(2)})
	require.NoError(t, err)

	assert.Equal(t, 2, h.runner.pages)
	assert.True(t, inv.UsedOCR)
	assert.Equal(t, constants.StatusExtracted, inv.Status)
	assert.False(t, inv.IsSaved)
	assert.Equal(t, constants.ExtractionOpenAI, inv.ExtractionMethod)
	assert.Equal(t, h.siteDept, inv.DepartmentID.UUID)
	assert.True(t, storage.IsTemp(inv.FilePath))
	assert.Contains(t, fe.text, "Acme Traders")
	assert.Equal(t, 2, strings.Count(inv.RawText, "TAX INVOICE"))

	require.Len(t, inv.LineItems, 2)
	assert.Equal(t, 1, inv.LineItems[0].SNo)
	assert.Equal(t, 2, inv.LineItems[1].SNo)
	assert.Equal(t, "Sand", inv.LineItems[1].LineItem)
	assert.Equal(t, "INV/2024/118", inv.LineItems[1].InvoiceNumber)
	assert.Equal(t, "27ABCDE1234F2Z5", inv.Header.GSTNumber)
	assert.Equal(t, "Cement", inv.Header.LineItem)

	stored, err := h.invoices.Get(h.ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.Header, stored.Header)
	assert.Len(t, stored.LineItems, 2)

	recs, err := h.audit.ByInvoice(h.ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, constants.AuditUploaded, recs[0].Action)
	assert.Equal(t, "Uploaded file: scan_01.pdf", recs[0].Remarks)

	ok, err := h.files.Exists(h.ctx, inv.FilePath)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUploadExtractionFailureLeavesNothing(t *testing.T) {
	h := newHarness(t, &fakeExtractor{err: common.ExtractionError("llm request failed", errors.New("connection refused"))})

	_, err := h.proc.Upload(h.ctx, h.site.ID, UploadRequest{Filename: "a.pdf", Data: blankPDF(1)})
	require.ErrorIs(t, err, common.ErrExtraction)

	all, err := h.invoices.List(h.ctx, repository.InvoiceFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, h.storedFiles(t))
}

func TestUploadMalformedModelOutputStillStores(t *testing.T) {
	h := newHarness(t, &fakeExtractor{out: llm.RawExtraction{Header: map[string]string{}}})

	inv, err := h.proc.Upload(h.ctx, h.site.ID, UploadRequest{Filename: "a.pdf", Data: blankPDF(1)})
	require.NoError(t, err)
	require.Len(t, inv.LineItems, 1)
	assert.Equal(t, "a.pdf", inv.Header.Filename)
	assert.Empty(t, inv.Header.VendorName)
}

func TestUploadManualReview(t *testing.T) {
	h := newHarness(t, nil)

	inv, err := h.proc.Upload(h.ctx, h.site.ID, UploadRequest{Filename: "a.pdf", Data: blankPDF(1)})
	require.NoError(t, err)
	assert.Equal(t, constants.ExtractionManualReview, inv.ExtractionMethod)
	assert.Equal(t, ManualReviewVendor, inv.Header.VendorName)
	assert.Equal(t, "a.pdf", inv.Header.Filename)
}

func TestUploadGuards(t *testing.T) {
	h := newHarness(t, nil)
	pdf := blankPDF(1)

	_, err := h.proc.Upload(h.ctx, h.site.ID, UploadRequest{
		Filename:     "a.pdf",
		Data:         pdf,
		DepartmentID: uuid.NullUUID{UUID: h.farDept, Valid: true},
	})
	reason, ok := common.DenialReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, common.DenyWrongDepartment, reason)

	_, err = h.proc.Upload(h.ctx, h.hr.ID, UploadRequest{Filename: "a.pdf", Data: pdf})
	reason, ok = common.DenialReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, common.DenyWrongRole, reason)

	_, err = h.proc.Upload(h.ctx, uuid.New(), UploadRequest{Filename: "a.pdf", Data: pdf})
	reason, ok = common.DenialReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, common.DenyInactiveUser, reason)

	_, err = h.proc.Upload(h.ctx, h.site.ID, UploadRequest{Filename: "a.pdf", Data: []byte("nope")})
	require.ErrorIs(t, err, common.ErrFileValidation)

	assert.Empty(t, h.storedFiles(t))
}

func TestProcessFileTimeout(t *testing.T) {
	p := NewProcessor(Config{ProcessingTimeout: 20 * time.Millisecond}, Deps{
		Text:  stallingText{},
		Parse: NewParseStage(quietLogger(), nil, nil),
	}, quietLogger())

	_, err := p.ProcessFile(context.Background(), "/nowhere.pdf", "nowhere.pdf")
	require.ErrorIs(t, err, common.ErrExtraction)
	assert.Contains(t, err.Error(), "timed out")
}
