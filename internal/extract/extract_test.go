package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"hirelens-backend/internal/shared/storage/object/local"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve">Skills: </w:t></w:r><w:r><w:t>Python, Docker</w:t></w:r></w:p>
    <w:p><w:r><w:t>Pune</w:t><w:tab/><w:t>India</w:t></w:r></w:p>
  </w:body>
</w:document>`

func buildDOCX(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create zip entry: %v", err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write zip entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

// buildPDF writes a single-page PDF with a correct cross-reference table.
func buildPDF(t *testing.T, text string) []byte {
	t.Helper()
	stream := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestExtractDOCXJoinsParagraphs(t *testing.T) {
	data := buildDOCX(t, map[string]string{"word/document.xml": documentXML})

	got, err := Extract(context.Background(), data, "Resume.DOCX")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	want := "Jane Doe\nSkills: Python, Docker\nPune\tIndia"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestExtractDOCXMissingDocumentFails(t *testing.T) {
	data := buildDOCX(t, map[string]string{"notes.txt": "hello"})

	_, err := Extract(context.Background(), data, "resume.docx")
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}

func TestExtractPDFReadsPageText(t *testing.T) {
	data := buildPDF(t, "Hello Resume")

	got, err := Extract(context.Background(), data, "resume.pdf")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.Contains(got, "Hello") {
		t.Fatalf("expected page text, got %q", got)
	}
}

func TestExtractCorruptPDFFails(t *testing.T) {
	_, err := Extract(context.Background(), []byte("not a pdf at all"), "resume.pdf")
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}

func TestExtractUnsupportedFormat(t *testing.T) {
	for _, name := range []string{"resume.txt", "resume.doc", "resume"} {
		_, err := Extract(context.Background(), []byte("x"), name)
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("%s: expected ErrUnsupportedFormat, got %v", name, err)
		}
	}
}

func TestSupportedExtension(t *testing.T) {
	cases := map[string]bool{
		"cv.pdf":   true,
		"cv.PDF":   true,
		"cv.docx":  true,
		"cv.doc":   false,
		"cv.pdf.x": false,
	}
	for name, want := range cases {
		if got := SupportedExtension(name); got != want {
			t.Fatalf("SupportedExtension(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestExtractFromStore(t *testing.T) {
	store := local.New(t.TempDir())
	data := buildDOCX(t, map[string]string{"word/document.xml": documentXML})
	key, _, _, err := store.Save(context.Background(), "jobs/1", "cv.docx", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := ExtractFromStore(context.Background(), store, key, "cv.docx")
	if err != nil {
		t.Fatalf("extract from store: %v", err)
	}
	if !strings.HasPrefix(got, "Jane Doe\n") {
		t.Fatalf("unexpected text %q", got)
	}
}
