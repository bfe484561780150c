package kb

import (
	"bytes"
	"compress/zlib"
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// pdfExtractor does best-effort text extraction without a dedicated PDF
// library: it decompresses each FlateDecode content stream and pulls text
// out of the show-text operators (Tj / TJ). This is adequate for text-
// based PDFs; it will not recover text from scanned/image-only PDFs.
//
// No PDF-parsing library appears anywhere in the reference example set,
// so this is implemented on the standard library (compress/zlib) rather
// than adopting an unreferenced third-party dependency.
type pdfExtractor struct {
	client *http.Client
}

func newPDFExtractor() Extractor {
	return &pdfExtractor{client: &http.Client{Timeout: articleFetchTimeout}}
}

var (
	streamPattern   = regexp.MustCompile(`(?s)stream\r?\n(.*?)endstream`)
	showTextPattern = regexp.MustCompile(`(?s)\((?:[^()\\]|\\.)*\)\s*Tj|\[(?:[^\[\]]*)\]\s*TJ`)
	parenRunPattern = regexp.MustCompile(`(?s)\((?:[^()\\]|\\.)*\)`)
)

func (e *pdfExtractor) Extract(ctx context.Context, _ string, url string) (*Extracted, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "kb: build pdf request")
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "kb: fetch pdf")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(ErrExtractionFailed, "pdf fetch returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, errors.Wrap(err, "kb: read pdf body")
	}

	text := extractPDFText(raw)
	if strings.TrimSpace(text) == "" {
		return nil, errors.Wrap(ErrExtractionFailed, "pdf had no extractable text")
	}

	return &Extracted{Content: text}, nil
}

func extractPDFText(raw []byte) string {
	var sb strings.Builder
	for _, m := range streamPattern.FindAllSubmatch(raw, -1) {
		stream := m[1]
		if decoded, ok := inflateStream(stream); ok {
			stream = decoded
		}
		for _, op := range showTextPattern.FindAll(stream, -1) {
			for _, lit := range parenRunPattern.FindAll(op, -1) {
				sb.Write(unescapePDFString(lit))
				sb.WriteByte(' ')
			}
		}
	}
	return sb.String()
}

func inflateStream(data []byte) ([]byte, bool) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}
	defer r.Close()
	out, err := io.ReadAll(io.LimitReader(r, 16<<20))
	if err != nil {
		return nil, false
	}
	return out, true
}

func unescapePDFString(lit []byte) []byte {
	inner := bytes.TrimSuffix(bytes.TrimPrefix(lit, []byte("(")), []byte(")"))
	replacer := strings.NewReplacer(`\(`, "(", `\)`, ")", `\\`, `\`)
	return []byte(replacer.Replace(string(inner)))
}
