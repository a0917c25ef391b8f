package offer

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const defaultPDFName = "offer.pdf"

type File struct {
	Name string
	MIME string
	Data []byte
}

// DecodePDF раскодирует pdf из base64. Допускается data-URL префикс.
func DecodePDF(b64, fileName string) (File, error) {
	if i := strings.Index(b64, "base64,"); i >= 0 && strings.HasPrefix(b64, "data:") {
		b64 = b64[i+len("base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(b64))
	if err != nil {
		return File{}, fmt.Errorf("decode offer pdf: %w", err)
	}
	name := strings.TrimSpace(fileName)
	if name == "" {
		name = defaultPDFName
	}
	return File{Name: name, MIME: "application/pdf", Data: data}, nil
}
