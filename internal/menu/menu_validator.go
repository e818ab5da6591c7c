package menu

import (
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/maxpollack/Menu/internal/imagebudget"
)

// DetectMediaType sniffs the image bytes and falls back to the type the
// client declared when sniffing is inconclusive (HEIC, for one). Anything
// that is not image/* is rejected.
func DetectMediaType(data []byte, declared string) (string, error) {
	sniffed := http.DetectContentType(data)
	if strings.HasPrefix(sniffed, "image/") {
		return sniffed, nil
	}

	if declared != "" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil && strings.HasPrefix(mt, "image/") &&
			sniffed == "application/octet-stream" {
			return mt, nil
		}
	}

	return "", fmt.Errorf("%w: content looks like %s", imagebudget.ErrInvalidImage, sniffed)
}
