// Package validation holds request-level checks that run before any
// scan record exists.
package validation

import (
	"fmt"
	"mime/multipart"
	"regexp"
	"strings"
)

const imageContentTypePrefix = "image/"

var unsafeFilenameRe = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// ValidateImageUpload rejects uploads that are missing or do not
// declare an image content type. Rejection happens before any bytes
// are stored or any record is created.
func ValidateImageUpload(header *multipart.FileHeader) error {
	if header == nil {
		return fmt.Errorf("no image file provided")
	}
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, imageContentTypePrefix) {
		return fmt.Errorf("file must be an image, got content type %q", contentType)
	}
	return nil
}

// SanitizeFilename replaces every character outside [a-zA-Z0-9.-] with
// an underscore so client-supplied names are safe to store.
func SanitizeFilename(name string) string {
	return unsafeFilenameRe.ReplaceAllString(name, "_")
}
