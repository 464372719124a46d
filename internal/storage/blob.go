// Package storage uploads payment proofs and avatars to a blob store and
// returns durable URLs for them.
package storage

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"path"
	"strings"
)

const AppTag = "luwas-app"

type BlobStore interface {
	Upload(ctx context.Context, objectPath string, r io.Reader) (string, error)
	Delete(ctx context.Context, objectPath string) error
}

// sniff peeks at the head of r to detect its content type without consuming it.
func sniff(r io.Reader) (io.Reader, string) {
	br := bufio.NewReaderSize(r, 512)
	head, _ := br.Peek(512)
	if len(head) == 0 {
		return br, "application/octet-stream"
	}
	return br, http.DetectContentType(head)
}

// publicID strips the extension; Cloudinary appends the detected format itself.
func publicID(objectPath string) string {
	objectPath = strings.TrimPrefix(objectPath, "/")
	return strings.TrimSuffix(objectPath, path.Ext(objectPath))
}
