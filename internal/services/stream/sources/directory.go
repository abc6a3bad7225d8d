package sources

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Egham-7/sitegen-mock/internal/services/stream/contracts"

	"github.com/gabriel-vasile/mimetype"
)

// DirectoryOpener resolves identifiers to <root>/<identifier><extension>
type DirectoryOpener struct {
	root      string
	extension string
}

// NewDirectoryOpener creates an opener rooted at dir
func NewDirectoryOpener(dir, extension string) *DirectoryOpener {
	return &DirectoryOpener{
		root:      filepath.Clean(dir),
		extension: extension,
	}
}

// Open opens the file for identifier and sniffs its media type
func (o *DirectoryOpener) Open(ctx context.Context, identifier string) (contracts.ContentHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validIdentifier(identifier) {
		return nil, fmt.Errorf("identifier %q: %w", identifier, contracts.ErrContentNotFound)
	}

	path := filepath.Join(o.root, identifier+o.extension)
	file, err := os.Open(path) // #nosec G304 - identifier is a single path element
	if err != nil {
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, fmt.Errorf("%s is a directory: %w", path, contracts.ErrContentNotFound)
	}

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to detect media type of %s: %w", path, err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to rewind %s: %w", path, err)
	}

	return &fileHandle{File: file, mediaType: mtype.String()}, nil
}

// validIdentifier accepts a single non-hidden path element
func validIdentifier(identifier string) bool {
	if identifier == "" || strings.HasPrefix(identifier, ".") {
		return false
	}
	return !strings.ContainsAny(identifier, `/\`) && filepath.Base(identifier) == identifier
}

type fileHandle struct {
	*os.File
	mediaType string
}

func (h *fileHandle) MediaType() string {
	return h.mediaType
}
