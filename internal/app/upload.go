package app

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"rentfolio/internal/util"
	"rentfolio/pkg/domain"
)

const (
	maxImageBytes    = 10 << 20
	maxDocumentBytes = 25 << 20
)

var imageMIMETypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

var documentMIMETypes = map[string]struct{}{
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"application/vnd.ms-excel": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": {},
	"text/csv": {},
}

// UploadFile validates the declared type and size against the category
// allow-list, then streams the bytes to the media host. Rejections happen
// before any storage call and transfer nothing.
func (a *App) UploadFile(ctx context.Context, category domain.UploadCategory, filename, declaredType string, size int64, r io.Reader) (domain.UploadResult, error) {
	var fe fieldErrors
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." {
		fe.add("file", "filename is required")
	}

	declaredType = normalizeMIME(declaredType)
	var allowed map[string]struct{}
	var ceiling int64
	switch category {
	case domain.CategoryImage:
		allowed, ceiling = imageMIMETypes, maxImageBytes
	case domain.CategoryDocument:
		allowed, ceiling = documentMIMETypes, maxDocumentBytes
	default:
		fe.add("type", "type must be image or document")
	}
	if allowed != nil {
		if _, ok := allowed[declaredType]; !ok {
			fe.add("file", fmt.Sprintf("%s is not an accepted %s type", declaredType, category))
		}
		if size > ceiling {
			fe.add("file", fmt.Sprintf("file exceeds the %d MiB %s limit", ceiling>>20, category))
		}
	}
	if err := fe.err(); err != nil {
		return domain.UploadResult{}, err
	}

	// A generated prefix keeps the original filename while guaranteeing the
	// key never collides with an existing object.
	key := path.Join(string(category)+"s", util.NewID(), sanitizeFilename(filename))
	if err := a.objects.Put(ctx, key, r, size, declaredType); err != nil {
		return domain.UploadResult{}, fmt.Errorf("store file: %w", err)
	}
	return domain.UploadResult{
		URL:          a.objects.ObjectURL(key),
		PublicID:     key,
		OriginalName: filename,
	}, nil
}

func normalizeMIME(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if i := strings.Index(v, ";"); i >= 0 {
		v = strings.TrimSpace(v[:i])
	}
	return v
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "file"
	}
	var b strings.Builder
	b.Grow(len(name))
	lastUnderscore := false
	for _, r := range name {
		if r <= 0x7f {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
				b.WriteRune(r)
				lastUnderscore = false
				continue
			}
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "file"
	}
	return out
}
