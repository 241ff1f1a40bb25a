package app

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"rentfolio/internal/util"
	"rentfolio/pkg/domain"
)

// reconcileDocuments computes the delta between the desired and persisted
// document-URL sets. Pure set difference: order-independent, duplicates
// collapsed. URLs in both sets are left untouched so unchanged documents keep
// their row.
func reconcileDocuments(desired, existing []string) (toAdd, toRemove []string) {
	desiredSet := make(map[string]struct{}, len(desired))
	for _, url := range desired {
		desiredSet[url] = struct{}{}
	}
	existingSet := make(map[string]struct{}, len(existing))
	for _, url := range existing {
		existingSet[url] = struct{}{}
	}
	for _, url := range dedupeURLs(desired) {
		if _, ok := existingSet[url]; !ok {
			toAdd = append(toAdd, url)
		}
	}
	for _, url := range dedupeURLs(existing) {
		if _, ok := desiredSet[url]; !ok {
			toRemove = append(toRemove, url)
		}
	}
	return toAdd, toRemove
}

func dedupeURLs(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, url := range urls {
		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}
		out = append(out, url)
	}
	return out
}

func newDocument(propertyID, url string) domain.PropertyDocument {
	return domain.PropertyDocument{
		ID:         util.NewID(),
		PropertyID: propertyID,
		URL:        url,
		Name:       docNameFromURL(url),
		Type:       docTypeFromURL(url),
		CreatedAt:  time.Now().UTC(),
	}
}

func docNameFromURL(url string) string {
	name := path.Base(strings.TrimSuffix(url, "/"))
	if name == "" || name == "." || name == "/" {
		return "Document"
	}
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return "Document"
	}
	return name
}

func docTypeFromURL(url string) domain.DocumentType {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(docNameFromURL(url)), "."))
	switch ext {
	case "pdf":
		return domain.DocPDF
	case "doc", "docx":
		return domain.DocWord
	case "xls", "xlsx":
		return domain.DocExcel
	case "csv":
		return domain.DocCSV
	default:
		return domain.DocGeneric
	}
}

// AttachDocument adds a single document to an owned property outside the
// full-update flow.
func (a *App) AttachDocument(ctx context.Context, user domain.User, propertyID, url string) (domain.PropertyDocument, error) {
	var fe fieldErrors
	if strings.TrimSpace(url) == "" {
		fe.add("url", "document url is required")
	}
	if strings.TrimSpace(propertyID) == "" {
		fe.add("propertyId", "property id is required")
	}
	if err := fe.err(); err != nil {
		return domain.PropertyDocument{}, err
	}
	owned, err := a.store.PropertyOwned(user.ID, propertyID)
	if err != nil {
		return domain.PropertyDocument{}, fmt.Errorf("check ownership: %w", err)
	}
	if !owned {
		return domain.PropertyDocument{}, ErrNotFound
	}
	doc, err := a.store.CreateDocument(newDocument(propertyID, url))
	if err != nil {
		return domain.PropertyDocument{}, fmt.Errorf("create document: %w", err)
	}
	return doc, nil
}

// DeleteDocument removes one document after re-verifying ownership through
// its parent property.
func (a *App) DeleteDocument(ctx context.Context, user domain.User, documentID string) error {
	owned, err := a.store.DocumentOwned(user.ID, documentID)
	if err != nil {
		return fmt.Errorf("check ownership: %w", err)
	}
	if !owned {
		return ErrNotFound
	}
	if err := a.store.DeleteDocument(documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}
