package core

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	blobcore "crmcore/internal/blob/core"
	"crmcore/internal/ids"
	"crmcore/pkg/domain"
)

// AttachmentURLExpiry is how long presigned attachment links stay valid.
// S3 caps presigned URLs at seven days.
const AttachmentURLExpiry = 7 * 24 * time.Hour

// AttachmentPrefix is the blob key prefix shared by every upload of a lead.
func AttachmentPrefix(leadID string) string {
	return "leads/" + leadID + "/"
}

// AttachmentKey returns the blob key for an uploaded lead file.
func AttachmentKey(leadID, uploadID, filename string) string {
	return AttachmentPrefix(leadID) + uploadID + "-" + cleanFilename(filename)
}

func cleanFilename(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return name
}

// AttachLeadFile uploads r to the blob store and links it to the lead. The
// label defaults to the file name.
func (s *Service) AttachLeadFile(ctx context.Context, leadID, label, filename, contentType string, r io.Reader) (domain.FileLink, domain.Result, error) {
	if s.blobs == nil {
		return domain.FileLink{}, domain.Result{}, ErrNoBlobStore
	}
	if _, ok := s.store.GetLead(leadID); !ok {
		return domain.FileLink{}, domain.Result{}, fmt.Errorf("%w: %s", ErrLeadNotFound, leadID)
	}
	if strings.TrimSpace(label) == "" {
		label = cleanFilename(filename)
	}

	key := AttachmentKey(leadID, ids.New("upload"), filename)
	info, err := s.blobs.Put(ctx, key, r, blobcore.PutOptions{
		ContentType: contentType,
		Metadata:    map[string]string{"lead": leadID, "label": label},
	})
	if err != nil {
		s.logger.Error("attachment upload failed", "lead_id", leadID, "key", key, "error", err)
		return domain.FileLink{}, domain.Result{}, fmt.Errorf("core: upload attachment: %w", err)
	}
	url, err := s.blobs.PresignURL(ctx, info.Key, blobcore.SignedURLOptions{Expiry: AttachmentURLExpiry})
	if err != nil {
		s.discardBlob(ctx, key)
		return domain.FileLink{}, domain.Result{}, fmt.Errorf("core: attachment url: %w", err)
	}

	var link domain.FileLink
	_, res, err := s.run(ctx, OpAttachLeadFile, func(tx domain.Transaction) string {
		if id := tx.AddLeadFile(leadID, label, url); id != "" {
			link = domain.FileLink{ID: id, Label: label, URL: url}
		}
		return leadID
	})
	if err != nil {
		s.discardBlob(ctx, key)
		return domain.FileLink{}, res, err
	}
	if link.ID == "" {
		// lead removed between the check and the transaction
		s.discardBlob(ctx, key)
		return domain.FileLink{}, res, fmt.Errorf("%w: %s", ErrLeadNotFound, leadID)
	}
	s.logger.Info("attachment stored", "lead_id", leadID, "file_id", link.ID, "key", key, "size", info.Size, "driver", s.blobs.Driver())
	return link, res, nil
}

func (s *Service) discardBlob(ctx context.Context, key string) {
	if _, err := s.blobs.Delete(ctx, key); err != nil {
		s.logger.Warn("attachment cleanup failed", "key", key, "error", err)
	}
}

// ListLeadAttachments returns the uploaded blobs of a lead, each with a fresh
// link in URL.
func (s *Service) ListLeadAttachments(ctx context.Context, leadID string) ([]blobcore.Info, error) {
	if s.blobs == nil {
		return nil, ErrNoBlobStore
	}
	if _, ok := s.store.GetLead(leadID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrLeadNotFound, leadID)
	}
	infos, err := s.blobs.List(ctx, AttachmentPrefix(leadID))
	if err != nil {
		return nil, fmt.Errorf("core: list attachments: %w", err)
	}
	out := make([]blobcore.Info, 0, len(infos))
	for _, info := range infos {
		url, err := s.blobs.PresignURL(ctx, info.Key, blobcore.SignedURLOptions{Expiry: AttachmentURLExpiry})
		if err != nil {
			return nil, fmt.Errorf("core: attachment url %s: %w", info.Key, err)
		}
		info.URL = url
		out = append(out, info)
	}
	return out, nil
}
