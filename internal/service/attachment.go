package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/noah-isme/olympiad-progress-api/internal/observability"
)

var (
	// ErrAttachmentsDisabled indicates no file storage is configured.
	ErrAttachmentsDisabled = errors.New("answer attachments are disabled")
	// ErrAttachmentNotAllowed indicates a photo was sent for a task that does not take one.
	ErrAttachmentNotAllowed = errors.New("attachments are only accepted for open-ended tasks")
	// ErrAttachmentTooLarge indicates the photo exceeded the configured limit.
	ErrAttachmentTooLarge = errors.New("attachment exceeds maximum allowed size")
	// ErrAttachmentType indicates the photo is not an accepted image format.
	ErrAttachmentType = errors.New("attachment must be a jpeg, png, webp or heic image")
)

var allowedAttachmentTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/heic": {},
}

// FileUploader abstracts the store that keeps answer photos.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// FileRemover is implemented by uploaders that can delete a stored photo.
type FileRemover interface {
	Remove(ctx context.Context, url string) error
}

type attachmentStore struct {
	uploader FileUploader
	maxSize  int64
}

func newAttachmentStore(uploader FileUploader, maxSizeMB int) *attachmentStore {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &attachmentStore{uploader: uploader, maxSize: int64(maxSizeMB) * 1024 * 1024}
}

// store validates the photo and returns its public URL.
func (a *attachmentStore) store(ctx context.Context, file *multipart.FileHeader, studentID, taskID uint) (string, error) {
	if a.uploader == nil {
		return "", ErrAttachmentsDisabled
	}

	start := time.Now()
	defer func() {
		observability.AttachmentLatency().Observe(time.Since(start).Seconds())
	}()

	if file.Size > a.maxSize {
		observability.AttachmentsRejected().WithLabelValues("size").Inc()
		return "", ErrAttachmentTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open attachment: %w", err)
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, a.maxSize+1)); err != nil {
		return "", fmt.Errorf("read attachment: %w", err)
	}
	if int64(buf.Len()) > a.maxSize {
		observability.AttachmentsRejected().WithLabelValues("size").Inc()
		return "", ErrAttachmentTooLarge
	}

	detected := mimetype.Detect(buf.Bytes())
	if _, ok := allowedAttachmentTypes[detected.String()]; !ok {
		observability.AttachmentsRejected().WithLabelValues("type").Inc()
		return "", ErrAttachmentType
	}

	name := fmt.Sprintf("student-%d-task-%d%s", studentID, taskID, attachmentExtension(file.Filename, detected.Extension()))
	url, err := a.uploader.Upload(ctx, name, bytes.NewReader(buf.Bytes()))
	if err != nil {
		observability.AttachmentsRejected().WithLabelValues("storage").Inc()
		return "", fmt.Errorf("upload attachment: %w", err)
	}
	return url, nil
}

// discard removes a photo whose submission was never recorded. It reports
// false when the uploader cannot delete files.
func (a *attachmentStore) discard(ctx context.Context, url string) (bool, error) {
	remover, ok := a.uploader.(FileRemover)
	if !ok || url == "" {
		return false, nil
	}
	if err := remover.Remove(ctx, url); err != nil {
		return false, err
	}
	return true, nil
}

func attachmentExtension(filename, detected string) string {
	if detected != "" {
		return detected
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return ".bin"
	}
	return ext
}
