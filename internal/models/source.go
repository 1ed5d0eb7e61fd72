package models

import "strings"

// FileSource is where the bytes of a new file come from. It is either an
// UploadSource or an InlineContent.
type FileSource interface {
	Kind() string
	DisplayName() string
	Size() int64
}

// UploadSource is a binary received as a multipart upload.
type UploadSource struct {
	Name         string
	OriginalName string
	MIMEType     string
	Data         []byte
}

func (u UploadSource) Kind() string { return FileTypeUpload }

// DisplayName prefers the user supplied name over the uploaded file's own.
func (u UploadSource) DisplayName() string {
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	return u.OriginalName
}

func (u UploadSource) Size() int64 { return int64(len(u.Data)) }

var displayableMIMETypes = map[string]bool{
	"application/json":       true,
	"application/xml":        true,
	"text/csv":               true,
	"application/javascript": true,
}

// IsText reports whether the upload can be shown inline as text.
func (u UploadSource) IsText() bool {
	return IsTextMIME(u.MIMEType)
}

func IsTextMIME(mimeType string) bool {
	base := strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0])
	return strings.HasPrefix(base, "text/") || displayableMIMETypes[base]
}

// InlineContent is a text file typed in by the user.
type InlineContent struct {
	Name    string
	Content string
}

func (c InlineContent) Kind() string { return FileTypeCreate }

func (c InlineContent) DisplayName() string { return strings.TrimSpace(c.Name) }

func (c InlineContent) Size() int64 { return int64(len(c.Content)) }
