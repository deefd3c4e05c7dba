package chat

import (
	"fmt"

	"github.com/murmurchat/murmur/internal/models"
)

// AttachmentView is the presentation of an attachment. Every kind exposes
// a download affordance; only the embed varies.
type AttachmentView struct {
	Kind        models.AttachmentKind `json:"kind"`
	DownloadURL string                `json:"download_url"`
	Filename    string                `json:"filename"`
	SizeLabel   string                `json:"size_label"`
	// Inline is true when the attachment is embedded in the message
	// body (image, video, audio) rather than shown as a file card.
	Inline bool `json:"inline"`
}

// RenderAttachment maps an attachment to its presentation. Unknown kinds
// fall back to the generic file card. Pure function.
func RenderAttachment(a models.Attachment) AttachmentView {
	view := AttachmentView{
		Kind:        a.Kind,
		DownloadURL: a.URL,
		Filename:    a.Filename,
		SizeLabel:   FormatSize(a.SizeBytes),
	}

	switch a.Kind {
	case models.AttachmentImage, models.AttachmentVideo, models.AttachmentAudio:
		view.Inline = true
	default:
		view.Kind = models.AttachmentFile
	}

	return view
}

// FormatSize renders a byte count for humans: plain bytes under 1 KB,
// two-decimal KB under 1 MB, two-decimal MB above.
func FormatSize(n int64) string {
	const (
		kb = 1024
		mb = kb * 1024
	)

	switch {
	case n < kb:
		return fmt.Sprintf("%d B", n)
	case n < mb:
		return fmt.Sprintf("%.2f KB", float64(n)/kb)
	default:
		return fmt.Sprintf("%.2f MB", float64(n)/mb)
	}
}
