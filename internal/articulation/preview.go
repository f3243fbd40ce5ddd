package articulation

import (
	"regexp"
	"strings"

	"bizpilot/internal/types"
)

// =============================================================================
// CONTENT PREVIEW DETECTION - Reply Text → Structured Artifact
// =============================================================================
// Each detector is a named predicate+extractor pair. Detectors run in a fixed
// priority order and the first match wins: a reply satisfying both the post
// and email signatures is always classified as a post.

// Detector recognizes one artifact kind inside a reply.
type Detector interface {
	// Name identifies the detector in logs and tests.
	Name() string
	// Detect returns the preview if the reply contains this artifact kind,
	// or nil when it does not.
	Detect(reply string) *types.ContentPreview
}

// Parser runs detectors in priority order.
type Parser struct {
	detectors []Detector
}

// NewParser creates a parser with the standard detector ordering:
// social post, then email, then document.
func NewParser() *Parser {
	return &Parser{detectors: []Detector{
		postDetector{},
		emailDetector{},
		documentDetector{},
	}}
}

// Parse returns the first detected preview, or nil when the reply contains
// no recognizable artifact.
func (p *Parser) Parse(reply string) *types.ContentPreview {
	for _, d := range p.detectors {
		if preview := d.Detect(reply); preview != nil {
			return preview
		}
	}
	return nil
}

// =============================================================================
// SOCIAL POST
// =============================================================================

var (
	captionRe  = regexp.MustCompile(`(?im)^\s*caption:\s*(.+)$`)
	hashtagRe  = regexp.MustCompile(`(?:#[\w]+(?:\s+|$))+`)
	imageURLRe = regexp.MustCompile(`https?://\S+\.(?:png|jpe?g|gif|webp)\b`)
)

type postDetector struct{}

func (postDetector) Name() string { return "social_post" }

// Detect triggers on a caption marker, a hashtag run, or an image URL with a
// recognized extension. Whichever of the three fields are present get
// extracted; the others stay empty.
func (postDetector) Detect(reply string) *types.ContentPreview {
	caption := ""
	if m := captionRe.FindStringSubmatch(reply); m != nil {
		// Hashtags trailing the caption line belong to the hashtag field,
		// and captions are often quoted in the reply; strip one layer.
		caption = hashtagRe.ReplaceAllString(m[1], "")
		caption = strings.Trim(strings.TrimSpace(caption), `"`)
	}
	hashtags := strings.TrimSpace(hashtagRe.FindString(reply))
	imageURL := imageURLRe.FindString(reply)

	if caption == "" && hashtags == "" && imageURL == "" {
		return nil
	}

	return &types.ContentPreview{
		Type: types.PreviewContentPost,
		Post: &types.PostPreview{
			ImageURL: imageURL,
			Caption:  caption,
			Hashtags: hashtags,
		},
		Actions: []types.Action{
			{Key: "publish_post", Label: "Publish Post", Tool: "publish_post"},
			{Key: "edit_post", Label: "Edit Post", Tool: "edit_post"},
			{Key: "save_draft", Label: "Save Draft", Tool: "save_draft"},
		},
	}
}

// =============================================================================
// EMAIL
// =============================================================================

var (
	subjectRe   = regexp.MustCompile(`(?im)^\s*subject:\s*(.+)$`)
	recipientRe = regexp.MustCompile(`(?im)^\s*to:\s*(.+)$`)
	bodyRe      = regexp.MustCompile(`(?is)\bbody:\s*(.+)$`)
)

type emailDetector struct{}

func (emailDetector) Name() string { return "email" }

// Detect requires a subject marker co-occurring with either a recipient or a
// body marker. A lone subject line is too weak a signal.
func (emailDetector) Detect(reply string) *types.ContentPreview {
	subject := subjectRe.FindStringSubmatch(reply)
	if subject == nil {
		return nil
	}
	recipient := recipientRe.FindStringSubmatch(reply)
	body := bodyRe.FindStringSubmatch(reply)
	if recipient == nil && body == nil {
		return nil
	}

	preview := &types.EmailPreview{Subject: strings.TrimSpace(subject[1])}
	if recipient != nil {
		preview.Recipient = strings.TrimSpace(recipient[1])
	}
	if body != nil {
		preview.Body = strings.TrimSpace(body[1])
	}

	return &types.ContentPreview{
		Type:  types.PreviewEmail,
		Email: preview,
		Actions: []types.Action{
			{Key: "send_email", Label: "Send Email", Tool: "send_email"},
			{Key: "edit_email", Label: "Edit Email", Tool: "edit_email"},
		},
	}
}

// =============================================================================
// DOCUMENT
// =============================================================================

var (
	documentRe    = regexp.MustCompile(`(?i)\b(?:document|file|report)\b[^.!?\n]*\b(?:ready|created|generated)\b`)
	quotedTitleRe = regexp.MustCompile(`"([^"]+)"`)
)

type documentDetector struct{}

func (documentDetector) Name() string { return "document" }

// Detect triggers on a phrase indicating a document, file, or report is
// ready, created, or generated. The title, when quoted, is extracted.
func (documentDetector) Detect(reply string) *types.ContentPreview {
	if !documentRe.MatchString(reply) {
		return nil
	}

	title := ""
	if m := quotedTitleRe.FindStringSubmatch(reply); m != nil {
		title = m[1]
	}

	return &types.ContentPreview{
		Type:     types.PreviewDocument,
		Document: &types.DocumentPreview{Title: title},
		Actions: []types.Action{
			{Key: "save_document", Label: "Save Document", Tool: "save_document"},
			{Key: "edit_document", Label: "Edit Document", Tool: "edit_document"},
		},
	}
}
