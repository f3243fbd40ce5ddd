package articulation

import (
	"testing"

	"bizpilot/internal/types"
)

func TestParsePostCaptionAndHashtags(t *testing.T) {
	p := NewParser()

	preview := p.Parse(`Here's your post.
Caption: "Check out this home!" #dreamhome`)
	if preview == nil {
		t.Fatal("expected a preview, got nil")
	}
	if preview.Type != types.PreviewContentPost {
		t.Fatalf("type = %s, want content_post", preview.Type)
	}
	if preview.Post.Caption != "Check out this home!" {
		t.Errorf("caption = %q, want %q", preview.Post.Caption, "Check out this home!")
	}
	if preview.Post.Hashtags != "#dreamhome" {
		t.Errorf("hashtags = %q, want #dreamhome", preview.Post.Hashtags)
	}
}

func TestParsePostImageURL(t *testing.T) {
	p := NewParser()

	preview := p.Parse("Your image is ready: https://cdn.example.com/listing.jpg enjoy!")
	if preview == nil || preview.Type != types.PreviewContentPost {
		t.Fatalf("preview = %+v, want content_post", preview)
	}
	if preview.Post.ImageURL != "https://cdn.example.com/listing.jpg" {
		t.Errorf("imageUrl = %q", preview.Post.ImageURL)
	}
}

func TestParseEmail(t *testing.T) {
	p := NewParser()

	preview := p.Parse(`Subject: Open House This Saturday
To: buyers@example.com
Body: You're invited to our open house.`)
	if preview == nil || preview.Type != types.PreviewEmail {
		t.Fatalf("preview = %+v, want email", preview)
	}
	if preview.Email.Subject != "Open House This Saturday" {
		t.Errorf("subject = %q", preview.Email.Subject)
	}
	if preview.Email.Recipient != "buyers@example.com" {
		t.Errorf("recipient = %q", preview.Email.Recipient)
	}
}

func TestParseEmailRequiresMoreThanSubject(t *testing.T) {
	p := NewParser()

	if preview := p.Parse("Subject: just a lonely subject line"); preview != nil {
		t.Errorf("lone subject should not detect an email, got %+v", preview)
	}
}

func TestParseDocument(t *testing.T) {
	p := NewParser()

	preview := p.Parse(`Your document "Purchase Agreement" has been created and is ready for review.`)
	if preview == nil || preview.Type != types.PreviewDocument {
		t.Fatalf("preview = %+v, want document", preview)
	}
	if preview.Document.Title != "Purchase Agreement" {
		t.Errorf("title = %q", preview.Document.Title)
	}
}

// A reply matching both the post and email signatures must classify as a
// post; detector order is a contract, not an accident.
func TestParsePostBeatsEmail(t *testing.T) {
	p := NewParser()

	preview := p.Parse(`Caption: "New listing alert!" #justlisted
Subject: New Listing
To: list@example.com`)
	if preview == nil || preview.Type != types.PreviewContentPost {
		t.Fatalf("preview type = %v, want content_post", preview)
	}
}

func TestParseNoMatch(t *testing.T) {
	p := NewParser()

	if preview := p.Parse("The market looks strong this quarter."); preview != nil {
		t.Errorf("expected nil preview, got %+v", preview)
	}
}

func TestParsePreviewCarriesActions(t *testing.T) {
	p := NewParser()

	preview := p.Parse("Caption: spring vibes #garden")
	if preview == nil {
		t.Fatal("expected a preview")
	}
	if len(preview.Actions) == 0 {
		t.Error("post preview should carry its action list")
	}
}
