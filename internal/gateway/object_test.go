package gateway

import (
	"strings"
	"testing"
	"time"
)

func TestSanitizeObjectName(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{input: "photo.png", want: "photo.png"},
		{input: "my photo (1).png", want: "my_photo_1_.png"},
		{input: "a/b\\c.png", want: "a_b_c.png"},
		{input: "héllo.png", want: "h_llo.png"},
		{input: "safe-name_01.webm", want: "safe-name_01.webm"},
	}

	for _, testCase := range cases {
		if got := SanitizeObjectName(testCase.input); got != testCase.want {
			t.Fatalf("SanitizeObjectName(%q) = %q, want %q", testCase.input, got, testCase.want)
		}
	}
}

func TestObjectPath(t *testing.T) {
	now := time.UnixMilli(1700000000000).UTC()
	got := ObjectPath(now, "cover art.png")
	want := "uploads/1700000000000-cover_art.png"
	if got != want {
		t.Fatalf("ObjectPath = %q, want %q", got, want)
	}
}

func TestInlineObjectURLUsesExtensionMimeType(t *testing.T) {
	url := InlineObjectURL("photo.png", []byte{0x89, 0x50, 0x4E, 0x47})
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Fatalf("unexpected data URL prefix: %q", url)
	}
}

func TestInlineObjectURLSniffsUnknownExtensions(t *testing.T) {
	// PNG magic bytes with a useless extension still classify as image/png.
	payload := []byte("\x89PNG\r\n\x1a\n" + strings.Repeat("\x00", 32))
	url := InlineObjectURL("upload.bin", payload)
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Fatalf("unexpected data URL prefix: %q", url)
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

	active := Session{Token: "t", ExpiresAt: now.Add(time.Minute)}
	if active.Expired(now) {
		t.Fatalf("session should still be active")
	}
	expired := Session{Token: "t", ExpiresAt: now.Add(-time.Minute)}
	if !expired.Expired(now) {
		t.Fatalf("session should be expired")
	}
	eternal := Session{Token: "t"}
	if eternal.Expired(now.AddDate(10, 0, 0)) {
		t.Fatalf("session without expiry must never expire")
	}
}
