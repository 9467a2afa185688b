package videoid

import "testing"

func TestCanonical(t *testing.T) {
	cases := []struct {
		name string
		url  string
		want string
		ok   bool
	}{
		{"youtube watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"youtube watch with params", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ", true},
		{"youtube short link", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"youtube shorts", "https://www.youtube.com/shorts/abc123XYZ_-", "abc123XYZ_-", true},
		{"instagram reel", "https://www.instagram.com/reel/Cxyz12345ab/", "ig_Cxyz12345ab", true},
		{"instagram post", "https://instagram.com/p/Cabc_987", "ig_Cabc_987", true},
		{"tiktok", "https://www.tiktok.com/@somechef/video/7234567890123456789", "tt_7234567890123456789", true},
		{"v param on other host still matches", "https://example.com/watch?v=dQw4w9WgXcQ1", "dQw4w9WgXcQ", true},
		{"unsupported site", "https://vimeo.com/123456789", "", false},
		{"youtube id too short", "https://www.youtube.com/watch?v=short", "", false},
		{"empty", "   ", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Canonical(tc.url)
			if ok != tc.ok {
				t.Fatalf("Canonical(%q) ok = %v, want %v", tc.url, ok, tc.ok)
			}
			if got != tc.want {
				t.Fatalf("Canonical(%q) = %q, want %q", tc.url, got, tc.want)
			}
		})
	}
}

func TestIsVideoURL(t *testing.T) {
	accepted := []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ",
		"https://www.youtube.com/shorts/abc123XYZ_-",
		"HTTPS://YOUTU.BE/dQw4w9WgXcQ",
		"https://instagram.com/reel/Cxyz12345ab/",
		"https://www.tiktok.com/@somechef/video/7234567890123456789",
		"https://vm.tiktok.com/ZM6abcdef/",
	}
	for _, url := range accepted {
		if !IsVideoURL(url) {
			t.Errorf("expected %q to be accepted", url)
		}
	}

	rejected := []string{
		"",
		"not a url",
		"https://vimeo.com/123456789",
		"https://example.com/watch?v=dQw4w9WgXcQ",
		"ftp://youtube.com/watch?v=dQw4w9WgXcQ",
		"watch this: https://youtu.be/dQw4w9WgXcQ",
	}
	for _, url := range rejected {
		if IsVideoURL(url) {
			t.Errorf("expected %q to be rejected", url)
		}
	}
}

func TestIsYouTube(t *testing.T) {
	if !IsYouTube("https://www.youtube.com/watch?v=dQw4w9WgXcQ") {
		t.Error("expected youtube.com URL to be recognized")
	}
	if !IsYouTube("https://youtu.be/dQw4w9WgXcQ") {
		t.Error("expected youtu.be URL to be recognized")
	}
	if IsYouTube("https://www.instagram.com/reel/Cxyz12345ab/") {
		t.Error("expected instagram URL to be rejected")
	}
}
