package dedup

import "testing"

func TestParseCitation(t *testing.T) {
	tests := []struct {
		input string
		want  *Citation
	}{
		{"John 3:16", &Citation{Book: "john", Chapter: 3, VerseStart: 16, VerseEnd: 16}},
		{"John 3:16-18", &Citation{Book: "john", Chapter: 3, VerseStart: 16, VerseEnd: 18}},
		{"1 John 3:17", &Citation{Book: "1 john", Chapter: 3, VerseStart: 17, VerseEnd: 17}},
		{"  psalm   23:1–3 ", &Citation{Book: "psalm", Chapter: 23, VerseStart: 1, VerseEnd: 3}},
		{"Song of Solomon 2:4", &Citation{Book: "song of solomon", Chapter: 2, VerseStart: 4, VerseEnd: 4}},
		{"PROVERBS 3:5-6", &Citation{Book: "proverbs", Chapter: 3, VerseStart: 5, VerseEnd: 6}},
		{"", nil},
		{"Be kind to one another", nil},
		{"John 3", nil},
		{"John 3:18-16", nil},
		{"John 0:1", nil},
		{"John 3:16 (NIV)", nil},
		{"3:16", nil},
	}

	for _, tt := range tests {
		got := ParseCitation(tt.input)
		if tt.want == nil {
			if got != nil {
				t.Errorf("ParseCitation(%q) = %+v, want unparseable", tt.input, got)
			}
			continue
		}
		if got == nil {
			t.Errorf("ParseCitation(%q) = nil, want %+v", tt.input, tt.want)
			continue
		}
		if *got != *tt.want {
			t.Errorf("ParseCitation(%q) = %+v, want %+v", tt.input, got, tt.want)
		}
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"John 3:16-18", "John 3:17", true},
		{"John 3:16", "John 4:16", false},
		{"John 3:16-18", "1 John 3:17", false},
		{"Psalm 23:1-3", "Psalm 23:2", true},
		{"Psalm 23:1-3", "Psalm 23:3-6", true},
		{"Psalm 23:1-3", "Psalm 23:4", false},
		{"Psalm 23:1", "Psalms 23:1", false},
		{"John 3:16", "not a citation", false},
	}

	for _, tt := range tests {
		a, b := ParseCitation(tt.a), ParseCitation(tt.b)
		if got := Overlaps(a, b); got != tt.want {
			t.Errorf("Overlaps(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
		if got := Overlaps(b, a); got != tt.want {
			t.Errorf("Overlaps(%q, %q) = %v, want %v (symmetry)", tt.b, tt.a, got, tt.want)
		}
	}
}

func TestOverlaps_Nil(t *testing.T) {
	if Overlaps(nil, nil) {
		t.Error("nil citations must never overlap")
	}
}

func TestCitationKey(t *testing.T) {
	if CitationKey("John  3:16") != CitationKey("john 3:16") {
		t.Error("expected case and spacing to be folded")
	}
	if CitationKey("John 3:16-16") != "john 3:16" {
		t.Errorf("expected single-verse range to collapse, got %q", CitationKey("John 3:16-16"))
	}
	if CitationKey("Sermon on the Mount") != "sermon on the mount" {
		t.Errorf("unexpected key for unparseable citation: %q", CitationKey("Sermon on the Mount"))
	}
}
