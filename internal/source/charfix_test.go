package source

import "testing"

func TestFixTurkishChars(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"AYÞE YILMAZ", "AYŞE YILMAZ"},
		{"Iþýk Gýda", "Işık Gıda"},
		{"ÐÜNEÞ MARKET", "ĞÜNEŞ MARKET"},
		{"Ýstanbul Þubesi", "İstanbul Şubesi"},
		// Already-clean text passes through untouched.
		{"Mehmet Öztürk", "Mehmet Öztürk"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := FixTurkishChars(tc.in); got != tc.want {
			t.Errorf("FixTurkishChars(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
