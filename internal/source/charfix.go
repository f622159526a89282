package source

import "strings"

// The field-ops databases were populated through a legacy Latin-1 code
// path, so Turkish letters arrive mojibaked. Repaired here so personnel
// and customer names render correctly downstream.
var turkishRepairer = strings.NewReplacer(
	"ý", "ı",
	"Ý", "İ",
	"þ", "ş",
	"Þ", "Ş",
	"ð", "ğ",
	"Ð", "Ğ",
)

func FixTurkishChars(s string) string {
	if s == "" {
		return s
	}
	return turkishRepairer.Replace(s)
}
