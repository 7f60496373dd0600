package exam

// Params are the layout constants tuned for the two-column exam template.
type Params struct {
	Margin float64 `yaml:"margin" json:"margin"` // distance of each column from the page edge
	Gutter float64 `yaml:"gutter" json:"gutter"` // half-width of the gap between the columns

	TopPad        float64 `yaml:"top_pad" json:"top_pad"`               // whiteout starts this far above the number
	NextPad       float64 `yaml:"next_pad" json:"next_pad"`             // and stops this far above the next number
	FooterReserve float64 `yaml:"footer_reserve" json:"footer_reserve"` // bottom margin kept for the last item of a column
	NumberGap     float64 `yaml:"number_gap" json:"number_gap"`         // whiteout starts this far right of the number
	NoticeIndent  float64 `yaml:"notice_indent" json:"notice_indent"`   // notice starts this far inside the whiteout
	BaselineRatio float64 `yaml:"baseline_ratio" json:"baseline_ratio"` // notice baseline below the number's top, in body sizes

	LetterPad   float64 `yaml:"letter_pad" json:"letter_pad"`     // growth of an answer letter's box before blanking
	MarkerLift  float64 `yaml:"marker_lift" json:"marker_lift"`   // marker baseline above the letter's bottom edge
	RowDecimals int     `yaml:"row_decimals" json:"row_decimals"` // precision of the y coordinate used to bucket rows
}

// DefaultParams returns the constants used by the standard template.
func DefaultParams() Params {
	return Params{
		Margin:        50,
		Gutter:        20,
		TopPad:        2,
		NextPad:       6,
		FooterReserve: 60,
		NumberGap:     2,
		NoticeIndent:  5,
		BaselineRatio: 0.9,
		LetterPad:     1,
		MarkerLift:    0.7,
		RowDecimals:   1,
	}
}

// Strings are the fixed texts of the exam template.
type Strings struct {
	Notice   string `yaml:"notice" json:"notice"`     // written over a cancelled question
	Heading  string `yaml:"heading" json:"heading"`   // marks the answer-key page
	Alphabet string `yaml:"alphabet" json:"alphabet"` // answer letters
	Marker   string `yaml:"marker" json:"marker"`     // written over a cancelled answer
}

// DefaultStrings returns the Turkish exam template texts.
func DefaultStrings() Strings {
	return Strings{
		Notice:   "Bu soru iptal edilmiştir",
		Heading:  "Cevap Anahtarı",
		Alphabet: "ABCDE",
		Marker:   "İ",
	}
}
