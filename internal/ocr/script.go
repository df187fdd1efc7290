package ocr

import "unicode"

// ScriptMix summarizes the Latin/Khmer composition of extracted text.
type ScriptMix struct {
	KhmerRatio float64
	LatinRatio float64
	Letters    int
}

// khmerDominanceRatio is the Khmer share of letters above which the hosted
// vision engine is additionally invoked: local engines handle Khmer script
// poorly.
const khmerDominanceRatio = 0.5

// DetectScriptMix counts Latin versus Khmer letters in the text. Digits,
// punctuation, and whitespace carry no script signal and are ignored.
func DetectScriptMix(text string) ScriptMix {
	var khmer, latin, letters int
	for _, r := range text {
		switch {
		case r >= 0x1780 && r <= 0x17FF:
			khmer++
			letters++
		case unicode.IsLetter(r):
			latin++
			letters++
		}
	}

	mix := ScriptMix{Letters: letters}
	if letters > 0 {
		mix.KhmerRatio = float64(khmer) / float64(letters)
		mix.LatinRatio = float64(latin) / float64(letters)
	}
	return mix
}

// KhmerDominant reports whether Khmer script dominates the extracted text.
func (m ScriptMix) KhmerDominant() bool {
	return m.Letters > 0 && m.KhmerRatio >= khmerDominanceRatio
}
