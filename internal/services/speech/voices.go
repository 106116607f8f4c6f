package speech

import "math/rand"

var femaleVoices = []string{
	"en-US-Wavenet-F",
	"en-US-Wavenet-H",
	"en-US-Neural2-C",
	"en-GB-Neural2-F",
}

var maleVoices = []string{
	"en-US-Wavenet-D",
	"en-US-Wavenet-J",
	"en-US-Neural2-I",
	"en-GB-Neural2-D",
}

// Voices returns every selectable voice name.
func Voices() []string {
	all := make([]string, 0, len(femaleVoices)+len(maleVoices))
	all = append(all, femaleVoices...)
	all = append(all, maleVoices...)
	return all
}

// RandomVoice picks a voice uniformly from the full list.
func RandomVoice() string {
	all := Voices()
	return all[rand.Intn(len(all))]
}

// KnownVoice reports whether name is one of the selectable voices.
func KnownVoice(name string) bool {
	for _, voice := range Voices() {
		if voice == name {
			return true
		}
	}
	return false
}
