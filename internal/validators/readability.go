package validators

import (
	"regexp"
	"strings"
)

var sentenceEndRe = regexp.MustCompile(`[.!?]+`)

// FleschKincaidGrade estimates the US school grade level needed to read
// the text. Sentences are split on terminal punctuation; syllables are
// counted as vowel groups with a silent-e adjustment. The estimate
// tracks the standard formula closely enough to separate plain web copy
// from academic prose, which is all the reading-level check needs.
func FleschKincaidGrade(text string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	syllables := 0
	for _, w := range words {
		syllables += countSyllables(w)
	}
	wordsPerSentence := float64(len(words)) / float64(countSentences(text))
	syllablesPerWord := float64(syllables) / float64(len(words))
	return 0.39*wordsPerSentence + 11.8*syllablesPerWord - 15.59
}

func countSentences(text string) int {
	count := 0
	for _, part := range sentenceEndRe.Split(text, -1) {
		if strings.TrimSpace(part) != "" {
			count++
		}
	}
	if count == 0 {
		return 1
	}
	return count
}

func countSyllables(word string) int {
	word = strings.ToLower(nonLetterRe.ReplaceAllString(word, ""))
	if word == "" {
		return 0
	}
	groups := 0
	prevVowel := false
	for _, r := range word {
		vowel := strings.ContainsRune("aeiouy", r)
		if vowel && !prevVowel {
			groups++
		}
		prevVowel = vowel
	}
	// A trailing silent e does not add a syllable: "make" is one, but
	// "table" keeps its -le syllable.
	if groups > 1 && strings.HasSuffix(word, "e") && !strings.HasSuffix(word, "le") {
		groups--
	}
	if groups == 0 {
		return 1
	}
	return groups
}
