package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFleschKincaidGrade(t *testing.T) {
	t.Run("plain prose scores low", func(t *testing.T) {
		grade := FleschKincaidGrade("We make small sites. Our team is small. We like short words. You can call us today.")
		assert.Less(t, grade, 6.0)
	})

	t.Run("academic prose scores high", func(t *testing.T) {
		grade := FleschKincaidGrade(academicSentence)
		assert.Greater(t, grade, 12.0)
	})

	t.Run("empty text scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, FleschKincaidGrade(""))
		assert.Equal(t, 0.0, FleschKincaidGrade("   "))
	})
}

func TestCountSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"three sentences", "One. Two! Three?", 3},
		{"no terminal punctuation", "no punctuation at all", 1},
		{"combined punctuation", "Wait... what?!", 2},
		{"empty", "", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, countSentences(tt.text))
		})
	}
}

func TestCountSyllables(t *testing.T) {
	tests := []struct {
		word string
		want int
	}{
		{"make", 1},
		{"table", 2},
		{"hello", 2},
		{"strength", 1},
		{"beautiful", 3},
		{"a", 1},
		{"rhythm", 1},
		{"operationalization", 8},
		{"123", 0},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, countSyllables(tt.word))
		})
	}
}
