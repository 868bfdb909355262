package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsGarbageEmpty(t *testing.T) {
	assert.True(t, IsGarbage(""))
	assert.True(t, IsGarbage("   \n\t  "))
}

func TestIsGarbageRepeatedCharacter(t *testing.T) {
	assert.True(t, IsGarbage(strings.Repeat("a", 500)))
	assert.True(t, IsGarbage(strings.Repeat("ab", 250)))
	assert.True(t, IsGarbage(strings.Repeat("no ", 100)))
}

func TestIsGarbageNonLinguistic(t *testing.T) {
	assert.True(t, IsGarbage(strings.Repeat("!?#%&*()[]{}<>~^ ", 10)))
}

func TestIsGarbageNormalAnswer(t *testing.T) {
	answer := "Tuition fees for the senior school are £10,423 per term. " +
		"This includes stationery, textbooks and insurance. " +
		"Devices are charged at £125 per term from Year 7 onwards."
	assert.False(t, IsGarbage(answer))
}

func TestIsGarbageShortAnswersPass(t *testing.T) {
	// Conservative by design: short legitimate answers are never flagged.
	assert.False(t, IsGarbage("Yes."))
	assert.False(t, IsGarbage("£10,423 per term."))
	assert.False(t, IsGarbage("aaaa"))
}

func TestIsGarbageBulletListPasses(t *testing.T) {
	answer := "The main entry points are:\n• 4+ entry\n• 7+ entry\n• 11+ entry\n• 16+ entry\nEach has its own assessment process."
	assert.False(t, IsGarbage(answer))
}
