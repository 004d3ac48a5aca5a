package baiteda

import (
	"fmt"
	"math/rand"
)

// Placeholder nickname vocabulary. The combination space (~58k) is large
// enough for display names; uniqueness is not required, the external id is
// the identity key.
var (
	nicknameAdjectives = []string{
		"brave", "calm", "clever", "eager", "gentle", "happy", "jolly",
		"keen", "lively", "merry", "nimble", "proud", "quick", "quiet",
		"sharp", "shiny", "steady", "swift", "warm", "witty",
	}
	nicknameNouns = []string{
		"badger", "crane", "dolphin", "falcon", "fox", "heron", "koala",
		"lynx", "marmot", "otter", "owl", "panda", "puffin", "raven",
		"robin", "salmon", "sparrow", "tiger", "whale", "wren",
	}
)

// randomNickname produces a placeholder display name like "quiet-otter-42".
func randomNickname() string {
	adj := nicknameAdjectives[rand.Intn(len(nicknameAdjectives))]
	noun := nicknameNouns[rand.Intn(len(nicknameNouns))]
	return fmt.Sprintf("%s-%s-%d", adj, noun, rand.Intn(100))
}
