package service

import (
	"math/rand"
	"strings"
)

type Character struct {
	Name     string `json:"name"`
	Color    string `json:"color"`
	Initials string `json:"initials"`
}

const fallbackCharacterColor = "#6B7280"

var characterPool = []Character{
	{Name: "Peter Griffin", Color: "#4A90D9"},
	{Name: "Lois Griffin", Color: "#E74C3C"},
	{Name: "Stewie Griffin", Color: "#F1C40F"},
	{Name: "Brian Griffin", Color: "#ECF0F1"},
	{Name: "Chris Griffin", Color: "#E67E22"},
	{Name: "Meg Griffin", Color: "#9B59B6"},
	{Name: "Glenn Quagmire", Color: "#2ECC71"},
	{Name: "Cleveland Brown", Color: "#8B4513"},
	{Name: "Joe Swanson", Color: "#3498DB"},
	{Name: "Herbert", Color: "#95A5A6"},
	{Name: "Angry Monkey", Color: "#8B4513"},
	{Name: "God", Color: "#FFD700"},
}

func init() {
	for i := range characterPool {
		characterPool[i].Initials = characterInitials(characterPool[i].Name)
	}
}

// Characters returns a copy of the character pool.
func Characters() []Character {
	return append([]Character(nil), characterPool...)
}

// PickCharacter chooses a character not in used. Once every character is
// taken duplicates are allowed. intn is rand.Intn unless a test overrides it.
func PickCharacter(used []string, intn func(int) int) Character {
	if intn == nil {
		intn = rand.Intn
	}
	taken := make(map[string]bool, len(used))
	for _, name := range used {
		taken[name] = true
	}
	available := make([]Character, 0, len(characterPool))
	for _, c := range characterPool {
		if !taken[c.Name] {
			available = append(available, c)
		}
	}
	if len(available) == 0 {
		available = characterPool
	}
	return available[intn(len(available))]
}

func CharacterColor(name string) string {
	for _, c := range characterPool {
		if c.Name == name {
			return c.Color
		}
	}
	return fallbackCharacterColor
}

func characterInitials(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		b.WriteString(strings.ToUpper(word[:1]))
	}
	return b.String()
}
