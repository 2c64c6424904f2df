package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCensoredLoader_LoadAll_Merges_Dictionaries(t *testing.T) {
	req := require.New(t)
	loader := NewCensoredLoader(censoredFolder)

	// When loading every embedded dictionary
	data, err := loader.LoadAll("censored")

	// Then one language per file is reported and words are merged
	req.NoError(err)
	req.ElementsMatch([]string{"en", "fr"}, data.Languages)
	req.NotEmpty(data.Words)

	// And no word appears twice
	seen := make(map[string]struct{}, len(data.Words))
	for _, w := range data.Words {
		_, dup := seen[w]
		req.False(dup, "duplicate word %q", w)
		seen[w] = struct{}{}
	}
}

func TestCensoredLoader_LoadAll_Missing_Directory(t *testing.T) {
	req := require.New(t)
	loader := NewCensoredLoader(censoredFolder)

	_, err := loader.LoadAll("does-not-exist")

	req.Error(err)
}
