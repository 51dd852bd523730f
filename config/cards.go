package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// CardSeed is one catalog entry of a cards TOML file.
type CardSeed struct {
	Name        string `toml:"name"`
	Rarity      string `toml:"rarity"`
	Description string `toml:"description"`
	ImageURL    string `toml:"image_url"`
}

// LoadCardCatalog reads the [[cards]] entries of a TOML file.
func LoadCardCatalog(path string) ([]CardSeed, error) {
	var file struct {
		Cards []CardSeed `toml:"cards"`
	}
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	for i, c := range file.Cards {
		if c.Name == "" {
			return nil, fmt.Errorf("card #%d has no name", i+1)
		}
	}
	return file.Cards, nil
}
