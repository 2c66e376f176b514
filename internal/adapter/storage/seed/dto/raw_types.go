package seed_dto

// SeedRaw is the YAML layout of a development seed file.
type SeedRaw struct {
	ChainID      uint64    `yaml:"chain_id"`
	L2Registrar  string    `yaml:"l2_registrar"`
	NamesSlot    uint64    `yaml:"names_slot"`
	L2Names      []NameRaw `yaml:"l2_names"`
	DefaultNames []NameRaw `yaml:"default_names"`
}

// NameRaw is one address => name record.
type NameRaw struct {
	Address string `yaml:"address"`
	Name    string `yaml:"name"`
}
