package model

// MasterData holds the selection lists offered when adding or filtering items.
// Item fields are not checked against them.
type MasterData struct {
	Categories []string `json:"categories" yaml:"categories"`
	Locations  []string `json:"locations" yaml:"locations"`
}

// Clone returns a deep copy.
func (m MasterData) Clone() MasterData {
	return MasterData{
		Categories: append([]string(nil), m.Categories...),
		Locations:  append([]string(nil), m.Locations...),
	}
}
